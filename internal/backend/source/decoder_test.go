package source

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode PNG: %v", err)
	}
	return buf.Bytes()
}

func TestDecoder_DecodePNG(t *testing.T) {
	img, err := NewDecoder(0, 0).Decode(encodePNG(t, 20, 10))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 20 || b.Dy() != 10 {
		t.Fatalf("Expected 20x10, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestDecoder_DecodeJPEG(t *testing.T) {
	src, err := NewDecoder(0, 0).Decode(encodePNG(t, 16, 8))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	data, err := EncodeJPEG(src, 90)
	if err != nil {
		t.Fatalf("EncodeJPEG failed: %v", err)
	}

	img, err := NewDecoder(0, 0).Decode(data)
	if err != nil {
		t.Fatalf("Decode failed for JPEG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 8 {
		t.Fatalf("Expected 16x8, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestDecoder_RenderSVGWithFallbackSize(t *testing.T) {
	svgData := []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100"><rect width="100" height="100" fill="red"/></svg>`)

	img, err := NewDecoder(64, 64).Decode(svgData)
	if err != nil {
		t.Fatalf("Decode failed for SVG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 64 {
		t.Fatalf("Expected 64x64, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestDecoder_RenderSVGWithExplicitSize(t *testing.T) {
	svgData := []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="30px" height='20'><rect width="30" height="20" fill="blue"/></svg>`)

	img, err := NewDecoder(64, 64).Decode(svgData)
	if err != nil {
		t.Fatalf("Decode failed for SVG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 30 || b.Dy() != 20 {
		t.Fatalf("Expected 30x20, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestDecoder_SVGWithoutSizeOrFallback(t *testing.T) {
	svgData := []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10"></svg>`)

	_, err := NewDecoder(0, 0).Decode(svgData)
	if !errors.Is(err, ErrUnsupportedImage) {
		t.Fatalf("Expected ErrUnsupportedImage, got %v", err)
	}
}

func TestDecoder_Garbage(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "text", data: []byte("definitely not an image")},
		{name: "truncated png", data: encodePNG(t, 4, 4)[:20]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDecoder(0, 0).Decode(tt.data)
			if !errors.Is(err, ErrUnsupportedImage) {
				t.Fatalf("Expected ErrUnsupportedImage, got %v", err)
			}
		})
	}
}

func encodeGrayPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("Failed to encode PNG: %v", err)
	}
	return buf.Bytes()
}

func TestDecoder_RejectsOversizedRaster(t *testing.T) {
	tests := []struct {
		name string
		w, h int
	}{
		{name: "too wide", w: MaxSourceDimension + 1, h: 1},
		{name: "too tall", w: 1, h: MaxSourceDimension + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDecoder(0, 0).Decode(encodeGrayPNG(t, tt.w, tt.h))
			if !errors.Is(err, ErrUnsupportedImage) {
				t.Fatalf("Expected ErrUnsupportedImage, got %v", err)
			}
		})
	}
}

func TestDecoder_AcceptsMaximumRaster(t *testing.T) {
	img, err := NewDecoder(0, 0).Decode(encodeGrayPNG(t, MaxSourceDimension, 1))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != MaxSourceDimension || b.Dy() != 1 {
		t.Fatalf("Expected %dx1, got %dx%d", MaxSourceDimension, b.Dx(), b.Dy())
	}
}

func TestDecoder_RejectsOversizedSVG(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "explicit width", data: `<svg xmlns="http://www.w3.org/2000/svg" width="20000" height="10"></svg>`},
		{name: "explicit height", data: `<svg xmlns="http://www.w3.org/2000/svg" width="10" height="99999999999"></svg>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDecoder(64, 64).Decode([]byte(tt.data))
			if !errors.Is(err, ErrUnsupportedImage) {
				t.Fatalf("Expected ErrUnsupportedImage, got %v", err)
			}
		})
	}
}

func TestDecoder_RejectsOversizedSVGFallback(t *testing.T) {
	svgData := []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10"></svg>`)

	_, err := NewDecoder(MaxSourceDimension+1, 10).Decode(svgData)
	if !errors.Is(err, ErrUnsupportedImage) {
		t.Fatalf("Expected ErrUnsupportedImage, got %v", err)
	}
}

func TestParseSvgExplicitSize(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		wantW int
		wantH int
		ok    bool
	}{
		{name: "quoted px", data: `<svg width="12px" height="34px">`, wantW: 12, wantH: 34, ok: true},
		{name: "single quotes", data: `<svg width='5' height='6'>`, wantW: 5, wantH: 6, ok: true},
		{name: "viewBox only", data: `<svg viewBox="0 0 10 10">`, ok: false},
		{name: "percent", data: `<svg width="%" height="10">`, ok: false},
		{name: "too large saturates", data: `<svg width="99999999999999999999" height="10">`, wantW: 99999, wantH: 10, ok: true},
		{name: "unquoted", data: `<svg width=10 height=10>`, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h, ok := parseSvgExplicitSize([]byte(tt.data))
			if ok != tt.ok || w != tt.wantW || h != tt.wantH {
				t.Fatalf("parseSvgExplicitSize(%q) = %d, %d, %v; want %d, %d, %v", tt.data, w, h, ok, tt.wantW, tt.wantH, tt.ok)
			}
		})
	}
}
