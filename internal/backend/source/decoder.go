package source

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"strings"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decoder turns fetched source bytes into an image.
type Decoder struct {
	svgFallbackWidth  int
	svgFallbackHeight int
}

// NewDecoder creates a decoder. The fallback size is used for SVGs without explicit
// width and height; zero disables rendering such SVGs.
func NewDecoder(svgFallbackWidth, svgFallbackHeight int) *Decoder {
	return &Decoder{
		svgFallbackWidth:  svgFallbackWidth,
		svgFallbackHeight: svgFallbackHeight,
	}
}

// Decode supports PNG, JPEG, GIF, BMP, TIFF, WebP and SVG input.
func (d *Decoder) Decode(data []byte) (image.Image, error) {
	if isSVGData(data) {
		return d.decodeSVG(data)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if err := checkSourceSize(cfg.Width, cfg.Height); err != nil {
		return nil, fmt.Errorf("%w: %s %v", ErrUnsupportedImage, format, err)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	slog.Debug("Decoder: decoded raster image",
		"format", format,
		"width", img.Bounds().Dx(),
		"height", img.Bounds().Dy())
	return img, nil
}

func (d *Decoder) decodeSVG(data []byte) (image.Image, error) {
	w, h, ok := parseSvgExplicitSize(data)
	if !ok {
		if d.svgFallbackWidth <= 0 || d.svgFallbackHeight <= 0 {
			return nil, fmt.Errorf("%w: SVG has no explicit size and no fallback size is configured", ErrUnsupportedImage)
		}
		w, h = d.svgFallbackWidth, d.svgFallbackHeight
		slog.Debug("Decoder: SVG lacks explicit size; using fallback", "width", w, "height", h)
	}
	if err := checkSourceSize(w, h); err != nil {
		return nil, fmt.Errorf("%w: svg %v", ErrUnsupportedImage, err)
	}

	img, err := renderSVG(data, w, h)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	return img, nil
}

// isSVGData performs a lightweight detection of SVG content from raw bytes.
func isSVGData(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	n := len(data)
	if n > 4096 {
		n = 4096
	}
	header := bytes.ToLower(bytes.TrimSpace(data[:n]))
	return bytes.Contains(header, []byte("<svg")) ||
		bytes.Contains(header, []byte("xmlns=\"http://www.w3.org/2000/svg\"")) ||
		bytes.Contains(header, []byte("xmlns='http://www.w3.org/2000/svg'"))
}

// parseSvgExplicitSize extracts width and height attributes of the root svg element.
// viewBox is not treated as a pixel size.
func parseSvgExplicitSize(data []byte) (int, int, bool) {
	n := len(data)
	if n > 8192 {
		n = 8192
	}
	s := strings.ToLower(string(data[:n]))
	i := strings.Index(s, "<svg")
	if i < 0 {
		return 0, 0, false
	}
	j := strings.Index(s[i:], ">")
	if j < 0 {
		j = len(s)
	} else {
		j = i + j
	}
	tag := s[i:j]

	w, wOk := parseNumericAttr(tag, "width")
	h, hOk := parseNumericAttr(tag, "height")
	if wOk && hOk {
		return w, h, true
	}
	return 0, 0, false
}

// parseNumericAttr extracts the leading integer of a quoted attribute value (e.g. width="123px").
func parseNumericAttr(tag, attr string) (int, bool) {
	pos := strings.Index(tag, " "+attr+"=")
	if pos < 0 {
		return 0, false
	}
	rest := tag[pos+len(attr)+2:]
	if len(rest) == 0 || (rest[0] != '"' && rest[0] != '\'') {
		return 0, false
	}
	quote := rest[0]
	rest = rest[1:]
	if end := strings.IndexByte(rest, quote); end >= 0 {
		rest = rest[:end]
	}

	num := 0
	found := false
	for i := 0; i < len(rest); i++ {
		ch := rest[i]
		if ch < '0' || ch > '9' {
			break
		}
		found = true
		// saturate so oversized values stay detectable without overflowing
		if num <= MaxSourceDimension {
			num = num*10 + int(ch-'0')
		}
	}
	if !found || num <= 0 {
		return 0, false
	}
	return num, true
}

// MaxSourceDimension bounds the width and height of a source image. Larger
// canvases are rejected before any pixels are allocated.
const MaxSourceDimension = 16384

func checkSourceSize(w, h int) error {
	if w > MaxSourceDimension || h > MaxSourceDimension {
		return fmt.Errorf("size %dx%d exceeds the maximum of %d", w, h, MaxSourceDimension)
	}
	return nil
}

// renderSVG rasterizes an SVG onto a white canvas of the given size.
func renderSVG(svgData []byte, targetW, targetH int) (image.Image, error) {
	if targetW <= 0 || targetH <= 0 {
		return nil, fmt.Errorf("invalid target dimensions for SVG rendering: %dx%d", targetW, targetH)
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svgData))
	if err != nil {
		return nil, fmt.Errorf("failed to parse SVG: %w", err)
	}
	icon.SetTarget(0, 0, float64(targetW), float64(targetH))

	dst := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(targetW, targetH, dst, dst.Bounds())
	dasher := rasterx.NewDasher(targetW, targetH, scanner)
	icon.Draw(dasher, 1.0)
	return dst, nil
}
