package operations

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"

	"github.com/jo-hoe/imageproc/internal/common"
)

// spectra6Palette approximates the printed colors of six-color e-paper panels.
var spectra6Palette = []color.RGBA{
	{R: 25, G: 30, B: 33, A: 255},
	{R: 232, G: 232, B: 232, A: 255},
	{R: 239, G: 222, B: 68, A: 255},
	{R: 178, G: 19, B: 24, A: 255},
	{R: 33, G: 87, B: 186, A: 255},
	{R: 18, G: 95, B: 32, A: 255},
}

// DitherParams represents typed parameters for the dither operation
type DitherParams struct {
	Palette  []color.RGBA
	Strength float64 // share of the quantization error that is diffused, 0..1
}

// NewDitherParamsFromMap creates DitherParams from a generic map.
// palette is a list of hex colors and defaults to the six-color e-paper palette.
func NewDitherParamsFromMap(params map[string]any) (*DitherParams, error) {
	strength, err := GetRangeParam(params, "strength", 1, 0, 1)
	if err != nil {
		return nil, err
	}
	typed := &DitherParams{
		Palette:  spectra6Palette,
		Strength: strength,
	}

	if raw, ok := params["palette"]; ok {
		palette, err := parsePalette(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid palette: %v", ErrInvalidParameter, err)
		}
		typed.Palette = palette
	}
	return typed, nil
}

func parsePalette(raw any) ([]color.RGBA, error) {
	entries, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("palette must be a list of hex colors")
	}
	if len(entries) < 2 {
		return nil, fmt.Errorf("palette needs at least 2 colors, got %d", len(entries))
	}

	palette := make([]color.RGBA, 0, len(entries))
	for i, entry := range entries {
		hex, ok := entry.(string)
		if !ok {
			return nil, fmt.Errorf("color at index %d must be a string", i)
		}
		c, err := common.ParseColor(hex)
		if err != nil {
			return nil, fmt.Errorf("color at index %d: %w", i, err)
		}
		palette = append(palette, color.RGBAModel.Convert(c).(color.RGBA))
	}
	return palette, nil
}

// DitherOperation reduces the image to a fixed palette with Floyd-Steinberg error diffusion
type DitherOperation struct {
	name   string
	params *DitherParams
}

// NewDitherOperation creates a new dither operation from configuration parameters
func NewDitherOperation(params map[string]any) (Operation, error) {
	typedParams, err := NewDitherParamsFromMap(params)
	if err != nil {
		return nil, err
	}
	return &DitherOperation{
		name:   "DitherOperation",
		params: typedParams,
	}, nil
}

// Name returns the operation name
func (o *DitherOperation) Name() string {
	return o.name
}

// Apply dithers img left to right, top to bottom. Transparent pixels are composited
// over white first.
func (o *DitherOperation) Apply(img image.Image) (image.Image, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("%w: cannot dither empty image", ErrInvalidParameter)
	}
	slog.Debug("DitherOperation: dithering image",
		"palette_size", len(o.params.Palette),
		"strength", o.params.Strength,
		"width", w,
		"height", h)

	out := image.NewRGBA(image.Rect(0, 0, w, h))

	// errors for the current and next row, per channel, in 1/16 units
	const fsScale = 16
	strength := int(o.params.Strength*fsScale + 0.5)
	curr := make([][3]int, w+2)
	next := make([][3]int, w+2)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			px := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			a := int(px.A)
			var adjusted [3]int
			for ch, v := range [3]int{int(px.R), int(px.G), int(px.B)} {
				over := (v*a + 255*(255-a) + 127) / 255
				adjusted[ch] = clamp8(over + roundDiv(curr[x+1][ch], fsScale))
			}

			chosen := nearestColor(o.params.Palette, adjusted)
			out.SetRGBA(x, y, chosen)

			residual := [3]int{
				(adjusted[0] - int(chosen.R)) * strength,
				(adjusted[1] - int(chosen.G)) * strength,
				(adjusted[2] - int(chosen.B)) * strength,
			}
			for ch := range residual {
				e := residual[ch]
				curr[x+2][ch] += e * 7 / fsScale
				next[x][ch] += e * 3 / fsScale
				next[x+1][ch] += e * 5 / fsScale
				next[x+2][ch] += e * 1 / fsScale
			}
		}
		curr, next = next, curr
		clear(next)
	}
	return out, nil
}

// GetParams returns the typed parameters
func (o *DitherOperation) GetParams() *DitherParams {
	return o.params
}

func nearestColor(palette []color.RGBA, rgb [3]int) color.RGBA {
	best := palette[0]
	bestDist := -1
	for _, c := range palette {
		dr := rgb[0] - int(c.R)
		dg := rgb[1] - int(c.G)
		db := rgb[2] - int(c.B)
		dist := dr*dr + dg*dg + db*db
		if bestDist < 0 || dist < bestDist {
			best, bestDist = c, dist
		}
	}
	return best
}

func clamp8(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

func roundDiv(v, d int) int {
	if v >= 0 {
		return (v + d/2) / d
	}
	return (v - d/2) / d
}

func init() {
	DefaultRegistry.MustRegister("DitherOperation", NewDitherOperation)
}
