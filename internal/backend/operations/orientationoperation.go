package operations

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/disintegration/imaging"
)

// OrientationParams represents typed parameters for the orientation operation
type OrientationParams struct {
	Orientation      string // "portrait" or "landscape"
	RotateWhenSquare bool
	Clockwise        bool
}

// NewOrientationParamsFromMap creates OrientationParams from a generic map
func NewOrientationParamsFromMap(params map[string]any) (*OrientationParams, error) {
	typed := &OrientationParams{
		Orientation:      GetStringParam(params, "orientation", "portrait"),
		RotateWhenSquare: GetBoolParam(params, "rotateWhenSquare", false),
		Clockwise:        GetBoolParam(params, "clockwise", true),
	}
	if typed.Orientation != "portrait" && typed.Orientation != "landscape" {
		return nil, fmt.Errorf("%w: orientation must be 'portrait' or 'landscape', got %q", ErrInvalidParameter, typed.Orientation)
	}
	return typed, nil
}

// OrientationOperation turns the image by a quarter so that it matches the target orientation
type OrientationOperation struct {
	name   string
	params *OrientationParams
}

// NewOrientationOperation creates a new orientation operation from configuration parameters
func NewOrientationOperation(params map[string]any) (Operation, error) {
	typedParams, err := NewOrientationParamsFromMap(params)
	if err != nil {
		return nil, err
	}
	return &OrientationOperation{
		name:   "OrientationOperation",
		params: typedParams,
	}, nil
}

// Name returns the operation name
func (o *OrientationOperation) Name() string {
	return o.name
}

// Apply returns img unchanged when it already has the target orientation
func (o *OrientationOperation) Apply(img image.Image) (image.Image, error) {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()

	var rotate bool
	switch {
	case width == height:
		rotate = o.params.RotateWhenSquare
	case o.params.Orientation == "portrait":
		rotate = width > height
	default:
		rotate = height > width
	}

	if !rotate {
		slog.Debug("OrientationOperation: no rotation needed",
			"width", width,
			"height", height,
			"target_orientation", o.params.Orientation)
		return img, nil
	}

	slog.Debug("OrientationOperation: rotating image",
		"width", width,
		"height", height,
		"target_orientation", o.params.Orientation,
		"clockwise", o.params.Clockwise)
	if o.params.Clockwise {
		return imaging.Rotate270(img), nil
	}
	return imaging.Rotate90(img), nil
}

// GetParams returns the typed parameters
func (o *OrientationOperation) GetParams() *OrientationParams {
	return o.params
}

func init() {
	DefaultRegistry.MustRegister("OrientationOperation", NewOrientationOperation)
}
