package operations

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"

	"github.com/disintegration/imaging"
)

// RotateParams represents typed parameters for the rotate operation
type RotateParams struct {
	Angle      float64
	Background color.Color
}

// NewRotateParamsFromMap creates RotateParams from a generic map
func NewRotateParamsFromMap(params map[string]any) (*RotateParams, error) {
	if err := ValidateRequiredParams(params, []string{"angle"}); err != nil {
		return nil, err
	}

	angle, err := GetFloatParam(params, "angle", 0)
	if err != nil {
		return nil, err
	}
	background, err := GetColorParam(params, "background", color.White)
	if err != nil {
		return nil, err
	}

	return &RotateParams{
		Angle:      angle,
		Background: background,
	}, nil
}

// RotateOperation turns the image counter-clockwise by an angle in degrees
type RotateOperation struct {
	name   string
	params *RotateParams
}

// NewRotateOperation creates a new rotate operation from configuration parameters
func NewRotateOperation(params map[string]any) (Operation, error) {
	typedParams, err := NewRotateParamsFromMap(params)
	if err != nil {
		return nil, err
	}

	return &RotateOperation{
		name:   "RotateOperation",
		params: typedParams,
	}, nil
}

// NewRotateOperationWithParams creates a rotate operation from request parameters.
// Uncovered corners are filled with background; a nil background means white.
func NewRotateOperationWithParams(angle float64, background color.Color) *RotateOperation {
	if background == nil {
		background = color.White
	}
	return &RotateOperation{
		name: "RotateOperation",
		params: &RotateParams{
			Angle:      angle,
			Background: background,
		},
	}
}

// Name returns the operation name
func (o *RotateOperation) Name() string {
	return o.name
}

// Apply rotates the image. Multiples of 90 degrees are exact, other angles enlarge
// the canvas to fit the rotated image.
func (o *RotateOperation) Apply(img image.Image) (image.Image, error) {
	if err := validateAngle(o.params.Angle); err != nil {
		return nil, err
	}

	slog.Debug("RotateOperation: rotating image",
		"angle", o.params.Angle,
		"width", img.Bounds().Dx(),
		"height", img.Bounds().Dy())

	w, h := rotatedSize(img.Bounds().Dx(), img.Bounds().Dy(), o.params.Angle)
	if w > MaxDimension || h > MaxDimension {
		return nil, fmt.Errorf("%w: rotated image %dx%d exceeds the maximum of %d", ErrInvalidParameter, w, h, MaxDimension)
	}
	return imaging.Rotate(img, o.params.Angle, o.params.Background), nil
}

// rotatedSize bounds the canvas imaging.Rotate allocates for a w x h image.
// Quarter turns are exact; other angles round up by one pixel.
func rotatedSize(w, h int, angle float64) (int, int) {
	angle = math.Mod(angle, 360)
	if angle < 0 {
		angle += 360
	}
	switch angle {
	case 0, 180:
		return w, h
	case 90, 270:
		return h, w
	}
	sin, cos := math.Sincos(angle * math.Pi / 180)
	sin, cos = math.Abs(sin), math.Abs(cos)
	fw, fh := float64(w), float64(h)
	return int(math.Ceil(fw*cos+fh*sin)) + 1, int(math.Ceil(fw*sin+fh*cos)) + 1
}

// GetAngle returns the configured angle
func (o *RotateOperation) GetAngle() float64 {
	return o.params.Angle
}

func validateAngle(angle float64) error {
	if math.IsNaN(angle) || math.IsInf(angle, 0) {
		return fmt.Errorf("%w: angle must be finite, got %v", ErrInvalidParameter, angle)
	}
	return nil
}

func init() {
	DefaultRegistry.MustRegister("RotateOperation", NewRotateOperation)
}
