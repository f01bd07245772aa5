package operations

import (
	"fmt"
	"image"
	"log/slog"
	"math"

	"github.com/anthonynsimon/bild/blur"
)

// MaxBlurRadius bounds the gaussian kernel size.
const MaxBlurRadius = 256

// BlurOperation applies a gaussian blur
type BlurOperation struct {
	name   string
	radius float64
}

// NewBlurOperation creates a new blur operation from configuration parameters
func NewBlurOperation(params map[string]any) (Operation, error) {
	if err := ValidateRequiredParams(params, []string{"radius"}); err != nil {
		return nil, err
	}
	radius, err := GetRangeParam(params, "radius", 0, 0, MaxBlurRadius)
	if err != nil {
		return nil, err
	}
	return NewBlurOperationWithParams(radius), nil
}

// NewBlurOperationWithParams creates a blur operation from request parameters
func NewBlurOperationWithParams(radius float64) *BlurOperation {
	return &BlurOperation{
		name:   "BlurOperation",
		radius: radius,
	}
}

// Name returns the operation name
func (o *BlurOperation) Name() string {
	return o.name
}

// Apply blurs the image; a zero radius returns an unchanged copy
func (o *BlurOperation) Apply(img image.Image) (image.Image, error) {
	if err := validateRadius(o.radius); err != nil {
		return nil, err
	}
	slog.Debug("BlurOperation: blurring image", "radius", o.radius)
	return blur.Gaussian(img, o.radius), nil
}

// GetRadius returns the configured radius
func (o *BlurOperation) GetRadius() float64 {
	return o.radius
}

func validateRadius(radius float64) error {
	if math.IsNaN(radius) || math.IsInf(radius, 0) || radius < 0 || radius > MaxBlurRadius {
		return fmt.Errorf("%w: blur radius must be within [0, %d], got %v", ErrInvalidParameter, MaxBlurRadius, radius)
	}
	return nil
}

func init() {
	DefaultRegistry.MustRegister("BlurOperation", NewBlurOperation)
}
