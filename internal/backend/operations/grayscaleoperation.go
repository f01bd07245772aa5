package operations

import (
	"image"

	"github.com/anthonynsimon/bild/effect"
)

// GrayscaleOperation drops color information
type GrayscaleOperation struct {
	name string
}

// NewGrayscaleOperation creates a new grayscale operation; it takes no parameters
func NewGrayscaleOperation(params map[string]any) (Operation, error) {
	return NewGrayscaleOperationDirect(), nil
}

// NewGrayscaleOperationDirect creates a grayscale operation directly
func NewGrayscaleOperationDirect() *GrayscaleOperation {
	return &GrayscaleOperation{name: "GrayscaleOperation"}
}

// Name returns the operation name
func (o *GrayscaleOperation) Name() string {
	return o.name
}

func (o *GrayscaleOperation) Apply(img image.Image) (image.Image, error) {
	return effect.Grayscale(img), nil
}

func init() {
	DefaultRegistry.MustRegister("GrayscaleOperation", NewGrayscaleOperation)
}
