package operations

import (
	"errors"
	"image"
)

var (
	// ErrProcessing marks a failed pipeline step.
	ErrProcessing = errors.New("processing error")
	// ErrInvalidParameter marks parameters the image library cannot work with.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// MaxDimension bounds every requested output width and height.
const MaxDimension = 16384

// Operation defines the interface for all executable image operations
type Operation interface {
	Name() string
	Apply(img image.Image) (image.Image, error)
}

// OperationFactory is a function type that creates an operation from configuration parameters
type OperationFactory func(params map[string]any) (Operation, error)

// OperationConfig represents an operation configuration with name and parameters
type OperationConfig struct {
	Name   string
	Params map[string]any
}
