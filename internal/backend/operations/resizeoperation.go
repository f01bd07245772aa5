package operations

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/disintegration/imaging"
)

// ResizeParams represents typed parameters for the resize operation
type ResizeParams struct {
	Width  int
	Height int
}

// NewResizeParamsFromMap creates ResizeParams from a generic map
func NewResizeParamsFromMap(params map[string]any) (*ResizeParams, error) {
	width, err := GetDimensionParam(params, "width")
	if err != nil {
		return nil, err
	}
	height, err := GetDimensionParam(params, "height")
	if err != nil {
		return nil, err
	}
	return &ResizeParams{Width: width, Height: height}, nil
}

// ResizeOperation scales the image to exact target dimensions using nearest-neighbour sampling
type ResizeOperation struct {
	name   string
	params *ResizeParams
}

// NewResizeOperation creates a new resize operation from configuration parameters
func NewResizeOperation(params map[string]any) (Operation, error) {
	typedParams, err := NewResizeParamsFromMap(params)
	if err != nil {
		return nil, err
	}

	return &ResizeOperation{
		name:   "ResizeOperation",
		params: typedParams,
	}, nil
}

// NewResizeOperationWithParams creates a resize operation from request parameters.
// Dimensions are checked when the operation is applied.
func NewResizeOperationWithParams(width, height int) *ResizeOperation {
	return &ResizeOperation{
		name: "ResizeOperation",
		params: &ResizeParams{
			Width:  width,
			Height: height,
		},
	}
}

// Name returns the operation name
func (o *ResizeOperation) Name() string {
	return o.name
}

// Apply returns a new image of exactly Width x Height
func (o *ResizeOperation) Apply(img image.Image) (image.Image, error) {
	if err := validateDimensions(o.params.Width, o.params.Height); err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	slog.Debug("ResizeOperation: resizing image",
		"original_width", bounds.Dx(),
		"original_height", bounds.Dy(),
		"target_width", o.params.Width,
		"target_height", o.params.Height)

	return imaging.Resize(img, o.params.Width, o.params.Height, imaging.NearestNeighbor), nil
}

// GetParams returns the typed parameters
func (o *ResizeOperation) GetParams() *ResizeParams {
	return o.params
}

func validateDimensions(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: dimensions must be positive, got %dx%d", ErrInvalidParameter, width, height)
	}
	if width > MaxDimension || height > MaxDimension {
		return fmt.Errorf("%w: dimensions %dx%d exceed the maximum of %d", ErrInvalidParameter, width, height, MaxDimension)
	}
	return nil
}

func init() {
	DefaultRegistry.MustRegister("ResizeOperation", NewResizeOperation)
}
