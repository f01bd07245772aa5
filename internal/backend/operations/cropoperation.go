package operations

import (
	"image"
	"log/slog"

	"github.com/disintegration/imaging"
)

// CropParams represents typed parameters for the crop operation
type CropParams struct {
	Width  int
	Height int
}

// NewCropParamsFromMap creates CropParams from a generic map
func NewCropParamsFromMap(params map[string]any) (*CropParams, error) {
	width, err := GetDimensionParam(params, "width")
	if err != nil {
		return nil, err
	}
	height, err := GetDimensionParam(params, "height")
	if err != nil {
		return nil, err
	}
	return &CropParams{Width: width, Height: height}, nil
}

// CropOperation cuts a region out of the image center
type CropOperation struct {
	name   string
	params *CropParams
}

// NewCropOperation creates a new crop operation from configuration parameters
func NewCropOperation(params map[string]any) (Operation, error) {
	typedParams, err := NewCropParamsFromMap(params)
	if err != nil {
		return nil, err
	}

	return &CropOperation{
		name:   "CropOperation",
		params: typedParams,
	}, nil
}

// NewCropOperationWithParams creates a crop operation from request parameters
func NewCropOperationWithParams(width, height int) *CropOperation {
	return &CropOperation{
		name: "CropOperation",
		params: &CropParams{
			Width:  width,
			Height: height,
		},
	}
}

// Name returns the operation name
func (o *CropOperation) Name() string {
	return o.name
}

// Apply performs a center crop. A region larger than the image is limited to the image size.
func (o *CropOperation) Apply(img image.Image) (image.Image, error) {
	if err := validateDimensions(o.params.Width, o.params.Height); err != nil {
		return nil, err
	}

	slog.Debug("CropOperation: performing center crop",
		"original_width", img.Bounds().Dx(),
		"original_height", img.Bounds().Dy(),
		"crop_width", o.params.Width,
		"crop_height", o.params.Height)

	return imaging.CropCenter(img, o.params.Width, o.params.Height), nil
}

// GetParams returns the typed parameters
func (o *CropOperation) GetParams() *CropParams {
	return o.params
}

func init() {
	DefaultRegistry.MustRegister("CropOperation", NewCropOperation)
}
