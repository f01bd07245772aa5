package operations

import (
	"image/color"

	"github.com/jo-hoe/imageproc/internal/backend/imagecommand"
)

var _ imagecommand.OpVisitor = (*Translator)(nil)

// Translator turns decoded request variants into executable operations.
// It implements imagecommand.OpVisitor, so a new variant does not compile until it
// has a translation here.
type Translator struct {
	// Background fills the corners uncovered by non-right-angle rotations.
	Background color.Color

	current Operation
}

// NewTranslator creates a translator using background for rotations; nil means white.
func NewTranslator(background color.Color) *Translator {
	if background == nil {
		background = color.White
	}
	return &Translator{Background: background}
}

// Translate returns the executable operation bound to op's parameters.
func (t *Translator) Translate(op imagecommand.Op) Operation {
	t.current = nil
	op.Accept(t)
	return t.current
}

// Build filters empty slots and translates the rest in request order.
func (t *Translator) Build(cmd *imagecommand.ImageCommand) []Operation {
	variants := cmd.NonEmpty()
	operations := make([]Operation, 0, len(variants))
	for _, op := range variants {
		operations = append(operations, t.Translate(op))
	}
	return operations
}

func (t *Translator) VisitResize(op *imagecommand.Resize) {
	t.current = NewResizeOperationWithParams(int(op.W), int(op.H))
}

func (t *Translator) VisitRotate(op *imagecommand.Rotate) {
	t.current = NewRotateOperationWithParams(float64(op.Angle), t.Background)
}

func (t *Translator) VisitCrop(op *imagecommand.Crop) {
	t.current = NewCropOperationWithParams(int(op.W), int(op.H))
}

func (t *Translator) VisitBlur(op *imagecommand.Blur) {
	t.current = NewBlurOperationWithParams(op.Radius)
}

func (t *Translator) VisitGrayscale(*imagecommand.Grayscale) {
	t.current = NewGrayscaleOperationDirect()
}
