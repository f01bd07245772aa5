package imagecommand

// ImageCommand is the decoded request payload of the image_proc endpoint.
// Its wire layout is described in api/image_command.proto.
type ImageCommand struct {
	ImageURL string
	Ops      []*OpSlot
}

// OpSlot holds at most one operation. A slot with a nil Op is a legal no-op.
type OpSlot struct {
	Op Op
}

// Op is one member of the closed set of transform instructions.
// Only types in this package can implement it.
type Op interface {
	Accept(v OpVisitor)
	fieldNumber() int32
	appendBody(b []byte) []byte
	consumeBody(b []byte) error
}

// OpVisitor has one method per Op variant. Adding a variant means adding a method
// here, which breaks every visitor until it handles the new shape.
type OpVisitor interface {
	VisitResize(op *Resize)
	VisitRotate(op *Rotate)
	VisitCrop(op *Crop)
	VisitBlur(op *Blur)
	VisitGrayscale(op *Grayscale)
}

// Resize scales the image to exactly W x H pixels.
type Resize struct {
	W uint32
	H uint32
}

// Rotate turns the image counter-clockwise by Angle degrees.
type Rotate struct {
	Angle float32
}

// Crop cuts a W x H region out of the image center.
type Crop struct {
	W uint32
	H uint32
}

// Blur applies a gaussian blur with the given radius.
type Blur struct {
	Radius float64
}

// Grayscale drops color information.
type Grayscale struct{}

const (
	slotResize    int32 = 1
	slotRotate    int32 = 2
	slotCrop      int32 = 3
	slotBlur      int32 = 4
	slotGrayscale int32 = 5
)

func (op *Resize) Accept(v OpVisitor)    { v.VisitResize(op) }
func (op *Rotate) Accept(v OpVisitor)    { v.VisitRotate(op) }
func (op *Crop) Accept(v OpVisitor)      { v.VisitCrop(op) }
func (op *Blur) Accept(v OpVisitor)      { v.VisitBlur(op) }
func (op *Grayscale) Accept(v OpVisitor) { v.VisitGrayscale(op) }

func (*Resize) fieldNumber() int32    { return slotResize }
func (*Rotate) fieldNumber() int32    { return slotRotate }
func (*Crop) fieldNumber() int32      { return slotCrop }
func (*Blur) fieldNumber() int32      { return slotBlur }
func (*Grayscale) fieldNumber() int32 { return slotGrayscale }

// NonEmpty returns the operations of all filled slots in their original order.
func (c *ImageCommand) NonEmpty() []Op {
	ops := make([]Op, 0, len(c.Ops))
	for _, slot := range c.Ops {
		if slot == nil || slot.Op == nil {
			continue
		}
		ops = append(ops, slot.Op)
	}
	return ops
}

// Slot wraps op into an OpSlot. A nil op yields an empty slot.
func Slot(op Op) *OpSlot {
	return &OpSlot{Op: op}
}
