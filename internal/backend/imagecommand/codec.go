package imagecommand

import (
	"errors"
	"fmt"
	"math"
	"unicode/utf8"

	"google.golang.org/protobuf/encoding/protowire"
)

// ErrMalformed is returned by Unmarshal for truncated or otherwise unparseable input.
var ErrMalformed = errors.New("malformed image command")

const (
	fieldImageURL protowire.Number = 1
	fieldOps      protowire.Number = 2
)

// slotFactories maps oneof field numbers to fresh variant values.
var slotFactories = map[protowire.Number]func() Op{
	protowire.Number(slotResize):    func() Op { return &Resize{} },
	protowire.Number(slotRotate):    func() Op { return &Rotate{} },
	protowire.Number(slotCrop):      func() Op { return &Crop{} },
	protowire.Number(slotBlur):      func() Op { return &Blur{} },
	protowire.Number(slotGrayscale): func() Op { return &Grayscale{} },
}

// Marshal encodes the command in protobuf wire format.
func (c *ImageCommand) Marshal() ([]byte, error) {
	var b []byte
	if c.ImageURL != "" {
		if !utf8.ValidString(c.ImageURL) {
			return nil, fmt.Errorf("image_url is not valid UTF-8")
		}
		b = protowire.AppendTag(b, fieldImageURL, protowire.BytesType)
		b = protowire.AppendString(b, c.ImageURL)
	}
	for _, slot := range c.Ops {
		b = protowire.AppendTag(b, fieldOps, protowire.BytesType)
		b = protowire.AppendBytes(b, slot.appendTo(nil))
	}
	return b, nil
}

// Unmarshal replaces the contents of c with the command decoded from b.
// Unknown fields are skipped. b is not retained.
func (c *ImageCommand) Unmarshal(b []byte) error {
	*c = ImageCommand{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fieldImageURL && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			if !utf8.Valid(v) {
				return 0, fmt.Errorf("%w: image_url is not valid UTF-8", ErrMalformed)
			}
			c.ImageURL = string(v)
			return n, nil
		case num == fieldOps && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			slot := &OpSlot{}
			if err := slot.consume(v); err != nil {
				return 0, fmt.Errorf("op slot %d: %w", len(c.Ops), err)
			}
			c.Ops = append(c.Ops, slot)
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

func (s *OpSlot) appendTo(b []byte) []byte {
	if s == nil || s.Op == nil {
		return b
	}
	b = protowire.AppendTag(b, protowire.Number(s.Op.fieldNumber()), protowire.BytesType)
	return protowire.AppendBytes(b, s.Op.appendBody(nil))
}

func (s *OpSlot) consume(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		newOp, ok := slotFactories[num]
		if !ok || typ != protowire.BytesType {
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return n, nil
		}
		// a repeated occurrence of the same member merges into it; a different
		// member replaces it
		op := s.Op
		if op == nil || protowire.Number(op.fieldNumber()) != num {
			op = newOp()
		}
		if err := op.consumeBody(v); err != nil {
			return 0, err
		}
		s.Op = op
		return n, nil
	})
}

func (op *Resize) appendBody(b []byte) []byte {
	b = appendUint32(b, 1, op.W)
	return appendUint32(b, 2, op.H)
}

func (op *Resize) consumeBody(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.VarintType:
			return consumeUint32(b, &op.W)
		case num == 2 && typ == protowire.VarintType:
			return consumeUint32(b, &op.H)
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

func (op *Rotate) appendBody(b []byte) []byte {
	if op.Angle == 0 && !math.Signbit(float64(op.Angle)) {
		return b
	}
	b = protowire.AppendTag(b, 1, protowire.Fixed32Type)
	return protowire.AppendFixed32(b, math.Float32bits(op.Angle))
}

func (op *Rotate) consumeBody(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 && typ == protowire.Fixed32Type {
			v, n := protowire.ConsumeFixed32(b)
			if n >= 0 {
				op.Angle = math.Float32frombits(v)
			}
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

func (op *Crop) appendBody(b []byte) []byte {
	b = appendUint32(b, 1, op.W)
	return appendUint32(b, 2, op.H)
}

func (op *Crop) consumeBody(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.VarintType:
			return consumeUint32(b, &op.W)
		case num == 2 && typ == protowire.VarintType:
			return consumeUint32(b, &op.H)
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

func (op *Blur) appendBody(b []byte) []byte {
	if op.Radius == 0 && !math.Signbit(op.Radius) {
		return b
	}
	b = protowire.AppendTag(b, 1, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(op.Radius))
}

func (op *Blur) consumeBody(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 && typ == protowire.Fixed64Type {
			v, n := protowire.ConsumeFixed64(b)
			if n >= 0 {
				op.Radius = math.Float64frombits(v)
			}
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

func (op *Grayscale) appendBody(b []byte) []byte { return b }

func (op *Grayscale) consumeBody(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

func appendUint32(b []byte, num protowire.Number, v uint32) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(v))
}

func consumeUint32(b []byte, dst *uint32) (int, error) {
	v, n := protowire.ConsumeVarint(b)
	if n >= 0 {
		// proto3 uint32 keeps the low 32 bits
		*dst = uint32(v)
	}
	return n, nil
}

// consumeFields walks the top-level fields of a message. fn returns the number of
// bytes it consumed after the tag, or a negative protowire error code.
func consumeFields(b []byte, fn func(num protowire.Number, typ protowire.Type, b []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]
		m, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		if m < 0 {
			return fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(m))
		}
		b = b[m:]
	}
	return nil
}
