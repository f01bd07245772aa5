package operations

import "image"

// mockOperation is a simple mock implementation of the Operation interface for testing
type mockOperation struct {
	name      string
	calls     int
	applyFunc func(image.Image) (image.Image, error)
}

func (m *mockOperation) Name() string {
	return m.name
}

func (m *mockOperation) Apply(img image.Image) (image.Image, error) {
	m.calls++
	if m.applyFunc != nil {
		return m.applyFunc(img)
	}
	return img, nil
}

// newMockOperation creates a mock operation with default behavior (pass-through)
func newMockOperation(name string) *mockOperation {
	return &mockOperation{name: name}
}

// newMockOperationWithError creates a mock operation that returns an error
func newMockOperationWithError(name string, err error) *mockOperation {
	return &mockOperation{
		name: name,
		applyFunc: func(image.Image) (image.Image, error) {
			return nil, err
		},
	}
}

// spyOperation counts how often a wrapped operation ran
type spyOperation struct {
	Operation
	calls int
}

func (s *spyOperation) Apply(img image.Image) (image.Image, error) {
	s.calls++
	return s.Operation.Apply(img)
}

func newTestImage(width, height int) image.Image {
	return image.NewRGBA(image.Rect(0, 0, width, height))
}
