package operations

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"
)

// Invoker applies a sequence of operations to an image, strictly in order
type Invoker struct {
	operations []Operation
}

// NewInvoker creates a new operation invoker
func NewInvoker(operations []Operation) *Invoker {
	return &Invoker{
		operations: operations,
	}
}

// Len returns the number of pipeline steps
func (i *Invoker) Len() int {
	return len(i.operations)
}

// Execute folds all operations over img. The first failure aborts the pipeline and no
// partial result is returned. ctx is checked before every step.
func (i *Invoker) Execute(ctx context.Context, img image.Image) (image.Image, error) {
	start := time.Now()

	slog.Info("starting image processing pipeline",
		"operation_count", len(i.operations),
		"width", img.Bounds().Dx(),
		"height", img.Bounds().Dy())

	if len(i.operations) == 0 {
		slog.Debug("no operations to execute, returning original image")
		return img, nil
	}

	current := img

	for idx, operation := range i.operations {
		if err := ctx.Err(); err != nil {
			slog.Info("image processing pipeline cancelled",
				"index", idx,
				"operation_name", operation.Name())
			return nil, err
		}

		operationStart := time.Now()

		processed, err := operation.Apply(current)
		if err != nil {
			slog.Error("operation failed",
				"index", idx,
				"operation_name", operation.Name(),
				"error", err)
			return nil, fmt.Errorf("%w: operation %s (index %d): %w", ErrProcessing, operation.Name(), idx, err)
		}

		slog.Debug("operation completed",
			"index", idx,
			"operation_name", operation.Name(),
			"duration_ms", time.Since(operationStart).Milliseconds(),
			"width", processed.Bounds().Dx(),
			"height", processed.Bounds().Dy())

		current = processed
	}

	slog.Info("image processing pipeline completed",
		"total_duration_ms", time.Since(start).Milliseconds(),
		"operation_count", len(i.operations),
		"final_width", current.Bounds().Dx(),
		"final_height", current.Bounds().Dy())

	return current, nil
}
