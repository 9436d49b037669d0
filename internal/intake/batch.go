package intake

import (
	"context"
	"errors"
)

// Batch tracks one accepted selection through the processing pipeline
type Batch struct {
	files []string
	done  chan struct{}
	errs  []error
}

func newBatch(files []FileDescriptor) *Batch {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	return &Batch{files: names, done: make(chan struct{})}
}

// Files returns the names accepted into the batch, in selection order
func (b *Batch) Files() []string {
	return append([]string(nil), b.files...)
}

// Done is closed once every file has been admitted or dropped
func (b *Batch) Done() <-chan struct{} {
	return b.done
}

// Wait blocks until the batch finishes. The error joins every per-file
// failure; files that were admitted contribute nothing.
func (b *Batch) Wait(ctx context.Context) error {
	select {
	case <-b.done:
		return errors.Join(b.errs...)
	case <-ctx.Done():
		return ctx.Err()
	}
}
