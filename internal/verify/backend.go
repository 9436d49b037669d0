package verify

import (
	"errors"
	"fmt"
)

// BackendType identifies the PDF library used to open documents
type BackendType string

const (
	BackendPDFCPU     BackendType = "pdfcpu"
	BackendLedongthuc BackendType = "ledongthuc"
	BackendAuto       BackendType = "auto"
)

// Backend opens a PDF held in memory and reports its page count
type Backend interface {
	Type() BackendType
	PageCount(data []byte, password string) (int, error)
}

// BackendError records which library failed and during which operation
type BackendError struct {
	Backend BackendType `json:"backend"`
	Op      string      `json:"operation"`
	Err     error       `json:"error"`
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("PDF %s backend error in %s: %v", e.Backend, e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// ErrUnknownBackend is returned by NewBackend for unrecognised names
var ErrUnknownBackend = errors.New("unknown verifier backend")

// NewBackend creates the backend with the given name
func NewBackend(name BackendType) (Backend, error) {
	switch name {
	case BackendPDFCPU:
		return &PDFCPUBackend{}, nil
	case BackendLedongthuc:
		return &LedongthucBackend{}, nil
	case BackendAuto, "":
		return &AutoBackend{backends: []Backend{&PDFCPUBackend{}, &LedongthucBackend{}}}, nil
	default:
		return nil, &BackendError{Backend: name, Op: "create", Err: ErrUnknownBackend}
	}
}

// AutoBackend tries each backend in order and returns the first success
type AutoBackend struct {
	backends []Backend
}

// Type returns BackendAuto
func (a *AutoBackend) Type() BackendType {
	return BackendAuto
}

// PageCount returns the first successful page count; if every backend fails the errors are joined
func (a *AutoBackend) PageCount(data []byte, password string) (int, error) {
	var errs []error
	for _, b := range a.backends {
		n, err := b.PageCount(data, password)
		if err == nil {
			return n, nil
		}
		errs = append(errs, err)
	}
	return 0, errors.Join(errs...)
}
