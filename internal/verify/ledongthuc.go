package verify

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// LedongthucBackend opens documents with ledongthuc/pdf
type LedongthucBackend struct{}

// Type returns BackendLedongthuc
func (l *LedongthucBackend) Type() BackendType {
	return BackendLedongthuc
}

// PageCount opens the document, offering password once when it is encrypted
func (l *LedongthucBackend) PageCount(data []byte, password string) (n int, err error) {
	// the library panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, &BackendError{Backend: BackendLedongthuc, Op: "open", Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	offered := false
	pw := func() string {
		if offered {
			return ""
		}
		offered = true
		return password
	}

	r, err := pdf.NewReaderEncrypted(bytes.NewReader(data), int64(len(data)), pw)
	if err != nil {
		return 0, &BackendError{
			Backend: BackendLedongthuc,
			Op:      "open",
			Err:     fmt.Errorf("failed to open PDF: %w", err),
		}
	}

	return r.NumPage(), nil
}
