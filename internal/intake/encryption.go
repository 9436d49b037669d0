package intake

import (
	"fmt"
	"io"
	"regexp"
)

// EncryptionWindow is how many bytes are inspected at each end of a PDF
const EncryptionWindow = 4096

// encryptionMarker matches an indirect reference to an encryption dictionary, e.g. "/Encrypt 12 0 R".
var encryptionMarker = regexp.MustCompile(`/Encrypt\s\d+\s\d+\sR`)

// EncryptionDetector flags password-protected PDFs by scanning the head and
// tail of the byte stream. It is a heuristic: a trailer that references the
// encryption dictionary outside both windows is missed, and literal text that
// looks like the marker is flagged.
type EncryptionDetector struct {
	window int64
}

// NewEncryptionDetector creates a detector with the default window size
func NewEncryptionDetector() *EncryptionDetector {
	return &EncryptionDetector{window: EncryptionWindow}
}

// Detect reports whether a PDF held in memory carries the encryption marker
func (d *EncryptionDetector) Detect(data []byte) bool {
	n := int64(len(data))
	head := data[:min(n, d.window)]
	tail := data[n-min(n, d.window):]
	return encryptionMarker.Match(head) || encryptionMarker.Match(tail)
}

// DetectReader reads only the two windows from r. A read failure is a
// DecodeFailure; callers attach the file name with WithFile.
func (d *EncryptionDetector) DetectReader(r io.ReaderAt, size int64) (bool, error) {
	w := min(size, d.window)

	head := make([]byte, w)
	if _, err := r.ReadAt(head, 0); err != nil && err != io.EOF {
		return false, readFailure("read head", err)
	}
	if encryptionMarker.Match(head) {
		return true, nil
	}

	tail := make([]byte, w)
	if _, err := r.ReadAt(tail, size-w); err != nil && err != io.EOF {
		return false, readFailure("read tail", err)
	}
	return encryptionMarker.Match(tail), nil
}

func readFailure(op string, err error) *Error {
	return &Error{
		Type:    ErrorTypeDecodeFailure,
		Message: "Unable to read document. Please try a different file.",
		Err:     fmt.Errorf("%s: %w", op, err),
	}
}

// DetectFile applies the check to a descriptor; files that are not PDFs are never encrypted
func (d *EncryptionDetector) DetectFile(f FileDescriptor) bool {
	if !f.IsPDF() {
		return false
	}
	return d.Detect(f.Data)
}
