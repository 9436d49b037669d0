// Package verify is an offline stand-in for the remote document verification
// service. It opens each submitted document locally and reports problems with
// the same ordinal-prefixed codes the service returns.
package verify

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/a3tai/doc-intake/internal/intake"
)

// Result code suffixes
const (
	CodeInvalidPassword = "X"
	CodeUnreadable      = "C"
	CodeNoPages         = "E"
)

// Result messages
const (
	MessageUnreadable = "Unable to read document"
	MessageNoPages    = "Document has no pages"
)

// Document is one submitted file
type Document struct {
	Name     string
	MimeType string
	Data     []byte
	Password string
}

// DocumentsFromSlots converts live slots, in order, to verification documents
func DocumentsFromSlots(slots []intake.FileSlot) []Document {
	docs := make([]Document, len(slots))
	for i, s := range slots {
		docs[i] = Document{Name: s.Name, MimeType: s.MimeType, Data: s.RawBytes, Password: s.Password}
	}
	return docs
}

// Verifier checks documents with a PDF backend and the registered image decoders
type Verifier struct {
	backend  Backend
	detector *intake.EncryptionDetector
	logger   *log.Logger
}

// NewVerifier creates a verifier. A nil logger discards output.
func NewVerifier(backend Backend, logger *log.Logger) *Verifier {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Verifier{
		backend:  backend,
		detector: intake.NewEncryptionDetector(),
		logger:   logger,
	}
}

// Backend returns the PDF backend in use
func (v *Verifier) Backend() Backend {
	return v.backend
}

// Verify returns one result per problem found; documents that pass produce none.
// Ordinals follow the order of docs, starting at 1.
func (v *Verifier) Verify(ctx context.Context, docs []Document) ([]intake.ValidationResult, error) {
	var results []intake.ValidationResult
	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		ordinal := i + 1
		code, message := v.check(doc)
		if code == "" {
			continue
		}
		v.logger.Printf("verify: %q (slot %d): %s", doc.Name, ordinal, message)
		results = append(results, intake.ValidationResult{
			SlotOrdinal: ordinal,
			Code:        fmt.Sprintf("%d%s", ordinal, code),
			Message:     message,
		})
	}
	return results, nil
}

func (v *Verifier) check(doc Document) (string, string) {
	switch {
	case doc.MimeType == intake.MimePDF:
		return v.checkPDF(doc)
	case strings.HasPrefix(doc.MimeType, "image/"):
		return checkImage(doc)
	default:
		return "", ""
	}
}

func (v *Verifier) checkPDF(doc Document) (string, string) {
	pages, err := v.backend.PageCount(doc.Data, doc.Password)
	if err != nil {
		v.logger.Printf("verify: %s: %v", doc.Name, err)
		if v.detector.Detect(doc.Data) {
			return CodeInvalidPassword, intake.InvalidPasswordMessage
		}
		return CodeUnreadable, MessageUnreadable
	}
	if pages == 0 {
		return CodeNoPages, MessageNoPages
	}
	return "", ""
}

func checkImage(doc Document) (string, string) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(doc.Data))
	if err != nil || cfg.Width == 0 || cfg.Height == 0 {
		return CodeUnreadable, MessageUnreadable
	}
	return "", ""
}
