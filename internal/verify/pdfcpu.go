package verify

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFCPUBackend opens documents with pdfcpu in relaxed validation mode
type PDFCPUBackend struct{}

// Type returns BackendPDFCPU
func (p *PDFCPUBackend) Type() BackendType {
	return BackendPDFCPU
}

// PageCount reads the document, decrypting with password when it is encrypted
func (p *PDFCPUBackend) PageCount(data []byte, password string) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, &BackendError{Backend: BackendPDFCPU, Op: "read", Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	conf.UserPW = password
	conf.OwnerPW = password

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return 0, &BackendError{
			Backend: BackendPDFCPU,
			Op:      "read",
			Err:     fmt.Errorf("failed to read PDF context: %w", err),
		}
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return 0, &BackendError{
			Backend: BackendPDFCPU,
			Op:      "page_count",
			Err:     fmt.Errorf("failed to ensure page count: %w", err),
		}
	}

	return ctx.PageCount, nil
}
