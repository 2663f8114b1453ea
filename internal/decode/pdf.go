package decode

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFDecoder reads the text layer of a PDF. Scanned pages without a text
// layer decode to empty strings.
type PDFDecoder struct{}

// NewPDFDecoder creates a PDF decoder
func NewPDFDecoder() *PDFDecoder {
	return &PDFDecoder{}
}

// Name returns the format name
func (d *PDFDecoder) Name() string {
	return "pdf"
}

// CanHandle matches .pdf files or an application/pdf content type
func (d *PDFDecoder) CanHandle(filename string, contentType string) bool {
	return hasExt(filename, ".pdf") || mediaType(contentType) == "application/pdf"
}

// Decode extracts text page by page, joining pages with newlines
func (d *PDFDecoder) Decode(data []byte) (text string, err error) {
	// The pdf package panics on some malformed streams
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: pdf: %v", ErrDecode, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: pdf: %v", ErrDecode, err)
	}

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("%w: pdf page %d: %v", ErrDecode, i, err)
		}
		pages = append(pages, content)
	}

	return strings.Join(pages, "\n"), nil
}
