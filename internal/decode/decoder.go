package decode

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsupportedMedia is returned when no decoder handles the document
	ErrUnsupportedMedia = errors.New("unsupported media type")

	// ErrEmptyInput is returned for zero-length documents
	ErrEmptyInput = errors.New("empty input")

	// ErrDecode wraps failures inside a decoder
	ErrDecode = errors.New("decode failed")
)

// Decoder turns one document format into plain text
type Decoder interface {
	// Name returns the format name (pdf, txt, html)
	Name() string

	// CanHandle checks the file name extension and, when known, the content type
	CanHandle(filename string, contentType string) bool

	// Decode extracts the text layer of the document
	Decode(data []byte) (string, error)
}

// Registry picks a decoder for a document
type Registry struct {
	decoders []Decoder
}

// NewRegistry creates a registry trying decoders in order
func NewRegistry(decoders ...Decoder) *Registry {
	return &Registry{decoders: decoders}
}

// UploadRegistry accepts the formats allowed on the upload endpoint
func UploadRegistry() *Registry {
	return NewRegistry(NewPDFDecoder(), NewTextDecoder())
}

// DefaultRegistry also accepts HTML pages, for documents fetched by URL
func DefaultRegistry() *Registry {
	return NewRegistry(NewPDFDecoder(), NewTextDecoder(), NewHTMLDecoder())
}

// Find returns the first decoder that handles the document
func (r *Registry) Find(filename string, contentType string) (Decoder, error) {
	for _, d := range r.decoders {
		if d.CanHandle(filename, contentType) {
			return d, nil
		}
	}
	ext := filepath.Ext(filename)
	if ext == "" {
		ext = contentType
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedMedia, ext)
}

// Decode finds a decoder and runs it. Returns the text and the format name.
func (r *Registry) Decode(filename string, contentType string, data []byte) (string, string, error) {
	d, err := r.Find(filename, contentType)
	if err != nil {
		return "", "", err
	}
	if len(data) == 0 {
		return "", d.Name(), ErrEmptyInput
	}

	text, err := d.Decode(data)
	if err != nil {
		return "", d.Name(), err
	}
	return text, d.Name(), nil
}

// hasExt compares the extension case-insensitively
func hasExt(filename string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// mediaType strips parameters such as charset from a content type
func mediaType(contentType string) string {
	mt, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}
