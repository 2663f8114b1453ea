package decode

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// TextDecoder reads UTF-8 text, dropping a leading byte order mark and
// replacing invalid bytes with U+FFFD.
type TextDecoder struct{}

// NewTextDecoder creates a plain text decoder
func NewTextDecoder() *TextDecoder {
	return &TextDecoder{}
}

// Name returns the format name
func (d *TextDecoder) Name() string {
	return "txt"
}

// CanHandle matches .txt files or a text/plain content type
func (d *TextDecoder) CanHandle(filename string, contentType string) bool {
	return hasExt(filename, ".txt") || mediaType(contentType) == "text/plain"
}

// Decode converts the bytes to a string
func (d *TextDecoder) Decode(data []byte) (string, error) {
	out, err := unicode.UTF8BOM.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("%w: txt: %v", ErrDecode, err)
	}
	return NormalizeNewlines(string(out)), nil
}

// NormalizeNewlines converts CRLF line endings to LF
func NormalizeNewlines(text string) string {
	return strings.ReplaceAll(text, "\r\n", "\n")
}
