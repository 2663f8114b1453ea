package decode

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// HTMLDecoder extracts visible text from an HTML page, one line per block
// element so that caption/value pairs stay on their own lines.
type HTMLDecoder struct{}

// NewHTMLDecoder creates an HTML decoder
func NewHTMLDecoder() *HTMLDecoder {
	return &HTMLDecoder{}
}

// Name returns the format name
func (d *HTMLDecoder) Name() string {
	return "html"
}

// CanHandle matches .html/.htm files or an HTML content type
func (d *HTMLDecoder) CanHandle(filename string, contentType string) bool {
	mt := mediaType(contentType)
	return hasExt(filename, ".html", ".htm") || mt == "text/html" || mt == "application/xhtml+xml"
}

// Decode parses the page and returns its visible text
func (d *HTMLDecoder) Decode(data []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: html: %v", ErrDecode, err)
	}
	return visibleText(doc), nil
}

// blockElements end the current line
var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"section": true, "article": true, "table": true, "pre": true,
}

// visibleText walks the tree, skipping scripts and styles
func visibleText(n *html.Node) string {
	var lines []string
	var current strings.Builder

	flush := func() {
		if line := strings.TrimSpace(current.String()); line != "" {
			lines = append(lines, line)
		}
		current.Reset()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "head":
				return
			}
		}

		if n.Type == html.TextNode {
			if text := strings.Join(strings.Fields(n.Data), " "); text != "" {
				if current.Len() > 0 {
					current.WriteString(" ")
				}
				current.WriteString(text)
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}

		if n.Type == html.ElementNode && blockElements[n.Data] {
			flush()
		}
	}

	walk(n)
	flush()
	return strings.Join(lines, "\n")
}
