// Package render turns documents and fragments into HTML or plain text.
//
// Two renderers are provided: [HTML] produces markup suitable for
// embedding in a page, [Text] produces a plain-text projection for
// indexing or previews. Both implement [document.Renderer], so they
// plug into Document.Render; the [AsHTML] and [AsText] helpers cover
// the common whole-document case.
//
// HTML output is passed through a bluemonday policy before it is
// returned, so fragment values fetched from the repository cannot
// smuggle markup into the page.
package render

import (
	"github.com/tidemarkhq/tidemark-go/pkg/document"
)

// AsHTML renders every fragment of doc to sanitized HTML in declaration
// order. Document links are resolved through resolve; a nil resolver
// renders them as dead anchors.
func AsHTML(doc *document.Document, resolve document.LinkResolver) string {
	return Sanitize(doc.Render(HTML{}, resolve))
}

// AsText renders every fragment of doc to plain text in declaration
// order.
func AsText(doc *document.Document) string {
	return doc.Render(Text{}, nil)
}
