package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/tidemarkhq/tidemark-go/pkg/document"
)

// Text renders fragments as plain text, one line per fragment. Useful
// for search indexing and terminal previews.
type Text struct{}

// Render implements document.Renderer.
func (t Text) Render(f document.Fragment, resolve document.LinkResolver) (string, bool) {
	switch v := f.(type) {
	case document.Text:
		return string(v) + "\n", true
	case document.Select:
		return string(v) + "\n", true
	case document.Number:
		return fmt.Sprintf("%v\n", float64(v)), true
	case document.Color:
		return string(v) + "\n", true
	case document.Date:
		return v.Time().Format("2006-01-02") + "\n", true
	case document.Timestamp:
		return v.Time().Format(time.RFC3339) + "\n", true
	case document.GeoPoint:
		return fmt.Sprintf("%v,%v\n", v.Latitude, v.Longitude), true
	case document.Image:
		return v.Main.URL + "\n", true
	case document.WebLink, document.DocumentLink, document.ImageLink:
		return linkTarget(v.(document.Link), resolve) + "\n", true
	case document.Group:
		var b strings.Builder
		for _, item := range v {
			for _, name := range item.Names() {
				if out, ok := t.Render(item.Get(name), resolve); ok {
					b.WriteString(out)
				}
			}
		}
		return b.String(), true
	case document.StructuredText:
		return v.Text() + "\n", true
	default:
		return "", false
	}
}
