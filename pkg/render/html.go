package render

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/tidemarkhq/tidemark-go/pkg/document"
)

// HTML renders fragments to markup. The zero value is ready to use.
type HTML struct{}

// Render implements document.Renderer.
func (h HTML) Render(f document.Fragment, resolve document.LinkResolver) (string, bool) {
	switch v := f.(type) {
	case document.Text:
		return fmt.Sprintf(`<span class="text">%s</span>`, html.EscapeString(string(v))), true
	case document.Select:
		return fmt.Sprintf(`<span class="select">%s</span>`, html.EscapeString(string(v))), true
	case document.Number:
		return fmt.Sprintf(`<span class="number">%v</span>`, float64(v)), true
	case document.Color:
		return fmt.Sprintf(`<span class="color">%s</span>`, html.EscapeString(string(v))), true
	case document.Date:
		t := v.Time()
		return fmt.Sprintf(`<time datetime="%s">%s</time>`, t.Format("2006-01-02"), t.Format("2006-01-02")), true
	case document.Timestamp:
		t := v.Time()
		return fmt.Sprintf(`<time datetime="%s">%s</time>`, t.Format(time.RFC3339), t.Format(time.RFC3339)), true
	case document.GeoPoint:
		return fmt.Sprintf(`<span class="geopoint" data-latitude="%v" data-longitude="%v"></span>`, v.Latitude, v.Longitude), true
	case document.Image:
		return imageTag(v.Main), true
	case document.WebLink, document.DocumentLink, document.ImageLink:
		link := v.(document.Link)
		return fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(linkTarget(link, resolve)), html.EscapeString(linkText(link))), true
	case document.Group:
		var b strings.Builder
		for _, item := range v {
			b.WriteString(`<div class="group-item">`)
			for _, name := range item.Names() {
				if out, ok := h.Render(item.Get(name), resolve); ok {
					b.WriteString(out)
				}
			}
			b.WriteString(`</div>`)
		}
		return b.String(), true
	case document.StructuredText:
		return structuredTextHTML(v, resolve), true
	default:
		return "", false
	}
}

func imageTag(view document.ImageView) string {
	return fmt.Sprintf(`<img src="%s" alt="%s" width="%d" height="%d">`,
		html.EscapeString(view.URL), html.EscapeString(view.Alt), view.Width, view.Height)
}

// linkTarget returns the href for any link fragment. Document links go
// through the resolver; without one they resolve to "#".
func linkTarget(link document.Link, resolve document.LinkResolver) string {
	switch l := link.(type) {
	case document.WebLink:
		return l.URL
	case document.ImageLink:
		return l.URL
	case document.DocumentLink:
		if resolve != nil {
			return resolve(l)
		}
		return "#"
	}
	return "#"
}

func linkText(link document.Link) string {
	switch l := link.(type) {
	case document.WebLink:
		return l.URL
	case document.ImageLink:
		return l.Name
	case document.DocumentLink:
		return l.Slug
	}
	return ""
}

// blockTags maps block types to their wrapping element. List items are
// handled separately because consecutive items share one list element.
var blockTags = map[string]string{
	"heading1":     "h1",
	"heading2":     "h2",
	"heading3":     "h3",
	"heading4":     "h4",
	"heading5":     "h5",
	"heading6":     "h6",
	"paragraph":    "p",
	"preformatted": "pre",
}

func structuredTextHTML(st document.StructuredText, resolve document.LinkResolver) string {
	var b strings.Builder
	var listTag string // "ul", "ol" or "" when not inside a list

	closeList := func() {
		if listTag != "" {
			b.WriteString("</" + listTag + ">")
			listTag = ""
		}
	}

	for _, block := range st {
		switch block.Type {
		case "list-item", "o-list-item":
			tag := "ul"
			if block.Type == "o-list-item" {
				tag = "ol"
			}
			if listTag != tag {
				closeList()
				b.WriteString(openTag(tag, block.Label))
				listTag = tag
			}
			b.WriteString("<li>" + spannedText(block, resolve) + "</li>")
		case "image":
			closeList()
			b.WriteString(openTag("p", joinLabels("block-img", block.Label)))
			b.WriteString(imageTag(block.View))
			b.WriteString("</p>")
		default:
			closeList()
			tag, ok := blockTags[block.Type]
			if !ok {
				tag = "p"
			}
			b.WriteString(openTag(tag, block.Label))
			b.WriteString(spannedText(block, resolve))
			b.WriteString("</" + tag + ">")
		}
	}
	closeList()
	return b.String()
}

func openTag(tag, class string) string {
	if class == "" {
		return "<" + tag + ">"
	}
	return fmt.Sprintf(`<%s class="%s">`, tag, html.EscapeString(class))
}

func joinLabels(base, label string) string {
	if label == "" {
		return base
	}
	return base + " " + label
}

// spannedText interleaves a block's text with its span tags. Offsets
// are rune positions, so the text is walked as runes; each literal rune
// is escaped on the way out.
func spannedText(block document.Block, resolve document.LinkResolver) string {
	if len(block.Spans) == 0 {
		return html.EscapeString(block.Text)
	}

	runes := []rune(block.Text)
	opens := make(map[int][]document.Span)
	closes := make(map[int][]document.Span)
	for _, s := range block.Spans {
		end := s.End
		if end > len(runes) {
			end = len(runes)
		}
		opens[s.Start] = append(opens[s.Start], s)
		closes[end] = append(closes[end], s)
	}
	// Close later-opened spans first so tags nest.
	for pos := range closes {
		sort.SliceStable(closes[pos], func(i, j int) bool {
			return closes[pos][i].Start > closes[pos][j].Start
		})
	}

	var b strings.Builder
	for i := 0; i <= len(runes); i++ {
		for _, s := range closes[i] {
			b.WriteString(closeSpanTag(s))
		}
		for _, s := range opens[i] {
			b.WriteString(openSpanTag(s, resolve))
		}
		if i < len(runes) {
			b.WriteString(html.EscapeString(string(runes[i])))
		}
	}
	return b.String()
}

func openSpanTag(s document.Span, resolve document.LinkResolver) string {
	switch s.Type {
	case "strong":
		return "<strong>"
	case "em":
		return "<em>"
	case "hyperlink":
		if s.Link == nil {
			return `<a href="#">`
		}
		return fmt.Sprintf(`<a href="%s">`, html.EscapeString(linkTarget(s.Link, resolve)))
	case "label":
		return fmt.Sprintf(`<span class="%s">`, html.EscapeString(s.Label))
	default:
		return fmt.Sprintf(`<span class="%s">`, html.EscapeString(s.Type))
	}
}

func closeSpanTag(s document.Span) string {
	switch s.Type {
	case "strong":
		return "</strong>"
	case "em":
		return "</em>"
	case "hyperlink":
		return "</a>"
	default:
		return "</span>"
	}
}

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

// Sanitize strips anything from rendered HTML that the renderers above
// do not emit. Fragment values come from the repository, which is
// writable by content editors, so the output is filtered before use.
func Sanitize(markup string) string {
	return outputPolicy().Sanitize(markup)
}

func outputPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.NewPolicy()
		p.AllowElements(
			"h1", "h2", "h3", "h4", "h5", "h6",
			"p", "pre", "ul", "ol", "li",
			"strong", "em", "span", "time", "div",
		)
		p.AllowAttrs("class").Globally()
		p.AllowAttrs("datetime").OnElements("time")
		p.AllowAttrs("data-latitude", "data-longitude").OnElements("span")
		p.AllowAttrs("src", "alt", "width", "height").OnElements("img")
		p.AllowElements("img")
		p.AllowAttrs("href").OnElements("a")
		p.AllowElements("a")
		p.AllowStandardURLs()
		policy = p
	})
	return policy
}
