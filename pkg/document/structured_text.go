package document

import (
	"encoding/json"
	"sort"
	"strings"
)

// StructuredText is rich text: an ordered list of blocks (headings,
// paragraphs, images, list items), each carrying inline span annotations.
type StructuredText []Block

func (StructuredText) Kind() string { return KindStructuredText }

// Block is one block-level element of a StructuredText fragment.
// For "image" blocks, View holds the image and Text is empty.
type Block struct {
	Type  string // "heading1".."heading6", "paragraph", "preformatted", "list-item", "o-list-item", "image"
	Text  string
	Label string
	Spans []Span
	View  ImageView
}

// Span is an inline annotation over [Start, End) of a block's text,
// measured in runes. For "hyperlink" spans Link holds the target; for
// "label" spans Label holds the label name.
type Span struct {
	Start int
	End   int
	Type  string
	Label string
	Link  Link
}

// Text concatenates the text of all blocks, one line per block. Image
// blocks contribute their alt text.
func (st StructuredText) Text() string {
	parts := make([]string, 0, len(st))
	for _, b := range st {
		if b.Type == "image" {
			parts = append(parts, b.View.Alt)
			continue
		}
		parts = append(parts, b.Text)
	}
	return strings.Join(parts, "\n")
}

// First returns the first block of the given type.
func (st StructuredText) First(blockType string) (Block, bool) {
	for _, b := range st {
		if b.Type == blockType {
			return b, true
		}
	}
	return Block{}, false
}

// FirstTitle returns the text of the first heading block of any level.
func (st StructuredText) FirstTitle() (string, bool) {
	for _, b := range st {
		if strings.HasPrefix(b.Type, "heading") {
			return b.Text, true
		}
	}
	return "", false
}

type wireSpan struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Type  string `json:"type"`
	Data  json.RawMessage `json:"data"`
}

type wireBlock struct {
	Type  string     `json:"type"`
	Text  string     `json:"text"`
	Label string     `json:"label"`
	Spans []wireSpan `json:"spans"`
	wireImageView
}

func decodeStructuredText(value json.RawMessage) (Fragment, error) {
	var blocks []wireBlock
	if err := json.Unmarshal(value, &blocks); err != nil {
		return nil, err
	}

	st := make(StructuredText, 0, len(blocks))
	for _, wb := range blocks {
		b := Block{Type: wb.Type, Text: wb.Text, Label: wb.Label}
		if wb.Type == "image" {
			b.View = wb.view()
		}
		for _, ws := range wb.Spans {
			// Upstream occasionally emits spans with a start offset at
			// or past the end offset; those annotate nothing and are
			// dropped here rather than surfaced.
			if ws.Start >= ws.End {
				continue
			}
			b.Spans = append(b.Spans, decodeSpan(ws))
		}
		sort.SliceStable(b.Spans, func(i, j int) bool {
			return b.Spans[i].Start < b.Spans[j].Start
		})
		st = append(st, b)
	}
	return st, nil
}

func decodeSpan(ws wireSpan) Span {
	s := Span{Start: ws.Start, End: ws.End, Type: ws.Type}
	switch ws.Type {
	case "hyperlink":
		if frag, err := decodeFragment(ws.Data); err == nil {
			if link, ok := frag.(Link); ok {
				s.Link = link
			}
		}
	case "label":
		var data struct {
			Label string `json:"label"`
		}
		if err := json.Unmarshal(ws.Data, &data); err == nil {
			s.Label = data.Label
		}
	}
	return s
}
