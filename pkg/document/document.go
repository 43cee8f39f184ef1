// Package document maps raw repository payloads onto typed documents.
//
// A document is a bag of named fragments keyed "type.field" (for example
// "article.title"). Fragments form a closed tagged union over the wire
// discriminator; the typed accessors on [Document] check the discriminator
// and report absence instead of failing, so callers can probe a field for
// several types without error handling:
//
//	if title, ok := doc.GetText("article.title"); ok { ... }
//
// Rendering fragments to HTML or text is delegated to a [Renderer]
// implementation (see the render package for the defaults); the document
// model itself only owns iteration order and fragment typing.
package document

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// LinkedDocument is a reference to another document, as listed in a
// result row's linked_documents or inside a document link fragment.
type LinkedDocument struct {
	ID   string   `json:"id"`
	Type string   `json:"type"`
	Slug string   `json:"slug"`
	Tags []string `json:"tags"`
}

// Document is one content item from the repository. Immutable after
// parsing.
type Document struct {
	ID              string
	Type            string
	Href            string
	Tags            []string
	Slugs           []string
	LinkedDocuments []LinkedDocument

	// Raw is the result row this document was parsed from, kept for
	// callers that need to persist or re-process the original payload.
	Raw json.RawMessage

	fragments map[string][]Fragment
	order     []string
}

// Parse builds a Document from one search result row.
func Parse(raw json.RawMessage) (*Document, error) {
	var row struct {
		ID              string           `json:"id"`
		Type            string           `json:"type"`
		Href            string           `json:"href"`
		Tags            []string         `json:"tags"`
		Slugs           []string         `json:"slugs"`
		LinkedDocuments []LinkedDocument `json:"linked_documents"`
		Data            json.RawMessage  `json:"data"`
	}
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, fmt.Errorf("decode document row: %w", err)
	}

	doc := &Document{
		ID:              row.ID,
		Type:            row.Type,
		Href:            row.Href,
		Tags:            row.Tags,
		Slugs:           row.Slugs,
		LinkedDocuments: row.LinkedDocuments,
		Raw:             raw,
		fragments:       make(map[string][]Fragment),
	}

	if len(row.Data) == 0 || string(row.Data) == "null" {
		return doc, nil
	}

	// data nests fragments under the document type:
	// {"article": {"title": {...}, "body": {...}}}
	err := walkObject(row.Data, func(docType string, fields json.RawMessage) error {
		return walkObject(fields, func(field string, value json.RawMessage) error {
			return doc.addFragment(docType+"."+field, value)
		})
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// addFragment decodes value (a single fragment or an array of fragments
// for "multiple" fields) and stores it under name.
func (d *Document) addFragment(name string, value json.RawMessage) error {
	trimmed := bytes.TrimLeft(value, " \t\r\n")

	var raws []json.RawMessage
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(value, &raws); err != nil {
			return fmt.Errorf("fragment %s: %w", name, err)
		}
	} else {
		raws = []json.RawMessage{value}
	}

	frags := make([]Fragment, 0, len(raws))
	for _, raw := range raws {
		frag, err := decodeFragment(raw)
		if err != nil {
			return fmt.Errorf("fragment %s: %w", name, err)
		}
		frags = append(frags, frag)
	}

	if _, exists := d.fragments[name]; !exists {
		d.order = append(d.order, name)
	}
	d.fragments[name] = append(d.fragments[name], frags...)
	return nil
}

// Slug returns the document's current slug (the head of the slug list).
func (d *Document) Slug() string {
	if len(d.Slugs) == 0 {
		return ""
	}
	return d.Slugs[0]
}

// FragmentNames returns the fragment names in declaration order.
func (d *Document) FragmentNames() []string {
	names := make([]string, len(d.order))
	copy(names, d.order)
	return names
}

// Get returns the named fragment, or nil when absent. For multi-valued
// fields it returns the first value.
func (d *Document) Get(name string) Fragment {
	frags := d.fragments[name]
	if len(frags) == 0 {
		return nil
	}
	return frags[0]
}

// GetAll returns every value stored under name; singular fragments come
// back as a one-element slice.
func (d *Document) GetAll(name string) []Fragment {
	frags := d.fragments[name]
	out := make([]Fragment, len(frags))
	copy(out, frags)
	return out
}

// LinkResolver maps a document link to a URL within the calling
// application. The repository cannot know the application's routes, so
// every HTML rendering entry point takes one.
type LinkResolver func(link DocumentLink) string

// Renderer turns a single fragment into output text. The second return
// value reports whether the renderer knows the fragment's kind; unknown
// kinds contribute nothing to the rendered document.
type Renderer interface {
	Render(f Fragment, resolve LinkResolver) (string, bool)
}

// Render renders every fragment in declaration order through r and
// concatenates the results. Fragments r does not know contribute "".
func (d *Document) Render(r Renderer, resolve LinkResolver) string {
	var b bytes.Buffer
	for _, name := range d.order {
		for _, frag := range d.fragments[name] {
			if out, ok := r.Render(frag, resolve); ok {
				b.WriteString(out)
			}
		}
	}
	return b.String()
}

// walkObject decodes a JSON object, invoking fn for each key/value pair
// in the order they appear in the payload. encoding/json's map decoding
// would lose that order, and fragment order is part of the document's
// meaning.
func walkObject(raw json.RawMessage, fn func(key string, value json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", keyTok)
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return err
		}
		if err := fn(key, value); err != nil {
			return err
		}
	}

	_, err = dec.Token() // closing brace
	return err
}
