// Package api models the repository's bootstrap descriptor and the
// search requests built from it.
//
// The descriptor is the repository's entry point: it lists the
// available refs (point-in-time views of the content), the query forms
// with their declared fields, and repository metadata. [ParseDescriptor]
// turns the raw bootstrap payload into a [Descriptor]; [NewSearchForm]
// then builds one mutable [SearchForm] per query.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrMissingMasterRef is returned when the bootstrap payload declares
// no ref with isMasterRef set. A repository without a master ref is
// unusable, so descriptor parsing aborts.
var ErrMissingMasterRef = errors.New("bootstrap descriptor has no master ref")

// accessTokenField is the synthetic hidden field injected into every
// form when the client holds an access token, so each query built from
// the form authenticates itself.
const accessTokenField = "access_token"

// Ref is a named, immutable point-in-time view of repository content.
type Ref struct {
	ID          string
	Ref         string
	Label       string
	IsMaster    bool
	ScheduledAt *time.Time // set for scheduled releases only
}

// Field is one declared parameter of a form.
type Field struct {
	Type     string
	Multiple bool
	Default  string
}

// UnmarshalJSON accepts both string and numeric defaults; some
// repositories emit pagination defaults as bare numbers.
func (f *Field) UnmarshalJSON(data []byte) error {
	var wire struct {
		Type     string          `json:"type"`
		Multiple bool            `json:"multiple"`
		Default  json.RawMessage `json:"default"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	f.Type = wire.Type
	f.Multiple = wire.Multiple
	f.Default = ""
	if len(wire.Default) > 0 && string(wire.Default) != "null" {
		var s string
		if err := json.Unmarshal(wire.Default, &s); err == nil {
			f.Default = s
		} else {
			f.Default = string(wire.Default)
		}
	}
	return nil
}

// Form is a declared, parameterized query endpoint.
type Form struct {
	Name    string           `json:"name"`
	Method  string           `json:"form_method"`
	Rel     string           `json:"rel"`
	Enctype string           `json:"enctype"`
	Action  string           `json:"action"`
	Fields  map[string]Field `json:"fields"`
}

// Descriptor is the parsed bootstrap payload. Immutable once parsed.
type Descriptor struct {
	Refs      []Ref
	Master    Ref
	Forms     map[string]Form
	Types     map[string]string
	Tags      []string
	Bookmarks map[string]string

	OAuthInitiate string
	OAuthToken    string
}

type wireRef struct {
	ID          string `json:"id"`
	Ref         string `json:"ref"`
	Label       string `json:"label"`
	IsMasterRef bool   `json:"isMasterRef"`
	ScheduledAt int64  `json:"scheduledAt"` // milliseconds since epoch
}

// ParseDescriptor parses the raw bootstrap payload. When accessToken is
// non-empty, every form gains a hidden access_token field defaulting to
// it. Parsing fails with ErrMissingMasterRef when no ref is the master,
// and with a plain error when several claim to be.
func ParseDescriptor(raw json.RawMessage, accessToken string) (*Descriptor, error) {
	var wire struct {
		Refs          []wireRef         `json:"refs"`
		Forms         map[string]Form   `json:"forms"`
		Types         map[string]string `json:"types"`
		Tags          []string          `json:"tags"`
		Bookmarks     map[string]string `json:"bookmarks"`
		OAuthInitiate string            `json:"oauth_initiate"`
		OAuthToken    string            `json:"oauth_token"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("decode bootstrap descriptor: %w", err)
	}

	d := &Descriptor{
		Refs:          make([]Ref, 0, len(wire.Refs)),
		Forms:         make(map[string]Form, len(wire.Forms)),
		Types:         wire.Types,
		Tags:          wire.Tags,
		Bookmarks:     wire.Bookmarks,
		OAuthInitiate: wire.OAuthInitiate,
		OAuthToken:    wire.OAuthToken,
	}

	masters := 0
	for _, wr := range wire.Refs {
		ref := Ref{ID: wr.ID, Ref: wr.Ref, Label: wr.Label, IsMaster: wr.IsMasterRef}
		if wr.ScheduledAt > 0 {
			t := time.UnixMilli(wr.ScheduledAt).UTC()
			ref.ScheduledAt = &t
		}
		d.Refs = append(d.Refs, ref)
		if ref.IsMaster {
			d.Master = ref
			masters++
		}
	}
	if masters == 0 {
		return nil, ErrMissingMasterRef
	}
	if masters > 1 {
		return nil, fmt.Errorf("bootstrap descriptor has %d master refs, want 1", masters)
	}

	for id, form := range wire.Forms {
		if accessToken != "" {
			fields := make(map[string]Field, len(form.Fields)+1)
			for name, f := range form.Fields {
				fields[name] = f
			}
			fields[accessTokenField] = Field{Type: "String", Default: accessToken}
			form.Fields = fields
		}
		d.Forms[id] = form
	}
	return d, nil
}

// RefByLabel returns the ref with the given label.
func (d *Descriptor) RefByLabel(label string) (Ref, bool) {
	for _, r := range d.Refs {
		if r.Label == label {
			return r, true
		}
	}
	return Ref{}, false
}
