package document

import (
	"encoding/json"
	"fmt"
	"time"
)

// Fragment kind discriminators as they appear on the wire.
const (
	KindText           = "Text"
	KindSelect         = "Select"
	KindNumber         = "Number"
	KindColor          = "Color"
	KindDate           = "Date"
	KindTimestamp      = "Timestamp"
	KindGeoPoint       = "GeoPoint"
	KindImage          = "Image"
	KindGroup          = "Group"
	KindStructuredText = "StructuredText"
	KindWebLink        = "Link.web"
	KindDocumentLink   = "Link.document"
	KindImageLink      = "Link.image"
)

// Fragment is one typed content value within a document. The concrete type
// is determined by the "type" discriminator of the raw payload; unknown
// discriminators decode to [Raw] so no data is lost.
type Fragment interface {
	Kind() string
}

// Link is the subset of fragments that point somewhere: web links,
// document links and image links.
type Link interface {
	Fragment
	isLink()
}

// Text is a single line of plain text.
type Text string

func (Text) Kind() string { return KindText }

// Select is a value chosen from a closed set declared in the document mask.
type Select string

func (Select) Kind() string { return KindSelect }

// Number is a numeric field.
type Number float64

func (Number) Kind() string { return KindNumber }

// Color is a CSS hex color such as "#b8e6f4".
type Color string

func (Color) Kind() string { return KindColor }

// Date is a calendar date without a time component.
type Date time.Time

func (Date) Kind() string { return KindDate }

// Time returns the date as a time.Time at midnight UTC.
func (d Date) Time() time.Time { return time.Time(d) }

// Timestamp is a point in time.
type Timestamp time.Time

func (Timestamp) Kind() string { return KindTimestamp }

// Time returns the timestamp as a time.Time.
func (t Timestamp) Time() time.Time { return time.Time(t) }

// GeoPoint is a latitude/longitude pair.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (GeoPoint) Kind() string { return KindGeoPoint }

// ImageView is one crop of an image.
type ImageView struct {
	URL       string `json:"url"`
	Alt       string `json:"alt"`
	Copyright string `json:"copyright"`
	Width     int
	Height    int
}

// Image is an image fragment: a main view plus named alternate views.
type Image struct {
	Main  ImageView
	Views map[string]ImageView
}

func (Image) Kind() string { return KindImage }

// View returns the named view, falling back to the main view when the
// name is unknown or empty.
func (i Image) View(name string) ImageView {
	if v, ok := i.Views[name]; ok {
		return v
	}
	return i.Main
}

// WebLink points to an external URL.
type WebLink struct {
	URL string
}

func (WebLink) Kind() string { return KindWebLink }
func (WebLink) isLink()      {}

// DocumentLink points to another document in the repository. Resolving it
// to a URL is the caller's concern, via a [LinkResolver].
type DocumentLink struct {
	ID       string
	Type     string
	Slug     string
	Tags     []string
	IsBroken bool
}

func (DocumentLink) Kind() string { return KindDocumentLink }
func (DocumentLink) isLink()      {}

// ImageLink points to a media item hosted by the repository.
type ImageLink struct {
	Name   string
	URL    string
	Width  int
	Height int
}

func (ImageLink) Kind() string { return KindImageLink }
func (ImageLink) isLink()      {}

// Group is a repeatable set of nested fragments.
type Group []GroupItem

func (Group) Kind() string { return KindGroup }

// GroupItem is one repetition of a group: a named set of fragments in
// declaration order.
type GroupItem struct {
	fragments map[string]Fragment
	order     []string
}

// Get returns the named nested fragment, or nil.
func (g GroupItem) Get(name string) Fragment { return g.fragments[name] }

// Names returns the nested fragment names in declaration order.
func (g GroupItem) Names() []string { return g.order }

// Raw preserves fragments with an unknown discriminator.
type Raw struct {
	Type  string
	Value json.RawMessage
}

func (r Raw) Kind() string { return r.Type }

// timestampLayouts are tried in order when parsing Timestamp values; the
// repository emits numeric zone offsets without a colon.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05.000-0700",
}

// decodeFragment maps one raw fragment payload onto its concrete type
// using the "type" discriminator.
func decodeFragment(raw json.RawMessage) (Fragment, error) {
	var env struct {
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode fragment envelope: %w", err)
	}

	switch env.Type {
	case KindText:
		var v string
		if err := json.Unmarshal(env.Value, &v); err != nil {
			return nil, err
		}
		return Text(v), nil

	case KindSelect:
		var v string
		if err := json.Unmarshal(env.Value, &v); err != nil {
			return nil, err
		}
		return Select(v), nil

	case KindNumber:
		var v float64
		if err := json.Unmarshal(env.Value, &v); err != nil {
			return nil, err
		}
		return Number(v), nil

	case KindColor:
		var v string
		if err := json.Unmarshal(env.Value, &v); err != nil {
			return nil, err
		}
		return Color(v), nil

	case KindDate:
		var v string
		if err := json.Unmarshal(env.Value, &v); err != nil {
			return nil, err
		}
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return nil, fmt.Errorf("parse date %q: %w", v, err)
		}
		return Date(t), nil

	case KindTimestamp:
		var v string
		if err := json.Unmarshal(env.Value, &v); err != nil {
			return nil, err
		}
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return Timestamp(t), nil
			}
		}
		return nil, fmt.Errorf("parse timestamp %q", v)

	case KindGeoPoint:
		var v GeoPoint
		if err := json.Unmarshal(env.Value, &v); err != nil {
			return nil, err
		}
		return v, nil

	case KindImage:
		return decodeImage(env.Value)

	case KindWebLink:
		var v struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal(env.Value, &v); err != nil {
			return nil, err
		}
		return WebLink{URL: v.URL}, nil

	case KindDocumentLink:
		return decodeDocumentLink(env.Value)

	case KindImageLink:
		var v struct {
			Image struct {
				Name   string `json:"name"`
				URL    string `json:"url"`
				Width  int    `json:"width"`
				Height int    `json:"height"`
			} `json:"image"`
		}
		if err := json.Unmarshal(env.Value, &v); err != nil {
			return nil, err
		}
		return ImageLink{Name: v.Image.Name, URL: v.Image.URL, Width: v.Image.Width, Height: v.Image.Height}, nil

	case KindGroup:
		return decodeGroup(env.Value)

	case KindStructuredText:
		return decodeStructuredText(env.Value)

	default:
		return Raw{Type: env.Type, Value: env.Value}, nil
	}
}

// wireImageView matches the wire shape of one image view.
type wireImageView struct {
	URL        string `json:"url"`
	Alt        string `json:"alt"`
	Copyright  string `json:"copyright"`
	Dimensions struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"dimensions"`
}

func (w wireImageView) view() ImageView {
	return ImageView{
		URL:       w.URL,
		Alt:       w.Alt,
		Copyright: w.Copyright,
		Width:     w.Dimensions.Width,
		Height:    w.Dimensions.Height,
	}
}

func decodeImage(value json.RawMessage) (Fragment, error) {
	var v struct {
		Main  wireImageView            `json:"main"`
		Views map[string]wireImageView `json:"views"`
	}
	if err := json.Unmarshal(value, &v); err != nil {
		return nil, err
	}
	img := Image{Main: v.Main.view()}
	if len(v.Views) > 0 {
		img.Views = make(map[string]ImageView, len(v.Views))
		for name, view := range v.Views {
			img.Views[name] = view.view()
		}
	}
	return img, nil
}

func decodeDocumentLink(value json.RawMessage) (Fragment, error) {
	var v struct {
		Document struct {
			ID   string   `json:"id"`
			Type string   `json:"type"`
			Slug string   `json:"slug"`
			Tags []string `json:"tags"`
		} `json:"document"`
		IsBroken bool `json:"isBroken"`
	}
	if err := json.Unmarshal(value, &v); err != nil {
		return nil, err
	}
	return DocumentLink{
		ID:       v.Document.ID,
		Type:     v.Document.Type,
		Slug:     v.Document.Slug,
		Tags:     v.Document.Tags,
		IsBroken: v.IsBroken,
	}, nil
}

func decodeGroup(value json.RawMessage) (Fragment, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(value, &items); err != nil {
		return nil, err
	}
	group := make(Group, 0, len(items))
	for _, item := range items {
		gi := GroupItem{fragments: make(map[string]Fragment)}
		err := walkObject(item, func(name string, raw json.RawMessage) error {
			frag, err := decodeFragment(raw)
			if err != nil {
				return err
			}
			gi.fragments[name] = frag
			gi.order = append(gi.order, name)
			return nil
		})
		if err != nil {
			return nil, err
		}
		group = append(group, gi)
	}
	return group, nil
}
