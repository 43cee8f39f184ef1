package document

import (
	"strings"
	"time"
)

// Typed accessors. Each checks the fragment's discriminator and reports
// absence (ok=false) on a missing fragment or a kind mismatch; none of
// them ever fail.

// GetText returns the value of a Text fragment.
func (d *Document) GetText(name string) (string, bool) {
	if f, ok := d.Get(name).(Text); ok {
		return string(f), true
	}
	return "", false
}

// GetSelect returns the value of a Select fragment.
func (d *Document) GetSelect(name string) (string, bool) {
	if f, ok := d.Get(name).(Select); ok {
		return string(f), true
	}
	return "", false
}

// GetNumber returns the value of a Number fragment.
func (d *Document) GetNumber(name string) (float64, bool) {
	if f, ok := d.Get(name).(Number); ok {
		return float64(f), true
	}
	return 0, false
}

// GetColor returns the value of a Color fragment.
func (d *Document) GetColor(name string) (string, bool) {
	if f, ok := d.Get(name).(Color); ok {
		return string(f), true
	}
	return "", false
}

// GetDate returns the value of a Date fragment.
func (d *Document) GetDate(name string) (time.Time, bool) {
	if f, ok := d.Get(name).(Date); ok {
		return time.Time(f), true
	}
	return time.Time{}, false
}

// GetTimestamp returns the value of a Timestamp fragment.
func (d *Document) GetTimestamp(name string) (time.Time, bool) {
	if f, ok := d.Get(name).(Timestamp); ok {
		return time.Time(f), true
	}
	return time.Time{}, false
}

// GetBoolean reads a Text or Select fragment as a boolean. The value is
// true when the text matches yes, on or true case-insensitively.
func (d *Document) GetBoolean(name string) (bool, bool) {
	var text string
	switch f := d.Get(name).(type) {
	case Text:
		text = string(f)
	case Select:
		text = string(f)
	default:
		return false, false
	}
	switch strings.ToLower(text) {
	case "yes", "on", "true":
		return true, true
	default:
		return false, true
	}
}

// GetGeoPoint returns the value of a GeoPoint fragment.
func (d *Document) GetGeoPoint(name string) (GeoPoint, bool) {
	if f, ok := d.Get(name).(GeoPoint); ok {
		return f, true
	}
	return GeoPoint{}, false
}

// GetImage returns the value of an Image fragment.
func (d *Document) GetImage(name string) (Image, bool) {
	if f, ok := d.Get(name).(Image); ok {
		return f, true
	}
	return Image{}, false
}

// GetLink returns the value of any link fragment (web, document or
// image link).
func (d *Document) GetLink(name string) (Link, bool) {
	if f, ok := d.Get(name).(Link); ok {
		return f, true
	}
	return nil, false
}

// GetGroup returns the value of a Group fragment.
func (d *Document) GetGroup(name string) (Group, bool) {
	if f, ok := d.Get(name).(Group); ok {
		return f, true
	}
	return nil, false
}

// GetStructuredText returns the value of a StructuredText fragment.
func (d *Document) GetStructuredText(name string) (StructuredText, bool) {
	if f, ok := d.Get(name).(StructuredText); ok {
		return f, true
	}
	return nil, false
}
