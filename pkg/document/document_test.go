package document

import (
	"encoding/json"
	"testing"
	"time"
)

const articleRow = `{
	"id": "UkL0gMuvzYUANCpi",
	"type": "article",
	"href": "https://example.wroom.io/api/documents/search?ref=master&q=%5B%5B%3Ad+%3D+at%28document.id%2C+%22UkL0gMuvzYUANCpi%22%29%5D%5D",
	"tags": ["featured"],
	"slugs": ["hello-world", "hello"],
	"linked_documents": [
		{"id": "UkL0gMuvzYUANCpj", "type": "author", "slug": "jane", "tags": []}
	],
	"data": {
		"article": {
			"title": {"type": "Text", "value": "Hello"},
			"rating": {"type": "Number", "value": 4.5},
			"published": {"type": "Select", "value": "Yes"},
			"theme": {"type": "Color", "value": "#b8e6f4"},
			"date": {"type": "Date", "value": "2013-05-07"},
			"updated": {"type": "Timestamp", "value": "2014-06-18T15:30:00+0000"},
			"place": {"type": "GeoPoint", "value": {"latitude": 48.87, "longitude": 2.33}},
			"source": {"type": "Link.web", "value": {"url": "https://example.org"}},
			"related": [
				{"type": "Text", "value": "first"},
				{"type": "Text", "value": "second"}
			],
			"cover": {"type": "Image", "value": {
				"main": {"url": "https://images.wroom.io/main.png", "alt": "cover", "copyright": "", "dimensions": {"width": 800, "height": 600}},
				"views": {"icon": {"url": "https://images.wroom.io/icon.png", "alt": "cover", "copyright": "", "dimensions": {"width": 64, "height": 64}}}
			}},
			"authors": {"type": "Group", "value": [
				{"name": {"type": "Text", "value": "Jane"}, "role": {"type": "Select", "value": "editor"}},
				{"name": {"type": "Text", "value": "John"}}
			]},
			"body": {"type": "StructuredText", "value": [
				{"type": "heading1", "text": "Hello world", "spans": []},
				{"type": "paragraph", "text": "A fine paragraph.", "spans": [
					{"start": 2, "end": 6, "type": "strong"},
					{"start": 5, "end": 5, "type": "em"},
					{"start": 8, "end": 17, "type": "hyperlink", "data": {"type": "Link.web", "value": {"url": "https://example.org"}}}
				]}
			]},
			"mystery": {"type": "Embed", "value": {"oembed": {"provider_name": "Vimeo"}}}
		}
	}
}`

func parseArticle(t *testing.T) *Document {
	t.Helper()
	doc, err := Parse(json.RawMessage(articleRow))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	return doc
}

func TestParseMetadata(t *testing.T) {
	doc := parseArticle(t)

	if doc.ID != "UkL0gMuvzYUANCpi" || doc.Type != "article" {
		t.Errorf("id/type = %s/%s", doc.ID, doc.Type)
	}
	if doc.Slug() != "hello-world" {
		t.Errorf("Slug() = %q, want hello-world", doc.Slug())
	}
	if len(doc.LinkedDocuments) != 1 || doc.LinkedDocuments[0].Slug != "jane" {
		t.Errorf("LinkedDocuments = %+v", doc.LinkedDocuments)
	}
	if len(doc.Raw) == 0 {
		t.Error("Raw payload should be retained")
	}
}

func TestFragmentOrderPreserved(t *testing.T) {
	doc := parseArticle(t)

	names := doc.FragmentNames()
	want := []string{
		"article.title", "article.rating", "article.published", "article.theme",
		"article.date", "article.updated", "article.place", "article.source",
		"article.related", "article.cover", "article.authors", "article.body",
		"article.mystery",
	}
	if len(names) != len(want) {
		t.Fatalf("FragmentNames() = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("FragmentNames()[%d] = %s, want %s", i, names[i], want[i])
		}
	}
}

func TestTypedAccessors(t *testing.T) {
	doc := parseArticle(t)

	if v, ok := doc.GetText("article.title"); !ok || v != "Hello" {
		t.Errorf("GetText(title) = (%q, %v)", v, ok)
	}
	// Discriminator mismatch reports absence, never an error.
	if _, ok := doc.GetNumber("article.title"); ok {
		t.Error("GetNumber on a Text fragment should report absence")
	}
	if _, ok := doc.GetText("article.nope"); ok {
		t.Error("GetText on a missing fragment should report absence")
	}

	if v, ok := doc.GetNumber("article.rating"); !ok || v != 4.5 {
		t.Errorf("GetNumber(rating) = (%v, %v)", v, ok)
	}
	if v, ok := doc.GetSelect("article.published"); !ok || v != "Yes" {
		t.Errorf("GetSelect(published) = (%q, %v)", v, ok)
	}
	if v, ok := doc.GetBoolean("article.published"); !ok || !v {
		t.Errorf("GetBoolean(published) = (%v, %v), want true", v, ok)
	}
	if v, ok := doc.GetColor("article.theme"); !ok || v != "#b8e6f4" {
		t.Errorf("GetColor(theme) = (%q, %v)", v, ok)
	}

	date, ok := doc.GetDate("article.date")
	if !ok || !date.Equal(time.Date(2013, 5, 7, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("GetDate(date) = (%v, %v)", date, ok)
	}
	ts, ok := doc.GetTimestamp("article.updated")
	if !ok || !ts.Equal(time.Date(2014, 6, 18, 15, 30, 0, 0, time.UTC)) {
		t.Errorf("GetTimestamp(updated) = (%v, %v)", ts, ok)
	}

	gp, ok := doc.GetGeoPoint("article.place")
	if !ok || gp.Latitude != 48.87 || gp.Longitude != 2.33 {
		t.Errorf("GetGeoPoint(place) = (%+v, %v)", gp, ok)
	}

	link, ok := doc.GetLink("article.source")
	if !ok {
		t.Fatal("GetLink(source) reported absence")
	}
	if web, ok := link.(WebLink); !ok || web.URL != "https://example.org" {
		t.Errorf("GetLink(source) = %+v", link)
	}

	img, ok := doc.GetImage("article.cover")
	if !ok || img.Main.Width != 800 {
		t.Errorf("GetImage(cover) = (%+v, %v)", img, ok)
	}
	if v := img.View("icon"); v.Width != 64 {
		t.Errorf("View(icon) = %+v", v)
	}
	if v := img.View("missing"); v.Width != 800 {
		t.Errorf("View(missing) should fall back to main, got %+v", v)
	}
}

func TestMultiValuedFragments(t *testing.T) {
	doc := parseArticle(t)

	all := doc.GetAll("article.related")
	if len(all) != 2 {
		t.Fatalf("GetAll(related) returned %d fragments, want 2", len(all))
	}
	// Get takes the first element of a multi-valued field.
	if v, ok := doc.GetText("article.related"); !ok || v != "first" {
		t.Errorf("GetText(related) = (%q, %v), want first", v, ok)
	}
	// Singular fragments normalize to a one-element slice.
	if got := doc.GetAll("article.title"); len(got) != 1 {
		t.Errorf("GetAll(title) returned %d fragments, want 1", len(got))
	}
	if got := doc.GetAll("article.nope"); len(got) != 0 {
		t.Errorf("GetAll(nope) returned %d fragments, want 0", len(got))
	}
}

func TestGroupFragment(t *testing.T) {
	doc := parseArticle(t)

	group, ok := doc.GetGroup("article.authors")
	if !ok || len(group) != 2 {
		t.Fatalf("GetGroup(authors) = (%v items, %v)", len(group), ok)
	}
	if f, ok := group[0].Get("name").(Text); !ok || f != "Jane" {
		t.Errorf("group[0].name = %v", group[0].Get("name"))
	}
	names := group[0].Names()
	if len(names) != 2 || names[0] != "name" || names[1] != "role" {
		t.Errorf("group[0].Names() = %v", names)
	}
	if group[1].Get("role") != nil {
		t.Error("group[1].role should be absent")
	}
}

func TestStructuredTextSpans(t *testing.T) {
	doc := parseArticle(t)

	st, ok := doc.GetStructuredText("article.body")
	if !ok || len(st) != 2 {
		t.Fatalf("GetStructuredText(body) = (%v blocks, %v)", len(st), ok)
	}

	para := st[1]
	// The zero-width span (start=5, end=5) is dropped; the others stay.
	if len(para.Spans) != 2 {
		t.Fatalf("paragraph has %d spans, want 2 (zero-width span dropped)", len(para.Spans))
	}
	if para.Spans[0].Type != "strong" || para.Spans[0].Start != 2 || para.Spans[0].End != 6 {
		t.Errorf("span[0] = %+v", para.Spans[0])
	}
	hyper := para.Spans[1]
	if hyper.Type != "hyperlink" {
		t.Fatalf("span[1] = %+v", hyper)
	}
	if web, ok := hyper.Link.(WebLink); !ok || web.URL != "https://example.org" {
		t.Errorf("hyperlink target = %+v", hyper.Link)
	}

	if title, ok := st.FirstTitle(); !ok || title != "Hello world" {
		t.Errorf("FirstTitle() = (%q, %v)", title, ok)
	}
	if text := st.Text(); text != "Hello world\nA fine paragraph." {
		t.Errorf("Text() = %q", text)
	}
}

func TestUnknownFragmentKind(t *testing.T) {
	doc := parseArticle(t)

	frag := doc.Get("article.mystery")
	raw, ok := frag.(Raw)
	if !ok {
		t.Fatalf("unknown kind should decode to Raw, got %T", frag)
	}
	if raw.Kind() != "Embed" || len(raw.Value) == 0 {
		t.Errorf("Raw = %+v", raw)
	}
}

// stubRenderer renders Text fragments only, to check that unrenderable
// fragments contribute nothing and order is respected.
type stubRenderer struct{}

func (stubRenderer) Render(f Fragment, resolve LinkResolver) (string, bool) {
	if t, ok := f.(Text); ok {
		return "<" + string(t) + ">", true
	}
	return "", false
}

func TestRenderIteratesInOrder(t *testing.T) {
	doc := parseArticle(t)

	got := doc.Render(stubRenderer{}, nil)
	if got != "<Hello><first><second>" {
		t.Errorf("Render() = %q", got)
	}
}

func TestParseWithoutData(t *testing.T) {
	doc, err := Parse(json.RawMessage(`{"id":"x","type":"t","tags":[],"slugs":[]}`))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if doc.Slug() != "" {
		t.Errorf("Slug() = %q, want empty", doc.Slug())
	}
	if names := doc.FragmentNames(); len(names) != 0 {
		t.Errorf("FragmentNames() = %v", names)
	}
}
