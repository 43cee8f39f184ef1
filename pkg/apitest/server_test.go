package apitest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func newFixture(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServer()
	docs := []string{
		`{"id":"doc-1","type":"article","tags":["featured"],"slugs":["one"],"data":{"article":{"title":{"type":"Text","value":"One"}}}}`,
		`{"id":"doc-2","type":"article","tags":[],"slugs":["two"],"data":{"article":{"title":{"type":"Text","value":"Two"}}}}`,
		`{"id":"doc-3","type":"author","tags":[],"slugs":["jane"],"data":{"author":{"name":{"type":"Text","value":"Jane"}}}}`,
	}
	for _, d := range docs {
		if err := s.AddDocument(json.RawMessage(d)); err != nil {
			t.Fatalf("AddDocument: %v", err)
		}
	}
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	return s, ts
}

func get(t *testing.T, rawURL string) (int, []byte) {
	t.Helper()
	resp, err := http.Get(rawURL)
	if err != nil {
		t.Fatalf("GET %s: %v", rawURL, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, body
}

func search(t *testing.T, ts *httptest.Server, params url.Values) map[string]any {
	t.Helper()
	params.Set("ref", "fixture-master-ref")
	status, body := get(t, ts.URL+"/api/documents/search?"+params.Encode())
	if status != http.StatusOK {
		t.Fatalf("search status = %d: %s", status, body)
	}
	var envelope map[string]any
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return envelope
}

func TestBootstrap(t *testing.T) {
	s, ts := newFixture(t)

	status, body := get(t, ts.URL+"/api")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	var bootstrap struct {
		Refs []struct {
			Ref         string `json:"ref"`
			IsMasterRef bool   `json:"isMasterRef"`
		} `json:"refs"`
		Forms map[string]struct {
			Action string `json:"action"`
		} `json:"forms"`
	}
	if err := json.Unmarshal(body, &bootstrap); err != nil {
		t.Fatalf("decode bootstrap: %v", err)
	}
	if len(bootstrap.Refs) != 1 || !bootstrap.Refs[0].IsMasterRef {
		t.Errorf("refs = %+v", bootstrap.Refs)
	}
	if bootstrap.Forms["everything"].Action != ts.URL+"/api/documents/search" {
		t.Errorf("action = %s", bootstrap.Forms["everything"].Action)
	}
	if s.BootstrapHits() != 1 {
		t.Errorf("BootstrapHits = %d", s.BootstrapHits())
	}
}

func TestBootstrapMaxAge(t *testing.T) {
	s := NewServer()
	s.MaxAge = 300
	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Cache-Control"); got != "max-age=300" {
		t.Errorf("Cache-Control = %q", got)
	}
}

func TestSearchRequiresRef(t *testing.T) {
	_, ts := newFixture(t)

	status, _ := get(t, ts.URL+"/api/documents/search")
	if status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", status)
	}
}

func TestSearchFiltering(t *testing.T) {
	_, ts := newFixture(t)

	tests := []struct {
		name string
		q    string
		want int
	}{
		{"all", "", 3},
		{"by id", `[[:d = at(document.id, "doc-2")]]`, 1},
		{"by ids", `[[:d = any(document.id, ["doc-1","doc-3"])]]`, 2},
		{"by type", `[[:d = at(document.type, "article")]]`, 2},
		{"by tag", `[[:d = at(document.tags, ["featured"])]]`, 1},
		{"no match", `[[:d = at(document.id, "nope")]]`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := url.Values{}
			if tt.q != "" {
				params.Set("q", tt.q)
			}
			envelope := search(t, ts, params)
			results := envelope["results"].([]any)
			if len(results) != tt.want {
				t.Errorf("results = %d, want %d", len(results), tt.want)
			}
		})
	}
}

func TestSearchPagination(t *testing.T) {
	_, ts := newFixture(t)

	params := url.Values{}
	params.Set("pageSize", "2")
	envelope := search(t, ts, params)

	if envelope["total_pages"].(float64) != 2 {
		t.Errorf("total_pages = %v", envelope["total_pages"])
	}
	if envelope["next_page"] == nil {
		t.Error("next_page should be set on page 1")
	}
	if envelope["prev_page"] != nil {
		t.Error("prev_page should be null on page 1")
	}

	params.Set("page", "2")
	envelope = search(t, ts, params)
	if len(envelope["results"].([]any)) != 1 {
		t.Errorf("page 2 results = %d, want 1", len(envelope["results"].([]any)))
	}
	if envelope["next_page"] != nil {
		t.Error("next_page should be null on the last page")
	}
}

func TestAccessTokenRequired(t *testing.T) {
	s := NewServer()
	s.AccessToken = "sekrit"
	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	status, _ := get(t, ts.URL+"/api")
	if status != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", status)
	}
	status, _ = get(t, ts.URL+"/api?access_token=sekrit")
	if status != http.StatusOK {
		t.Errorf("status = %d, want 200", status)
	}
}
