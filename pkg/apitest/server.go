// Package apitest provides an in-process fixture repository for tests
// and local development.
//
// The server speaks just enough of the repository protocol for the
// client package: a bootstrap endpoint and a search endpoint with
// naive predicate filtering and pagination. Point a [client.Client] at
// Server.URL + "/api" (or mount [Server.Router] on httptest).
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tidemarkhq/tidemark-go/pkg/document"
)

// Server is a fixture repository. Configure it before serving; the
// document list may also grow while the server runs.
type Server struct {
	// MasterRef is the ref id the bootstrap advertises as master.
	MasterRef string
	// AccessToken, when set, is required as an access_token query
	// parameter on every request.
	AccessToken string
	// MaxAge, when positive, is emitted as a Cache-Control max-age on
	// the bootstrap response.
	MaxAge int

	mu            sync.Mutex
	docs          []*document.Document
	bootstrapHits int
	searchHits    int
}

// NewServer returns a fixture server with a master ref and no
// documents.
func NewServer() *Server {
	return &Server{MasterRef: "fixture-master-ref"}
}

// AddDocument registers a raw document row with the fixture. The row
// must parse; id, type and tags drive query filtering.
func (s *Server) AddDocument(raw json.RawMessage) error {
	doc, err := document.Parse(raw)
	if err != nil {
		return fmt.Errorf("fixture document: %w", err)
	}
	s.mu.Lock()
	s.docs = append(s.docs, doc)
	s.mu.Unlock()
	return nil
}

// BootstrapHits reports how many times the bootstrap endpoint was
// served. Useful for asserting descriptor-cache behavior.
func (s *Server) BootstrapHits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bootstrapHits
}

// SearchHits reports how many search requests were served.
func (s *Server) SearchHits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searchHits
}

// Router returns the fixture's HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/api", s.handleBootstrap)
	r.Get("/api/documents/search", s.handleSearch)
	return r
}

func (s *Server) authorized(r *http.Request) bool {
	return s.AccessToken == "" || r.URL.Query().Get("access_token") == s.AccessToken
}

func (s *Server) handleBootstrap(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		http.Error(w, `{"error":"invalid access token"}`, http.StatusUnauthorized)
		return
	}
	s.mu.Lock()
	s.bootstrapHits++
	s.mu.Unlock()

	action := "http://" + r.Host + "/api/documents/search"
	bootstrap := map[string]any{
		"refs": []map[string]any{
			{"id": "master", "ref": s.MasterRef, "label": "Master", "isMasterRef": true},
		},
		"forms": map[string]any{
			"everything": map[string]any{
				"name":        "All documents",
				"form_method": "GET",
				"rel":         "collection",
				"enctype":     "application/x-www-form-urlencoded",
				"action":      action,
				"fields": map[string]any{
					"ref":       map[string]any{"type": "String"},
					"q":         map[string]any{"type": "String", "multiple": true},
					"page":      map[string]any{"type": "Integer", "default": "1"},
					"pageSize":  map[string]any{"type": "Integer", "default": "20"},
					"orderings": map[string]any{"type": "String"},
				},
			},
		},
		"types":     map[string]string{},
		"tags":      []string{},
		"bookmarks": map[string]string{},
	}

	w.Header().Set("Content-Type", "application/json")
	if s.MaxAge > 0 {
		w.Header().Set("Cache-Control", "max-age="+strconv.Itoa(s.MaxAge))
	}
	json.NewEncoder(w).Encode(bootstrap)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		http.Error(w, `{"error":"invalid access token"}`, http.StatusUnauthorized)
		return
	}
	if r.URL.Query().Get("ref") == "" {
		http.Error(w, `{"error":"ref is required"}`, http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.searchHits++
	docs := make([]*document.Document, len(s.docs))
	copy(docs, s.docs)
	s.mu.Unlock()

	var matched []*document.Document
	queries := r.URL.Query()["q"]
	for _, doc := range docs {
		if matchesAll(doc, queries) {
			matched = append(matched, doc)
		}
	}

	page := intParam(r, "page", 1)
	pageSize := intParam(r, "pageSize", 20)
	totalPages := (len(matched) + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}

	start := (page - 1) * pageSize
	if start > len(matched) {
		start = len(matched)
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	pageDocs := matched[start:end]

	results := make([]json.RawMessage, len(pageDocs))
	for i, doc := range pageDocs {
		results[i] = doc.Raw
	}

	envelope := map[string]any{
		"page":               page,
		"results_per_page":   pageSize,
		"results_size":       len(pageDocs),
		"total_results_size": len(matched),
		"total_pages":        totalPages,
		"next_page":          pageURL(r, page+1, page < totalPages),
		"prev_page":          pageURL(r, page-1, page > 1),
		"results":            results,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(envelope)
}

func pageURL(r *http.Request, page int, exists bool) any {
	if !exists {
		return nil
	}
	q := r.URL.Query()
	q.Set("page", strconv.Itoa(page))
	return "http://" + r.Host + r.URL.Path + "?" + q.Encode()
}

func intParam(r *http.Request, name string, fallback int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(name)); err == nil && v > 0 {
		return v
	}
	return fallback
}

// Predicate shapes the fixture understands. Anything else matches every
// document, which keeps fixtures forgiving.
var (
	atIDRe   = regexp.MustCompile(`at\(document\.id, "([^"]+)"\)`)
	anyIDRe  = regexp.MustCompile(`any\(document\.id, \[([^\]]*)\]\)`)
	atTypeRe = regexp.MustCompile(`at\(document\.type, "([^"]+)"\)`)
	atTagsRe = regexp.MustCompile(`at\(document\.tags, \[([^\]]*)\]\)`)
	quotedRe = regexp.MustCompile(`"([^"]*)"`)
)

func matchesAll(doc *document.Document, queries []string) bool {
	for _, q := range queries {
		if !matches(doc, q) {
			return false
		}
	}
	return true
}

func matches(doc *document.Document, q string) bool {
	if m := atIDRe.FindStringSubmatch(q); m != nil {
		return doc.ID == m[1]
	}
	if m := anyIDRe.FindStringSubmatch(q); m != nil {
		for _, id := range quotedList(m[1]) {
			if doc.ID == id {
				return true
			}
		}
		return false
	}
	if m := atTypeRe.FindStringSubmatch(q); m != nil {
		return doc.Type == m[1]
	}
	if m := atTagsRe.FindStringSubmatch(q); m != nil {
		for _, tag := range quotedList(m[1]) {
			if !hasTag(doc, tag) {
				return false
			}
		}
		return true
	}
	return true
}

func quotedList(s string) []string {
	var out []string
	for _, m := range quotedRe.FindAllStringSubmatch(s, -1) {
		out = append(out, m[1])
	}
	return out
}

func hasTag(doc *document.Document, tag string) bool {
	for _, t := range doc.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
