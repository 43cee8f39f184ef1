package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/tidemarkhq/tidemark-go/pkg/apitest"
	"github.com/tidemarkhq/tidemark-go/pkg/query"
)

func newFixtureClient(t *testing.T, opts ...Option) (*apitest.Server, *Client) {
	t.Helper()
	fixture := apitest.NewServer()
	docs := []string{
		`{"id":"doc-1","type":"article","tags":["featured"],"slugs":["one"],"data":{"article":{"title":{"type":"Text","value":"One"}}}}`,
		`{"id":"doc-2","type":"article","tags":[],"slugs":["two"],"data":{"article":{"title":{"type":"Text","value":"Two"}}}}`,
		`{"id":"doc-3","type":"author","tags":[],"slugs":["jane"],"data":{"author":{"name":{"type":"Text","value":"Jane"}}}}`,
	}
	for _, d := range docs {
		if err := fixture.AddDocument(json.RawMessage(d)); err != nil {
			t.Fatalf("AddDocument: %v", err)
		}
	}
	ts := httptest.NewServer(fixture.Router())
	t.Cleanup(ts.Close)
	return fixture, New(ts.URL+"/api", opts...)
}

func TestAPIDescriptorCached(t *testing.T) {
	fixture, c := newFixtureClient(t)
	ctx := context.Background()

	d1, err := c.API(ctx)
	if err != nil {
		t.Fatalf("API: %v", err)
	}
	if d1.Master.Ref != "fixture-master-ref" {
		t.Errorf("Master.Ref = %q", d1.Master.Ref)
	}

	// Second call inside the TTL window hits the cache.
	if _, err := c.API(ctx); err != nil {
		t.Fatalf("API: %v", err)
	}
	if hits := fixture.BootstrapHits(); hits != 1 {
		t.Errorf("BootstrapHits = %d, want 1", hits)
	}

	c.Refresh()
	if _, err := c.API(ctx); err != nil {
		t.Fatalf("API after Refresh: %v", err)
	}
	if hits := fixture.BootstrapHits(); hits != 2 {
		t.Errorf("BootstrapHits after Refresh = %d, want 2", hits)
	}
}

func TestAPIConcurrentSingleFetch(t *testing.T) {
	fixture, c := newFixtureClient(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.API(ctx); err != nil {
				t.Errorf("API: %v", err)
			}
		}()
	}
	wg.Wait()

	if hits := fixture.BootstrapHits(); hits != 1 {
		t.Errorf("BootstrapHits = %d, want 1", hits)
	}
}

func TestSubmitSearch(t *testing.T) {
	_, c := newFixtureClient(t)
	ctx := context.Background()

	form, err := c.Everything(ctx)
	if err != nil {
		t.Fatalf("Everything: %v", err)
	}
	master, err := c.Master(ctx)
	if err != nil {
		t.Fatalf("Master: %v", err)
	}
	if err := form.Ref(master); err != nil {
		t.Fatalf("Ref: %v", err)
	}
	if err := form.QueryPredicates(query.At("document.type", "article")); err != nil {
		t.Fatalf("QueryPredicates: %v", err)
	}

	resp, err := c.Submit(ctx, form)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("Results = %d, want 2", len(resp.Results))
	}
	if title, ok := resp.Results[0].GetText("article.title"); !ok || title != "One" {
		t.Errorf("title = (%q, %v)", title, ok)
	}
}

func TestFormUnknown(t *testing.T) {
	_, c := newFixtureClient(t)

	_, err := c.Form(context.Background(), "nope")
	if !errors.Is(err, ErrNoForm) {
		t.Errorf("Form(nope) = %v, want ErrNoForm", err)
	}
}

func TestQueryByID(t *testing.T) {
	_, c := newFixtureClient(t)
	ctx := context.Background()

	doc, err := c.QueryByID(ctx, "doc-2")
	if err != nil {
		t.Fatalf("QueryByID: %v", err)
	}
	if doc == nil || doc.ID != "doc-2" {
		t.Errorf("doc = %+v", doc)
	}

	missing, err := c.QueryByID(ctx, "nope")
	if err != nil {
		t.Fatalf("QueryByID(nope): %v", err)
	}
	if missing != nil {
		t.Errorf("missing = %+v, want nil", missing)
	}
}

func TestQueryByIDs(t *testing.T) {
	_, c := newFixtureClient(t)

	resp, err := c.QueryByIDs(context.Background(), []string{"doc-1", "doc-3"})
	if err != nil {
		t.Fatalf("QueryByIDs: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Errorf("Results = %d, want 2", len(resp.Results))
	}
}

func TestQueryByTypeAndTag(t *testing.T) {
	_, c := newFixtureClient(t)
	ctx := context.Background()

	resp, err := c.QueryByType(ctx, "author")
	if err != nil {
		t.Fatalf("QueryByType: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].ID != "doc-3" {
		t.Errorf("QueryByType results = %+v", resp.Results)
	}

	resp, err = c.QueryByTag(ctx, "featured")
	if err != nil {
		t.Fatalf("QueryByTag: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].ID != "doc-1" {
		t.Errorf("QueryByTag results = %+v", resp.Results)
	}
}

func TestAccessTokenFlow(t *testing.T) {
	fixture := apitest.NewServer()
	fixture.AccessToken = "sekrit"
	if err := fixture.AddDocument(json.RawMessage(
		`{"id":"doc-1","type":"article","tags":[],"slugs":["one"],"data":{"article":{"title":{"type":"Text","value":"One"}}}}`,
	)); err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(fixture.Router())
	defer ts.Close()
	ctx := context.Background()

	// Without a token the bootstrap is rejected.
	if _, err := New(ts.URL + "/api").API(ctx); err == nil {
		t.Error("API without token should fail")
	}

	// With a token, the descriptor fetch authenticates and the injected
	// hidden field authenticates the search.
	c := New(ts.URL+"/api", WithAccessToken("sekrit"))
	doc, err := c.QueryByID(ctx, "doc-1")
	if err != nil {
		t.Fatalf("QueryByID: %v", err)
	}
	if doc == nil || doc.ID != "doc-1" {
		t.Errorf("doc = %+v", doc)
	}
}
