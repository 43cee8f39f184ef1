// Package client is the entry point for talking to a content
// repository.
//
//	c := client.New("https://example.wroom.io/api",
//		client.WithAccessToken(token))
//	form, err := c.Everything(ctx)
//	if err != nil { ... }
//	form.Ref(api.Ref{Ref: ref})
//	resp, err := c.Submit(ctx, form)
//
// The bootstrap descriptor is fetched lazily on first use and cached
// with single-flight deduplication; concurrent callers share one fetch.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tidemarkhq/tidemark-go/pkg/api"
	"github.com/tidemarkhq/tidemark-go/pkg/cache"
	"github.com/tidemarkhq/tidemark-go/pkg/document"
	"github.com/tidemarkhq/tidemark-go/pkg/httputil"
	"github.com/tidemarkhq/tidemark-go/pkg/query"
)

// descriptorTTL applies when the bootstrap response carries no usable
// max-age directive.
const descriptorTTL = 5 * time.Second

// ErrNoForm is returned when a requested form is not declared by the
// repository.
var ErrNoForm = errors.New("form not declared by repository")

// Client talks to one repository. Safe for concurrent use; the
// descriptor cache is shared across goroutines.
type Client struct {
	url         string
	accessToken string
	transport   httputil.Transport
	cache       *cache.Memory
}

// Option configures a Client.
type Option func(*Client)

// WithAccessToken authenticates descriptor fetches and, via the
// injected hidden form field, every query.
func WithAccessToken(token string) Option {
	return func(c *Client) { c.accessToken = token }
}

// WithTransport replaces the default HTTP transport, e.g. with a
// [httputil.CachingTransport] or a test double.
func WithTransport(t httputil.Transport) Option {
	return func(c *Client) { c.transport = t }
}

// WithCache replaces the descriptor cache. Sharing one cache between
// clients pointed at the same repository shares descriptor fetches.
func WithCache(m *cache.Memory) Option {
	return func(c *Client) { c.cache = m }
}

// New builds a client for the repository's api endpoint, e.g.
// "https://example.wroom.io/api".
func New(apiURL string, opts ...Option) *Client {
	c := &Client{url: apiURL}
	for _, opt := range opts {
		opt(c)
	}
	if c.transport == nil {
		c.transport = httputil.NewHTTPTransport()
	}
	if c.cache == nil {
		c.cache = cache.NewMemory()
	}
	return c
}

// descriptorKey identifies the cached descriptor. Distinct tokens see
// distinct descriptors (forms differ by the injected token field).
func (c *Client) descriptorKey() string {
	if c.accessToken == "" {
		return c.url
	}
	return c.url + "#" + c.accessToken
}

func (c *Client) descriptorURL() string {
	if c.accessToken == "" {
		return c.url
	}
	sep := "?"
	if strings.Contains(c.url, "?") {
		sep = "&"
	}
	return c.url + sep + "access_token=" + url.QueryEscape(c.accessToken)
}

// API returns the repository's bootstrap descriptor, fetching it at
// most once per TTL window. The TTL follows the response's max-age
// directive when present, else a short default keeps the ref list
// fresh.
func (c *Client) API(ctx context.Context) (*api.Descriptor, error) {
	v, err := c.cache.GetOrSet(ctx, c.descriptorKey(), func(ctx context.Context) (any, time.Duration, error) {
		raw, meta, err := c.transport.Fetch(ctx, c.descriptorURL())
		if err != nil {
			return nil, 0, fmt.Errorf("fetch descriptor: %w", err)
		}
		d, err := api.ParseDescriptor(raw, c.accessToken)
		if err != nil {
			return nil, 0, err
		}
		ttl := descriptorTTL
		if meta != nil && meta.HasMaxAge && meta.MaxAge > 0 {
			ttl = meta.MaxAge
		}
		return d, ttl, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*api.Descriptor), nil
}

// Refresh drops the cached descriptor so the next call re-fetches.
func (c *Client) Refresh() {
	c.cache.Delete(c.descriptorKey())
}

// Form returns a search builder bound to the named form, with the
// form's field defaults pre-populated.
func (c *Client) Form(ctx context.Context, name string) (*api.SearchForm, error) {
	d, err := c.API(ctx)
	if err != nil {
		return nil, err
	}
	form, ok := d.Forms[name]
	if !ok {
		return nil, fmt.Errorf("form %q: %w", name, ErrNoForm)
	}
	return api.NewSearchForm(form), nil
}

// Everything returns a builder for the repository's default
// all-documents form.
func (c *Client) Everything(ctx context.Context) (*api.SearchForm, error) {
	return c.Form(ctx, "everything")
}

// Master returns the master ref.
func (c *Client) Master(ctx context.Context) (api.Ref, error) {
	d, err := c.API(ctx)
	if err != nil {
		return api.Ref{}, err
	}
	return d.Master, nil
}

// Submit executes the search request accumulated in form and parses
// the result page. Transport errors surface unmodified; there is no
// retry at this layer.
func (c *Client) Submit(ctx context.Context, form *api.SearchForm) (*api.Response, error) {
	raw, _, err := c.transport.Fetch(ctx, form.URL())
	if err != nil {
		return nil, fmt.Errorf("submit search: %w", err)
	}
	return api.ParseResponse(raw)
}

// queryMaster runs predicates against the master ref on the everything
// form. The common path behind the convenience lookups below.
func (c *Client) queryMaster(ctx context.Context, preds ...query.Predicate) (*api.Response, error) {
	d, err := c.API(ctx)
	if err != nil {
		return nil, err
	}
	form, ok := d.Forms["everything"]
	if !ok {
		return nil, fmt.Errorf("form %q: %w", "everything", ErrNoForm)
	}
	sf := api.NewSearchForm(form)
	if err := sf.Ref(d.Master); err != nil {
		return nil, err
	}
	if err := sf.QueryPredicates(preds...); err != nil {
		return nil, err
	}
	return c.Submit(ctx, sf)
}

// QueryByID fetches the single document with the given id, or nil when
// it does not exist.
func (c *Client) QueryByID(ctx context.Context, id string) (*document.Document, error) {
	resp, err := c.queryMaster(ctx, query.At("document.id", id))
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}
	return resp.Results[0], nil
}

// QueryByIDs fetches the documents with the given ids.
func (c *Client) QueryByIDs(ctx context.Context, ids []string) (*api.Response, error) {
	return c.queryMaster(ctx, query.Any("document.id", ids))
}

// QueryByType fetches documents of the given custom type.
func (c *Client) QueryByType(ctx context.Context, docType string) (*api.Response, error) {
	return c.queryMaster(ctx, query.At("document.type", docType))
}

// QueryByTag fetches documents carrying all of the given tags.
func (c *Client) QueryByTag(ctx context.Context, tags ...string) (*api.Response, error) {
	return c.queryMaster(ctx, query.Pred("at", "document.tags", tags))
}

// Bookmark resolves a bookmark name to its document, or nil when the
// bookmark is unset.
func (c *Client) Bookmark(ctx context.Context, name string) (*document.Document, error) {
	d, err := c.API(ctx)
	if err != nil {
		return nil, err
	}
	id, ok := d.Bookmarks[name]
	if !ok || id == "" {
		return nil, nil
	}
	return c.QueryByID(ctx, id)
}
