package httputil

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/tidemarkhq/tidemark-go/pkg/cache"
)

// DefaultResponseTTL is used for cached responses that carry no max-age
// hint.
const DefaultResponseTTL = 24 * time.Hour

// CachingTransport decorates a Transport with a byte-level response cache.
//
// The cache is keyed by URL. Successful responses are stored with a TTL
// taken from the response's max-age hint, falling back to
// [DefaultResponseTTL]; errors are never cached. Cache hits report a 200
// status and no max-age hint.
type CachingTransport struct {
	next  Transport
	store cache.Store
}

// NewCachingTransport wraps next with the given response store.
func NewCachingTransport(next Transport, store cache.Store) *CachingTransport {
	return &CachingTransport{next: next, store: store}
}

// Fetch serves the response for url from the store when present, and
// otherwise delegates to the underlying transport. Store errors are treated
// as misses; a broken cache degrades to direct fetching.
func (t *CachingTransport) Fetch(ctx context.Context, url string) (json.RawMessage, *ResponseMeta, error) {
	if data, hit, err := t.store.Get(ctx, url); err == nil && hit {
		return json.RawMessage(data), &ResponseMeta{StatusCode: http.StatusOK}, nil
	}

	body, meta, err := t.next.Fetch(ctx, url)
	if err != nil {
		return nil, nil, err
	}

	ttl := DefaultResponseTTL
	if meta.HasMaxAge {
		ttl = meta.MaxAge
	}
	_ = t.store.Set(ctx, url, body, ttl)
	return body, meta, nil
}

var _ Transport = (*CachingTransport)(nil)
