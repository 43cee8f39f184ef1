package archive

import (
	"context"
	"time"

	"github.com/tidemarkhq/tidemark-go/pkg/api"
	"github.com/tidemarkhq/tidemark-go/pkg/client"
	"github.com/tidemarkhq/tidemark-go/pkg/document"
	"github.com/tidemarkhq/tidemark-go/pkg/httputil"
	"github.com/tidemarkhq/tidemark-go/pkg/query"
)

// Putter stores one document. *Archive implements it; tests substitute
// an in-memory sink.
type Putter interface {
	Put(ctx context.Context, doc *document.Document) error
}

// SyncOptions tune a sync run. The zero value syncs everything at the
// master ref.
type SyncOptions struct {
	// PageSize per search request; defaults to 100.
	PageSize int
	// Predicates narrow the synced set; empty means all documents.
	Predicates []query.Predicate
	// RetryAttempts per page fetch; defaults to 3. The client itself
	// never retries, so transient failures are absorbed here.
	RetryAttempts int
	// RetryDelay before the first retry; defaults to 500ms.
	RetryDelay time.Duration
	// Progress, when set, is called after each stored document.
	Progress func(done, total int)
}

func (o *SyncOptions) defaults() {
	if o.PageSize <= 0 {
		o.PageSize = 100
	}
	if o.RetryAttempts <= 0 {
		o.RetryAttempts = 3
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 500 * time.Millisecond
	}
}

// Sync copies every matching document at the master ref into dst,
// walking the search pages in order. Returns the number of documents
// stored.
func Sync(ctx context.Context, c *client.Client, dst Putter, opts SyncOptions) (int, error) {
	opts.defaults()

	master, err := c.Master(ctx)
	if err != nil {
		return 0, err
	}

	stored := 0
	for page := 1; ; page++ {
		form, err := c.Everything(ctx)
		if err != nil {
			return stored, err
		}
		if err := form.Ref(master); err != nil {
			return stored, err
		}
		if len(opts.Predicates) > 0 {
			if err := form.QueryPredicates(opts.Predicates...); err != nil {
				return stored, err
			}
		}
		if err := form.Page(page); err != nil {
			return stored, err
		}
		if err := form.PageSize(opts.PageSize); err != nil {
			return stored, err
		}

		resp, err := fetchPage(ctx, c, form, opts)
		if err != nil {
			return stored, err
		}
		for _, doc := range resp.Results {
			if err := dst.Put(ctx, doc); err != nil {
				return stored, err
			}
			stored++
			if opts.Progress != nil {
				opts.Progress(stored, resp.TotalResultsSize)
			}
		}
		if page >= resp.TotalPages {
			return stored, nil
		}
	}
}

func fetchPage(ctx context.Context, c *client.Client, form *api.SearchForm, opts SyncOptions) (*api.Response, error) {
	var resp *api.Response
	err := httputil.Retry(ctx, opts.RetryAttempts, opts.RetryDelay, func() error {
		var err error
		resp, err = c.Submit(ctx, form)
		return err
	})
	return resp, err
}
