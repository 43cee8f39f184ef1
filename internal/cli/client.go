package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tidemarkhq/tidemark-go/pkg/cache"
	"github.com/tidemarkhq/tidemark-go/pkg/client"
	"github.com/tidemarkhq/tidemark-go/pkg/httputil"
)

// repoFlags are the repository flags shared by every command that talks
// to a repository.
type repoFlags struct {
	repo   string
	token  string
	cached bool
}

func (f *repoFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.repo, "repository", "r", "", "repository api URL (e.g. https://example.wroom.io/api)")
	cmd.Flags().StringVarP(&f.token, "access-token", "t", "", "repository access token")
	cmd.Flags().BoolVar(&f.cached, "cached", false, "cache HTTP responses between runs")
}

// newRepoClient builds a client from flags and config, flags winning.
// The returned cleanup closes the response cache store, if any.
func newRepoClient(ctx context.Context, cfg Config, flags repoFlags) (*client.Client, func(), error) {
	repo := flags.repo
	if repo == "" {
		repo = cfg.Repository.URL
	}
	if repo == "" {
		return nil, nil, fmt.Errorf("no repository configured: pass --repository or set repository.url in the config file")
	}
	token := flags.token
	if token == "" {
		token = cfg.Repository.AccessToken
	}

	cleanup := func() {}
	var transport httputil.Transport = httputil.NewHTTPTransport()
	if flags.cached {
		store, err := newResponseStore(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		transport = httputil.NewCachingTransport(transport, store)
		cleanup = func() { store.Close() }
	}

	opts := []client.Option{client.WithTransport(transport)}
	if token != "" {
		opts = append(opts, client.WithAccessToken(token))
	}
	return client.New(repo, opts...), cleanup, nil
}

// newResponseStore picks the response cache backend: redis when
// configured, the local filesystem otherwise.
func newResponseStore(ctx context.Context, cfg Config) (cache.Store, error) {
	if cfg.Cache.Redis != "" {
		store, err := cache.NewRedisStore(ctx, cfg.Cache.Redis)
		if err != nil {
			return nil, fmt.Errorf("connect redis cache: %w", err)
		}
		return store, nil
	}
	dir, err := cacheDir(cfg)
	if err != nil {
		return nil, err
	}
	store, err := cache.NewFileStore(dir)
	if err != nil {
		return nil, fmt.Errorf("open response cache: %w", err)
	}
	return store, nil
}
