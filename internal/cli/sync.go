package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tidemarkhq/tidemark-go/pkg/archive"
	"github.com/tidemarkhq/tidemark-go/pkg/query"
)

// newSyncCmd creates the "sync" command, mirroring repository documents
// into the mongo archive.
func newSyncCmd() *cobra.Command {
	var (
		flags    repoFlags
		docType  string
		pageSize int
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Mirror repository documents into the archive",
		Long:  `Sync copies every document at the master ref into the configured MongoDB archive, upserting by document id. Use --type to mirror a single document type.`,
		RunE: classifyRunE(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			cfg := configFromContext(ctx)

			c, cleanup, err := newRepoClient(ctx, cfg, flags)
			if err != nil {
				return err
			}
			defer cleanup()

			arcCfg := cfg.Archive.withDefaults()
			logger.Debug("opening archive", "uri", arcCfg.URI, "db", arcCfg.Database, "collection", arcCfg.Collection)
			arc, err := archive.Open(ctx, arcCfg.URI, arcCfg.Database, arcCfg.Collection)
			if err != nil {
				return err
			}
			defer arc.Close(ctx)

			opts := archive.SyncOptions{PageSize: pageSize}
			if docType != "" {
				opts.Predicates = []query.Predicate{query.At("document.type", docType)}
			}

			track := newProgress(logger)
			spinner := newSpinner(ctx, "Syncing documents...")
			spinner.Start()
			n, err := archive.Sync(ctx, c, arc, opts)
			spinner.Stop()
			if err != nil {
				printError("Sync failed after %d documents", n)
				return err
			}
			track.done(fmt.Sprintf("Synced %d documents", n))

			total, err := arc.Count(ctx)
			if err != nil {
				return err
			}
			printSuccess("Archive holds %d documents", total)
			printDetail("%s/%s on %s", arcCfg.Database, arcCfg.Collection, arcCfg.URI)
			return nil
		}),
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&docType, "type", "", "mirror only documents of this type")
	cmd.Flags().IntVar(&pageSize, "page-size", 100, "documents per search request")
	return cmd
}
