package cli

import (
	"context"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	version string // semantic version (e.g., "v1.2.3")
	commit  string // git commit SHA
	date    string // build timestamp
)

// SetVersion sets the version information displayed by --version,
// typically injected via ldflags at build time.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

const configKey ctxKey = 1

func withConfig(ctx context.Context, cfg Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

func configFromContext(ctx context.Context) Config {
	if cfg, ok := ctx.Value(configKey).(Config); ok {
		return cfg
	}
	return Config{}
}

// Execute runs the tidemark CLI and returns an error if any command
// fails. The logger and loaded config are attached to the command
// context for all subcommands.
func Execute(ctx context.Context) error {
	var (
		verbose    bool
		configFile string
	)

	root := &cobra.Command{
		Use:          "tidemark",
		Short:        "Tidemark queries structured content repositories",
		Long:         `Tidemark is a client for structured content repositories: it inspects refs and query forms, runs searches, renders documents, and mirrors content into a local archive.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}

			path := configFile
			if path == "" {
				var err error
				path, err = configPath()
				if err != nil {
					return err
				}
			}
			cfg, err := loadConfig(path)
			if err != nil {
				return err
			}

			cmdCtx := withLogger(cmd.Context(), newLogger(os.Stderr, level))
			cmd.SetContext(withConfig(cmdCtx, cfg))
			return nil
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("tidemark %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&configFile, "config", "", "config file (default $XDG_CONFIG_HOME/tidemark/config.toml)")

	root.AddCommand(newRefsCmd())
	root.AddCommand(newFormsCmd())
	root.AddCommand(newSearchCmd())
	root.AddCommand(newSyncCmd())
	root.AddCommand(newCacheCmd())
	root.AddCommand(newServeFixtureCmd())

	return root.ExecuteContext(ctx)
}
