package cli

import (
	"time"

	"github.com/spf13/cobra"
)

// newRefsCmd creates the "refs" command, listing the repository's
// available refs.
func newRefsCmd() *cobra.Command {
	var flags repoFlags

	cmd := &cobra.Command{
		Use:   "refs",
		Short: "List the repository's refs",
		RunE: classifyRunE(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			c, cleanup, err := newRepoClient(ctx, configFromContext(ctx), flags)
			if err != nil {
				return err
			}
			defer cleanup()

			logger.Debug("fetching bootstrap descriptor")
			d, err := c.API(ctx)
			if err != nil {
				return err
			}

			for _, ref := range d.Refs {
				label := ref.Label
				if ref.IsMaster {
					label += " " + styleMaster.Render("(master)")
				}
				printKeyValue(label, ref.Ref)
				if ref.ScheduledAt != nil {
					printDetail("scheduled %s", ref.ScheduledAt.Format(time.RFC3339))
				}
			}
			return nil
		}),
	}

	flags.register(cmd)
	return cmd
}
