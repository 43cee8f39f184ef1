package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

// newFormsCmd creates the "forms" command, listing the repository's
// query forms and their declared fields.
func newFormsCmd() *cobra.Command {
	var flags repoFlags

	cmd := &cobra.Command{
		Use:   "forms",
		Short: "List the repository's query forms",
		RunE: classifyRunE(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			c, cleanup, err := newRepoClient(ctx, configFromContext(ctx), flags)
			if err != nil {
				return err
			}
			defer cleanup()

			d, err := c.API(ctx)
			if err != nil {
				return err
			}

			ids := make([]string, 0, len(d.Forms))
			for id := range d.Forms {
				ids = append(ids, id)
			}
			sort.Strings(ids)

			for _, id := range ids {
				form := d.Forms[id]
				fmt.Println(StyleTitle.Render(id) + " " + StyleDim.Render(form.Name))
				printDetail("%s %s", form.Method, form.Action)

				fields := make([]string, 0, len(form.Fields))
				for name := range form.Fields {
					fields = append(fields, name)
				}
				sort.Strings(fields)
				for _, name := range fields {
					spec := form.Fields[name]
					var notes []string
					if spec.Multiple {
						notes = append(notes, "multiple")
					}
					if spec.Default != "" {
						notes = append(notes, fmt.Sprintf("default %q", spec.Default))
					}
					line := fmt.Sprintf("%-14s %s", name, spec.Type)
					if len(notes) > 0 {
						line += " (" + strings.Join(notes, ", ") + ")"
					}
					printDetail("%s", line)
				}
			}
			return nil
		}),
	}

	flags.register(cmd)
	return cmd
}
