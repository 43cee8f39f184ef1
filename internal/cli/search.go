package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tidemarkhq/tidemark-go/pkg/api"
	"github.com/tidemarkhq/tidemark-go/pkg/render"
)

// newSearchCmd creates the "search" command.
func newSearchCmd() *cobra.Command {
	var (
		flags     repoFlags
		formName  string
		refName   string
		rawQuery  string
		page      int
		pageSize  int
		orderings string
		output    string
		browse    bool
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Run a search against the repository",
		Example: `  tidemark search -r https://example.wroom.io/api
  tidemark search -q '[[:d = at(document.type, "article")]]' --output html
  tidemark search --ref "Spring release" --browse`,
		RunE: classifyRunE(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			if output != "json" && output != "text" && output != "html" {
				return fmt.Errorf("unknown output format %q (want json, text or html)", output)
			}

			c, cleanup, err := newRepoClient(ctx, configFromContext(ctx), flags)
			if err != nil {
				return err
			}
			defer cleanup()

			d, err := c.API(ctx)
			if err != nil {
				return err
			}

			form, err := c.Form(ctx, formName)
			if err != nil {
				return err
			}

			ref := d.Master
			if refName != "" {
				if labeled, ok := d.RefByLabel(refName); ok {
					ref = labeled
				} else {
					ref = api.Ref{Ref: refName}
				}
			}
			if err := form.Ref(ref); err != nil {
				return err
			}
			if rawQuery != "" {
				if err := form.Query(rawQuery); err != nil {
					return err
				}
			}
			if page > 0 {
				if err := form.Page(page); err != nil {
					return err
				}
			}
			if pageSize > 0 {
				if err := form.PageSize(pageSize); err != nil {
					return err
				}
			}
			if orderings != "" {
				if err := form.Orderings(orderings); err != nil {
					return err
				}
			}
			logger.Debug("submitting search", "url", form.URL())

			track := newProgress(logger)
			spinner := newSpinner(ctx, "Searching...")
			spinner.Start()
			resp, err := c.Submit(ctx, form)
			spinner.Stop()
			if err != nil {
				return err
			}
			track.done(fmt.Sprintf("Fetched %d of %d documents", resp.ResultsSize, resp.TotalResultsSize))

			if browse {
				return browseResults(resp)
			}
			return writeResults(resp, output)
		}),
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&formName, "form", "everything", "query form to use")
	cmd.Flags().StringVar(&refName, "ref", "", "ref label or id (default: master)")
	cmd.Flags().StringVarP(&rawQuery, "query", "q", "", "raw query string")
	cmd.Flags().IntVar(&page, "page", 0, "result page")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "results per page")
	cmd.Flags().StringVar(&orderings, "orderings", "", `result ordering, e.g. "[my.article.date desc]"`)
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: json, text or html")
	cmd.Flags().BoolVar(&browse, "browse", false, "browse results interactively")
	return cmd
}

func writeResults(resp *api.Response, output string) error {
	switch output {
	case "json":
		rows := make([]json.RawMessage, len(resp.Results))
		for i, doc := range resp.Results {
			rows[i] = doc.Raw
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"page":               resp.Page,
			"total_pages":        resp.TotalPages,
			"total_results_size": resp.TotalResultsSize,
			"results":            rows,
		})

	case "html":
		for _, doc := range resp.Results {
			fmt.Println(render.AsHTML(doc, nil))
		}
		return nil

	default: // text
		for _, doc := range resp.Results {
			fmt.Println(StyleTitle.Render(doc.ID) + " " + StyleDim.Render(doc.Type+" · "+doc.Slug()))
			fmt.Print(render.AsText(doc))
			fmt.Println()
		}
		printDetail("page %d of %d · %d documents total", resp.Page, resp.TotalPages, resp.TotalResultsSize)
		return nil
	}
}
