package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tidemarkhq/tidemark-go/pkg/apitest"
)

// newServeFixtureCmd creates the "serve-fixture" command, running a
// local fixture repository for development and demos.
func newServeFixtureCmd() *cobra.Command {
	var (
		addr        string
		docsFile    string
		accessToken string
		maxAge      int
	)

	cmd := &cobra.Command{
		Use:   "serve-fixture",
		Short: "Serve a local fixture repository",
		Long:  `Serve-fixture runs an in-process repository speaking the bootstrap and search protocol, loading documents from a JSON-lines file (one document row per line). Point the other commands at it with --repository http://<addr>/api.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			fixture := apitest.NewServer()
			fixture.AccessToken = accessToken
			fixture.MaxAge = maxAge

			count := 0
			if docsFile != "" {
				f, err := os.Open(docsFile)
				if err != nil {
					return fmt.Errorf("open documents file: %w", err)
				}
				defer f.Close()

				scanner := bufio.NewScanner(f)
				scanner.Buffer(make([]byte, 1024*1024), 16*1024*1024)
				line := 0
				for scanner.Scan() {
					line++
					row := bytes.TrimSpace(scanner.Bytes())
					if len(row) == 0 {
						continue
					}
					// The scanner reuses its buffer; the fixture keeps the row.
					row = append([]byte(nil), row...)
					if err := fixture.AddDocument(json.RawMessage(row)); err != nil {
						return fmt.Errorf("line %d: %w", line, err)
					}
					count++
				}
				if err := scanner.Err(); err != nil {
					return fmt.Errorf("read documents file: %w", err)
				}
			}

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", addr, err)
			}

			srv := &http.Server{Handler: fixture.Router()}
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(shutdownCtx)
			}()

			printSuccess("Fixture repository serving %d documents", count)
			printDetail("%s http://%s/api", iconArrow, ln.Addr())
			logger.Debug("fixture started", "addr", ln.Addr().String())

			if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:7357", "listen address")
	cmd.Flags().StringVar(&docsFile, "documents", "", "JSON-lines file of document rows to serve")
	cmd.Flags().StringVar(&accessToken, "access-token", "", "require this access token on every request")
	cmd.Flags().IntVar(&maxAge, "max-age", 0, "Cache-Control max-age on the bootstrap response")
	return cmd
}
