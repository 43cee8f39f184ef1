package cli

import (
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	tmerrors "github.com/tidemarkhq/tidemark-go/pkg/errors"

	"github.com/tidemarkhq/tidemark-go/pkg/api"
	"github.com/tidemarkhq/tidemark-go/pkg/httputil"
)

// classify maps library errors onto coded errors at the CLI boundary,
// so wrapper scripts can match on a stable code instead of message
// text. Errors that already carry a code, and unrecognized errors, pass
// through unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if tmerrors.GetCode(err) != "" {
		return err
	}

	var statusErr *httputil.StatusError
	switch {
	case errors.As(err, &statusErr):
		switch statusErr.StatusCode {
		case http.StatusUnauthorized:
			return tmerrors.Wrap(tmerrors.ErrCodeUnauthorized, err, "repository rejected the access token")
		case http.StatusForbidden:
			return tmerrors.Wrap(tmerrors.ErrCodeForbidden, err, "access denied")
		case http.StatusNotFound:
			return tmerrors.Wrap(tmerrors.ErrCodeNotFound, err, "endpoint not found")
		default:
			return tmerrors.Wrap(tmerrors.ErrCodeNetwork, err, "repository returned status %d", statusErr.StatusCode)
		}
	case errors.Is(err, httputil.ErrNetwork):
		return tmerrors.Wrap(tmerrors.ErrCodeNetwork, err, "cannot reach repository")
	case errors.Is(err, api.ErrMissingMasterRef):
		return tmerrors.Wrap(tmerrors.ErrCodeInvalidRef, err, "repository bootstrap is unusable")
	case errors.Is(err, api.ErrUnknownField):
		return tmerrors.Wrap(tmerrors.ErrCodeInvalidField, err, "form does not declare that field")
	}
	return err
}

// classifyRunE decorates a cobra RunE so library errors leave the CLI
// carrying a machine-readable code.
func classifyRunE(fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return classify(fn(cmd, args))
	}
}
