package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tidemarkhq/tidemark-go/pkg/httputil"
)

// OAuthConfig identifies a registered OAuth application.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// oauthClient posts the token exchange. The injected Transport is
// GET-only, so the exchange uses its own client.
var oauthClient = &http.Client{Timeout: 10 * time.Second}

// OAuthInitiateURL builds the authorization URL the user should be sent
// to, plus the random state value to verify on the redirect back.
func (c *Client) OAuthInitiateURL(ctx context.Context, cfg OAuthConfig) (authURL, state string, err error) {
	d, err := c.API(ctx)
	if err != nil {
		return "", "", err
	}
	if d.OAuthInitiate == "" {
		return "", "", fmt.Errorf("repository does not expose an oauth_initiate endpoint")
	}

	state = uuid.NewString()
	v := url.Values{}
	v.Set("client_id", cfg.ClientID)
	v.Set("redirect_uri", cfg.RedirectURI)
	v.Set("scope", "master+releases")
	v.Set("state", state)
	return d.OAuthInitiate + "?" + v.Encode(), state, nil
}

// OAuthExchangeToken trades an authorization code for an access token.
func (c *Client) OAuthExchangeToken(ctx context.Context, cfg OAuthConfig, code string) (string, error) {
	d, err := c.API(ctx)
	if err != nil {
		return "", err
	}
	if d.OAuthToken == "" {
		return "", fmt.Errorf("repository does not expose an oauth_token endpoint")
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", cfg.ClientID)
	form.Set("client_secret", cfg.ClientSecret)
	form.Set("redirect_uri", cfg.RedirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.OAuthToken, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := oauthClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", httputil.ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read token response: %v", httputil.ErrNetwork, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &httputil.StatusError{StatusCode: resp.StatusCode, URL: d.OAuthToken}
	}

	var token struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &token); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token")
	}
	return token.AccessToken, nil
}
