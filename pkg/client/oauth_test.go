package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func newOAuthServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var ts *httptest.Server

	mux.HandleFunc("/api", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{
			"refs": [{"id": "master", "ref": "r", "label": "Master", "isMasterRef": true}],
			"forms": {},
			"oauth_initiate": %q,
			"oauth_token": %q
		}`, ts.URL+"/auth", ts.URL+"/auth/token")
	})
	mux.HandleFunc("/auth/token", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method", http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "form", http.StatusBadRequest)
			return
		}
		if r.PostForm.Get("grant_type") != "authorization_code" || r.PostForm.Get("code") != "the-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token": "granted-token"}`)
	})

	ts = httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func TestOAuthInitiateURL(t *testing.T) {
	ts := newOAuthServer(t)
	c := New(ts.URL + "/api")

	cfg := OAuthConfig{ClientID: "app-id", RedirectURI: "https://app.example/cb"}
	authURL, state, err := c.OAuthInitiateURL(context.Background(), cfg)
	if err != nil {
		t.Fatalf("OAuthInitiateURL: %v", err)
	}
	if state == "" {
		t.Error("state should be non-empty")
	}

	parsed, err := url.Parse(authURL)
	if err != nil {
		t.Fatalf("parse auth URL: %v", err)
	}
	if !strings.HasPrefix(authURL, ts.URL+"/auth?") {
		t.Errorf("authURL = %s", authURL)
	}
	q := parsed.Query()
	if q.Get("client_id") != "app-id" || q.Get("redirect_uri") != "https://app.example/cb" {
		t.Errorf("query = %v", q)
	}
	if q.Get("state") != state {
		t.Errorf("state param = %q, want %q", q.Get("state"), state)
	}

	// Each initiation gets a fresh state value.
	_, state2, err := c.OAuthInitiateURL(context.Background(), cfg)
	if err != nil {
		t.Fatalf("OAuthInitiateURL: %v", err)
	}
	if state2 == state {
		t.Error("state values should not repeat")
	}
}

func TestOAuthExchangeToken(t *testing.T) {
	ts := newOAuthServer(t)
	c := New(ts.URL + "/api")
	cfg := OAuthConfig{ClientID: "app-id", ClientSecret: "app-secret", RedirectURI: "https://app.example/cb"}

	token, err := c.OAuthExchangeToken(context.Background(), cfg, "the-code")
	if err != nil {
		t.Fatalf("OAuthExchangeToken: %v", err)
	}
	if token != "granted-token" {
		t.Errorf("token = %q", token)
	}

	if _, err := c.OAuthExchangeToken(context.Background(), cfg, "wrong-code"); err == nil {
		t.Error("exchange with a bad code should fail")
	}
}
