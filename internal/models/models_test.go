package models

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dohr-michael/jarvis/internal/config"
)

func TestResolveAuth_DirectKey(t *testing.T) {
	auth, err := ResolveAuth(config.ProviderConfig{
		Driver: "openai",
		Auth:   config.AuthConfig{APIKey: "sk-direct"},
	})
	if err != nil {
		t.Fatalf("ResolveAuth: %v", err)
	}
	if auth.Kind != AuthAPIKey {
		t.Errorf("kind: got %v, want AuthAPIKey", auth.Kind)
	}
	if auth.Value != "sk-direct" {
		t.Errorf("value: got %q, want %q", auth.Value, "sk-direct")
	}
}

func TestResolveAuth_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "sk-from-env")
	auth, err := ResolveAuth(config.ProviderConfig{
		Driver: "openai",
		Auth:   config.AuthConfig{APIKey: "${TEST_OPENAI_KEY}"},
	})
	if err != nil {
		t.Fatalf("ResolveAuth: %v", err)
	}
	if auth.Value != "sk-from-env" {
		t.Errorf("value: got %q, want %q", auth.Value, "sk-from-env")
	}
}

func TestResolveAuth_DriverDefaultEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-default-env")
	auth, err := ResolveAuth(config.ProviderConfig{Driver: "openai"})
	if err != nil {
		t.Fatalf("ResolveAuth: %v", err)
	}
	if auth.Value != "sk-default-env" {
		t.Errorf("value: got %q, want %q", auth.Value, "sk-default-env")
	}
}

func TestResolveAuth_MissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := ResolveAuth(config.ProviderConfig{Driver: "openai"}); err == nil {
		t.Fatal("expected error for missing key")
	}
}

func TestHasAuth(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	if HasAuth(config.ProviderConfig{Driver: "openai"}) {
		t.Error("openai without credentials should not have auth")
	}
	if !HasAuth(config.ProviderConfig{Driver: "openai", Auth: config.AuthConfig{APIKey: "sk-x"}}) {
		t.Error("openai with direct key should have auth")
	}
	if !HasAuth(config.ProviderConfig{Driver: "ollama"}) {
		t.Error("ollama never requires credentials")
	}
}

func TestOrgTransport(t *testing.T) {
	var gotOrg string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotOrg = r.Header.Get("OpenAI-Organization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	transport := &orgTransport{inner: http.DefaultTransport, orgID: "org-123"}
	req, _ := http.NewRequest("POST", srv.URL, nil)
	resp, err := transport.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip: %v", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if gotOrg != "org-123" {
		t.Errorf("OpenAI-Organization: got %q, want %q", gotOrg, "org-123")
	}
}

func TestOllamaTransport_NonJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(200)
		w.Write([]byte("no available server"))
	}))
	defer srv.Close()

	transport := &ollamaTransport{inner: http.DefaultTransport, provider: "ollama"}
	req, _ := http.NewRequest("POST", srv.URL, nil)
	_, err := transport.RoundTrip(req)
	if err == nil {
		t.Fatal("expected error for non-JSON response")
	}

	var unavail *ErrModelUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrModelUnavailable, got %T: %v", err, err)
	}
	if !strings.Contains(unavail.Body, "no available server") {
		t.Errorf("body: got %q", unavail.Body)
	}
}

func TestRegistry_UnknownProvider(t *testing.T) {
	r := NewRegistry(config.ModelsConfig{
		Default:   "openai",
		Providers: map[string]config.ProviderConfig{"openai": {Driver: "openai"}},
	})

	if _, err := r.Get(t.Context(), "nope"); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestRegistry_DefaultAvailable(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	r := NewRegistry(config.ModelsConfig{
		Default:   "openai",
		Providers: map[string]config.ProviderConfig{"openai": {Driver: "openai"}},
	})
	if r.DefaultAvailable() {
		t.Error("expected default unavailable without credentials")
	}

	r = NewRegistry(config.ModelsConfig{
		Default: "openai",
		Providers: map[string]config.ProviderConfig{
			"openai": {Driver: "openai", Auth: config.AuthConfig{APIKey: "sk-x"}},
		},
	})
	if !r.DefaultAvailable() {
		t.Error("expected default available with direct key")
	}
}

func TestHandleError(t *testing.T) {
	if got := HandleError(nil); got != nil {
		t.Fatalf("nil: got %v", got)
	}

	cause := errors.New("401 Unauthorized")
	got := HandleError(cause)
	if !strings.HasPrefix(got.Error(), "authentication failed") {
		t.Errorf("auth: got %q", got)
	}
	if !errors.Is(got, cause) {
		t.Error("classified error must wrap the cause")
	}

	if got := HandleError(errors.New("429 Too Many Requests")); !strings.HasPrefix(got.Error(), "rate limited") {
		t.Errorf("rate limit: got %q", got)
	}
	if got := HandleError(errors.New("dial tcp: connection refused")); !strings.HasPrefix(got.Error(), "connection error") {
		t.Errorf("connection: got %q", got)
	}

	// Unrecognized errors pass through untouched.
	plain := errors.New("something else")
	if got := HandleError(plain); got != plain {
		t.Errorf("passthrough: got %v", got)
	}
}
