package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/careguide/careguide/server/internal/catalog"
	"github.com/careguide/careguide/server/internal/config"
	"github.com/careguide/careguide/server/internal/lookup"
)

type envelope struct {
	Source  string            `json:"source"`
	Results []json.RawMessage `json:"results"`
}

// unsetEnv clears key for the duration of the test.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func runQuery(t *testing.T, args ...string) envelope {
	t.Helper()
	out, err := run(t, append([]string{"query"}, args...)...)
	if err != nil {
		t.Fatalf("query %v: %v", args, err)
	}
	var env envelope
	if err := json.Unmarshal([]byte(out), &env); err != nil {
		t.Fatalf("decode output: %v (output: %s)", err, out)
	}
	return env
}

func TestQuery_SampleData(t *testing.T) {
	unsetEnv(t, "GUIDELINES_API_BASE")
	cat, err := catalog.Builtin()
	if err != nil {
		t.Fatal(err)
	}

	env := runQuery(t)
	if env.Source != "sample-data" {
		t.Errorf("source: got %q, want sample-data", env.Source)
	}
	if len(env.Results) != cat.Len() {
		t.Errorf("results: got %d, want %d", len(env.Results), cat.Len())
	}

	filtered := runQuery(t, "--species", "rabbit")
	if len(filtered.Results) == 0 || len(filtered.Results) >= cat.Len() {
		t.Errorf("species filter: got %d results", len(filtered.Results))
	}
}

func TestQuery_Upstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("search") != "heat" {
			t.Errorf("search: got %q, want heat", r.URL.Query().Get("search"))
		}
		_, _ = w.Write([]byte(`[{"title":"remote"}]`))
	}))
	defer srv.Close()
	t.Setenv("GUIDELINES_API_BASE", srv.URL)

	env := runQuery(t, "--search", "heat")
	if env.Source != "external-api" || len(env.Results) != 1 {
		t.Errorf("got source=%q results=%d, want external-api with 1", env.Source, len(env.Results))
	}
}

func TestQuery_UpstreamFailureFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	t.Setenv("GUIDELINES_API_BASE", srv.URL)

	if env := runQuery(t); env.Source != "sample-data" {
		t.Errorf("source: got %q, want sample-data", env.Source)
	}
}

func TestQuery_ConfigFileAndFlags(t *testing.T) {
	unsetEnv(t, "GUIDELINES_API_BASE")
	dir := t.TempDir()
	dataset := filepath.Join(dir, "guidelines.yaml")
	if err := os.WriteFile(dataset, []byte(`- species: Ferret
  topic: Diet
  title: Feed a high-protein diet
  summary: Ferrets are obligate carnivores.
  actions: [Offer meat-based food]
`), 0o600); err != nil {
		t.Fatal(err)
	}
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("dataset:\n  path: "+dataset+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	env := runQuery(t, "--config", cfgPath, "--species", "FERRET")
	if len(env.Results) != 1 {
		t.Fatalf("results: got %d, want 1", len(env.Results))
	}

	if _, err := run(t, "query", "--config", cfgPath, "--log-level", "chatty"); err == nil {
		t.Error("expected error for an invalid --log-level")
	}
}

func TestLoadEnv_DotEnvFile(t *testing.T) {
	unsetEnv(t, "GUIDELINES_API_BASE")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("GUIDELINES_API_BASE=http://127.0.0.1:1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env.local"), []byte("GUIDELINES_API_BASE="+srv.URL+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	// .env.local wins, so the lookup reaches the test server.
	if env := runQuery(t); env.Source != "external-api" {
		t.Errorf("source: got %q, want external-api", env.Source)
	}
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "careguide-server version dev") {
		t.Errorf("output: got %q", out)
	}
}

func TestReloadUpstream(t *testing.T) {
	cat, err := catalog.Builtin()
	if err != nil {
		t.Fatal(err)
	}
	svc := lookup.New(cat, nil, nil)

	next, err := config.Load("", nil)
	if err != nil {
		t.Fatal(err)
	}
	next.Upstream.Base = "https://api.example.com"
	reloadUpstream(svc, next)
	if !svc.UpstreamConfigured() {
		t.Fatal("upstream not installed after reload")
	}

	next.Upstream.Base = ""
	reloadUpstream(svc, next)
	if svc.UpstreamConfigured() {
		t.Fatal("upstream still installed after base was removed")
	}
}
