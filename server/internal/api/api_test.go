package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/careguide/careguide/server/internal/api"
	"github.com/careguide/careguide/server/internal/catalog"
	"github.com/careguide/careguide/server/internal/config"
	"github.com/careguide/careguide/server/internal/lookup"
	"github.com/careguide/careguide/server/internal/upstream"
)

// --- test helpers -----------------------------------------------------------

func newService(t *testing.T, upstreamBase string) *lookup.Service {
	t.Helper()
	cat, err := catalog.Builtin()
	if err != nil {
		t.Fatalf("catalog.Builtin: %v", err)
	}
	svc := lookup.New(cat, nil, nil)
	if upstreamBase != "" {
		c, err := upstream.New(config.UpstreamConfig{Base: upstreamBase, Timeout: 200 * time.Millisecond})
		if err != nil {
			t.Fatalf("upstream.New: %v", err)
		}
		svc.SetUpstream(c)
	}
	return svc
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON: %v (body: %s)", err, rr.Body.String())
	}
}

type envelope struct {
	Source  string            `json:"source"`
	Results []json.RawMessage `json:"results"`
}

type guideline struct {
	Species string   `json:"species"`
	Topic   string   `json:"topic"`
	Title   string   `json:"title"`
	Actions []string `json:"actions"`
}

// --- /api/health ------------------------------------------------------------

func TestHealth_NoUpstream(t *testing.T) {
	rr := get(t, api.New(newService(t, "")), "/api/health")

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q", ct)
	}
	var resp map[string]interface{}
	decode(t, rr, &resp)
	if resp["status"] != "ok" {
		t.Errorf("status field: got %v, want ok", resp["status"])
	}
	if resp["upstreamConfigured"] != false {
		t.Errorf("upstreamConfigured: got %v, want false", resp["upstreamConfigured"])
	}
}

func TestHealth_UpstreamConfigured(t *testing.T) {
	rr := get(t, api.New(newService(t, "http://127.0.0.1:1")), "/api/health")

	var resp api.HealthResponse
	decode(t, rr, &resp)
	if !resp.UpstreamConfigured {
		t.Error("upstreamConfigured: got false, want true")
	}
}

func TestHealth_MethodNotAllowed(t *testing.T) {
	h := api.New(newService(t, ""))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/health", nil))

	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", rr.Code)
	}
	if allow := rr.Header().Get("Allow"); allow != "GET, HEAD" {
		t.Errorf("Allow: got %q", allow)
	}
}

// --- /api/guidelines --------------------------------------------------------

func TestGuidelines_NoFiltersReturnsDataset(t *testing.T) {
	cat, _ := catalog.Builtin()
	rr := get(t, api.New(newService(t, "")), "/api/guidelines")

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var env envelope
	decode(t, rr, &env)
	if env.Source != "sample-data" {
		t.Errorf("source: got %q, want sample-data", env.Source)
	}
	if len(env.Results) != cat.Len() {
		t.Errorf("results: got %d, want %d", len(env.Results), cat.Len())
	}
}

func TestGuidelines_SpeciesFilter(t *testing.T) {
	rr := get(t, api.New(newService(t, "")), "/api/guidelines?species=CAT")

	var env envelope
	decode(t, rr, &env)
	if len(env.Results) == 0 {
		t.Fatal("no results for species=CAT")
	}
	for _, raw := range env.Results {
		var g guideline
		if err := json.Unmarshal(raw, &g); err != nil {
			t.Fatalf("decode result: %v", err)
		}
		if g.Species != "Cat" {
			t.Errorf("species: got %q, want Cat", g.Species)
		}
	}
}

func TestGuidelines_NoMatchIsEmptyArray(t *testing.T) {
	rr := get(t, api.New(newService(t, "")), "/api/guidelines?species=Dragon")

	var raw map[string]json.RawMessage
	decode(t, rr, &raw)
	if string(raw["results"]) != "[]" {
		t.Errorf("results: got %s, want []", raw["results"])
	}
}

func TestGuidelines_UpstreamPassThrough(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`{"data":[{"id":7,"title":"remote"}]}`))
	}))
	defer srv.Close()

	rr := get(t, api.New(newService(t, srv.URL)), "/api/guidelines?topic=%20Heat%20")

	var env envelope
	decode(t, rr, &env)
	if env.Source != "external-api" {
		t.Fatalf("source: got %q, want external-api", env.Source)
	}
	if len(env.Results) != 1 || string(env.Results[0]) != `{"id":7,"title":"remote"}` {
		t.Errorf("results: got %s", env.Results)
	}
	if gotQuery.Get("topic") != "Heat" {
		t.Errorf("forwarded topic: got %q, want Heat", gotQuery.Get("topic"))
	}
}

func TestGuidelines_Upstream500StillOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	rr := get(t, api.New(newService(t, srv.URL)), "/api/guidelines?species=Dog")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var env envelope
	decode(t, rr, &env)
	if env.Source != "sample-data" {
		t.Errorf("source: got %q, want sample-data", env.Source)
	}
}

func TestGuidelines_UpstreamTimeoutStillOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	rr := get(t, api.New(newService(t, srv.URL)), "/api/guidelines")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var env envelope
	decode(t, rr, &env)
	if env.Source != "sample-data" {
		t.Errorf("source: got %q, want sample-data", env.Source)
	}
}

func TestGuidelines_Head(t *testing.T) {
	h := api.New(newService(t, ""))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodHead, "/api/guidelines", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rr.Code)
	}
}

func TestGuidelines_MethodNotAllowed(t *testing.T) {
	h := api.New(newService(t, ""))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/guidelines", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", rr.Code)
	}
}

// --- unknown routes ---------------------------------------------------------

func TestUnknownRoute(t *testing.T) {
	h := api.New(newService(t, ""))
	for _, path := range []string{"/api/unknown", "/api/", "/api/guidelines/extra", "/api/../etc/passwd"} {
		rr := get(t, h, path)
		if rr.Code != http.StatusNotFound {
			t.Errorf("%s status: got %d, want 404", path, rr.Code)
			continue
		}
		var resp map[string]string
		decode(t, rr, &resp)
		if resp["error"] != "API route not found" {
			t.Errorf("%s error: got %q", path, resp["error"])
		}
	}
}

func TestUnknownRoute_PostIsStill404(t *testing.T) {
	h := api.New(newService(t, ""))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/nope", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rr.Code)
	}
}
