package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/careguide/careguide/pkg/types"
)

// Route paths served by Handler.
const (
	PathHealth     = "/api/health"
	PathGuidelines = "/api/guidelines"
)

// Service is the lookup backend behind the API. *lookup.Service implements it.
type Service interface {
	Lookup(ctx context.Context, q types.Query) types.Envelope
	UpstreamConfigured() bool
}

// Handler is the HTTP handler for all /api/* endpoints.
type Handler struct {
	svc    Service
	routes map[string]http.HandlerFunc
}

// New creates a Handler backed by svc and registers all routes.
func New(svc Service) *Handler {
	h := &Handler{svc: svc}
	h.routes = map[string]http.HandlerFunc{
		PathHealth:     h.health,
		PathGuidelines: h.guidelines,
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	route, ok := h.routes[strings.TrimSuffix(r.URL.Path, "/")]
	if !ok {
		jsonErr(w, http.StatusNotFound, "API route not found")
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	route(w, r)
}

// --- route handlers ---------------------------------------------------------

// health returns GET /api/health. It does not probe the upstream.
func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	jsonResp(w, http.StatusOK, HealthResponse{
		Status:             "ok",
		UpstreamConfigured: h.svc.UpstreamConfigured(),
	})
}

// guidelines returns GET /api/guidelines?species=&topic=&search=.
// Upstream failures never reach the client; the service falls back instead.
func (h *Handler) guidelines(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	q := types.NewQuery(params.Get("species"), params.Get("topic"), params.Get("search"))
	jsonResp(w, http.StatusOK, h.svc.Lookup(r.Context(), q))
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
