package api

// HealthResponse is the payload for GET /api/health.
type HealthResponse struct {
	Status             string `json:"status"`
	UpstreamConfigured bool   `json:"upstreamConfigured"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
