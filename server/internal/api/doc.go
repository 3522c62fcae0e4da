// Package api implements the JSON API of careguide-server.
//
// New(svc) returns an http.Handler that serves:
//
//	GET /api/health      {"status":"ok","upstreamConfigured":bool}
//	GET /api/guidelines  {"source":...,"results":[...]} for ?species=&topic=&search=
//
// All endpoints:
//   - Respond with Content-Type: application/json
//   - Accept GET and HEAD only; anything else is 405
//   - Answer unknown /api/ paths with 404 {"error":"API route not found"}
//
// Routing is an exact match on the raw path. There is no ServeMux here, so a
// path like /api/../x is never cleaned into a redirect; it simply is not a
// route.
package api
