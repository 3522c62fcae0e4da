// Package upstream is the client for the external guideline API.
//
// Client.Fetch issues GET <base>/guidelines with the non-empty query
// parameters, a bearer token when one is configured, and a hard timeout.
// ParseBody turns the response into a list of items: a top-level array, or
// the array under "results", or else the array under "data". Any other shape
// is ErrUnexpectedShape. Callers treat every error as "use the fallback".
//
// Authentication is applied by authRoundTripper, so Fetch itself never
// touches credentials.
package upstream
