// Package lookup answers guideline queries.
//
// Service tries the configured upstream API first and falls back to the
// local sample catalog on any failure, so a lookup always produces an
// envelope. The upstream can be replaced at runtime (config hot reload)
// without locking the request path.
package lookup
