// Package static serves the browser front-end.
//
// Responder maps the raw request path onto an fs.FS root: either a directory
// on disk or the default front-end compiled into the binary. Paths that would
// climb out of the root are refused with 403 rather than cleaned.
package static
