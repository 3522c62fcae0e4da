// Package types defines the Go types shared by the careguide server packages
// and its CLI: guideline entries, lookup queries and the response envelope
// that unifies upstream and sample-data results.
package types
