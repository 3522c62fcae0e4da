// Package catalog holds the sample guideline dataset used when no upstream
// API is configured or the upstream call fails.
//
// The dataset is loaded once at startup, either from the copy compiled into
// the binary, from a local .json/.yaml file, or from an s3:// object, and is
// read-only afterwards. Filter implements the local query semantics:
// case-insensitive exact species match, topic substring match, and search
// substring match over title, summary and action steps, all ANDed.
package catalog
