package catalog

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/careguide/careguide/pkg/types"
)

// ErrEmpty is returned when a dataset contains no entries.
var ErrEmpty = errors.New("catalog: dataset is empty")

// Catalog is an immutable, in-memory guideline dataset.
// It is safe for concurrent use; nothing mutates it after New returns.
type Catalog struct {
	entries []types.Guideline
	folded  []foldedEntry
}

// foldedEntry holds the case-folded text of one entry, computed once so
// Filter only has to fold the query.
type foldedEntry struct {
	species string
	topic   string
	title   string
	summary string
	actions []string
}

// New validates entries and builds a Catalog. Every entry needs a species
// and a title. Entries are copied, Actions included, so callers may reuse
// or modify entries afterwards.
func New(entries []types.Guideline) (*Catalog, error) {
	if len(entries) == 0 {
		return nil, ErrEmpty
	}
	c := &Catalog{
		entries: make([]types.Guideline, len(entries)),
		folded:  make([]foldedEntry, len(entries)),
	}
	copy(c.entries, entries)

	for i, e := range c.entries {
		if strings.TrimSpace(e.Species) == "" {
			return nil, fmt.Errorf("catalog: entry %d (%q): species is required", i, e.Title)
		}
		if strings.TrimSpace(e.Title) == "" {
			return nil, fmt.Errorf("catalog: entry %d: title is required", i)
		}
		c.entries[i].Actions = append([]string{}, e.Actions...)
		fe := foldedEntry{
			species: fold(e.Species),
			topic:   fold(e.Topic),
			title:   fold(e.Title),
			summary: fold(e.Summary),
			actions: make([]string, len(e.Actions)),
		}
		for j, step := range e.Actions {
			fe.actions[j] = fold(step)
		}
		c.folded[i] = fe
	}
	return c, nil
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// All returns every entry in dataset order.
// Callers must not modify the Actions slices of the returned entries.
func (c *Catalog) All() []types.Guideline {
	out := make([]types.Guideline, len(c.entries))
	copy(out, c.entries)
	return out
}

// Filter returns the entries matching q, in dataset order. Absent filters
// always pass; an empty query returns the whole dataset.
// Callers must not modify the Actions slices of the returned entries.
func (c *Catalog) Filter(q types.Query) []types.Guideline {
	species := fold(q.Species)
	topic := fold(q.Topic)
	search := fold(q.Search)

	out := make([]types.Guideline, 0, len(c.entries))
	for i, fe := range c.folded {
		if species != "" && fe.species != species {
			continue
		}
		if topic != "" && !strings.Contains(fe.topic, topic) {
			continue
		}
		if search != "" && !fe.contains(search) {
			continue
		}
		out = append(out, c.entries[i])
	}
	return out
}

// contains reports whether s occurs in the title, summary or any action step.
func (fe foldedEntry) contains(s string) bool {
	if strings.Contains(fe.title, s) || strings.Contains(fe.summary, s) {
		return true
	}
	for _, step := range fe.actions {
		if strings.Contains(step, s) {
			return true
		}
	}
	return false
}

// fold returns the Unicode case-folded form of s. A Caser must not be shared
// between goroutines, so each call gets its own.
func fold(s string) string {
	if s == "" {
		return ""
	}
	return cases.Fold().String(s)
}
