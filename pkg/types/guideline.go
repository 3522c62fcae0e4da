package types

import (
	"encoding/json"
	"strings"
)

// Guideline is one care guideline entry from the sample dataset.
type Guideline struct {
	Species string   `json:"species" yaml:"species"`
	Topic   string   `json:"topic" yaml:"topic"`
	Title   string   `json:"title" yaml:"title"`
	Summary string   `json:"summary" yaml:"summary"`
	Actions []string `json:"actions" yaml:"actions"`
	Source  string   `json:"source" yaml:"source"`
}

// Query holds the optional lookup filters. An empty field means "no filter".
type Query struct {
	Species string `json:"species,omitempty"`
	Topic   string `json:"topic,omitempty"`
	Search  string `json:"search,omitempty"`
}

// NewQuery builds a Query with surrounding whitespace removed from each field.
func NewQuery(species, topic, search string) Query {
	return Query{
		Species: strings.TrimSpace(species),
		Topic:   strings.TrimSpace(topic),
		Search:  strings.TrimSpace(search),
	}
}

// IsEmpty reports whether no filter is set.
func (q Query) IsEmpty() bool {
	return q.Species == "" && q.Topic == "" && q.Search == ""
}

// Source names where the results of an Envelope came from.
type Source string

const (
	SourceExternal Source = "external-api"
	SourceSample   Source = "sample-data"
)

// Envelope is the response shape for both data origins.
//
// Exactly one of Guidelines or External is meaningful, selected by Source:
// sample-data envelopes carry typed entries, external-api envelopes carry the
// upstream items untouched.
type Envelope struct {
	Source     Source
	Guidelines []Guideline
	External   []json.RawMessage
}

// SampleEnvelope wraps locally filtered entries.
func SampleEnvelope(g []Guideline) Envelope {
	return Envelope{Source: SourceSample, Guidelines: g}
}

// ExternalEnvelope wraps items returned by the upstream API.
func ExternalEnvelope(items []json.RawMessage) Envelope {
	return Envelope{Source: SourceExternal, External: items}
}

// Len returns the number of results carried by the envelope.
func (e Envelope) Len() int {
	if e.Source == SourceExternal {
		return len(e.External)
	}
	return len(e.Guidelines)
}

type envelopeJSON struct {
	Source  Source `json:"source"`
	Results any    `json:"results"`
}

// MarshalJSON encodes the envelope as {"source": ..., "results": [...]}.
// Results is always an array, never null.
func (e Envelope) MarshalJSON() ([]byte, error) {
	out := envelopeJSON{Source: e.Source}
	if e.Source == SourceExternal {
		items := e.External
		if items == nil {
			items = []json.RawMessage{}
		}
		out.Results = items
	} else {
		g := e.Guidelines
		if g == nil {
			g = []Guideline{}
		}
		out.Results = g
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes an envelope produced by MarshalJSON.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var raw struct {
		Source  Source          `json:"source"`
		Results json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = Envelope{Source: raw.Source}
	if len(raw.Results) == 0 || string(raw.Results) == "null" {
		return nil
	}
	if raw.Source == SourceExternal {
		return json.Unmarshal(raw.Results, &e.External)
	}
	return json.Unmarshal(raw.Results, &e.Guidelines)
}
