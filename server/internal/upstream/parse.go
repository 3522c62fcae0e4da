package upstream

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// errDecode marks bodies that are not valid JSON (or too large to read).
var errDecode = errors.New("upstream: decode")

// ParseBody extracts the result items from an upstream response body.
//
// Accepted shapes, checked in order:
//
//	[ ... ]                    the body itself
//	{"results": [ ... ], ...}  the results array
//	{"data": [ ... ], ...}     the data array
//
// A "results" or "data" key holding null or a non-array is skipped.
// Anything else yields ErrUnexpectedShape.
func ParseBody(data []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty body", errDecode)
	}

	switch trimmed[0] {
	case '[':
		items, err := decodeArray(trimmed)
		if err != nil {
			return nil, err
		}
		return items, nil
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return nil, fmt.Errorf("%w: %v", errDecode, err)
		}
		for _, key := range []string{"results", "data"} {
			raw, ok := obj[key]
			if !ok || !isArray(raw) {
				continue
			}
			return decodeArray(raw)
		}
		return nil, ErrUnexpectedShape
	default:
		if !json.Valid(trimmed) {
			return nil, fmt.Errorf("%w: invalid JSON", errDecode)
		}
		return nil, ErrUnexpectedShape
	}
}

func decodeArray(raw []byte) ([]json.RawMessage, error) {
	items := []json.RawMessage{}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", errDecode, err)
	}
	return items, nil
}

func isArray(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) > 0 && t[0] == '['
}
