package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// ParseSelector extracts the selector object from a rich query. Only equality
// and containment are supported; operator keys such as "$gt" are rejected.
func ParseSelector(query string) (map[string]any, error) {
	var q struct {
		Selector map[string]any `json:"selector"`
	}

	dec := json.NewDecoder(strings.NewReader(query))
	dec.UseNumber()
	if err := dec.Decode(&q); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadQuery, err)
	}
	if q.Selector == nil {
		return nil, fmt.Errorf("%w: selector is required", ErrBadQuery)
	}
	if err := checkOperators(q.Selector); err != nil {
		return nil, err
	}

	return q.Selector, nil
}

// MatchSelector reports whether the JSON document contains every field and
// value named by the selector. Non JSON documents never match.
func MatchSelector(selector map[string]any, doc []byte) bool {
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()

	var d any
	if err := dec.Decode(&d); err != nil {
		return false
	}

	return contains(d, selector)
}

func contains(doc, sel any) bool {
	switch s := sel.(type) {
	case map[string]any:
		d, ok := doc.(map[string]any)
		if !ok {
			return false
		}
		for k, sv := range s {
			dv, ok := d[k]
			if !ok || !contains(dv, sv) {
				return false
			}
		}
		return true
	case []any:
		d, ok := doc.([]any)
		if !ok {
			return false
		}
		for _, sv := range s {
			found := false
			for _, dv := range d {
				if contains(dv, sv) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(doc, sel)
	}
}

func checkOperators(v any) error {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			if strings.HasPrefix(k, "$") {
				return fmt.Errorf("%w: operator %s is not supported", ErrBadQuery, k)
			}
			if err := checkOperators(val); err != nil {
				return err
			}
		}
	case []any:
		for _, val := range t {
			if err := checkOperators(val); err != nil {
				return err
			}
		}
	}
	return nil
}
