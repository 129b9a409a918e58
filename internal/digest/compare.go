package digest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// derived fields ignored when checking whether a stored asset is current
var derivedFields = []string{"ownerKey", "serialNumberCustomerHash"}

// IsCurrent reports whether incoming describes the same asset as stored once
// the owner scoped derived fields are removed from stored. Arrays compare
// without regard to order.
func IsCurrent(stored, incoming any) (bool, error) {
	s, err := toGeneric(stored)
	if err != nil {
		return false, fmt.Errorf("failed to decode stored asset: %w", err)
	}

	if m, ok := s.(map[string]any); ok {
		for _, k := range derivedFields {
			delete(m, k)
		}
	}

	in, err := toGeneric(incoming)
	if err != nil {
		return false, fmt.Errorf("failed to decode incoming asset: %w", err)
	}

	return Equal(s, in)
}

// Equal compares two decoded JSON values structurally. Object key counts must
// match and arrays are sorted by the encoding of their elements first.
func Equal(a, b any) (bool, error) {
	na, err := normalize(a)
	if err != nil {
		return false, err
	}
	nb, err := normalize(b)
	if err != nil {
		return false, err
	}

	ea, err := json.Marshal(na)
	if err != nil {
		return false, err
	}
	eb, err := json.Marshal(nb)
	if err != nil {
		return false, err
	}

	return bytes.Equal(ea, eb), nil
}

func normalize(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			n, err := normalize(val)
			if err != nil {
				return nil, err
			}
			out[k] = n
		}
		return out, nil
	case []any:
		type entry struct {
			enc []byte
			val any
		}
		entries := make([]entry, 0, len(t))
		for _, val := range t {
			n, err := normalize(val)
			if err != nil {
				return nil, err
			}
			enc, err := json.Marshal(n)
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry{enc: enc, val: n})
		}
		slices.SortFunc(entries, func(x, y entry) int { return bytes.Compare(x.enc, y.enc) })

		out := make([]any, len(entries))
		for i, e := range entries {
			out[i] = e.val
		}
		return out, nil
	default:
		return v, nil
	}
}
