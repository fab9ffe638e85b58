package form

import "strings"

// getPath extracts a value from raw input by dotted path. An exact key match
// wins over path traversal so callers may submit either nested maps or
// literal dotted keys. A missing path yields Absent, never a default.
func getPath(raw map[string]interface{}, path string) Value {
	if raw == nil {
		return Absent()
	}
	if v, ok := raw[path]; ok {
		return Present(v)
	}

	segments := strings.Split(path, ".")
	current := raw
	for i, seg := range segments {
		v, ok := current[seg]
		if !ok {
			return Absent()
		}
		if i == len(segments)-1 {
			return Present(v)
		}
		next, ok := v.(map[string]interface{})
		if !ok {
			return Absent()
		}
		current = next
	}
	return Absent()
}

// setPath writes a value into out, expanding a dotted path into nested maps.
func setPath(out map[string]interface{}, path string, value interface{}) {
	segments := strings.Split(path, ".")
	current := out
	for _, seg := range segments[:len(segments)-1] {
		next, ok := current[seg].(map[string]interface{})
		if !ok {
			next = make(map[string]interface{})
			current[seg] = next
		}
		current = next
	}
	current[segments[len(segments)-1]] = value
}

// ReinterpretFlatInput rewrites a flat scalar map with dotted keys into
// nested structure, enabling one-line assignment of one-to-one relation
// attributes on insert. Input carrying any nested or list value is returned
// unchanged.
func ReinterpretFlatInput(raw map[string]interface{}) map[string]interface{} {
	dotted := false
	for k, v := range raw {
		switch v.(type) {
		case map[string]interface{}, []interface{}, []map[string]interface{}:
			return raw
		}
		if strings.Contains(k, ".") {
			dotted = true
		}
	}
	if !dotted {
		return raw
	}

	out := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		setPath(out, k, v)
	}
	return out
}
