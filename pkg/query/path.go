package query

import (
	"strconv"
	"strings"
)

// resolvePath walks a dot-path through nested documents and returns every
// value it reaches. An intermediate array fans out across its document
// elements, and a segment that parses as a non-negative integer indexes
// into an array. Leaf values are returned whole, arrays included, so
// operators can apply their own element semantics.
func resolvePath(v interface{}, path []string) []interface{} {
	if len(path) == 0 {
		return []interface{}{v}
	}

	seg, rest := path[0], path[1:]

	if doc, ok := asDocument(v); ok {
		child, ok := doc[seg]
		if !ok {
			return nil
		}
		return resolvePath(child, rest)
	}

	if arr, ok := v.([]interface{}); ok {
		if i, err := strconv.Atoi(seg); err == nil && i >= 0 {
			if i < len(arr) {
				return resolvePath(arr[i], rest)
			}
			return nil
		}
		var out []interface{}
		for _, elem := range arr {
			out = append(out, resolvePath(elem, path)...)
		}
		return out
	}

	return nil
}

// fieldValues resolves a dot-path against a document. The second result
// reports presence: no reachable value at all means the field is missing,
// which several operators treat differently from a null value.
func fieldValues(doc map[string]interface{}, path string) ([]interface{}, bool) {
	values := resolvePath(doc, strings.Split(path, "."))
	return values, len(values) > 0
}

// sortValue resolves a dot-path to the single value sorting uses: the first
// value the path reaches in document order.
func sortValue(doc map[string]interface{}, path string) (interface{}, bool) {
	values, ok := fieldValues(doc, path)
	if !ok {
		return nil, false
	}
	return values[0], true
}
