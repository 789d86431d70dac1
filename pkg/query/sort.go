package query

import (
	"fmt"
	"sort"

	"github.com/adfharrison1/go-docdb/pkg/domain"
)

// Sort directions
const (
	Ascending  = 1
	Descending = -1
)

// SortField is one (field path, direction) pair of a sort specification
type SortField struct {
	Field     string
	Direction int
}

// Sort is a compiled sort specification: an ordered list of keys and a
// comparator over two documents. Like Selector, a compiled Sort passed back
// into CompileSort is returned unchanged.
type Sort struct {
	keys []SortField
}

// CompileSort compiles a sort specification. Accepted forms: a bare field
// name (ascending), an ordered []SortField, a []interface{} of field names
// and [field, direction] pairs, a field→direction map, or an
// already-compiled Sort (identity).
//
// Go maps have no iteration order, so a map form with more than one key is
// normalized by sorting field names; callers that need a meaningful
// multi-key order pass one of the ordered forms.
func CompileSort(spec interface{}) (*Sort, error) {
	switch v := spec.(type) {
	case *Sort:
		return v, nil
	case string:
		return &Sort{keys: []SortField{{Field: v, Direction: Ascending}}}, nil
	case SortField:
		if err := validDirection(v.Direction); err != nil {
			return nil, err
		}
		return &Sort{keys: []SortField{v}}, nil
	case []SortField:
		for _, k := range v {
			if err := validDirection(k.Direction); err != nil {
				return nil, err
			}
		}
		keys := make([]SortField, len(v))
		copy(keys, v)
		return &Sort{keys: keys}, nil
	case []interface{}:
		keys := make([]SortField, 0, len(v))
		for _, entry := range v {
			key, err := sortKeyFromEntry(entry)
			if err != nil {
				return nil, err
			}
			keys = append(keys, key)
		}
		return &Sort{keys: keys}, nil
	case map[string]interface{}:
		keys := make([]SortField, 0, len(v))
		for _, field := range sortedKeys(v) {
			dir, err := directionValue(v[field])
			if err != nil {
				return nil, err
			}
			keys = append(keys, SortField{Field: field, Direction: dir})
		}
		return &Sort{keys: keys}, nil
	case map[string]int:
		fields := make([]string, 0, len(v))
		for f := range v {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		keys := make([]SortField, 0, len(v))
		for _, field := range fields {
			if err := validDirection(v[field]); err != nil {
				return nil, err
			}
			keys = append(keys, SortField{Field: field, Direction: v[field]})
		}
		return &Sort{keys: keys}, nil
	default:
		return nil, fmt.Errorf("%w: cannot compile sort from %T", domain.ErrInvalidArgument, spec)
	}
}

func sortKeyFromEntry(entry interface{}) (SortField, error) {
	switch e := entry.(type) {
	case string:
		return SortField{Field: e, Direction: Ascending}, nil
	case SortField:
		return e, validDirection(e.Direction)
	case []interface{}:
		if len(e) != 2 {
			return SortField{}, fmt.Errorf("%w: sort pair must be [field, direction]", domain.ErrInvalidArgument)
		}
		field, ok := e[0].(string)
		if !ok {
			return SortField{}, fmt.Errorf("%w: sort field must be a string, got %T", domain.ErrInvalidArgument, e[0])
		}
		dir, err := directionValue(e[1])
		if err != nil {
			return SortField{}, err
		}
		return SortField{Field: field, Direction: dir}, nil
	default:
		return SortField{}, fmt.Errorf("%w: bad sort entry %T", domain.ErrInvalidArgument, entry)
	}
}

func directionValue(v interface{}) (int, error) {
	n, ok := toFloat64(v)
	if !ok {
		return 0, fmt.Errorf("%w: sort direction must be 1 or -1, got %T", domain.ErrInvalidArgument, v)
	}
	dir := int(n)
	if err := validDirection(dir); err != nil {
		return 0, err
	}
	return dir, nil
}

func validDirection(dir int) error {
	if dir != Ascending && dir != Descending {
		return fmt.Errorf("%w: sort direction must be 1 or -1, got %d", domain.ErrInvalidArgument, dir)
	}
	return nil
}

// Keys returns the normalized (field, direction) list
func (s *Sort) Keys() []SortField {
	return s.keys
}

// Compare evaluates the sort keys in order and returns -1, 0 or 1. A field
// missing on one side ranks below any present value, before the direction
// multiplier applies, so a descending sort places documents without the
// field last.
func (s *Sort) Compare(a, b domain.Document) int {
	for _, key := range s.keys {
		av, aok := sortValue(a, key.Field)
		bv, bok := sortValue(b, key.Field)

		var c int
		switch {
		case !aok && !bok:
			c = 0
		case !aok:
			c = -1
		case !bok:
			c = 1
		default:
			c = Compare(av, bv)
		}

		if c != 0 {
			return c * key.Direction
		}
	}
	return 0
}

// Apply sorts documents in place. The underlying sort is stable, so
// documents equal on every key keep their relative scan order.
func (s *Sort) Apply(docs []domain.Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		return s.Compare(docs[i], docs[j]) < 0
	})
}
