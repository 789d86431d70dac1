// Package query implements the selector and sort compilers: MongoDB-style
// query specifications (e.g. `{"age": {"$gt": 25}}`) compile once into
// reusable predicates and comparators that the cursor executes over a
// collection's documents.
package query

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/adfharrison1/go-docdb/pkg/domain"
	"github.com/adfharrison1/go-docdb/pkg/objectid"
)

// predicate is a compiled, side-effect-free match function over a document
type predicate func(doc map[string]interface{}) bool

// Selector is a compiled query specification. Compiling is pure and
// deterministic, and a Selector fed back into CompileSelector is returned
// unchanged, so callers can pre-compile and reuse selectors freely.
type Selector struct {
	match predicate

	// idValue is set when the spec is exactly an equality on _id, letting
	// the cursor answer the query with a point lookup instead of a scan.
	idValue string
	hasID   bool
}

// Match evaluates the compiled predicate against a document
func (s *Selector) Match(doc domain.Document) bool {
	return s.match(doc)
}

// IDLookup returns the stringified _id value when the selector reduces to a
// single equality on _id
func (s *Selector) IDLookup() (string, bool) {
	return s.idValue, s.hasID
}

// CompileSelector compiles a query specification into a Selector. Accepted
// forms: a field→condition object, a slice of objects (implicit $and), a
// bare string or identifier (shorthand for equality on _id), nil (matches
// everything), or an already-compiled Selector (identity).
func CompileSelector(spec interface{}) (*Selector, error) {
	switch v := spec.(type) {
	case nil:
		return &Selector{match: func(map[string]interface{}) bool { return true }}, nil
	case *Selector:
		return v, nil
	case domain.Document:
		return compileObject(v)
	case map[string]interface{}:
		return compileObject(v)
	case []interface{}:
		preds := make([]predicate, 0, len(v))
		for _, entry := range v {
			obj, ok := asDocument(entry)
			if !ok {
				return nil, fmt.Errorf("%w: selector array entries must be objects, got %T", domain.ErrInvalidArgument, entry)
			}
			sub, err := compileObject(obj)
			if err != nil {
				return nil, err
			}
			preds = append(preds, sub.match)
		}
		return &Selector{match: allOf(preds)}, nil
	case string:
		return idSelector(v), nil
	case *objectid.ObjectID:
		return idSelector(v.Hex()), nil
	default:
		return nil, fmt.Errorf("%w: cannot compile selector from %T", domain.ErrInvalidArgument, spec)
	}
}

// idSelector builds the _id-equality shorthand selector
func idSelector(id string) *Selector {
	return &Selector{
		match:   fieldEquality("_id", id),
		idValue: id,
		hasID:   true,
	}
}

func compileObject(spec map[string]interface{}) (*Selector, error) {
	preds := make([]predicate, 0, len(spec))

	for _, field := range sortedKeys(spec) {
		cond := spec[field]
		switch field {
		case "$and", "$or", "$nor":
			list, ok := cond.([]interface{})
			if !ok {
				return nil, fmt.Errorf("%w: value of %s must be an array", domain.ErrInvalidArgument, field)
			}
			subs := make([]predicate, 0, len(list))
			for _, entry := range list {
				obj, ok := asDocument(entry)
				if !ok {
					return nil, fmt.Errorf("%w: entries of %s must be objects", domain.ErrInvalidArgument, field)
				}
				sub, err := compileObject(obj)
				if err != nil {
					return nil, err
				}
				subs = append(subs, sub.match)
			}
			switch field {
			case "$and":
				preds = append(preds, allOf(subs))
			case "$or":
				preds = append(preds, anyOf(subs))
			case "$nor":
				or := anyOf(subs)
				preds = append(preds, func(doc map[string]interface{}) bool { return !or(doc) })
			}
		case "$not":
			obj, ok := asDocument(cond)
			if !ok {
				return nil, fmt.Errorf("%w: value of $not must be an object", domain.ErrInvalidArgument)
			}
			sub, err := compileObject(obj)
			if err != nil {
				return nil, err
			}
			inner := sub.match
			preds = append(preds, func(doc map[string]interface{}) bool { return !inner(doc) })
		default:
			p, err := compileField(field, cond)
			if err != nil {
				return nil, err
			}
			preds = append(preds, p)
		}
	}

	sel := &Selector{match: allOf(preds)}

	// Fast path: a spec of exactly {_id: <scalar>} is a point lookup.
	if len(spec) == 1 {
		if idv, ok := spec["_id"]; ok {
			switch v := idv.(type) {
			case string:
				sel.idValue, sel.hasID = v, true
			case *objectid.ObjectID:
				sel.idValue, sel.hasID = v.Hex(), true
			}
		}
	}
	return sel, nil
}

// compileField compiles one field's condition: either an operator object or
// a plain equality target
func compileField(field string, cond interface{}) (predicate, error) {
	if ops, ok := asDocument(cond); ok && isOperatorObject(ops) {
		return compileOperators(field, ops)
	}
	return fieldEquality(field, cond), nil
}

// isOperatorObject reports whether every key of the object is an operator.
// A mixed object is treated as a literal document value for equality.
func isOperatorObject(obj map[string]interface{}) bool {
	if len(obj) == 0 {
		return false
	}
	for k := range obj {
		if !strings.HasPrefix(k, "$") {
			return false
		}
	}
	return true
}

func compileOperators(field string, ops map[string]interface{}) (predicate, error) {
	matchers, err := compileValueOperators(ops)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", field, err)
	}
	return func(doc map[string]interface{}) bool {
		values, present := fieldValues(doc, field)
		for _, m := range matchers {
			if !m(values, present) {
				return false
			}
		}
		return true
	}, nil
}

// valueMatcher evaluates one operator against a field's resolved values and
// its presence flag
type valueMatcher func(values []interface{}, present bool) bool

// compileValueOperators compiles an operator object into matchers over a
// resolved field. Shared by field conditions and scalar $elemMatch.
func compileValueOperators(ops map[string]interface{}) ([]valueMatcher, error) {
	matchers := make([]valueMatcher, 0, len(ops))

	for _, op := range sortedKeys(ops) {
		target := ops[op]
		switch op {
		case "$eq":
			matchers = append(matchers, equalityMatcher(target))
		case "$ne":
			eq := equalityMatcher(target)
			matchers = append(matchers, func(values []interface{}, present bool) bool {
				return !eq(values, present)
			})
		case "$gt", "$gte", "$lt", "$lte":
			matchers = append(matchers, comparisonMatcher(op, target))
		case "$in":
			list, ok := target.([]interface{})
			if !ok {
				return nil, fmt.Errorf("%w: $in requires an array", domain.ErrInvalidArgument)
			}
			matchers = append(matchers, membershipMatcher(list))
		case "$nin":
			list, ok := target.([]interface{})
			if !ok {
				return nil, fmt.Errorf("%w: $nin requires an array", domain.ErrInvalidArgument)
			}
			in := membershipMatcher(list)
			matchers = append(matchers, func(values []interface{}, present bool) bool {
				return !in(values, present)
			})
		case "$exists":
			want := truthy(target)
			matchers = append(matchers, func(values []interface{}, present bool) bool {
				return present == want
			})
		case "$type":
			m, err := typeMatcher(target)
			if err != nil {
				return nil, err
			}
			matchers = append(matchers, m)
		case "$regex":
			m, err := regexMatcher(target, ops["$options"])
			if err != nil {
				return nil, err
			}
			matchers = append(matchers, m)
		case "$options":
			// consumed by $regex
			if _, ok := ops["$regex"]; !ok {
				return nil, fmt.Errorf("%w: $options requires $regex", domain.ErrInvalidArgument)
			}
		case "$elemMatch":
			m, err := elemMatchMatcher(target)
			if err != nil {
				return nil, err
			}
			matchers = append(matchers, m)
		case "$not":
			obj, ok := asDocument(target)
			if !ok {
				return nil, fmt.Errorf("%w: value of $not must be an object", domain.ErrInvalidArgument)
			}
			inner, err := compileValueOperators(obj)
			if err != nil {
				return nil, err
			}
			matchers = append(matchers, func(values []interface{}, present bool) bool {
				for _, m := range inner {
					if !m(values, present) {
						return true
					}
				}
				return false
			})
		default:
			return nil, fmt.Errorf("%w: unknown operator %s", domain.ErrInvalidArgument, op)
		}
	}
	return matchers, nil
}

// fieldEquality matches a field against a target value with MongoDB
// array-membership semantics: an array field matches when any element
// equals the target, or when the whole array equals it.
func fieldEquality(field string, target interface{}) predicate {
	eq := equalityMatcher(target)
	return func(doc map[string]interface{}) bool {
		values, present := fieldValues(doc, field)
		return eq(values, present)
	}
}

func equalityMatcher(target interface{}) valueMatcher {
	return func(values []interface{}, present bool) bool {
		if !present {
			// Equality against null matches a missing field.
			return target == nil
		}
		for _, v := range values {
			if Equal(v, target) {
				return true
			}
			if arr, ok := v.([]interface{}); ok {
				for _, elem := range arr {
					if Equal(elem, target) {
						return true
					}
				}
			}
		}
		return false
	}
}

func comparisonMatcher(op string, target interface{}) valueMatcher {
	return func(values []interface{}, present bool) bool {
		if !present {
			return false
		}
		for _, v := range flattenArrays(values) {
			c := Compare(v, target)
			switch op {
			case "$gt":
				if c > 0 {
					return true
				}
			case "$gte":
				if c >= 0 {
					return true
				}
			case "$lt":
				if c < 0 {
					return true
				}
			case "$lte":
				if c <= 0 {
					return true
				}
			}
		}
		return false
	}
}

func membershipMatcher(list []interface{}) valueMatcher {
	return func(values []interface{}, present bool) bool {
		if !present {
			// $in matches a missing field only when null is a target.
			for _, t := range list {
				if t == nil {
					return true
				}
			}
			return false
		}
		for _, v := range flattenArrays(values) {
			for _, t := range list {
				if Equal(v, t) {
					return true
				}
			}
		}
		return false
	}
}

func typeMatcher(target interface{}) (valueMatcher, error) {
	want, err := kindForTypeSpec(target)
	if err != nil {
		return nil, err
	}
	return func(values []interface{}, present bool) bool {
		if !present {
			return false
		}
		for _, v := range values {
			if KindOf(v) == want {
				return true
			}
		}
		return false
	}, nil
}

// kindForTypeSpec resolves a $type argument: a type name or its BSON
// numeric alias
func kindForTypeSpec(target interface{}) (Kind, error) {
	if s, ok := target.(string); ok {
		for k := KindNull; k <= KindBool; k++ {
			if k.String() == s {
				return k, nil
			}
		}
		return 0, fmt.Errorf("%w: unknown $type name %q", domain.ErrInvalidArgument, s)
	}
	if n, ok := toFloat64(target); ok {
		switch int(n) {
		case 1, 16, 18, 19: // double, int, long, decimal
			return KindNumber, nil
		case 2:
			return KindString, nil
		case 3:
			return KindDocument, nil
		case 4:
			return KindArray, nil
		case 7:
			return KindObjectID, nil
		case 8:
			return KindBool, nil
		case 10:
			return KindNull, nil
		}
		return 0, fmt.Errorf("%w: unknown $type code %v", domain.ErrInvalidArgument, target)
	}
	return 0, fmt.Errorf("%w: $type requires a name or numeric code", domain.ErrInvalidArgument)
}

func regexMatcher(target, options interface{}) (valueMatcher, error) {
	pattern, ok := target.(string)
	if !ok {
		return nil, fmt.Errorf("%w: $regex requires a string pattern", domain.ErrInvalidArgument)
	}
	if opts, ok := options.(string); ok && opts != "" {
		pattern = "(?" + opts + ")" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: bad $regex pattern: %v", domain.ErrInvalidArgument, err)
	}
	return func(values []interface{}, present bool) bool {
		if !present {
			return false
		}
		for _, v := range flattenArrays(values) {
			if s, ok := v.(string); ok && re.MatchString(s) {
				return true
			}
		}
		return false
	}, nil
}

// elemMatchMatcher matches array fields whose elements satisfy a
// sub-selector. An all-operator spec applies to scalar elements; anything
// else compiles as a full selector over document elements.
func elemMatchMatcher(target interface{}) (valueMatcher, error) {
	spec, ok := asDocument(target)
	if !ok {
		return nil, fmt.Errorf("%w: $elemMatch requires an object", domain.ErrInvalidArgument)
	}

	var elemMatch func(elem interface{}) bool
	if isOperatorObject(spec) {
		matchers, err := compileValueOperators(spec)
		if err != nil {
			return nil, err
		}
		elemMatch = func(elem interface{}) bool {
			single := []interface{}{elem}
			for _, m := range matchers {
				if !m(single, true) {
					return false
				}
			}
			return true
		}
	} else {
		sub, err := compileObject(spec)
		if err != nil {
			return nil, err
		}
		elemMatch = func(elem interface{}) bool {
			doc, ok := asDocument(elem)
			if !ok {
				return false
			}
			return sub.match(doc)
		}
	}

	return func(values []interface{}, present bool) bool {
		if !present {
			return false
		}
		for _, v := range values {
			arr, ok := v.([]interface{})
			if !ok {
				continue
			}
			for _, elem := range arr {
				if elemMatch(elem) {
					return true
				}
			}
		}
		return false
	}, nil
}

// flattenArrays expands array values by one level so scalar operators see
// both the array and its elements
func flattenArrays(values []interface{}) []interface{} {
	out := make([]interface{}, 0, len(values))
	for _, v := range values {
		out = append(out, v)
		if arr, ok := v.([]interface{}); ok {
			out = append(out, arr...)
		}
	}
	return out
}

func allOf(preds []predicate) predicate {
	return func(doc map[string]interface{}) bool {
		for _, p := range preds {
			if !p(doc) {
				return false
			}
		}
		return true
	}
}

func anyOf(preds []predicate) predicate {
	return func(doc map[string]interface{}) bool {
		for _, p := range preds {
			if p(doc) {
				return true
			}
		}
		return false
	}
}

func truthy(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case nil:
		return false
	case string:
		return t != ""
	default:
		if n, ok := toFloat64(v); ok {
			return n != 0
		}
		return true
	}
}
