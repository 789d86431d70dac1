package query

import (
	"sort"
	"strings"

	"github.com/adfharrison1/go-docdb/pkg/domain"
	"github.com/adfharrison1/go-docdb/pkg/objectid"
)

// Kind is the runtime type tag of a document value, ordered by cross-type
// rank. Values of different kinds compare by rank alone; values of the same
// kind compare natively. The ranking mirrors BSON type ordering:
// null < number < string < document < array < ObjectID < bool.
type Kind int

const (
	KindNull Kind = iota
	KindNumber
	KindString
	KindDocument
	KindArray
	KindObjectID
	KindBool
)

// String returns the $type name for the kind
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindDocument:
		return "object"
	case KindArray:
		return "array"
	case KindObjectID:
		return "objectId"
	case KindBool:
		return "bool"
	}
	return "unknown"
}

// KindOf returns the type tag for a document value
func KindOf(v interface{}) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBool
	case string:
		return KindString
	case []interface{}:
		return KindArray
	case map[string]interface{}, domain.Document:
		return KindDocument
	case *objectid.ObjectID:
		return KindObjectID
	default:
		if _, ok := toFloat64(v); ok {
			return KindNumber
		}
		// Unknown Go types sink to the string form of their value so the
		// order stays total.
		return KindString
	}
}

// toFloat64 converts any numeric type to float64 for comparison
func toFloat64(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}

func asDocument(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case domain.Document:
		return m, true
	case map[string]interface{}:
		return m, true
	default:
		return nil, false
	}
}

// Compare defines a deterministic total order over all document values and
// returns -1, 0 or 1. Different kinds order by rank; equal kinds compare
// natively (numbers through float64 coercion, documents by sorted key list
// then values, arrays element-wise then by length, identifiers byte-wise).
func Compare(a, b interface{}) int {
	ka, kb := KindOf(a), KindOf(b)
	if ka != kb {
		if ka < kb {
			return -1
		}
		return 1
	}

	switch ka {
	case KindNull:
		return 0
	case KindNumber:
		fa, _ := toFloat64(a)
		fb, _ := toFloat64(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	case KindString:
		return strings.Compare(stringValue(a), stringValue(b))
	case KindBool:
		ba, bb := a.(bool), b.(bool)
		switch {
		case ba == bb:
			return 0
		case !ba:
			return -1
		default:
			return 1
		}
	case KindObjectID:
		oa, ob := a.(*objectid.ObjectID), b.(*objectid.ObjectID)
		return strings.Compare(oa.Hex(), ob.Hex())
	case KindArray:
		aa, ab := a.([]interface{}), b.([]interface{})
		for i := 0; i < len(aa) && i < len(ab); i++ {
			if c := Compare(aa[i], ab[i]); c != 0 {
				return c
			}
		}
		switch {
		case len(aa) < len(ab):
			return -1
		case len(aa) > len(ab):
			return 1
		default:
			return 0
		}
	case KindDocument:
		da, _ := asDocument(a)
		db, _ := asDocument(b)
		keysA, keysB := sortedKeys(da), sortedKeys(db)
		for i := 0; i < len(keysA) && i < len(keysB); i++ {
			if c := strings.Compare(keysA[i], keysB[i]); c != 0 {
				return c
			}
			if c := Compare(da[keysA[i]], db[keysB[i]]); c != 0 {
				return c
			}
		}
		switch {
		case len(keysA) < len(keysB):
			return -1
		case len(keysA) > len(keysB):
			return 1
		default:
			return 0
		}
	}
	return 0
}

// Equal is deep structural equality under the Compare order. An ObjectID
// also equals its own hex string so identifier fields match either form.
func Equal(a, b interface{}) bool {
	if ida, ok := a.(*objectid.ObjectID); ok {
		if ida.Equal(b) {
			return true
		}
	}
	if idb, ok := b.(*objectid.ObjectID); ok {
		if idb.Equal(a) {
			return true
		}
	}
	return Compare(a, b) == 0
}

func stringValue(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	type stringer interface{ String() string }
	if s, ok := v.(stringer); ok {
		return s.String()
	}
	return ""
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
