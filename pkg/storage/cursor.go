package storage

import (
	"fmt"

	"github.com/adfharrison1/go-docdb/pkg/domain"
	"github.com/adfharrison1/go-docdb/pkg/query"
)

// Cursor executes one query over a collection: compiled selector, optional
// compiled sort, optional projection, and skip/limit pagination. The scan
// runs once on first fetch and the results are cached; Rewind discards the
// cache and returns the cursor to fresh. A cursor is mutable, unshared
// state — concurrent use from multiple goroutines must be serialized by the
// caller.
type Cursor struct {
	coll       *Collection
	selector   *query.Selector
	compileErr error

	sortSpec    *query.Sort
	sortPending bool

	projection map[string]interface{}
	skip       int
	limit      int

	results      []domain.Document
	materialized bool
	sorted       bool
	pos          int
}

func newCursor(coll *Collection, selector interface{}) *Cursor {
	c := &Cursor{
		coll:  coll,
		limit: -1,
	}
	c.selector, c.compileErr = query.CompileSelector(selector)
	return c
}

// Rewind discards the cached results and scan position, returning the
// cursor to its fresh state. A pending sort specification survives and
// applies to the next materialization.
func (c *Cursor) Rewind() *Cursor {
	c.results = nil
	c.materialized = false
	c.sorted = false
	c.pos = 0
	if c.sortSpec != nil {
		c.sortPending = true
	}
	return c
}

// Sort controls ordering. With a spec, it compiles the comparator for the
// next materialization — lazily, without touching an already-cached result
// set. With no arguments, it physically re-sorts the cached results in
// place using the previously compiled comparator, and fails with a state
// error if nothing has been fetched yet.
func (c *Cursor) Sort(spec ...interface{}) (*Cursor, error) {
	if len(spec) > 1 {
		return c, fmt.Errorf("%w: sort takes at most one specification", domain.ErrValidation)
	}
	if len(spec) == 1 {
		s, err := query.CompileSort(spec[0])
		if err != nil {
			return c, err
		}
		c.sortSpec = s
		c.sortPending = true
		// the cached order no longer reflects the comparator
		c.sorted = false
		return c, nil
	}

	if !c.materialized {
		return c, fmt.Errorf("%w: sort() with no spec requires fetched results", domain.ErrState)
	}
	if c.sortSpec == nil {
		return c, fmt.Errorf("%w: no sort specification has been compiled", domain.ErrState)
	}
	if !c.sorted {
		c.sortSpec.Apply(c.results)
		c.sorted = true
	}
	return c, nil
}

// Skip sets the number of leading results to drop. Fails with a validation
// error unless n is numeric.
func (c *Cursor) Skip(n interface{}) (*Cursor, error) {
	v, ok := toInt(n)
	if !ok {
		return c, fmt.Errorf("%w: skip requires a number, got %T", domain.ErrValidation, n)
	}
	c.skip = v
	return c, nil
}

// Limit caps the number of results. A negative limit means unbounded.
// Fails with a validation error unless n is numeric.
func (c *Cursor) Limit(n interface{}) (*Cursor, error) {
	v, ok := toInt(n)
	if !ok {
		return c, fmt.Errorf("%w: limit requires a number, got %T", domain.ErrValidation, n)
	}
	c.limit = v
	return c, nil
}

// Project sets the projection specification applied to matched documents
func (c *Cursor) Project(spec map[string]interface{}) *Cursor {
	c.projection = spec
	return c
}

// FetchAll materializes the cursor and returns the full result set. Repeat
// calls return the cached results without rescanning.
func (c *Cursor) FetchAll() ([]domain.Document, error) {
	if err := c.materialize(); err != nil {
		return nil, err
	}
	return c.results, nil
}

// Fetch is FetchAll under its compatibility name
func (c *Cursor) Fetch() ([]domain.Document, error) {
	return c.FetchAll()
}

// FetchOne returns the first matching document, or nil when nothing
// matches. On a fresh cursor it scans only as far as the first match and
// leaves the cursor unmaterialized; sort and pagination do not apply.
func (c *Cursor) FetchOne() (domain.Document, error) {
	if c.compileErr != nil {
		return nil, c.compileErr
	}
	if c.materialized {
		if len(c.results) == 0 {
			return nil, nil
		}
		return c.results[0], nil
	}

	if doc, ok, done := c.pointLookup(); done {
		if !ok {
			return nil, nil
		}
		return doc, nil
	}

	for _, doc := range c.coll.docs {
		if c.selector.Match(doc) {
			return applyProjection(doc, c.projection), nil
		}
	}
	return nil, nil
}

// Count materializes the cursor and returns the number of results after
// pagination has been applied
func (c *Cursor) Count() (int, error) {
	if err := c.materialize(); err != nil {
		return 0, err
	}
	return len(c.results), nil
}

// ForEach invokes fn once per document in final order
func (c *Cursor) ForEach(fn func(domain.Document)) error {
	docs, err := c.FetchAll()
	if err != nil {
		return err
	}
	for _, doc := range docs {
		fn(doc)
	}
	return nil
}

// Map collects fn's return values in final order
func (c *Cursor) Map(fn func(domain.Document) interface{}) ([]interface{}, error) {
	docs, err := c.FetchAll()
	if err != nil {
		return nil, err
	}
	out := make([]interface{}, 0, len(docs))
	for _, doc := range docs {
		out = append(out, fn(doc))
	}
	return out, nil
}

// HasNext reports whether Next will return another document
func (c *Cursor) HasNext() (bool, error) {
	if err := c.materialize(); err != nil {
		return false, err
	}
	return c.pos < len(c.results), nil
}

// Next returns the next document in final order. Once the cursor is
// exhausted it fails with a state error; Rewind resets the position.
func (c *Cursor) Next() (domain.Document, error) {
	if err := c.materialize(); err != nil {
		return nil, err
	}
	if c.pos >= len(c.results) {
		return nil, fmt.Errorf("%w: cursor exhausted", domain.ErrState)
	}
	doc := c.results[c.pos]
	c.pos++
	return doc, nil
}

// pointLookup answers an _id-equality selector from the position map. The
// third result reports whether the fast path applied at all; when it did,
// sort, skip, limit and projection are bypassed — a point lookup has at
// most one result.
func (c *Cursor) pointLookup() (domain.Document, bool, bool) {
	idValue, ok := c.selector.IDLookup()
	if !ok {
		return nil, false, false
	}
	pos, ok := c.coll.docIndexes[idValue]
	if !ok {
		return nil, false, true
	}
	return c.coll.docs[pos], true, true
}

// materialize runs the scan exactly once: filter in stored order, project,
// apply any pending sort, then slice the skip/limit window.
func (c *Cursor) materialize() error {
	if c.compileErr != nil {
		return c.compileErr
	}
	if c.materialized {
		return nil
	}

	if doc, ok, done := c.pointLookup(); done {
		if ok {
			c.results = []domain.Document{doc}
		} else {
			c.results = []domain.Document{}
		}
		c.materialized = true
		c.sortPending = false
		return nil
	}

	matched := make([]domain.Document, 0)
	for _, doc := range c.coll.docs {
		if c.selector.Match(doc) {
			matched = append(matched, applyProjection(doc, c.projection))
		}
	}

	// Sort before paginating; a skip/limit window over unsorted results
	// would be meaningless.
	if c.sortSpec != nil && c.sortPending {
		c.sortSpec.Apply(matched)
		c.sortPending = false
		c.sorted = true
	}

	c.results = paginate(matched, c.skip, c.limit)
	c.materialized = true
	return nil
}

// paginate slices the skip/limit window over a result set
func paginate(docs []domain.Document, skip, limit int) []domain.Document {
	start := skip
	if start < 0 {
		start = 0
	}
	if start > len(docs) {
		start = len(docs)
	}
	end := len(docs)
	if limit >= 0 && start+limit < end {
		end = start + limit
	}
	return docs[start:end]
}

// applyProjection shapes a matched document. A nil spec passes the document
// through. Any included field other than _id makes the whole spec an
// inclusion list (inclusion wins on mixed specs); otherwise listed fields
// are excluded. _id is included by default and dropped only when the spec
// excludes it explicitly.
func applyProjection(doc domain.Document, spec map[string]interface{}) domain.Document {
	if len(spec) == 0 {
		return doc
	}

	inclusion := false
	for field, v := range spec {
		if field != "_id" && included(v) {
			inclusion = true
			break
		}
	}

	out := make(domain.Document)
	if inclusion {
		for field, v := range spec {
			if !included(v) {
				continue
			}
			if value, ok := doc[field]; ok {
				out[field] = value
			}
		}
		if idSpec, listed := spec["_id"]; !listed || included(idSpec) {
			if id, ok := doc["_id"]; ok {
				out["_id"] = id
			}
		}
		return out
	}

	for field, value := range doc {
		if v, listed := spec[field]; listed && !included(v) {
			continue
		}
		out[field] = value
	}
	return out
}

// included interprets a projection direction: positive numbers and true
// include, zero, negative numbers and false exclude
func included(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	default:
		if n, ok := toInt(v); ok {
			return n > 0
		}
		return false
	}
}

// toInt accepts any numeric value without a fractional part
func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		return int(n), true
	case float32:
		if float32(int(n)) == n {
			return int(n), true
		}
		return 0, false
	case float64:
		if float64(int(n)) == n {
			return int(n), true
		}
		return 0, false
	default:
		return 0, false
	}
}
