package storage

import (
	"fmt"

	"github.com/adfharrison1/go-docdb/pkg/domain"
	"github.com/adfharrison1/go-docdb/pkg/objectid"
)

// Collection owns an ordered document sequence and the _id→position map
// over it. Every write keeps the two consistent, so cursors can treat both
// as a stable snapshot for the duration of one scan. Collections carry no
// locking of their own; the engine serializes access per collection.
type Collection struct {
	name       string
	docs       []domain.Document
	docIndexes map[string]int
}

// NewCollection creates an empty collection
func NewCollection(name string) *Collection {
	return &Collection{
		name:       name,
		docIndexes: make(map[string]int),
	}
}

// Name returns the collection name
func (c *Collection) Name() string {
	return c.name
}

// Len returns the number of documents
func (c *Collection) Len() int {
	return len(c.docs)
}

// Docs exposes the backing document sequence in insertion order. Read-only
// from the caller's perspective.
func (c *Collection) Docs() []domain.Document {
	return c.docs
}

// DocIndexes exposes the _id→position map. Read-only from the caller's
// perspective.
func (c *Collection) DocIndexes() map[string]int {
	return c.docIndexes
}

// DocID stringifies a document identifier value. ObjectIDs become their hex
// form; everything else uses its natural string representation.
func DocID(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case *objectid.ObjectID:
		return v.Hex()
	default:
		return fmt.Sprintf("%v", value)
	}
}

// Insert appends a document. A missing _id is populated with a fresh
// ObjectID; a duplicate _id is rejected.
func (c *Collection) Insert(doc domain.Document) (string, error) {
	idValue, ok := doc["_id"]
	if !ok || idValue == nil {
		idValue = objectid.New()
		doc["_id"] = idValue
	}
	id := DocID(idValue)

	if _, exists := c.docIndexes[id]; exists {
		return "", fmt.Errorf("%w: document with _id %s already exists in collection %s", domain.ErrInvalidArgument, id, c.name)
	}

	c.docIndexes[id] = len(c.docs)
	c.docs = append(c.docs, doc)
	return id, nil
}

// FindByID returns the document with the given stringified _id
func (c *Collection) FindByID(id string) (domain.Document, bool) {
	pos, ok := c.docIndexes[id]
	if !ok {
		return nil, false
	}
	return c.docs[pos], true
}

// UpdateByID applies a partial update to a document. The _id field is
// immutable and silently skipped.
func (c *Collection) UpdateByID(id string, updates domain.Document) (domain.Document, error) {
	pos, ok := c.docIndexes[id]
	if !ok {
		return nil, fmt.Errorf("%w: document with id %s in collection %s", domain.ErrNotFound, id, c.name)
	}
	doc := c.docs[pos]
	for key, value := range updates {
		if key != "_id" {
			doc[key] = value
		}
	}
	return doc, nil
}

// ReplaceByID swaps a document wholesale, preserving its _id and position
func (c *Collection) ReplaceByID(id string, doc domain.Document) (domain.Document, error) {
	pos, ok := c.docIndexes[id]
	if !ok {
		return nil, fmt.Errorf("%w: document with id %s in collection %s", domain.ErrNotFound, id, c.name)
	}
	doc["_id"] = c.docs[pos]["_id"]
	c.docs[pos] = doc
	return doc, nil
}

// DeleteByID removes a document and reindexes the positions of everything
// after it
func (c *Collection) DeleteByID(id string) (domain.Document, error) {
	pos, ok := c.docIndexes[id]
	if !ok {
		return nil, fmt.Errorf("%w: document with id %s in collection %s", domain.ErrNotFound, id, c.name)
	}
	doc := c.docs[pos]
	c.docs = append(c.docs[:pos], c.docs[pos+1:]...)
	delete(c.docIndexes, id)
	for i := pos; i < len(c.docs); i++ {
		c.docIndexes[DocID(c.docs[i]["_id"])] = i
	}
	return doc, nil
}

// Query creates a fresh cursor over this collection. The selector may be
// any form CompileSelector accepts; compilation errors surface on the first
// fetch.
func (c *Collection) Query(selector interface{}) *Cursor {
	return newCursor(c, selector)
}
