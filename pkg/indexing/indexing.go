// Package indexing maintains inverted secondary indexes: field value →
// document ids. Indexes accelerate equality lookups on non-_id fields; the
// _id position map lives with the collection itself.
package indexing

import (
	"fmt"

	"github.com/adfharrison1/go-docdb/pkg/domain"
)

// IndexEngine implements domain.IndexEngine
type IndexEngine struct {
	indexes map[string]map[string]*Index // collection name -> field name -> index
}

// NewIndexEngine creates a new index engine
func NewIndexEngine() *IndexEngine {
	return &IndexEngine{
		indexes: make(map[string]map[string]*Index),
	}
}

// Index stores a mapping from a field's stringified value to document IDs.
// Values are stringified so composite values index consistently and the
// map survives snapshot round-trips.
type Index struct {
	Field    string
	Inverted map[string][]string
}

// NewIndex creates an index on a specific field
func NewIndex(field string) *Index {
	return &Index{
		Field:    field,
		Inverted: make(map[string][]string),
	}
}

func indexKey(value interface{}) string {
	return fmt.Sprintf("%v", value)
}

// Build indexes every document of a collection by the indexed field
func (idx *Index) Build(docs []domain.Document) {
	for _, doc := range docs {
		val, ok := doc[idx.Field]
		if !ok {
			continue
		}
		id, hasID := doc["_id"]
		if !hasID {
			continue
		}
		key := indexKey(val)
		idx.Inverted[key] = append(idx.Inverted[key], indexKey(id))
	}
}

// Query returns document IDs with the given value in the indexed field
func (idx *Index) Query(value interface{}) []string {
	return idx.Inverted[indexKey(value)]
}

// Update adjusts the index after an insert (oldDoc nil), update, or delete
// (newDoc nil)
func (idx *Index) Update(docID string, oldDoc, newDoc domain.Document) {
	if oldVal, ok := oldDoc[idx.Field]; ok {
		key := indexKey(oldVal)
		docList := idx.Inverted[key]
		for i, id := range docList {
			if id == docID {
				idx.Inverted[key] = append(docList[:i], docList[i+1:]...)
				break
			}
		}
		if len(idx.Inverted[key]) == 0 {
			delete(idx.Inverted, key)
		}
	}
	if newVal, ok := newDoc[idx.Field]; ok {
		key := indexKey(newVal)
		idx.Inverted[key] = append(idx.Inverted[key], docID)
	}
}

// CreateIndex creates an index on a specific field in a collection
func (ie *IndexEngine) CreateIndex(collectionName, fieldName string) error {
	if ie.indexes[collectionName] == nil {
		ie.indexes[collectionName] = make(map[string]*Index)
	}
	if _, exists := ie.indexes[collectionName][fieldName]; exists {
		return fmt.Errorf("%w: index on field %s already exists in collection %s", domain.ErrInvalidArgument, fieldName, collectionName)
	}
	ie.indexes[collectionName][fieldName] = NewIndex(fieldName)
	return nil
}

// DropIndex removes an index from a collection
func (ie *IndexEngine) DropIndex(collectionName, fieldName string) error {
	if ie.indexes[collectionName] == nil {
		return fmt.Errorf("%w: no indexes exist for collection %s", domain.ErrNotFound, collectionName)
	}
	if _, exists := ie.indexes[collectionName][fieldName]; !exists {
		return fmt.Errorf("%w: index on field %s in collection %s", domain.ErrNotFound, fieldName, collectionName)
	}
	delete(ie.indexes[collectionName], fieldName)
	return nil
}

// DropCollection removes every index of a collection
func (ie *IndexEngine) DropCollection(collectionName string) {
	delete(ie.indexes, collectionName)
}

// FindByIndex returns the document IDs matching a value on an indexed field
func (ie *IndexEngine) FindByIndex(collectionName, fieldName string, value interface{}) ([]string, error) {
	index, exists := ie.getIndex(collectionName, fieldName)
	if !exists {
		return nil, fmt.Errorf("%w: index on field %s in collection %s", domain.ErrNotFound, fieldName, collectionName)
	}
	return index.Query(value), nil
}

// GetIndexes returns all indexed field names for a collection
func (ie *IndexEngine) GetIndexes(collectionName string) ([]string, error) {
	collectionIndexes, exists := ie.indexes[collectionName]
	if !exists {
		return []string{}, nil
	}
	var indexNames []string
	for fieldName := range collectionIndexes {
		indexNames = append(indexNames, fieldName)
	}
	return indexNames, nil
}

// GetIndex returns an index for a specific field in a collection
func (ie *IndexEngine) GetIndex(collectionName, fieldName string) (*Index, bool) {
	return ie.getIndex(collectionName, fieldName)
}

func (ie *IndexEngine) getIndex(collectionName, fieldName string) (*Index, bool) {
	if collectionIndexes, exists := ie.indexes[collectionName]; exists {
		if index, exists := collectionIndexes[fieldName]; exists {
			return index, true
		}
	}
	return nil, false
}

// BuildForCollection (re)builds an index over a collection's documents
func (ie *IndexEngine) BuildForCollection(collectionName, fieldName string, docs []domain.Document) {
	if ie.indexes[collectionName] == nil {
		ie.indexes[collectionName] = make(map[string]*Index)
	}
	index := NewIndex(fieldName)
	index.Build(docs)
	ie.indexes[collectionName][fieldName] = index
}

// UpdateForDocument updates every index of a collection when a document
// changes
func (ie *IndexEngine) UpdateForDocument(collectionName, docID string, oldDoc, newDoc domain.Document) {
	if collectionIndexes, exists := ie.indexes[collectionName]; exists {
		for _, index := range collectionIndexes {
			index.Update(docID, oldDoc, newDoc)
		}
	}
}

// ExportFields returns the indexed field names per collection, for
// snapshots. Index contents are rebuilt on load.
func (ie *IndexEngine) ExportFields() map[string][]string {
	out := make(map[string][]string)
	for collName, collectionIndexes := range ie.indexes {
		for fieldName := range collectionIndexes {
			out[collName] = append(out[collName], fieldName)
		}
	}
	return out
}
