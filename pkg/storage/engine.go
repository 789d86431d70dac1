// Package storage implements the in-memory document store: collections
// holding ordered document sequences with _id position maps, the query
// cursor that executes compiled selectors over them, secondary index
// maintenance, and the optional single-file snapshot format.
package storage

import (
	"fmt"
	"sync"

	"github.com/adfharrison1/go-docdb/pkg/domain"
	"github.com/adfharrison1/go-docdb/pkg/indexing"
)

// CollectionLock provides per-collection concurrency control
type CollectionLock struct {
	mu sync.RWMutex
}

// StorageEngine manages named collections, serializing access per
// collection. Cursors assume a stable snapshot for the duration of one
// scan, so queries hold the collection read lock while materializing.
type StorageEngine struct {
	mu          sync.RWMutex
	collections map[string]*Collection
	indexEngine *indexing.IndexEngine

	// Per-collection locks for better concurrency
	collectionLocks map[string]*CollectionLock
	locksMu         sync.RWMutex

	// Configuration
	snapshotPath string
}

// NewStorageEngine creates a new storage engine
func NewStorageEngine(options ...StorageOption) *StorageEngine {
	engine := &StorageEngine{
		collections:     make(map[string]*Collection),
		indexEngine:     indexing.NewIndexEngine(),
		collectionLocks: make(map[string]*CollectionLock),
	}
	for _, option := range options {
		option(engine)
	}
	return engine
}

// GetIndexEngine returns the index engine instance
func (se *StorageEngine) GetIndexEngine() domain.IndexEngine {
	return se.indexEngine
}

// getOrCreateCollectionLock gets or creates a lock for a collection
func (se *StorageEngine) getOrCreateCollectionLock(collName string) *CollectionLock {
	se.locksMu.RLock()
	if lock, exists := se.collectionLocks[collName]; exists {
		se.locksMu.RUnlock()
		return lock
	}
	se.locksMu.RUnlock()

	se.locksMu.Lock()
	defer se.locksMu.Unlock()

	// Double-check in case another goroutine created it
	if lock, exists := se.collectionLocks[collName]; exists {
		return lock
	}

	lock := &CollectionLock{}
	se.collectionLocks[collName] = lock
	return lock
}

// withCollectionReadLock executes a function with a read lock on the specified collection
func (se *StorageEngine) withCollectionReadLock(collName string, fn func() error) error {
	lock := se.getOrCreateCollectionLock(collName)
	lock.mu.RLock()
	defer lock.mu.RUnlock()
	return fn()
}

// withCollectionWriteLock executes a function with a write lock on the specified collection
func (se *StorageEngine) withCollectionWriteLock(collName string, fn func() error) error {
	lock := se.getOrCreateCollectionLock(collName)
	lock.mu.Lock()
	defer lock.mu.Unlock()
	return fn()
}

// CreateCollection creates an empty collection
func (se *StorageEngine) CreateCollection(collName string) error {
	se.mu.Lock()
	defer se.mu.Unlock()
	if _, exists := se.collections[collName]; exists {
		return fmt.Errorf("%w: collection %s already exists", domain.ErrInvalidArgument, collName)
	}
	se.collections[collName] = NewCollection(collName)
	return nil
}

// GetCollection returns a collection by name
func (se *StorageEngine) GetCollection(collName string) (*Collection, error) {
	se.mu.RLock()
	defer se.mu.RUnlock()
	coll, exists := se.collections[collName]
	if !exists {
		return nil, fmt.Errorf("%w: collection %s", domain.ErrNotFound, collName)
	}
	return coll, nil
}

// getOrCreateCollection returns the collection, creating it on first write
func (se *StorageEngine) getOrCreateCollection(collName string) *Collection {
	se.mu.Lock()
	defer se.mu.Unlock()
	coll, exists := se.collections[collName]
	if !exists {
		coll = NewCollection(collName)
		se.collections[collName] = coll
	}
	return coll
}

// DropCollection removes a collection and its indexes
func (se *StorageEngine) DropCollection(collName string) error {
	se.mu.Lock()
	defer se.mu.Unlock()
	if _, exists := se.collections[collName]; !exists {
		return fmt.Errorf("%w: collection %s", domain.ErrNotFound, collName)
	}
	delete(se.collections, collName)
	se.indexEngine.DropCollection(collName)
	return nil
}

// ListCollections returns the names of all collections
func (se *StorageEngine) ListCollections() []string {
	se.mu.RLock()
	defer se.mu.RUnlock()
	names := make([]string, 0, len(se.collections))
	for name := range se.collections {
		names = append(names, name)
	}
	return names
}

// Insert adds a document to a collection, creating the collection if
// needed, and returns the stringified _id
func (se *StorageEngine) Insert(collName string, doc domain.Document) (string, error) {
	coll := se.getOrCreateCollection(collName)

	var id string
	err := se.withCollectionWriteLock(collName, func() error {
		var err error
		id, err = coll.Insert(doc)
		if err != nil {
			return err
		}
		se.indexEngine.UpdateForDocument(collName, id, nil, doc)
		return nil
	})
	return id, err
}

// GetByID retrieves a document by its stringified _id
func (se *StorageEngine) GetByID(collName, docID string) (domain.Document, error) {
	coll, err := se.GetCollection(collName)
	if err != nil {
		return nil, err
	}
	var doc domain.Document
	err = se.withCollectionReadLock(collName, func() error {
		found, ok := coll.FindByID(docID)
		if !ok {
			return fmt.Errorf("%w: document with id %s in collection %s", domain.ErrNotFound, docID, collName)
		}
		doc = found
		return nil
	})
	return doc, err
}

// UpdateByID applies a partial update and maintains indexes
func (se *StorageEngine) UpdateByID(collName, docID string, updates domain.Document) error {
	coll, err := se.GetCollection(collName)
	if err != nil {
		return err
	}
	return se.withCollectionWriteLock(collName, func() error {
		oldDoc, ok := coll.FindByID(docID)
		if !ok {
			return fmt.Errorf("%w: document with id %s in collection %s", domain.ErrNotFound, docID, collName)
		}
		before := oldDoc.Copy()
		updated, err := coll.UpdateByID(docID, updates)
		if err != nil {
			return err
		}
		se.indexEngine.UpdateForDocument(collName, docID, before, updated)
		return nil
	})
}

// ReplaceByID swaps a document wholesale and maintains indexes
func (se *StorageEngine) ReplaceByID(collName, docID string, doc domain.Document) error {
	coll, err := se.GetCollection(collName)
	if err != nil {
		return err
	}
	return se.withCollectionWriteLock(collName, func() error {
		oldDoc, ok := coll.FindByID(docID)
		if !ok {
			return fmt.Errorf("%w: document with id %s in collection %s", domain.ErrNotFound, docID, collName)
		}
		before := oldDoc.Copy()
		replaced, err := coll.ReplaceByID(docID, doc)
		if err != nil {
			return err
		}
		se.indexEngine.UpdateForDocument(collName, docID, before, replaced)
		return nil
	})
}

// DeleteByID removes a document and maintains indexes
func (se *StorageEngine) DeleteByID(collName, docID string) error {
	coll, err := se.GetCollection(collName)
	if err != nil {
		return err
	}
	return se.withCollectionWriteLock(collName, func() error {
		doc, err := coll.DeleteByID(docID)
		if err != nil {
			return err
		}
		se.indexEngine.UpdateForDocument(collName, docID, doc, nil)
		return nil
	})
}

// Find runs a full query through a cursor and returns the materialized
// results. Selector, sort and projection take any form their compilers
// accept; a negative limit means unbounded.
func (se *StorageEngine) Find(collName string, selector, sortSpec interface{}, projection map[string]interface{}, skip, limit int) ([]domain.Document, error) {
	coll, err := se.GetCollection(collName)
	if err != nil {
		return nil, err
	}

	var docs []domain.Document
	err = se.withCollectionReadLock(collName, func() error {
		cursor := coll.Query(selector).Project(projection)
		if sortSpec != nil {
			if _, err := cursor.Sort(sortSpec); err != nil {
				return err
			}
		}
		if _, err := cursor.Skip(skip); err != nil {
			return err
		}
		if _, err := cursor.Limit(limit); err != nil {
			return err
		}
		var err error
		docs, err = cursor.FetchAll()
		return err
	})
	return docs, err
}

// FindOne returns the first document matching a selector, or nil
func (se *StorageEngine) FindOne(collName string, selector interface{}) (domain.Document, error) {
	coll, err := se.GetCollection(collName)
	if err != nil {
		return nil, err
	}
	var doc domain.Document
	err = se.withCollectionReadLock(collName, func() error {
		var err error
		doc, err = coll.Query(selector).FetchOne()
		return err
	})
	return doc, err
}

// CreateIndex creates a secondary index and builds it over the existing
// documents
func (se *StorageEngine) CreateIndex(collName, fieldName string) error {
	coll := se.getOrCreateCollection(collName)
	return se.withCollectionWriteLock(collName, func() error {
		if err := se.indexEngine.CreateIndex(collName, fieldName); err != nil {
			return err
		}
		se.indexEngine.BuildForCollection(collName, fieldName, coll.Docs())
		return nil
	})
}

// DropIndex removes a secondary index
func (se *StorageEngine) DropIndex(collName, fieldName string) error {
	return se.withCollectionWriteLock(collName, func() error {
		return se.indexEngine.DropIndex(collName, fieldName)
	})
}

// GetIndexes returns the indexed field names of a collection
func (se *StorageEngine) GetIndexes(collName string) ([]string, error) {
	return se.indexEngine.GetIndexes(collName)
}

// FindByIndex answers an equality query on an indexed field from the
// inverted index
func (se *StorageEngine) FindByIndex(collName, fieldName string, value interface{}) ([]domain.Document, error) {
	coll, err := se.GetCollection(collName)
	if err != nil {
		return nil, err
	}
	var docs []domain.Document
	err = se.withCollectionReadLock(collName, func() error {
		ids, err := se.indexEngine.FindByIndex(collName, fieldName, value)
		if err != nil {
			return err
		}
		docs = make([]domain.Document, 0, len(ids))
		for _, id := range ids {
			if doc, ok := coll.FindByID(id); ok {
				docs = append(docs, doc)
			}
		}
		return nil
	})
	return docs, err
}
