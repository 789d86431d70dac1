package api

import (
	"github.com/adfharrison1/go-docdb/pkg/domain"
)

// Storage is the engine surface the HTTP handlers consume
type Storage interface {
	Insert(collName string, doc domain.Document) (string, error)
	GetByID(collName, docID string) (domain.Document, error)
	UpdateByID(collName, docID string, updates domain.Document) error
	ReplaceByID(collName, docID string, doc domain.Document) error
	DeleteByID(collName, docID string) error
	Find(collName string, selector, sortSpec interface{}, projection map[string]interface{}, skip, limit int) ([]domain.Document, error)
	FindOne(collName string, selector interface{}) (domain.Document, error)
	CreateIndex(collName, fieldName string) error
	DropIndex(collName, fieldName string) error
	GetIndexes(collName string) ([]string, error)
	FindByIndex(collName, fieldName string, value interface{}) ([]domain.Document, error)
}

// Handler provides HTTP handlers for the database API
type Handler struct {
	storage Storage
}

// NewHandler creates a new API handler with dependency injection
func NewHandler(storage Storage) *Handler {
	return &Handler{storage: storage}
}
