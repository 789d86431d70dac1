package domain

// IndexEngine defines the interface for secondary indexing operations
type IndexEngine interface {
	CreateIndex(collectionName, fieldName string) error
	DropIndex(collectionName, fieldName string) error
	FindByIndex(collectionName, fieldName string, value interface{}) ([]string, error)
	GetIndexes(collectionName string) ([]string, error)
}
