package domain

// Document represents a document in the database
type Document map[string]interface{}

// Copy returns a shallow copy of the document
func (d Document) Copy() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Has reports whether the document has a top-level field
func (d Document) Has(field string) bool {
	_, ok := d[field]
	return ok
}
