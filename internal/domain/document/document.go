package document

import (
	"fmt"
)

// MaxContentSize is the maximum document content size in bytes.
const MaxContentSize = 163840 // 160KB

// Document is an ingested news document (immutable value object).
// Once stored it is never updated or deleted.
type Document struct {
	id      string
	title   string
	content string
	vector  []float32
}

// New validates and creates a Document. The vector dimension must match dim;
// a mismatch here is data corruption, not a user error.
func New(id, title, content string, vector []float32, dim int) (Document, error) {
	if id == "" {
		return Document{}, fmt.Errorf("document ID is required")
	}
	if title == "" {
		return Document{}, fmt.Errorf("title is required")
	}
	if content == "" {
		return Document{}, fmt.Errorf("content is required")
	}
	if len(content) > MaxContentSize {
		return Document{}, fmt.Errorf("content too large (max %d bytes)", MaxContentSize)
	}
	if dim > 0 && len(vector) != dim {
		return Document{}, fmt.Errorf("vector has %d components, want %d", len(vector), dim)
	}

	return Document{id: id, title: title, content: content, vector: vector}, nil
}

// Reconstruct creates a Document without validation (storage hydration).
func Reconstruct(id, title, content string, vector []float32) Document {
	return Document{id: id, title: title, content: content, vector: vector}
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// Title returns the document title.
func (d *Document) Title() string { return d.title }

// Content returns the document text content.
func (d *Document) Content() string { return d.content }

// Vector returns the embedding vector.
func (d *Document) Vector() []float32 { return d.vector }
