package vector

import (
	"context"
	"errors"
)

var (
	ErrCollectionNotFound = errors.New("collection not found")
	ErrInvalidEntry       = errors.New("invalid entry")
)

const (
	MetadataHash       = "hash"
	MetadataLineNumber = "line_number"
)

type Config struct {
	Persistent bool   `yaml:"persistent"`
	Path       string `yaml:"path"`
	Compress   bool   `yaml:"compress"`
}

type VectorDB interface {
	// EnsureCollection opens the named collection, creating an empty one if absent.
	EnsureCollection(name string) (Collection, error)

	// Collection opens an existing collection or returns ErrCollectionNotFound.
	Collection(name string) (Collection, error)

	// DropCollection deletes the named collection. Dropping a missing collection is a no-op.
	DropCollection(name string) error
}

type Collection interface {
	Name() string
	Count() int
	Exists(ctx context.Context, hash string) (bool, error)
	BatchUpsert(ctx context.Context, entries []Entry) error
	ScanAll(ctx context.Context, fields ...Field) ([]Entry, error)
}

// Field selects the parts of an entry returned by a scan. IDs are always returned.
type Field int

const (
	FieldDocuments Field = 1 << iota
	FieldEmbeddings
	FieldMetadatas

	FieldAll = FieldDocuments | FieldEmbeddings | FieldMetadatas
)

func (f Field) Has(other Field) bool {
	return f&other != 0
}

// Fields folds the given selections into one mask; none means all.
func Fields(fields ...Field) Field {
	if len(fields) == 0 {
		return FieldAll
	}

	var mask Field
	for _, f := range fields {
		mask |= f
	}

	return mask
}

type Entry struct {
	ID        string            `json:"id"`
	Document  string            `json:"document,omitempty"`
	Embedding []float32         `json:"embedding,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}
