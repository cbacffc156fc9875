package chromem

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/philippgille/chromem-go"

	"github.com/flarexio/linesim/vector"
)

func NewChromemVectorDB(cfg vector.Config) (vector.VectorDB, error) {
	var db *chromem.DB
	if !cfg.Persistent {
		db = chromem.NewDB()
	} else {
		if err := os.MkdirAll(cfg.Path, 0755); err != nil {
			return nil, err
		}

		d, err := chromem.NewPersistentDB(cfg.Path, cfg.Compress)
		if err != nil {
			return nil, err
		}

		db = d
	}

	return &chromemVectorDB{db}, nil
}

type chromemVectorDB struct {
	db *chromem.DB
}

// Entries always carry their embeddings, so the collection never embeds on its own.
// Passing nil would make chromem fall back to its OpenAI default.
func noEmbedding(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("documents must be added with precomputed embeddings")
}

func (v *chromemVectorDB) EnsureCollection(name string) (vector.Collection, error) {
	c, err := v.db.GetOrCreateCollection(name, nil, noEmbedding)
	if err != nil {
		return nil, err
	}

	return &collection{v.db, c}, nil
}

func (v *chromemVectorDB) Collection(name string) (vector.Collection, error) {
	c := v.db.GetCollection(name, noEmbedding)
	if c == nil {
		return nil, fmt.Errorf("%w: %s", vector.ErrCollectionNotFound, name)
	}

	return &collection{v.db, c}, nil
}

func (v *chromemVectorDB) DropCollection(name string) error {
	return v.db.DeleteCollection(name)
}

type collection struct {
	db         *chromem.DB
	collection *chromem.Collection
}

func (c *collection) Name() string {
	return c.collection.Name
}

func (c *collection) Count() int {
	return c.collection.Count()
}

// Exists looks the hash up by document ID, since entries are stored under their hash.
func (c *collection) Exists(ctx context.Context, hash string) (bool, error) {
	if hash == "" {
		return false, fmt.Errorf("%w: empty hash", vector.ErrInvalidEntry)
	}

	doc, err := c.collection.GetByID(ctx, hash)
	if err != nil {
		return false, nil
	}

	return doc.ID == hash, nil
}

func (c *collection) BatchUpsert(ctx context.Context, entries []vector.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(entries))
	for i, entry := range entries {
		if entry.ID == "" {
			return fmt.Errorf("%w: entry %d has no id", vector.ErrInvalidEntry, i)
		}

		if len(entry.Embedding) == 0 {
			return fmt.Errorf("%w: entry %s has no embedding", vector.ErrInvalidEntry, entry.ID)
		}

		docs[i] = chromem.Document{
			ID:        entry.ID,
			Metadata:  entry.Metadata,
			Embedding: entry.Embedding,
			Content:   entry.Document,
		}
	}

	return c.collection.AddDocuments(ctx, docs, 1)
}

type exportedCollection struct {
	Name      string
	Metadata  map[string]string
	Documents map[string]*chromem.Document
}

type exportedDB struct {
	Collections map[string]*exportedCollection
}

// ScanAll reads every document of the collection through a gob export of the
// collection. Entries are ordered by line number, then by ID.
func (c *collection) ScanAll(ctx context.Context, fields ...vector.Field) ([]vector.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := c.collection.Name

	var buf bytes.Buffer
	if err := c.db.ExportToWriter(&buf, false, "", name); err != nil {
		return nil, err
	}

	var exported exportedDB
	if err := gob.NewDecoder(&buf).Decode(&exported); err != nil {
		return nil, err
	}

	col, ok := exported.Collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", vector.ErrCollectionNotFound, name)
	}

	mask := vector.Fields(fields...)

	type scanned struct {
		entry vector.Entry
		line  int
	}

	results := make([]scanned, 0, len(col.Documents))
	for id, doc := range col.Documents {
		if doc == nil {
			continue
		}

		line, _ := strconv.Atoi(doc.Metadata[vector.MetadataLineNumber])

		entry := vector.Entry{ID: id}
		if mask.Has(vector.FieldDocuments) {
			entry.Document = doc.Content
		}

		if mask.Has(vector.FieldEmbeddings) {
			entry.Embedding = doc.Embedding
		}

		if mask.Has(vector.FieldMetadatas) {
			entry.Metadata = doc.Metadata
		}

		results = append(results, scanned{entry, line})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].line != results[j].line {
			return results[i].line < results[j].line
		}

		return results[i].entry.ID < results[j].entry.ID
	})

	entries := make([]vector.Entry, len(results))
	for i, r := range results {
		entries[i] = r.entry
	}

	return entries, nil
}
