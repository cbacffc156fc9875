package linesim

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/flarexio/linesim/embedding"
	"github.com/flarexio/linesim/vector"
)

// Service defines the core logic of linesim.
type Service interface {

	// Close releases the service.
	Close() error

	// Ingest embeds the lines of a file that are not stored yet and adds them
	// to the file's collection in one batch. A line that fails is skipped and
	// retried on the next run.
	Ingest(ctx context.Context, path string) (*IngestReport, error)

	// Rebuild drops the file's collection and embeds every line again.
	// Any provider failure aborts the rebuild before anything is written.
	Rebuild(ctx context.Context, path string) (*IngestReport, error)

	// Compare ranks every line of the target collection by cosine similarity
	// to the first stored line of the source collection.
	Compare(ctx context.Context, source string, target string) ([]SimilarityResult, error)
}

type ServiceMiddleware func(Service) Service

func NewService(cfg Config, db vector.VectorDB, embedder embedding.Embedder) Service {
	log := zap.L().With(
		zap.String("service", "linesim"),
		zap.String("model", embedder.Model()),
	)

	return &service{
		db:       db,
		embedder: embedder,
		cfg:      cfg,
		log:      log,
	}
}

type service struct {
	db       vector.VectorDB
	embedder embedding.Embedder

	cfg Config
	log *zap.Logger

	// serializes the exists-then-insert of ingestion across callers
	mu sync.RWMutex
}

func (svc *service) Close() error {
	return nil
}

func (svc *service) collectionName(path string) string {
	return CollectionName(path, svc.embedder.Model())
}

// resolve places a caller-supplied path under the input root. Absolute paths
// and paths leaving the root are rejected.
func (svc *service) resolve(path string) (string, error) {
	if !filepath.IsLocal(path) {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, path)
	}

	return filepath.Join(svc.cfg.Inputs.Root, path), nil
}

func (svc *service) Ingest(ctx context.Context, path string) (*IngestReport, error) {
	file, err := svc.resolve(path)
	if err != nil {
		return nil, err
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	lines, err := LoadLines(file)
	if err != nil {
		return nil, err
	}

	name := svc.collectionName(path)

	log := svc.log.With(
		zap.String("action", "ingest"),
		zap.String("path", path),
		zap.String("collection", name),
	)

	log.Info("processing file", zap.Int("lines", len(lines)))

	collection, err := svc.db.EnsureCollection(name)
	if err != nil {
		return nil, err
	}

	report := &IngestReport{
		Path:       path,
		Collection: name,
		Lines:      len(lines),
	}

	entries := make([]vector.Entry, 0)
	for _, line := range lines {
		log := log.With(
			zap.Int("line_number", line.LineNumber),
			zap.String("hash", line.Hash),
		)

		exists, err := collection.Exists(ctx, line.Hash)
		if err != nil {
			log.Error(err.Error())
			report.Failed++
			continue
		}

		if exists {
			log.Info("embedding exists, skipped")
			report.Skipped++
			continue
		}

		log.Info("creating embedding")

		vec, err := svc.embedder.Embed(ctx, line.Text)
		if err != nil {
			log.Error(err.Error())
			report.Failed++
			continue
		}

		entries = append(entries, line.Entry(vec))
	}

	if len(entries) > 0 {
		if err := collection.BatchUpsert(ctx, entries); err != nil {
			return nil, err
		}

		report.Embedded = len(entries)
		log.Info("embeddings stored", zap.Int("count", len(entries)))
	}

	return report, nil
}

func (svc *service) Rebuild(ctx context.Context, path string) (*IngestReport, error) {
	file, err := svc.resolve(path)
	if err != nil {
		return nil, err
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	lines, err := LoadLines(file)
	if err != nil {
		return nil, err
	}

	if max := svc.cfg.Rebuild.MaxLines; max > 0 && len(lines) > max {
		lines = lines[:max]
	}

	name := svc.collectionName(path)

	log := svc.log.With(
		zap.String("action", "rebuild"),
		zap.String("path", path),
		zap.String("collection", name),
	)

	entries := make([]vector.Entry, 0, len(lines))
	for _, line := range lines {
		vec, err := svc.embedder.Embed(ctx, line.Text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line.LineNumber, err)
		}

		log.Info("embedding created",
			zap.Int("line_number", line.LineNumber),
			zap.Int("dimensions", len(vec)),
		)

		entries = append(entries, line.Entry(vec))
	}

	if err := svc.db.DropCollection(name); err != nil {
		return nil, err
	}

	collection, err := svc.db.EnsureCollection(name)
	if err != nil {
		return nil, err
	}

	if err := collection.BatchUpsert(ctx, entries); err != nil {
		return nil, err
	}

	return &IngestReport{
		Path:       path,
		Collection: name,
		Lines:      len(lines),
		Embedded:   len(entries),
	}, nil
}

func (svc *service) Compare(ctx context.Context, source string, target string) ([]SimilarityResult, error) {
	for _, path := range []string{source, target} {
		if _, err := svc.resolve(path); err != nil {
			return nil, err
		}
	}

	svc.mu.RLock()
	defer svc.mu.RUnlock()

	sourceCollection, err := svc.db.Collection(svc.collectionName(source))
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", source, err)
	}

	sourceEntries, err := sourceCollection.ScanAll(ctx, vector.FieldEmbeddings, vector.FieldMetadatas)
	if err != nil {
		return nil, err
	}

	if len(sourceEntries) == 0 {
		return nil, fmt.Errorf("source %s: %w", source, ErrEmptyResult)
	}

	reference := sourceEntries[0].Embedding

	targetCollection, err := svc.db.Collection(svc.collectionName(target))
	if err != nil {
		return nil, fmt.Errorf("target %s: %w", target, err)
	}

	targetEntries, err := targetCollection.ScanAll(ctx)
	if err != nil {
		return nil, err
	}

	if len(targetEntries) == 0 {
		return nil, fmt.Errorf("target %s: %w", target, ErrEmptyResult)
	}

	return Rank(reference, targetEntries)
}
