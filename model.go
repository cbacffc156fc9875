package linesim

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/flarexio/linesim/vector"
)

var (
	ErrConfiguration     = errors.New("invalid configuration")
	ErrFileNotFound      = errors.New("file not found")
	ErrEmptyResult       = errors.New("collection has no embeddings")
	ErrZeroNorm          = errors.New("vector has zero norm")
	ErrDimensionMismatch = errors.New("vector dimensions differ")
	ErrInvalidPath       = errors.New("invalid path")
	ErrInvalidEncoding   = errors.New("file is not valid UTF-8")
)

// Line is one non-blank line of an input file, numbered by its position in the file.
type Line struct {
	Text       string `json:"text"`
	LineNumber int    `json:"line_number"`
	Hash       string `json:"hash"`
}

func NewLine(text string, lineNumber int) Line {
	return Line{
		Text:       text,
		LineNumber: lineNumber,
		Hash:       ContentHash(text, lineNumber),
	}
}

func (l Line) Entry(embedding []float32) vector.Entry {
	return vector.Entry{
		ID:        l.Hash,
		Document:  l.Text,
		Embedding: embedding,
		Metadata: map[string]string{
			vector.MetadataHash:       l.Hash,
			vector.MetadataLineNumber: strconv.Itoa(l.LineNumber),
		},
	}
}

// ContentHash returns a 128-bit hex digest of the text and its position.
func ContentHash(text string, index int) string {
	hash := sha256.Sum256([]byte(text + "_" + strconv.Itoa(index)))
	return hex.EncodeToString(hash[:16])
}

// CollectionName derives a storage-safe collection name from the file's base
// name and the embedding model.
func CollectionName(path string, model string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	hash := sha256.Sum256([]byte(base))
	return "collection_" + hex.EncodeToString(hash[:4]) + "_" + model
}

type SimilarityResult struct {
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
	LineNumber int     `json:"line_number"`
}

type IngestReport struct {
	Path       string `json:"path"`
	Collection string `json:"collection"`
	Lines      int    `json:"lines"`
	Skipped    int    `json:"skipped"`
	Embedded   int    `json:"embedded"`
	Failed     int    `json:"failed"`
}
