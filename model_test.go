package linesim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/flarexio/linesim/embedding"
	"github.com/flarexio/linesim/vector"
)

func TestContentHash(t *testing.T) {
	assert := assert.New(t)

	hash := ContentHash("hello", 1)
	assert.Len(hash, 32)
	assert.Equal(hash, ContentHash("hello", 1))
	assert.NotEqual(hash, ContentHash("hello", 2))
	assert.NotEqual(hash, ContentHash("hello!", 1))
}

func TestCollectionName(t *testing.T) {
	assert := assert.New(t)

	name := CollectionName("novel/Ncomic_生贄姫.txt", "text-embedding-3-small")

	assert.Regexp(`^collection_[0-9a-f]{8}_text-embedding-3-small$`, name)
	assert.Equal(name, CollectionName("/elsewhere/Ncomic_生贄姫.md", "text-embedding-3-small"))
	assert.NotEqual(name, CollectionName("novel/Ncomic_生贄姫.txt", "text-embedding-3-large"))
	assert.NotEqual(name, CollectionName("document/all_simple.txt", "text-embedding-3-small"))
}

func TestLineEntry(t *testing.T) {
	assert := assert.New(t)

	line := NewLine("hello", 4)
	entry := line.Entry([]float32{1, 2})

	assert.Equal(line.Hash, entry.ID)
	assert.Equal("hello", entry.Document)
	assert.Equal([]float32{1, 2}, entry.Embedding)
	assert.Equal(line.Hash, entry.Metadata[vector.MetadataHash])
	assert.Equal("4", entry.Metadata[vector.MetadataLineNumber])
}

func TestLoadLines(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "input.txt")
	content := "  first  \n\n\t\nsecond\r\nfirst\n   \nlast"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	lines, err := LoadLines(path)
	require.NoError(t, err)
	require.Len(t, lines, 4)

	assert.Equal("first", lines[0].Text)
	assert.Equal(1, lines[0].LineNumber)
	assert.Equal("second", lines[1].Text)
	assert.Equal(4, lines[1].LineNumber)
	assert.Equal("first", lines[2].Text)
	assert.Equal(5, lines[2].LineNumber)
	assert.Equal("last", lines[3].Text)
	assert.Equal(7, lines[3].LineNumber)

	assert.NotEqual(lines[0].Hash, lines[2].Hash)
}

func TestLoadLinesBlankFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blank.txt")
	require.NoError(t, os.WriteFile(path, []byte("\n  \n\t\n"), 0644))

	lines, err := LoadLines(path)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestLoadLinesStripsByteOrderMark(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bom.txt")
	require.NoError(t, os.WriteFile(path, []byte("\xEF\xBB\xBFfirst\nsecond"), 0644))

	lines, err := LoadLines(path)
	require.NoError(t, err)
	require.Len(t, lines, 2)

	assert.Equal(t, "first", lines[0].Text)
	assert.Equal(t, ContentHash("first", 1), lines[0].Hash)
}

func TestLoadLinesInvalidEncoding(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latin1.txt")
	require.NoError(t, os.WriteFile(path, []byte("caf\xE9\n"), 0644))

	_, err := LoadLines(path)
	assert.ErrorIs(t, err, ErrInvalidEncoding)
}

func TestLoadLinesNotFound(t *testing.T) {
	_, err := LoadLines(filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestConfigYAMLUnmarshal(t *testing.T) {
	assert := assert.New(t)

	input := `inputs:
  root: data
  files:
    - novel/a.txt
  source: novel/a.txt
  target: document/b.txt
rebuild:
  maxLines: 5
embedding:
  model: text-embedding-3-large
  maxRetries: 3
vector:
  persistent: true
  path: /tmp/vectors`

	var cfg Config
	if err := yaml.Unmarshal([]byte(input), &cfg); err != nil {
		assert.Fail(err.Error())
		return
	}

	cfg.ApplyDefaults()

	assert.Equal("data", cfg.Inputs.Root)
	assert.Equal([]string{"novel/a.txt", "document/b.txt"}, cfg.Inputs.Inputs())
	assert.False(cfg.Rebuild.Enabled)
	assert.Equal(5, cfg.Rebuild.MaxLines)
	assert.Equal("text-embedding-3-large", cfg.Embedding.Model)
	assert.True(cfg.Vector.Persistent)
	assert.Equal("/tmp/vectors", cfg.Vector.Path)
}

func TestConfigEnv(t *testing.T) {
	assert := assert.New(t)

	env := map[string]string{
		EnvAPIKey:         "sk-test",
		EnvEmbeddingModel: "text-embedding-ada-002",
	}

	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	var cfg Config
	cfg.ApplyDefaults()
	assert.Equal(embedding.DefaultModel, cfg.Embedding.Model)
	assert.Equal("chroma_db", cfg.Vector.Path)
	assert.Equal(".", cfg.Inputs.Root)

	cfg.ApplyEnv(lookup)
	assert.Equal("sk-test", cfg.Embedding.APIKey)
	assert.Equal("text-embedding-ada-002", cfg.Embedding.Model)
	assert.NoError(cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	assert := assert.New(t)

	var cfg Config
	assert.ErrorIs(cfg.Validate(), ErrConfiguration)

	cfg.Embedding.APIKey = "sk-test"
	cfg.Rebuild.MaxLines = -1
	assert.ErrorIs(cfg.Validate(), ErrConfiguration)
}
