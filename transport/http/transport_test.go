package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flarexio/linesim"
	"github.com/flarexio/linesim/persistence/chromem"
	"github.com/flarexio/linesim/vector"

	mcpE "github.com/flarexio/linesim/mcp"
)

type stubService struct{}

func (s *stubService) Close() error {
	return nil
}

func (s *stubService) Ingest(ctx context.Context, path string) (*linesim.IngestReport, error) {
	if path == "missing.txt" {
		return nil, fmt.Errorf("%w: %s", linesim.ErrFileNotFound, path)
	}

	return &linesim.IngestReport{Path: path, Lines: 3, Embedded: 3}, nil
}

func (s *stubService) Rebuild(ctx context.Context, path string) (*linesim.IngestReport, error) {
	return &linesim.IngestReport{Path: path, Lines: 1, Embedded: 1}, nil
}

func (s *stubService) Compare(ctx context.Context, source string, target string) ([]linesim.SimilarityResult, error) {
	if target == "unknown.txt" {
		return nil, fmt.Errorf("target %s: %w", target, vector.ErrCollectionNotFound)
	}

	return []linesim.SimilarityResult{
		{Text: source, Score: 1, LineNumber: 1},
		{Text: target, Score: 0.5, LineNumber: 2},
	}, nil
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	svc := &stubService{}

	r := gin.New()
	AddRouters(r, linesim.MakeEndpoints(svc))

	endpoints := make(map[mcp.MCPMethod]mcpE.MCPEndpoint)
	endpoints[mcp.MethodToolsList] = mcpE.ListToolsEndpoint(svc)
	AddStreamableRouters(r, endpoints)

	return r
}

func serve(r *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIngestHandler(t *testing.T) {
	assert := assert.New(t)
	r := newRouter()

	w := serve(r, http.MethodPost, "/api/ingest", `{"path":"novel/a.txt"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var report linesim.IngestReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal("novel/a.txt", report.Path)
	assert.Equal(3, report.Embedded)

	w = serve(r, http.MethodPost, "/api/ingest", `{}`)
	assert.Equal(http.StatusBadRequest, w.Code)

	w = serve(r, http.MethodPost, "/api/ingest", `{"path":"missing.txt"}`)
	assert.Equal(http.StatusNotFound, w.Code)
}

func TestRebuildHandler(t *testing.T) {
	r := newRouter()

	w := serve(r, http.MethodPost, "/api/rebuild", `{"path":"novel/a.txt"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var report linesim.IngestReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, 1, report.Embedded)
}

func TestCompareHandler(t *testing.T) {
	assert := assert.New(t)
	r := newRouter()

	w := serve(r, http.MethodGet, "/api/compare?source=a.txt&target=b.txt", "")
	require.Equal(t, http.StatusOK, w.Code)

	var results []linesim.SimilarityResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
	require.Len(t, results, 2)
	assert.Equal("a.txt", results[0].Text)
	assert.Equal("b.txt", results[1].Text)

	w = serve(r, http.MethodGet, "/api/compare?source=a.txt", "")
	assert.Equal(http.StatusBadRequest, w.Code)

	w = serve(r, http.MethodGet, "/api/compare?source=a.txt&target=unknown.txt", "")
	assert.Equal(http.StatusNotFound, w.Code)
}

func TestMCPStreamableHandler(t *testing.T) {
	assert := assert.New(t)
	r := newRouter()

	w := serve(r, http.MethodPost, "/mcp/", `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}

	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Result.Tools, 3)
	assert.Equal(mcpE.ToolIngestFile, resp.Result.Tools[0].Name)

	w = serve(r, http.MethodPost, "/mcp/", `{"jsonrpc":"2.0","id":2,"method":"prompts/list"}`)
	assert.Equal(http.StatusNotFound, w.Code)
}

type constantEmbedder struct{}

func (constantEmbedder) Model() string {
	return "constant"
}

func (constantEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 1}, nil
}

func TestPathsOutsideInputRoot(t *testing.T) {
	assert := assert.New(t)
	gin.SetMode(gin.TestMode)

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("alpha\nbeta"), 0644))

	db, err := chromem.NewChromemVectorDB(vector.Config{})
	require.NoError(t, err)

	cfg := linesim.Config{}
	cfg.Inputs.Root = root
	cfg.ApplyDefaults()

	svc := linesim.NewService(cfg, db, constantEmbedder{})

	r := gin.New()
	AddRouters(r, linesim.MakeEndpoints(svc))

	w := serve(r, http.MethodPost, "/api/ingest", `{"path":"/etc/passwd"}`)
	assert.Equal(http.StatusBadRequest, w.Code)

	w = serve(r, http.MethodPost, "/api/rebuild", `{"path":"../../etc/passwd"}`)
	assert.Equal(http.StatusBadRequest, w.Code)

	w = serve(r, http.MethodGet, "/api/compare?source=/etc/passwd&target=/etc/passwd", "")
	assert.Equal(http.StatusBadRequest, w.Code)
	assert.NotContains(w.Body.String(), "root:")

	w = serve(r, http.MethodPost, "/api/ingest", `{"path":"a.txt"}`)
	assert.Equal(http.StatusOK, w.Code)

	w = serve(r, http.MethodGet, "/api/compare?source=a.txt&target=a.txt", "")
	assert.Equal(http.StatusOK, w.Code)
}
