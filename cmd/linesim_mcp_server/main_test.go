package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mcpE "github.com/flarexio/linesim/mcp"
)

func TestStdioMCPServer(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	s := NewStdioMCPServer()
	require.NoError(s.AddEndpoint(mcp.MethodPing, func(ctx context.Context, req mcpE.JSONRPCRequest) mcp.JSONRPCMessage {
		return mcp.JSONRPCResponse{
			JSONRPC: mcp.JSONRPC_VERSION,
			ID:      req.ID,
			Result:  mcp.EmptyResult{},
		}
	}))

	err := s.AddEndpoint(mcp.MethodPing, nil)
	assert.Error(err)

	input := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"ping"}`,
		``,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"resources/list"}`,
		`not json`,
	}, "\n")

	var out bytes.Buffer
	err = s.Listen(context.Background(), strings.NewReader(input), &out)
	require.NoError(err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(lines, 3)

	var ping map[string]any
	require.NoError(json.Unmarshal([]byte(lines[0]), &ping))
	assert.Equal(float64(1), ping["id"])
	assert.NotContains(ping, "error")

	var missing struct {
		ID    int `json:"id"`
		Error struct {
			Code int `json:"code"`
		} `json:"error"`
	}
	require.NoError(json.Unmarshal([]byte(lines[1]), &missing))
	assert.Equal(2, missing.ID)
	assert.Equal(mcp.METHOD_NOT_FOUND, missing.Error.Code)

	var parse struct {
		Error struct {
			Code int `json:"code"`
		} `json:"error"`
	}
	require.NoError(json.Unmarshal([]byte(lines[2]), &parse))
	assert.Equal(mcp.PARSE_ERROR, parse.Error.Code)
}
