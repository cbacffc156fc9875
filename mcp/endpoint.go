package mcp

import (
	"context"
	"encoding/json"
	"slices"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/flarexio/linesim"
)

type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      mcp.RequestId   `json:"id"`
	Method  mcp.MCPMethod   `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

func ErrorResponse(id mcp.RequestId, code int, message string) mcp.JSONRPCError {
	resp := mcp.JSONRPCError{
		JSONRPC: mcp.JSONRPC_VERSION,
		ID:      id,
	}

	resp.Error.Code = code
	resp.Error.Message = message

	return resp
}

type MCPEndpoint func(ctx context.Context, req JSONRPCRequest) mcp.JSONRPCMessage

const MCPSERVER_INSTRUCTIONS string = `linesim embeds text files line by line and ranks lines by cosine similarity.

Available tools:
- ingest_file: embed the new lines of a file and store them
- rebuild_collection: drop a file's collection and embed every line again
- compare_files: rank the lines of a target file against the first line of a source file

Files must be ingested before they can be compared.`

const (
	ToolIngestFile        = "ingest_file"
	ToolRebuildCollection = "rebuild_collection"
	ToolCompareFiles      = "compare_files"
)

func Tools() []mcp.Tool {
	return []mcp.Tool{
		mcp.NewTool(ToolIngestFile,
			mcp.WithDescription("Embed the lines of a text file that are not stored yet"),
			mcp.WithString("path",
				mcp.Required(),
				mcp.Description("Path of the text file, relative to the input root"),
			),
		),
		mcp.NewTool(ToolRebuildCollection,
			mcp.WithDescription("Drop the collection of a text file and embed every line again"),
			mcp.WithString("path",
				mcp.Required(),
				mcp.Description("Path of the text file, relative to the input root"),
			),
		),
		mcp.NewTool(ToolCompareFiles,
			mcp.WithDescription("Rank every line of the target file by similarity to the first line of the source file"),
			mcp.WithString("source",
				mcp.Required(),
				mcp.Description("Path of the source file, relative to the input root"),
			),
			mcp.WithString("target",
				mcp.Required(),
				mcp.Description("Path of the target file, relative to the input root"),
			),
		),
	}
}

func InitializeEndpoint(svc linesim.Service) MCPEndpoint {
	return func(ctx context.Context, req JSONRPCRequest) mcp.JSONRPCMessage {
		var params mcp.InitializeParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return ErrorResponse(req.ID, mcp.INVALID_PARAMS, err.Error())
		}

		protocolVersion := mcp.LATEST_PROTOCOL_VERSION
		if clientVersion := params.ProtocolVersion; clientVersion != "" {
			if slices.Contains(mcp.ValidProtocolVersions, clientVersion) {
				protocolVersion = clientVersion
			}
		}

		result := &mcp.InitializeResult{
			ProtocolVersion: protocolVersion,
			Capabilities: mcp.ServerCapabilities{
				Tools: &struct {
					ListChanged bool `json:"listChanged,omitempty"`
				}{},
			},
			ServerInfo: mcp.Implementation{
				Name:    "linesim",
				Version: "1.0.0",
			},
			Instructions: MCPSERVER_INSTRUCTIONS,
		}

		return mcp.JSONRPCResponse{
			JSONRPC: mcp.JSONRPC_VERSION,
			ID:      req.ID,
			Result:  result,
		}
	}
}

func PingEndpoint(svc linesim.Service) MCPEndpoint {
	return func(ctx context.Context, req JSONRPCRequest) mcp.JSONRPCMessage {
		return mcp.JSONRPCResponse{
			JSONRPC: mcp.JSONRPC_VERSION,
			ID:      req.ID,
			Result:  struct{}{}, // empty response
		}
	}
}

func ListToolsEndpoint(svc linesim.Service) MCPEndpoint {
	return func(ctx context.Context, req JSONRPCRequest) mcp.JSONRPCMessage {
		result := &mcp.ListToolsResult{
			Tools: Tools(),
		}

		return mcp.JSONRPCResponse{
			JSONRPC: mcp.JSONRPC_VERSION,
			ID:      req.ID,
			Result:  result,
		}
	}
}

func CallToolEndpoint(svc linesim.Service) MCPEndpoint {
	return func(ctx context.Context, req JSONRPCRequest) mcp.JSONRPCMessage {
		var params mcp.CallToolParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return ErrorResponse(req.ID, mcp.INVALID_PARAMS, err.Error())
		}

		callToolReq := mcp.CallToolRequest{
			Request: mcp.Request{
				Method: string(req.Method),
			},
			Params: params,
		}

		var (
			resp any
			err  error
		)

		switch params.Name {
		case ToolIngestFile, ToolRebuildCollection:
			path, e := callToolReq.RequireString("path")
			if e != nil {
				return ErrorResponse(req.ID, mcp.INVALID_PARAMS, e.Error())
			}

			if params.Name == ToolIngestFile {
				resp, err = svc.Ingest(ctx, path)
			} else {
				resp, err = svc.Rebuild(ctx, path)
			}

		case ToolCompareFiles:
			source, e := callToolReq.RequireString("source")
			if e != nil {
				return ErrorResponse(req.ID, mcp.INVALID_PARAMS, e.Error())
			}

			target, e := callToolReq.RequireString("target")
			if e != nil {
				return ErrorResponse(req.ID, mcp.INVALID_PARAMS, e.Error())
			}

			resp, err = svc.Compare(ctx, source, target)

		default:
			return ErrorResponse(req.ID, mcp.INVALID_PARAMS, "unknown tool: "+params.Name)
		}

		var result *mcp.CallToolResult
		if err != nil {
			result = mcp.NewToolResultError(err.Error())
		} else {
			bs, err := json.Marshal(resp)
			if err != nil {
				return ErrorResponse(req.ID, mcp.INTERNAL_ERROR, err.Error())
			}

			result = mcp.NewToolResultText(string(bs))
		}

		return mcp.JSONRPCResponse{
			JSONRPC: mcp.JSONRPC_VERSION,
			ID:      req.ID,
			Result:  result,
		}
	}
}
