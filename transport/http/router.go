package http

import (
	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/flarexio/linesim"

	mcpE "github.com/flarexio/linesim/mcp"
)

func AddRouters(r *gin.Engine, endpoints linesim.EndpointSet) {
	api := r.Group("/api")
	{
		api.POST("/ingest", IngestHandler(endpoints.Ingest))
		api.POST("/rebuild", IngestHandler(endpoints.Rebuild))
		api.GET("/compare", CompareHandler(endpoints.Compare))
	}
}

func AddStreamableRouters(r *gin.Engine, endpoints map[mcp.MCPMethod]mcpE.MCPEndpoint) {
	mcp := r.Group("/mcp")
	{
		mcp.POST("/", MCPStreamableHandler(endpoints))
	}
}
