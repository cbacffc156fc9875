package linesim

import (
	"context"
	"errors"

	"github.com/go-kit/kit/endpoint"
)

type EndpointSet struct {
	Ingest  endpoint.Endpoint
	Rebuild endpoint.Endpoint
	Compare endpoint.Endpoint
}

func MakeEndpoints(svc Service) EndpointSet {
	return EndpointSet{
		Ingest:  IngestEndpoint(svc),
		Rebuild: RebuildEndpoint(svc),
		Compare: CompareEndpoint(svc),
	}
}

type IngestRequest struct {
	Path string `json:"path" form:"path"`
}

func IngestEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(IngestRequest)
		if !ok {
			return nil, errors.New("invalid request type")
		}

		return svc.Ingest(ctx, req.Path)
	}
}

func RebuildEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(IngestRequest)
		if !ok {
			return nil, errors.New("invalid request type")
		}

		return svc.Rebuild(ctx, req.Path)
	}
}

type CompareRequest struct {
	Source string `json:"source" form:"source"`
	Target string `json:"target" form:"target"`
}

func CompareEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(CompareRequest)
		if !ok {
			return nil, errors.New("invalid request type")
		}

		return svc.Compare(ctx, req.Source, req.Target)
	}
}
