package nats

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/go-kit/kit/endpoint"
	"github.com/nats-io/nats.go/micro"

	"github.com/flarexio/linesim"
	"github.com/flarexio/linesim/vector"
)

func errorCode(err error) string {
	switch {
	case errors.Is(err, linesim.ErrFileNotFound),
		errors.Is(err, vector.ErrCollectionNotFound):
		return "404"

	case errors.Is(err, linesim.ErrInvalidPath):
		return "400"

	default:
		return "417"
	}
}

func IngestHandler(endpoint endpoint.Endpoint) micro.HandlerFunc {
	return func(r micro.Request) {
		var req linesim.IngestRequest
		if err := json.Unmarshal(r.Data(), &req); err != nil {
			r.Error("400", err.Error(), nil)
			return
		}

		if req.Path == "" {
			r.Error("400", "path is required", nil)
			return
		}

		ctx := context.Background()
		resp, err := endpoint(ctx, req)
		if err != nil {
			r.Error(errorCode(err), err.Error(), nil)
			return
		}

		report, ok := resp.(*linesim.IngestReport)
		if !ok {
			r.Error("500", "invalid response type", nil)
			return
		}

		r.RespondJSON(report)
	}
}

func CompareHandler(endpoint endpoint.Endpoint) micro.HandlerFunc {
	return func(r micro.Request) {
		var req linesim.CompareRequest
		if err := json.Unmarshal(r.Data(), &req); err != nil {
			r.Error("400", err.Error(), nil)
			return
		}

		if req.Source == "" || req.Target == "" {
			r.Error("400", "source and target are required", nil)
			return
		}

		ctx := context.Background()
		resp, err := endpoint(ctx, req)
		if err != nil {
			r.Error(errorCode(err), err.Error(), nil)
			return
		}

		results, ok := resp.([]linesim.SimilarityResult)
		if !ok {
			r.Error("500", "invalid response type", nil)
			return
		}

		r.RespondJSON(&results)
	}
}
