package linesim

import (
	"context"
	"errors"

	"github.com/go-kit/kit/endpoint"
)

func ProxyMiddleware(endpoints *EndpointSet) ServiceMiddleware {
	return func(next Service) Service {
		return &proxyMiddleware{
			endpoints: endpoints,
		}
	}
}

type proxyMiddleware struct {
	endpoints *EndpointSet
}

func (mw *proxyMiddleware) Close() error {
	return nil
}

func (mw *proxyMiddleware) Ingest(ctx context.Context, path string) (*IngestReport, error) {
	return mw.ingest(ctx, mw.endpoints.Ingest, path)
}

func (mw *proxyMiddleware) Rebuild(ctx context.Context, path string) (*IngestReport, error) {
	return mw.ingest(ctx, mw.endpoints.Rebuild, path)
}

func (mw *proxyMiddleware) ingest(ctx context.Context, endpoint endpoint.Endpoint, path string) (*IngestReport, error) {
	req := IngestRequest{
		Path: path,
	}

	resp, err := endpoint(ctx, req)
	if err != nil {
		return nil, err
	}

	report, ok := resp.(*IngestReport)
	if !ok {
		return nil, errors.New("invalid response type")
	}

	return report, nil
}

func (mw *proxyMiddleware) Compare(ctx context.Context, source string, target string) ([]SimilarityResult, error) {
	req := CompareRequest{
		Source: source,
		Target: target,
	}

	resp, err := mw.endpoints.Compare(ctx, req)
	if err != nil {
		return nil, err
	}

	results, ok := resp.([]SimilarityResult)
	if !ok {
		return nil, errors.New("invalid response type")
	}

	return results, nil
}
