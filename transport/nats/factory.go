package nats

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-kit/kit/endpoint"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/micro"

	"github.com/flarexio/linesim"
	"github.com/flarexio/linesim/vector"
)

// MakeEndpoints returns client endpoints that call a linesim service over NATS.
// Ingestion embeds line by line, so timeout should allow for a whole file.
func MakeEndpoints(nc *nats.Conn, prefix string, timeout time.Duration) *linesim.EndpointSet {
	if timeout <= 0 {
		timeout = nats.DefaultTimeout
	}

	return &linesim.EndpointSet{
		Ingest:  IngestEndpoint(nc, prefix+".ingest", timeout),
		Rebuild: IngestEndpoint(nc, prefix+".rebuild", timeout),
		Compare: CompareEndpoint(nc, prefix+".compare", timeout),
	}
}

func IngestEndpoint(nc *nats.Conn, topic string, timeout time.Duration) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(linesim.IngestRequest)
		if !ok {
			return nil, errors.New("invalid request")
		}

		data, err := json.Marshal(&req)
		if err != nil {
			return nil, err
		}

		resp, err := nc.Request(topic, data, timeout)
		if err != nil {
			return nil, err
		}

		if err := Error(resp); err != nil {
			return nil, err
		}

		var report *linesim.IngestReport
		if err := json.Unmarshal(resp.Data, &report); err != nil {
			return nil, err
		}

		return report, nil
	}
}

func CompareEndpoint(nc *nats.Conn, topic string, timeout time.Duration) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(linesim.CompareRequest)
		if !ok {
			return nil, errors.New("invalid request")
		}

		data, err := json.Marshal(&req)
		if err != nil {
			return nil, err
		}

		resp, err := nc.Request(topic, data, timeout)
		if err != nil {
			return nil, err
		}

		if err := Error(resp); err != nil {
			return nil, err
		}

		var results []linesim.SimilarityResult
		if err := json.Unmarshal(resp.Data, &results); err != nil {
			return nil, err
		}

		return results, nil
	}
}

// RemoteError is an error reported by the service in the reply headers.
// It unwraps to the sentinel matching its code and description, if any.
type RemoteError struct {
	Code        string
	Description string
	Err         error
}

func (e *RemoteError) Error() string {
	return e.Code + ":" + e.Description
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

var sentinels = map[string][]error{
	"404": {vector.ErrCollectionNotFound, linesim.ErrFileNotFound},
	"400": {linesim.ErrInvalidPath},
	"417": {linesim.ErrEmptyResult, linesim.ErrZeroNorm, linesim.ErrDimensionMismatch, linesim.ErrInvalidEncoding},
}

func Error(msg *nats.Msg) error {
	if msg == nil {
		return errors.New("nil message")
	}

	code := msg.Header.Get(micro.ErrorCodeHeader)
	if code == "" {
		return nil
	}

	description := msg.Header.Get(micro.ErrorHeader)
	if description == "" {
		description = "unknown error"
	}

	err := &RemoteError{
		Code:        code,
		Description: description,
	}

	for _, sentinel := range sentinels[code] {
		if strings.Contains(description, sentinel.Error()) {
			err.Err = sentinel
			break
		}
	}

	return err
}
