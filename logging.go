package linesim

import (
	"context"

	"go.uber.org/zap"
)

func LoggingMiddleware(log *zap.Logger) ServiceMiddleware {
	log = log.With(
		zap.String("service", "linesim"),
	)

	return func(next Service) Service {
		log.Info("service initialized")

		return &loggingMiddleware{
			log:  log,
			next: next,
		}
	}
}

type loggingMiddleware struct {
	log  *zap.Logger
	next Service
}

func (mw *loggingMiddleware) Close() error {
	log := mw.log.With(
		zap.String("action", "close"),
	)

	err := mw.next.Close()
	if err != nil {
		log.Error(err.Error())
		return err
	}

	log.Info("service closed")
	return nil
}

func (mw *loggingMiddleware) Ingest(ctx context.Context, path string) (*IngestReport, error) {
	log := mw.log.With(
		zap.String("action", "ingest"),
		zap.String("path", path),
	)

	report, err := mw.next.Ingest(ctx, path)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("file ingested",
		zap.String("collection", report.Collection),
		zap.Int("lines", report.Lines),
		zap.Int("skipped", report.Skipped),
		zap.Int("embedded", report.Embedded),
		zap.Int("failed", report.Failed),
	)

	return report, nil
}

func (mw *loggingMiddleware) Rebuild(ctx context.Context, path string) (*IngestReport, error) {
	log := mw.log.With(
		zap.String("action", "rebuild"),
		zap.String("path", path),
	)

	report, err := mw.next.Rebuild(ctx, path)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("collection rebuilt",
		zap.String("collection", report.Collection),
		zap.Int("embedded", report.Embedded),
	)

	return report, nil
}

func (mw *loggingMiddleware) Compare(ctx context.Context, source string, target string) ([]SimilarityResult, error) {
	log := mw.log.With(
		zap.String("action", "compare"),
		zap.String("source", source),
		zap.String("target", target),
	)

	results, err := mw.next.Compare(ctx, source, target)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("similarity ranked", zap.Int("count", len(results)))

	for i, result := range results {
		log.Info("rank",
			zap.Int("rank", i+1),
			zap.Float64("score", result.Score),
			zap.Int("line_number", result.LineNumber),
			zap.String("text", result.Text),
		)
	}

	return results, nil
}
