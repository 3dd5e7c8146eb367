package services

import (
	"context"
	"time"

	"bankfeed/internal/dedup"
	"bankfeed/internal/export"
	"bankfeed/internal/parsers"

	"github.com/rs/zerolog"
)

type ingestionService struct {
	categorizer CategorizationServiceInterface
	logger      zerolog.Logger
	metrics     MetricsRecorderInterface
}

// NewIngestionService wires parse, dedup, categorization and export into the
// single flow the request boundary calls.
func NewIngestionService(categorizer CategorizationServiceInterface, logger zerolog.Logger, metrics MetricsRecorderInterface) IngestionServiceInterface {
	return &ingestionService{
		categorizer: categorizer,
		logger:      logger.With().Str("component", "ingestion").Logger(),
		metrics:     metrics,
	}
}

func (s *ingestionService) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	start := time.Now()

	// The dialect is a caller error; reject it before any parsing work.
	if !export.IsValidDialect(req.Dialect) {
		return nil, export.ErrUnknownDialect
	}

	parsed, err := parsers.Parse(req.Data, req.Kind)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parsed.DuplicateCount = dedup.Tag(parsed.Transactions)

	opts := CategorizationOptions{
		SessionRules: req.SessionRules,
		UseModel:     req.UseModel,
	}
	if err := s.categorizer.Categorize(ctx, parsed.Transactions, opts); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out, err := export.Format(parsed.Transactions, req.Dialect)
	if err != nil {
		return nil, err
	}

	result := &IngestResult{
		Export:         out,
		RowCount:       parsed.RowCount,
		SkippedCount:   parsed.SkippedCount,
		DuplicateCount: parsed.DuplicateCount,
		StageCounts:    make(map[string]int),
		ColumnMapping:  parsed.ColumnMapping,
		Transactions:   parsed.Transactions,
	}
	for _, txn := range parsed.Transactions {
		if txn.Categorization == nil {
			continue
		}
		result.StageCounts[txn.Categorization.Source]++
		if txn.Categorization.NeedsReview {
			result.NeedsReviewCount++
		}
	}

	elapsed := time.Since(start)
	s.logger.Info().
		Str("kind", string(req.Kind)).
		Str("dialect", string(req.Dialect)).
		Int("rows", result.RowCount).
		Int("skipped", result.SkippedCount).
		Int("duplicates", result.DuplicateCount).
		Int("needs_review", result.NeedsReviewCount).
		Dur("elapsed", elapsed).
		Msg("ingestion complete")

	if s.metrics != nil {
		s.metrics.IncrementCounter("ingestions_total", map[string]string{"dialect": string(req.Dialect)})
		s.metrics.RecordProcessingTime("ingestion", elapsed)
		s.metrics.RecordGauge("ingestion_rows", float64(result.RowCount), nil)
	}

	return result, nil
}
