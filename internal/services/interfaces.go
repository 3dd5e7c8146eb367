package services

import (
	"context"
	"time"

	"bankfeed/internal/models"
	"bankfeed/internal/parsers"

	"bankfeed/internal/export"

	"github.com/google/uuid"
)

// RuleEngineInterface is the deterministic first stage of the pipeline.
type RuleEngineInterface interface {
	// BuiltinRules returns the compiled built-in rule set, sorted by
	// priority.
	BuiltinRules() []models.Rule

	// Evaluate runs the merged rule set against a transaction in priority
	// order and returns the first match, or nil to fall through.
	Evaluate(txn *models.Transaction, rules []models.Rule) *models.CategorizationResult
}

// KeywordMatcherInterface is the similarity second stage.
type KeywordMatcherInterface interface {
	// Match scores the description against every keyword group and returns
	// a result when the best score clears the acceptance threshold, or nil
	// to fall through.
	Match(txn *models.Transaction) *models.CategorizationResult
}

// ModelClientInterface is the opaque external-model boundary: prompt in,
// raw text out. The oracle may fail, time out or return unparsable text;
// callers own prompt construction and response parsing.
type ModelClientInterface interface {
	Classify(ctx context.Context, prompt string) (ClassifyResult, error)
}

// ClassifyResult is the raw oracle reply.
type ClassifyResult struct {
	Text    string
	ModelID string
}

// ModelClassifierInterface is the asynchronous third stage: it batches
// unresolved transactions and returns a per-id result mapping. It never
// fails the run; a failed batch simply yields no entries for its members.
type ModelClassifierInterface interface {
	ClassifyAll(ctx context.Context, txns []*models.Transaction) map[uuid.UUID]models.CategorizationResult
}

// CategorizationOptions carries per-run pipeline configuration.
type CategorizationOptions struct {
	// SessionRules are merged ahead of built-in rules by priority.
	SessionRules []models.Rule
	// UseModel enables the external-model stage for transactions the
	// deterministic stages could not resolve.
	UseModel bool
}

// CategorizationServiceInterface runs the staged pipeline over a parsed
// sequence, enriching transactions in place.
type CategorizationServiceInterface interface {
	Categorize(ctx context.Context, txns []*models.Transaction, opts CategorizationOptions) error
}

// IngestRequest is one full ingestion: raw bytes through to export text.
type IngestRequest struct {
	Data         []byte
	Kind         parsers.FileKind
	Dialect      export.Dialect
	UseModel     bool
	SessionRules []models.Rule
}

// IngestResult is the outcome surfaced to the request boundary.
type IngestResult struct {
	Export           string
	RowCount         int
	SkippedCount     int
	DuplicateCount   int
	NeedsReviewCount int
	StageCounts      map[string]int
	ColumnMapping    *models.ColumnMapping
	Transactions     []*models.Transaction
}

// IngestionServiceInterface wires parse, dedup, categorization and export
// into one flow.
type IngestionServiceInterface interface {
	Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error)
}

// CircuitBreakerInterface guards the external-model client.
type CircuitBreakerInterface interface {
	IsOpen() bool
	RecordSuccess()
	RecordFailure()
	GetState() CircuitBreakerState
	Reset()
}

// MetricsRecorderInterface abstracts the metrics backend.
type MetricsRecorderInterface interface {
	IncrementCounter(name string, tags map[string]string)
	RecordProcessingTime(name string, duration time.Duration)
	RecordGauge(name string, value float64, tags map[string]string)
}
