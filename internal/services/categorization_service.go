package services

import (
	"context"
	"errors"
	"sync"

	"bankfeed/internal/config"
	"bankfeed/internal/models"

	"github.com/rs/zerolog"
)

// ErrModelDisabled is returned when a run requests the external model stage
// but the deployment has no classifier configured.
var ErrModelDisabled = errors.New("external model classification is disabled")

type categorizationService struct {
	rules      RuleEngineInterface
	keywords   KeywordMatcherInterface
	classifier ModelClassifierInterface
	config     config.PipelineConfig
	logger     zerolog.Logger
	metrics    MetricsRecorderInterface
}

// NewCategorizationService wires the three pipeline stages. The classifier
// may be nil when the external model is disabled at deploy time; a run that
// still requests it fails with ErrModelDisabled.
func NewCategorizationService(
	rules RuleEngineInterface,
	keywords KeywordMatcherInterface,
	classifier ModelClassifierInterface,
	cfg config.PipelineConfig,
	logger zerolog.Logger,
	metrics MetricsRecorderInterface,
) CategorizationServiceInterface {
	return &categorizationService{
		rules:      rules,
		keywords:   keywords,
		classifier: classifier,
		config:     cfg,
		logger:     logger.With().Str("component", "categorization").Logger(),
		metrics:    metrics,
	}
}

// Categorize enriches every uncategorized transaction in place. Transactions
// that already carry a categorization are left untouched, which makes
// repeated runs over the same slice idempotent.
func (s *categorizationService) Categorize(ctx context.Context, txns []*models.Transaction, opts CategorizationOptions) error {
	if opts.UseModel && s.classifier == nil {
		return ErrModelDisabled
	}
	if err := CompileSessionRules(opts.SessionRules); err != nil {
		return err
	}
	merged := models.MergeRules(opts.SessionRules, s.rules.BuiltinRules())

	if err := s.runDeterministicStages(ctx, txns, merged); err != nil {
		return err
	}

	unresolved := uncategorized(txns)
	if len(unresolved) == 0 {
		return nil
	}

	if opts.UseModel {
		verdicts := s.classifier.ClassifyAll(ctx, unresolved)
		for _, txn := range unresolved {
			if result, ok := verdicts[txn.ID]; ok {
				s.applyResult(txn, result)
			}
		}
		unresolved = uncategorized(unresolved)
	}

	for _, txn := range unresolved {
		s.applyFallback(txn)
	}

	s.recordStageMetrics(txns)
	return nil
}

// runDeterministicStages fans transactions across a worker pool; rules and
// keyword matching are CPU-only so a small pool is enough.
func (s *categorizationService) runDeterministicStages(ctx context.Context, txns []*models.Transaction, rules []models.Rule) error {
	workers := s.config.Workers
	if workers <= 0 {
		workers = 1
	}

	jobs := make(chan *models.Transaction)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for txn := range jobs {
				if txn.IsCategorized() {
					continue
				}
				if result := s.rules.Evaluate(txn, rules); result != nil {
					s.applyResult(txn, *result)
					continue
				}
				if result := s.keywords.Match(txn); result != nil {
					s.applyResult(txn, *result)
				}
			}
		}()
	}

	var err error
	for _, txn := range txns {
		if err = ctx.Err(); err != nil {
			break
		}
		jobs <- txn
	}
	close(jobs)
	wg.Wait()
	return err
}

// applyResult writes a stage result onto the transaction. Probabilistic
// stages below the review threshold are flagged for a human; rule matches
// never are.
func (s *categorizationService) applyResult(txn *models.Transaction, result models.CategorizationResult) {
	needsReview := result.Confidence < models.ReviewThreshold &&
		(result.Source == models.SourceSimilarity || result.Source == models.SourceModel)

	txn.Categorization = &models.Categorization{
		Category:    result.Category,
		Confidence:  result.Confidence,
		NeedsReview: needsReview,
		Source:      result.Source,
		Explanation: result.Explanation,
	}
}

// applyFallback marks a transaction no stage could resolve. Always flagged
// for review regardless of the confidence threshold.
func (s *categorizationService) applyFallback(txn *models.Transaction) {
	txn.Categorization = &models.Categorization{
		Category:    models.CategoryUncategorized,
		Confidence:  0.5,
		NeedsReview: true,
		Source:      models.SourceManual,
	}
}

func uncategorized(txns []*models.Transaction) []*models.Transaction {
	var out []*models.Transaction
	for _, txn := range txns {
		if !txn.IsCategorized() {
			out = append(out, txn)
		}
	}
	return out
}

func (s *categorizationService) recordStageMetrics(txns []*models.Transaction) {
	if s.metrics == nil {
		return
	}
	for _, txn := range txns {
		if txn.Categorization == nil {
			continue
		}
		s.metrics.IncrementCounter("categorization_total", map[string]string{
			"source":   txn.Categorization.Source,
			"category": txn.Categorization.Category,
		})
	}
}
