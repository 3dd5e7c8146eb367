package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"bankfeed/internal/config"
	"bankfeed/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

type modelClassifier struct {
	client  ModelClientInterface
	breaker CircuitBreakerInterface
	limiter *rate.Limiter
	config  config.ClassifierConfig
	logger  zerolog.Logger
}

// NewModelClassifier creates the third pipeline stage. The rate limiter and
// circuit breaker are shared across all batches of a run and across runs.
func NewModelClassifier(client ModelClientInterface, breaker CircuitBreakerInterface, cfg config.ClassifierConfig, logger zerolog.Logger) ModelClassifierInterface {
	return &modelClassifier{
		client:  client,
		breaker: breaker,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		config:  cfg,
		logger:  logger.With().Str("component", "model_classifier").Logger(),
	}
}

// modelVerdict is one classification in the model's JSON reply.
type modelVerdict struct {
	ID         string  `json:"id"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// ClassifyAll fans the transactions out in fixed-size batches. Each batch is
// atomic: either every member gets a verdict or the whole batch yields
// nothing, so a garbled reply cannot partially apply.
func (c *modelClassifier) ClassifyAll(ctx context.Context, txns []*models.Transaction) map[uuid.UUID]models.CategorizationResult {
	results := make(map[uuid.UUID]models.CategorizationResult, len(txns))
	if len(txns) == 0 {
		return results
	}

	batches := splitBatches(txns, c.config.BatchSize)

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, c.config.MaxConcurrent)
	)

	for i, batch := range batches {
		wg.Add(1)
		go func(index int, batch []*models.Transaction) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			verdicts, err := c.classifyBatch(ctx, batch)
			if err != nil {
				c.logger.Warn().Err(err).Int("batch", index).Int("size", len(batch)).
					Msg("model batch discarded")
				return
			}

			mu.Lock()
			for id, result := range verdicts {
				results[id] = result
			}
			mu.Unlock()
		}(i, batch)
	}

	wg.Wait()
	return results
}

func (c *modelClassifier) classifyBatch(ctx context.Context, batch []*models.Transaction) (map[uuid.UUID]models.CategorizationResult, error) {
	if c.breaker.IsOpen() {
		return nil, ErrCircuitBreakerOpen
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	reply, err := c.client.Classify(reqCtx, buildClassifyPrompt(batch))
	if err != nil {
		c.breaker.RecordFailure()
		return nil, err
	}

	verdicts, err := parseVerdicts(reply.Text, batch)
	if err != nil {
		c.breaker.RecordFailure()
		return nil, err
	}
	c.breaker.RecordSuccess()

	elapsed := time.Since(start)
	results := make(map[uuid.UUID]models.CategorizationResult, len(batch))
	for _, txn := range batch {
		verdict := verdicts[txn.ID]
		results[txn.ID] = models.CategorizationResult{
			Category:   verdict.Category,
			Confidence: verdict.Confidence,
			Source:     models.SourceModel,
			Explanation: &models.Explanation{
				Stage:   models.SourceModel,
				ModelID: reply.ModelID,
				Elapsed: elapsed,
			},
		}
	}
	return results, nil
}

// buildClassifyPrompt renders a batch as one prompt with the allowed
// category vocabulary and strict output instructions.
func buildClassifyPrompt(batch []*models.Transaction) string {
	var b strings.Builder

	b.WriteString("You are classifying bank transactions.\n\n")
	b.WriteString("Use ONLY the following categories (case-sensitive):\n")
	for _, cat := range models.AllCategories() {
		b.WriteString("  - " + cat + "\n")
	}
	b.WriteString("\nRULES:\n")
	b.WriteString("1. Category must be EXACTLY one of the names shown above.\n")
	b.WriteString("2. If you are unsure, use \"Uncategorized\".\n")
	b.WriteString("3. Confidence is a number between 0 and 1.\n")
	b.WriteString("4. Return a STRICT JSON array, one object per transaction, no prose:\n")
	b.WriteString("   [{\"id\": \"...\", \"category\": \"...\", \"confidence\": 0.0}]\n")
	b.WriteString("5. Include every id exactly once.\n\n")
	b.WriteString("TRANSACTIONS:\n")

	for _, txn := range batch {
		fmt.Fprintf(&b, "id=%s date=%s amount=%s description=%q\n",
			txn.ID, txn.Date.Format("2006-01-02"), txn.Amount.StringFixed(2), txn.Description)
	}

	return b.String()
}

// parseVerdicts decodes the model reply and validates it covers the batch.
// Unknown categories and out-of-range confidences reject the whole batch.
func parseVerdicts(text string, batch []*models.Transaction) (map[uuid.UUID]modelVerdict, error) {
	var raw []modelVerdict
	if err := json.Unmarshal([]byte(cleanModelJSON(text)), &raw); err != nil {
		return nil, fmt.Errorf("unmarshal model reply: %w", err)
	}

	verdicts := make(map[uuid.UUID]modelVerdict, len(raw))
	for _, v := range raw {
		id, err := uuid.Parse(v.ID)
		if err != nil {
			return nil, fmt.Errorf("model returned bad id %q", v.ID)
		}
		if !models.IsValidCategory(v.Category) {
			return nil, fmt.Errorf("model returned unknown category %q", v.Category)
		}
		if v.Confidence < 0 || v.Confidence > 1 {
			return nil, fmt.Errorf("model returned confidence %v out of range", v.Confidence)
		}
		verdicts[id] = v
	}

	for _, txn := range batch {
		if _, ok := verdicts[txn.ID]; !ok {
			return nil, fmt.Errorf("model reply missing id %s", txn.ID)
		}
	}
	return verdicts, nil
}

// cleanModelJSON strips Markdown fences and surrounding prose the model may
// wrap around the JSON array despite instructions.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}

func splitBatches(txns []*models.Transaction, size int) [][]*models.Transaction {
	if size <= 0 {
		size = 50
	}
	var batches [][]*models.Transaction
	for start := 0; start < len(txns); start += size {
		end := min(start+size, len(txns))
		batches = append(batches, txns[start:end])
	}
	return batches
}
