package queries

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/recurra/internal/shared/domain"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/recurrence"
)

const (
	// DefaultPreviewCount is the number of dates previewed when none is asked for.
	DefaultPreviewCount = 10
	// MaxPreviewCount caps a single preview.
	MaxPreviewCount = 366
)

// PreviewCache stores rendered previews by key.
type PreviewCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// PreviewRecurrenceQuery asks what a rule would produce from an anchor.
// A zero Anchor means today.
type PreviewRecurrenceQuery struct {
	Recurrence recurrence.RuleSpec
	Anchor     time.Time
	Count      int
}

// RecurrencePreview is the described rule and its next dates.
type RecurrencePreview struct {
	Description string              `json:"description"`
	Recurrence  recurrence.RuleSpec `json:"recurrence"`
	Anchor      time.Time           `json:"anchor"`
	Dates       []time.Time         `json:"dates"`
	Cached      bool                `json:"cached"`
}

// PreviewRecurrenceHandler handles the PreviewRecurrenceQuery.
type PreviewRecurrenceHandler struct {
	generator *recurrence.Generator
	cache     PreviewCache
	clock     domain.Clock
	logger    *slog.Logger
}

// NewPreviewRecurrenceHandler creates a new PreviewRecurrenceHandler.
// cache may be nil.
func NewPreviewRecurrenceHandler(generator *recurrence.Generator, cache PreviewCache, clock domain.Clock, logger *slog.Logger) *PreviewRecurrenceHandler {
	if clock == nil {
		clock = domain.SystemClock
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PreviewRecurrenceHandler{generator: generator, cache: cache, clock: clock, logger: logger}
}

// Handle validates the rule and generates its next dates. Cache failures are
// logged and never fail the preview.
func (h *PreviewRecurrenceHandler) Handle(ctx context.Context, query PreviewRecurrenceQuery) (*RecurrencePreview, error) {
	rule, err := query.Recurrence.Build()
	if err != nil {
		return nil, err
	}
	anchor := query.Anchor
	if anchor.IsZero() {
		anchor = h.clock()
	}
	anchor = recurrence.DateOf(anchor)
	count := query.Count
	if count <= 0 {
		count = DefaultPreviewCount
	}
	count = min(count, MaxPreviewCount)

	spec := rule.Spec()
	key := previewKey(spec, anchor, count)
	if cached, ok := h.lookup(ctx, key); ok {
		return cached, nil
	}

	dates, err := h.generator.Generate(rule, anchor, recurrence.NextN(count))
	if err != nil {
		return nil, err
	}
	preview := &RecurrencePreview{
		Description: recurrence.Describe(rule),
		Recurrence:  spec,
		Anchor:      anchor,
		Dates:       dates,
	}
	h.store(ctx, key, preview)
	return preview, nil
}

func (h *PreviewRecurrenceHandler) lookup(ctx context.Context, key string) (*RecurrencePreview, bool) {
	if h.cache == nil {
		return nil, false
	}
	data, ok, err := h.cache.Get(ctx, key)
	if err != nil {
		h.logger.Warn("preview cache read failed", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var preview RecurrencePreview
	if err := json.Unmarshal(data, &preview); err != nil {
		h.logger.Warn("discarding malformed cached preview", "key", key, "error", err)
		return nil, false
	}
	preview.Cached = true
	return &preview, true
}

func (h *PreviewRecurrenceHandler) store(ctx context.Context, key string, preview *RecurrencePreview) {
	if h.cache == nil {
		return
	}
	data, err := json.Marshal(preview)
	if err != nil {
		return
	}
	if err := h.cache.Set(ctx, key, data); err != nil {
		h.logger.Warn("preview cache write failed", "key", key, "error", err)
	}
}

// previewKey hashes the normalized rule so equivalent specs share an entry.
func previewKey(spec recurrence.RuleSpec, anchor time.Time, count int) string {
	ruleJSON, _ := json.Marshal(spec)
	sum := sha256.Sum256(fmt.Appendf(ruleJSON, "|%s|%d", anchor.Format(time.DateOnly), count))
	return fmt.Sprintf("preview:%x", sum[:16])
}
