package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"PaperFeed/internal/domain"
	"PaperFeed/internal/enrich"
	"PaperFeed/internal/ingest"
	"PaperFeed/internal/logging"
	"PaperFeed/internal/ports"
)

// DefaultEnrichLimit bounds one enrichment run when the caller passes zero.
const DefaultEnrichLimit = 20

// Enricher fills abstracts of stored papers from their landing pages.
type Enricher struct {
	registry *enrich.Registry
	papers   ports.PaperRepository
	limit    int
	now      func() time.Time
	logger   *slog.Logger
}

// EnricherDeps wires the enrichment use case. DefaultLimit applies when
// Enrich is called with zero.
type EnricherDeps struct {
	Registry     *enrich.Registry
	Papers       ports.PaperRepository
	DefaultLimit int
	Now          func() time.Time
	Logger       *slog.Logger
}

// NewEnricher constructs the enrichment use case.
func NewEnricher(deps EnricherDeps) *Enricher {
	e := &Enricher{
		registry: deps.Registry,
		papers:   deps.Papers,
		limit:    deps.DefaultLimit,
		now:      deps.Now,
		logger:   deps.Logger,
	}
	if e.limit <= 0 {
		e.limit = DefaultEnrichLimit
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.logger == nil {
		e.logger = logging.Discard()
	}
	return e
}

// Enrich processes up to limit papers without an abstract and returns the
// ones it updated. Papers no fetcher supports, or whose page fails to load,
// are stamped as attempted so later runs reach the papers behind them.
func (e *Enricher) Enrich(ctx context.Context, limit int) ([]domain.Paper, error) {
	if limit < 0 {
		return nil, fmt.Errorf("limit must be non-negative: %w", ErrInvalidInput)
	}
	if e.papers == nil || e.registry == nil || e.registry.Len() == 0 {
		return nil, fmt.Errorf("abstract sources: %w", ErrNotConfigured)
	}
	if limit == 0 {
		limit = e.limit
	}

	pending, err := e.papers.PapersMissingAbstract(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("load pending papers: %w", err)
	}

	updated := make([]domain.Paper, 0, len(pending))
	for _, paper := range pending {
		if err := ctx.Err(); err != nil {
			return updated, err
		}

		saved, ok := e.enrichOne(ctx, paper)
		if !ok {
			if err := e.papers.MarkAbstractChecked(ctx, paper.ID, e.now()); err != nil {
				e.logger.Warn("mark enrichment attempt failed", "paper_id", paper.ID, "err", err)
			}
			continue
		}
		updated = append(updated, saved)
	}
	return updated, nil
}

func (e *Enricher) enrichOne(ctx context.Context, paper domain.Paper) (domain.Paper, bool) {
	fetcher, err := e.registry.Resolve(paper.PaperURL)
	if err != nil {
		e.logger.Debug("no abstract source", "paper_id", paper.ID, "url", paper.PaperURL)
		return domain.Paper{}, false
	}

	abstract, err := fetcher.FetchAbstract(ctx, paper.PaperURL)
	if err != nil {
		e.logger.Warn("fetch abstract failed", "paper_id", paper.ID, "source", fetcher.Name(), "err", err)
		return domain.Paper{}, false
	}
	text := strings.TrimSpace(abstract.Text)
	if text == "" {
		return domain.Paper{}, false
	}

	var title *string
	if t := ingest.NormalizeTitle(abstract.Title); t != "" {
		title = &t
	}

	saved, err := e.papers.UpdatePaperEnrichment(ctx, paper.ID, text, title)
	if err != nil {
		e.logger.Warn("store abstract failed", "paper_id", paper.ID, "err", err)
		return domain.Paper{}, false
	}
	return saved, true
}
