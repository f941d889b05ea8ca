package ports

import (
	"context"
	"time"

	"PaperFeed/internal/domain"
)

// SearchRequest is a single upstream advanced-search call.
type SearchRequest struct {
	Query string
	// QueryType selects ordering; "Top" asks for relevance rather than recency.
	QueryType string
}

// PostSearcher fetches candidate posts from the upstream search provider.
type PostSearcher interface {
	Search(ctx context.Context, req SearchRequest) ([]domain.SocialPost, error)
}

// PaperRepository persists admitted papers keyed by source post id.
type PaperRepository interface {
	UpsertPaper(ctx context.Context, paper domain.Paper) (domain.Paper, error)
	GetPaper(ctx context.Context, id string) (domain.Paper, error)
	ListPapers(ctx context.Context) ([]domain.Paper, error)
	PapersMissingAbstract(ctx context.Context, limit int) ([]domain.Paper, error)
	UpdatePaperEnrichment(ctx context.Context, id, abstract string, title *string) (domain.Paper, error)
	MarkAbstractChecked(ctx context.Context, id string, at time.Time) error
}

// NoteRepository stores rewritten notes.
type NoteRepository interface {
	CreateNote(ctx context.Context, note domain.Note) (domain.Note, error)
	GetNote(ctx context.Context, id string) (domain.Note, error)
	ListNotes(ctx context.Context) ([]domain.Note, error)
	UpdateNote(ctx context.Context, id string, upd domain.NoteUpdate, at time.Time) (domain.Note, error)
}

// PublishRepository tracks the publish lifecycle of notes.
type PublishRepository interface {
	CreatePublishRecord(ctx context.Context, rec domain.PublishRecord) (domain.PublishRecord, error)
	FindPublished(ctx context.Context, noteID string) (domain.PublishRecord, error)
	ListPublishRecords(ctx context.Context) ([]domain.PublishRecord, error)
}

// Completer sends one prompt to a language model and returns its text reply.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// AbstractFetcher pulls the abstract (and title, when present) of a paper page.
type AbstractFetcher interface {
	Name() string
	Supports(paperURL string) bool
	FetchAbstract(ctx context.Context, paperURL string) (domain.Abstract, error)
}

// Notifier announces published notes to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
