package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"PaperFeed/internal/domain"
	"PaperFeed/internal/ingest"
	"PaperFeed/internal/ports"
)

var paperColumns = []string{
	"id", "tweet_id", "tweet_text", "tweet_url", "author_name", "author_username",
	"like_count", "retweet_count", "reply_count",
	"paper_title", "paper_url", "paper_abstract", "created_at", "fetched_at",
}

// paperUpsertSuffix resolves tweet_id conflicts in place. The surrogate id and
// any enriched abstract survive; fetched_at never moves backwards.
var paperUpsertSuffix = `ON CONFLICT (tweet_id) DO UPDATE
	SET tweet_text = EXCLUDED.tweet_text,
	    tweet_url = EXCLUDED.tweet_url,
	    author_name = EXCLUDED.author_name,
	    author_username = EXCLUDED.author_username,
	    like_count = EXCLUDED.like_count,
	    retweet_count = EXCLUDED.retweet_count,
	    reply_count = EXCLUDED.reply_count,
	    paper_title = EXCLUDED.paper_title,
	    paper_url = EXCLUDED.paper_url,
	    created_at = EXCLUDED.created_at,
	    fetched_at = CASE WHEN EXCLUDED.fetched_at > papers.fetched_at
	                      THEN EXCLUDED.fetched_at ELSE papers.fetched_at END
	RETURNING ` + strings.Join(paperColumns, ", ")

// Repository persists papers, notes and publish records in Postgres or SQLite.
type Repository struct {
	db      *sql.DB
	driver  string
	builder sq.StatementBuilderType
}

var (
	_ ports.PaperRepository   = (*Repository)(nil)
	_ ports.NoteRepository    = (*Repository)(nil)
	_ ports.PublishRepository = (*Repository)(nil)
)

// NewRepository wires a sql.DB opened with the given driver name.
func NewRepository(db *sql.DB, driver string) *Repository {
	return &Repository{db: db, driver: driver, builder: placeholders(driver)}
}

// Close releases the underlying connection pool.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// UpsertPaper inserts the paper or updates the row sharing its tweet id.
func (r *Repository) UpsertPaper(ctx context.Context, paper domain.Paper) (domain.Paper, error) {
	if !ingest.Allowed(paper.PaperURL) {
		return domain.Paper{}, fmt.Errorf("upsert paper %s: %w", paper.TweetID, domain.ErrUntrustedURL)
	}
	if paper.ID == "" {
		paper.ID = uuid.NewString()
	}
	if paper.FetchedAt.IsZero() {
		paper.FetchedAt = time.Now()
	}

	query, args, err := r.builder.Insert("papers").
		Columns(paperColumns...).
		Values(
			paper.ID,
			paper.TweetID,
			paper.TweetText,
			paper.TweetURL,
			paper.AuthorName,
			paper.AuthorUsername,
			paper.LikeCount,
			paper.RetweetCount,
			paper.ReplyCount,
			nullableString(paper.PaperTitle),
			paper.PaperURL,
			nullableString(paper.PaperAbstract),
			nullableTime(paper.CreatedAt),
			paper.FetchedAt.UTC(),
		).
		Suffix(paperUpsertSuffix).
		ToSql()
	if err != nil {
		return domain.Paper{}, fmt.Errorf("build upsert: %w", err)
	}

	saved, err := scanPaper(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return domain.Paper{}, fmt.Errorf("upsert paper %s: %w", paper.TweetID, err)
	}
	return saved, nil
}

// GetPaper loads a paper by its surrogate id.
func (r *Repository) GetPaper(ctx context.Context, id string) (domain.Paper, error) {
	query, args, err := r.builder.Select(paperColumns...).
		From("papers").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.Paper{}, fmt.Errorf("build select: %w", err)
	}

	paper, err := scanPaper(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Paper{}, fmt.Errorf("paper %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Paper{}, fmt.Errorf("get paper %s: %w", id, err)
	}
	return paper, nil
}

// ListPapers returns every paper, most liked first.
func (r *Repository) ListPapers(ctx context.Context) ([]domain.Paper, error) {
	return r.selectPapers(ctx, r.builder.Select(paperColumns...).
		From("papers").
		OrderBy("like_count DESC", "fetched_at DESC"))
}

// PapersMissingAbstract returns up to limit papers that still need enrichment.
// Papers never attempted come first, most liked first; the rest follow by the
// age of their last attempt so skipped papers rotate to the back.
func (r *Repository) PapersMissingAbstract(ctx context.Context, limit int) ([]domain.Paper, error) {
	return r.selectPapers(ctx, r.builder.Select(paperColumns...).
		From("papers").
		Where(sq.Eq{"paper_abstract": nil}).
		OrderBy(
			"CASE WHEN abstract_checked_at IS NULL THEN 0 ELSE 1 END",
			"abstract_checked_at ASC",
			"like_count DESC",
		).
		Limit(uint64(limit)))
}

// MarkAbstractChecked stamps an enrichment attempt that produced no abstract.
func (r *Repository) MarkAbstractChecked(ctx context.Context, id string, at time.Time) error {
	query, args, err := r.builder.Update("papers").
		Set("abstract_checked_at", at.UTC()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("mark paper %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("paper %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// UpdatePaperEnrichment stores an abstract and, when title is set, fills a
// missing title.
func (r *Repository) UpdatePaperEnrichment(ctx context.Context, id, abstract string, title *string) (domain.Paper, error) {
	update := r.builder.Update("papers").
		Set("paper_abstract", abstract).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(paperColumns, ", "))
	if title != nil {
		update = update.Set("paper_title", sq.Expr("COALESCE(paper_title, ?)", *title))
	}

	query, args, err := update.ToSql()
	if err != nil {
		return domain.Paper{}, fmt.Errorf("build update: %w", err)
	}

	paper, err := scanPaper(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Paper{}, fmt.Errorf("paper %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Paper{}, fmt.Errorf("update paper %s: %w", id, err)
	}
	return paper, nil
}

func (r *Repository) selectPapers(ctx context.Context, builder sq.SelectBuilder) ([]domain.Paper, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query papers: %w", err)
	}
	defer rows.Close()

	var papers []domain.Paper
	for rows.Next() {
		paper, err := scanPaper(rows)
		if err != nil {
			return nil, fmt.Errorf("scan paper: %w", err)
		}
		papers = append(papers, paper)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return papers, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPaper(row rowScanner) (domain.Paper, error) {
	var (
		paper              domain.Paper
		title, abstract    sql.NullString
		createdAt, fetched timestamp
	)
	err := row.Scan(
		&paper.ID,
		&paper.TweetID,
		&paper.TweetText,
		&paper.TweetURL,
		&paper.AuthorName,
		&paper.AuthorUsername,
		&paper.LikeCount,
		&paper.RetweetCount,
		&paper.ReplyCount,
		&title,
		&paper.PaperURL,
		&abstract,
		&createdAt,
		&fetched,
	)
	if err != nil {
		return domain.Paper{}, err
	}

	paper.PaperTitle = stringPtr(title)
	paper.PaperAbstract = stringPtr(abstract)
	paper.CreatedAt = createdAt.Time
	paper.FetchedAt = fetched.Time
	return paper, nil
}
