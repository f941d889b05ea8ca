package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"PaperFeed/internal/domain"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(context.Background(), DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func strPtr(s string) *string { return &s }

var baseTime = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

func samplePaper(tweetID string, likes int) domain.Paper {
	return domain.Paper{
		TweetID:        tweetID,
		TweetText:      "\"Attention Is All You Need\" https://arxiv.org/abs/1706.03762",
		TweetURL:       "https://twitter.com/ak/status/" + tweetID,
		AuthorName:     "AK",
		AuthorUsername: "ak",
		LikeCount:      likes,
		RetweetCount:   10,
		ReplyCount:     2,
		PaperTitle:     strPtr("Attention Is All You Need"),
		PaperURL:       "https://arxiv.org/abs/1706.03762",
		CreatedAt:      baseTime.Add(-time.Hour),
		FetchedAt:      baseTime,
	}
}

func TestUpsertPaperIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := openTestRepo(t)

	first, err := repo.UpsertPaper(ctx, samplePaper("1", 100))
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if first.ID == "" || !first.FetchedAt.Equal(baseTime) {
		t.Fatalf("unexpected first paper: %+v", first)
	}

	next := samplePaper("1", 250)
	next.PaperTitle = strPtr("Updated Title")
	next.FetchedAt = baseTime.Add(time.Hour)
	second, err := repo.UpsertPaper(ctx, next)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("surrogate id changed: %s -> %s", first.ID, second.ID)
	}
	if second.LikeCount != 250 || *second.PaperTitle != "Updated Title" || !second.FetchedAt.Equal(next.FetchedAt) {
		t.Fatalf("paper not refreshed: %+v", second)
	}

	stale := samplePaper("1", 300)
	stale.FetchedAt = baseTime.Add(-time.Hour)
	third, err := repo.UpsertPaper(ctx, stale)
	if err != nil {
		t.Fatalf("stale upsert: %v", err)
	}
	if !third.FetchedAt.Equal(next.FetchedAt) {
		t.Fatalf("fetched_at moved backwards: %v", third.FetchedAt)
	}

	papers, err := repo.ListPapers(ctx)
	if err != nil {
		t.Fatalf("ListPapers: %v", err)
	}
	if len(papers) != 1 {
		t.Fatalf("expected one row, got %d", len(papers))
	}
}

func TestUpsertPaperRejectsUntrustedURL(t *testing.T) {
	t.Parallel()

	repo := openTestRepo(t)
	for _, raw := range []string{"", "https://arxiv.org/list/cs.AI/recent", "https://example.com/paper.pdf"} {
		paper := samplePaper("bad", 100)
		paper.PaperURL = raw
		if _, err := repo.UpsertPaper(context.Background(), paper); !errors.Is(err, domain.ErrUntrustedURL) {
			t.Fatalf("url %q: expected ErrUntrustedURL, got %v", raw, err)
		}
	}
}

func TestGetAndListPapers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := openTestRepo(t)

	low, _ := repo.UpsertPaper(ctx, samplePaper("low", 5))
	high, _ := repo.UpsertPaper(ctx, samplePaper("high", 500))

	got, err := repo.GetPaper(ctx, low.ID)
	if err != nil {
		t.Fatalf("GetPaper: %v", err)
	}
	if got.TweetID != "low" || got.AuthorUsername != "ak" || !got.CreatedAt.Equal(baseTime.Add(-time.Hour)) {
		t.Fatalf("unexpected paper: %+v", got)
	}
	if got.PaperAbstract != nil {
		t.Fatalf("abstract should be NULL")
	}

	if _, err := repo.GetPaper(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	papers, err := repo.ListPapers(ctx)
	if err != nil {
		t.Fatalf("ListPapers: %v", err)
	}
	if len(papers) != 2 || papers[0].ID != high.ID {
		t.Fatalf("papers not ordered by likes: %+v", papers)
	}
}

func TestEnrichmentKeepsAbstractAcrossUpserts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := openTestRepo(t)

	untitled := samplePaper("1", 100)
	untitled.PaperTitle = nil
	paper, _ := repo.UpsertPaper(ctx, untitled)
	_, _ = repo.UpsertPaper(ctx, samplePaper("2", 50))

	pending, err := repo.PapersMissingAbstract(ctx, 10)
	if err != nil {
		t.Fatalf("PapersMissingAbstract: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending papers, got %d", len(pending))
	}

	enriched, err := repo.UpdatePaperEnrichment(ctx, paper.ID, "An abstract.", strPtr("Scraped Title"))
	if err != nil {
		t.Fatalf("UpdatePaperEnrichment: %v", err)
	}
	if enriched.PaperAbstract == nil || *enriched.PaperAbstract != "An abstract." {
		t.Fatalf("abstract not stored: %+v", enriched)
	}
	if enriched.PaperTitle == nil || *enriched.PaperTitle != "Scraped Title" {
		t.Fatalf("missing title not filled: %v", enriched.PaperTitle)
	}

	again := samplePaper("1", 120)
	again.PaperTitle = nil
	again.FetchedAt = baseTime.Add(time.Hour)
	refreshed, err := repo.UpsertPaper(ctx, again)
	if err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	if refreshed.PaperAbstract == nil || *refreshed.PaperAbstract != "An abstract." {
		t.Fatalf("abstract lost on re-admission")
	}

	pending, _ = repo.PapersMissingAbstract(ctx, 10)
	if len(pending) != 1 || pending[0].TweetID != "2" {
		t.Fatalf("unexpected pending papers: %+v", pending)
	}

	if _, err := repo.UpdatePaperEnrichment(ctx, "missing", "x", nil); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMissingAbstractPutsAttemptedPapersLast(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := openTestRepo(t)

	popular, _ := repo.UpsertPaper(ctx, samplePaper("1", 500))
	_, _ = repo.UpsertPaper(ctx, samplePaper("2", 50))

	if err := repo.MarkAbstractChecked(ctx, popular.ID, baseTime); err != nil {
		t.Fatalf("MarkAbstractChecked: %v", err)
	}

	pending, err := repo.PapersMissingAbstract(ctx, 1)
	if err != nil {
		t.Fatalf("PapersMissingAbstract: %v", err)
	}
	if len(pending) != 1 || pending[0].TweetID != "2" {
		t.Fatalf("unattempted paper should come first, got %+v", pending)
	}

	pending, _ = repo.PapersMissingAbstract(ctx, 10)
	if len(pending) != 2 || pending[1].ID != popular.ID {
		t.Fatalf("attempted paper should still be pending last, got %+v", pending)
	}

	if err := repo.MarkAbstractChecked(ctx, "missing", baseTime); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), "mysql", "dsn"); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}
