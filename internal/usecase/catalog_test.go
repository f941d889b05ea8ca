package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"PaperFeed/internal/domain"
)

func TestListCardsJoinsLatestNoteAndRecord(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemoryStore()

	low, _ := store.UpsertPaper(ctx, domain.Paper{TweetID: "1", PaperURL: "https://arxiv.org/abs/1", LikeCount: 10})
	high, _ := store.UpsertPaper(ctx, domain.Paper{TweetID: "2", PaperURL: "https://arxiv.org/abs/2", LikeCount: 999})

	_, _ = store.CreateNote(ctx, domain.Note{PaperID: high.ID, Title: "old", CreatedAt: fixedNow})
	latest, _ := store.CreateNote(ctx, domain.Note{PaperID: high.ID, Title: "new", CreatedAt: fixedNow.Add(time.Minute)})
	_, _ = store.CreatePublishRecord(ctx, domain.PublishRecord{NoteID: latest.ID, Status: domain.StatusPublished})

	cards, err := NewCatalog(store, store, store, nil).ListCards(ctx)
	if err != nil {
		t.Fatalf("ListCards returned error: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(cards))
	}
	if cards[0].Raw.ID != high.ID || cards[1].Raw.ID != low.ID {
		t.Fatalf("cards not ordered by likes")
	}
	if cards[0].Note == nil || cards[0].Note.Title != "new" {
		t.Fatalf("expected latest note, got %+v", cards[0].Note)
	}
	if cards[0].Publish == nil || cards[0].Publish.Status != domain.StatusPublished {
		t.Fatalf("expected publish record, got %+v", cards[0].Publish)
	}
	if cards[1].Note != nil || cards[1].Publish != nil {
		t.Fatalf("paper without note should have an empty card")
	}
}

func TestUpdateNote(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemoryStore()
	note, _ := store.CreateNote(ctx, domain.Note{PaperID: "p", Title: "before", Content: "body", CreatedAt: fixedNow, UpdatedAt: fixedNow})

	later := fixedNow.Add(time.Hour)
	catalog := NewCatalog(store, store, store, func() time.Time { return later })

	title := "after"
	updated, err := catalog.UpdateNote(ctx, note.ID, domain.NoteUpdate{Title: &title})
	if err != nil {
		t.Fatalf("UpdateNote returned error: %v", err)
	}
	if updated.Title != "after" || updated.Content != "body" || !updated.UpdatedAt.Equal(later) {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	if _, err := catalog.UpdateNote(ctx, note.ID, domain.NoteUpdate{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty update, got %v", err)
	}
	if _, err := catalog.UpdateNote(ctx, "missing", domain.NoteUpdate{Title: &title}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
