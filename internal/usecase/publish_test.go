package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"PaperFeed/internal/domain"
)

func seedNote(t *testing.T, store *memoryStore) domain.Note {
	t.Helper()
	note, err := store.CreateNote(context.Background(), domain.Note{
		PaperID:   "paper-1",
		Title:     "🔥 Big paper",
		Content:   "正文",
		Tags:      []string{"AI", "LLM"},
		CreatedAt: fixedNow,
		UpdatedAt: fixedNow,
	})
	if err != nil {
		t.Fatalf("seed note: %v", err)
	}
	return note
}

func TestPublishCreatesRecordOnce(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	note := seedNote(t, store)
	notifier := &notifierStub{}
	publisher := NewPublisher(PublisherDeps{Notes: store, Records: store, Notifier: notifier, Now: fixedClock})

	record, err := publisher.Publish(context.Background(), note.ID)
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if record.NoteID != note.ID || record.Status != domain.StatusPublished {
		t.Fatalf("unexpected record: %+v", record)
	}
	if record.PublishedAt == nil || !record.PublishedAt.Equal(fixedNow) {
		t.Fatalf("unexpected published at: %v", record.PublishedAt)
	}
	if len(notifier.messages) != 1 || !strings.Contains(notifier.messages[0], "Big paper") || !strings.Contains(notifier.messages[0], "#AI #LLM") {
		t.Fatalf("unexpected announcement: %v", notifier.messages)
	}

	if _, err := publisher.Publish(context.Background(), note.ID); !errors.Is(err, ErrAlreadyPublished) {
		t.Fatalf("expected ErrAlreadyPublished, got %v", err)
	}
	if len(store.records) != 1 {
		t.Fatalf("expected a single publish record, got %d", len(store.records))
	}
}

func TestPublishIgnoresNotifierFailure(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	note := seedNote(t, store)
	publisher := NewPublisher(PublisherDeps{Notes: store, Records: store, Notifier: &notifierStub{err: errors.New("telegram down")}})

	if _, err := publisher.Publish(context.Background(), note.ID); err != nil {
		t.Fatalf("notifier failure must not fail publish: %v", err)
	}
}

func TestPublishErrors(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	publisher := NewPublisher(PublisherDeps{Notes: store, Records: store})

	if _, err := publisher.Publish(context.Background(), ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := publisher.Publish(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPublishHonoursCancelledDelay(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	note := seedNote(t, store)
	publisher := NewPublisher(PublisherDeps{Notes: store, Records: store, Delay: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := publisher.Publish(ctx, note.ID); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(store.records) != 1 || store.records[0].Status != domain.StatusFailed {
		t.Fatalf("cancelled publish should leave one failed record, got %+v", store.records)
	}
	if store.records[0].PublishedAt != nil {
		t.Fatalf("failed record must not carry a publish time")
	}

	retry := NewPublisher(PublisherDeps{Notes: store, Records: store, Now: fixedClock})
	record, err := retry.Publish(context.Background(), note.ID)
	if err != nil {
		t.Fatalf("retry after failed attempt: %v", err)
	}
	if record.Status != domain.StatusPublished {
		t.Fatalf("unexpected retry status %q", record.Status)
	}
}
