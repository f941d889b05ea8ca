package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"PaperFeed/internal/domain"
	"PaperFeed/internal/logging"
	"PaperFeed/internal/ports"
)

// PublishedMessage accompanies every successful simulated publish.
const PublishedMessage = "Content published successfully (simulated)"

// PublisherDeps wires the publish use case.
type PublisherDeps struct {
	Notes    ports.NoteRepository
	Records  ports.PublishRepository
	Notifier ports.Notifier
	Delay    time.Duration
	Now      func() time.Time
	Logger   *slog.Logger
}

// Publisher performs the simulated publication of a note.
type Publisher struct {
	notes    ports.NoteRepository
	records  ports.PublishRepository
	notifier ports.Notifier
	delay    time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// NewPublisher constructs the publish use case.
func NewPublisher(deps PublisherDeps) *Publisher {
	p := &Publisher{
		notes:    deps.Notes,
		records:  deps.Records,
		notifier: deps.Notifier,
		delay:    deps.Delay,
		now:      deps.Now,
		logger:   deps.Logger,
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.logger == nil {
		p.logger = logging.Discard()
	}
	return p
}

// Publish records a published status for the note. A note that already has a
// published record is rejected with ErrAlreadyPublished; an attempt cancelled
// during the delay leaves a failed record.
func (p *Publisher) Publish(ctx context.Context, noteID string) (domain.PublishRecord, error) {
	if strings.TrimSpace(noteID) == "" {
		return domain.PublishRecord{}, fmt.Errorf("xhsContentId is required: %w", ErrInvalidInput)
	}

	note, err := p.notes.GetNote(ctx, noteID)
	if err != nil {
		return domain.PublishRecord{}, fmt.Errorf("load note: %w", err)
	}

	_, err = p.records.FindPublished(ctx, noteID)
	switch {
	case err == nil:
		return domain.PublishRecord{}, fmt.Errorf("note %s: %w", noteID, ErrAlreadyPublished)
	case !errors.Is(err, domain.ErrNotFound):
		return domain.PublishRecord{}, fmt.Errorf("check publish state: %w", err)
	}

	p.logger.Info("publishing note", "note_id", note.ID, "title", note.Title, "tags", note.Tags)
	if err := p.wait(ctx); err != nil {
		p.recordFailure(ctx, note.ID)
		return domain.PublishRecord{}, err
	}

	now := p.now()
	record, err := p.records.CreatePublishRecord(ctx, domain.PublishRecord{
		NoteID:      note.ID,
		Status:      domain.StatusPublished,
		PublishedAt: &now,
		CreatedAt:   now,
	})
	if err != nil {
		return domain.PublishRecord{}, fmt.Errorf("save publish record: %w", err)
	}

	if p.notifier != nil {
		if err := p.notifier.PublishDigest(ctx, buildAnnouncement(note)); err != nil {
			p.logger.Warn("publish announcement failed", "note_id", note.ID, "err", err)
		}
	}
	return record, nil
}

// recordFailure keeps an aborted attempt in the history. It does not count as
// published, so the note can be retried.
func (p *Publisher) recordFailure(ctx context.Context, noteID string) {
	_, err := p.records.CreatePublishRecord(context.WithoutCancel(ctx), domain.PublishRecord{
		NoteID:    noteID,
		Status:    domain.StatusFailed,
		CreatedAt: p.now(),
	})
	if err != nil {
		p.logger.Warn("save failed publish record", "note_id", noteID, "err", err)
	}
}

func (p *Publisher) wait(ctx context.Context) error {
	if p.delay <= 0 {
		return nil
	}
	timer := time.NewTimer(p.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func buildAnnouncement(note domain.Note) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Published: %s\n", note.Title)
	if len(note.Tags) > 0 {
		b.WriteString("#" + strings.Join(note.Tags, " #"))
	}
	return strings.TrimSpace(b.String())
}
