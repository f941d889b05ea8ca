package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"PaperFeed/internal/domain"
	"PaperFeed/internal/ports"
)

// Catalog serves read models over papers, notes and publish records.
type Catalog struct {
	papers  ports.PaperRepository
	notes   ports.NoteRepository
	records ports.PublishRepository
	now     func() time.Time
}

// NewCatalog constructs the catalog use case. A nil now defaults to time.Now.
func NewCatalog(papers ports.PaperRepository, notes ports.NoteRepository, records ports.PublishRepository, now func() time.Time) *Catalog {
	if now == nil {
		now = time.Now
	}
	return &Catalog{papers: papers, notes: notes, records: records, now: now}
}

// ListCards joins every paper, most liked first, with its latest note and
// that note's latest publish record.
func (c *Catalog) ListCards(ctx context.Context) ([]domain.PaperCard, error) {
	papers, err := c.papers.ListPapers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list papers: %w", err)
	}
	notes, err := c.notes.ListNotes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	records, err := c.records.ListPublishRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("list publish records: %w", err)
	}

	// Both lists arrive newest first, so the first hit per key is the latest.
	noteByPaper := make(map[string]domain.Note, len(notes))
	for _, note := range notes {
		if _, ok := noteByPaper[note.PaperID]; !ok {
			noteByPaper[note.PaperID] = note
		}
	}
	recordByNote := make(map[string]domain.PublishRecord, len(records))
	for _, rec := range records {
		if _, ok := recordByNote[rec.NoteID]; !ok {
			recordByNote[rec.NoteID] = rec
		}
	}

	sort.SliceStable(papers, func(i, j int) bool {
		return papers[i].LikeCount > papers[j].LikeCount
	})

	cards := make([]domain.PaperCard, 0, len(papers))
	for _, paper := range papers {
		card := domain.PaperCard{Raw: paper}
		if note, ok := noteByPaper[paper.ID]; ok {
			card.Note = &note
			if rec, ok := recordByNote[note.ID]; ok {
				card.Publish = &rec
			}
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// ListPublishRecords returns the publish history, newest first.
func (c *Catalog) ListPublishRecords(ctx context.Context) ([]domain.PublishRecord, error) {
	records, err := c.records.ListPublishRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("list publish records: %w", err)
	}
	return records, nil
}

// UpdateNote applies a partial edit and refreshes the note's update time.
func (c *Catalog) UpdateNote(ctx context.Context, id string, upd domain.NoteUpdate) (domain.Note, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Note{}, fmt.Errorf("note id is required: %w", ErrInvalidInput)
	}
	if upd.Title == nil && upd.Content == nil && upd.Tags == nil && upd.CoverText == nil {
		return domain.Note{}, fmt.Errorf("no fields to update: %w", ErrInvalidInput)
	}
	note, err := c.notes.UpdateNote(ctx, id, upd, c.now())
	if err != nil {
		return domain.Note{}, fmt.Errorf("update note: %w", err)
	}
	return note, nil
}
