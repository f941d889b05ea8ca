package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"PaperFeed/internal/domain"
	"PaperFeed/internal/ingest"
	"PaperFeed/internal/ports"
)

type searcherStub struct {
	posts    []domain.SocialPost
	err      error
	requests []ports.SearchRequest
}

func (s *searcherStub) Search(_ context.Context, req ports.SearchRequest) ([]domain.SocialPost, error) {
	s.requests = append(s.requests, req)
	return s.posts, s.err
}

// memoryStore implements the paper, note and publish repositories in memory.
type memoryStore struct {
	mu       sync.Mutex
	papers   map[string]domain.Paper
	notes    map[string]domain.Note
	records  []domain.PublishRecord
	seq      int
	failTIDs map[string]bool
	checked  map[string]time.Time
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		papers:   map[string]domain.Paper{},
		notes:    map[string]domain.Note{},
		failTIDs: map[string]bool{},
		checked:  map[string]time.Time{},
	}
}

func (m *memoryStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *memoryStore) UpsertPaper(_ context.Context, paper domain.Paper) (domain.Paper, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failTIDs[paper.TweetID] {
		return domain.Paper{}, errors.New("disk full")
	}
	if !ingest.Allowed(paper.PaperURL) {
		return domain.Paper{}, domain.ErrUntrustedURL
	}
	for id, existing := range m.papers {
		if existing.TweetID == paper.TweetID {
			paper.ID = id
			paper.PaperAbstract = existing.PaperAbstract
			if existing.FetchedAt.After(paper.FetchedAt) {
				paper.FetchedAt = existing.FetchedAt
			}
			m.papers[id] = paper
			return paper, nil
		}
	}
	paper.ID = m.nextID("paper")
	m.papers[paper.ID] = paper
	return paper, nil
}

func (m *memoryStore) GetPaper(_ context.Context, id string) (domain.Paper, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	paper, ok := m.papers[id]
	if !ok {
		return domain.Paper{}, fmt.Errorf("paper %s: %w", id, domain.ErrNotFound)
	}
	return paper, nil
}

func (m *memoryStore) ListPapers(_ context.Context) ([]domain.Paper, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	papers := make([]domain.Paper, 0, len(m.papers))
	for _, p := range m.papers {
		papers = append(papers, p)
	}
	sort.Slice(papers, func(i, j int) bool { return papers[i].ID < papers[j].ID })
	return papers, nil
}

func (m *memoryStore) PapersMissingAbstract(ctx context.Context, limit int) ([]domain.Paper, error) {
	all, _ := m.ListPapers(ctx)
	m.mu.Lock()
	defer m.mu.Unlock()
	var pending []domain.Paper
	for _, p := range all {
		if p.PaperAbstract == nil {
			pending = append(pending, p)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		ci, iok := m.checked[pending[i].ID]
		cj, jok := m.checked[pending[j].ID]
		if iok != jok {
			return !iok
		}
		return ci.Before(cj)
	})
	if len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (m *memoryStore) MarkAbstractChecked(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.papers[id]; !ok {
		return domain.ErrNotFound
	}
	m.checked[id] = at
	return nil
}

func (m *memoryStore) UpdatePaperEnrichment(_ context.Context, id, abstract string, title *string) (domain.Paper, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	paper, ok := m.papers[id]
	if !ok {
		return domain.Paper{}, domain.ErrNotFound
	}
	paper.PaperAbstract = &abstract
	if paper.PaperTitle == nil && title != nil {
		paper.PaperTitle = title
	}
	m.papers[id] = paper
	return paper, nil
}

func (m *memoryStore) CreateNote(_ context.Context, note domain.Note) (domain.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	note.ID = m.nextID("note")
	m.notes[note.ID] = note
	return note, nil
}

func (m *memoryStore) GetNote(_ context.Context, id string) (domain.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	note, ok := m.notes[id]
	if !ok {
		return domain.Note{}, fmt.Errorf("note %s: %w", id, domain.ErrNotFound)
	}
	return note, nil
}

func (m *memoryStore) ListNotes(_ context.Context) ([]domain.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	notes := make([]domain.Note, 0, len(m.notes))
	for _, n := range m.notes {
		notes = append(notes, n)
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].CreatedAt.After(notes[j].CreatedAt) })
	return notes, nil
}

func (m *memoryStore) UpdateNote(_ context.Context, id string, upd domain.NoteUpdate, at time.Time) (domain.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	note, ok := m.notes[id]
	if !ok {
		return domain.Note{}, fmt.Errorf("note %s: %w", id, domain.ErrNotFound)
	}
	if upd.Title != nil {
		note.Title = *upd.Title
	}
	if upd.Content != nil {
		note.Content = *upd.Content
	}
	if upd.Tags != nil {
		note.Tags = upd.Tags
	}
	if upd.CoverText != nil {
		note.CoverText = upd.CoverText
	}
	note.UpdatedAt = at
	m.notes[id] = note
	return note, nil
}

func (m *memoryStore) CreatePublishRecord(_ context.Context, rec domain.PublishRecord) (domain.PublishRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.ID = m.nextID("record")
	m.records = append([]domain.PublishRecord{rec}, m.records...)
	return rec, nil
}

func (m *memoryStore) FindPublished(_ context.Context, noteID string) (domain.PublishRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.records {
		if rec.NoteID == noteID && rec.Status == domain.StatusPublished {
			return rec, nil
		}
	}
	return domain.PublishRecord{}, domain.ErrNotFound
}

func (m *memoryStore) ListPublishRecords(_ context.Context) ([]domain.PublishRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.PublishRecord(nil), m.records...), nil
}

type completerStub struct {
	reply  string
	err    error
	system string
	prompt string
}

func (c *completerStub) Complete(_ context.Context, system, prompt string) (string, error) {
	c.system, c.prompt = system, prompt
	return c.reply, c.err
}

type notifierStub struct {
	messages []string
	err      error
}

func (n *notifierStub) PublishDigest(_ context.Context, digest string) error {
	n.messages = append(n.messages, digest)
	return n.err
}

type abstractStub struct {
	name     string
	host     string
	abstract domain.Abstract
	err      error
	calls    int
}

func (a *abstractStub) Name() string { return a.name }

func (a *abstractStub) Supports(paperURL string) bool {
	return a.host != "" && strings.Contains(paperURL, a.host)
}

func (a *abstractStub) FetchAbstract(context.Context, string) (domain.Abstract, error) {
	a.calls++
	return a.abstract, a.err
}

var fixedNow = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }
