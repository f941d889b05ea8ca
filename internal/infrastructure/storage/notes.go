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
)

var noteColumns = []string{
	"id", "paper_id", "title", "content", "tags", "cover_text", "emoji_list", "created_at", "updated_at",
}

var publishColumns = []string{"id", "note_id", "status", "published_at", "created_at"}

// CreateNote stores a rewritten note for a paper.
func (r *Repository) CreateNote(ctx context.Context, note domain.Note) (domain.Note, error) {
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if note.CreatedAt.IsZero() {
		note.CreatedAt = now
	}
	if note.UpdatedAt.IsZero() {
		note.UpdatedAt = note.CreatedAt
	}

	tags, err := encodeList(note.Tags)
	if err != nil {
		return domain.Note{}, err
	}
	cover, err := encodeList(note.CoverText)
	if err != nil {
		return domain.Note{}, err
	}
	emoji, err := encodeList(note.EmojiList)
	if err != nil {
		return domain.Note{}, err
	}

	query, args, err := r.builder.Insert("notes").
		Columns(noteColumns...).
		Values(note.ID, note.PaperID, note.Title, note.Content, tags, cover, emoji,
			note.CreatedAt.UTC(), note.UpdatedAt.UTC()).
		Suffix("RETURNING " + strings.Join(noteColumns, ", ")).
		ToSql()
	if err != nil {
		return domain.Note{}, fmt.Errorf("build insert: %w", err)
	}

	saved, err := scanNote(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return domain.Note{}, fmt.Errorf("insert note: %w", err)
	}
	return saved, nil
}

// GetNote loads a note by id.
func (r *Repository) GetNote(ctx context.Context, id string) (domain.Note, error) {
	query, args, err := r.builder.Select(noteColumns...).
		From("notes").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.Note{}, fmt.Errorf("build select: %w", err)
	}

	note, err := scanNote(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Note{}, fmt.Errorf("note %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Note{}, fmt.Errorf("get note %s: %w", id, err)
	}
	return note, nil
}

// ListNotes returns all notes, newest first.
func (r *Repository) ListNotes(ctx context.Context) ([]domain.Note, error) {
	query, args, err := r.builder.Select(noteColumns...).
		From("notes").
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()

	var notes []domain.Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return notes, nil
}

// UpdateNote applies a partial edit and bumps updated_at.
func (r *Repository) UpdateNote(ctx context.Context, id string, upd domain.NoteUpdate, at time.Time) (domain.Note, error) {
	update := r.builder.Update("notes").
		Set("updated_at", at.UTC()).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(noteColumns, ", "))

	if upd.Title != nil {
		update = update.Set("title", *upd.Title)
	}
	if upd.Content != nil {
		update = update.Set("content", *upd.Content)
	}
	if upd.Tags != nil {
		tags, err := encodeList(upd.Tags)
		if err != nil {
			return domain.Note{}, err
		}
		update = update.Set("tags", tags)
	}
	if upd.CoverText != nil {
		cover, err := encodeList(upd.CoverText)
		if err != nil {
			return domain.Note{}, err
		}
		update = update.Set("cover_text", cover)
	}

	query, args, err := update.ToSql()
	if err != nil {
		return domain.Note{}, fmt.Errorf("build update: %w", err)
	}

	note, err := scanNote(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Note{}, fmt.Errorf("note %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Note{}, fmt.Errorf("update note %s: %w", id, err)
	}
	return note, nil
}

// CreatePublishRecord appends a publish record for a note.
func (r *Repository) CreatePublishRecord(ctx context.Context, rec domain.PublishRecord) (domain.PublishRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	var publishedAt any
	if rec.PublishedAt != nil {
		publishedAt = rec.PublishedAt.UTC()
	}

	query, args, err := r.builder.Insert("publish_records").
		Columns(publishColumns...).
		Values(rec.ID, rec.NoteID, string(rec.Status), publishedAt, rec.CreatedAt.UTC()).
		Suffix("RETURNING " + strings.Join(publishColumns, ", ")).
		ToSql()
	if err != nil {
		return domain.PublishRecord{}, fmt.Errorf("build insert: %w", err)
	}

	saved, err := scanPublishRecord(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return domain.PublishRecord{}, fmt.Errorf("insert publish record: %w", err)
	}
	return saved, nil
}

// FindPublished returns the published record of a note, or ErrNotFound.
func (r *Repository) FindPublished(ctx context.Context, noteID string) (domain.PublishRecord, error) {
	query, args, err := r.builder.Select(publishColumns...).
		From("publish_records").
		Where(sq.Eq{"note_id": noteID, "status": string(domain.StatusPublished)}).
		OrderBy("created_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return domain.PublishRecord{}, fmt.Errorf("build select: %w", err)
	}

	rec, err := scanPublishRecord(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PublishRecord{}, fmt.Errorf("publish record for %s: %w", noteID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.PublishRecord{}, fmt.Errorf("find published %s: %w", noteID, err)
	}
	return rec, nil
}

// ListPublishRecords returns the publish history, newest first.
func (r *Repository) ListPublishRecords(ctx context.Context) ([]domain.PublishRecord, error) {
	query, args, err := r.builder.Select(publishColumns...).
		From("publish_records").
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query publish records: %w", err)
	}
	defer rows.Close()

	var records []domain.PublishRecord
	for rows.Next() {
		rec, err := scanPublishRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan publish record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return records, nil
}

func scanNote(row rowScanner) (domain.Note, error) {
	var (
		note                 domain.Note
		tags, cover, emoji   string
		createdAt, updatedAt timestamp
	)
	if err := row.Scan(&note.ID, &note.PaperID, &note.Title, &note.Content,
		&tags, &cover, &emoji, &createdAt, &updatedAt); err != nil {
		return domain.Note{}, err
	}

	var err error
	if note.Tags, err = decodeList(tags); err != nil {
		return domain.Note{}, err
	}
	if note.CoverText, err = decodeList(cover); err != nil {
		return domain.Note{}, err
	}
	if note.EmojiList, err = decodeList(emoji); err != nil {
		return domain.Note{}, err
	}
	note.CreatedAt = createdAt.Time
	note.UpdatedAt = updatedAt.Time
	return note, nil
}

func scanPublishRecord(row rowScanner) (domain.PublishRecord, error) {
	var (
		rec                    domain.PublishRecord
		status                 string
		publishedAt, createdAt timestamp
	)
	if err := row.Scan(&rec.ID, &rec.NoteID, &status, &publishedAt, &createdAt); err != nil {
		return domain.PublishRecord{}, err
	}
	rec.Status = domain.PublishStatus(status)
	rec.PublishedAt = publishedAt.ptr()
	rec.CreatedAt = createdAt.Time
	return rec, nil
}
