package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/campusnest/forum/internal/forum"
	"github.com/campusnest/forum/internal/moderation"
)

// ModerationStore keeps one row per screened post.
type ModerationStore struct {
	db *sql.DB
}

var (
	_ forum.Recorder    = (*ModerationStore)(nil)
	_ forum.ReviewQueue = (*ModerationStore)(nil)
)

// NewModerationStore creates a store backed by the given database handle.
func NewModerationStore(db *sql.DB) *ModerationStore {
	return &ModerationStore{db: db}
}

const recordColumns = `id, author_id, category, tags, status, is_unsafe, confidence,
	categories, flagged_words, language, source, created_at`

func scanRecord(row rowScanner) (*forum.Record, error) {
	var (
		r      forum.Record
		source string
	)
	err := row.Scan(&r.ID, &r.AuthorID, &r.Category, pq.Array(&r.Tags), &r.Status,
		&r.Verdict.IsUnsafe, &r.Verdict.Confidence,
		pq.Array(&r.Verdict.Categories), pq.Array(&r.Verdict.FlaggedWords),
		&r.Verdict.Language, &source, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.Verdict.Source = moderation.Source(source)
	return &r, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// SaveRecord inserts r.
func (s *ModerationStore) SaveRecord(ctx context.Context, r *forum.Record) error {
	const query = `
		INSERT INTO moderation_records (id, author_id, category, tags, status, is_unsafe,
			confidence, categories, flagged_words, language, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := s.db.ExecContext(ctx, query,
		r.ID,
		r.AuthorID,
		string(r.Category),
		pq.Array(nonNil(r.Tags)),
		string(r.Status),
		r.Verdict.IsUnsafe,
		r.Verdict.Confidence,
		pq.Array(nonNil(r.Verdict.Categories)),
		pq.Array(nonNil(r.Verdict.FlaggedWords)),
		r.Verdict.Language,
		string(r.Verdict.Source),
		r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("pgstore: insert moderation record: %w", err)
	}
	return nil
}

// PendingRecords returns held records, newest first.
func (s *ModerationStore) PendingRecords(ctx context.Context, limit int) ([]forum.Record, error) {
	query := `SELECT ` + recordColumns + `
		FROM moderation_records
		WHERE status = 'PENDING_REVIEW'
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("pgstore: pending records: %w", err)
	}
	defer rows.Close()

	out := []forum.Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("pgstore: scan moderation record: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// Decide moves a held record to status. Records that were already decided
// are reported as not found.
func (s *ModerationStore) Decide(ctx context.Context, id uuid.UUID, status forum.PostStatus) (*forum.Record, error) {
	query := `
		UPDATE moderation_records
		SET status = $2
		WHERE id = $1 AND status = 'PENDING_REVIEW'
		RETURNING ` + recordColumns

	r, err := scanRecord(s.db.QueryRowContext(ctx, query, id, string(status)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, forum.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pgstore: decide moderation record: %w", err)
	}
	return r, nil
}
