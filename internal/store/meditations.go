package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/attuneapp/attune/internal/log"
)

// Meditation is a generated meditation script, optionally with rendered audio.
type Meditation struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   string    `json:"-"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Type      string    `json:"type"`
	Language  string    `json:"language"`
	AudioURL  string    `json:"audioUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

const meditationCols = `id, owner_id, title, content, type, language, audio_url, created_at`

// MeditationStore manages saved meditations backed by PostgreSQL.
type MeditationStore struct {
	pool   *pgxpool.Pool
	logger log.Logger
}

// NewMeditationStore creates a MeditationStore.
func NewMeditationStore(pool *pgxpool.Pool, logger log.Logger) (*MeditationStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &MeditationStore{pool: pool, logger: logger}, nil
}

// Save persists a meditation and returns the stored row.
func (s *MeditationStore) Save(ctx context.Context, m *Meditation) (*Meditation, error) {
	if m == nil {
		return nil, fmt.Errorf("meditation is required")
	}
	if m.OwnerID == "" {
		return nil, fmt.Errorf("owner ID is required")
	}
	if m.Title == "" || m.Content == "" {
		return nil, fmt.Errorf("title and content are required")
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO meditations (owner_id, title, content, type, language, audio_url)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+meditationCols,
		m.OwnerID, m.Title, m.Content, m.Type, m.Language, m.AudioURL,
	)
	saved, err := scanMeditation(row)
	if err != nil {
		return nil, fmt.Errorf("inserting meditation: %w", err)
	}
	return saved, nil
}

// List returns all meditations for the owner, newest first.
func (s *MeditationStore) List(ctx context.Context, ownerID string) ([]*Meditation, error) {
	if ownerID == "" {
		return []*Meditation{}, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+meditationCols+`
		 FROM meditations
		 WHERE owner_id = $1
		 ORDER BY created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing meditations: %w", err)
	}
	defer rows.Close()

	var meditations []*Meditation
	for rows.Next() {
		m, err := scanMeditation(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning meditation: %w", err)
		}
		meditations = append(meditations, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating meditations: %w", err)
	}
	return meditations, nil
}

// Delete removes a meditation. Returns ErrNotFound if no row matched
// the owner and ID.
func (s *MeditationStore) Delete(ctx context.Context, ownerID string, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM meditations WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("deleting meditation %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanMeditation(row pgx.Row) (*Meditation, error) {
	m := &Meditation{}
	if err := row.Scan(
		&m.ID, &m.OwnerID, &m.Title, &m.Content,
		&m.Type, &m.Language, &m.AudioURL, &m.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return m, nil
}
