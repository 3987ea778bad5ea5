package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"google.golang.org/genai"

	"github.com/attuneapp/attune/internal/log"
)

const (
	// VectorDimension is the embedding size stored in the vector column.
	// Must match the dimension in the memories migration.
	VectorDimension = 768

	// EmbedTimeout bounds a single embedding call.
	EmbedTimeout = 15 * time.Second

	// MaxMemoryContentLength caps stored memory text.
	MaxMemoryContentLength = 2000

	// MaxRecallResults is the hard cap on a single recall.
	MaxRecallResults = 20
)

// Memory is a single remembered fact about a subject.
type Memory struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   string    `json:"-"`
	Content   string    `json:"content"`
	Category  string    `json:"category,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// MemoryStore manages long-term memories backed by PostgreSQL + pgvector.
// Recall ranks by cosine similarity between the query embedding and the
// stored content embeddings.
type MemoryStore struct {
	pool     *pgxpool.Pool
	embedder ai.Embedder
	logger   log.Logger
}

// NewMemoryStore creates a MemoryStore.
func NewMemoryStore(pool *pgxpool.Pool, embedder ai.Embedder, logger log.Logger) (*MemoryStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &MemoryStore{pool: pool, embedder: embedder, logger: logger}, nil
}

// embed generates a vector embedding for the given text.
func (s *MemoryStore) embed(ctx context.Context, text string) (pgvector.Vector, error) {
	dim := int32(VectorDimension)
	resp, err := s.embedder.Embed(ctx, &ai.EmbedRequest{
		Input:   []*ai.Document{ai.DocumentFromText(text, nil)},
		Options: &genai.EmbedContentConfig{OutputDimensionality: &dim},
	})
	if err != nil {
		return pgvector.Vector{}, fmt.Errorf("embedding text: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return pgvector.Vector{}, fmt.Errorf("empty embedding response")
	}
	return pgvector.NewVector(resp.Embeddings[0].Embedding), nil
}

// Save stores a new memory and returns the stored row.
func (s *MemoryStore) Save(ctx context.Context, ownerID, content, category string) (*Memory, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("owner ID is required")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("content is required")
	}
	if len(content) > MaxMemoryContentLength {
		return nil, fmt.Errorf("content length %d exceeds maximum %d", len(content), MaxMemoryContentLength)
	}

	embedCtx, cancel := context.WithTimeout(ctx, EmbedTimeout)
	defer cancel()

	vec, err := s.embed(embedCtx, content)
	if err != nil {
		return nil, fmt.Errorf("embedding: %w", err)
	}

	m := &Memory{}
	err = s.pool.QueryRow(ctx,
		`INSERT INTO memories (owner_id, content, category, embedding)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, owner_id, content, category, created_at`,
		ownerID, content, category, vec,
	).Scan(&m.ID, &m.OwnerID, &m.Content, &m.Category, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting memory: %w", err)
	}
	return m, nil
}

// Search returns up to limit memories for the owner ordered by cosine
// similarity to the query, most similar first.
func (s *MemoryStore) Search(ctx context.Context, ownerID, query string, limit int) ([]*Memory, error) {
	if ownerID == "" || strings.TrimSpace(query) == "" {
		return []*Memory{}, nil
	}
	if limit <= 0 {
		limit = 5
	}
	if limit > MaxRecallResults {
		limit = MaxRecallResults
	}

	embedCtx, cancel := context.WithTimeout(ctx, EmbedTimeout)
	defer cancel()

	vec, err := s.embed(embedCtx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, owner_id, content, category, created_at
		 FROM memories
		 WHERE owner_id = $1
		 ORDER BY embedding <=> $2
		 LIMIT $3`,
		ownerID, vec, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("searching memories: %w", err)
	}
	defer rows.Close()

	var memories []*Memory
	for rows.Next() {
		m := &Memory{}
		if err := rows.Scan(&m.ID, &m.OwnerID, &m.Content, &m.Category, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning memory: %w", err)
		}
		memories = append(memories, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating memories: %w", err)
	}
	return memories, nil
}

// Forget removes a memory. Returns ErrNotFound if no row matched the
// owner and ID.
func (s *MemoryStore) Forget(ctx context.Context, ownerID string, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM memories WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("deleting memory %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
