package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/google/uuid"

	"github.com/attuneapp/attune/internal/log"
	"github.com/attuneapp/attune/internal/store"
)

// memoryCategories are the accepted values for SaveMemoryInput.Category.
var memoryCategories = []string{"identity", "preference", "project", "contextual"}

// MemoryStore is the persistence surface the memory tools need.
type MemoryStore interface {
	Save(ctx context.Context, ownerID, content, category string) (*store.Memory, error)
	Search(ctx context.Context, ownerID, query string, limit int) ([]*store.Memory, error)
	Forget(ctx context.Context, ownerID string, id uuid.UUID) error
}

// SaveMemoryInput defines input for the save_memory tool.
type SaveMemoryInput struct {
	Content  string `json:"content"`
	Category string `json:"category,omitempty"`
}

// Validate checks domain constraints beyond the JSON schema.
func (in SaveMemoryInput) Validate() error {
	if strings.TrimSpace(in.Content) == "" {
		return fmt.Errorf("content must not be empty")
	}
	if len(in.Content) > store.MaxMemoryContentLength {
		return fmt.Errorf("content length %d exceeds maximum %d", len(in.Content), store.MaxMemoryContentLength)
	}
	if in.Category == "" {
		return nil
	}
	for _, c := range memoryCategories {
		if in.Category == c {
			return nil
		}
	}
	return fmt.Errorf("category must be one of: %s", strings.Join(memoryCategories, ", "))
}

// RecallMemoriesInput defines input for the recall_memories tool.
type RecallMemoriesInput struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// Validate checks domain constraints beyond the JSON schema.
func (in RecallMemoriesInput) Validate() error {
	if strings.TrimSpace(in.Query) == "" {
		return fmt.Errorf("query must not be empty")
	}
	if in.Limit < 0 || in.Limit > store.MaxRecallResults {
		return fmt.Errorf("limit must be between 0 and %d", store.MaxRecallResults)
	}
	return nil
}

// ForgetMemoryInput defines input for the forget_memory tool.
type ForgetMemoryInput struct {
	MemoryID string `json:"memoryId"`
}

// Validate checks domain constraints beyond the JSON schema.
func (in ForgetMemoryInput) Validate() error {
	return validateID(in.MemoryID, "memoryId")
}

// Memories holds dependencies for memory tools.
type Memories struct {
	store  MemoryStore
	logger log.Logger
}

// NewMemories creates a Memories toolset.
func NewMemories(st MemoryStore, logger log.Logger) (*Memories, error) {
	if st == nil {
		return nil, fmt.Errorf("memory store is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Memories{store: st, logger: logger}, nil
}

// RegisterMemories registers the memory tools with Genkit.
func RegisterMemories(g *genkit.Genkit, m *Memories) ([]ai.Tool, error) {
	if g == nil {
		return nil, fmt.Errorf("genkit instance is required")
	}
	if m == nil {
		return nil, fmt.Errorf("Memories is required")
	}

	saveMemory, err := Define(g, SaveMemoryName,
		"Remember a fact about the user for future conversations. "+
			"Save stable facts (name, preferences, ongoing projects), not chit-chat. "+
			"Category is one of: identity, preference, project, contextual. "+
			"Requires the user to be signed in.",
		m.SaveMemory)
	if err != nil {
		return nil, err
	}

	recallMemories, err := Define(g, RecallMemoriesName,
		"Search the user's saved memories by meaning, most relevant first. "+
			"Use this before answering questions about what the user previously told you, "+
			"and ALWAYS before forgetting a memory, to find its ID. "+
			"Requires the user to be signed in.",
		m.RecallMemories)
	if err != nil {
		return nil, err
	}

	forgetMemory, err := Define(g, ForgetMemoryName,
		"Permanently forget one saved memory by ID. "+
			"Call recall_memories first to locate the memory and confirm with the user. "+
			"Requires the user to be signed in.",
		m.ForgetMemory)
	if err != nil {
		return nil, err
	}

	return []ai.Tool{saveMemory, recallMemories, forgetMemory}, nil
}

// SaveMemory stores a fact about the signed-in subject.
func (m *Memories) SaveMemory(tctx *ai.ToolContext, in SaveMemoryInput) (Result, error) {
	subject, denied, ok := RequireSubject(tctx.Context)
	if !ok {
		return denied, nil
	}

	mem, err := m.store.Save(tctx.Context, subject, in.Content, in.Category)
	if err != nil {
		if tctx.Context.Err() != nil {
			return Result{}, fmt.Errorf("saving memory: %w", err)
		}
		m.logger.Warn("saving memory", "error", err)
		return Errf(ErrCodeExecution, "could not save the memory"), nil
	}

	m.logger.Debug("memory saved", "memory_id", mem.ID)
	return Result{
		Status:  StatusSuccess,
		Message: "Memory saved.",
		Data:    map[string]any{"memory": mem},
	}, nil
}

// RecallMemories searches the subject's memories by semantic similarity.
func (m *Memories) RecallMemories(tctx *ai.ToolContext, in RecallMemoriesInput) (Result, error) {
	subject, denied, ok := RequireSubject(tctx.Context)
	if !ok {
		return denied, nil
	}

	memories, err := m.store.Search(tctx.Context, subject, in.Query, in.Limit)
	if err != nil {
		if tctx.Context.Err() != nil {
			return Result{}, fmt.Errorf("recalling memories: %w", err)
		}
		m.logger.Warn("recalling memories", "error", err)
		return Errf(ErrCodeExecution, "could not search memories"), nil
	}

	if memories == nil {
		memories = []*store.Memory{}
	}
	return OK(map[string]any{
		"memories": memories,
		"count":    len(memories),
	}), nil
}

// ForgetMemory removes one memory by ID.
func (m *Memories) ForgetMemory(tctx *ai.ToolContext, in ForgetMemoryInput) (Result, error) {
	subject, denied, ok := RequireSubject(tctx.Context)
	if !ok {
		return denied, nil
	}

	id := uuid.MustParse(in.MemoryID) // validated in Validate
	err := m.store.Forget(tctx.Context, subject, id)
	if errors.Is(err, store.ErrNotFound) {
		return Errf(ErrCodeNotFound, "no memory with ID %s", in.MemoryID), nil
	}
	if err != nil {
		if tctx.Context.Err() != nil {
			return Result{}, fmt.Errorf("forgetting memory: %w", err)
		}
		m.logger.Warn("forgetting memory", "memory_id", id, "error", err)
		return Errf(ErrCodeExecution, "could not forget the memory"), nil
	}

	return Result{
		Status:  StatusSuccess,
		Message: "Memory forgotten.",
		Data:    map[string]any{"deletedId": in.MemoryID},
	}, nil
}
