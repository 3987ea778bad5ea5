package tools

import (
	"fmt"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/attuneapp/attune/internal/log"
)

// CurrentTimeInput defines input for the current_time tool (none needed).
type CurrentTimeInput struct{}

// System holds dependencies for system tools.
type System struct {
	logger log.Logger
}

// NewSystem creates a System toolset.
func NewSystem(logger log.Logger) (*System, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &System{logger: logger}, nil
}

// RegisterSystem registers the system tools with Genkit.
func RegisterSystem(g *genkit.Genkit, st *System) ([]ai.Tool, error) {
	if g == nil {
		return nil, fmt.Errorf("genkit instance is required")
	}
	if st == nil {
		return nil, fmt.Errorf("System is required")
	}

	currentTime, err := Define(g, CurrentTimeName,
		"Get the current date and time. "+
			"Returns: formatted time string, Unix timestamp, and ISO 8601 format in UTC. "+
			"You MUST call this tool before answering ANY question about current dates, "+
			"times, durations, or scheduling, including when picking flight dates.",
		st.CurrentTime)
	if err != nil {
		return nil, err
	}

	return []ai.Tool{currentTime}, nil
}

// CurrentTime returns the current date and time in multiple formats.
// Available to anonymous users: it reads no per-user state.
func (s *System) CurrentTime(_ *ai.ToolContext, _ CurrentTimeInput) (Result, error) {
	now := time.Now().UTC()
	return OK(map[string]any{
		"time":      now.Format("2006-01-02 15:04:05"),
		"timestamp": now.Unix(),
		"iso8601":   now.Format(time.RFC3339),
	}), nil
}
