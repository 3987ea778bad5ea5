package tools

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/google/jsonschema-go/jsonschema"

	"github.com/attuneapp/attune/internal/auth"
)

type echoInput struct {
	Text string `json:"text"`
}

func (in echoInput) Validate() error {
	if strings.TrimSpace(in.Text) == "" {
		return fmt.Errorf("text must not be empty")
	}
	return nil
}

func TestDefine_RegistersTool(t *testing.T) {
	g := genkit.Init(context.Background())

	tool, err := Define(g, "echo", "Echo the input text.",
		func(tctx *ai.ToolContext, in echoInput) (Result, error) {
			return OK(map[string]any{"text": in.Text}), nil
		})
	if err != nil {
		t.Fatalf("Define() error = %v", err)
	}
	if tool == nil {
		t.Fatal("Define() returned nil tool")
	}

	if genkit.LookupTool(g, "echo") == nil {
		t.Error("echo tool not registered")
	}
}

func TestValidateArgs(t *testing.T) {
	schema, err := jsonschema.For[echoInput](nil)
	if err != nil {
		t.Fatalf("deriving schema: %v", err)
	}
	resolved, err := schema.Resolve(nil)
	if err != nil {
		t.Fatalf("resolving schema: %v", err)
	}

	tests := []struct {
		name     string
		input    echoInput
		wantCode string
	}{
		{
			name:  "valid input passes",
			input: echoInput{Text: "hello"},
		},
		{
			name:     "domain validation rejects blank text",
			input:    echoInput{Text: "   "},
			wantCode: ErrCodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			violation := validateArgs(resolved, tt.input)
			if tt.wantCode == "" {
				if violation != nil {
					t.Errorf("validateArgs() = %+v, want nil", violation)
				}
				return
			}
			if violation == nil {
				t.Fatal("validateArgs() = nil, want violation")
			}
			if violation.Code != tt.wantCode {
				t.Errorf("violation code = %q, want %q", violation.Code, tt.wantCode)
			}
		})
	}
}

func TestValidateArgs_SchemaViolation(t *testing.T) {
	// A required field missing from the wire value must be caught by the
	// schema, not the executor.
	type strictInput struct {
		Title string `json:"title"`
		Count int    `json:"count"`
	}
	schema, err := jsonschema.For[strictInput](nil)
	if err != nil {
		t.Fatalf("deriving schema: %v", err)
	}
	resolved, err := schema.Resolve(nil)
	if err != nil {
		t.Fatalf("resolving schema: %v", err)
	}

	// Validate the raw wire shape directly: a map without the required keys.
	if err := resolved.Validate(map[string]any{"title": "x"}); err == nil {
		t.Error("Validate() accepted a value missing required field count")
	}
	if err := resolved.Validate(map[string]any{"title": "x", "count": float64(3)}); err != nil {
		t.Errorf("Validate() rejected a conforming value: %v", err)
	}
}

func TestInvoke_PanicContainment(t *testing.T) {
	tctx := &ai.ToolContext{Context: context.Background()}

	result, err := invoke(tctx, "exploding", func(*ai.ToolContext, echoInput) (Result, error) {
		panic("boom")
	}, echoInput{Text: "x"})

	if err != nil {
		t.Fatalf("invoke() error = %v, want nil", err)
	}
	if result.Status != StatusError {
		t.Errorf("status = %v, want %v", result.Status, StatusError)
	}
	if result.Error == nil || result.Error.Code != ErrCodeExecution {
		t.Errorf("error = %+v, want code %s", result.Error, ErrCodeExecution)
	}
	if !strings.Contains(result.Error.Message, "boom") {
		t.Errorf("error message %q should mention the panic value", result.Error.Message)
	}
}

func TestRequireSubject(t *testing.T) {
	t.Run("verified subject", func(t *testing.T) {
		ctx := auth.ContextWithSubject(context.Background(), "user-1")
		subject, _, ok := RequireSubject(ctx)
		if !ok {
			t.Fatal("RequireSubject() ok = false, want true")
		}
		if subject != "user-1" {
			t.Errorf("subject = %q, want user-1", subject)
		}
	})

	t.Run("missing subject", func(t *testing.T) {
		subject, denied, ok := RequireSubject(context.Background())
		if ok {
			t.Fatal("RequireSubject() ok = true, want false")
		}
		if subject != "" {
			t.Errorf("subject = %q, want empty", subject)
		}
		if denied.Status != StatusError {
			t.Errorf("denied status = %v, want %v", denied.Status, StatusError)
		}
		if denied.Error == nil || denied.Error.Code != ErrCodeUnauthenticated {
			t.Errorf("denied error = %+v, want code %s", denied.Error, ErrCodeUnauthenticated)
		}
	})
}

func TestErrf(t *testing.T) {
	r := Errf(ErrCodeNotFound, "no task with ID %s", "abc")
	if r.Status != StatusError {
		t.Errorf("status = %v, want %v", r.Status, StatusError)
	}
	if r.Error.Code != ErrCodeNotFound {
		t.Errorf("code = %q, want %q", r.Error.Code, ErrCodeNotFound)
	}
	if r.Error.Message != "no task with ID abc" {
		t.Errorf("message = %q", r.Error.Message)
	}
}

type recordingEmitter struct {
	starts  []string
	results []Result
}

func (e *recordingEmitter) ToolStart(name string)            { e.starts = append(e.starts, name) }
func (e *recordingEmitter) ToolResult(name string, r Result) { e.results = append(e.results, r) }

func TestEmitterContext(t *testing.T) {
	t.Run("round-trips through context", func(t *testing.T) {
		emitter := &recordingEmitter{}
		ctx := ContextWithEmitter(context.Background(), emitter)
		if got := EmitterFromContext(ctx); got != Emitter(emitter) {
			t.Error("EmitterFromContext() did not return the stored emitter")
		}
	})

	t.Run("nil for empty context", func(t *testing.T) {
		if got := EmitterFromContext(context.Background()); got != nil {
			t.Errorf("EmitterFromContext() = %v, want nil", got)
		}
	})
}
