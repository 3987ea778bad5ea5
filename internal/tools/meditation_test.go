package tools

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/google/uuid"

	"github.com/attuneapp/attune/internal/audio"
	"github.com/attuneapp/attune/internal/log"
	"github.com/attuneapp/attune/internal/store"
	"github.com/attuneapp/attune/internal/testutil"
)

type fakeMeditationStore struct {
	meditations map[uuid.UUID]*store.Meditation
}

func newFakeMeditationStore() *fakeMeditationStore {
	return &fakeMeditationStore{meditations: make(map[uuid.UUID]*store.Meditation)}
}

func (f *fakeMeditationStore) Save(_ context.Context, m *store.Meditation) (*store.Meditation, error) {
	saved := *m
	saved.ID = uuid.New()
	saved.CreatedAt = time.Now()
	f.meditations[saved.ID] = &saved
	return &saved, nil
}

func (f *fakeMeditationStore) List(_ context.Context, ownerID string) ([]*store.Meditation, error) {
	var out []*store.Meditation
	for _, m := range f.meditations {
		if m.OwnerID == ownerID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMeditationStore) Delete(_ context.Context, ownerID string, id uuid.UUID) error {
	m, ok := f.meditations[id]
	if !ok || m.OwnerID != ownerID {
		return store.ErrNotFound
	}
	delete(f.meditations, id)
	return nil
}

type fakeSynthesizer struct {
	err      error
	requests []audio.SynthesisRequest
}

func (f *fakeSynthesizer) Synthesize(_ context.Context, req audio.SynthesisRequest) (*audio.SynthesisResult, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &audio.SynthesisResult{
		AudioURL: "https://audio.example.com/" + req.MeditationID + ".mp3",
	}, nil
}

func newTestMeditations(t *testing.T) (*Meditations, *fakeMeditationStore, *fakeSynthesizer) {
	t.Helper()

	g := genkit.Init(context.Background())
	mock := testutil.NewMockLLM("Close your eyes and breathe.")
	mock.RegisterModel(g)

	st := newFakeMeditationStore()
	synth := &fakeSynthesizer{}
	m, err := NewMeditations(g, "mock/test-model", st, synth, log.NewNop())
	if err != nil {
		t.Fatalf("NewMeditations() error = %v", err)
	}
	return m, st, synth
}

func TestMeditations_WizardOrder(t *testing.T) {
	m, _, _ := newTestMeditations(t)
	tctx := anonymousCtx()

	types, err := m.ListTypes(tctx, ListMeditationTypesInput{})
	if err != nil {
		t.Fatalf("ListTypes() error = %v", err)
	}
	if types.NextTool != ListMeditationPromptsName {
		t.Errorf("ListTypes NextTool = %q, want %q", types.NextTool, ListMeditationPromptsName)
	}

	prompts, err := m.ListPrompts(tctx, ListMeditationPromptsInput{Type: "sleep"})
	if err != nil {
		t.Fatalf("ListPrompts() error = %v", err)
	}
	if prompts.NextTool != ListMeditationLanguagesName {
		t.Errorf("ListPrompts NextTool = %q, want %q", prompts.NextTool, ListMeditationLanguagesName)
	}

	languages, err := m.ListLanguages(tctx, ListMeditationLanguagesInput{})
	if err != nil {
		t.Fatalf("ListLanguages() error = %v", err)
	}
	if languages.NextTool != GenerateMeditationName {
		t.Errorf("ListLanguages NextTool = %q, want %q", languages.NextTool, GenerateMeditationName)
	}
}

func TestMeditations_Generate(t *testing.T) {
	m, _, _ := newTestMeditations(t)

	result, err := m.Generate(anonymousCtx(), GenerateMeditationInput{
		Type:     "sleep",
		Prompt:   "winding down",
		Language: "en-US",
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if result.Status != StatusSuccess {
		t.Fatalf("Generate() status = %v, result %+v", result.Status, result)
	}
	if result.NextTool != GenerateMeditationAudioName {
		t.Errorf("NextTool = %q, want %q", result.NextTool, GenerateMeditationAudioName)
	}
	content, _ := result.Data["content"].(string)
	if content == "" {
		t.Error("generated content is empty")
	}
	if got := result.Data["durationMinutes"]; got != defaultMeditationMinutes {
		t.Errorf("durationMinutes = %v, want default %d", got, defaultMeditationMinutes)
	}
}

func TestMeditations_GenerateAudio(t *testing.T) {
	t.Run("success carries audio URL", func(t *testing.T) {
		m, _, synth := newTestMeditations(t)

		result, err := m.GenerateAudio(signedInCtx("user-1"), GenerateMeditationAudioInput{Content: "Breathe in."})
		if err != nil {
			t.Fatalf("GenerateAudio() error = %v", err)
		}
		if result.Status != StatusSuccess {
			t.Fatalf("status = %v, result %+v", result.Status, result)
		}
		if result.NextTool != SaveMeditationName {
			t.Errorf("NextTool = %q, want %q", result.NextTool, SaveMeditationName)
		}
		if url, _ := result.Data["audioUrl"].(string); url == "" {
			t.Error("audioUrl missing from result")
		}
		if len(synth.requests) != 1 {
			t.Fatalf("synthesizer called %d times, want 1", len(synth.requests))
		}
	})

	t.Run("synthesis failure still points at save", func(t *testing.T) {
		m, _, synth := newTestMeditations(t)
		synth.err = fmt.Errorf("service unavailable")

		result, err := m.GenerateAudio(signedInCtx("user-1"), GenerateMeditationAudioInput{Content: "Breathe in."})
		if err != nil {
			t.Fatalf("GenerateAudio() error = %v", err)
		}
		if result.Error == nil || result.Error.Code != ErrCodeNetwork {
			t.Errorf("error = %+v, want code %s", result.Error, ErrCodeNetwork)
		}
		if result.NextTool != SaveMeditationName {
			t.Errorf("NextTool = %q, want %q so the flow can finish without audio", result.NextTool, SaveMeditationName)
		}
	})

	t.Run("requires sign in", func(t *testing.T) {
		m, _, synth := newTestMeditations(t)

		result, err := m.GenerateAudio(anonymousCtx(), GenerateMeditationAudioInput{Content: "Breathe in."})
		if err != nil {
			t.Fatalf("GenerateAudio() error = %v", err)
		}
		if result.Error == nil || result.Error.Code != ErrCodeUnauthenticated {
			t.Errorf("error = %+v, want code %s", result.Error, ErrCodeUnauthenticated)
		}
		if len(synth.requests) != 0 {
			t.Error("anonymous call reached the synthesizer")
		}
	})
}

func TestMeditations_SaveAndDelete(t *testing.T) {
	m, st, _ := newTestMeditations(t)
	tctx := signedInCtx("user-1")

	saved, err := m.Save(tctx, SaveMeditationInput{
		Title:    "Evening wind-down",
		Content:  "Close your eyes.",
		Type:     "sleep",
		Language: "en-US",
		AudioURL: "https://audio.example.com/a.mp3",
	})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if saved.Status != StatusSuccess {
		t.Fatalf("Save() status = %v, result %+v", saved.Status, saved)
	}

	var id uuid.UUID
	for medID := range st.meditations {
		id = medID
	}

	t.Run("other subject cannot delete", func(t *testing.T) {
		result, err := m.Delete(signedInCtx("user-2"), DeleteMeditationInput{MeditationID: id.String()})
		if err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if result.Error == nil || result.Error.Code != ErrCodeNotFound {
			t.Errorf("error = %+v, want code %s", result.Error, ErrCodeNotFound)
		}
	})

	t.Run("owner deletes", func(t *testing.T) {
		result, err := m.Delete(tctx, DeleteMeditationInput{MeditationID: id.String()})
		if err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if result.Status != StatusSuccess {
			t.Errorf("status = %v", result.Status)
		}
	})
}

func TestGenerateMeditationInput_Validate(t *testing.T) {
	tests := []struct {
		name    string
		input   GenerateMeditationInput
		wantErr bool
	}{
		{name: "valid", input: GenerateMeditationInput{Type: "focus", Prompt: "centering", Language: "en-US"}},
		{name: "valid with duration", input: GenerateMeditationInput{Type: "focus", Prompt: "centering", Language: "ja-JP", DurationMinutes: 10}},
		{name: "unknown type", input: GenerateMeditationInput{Type: "levitation", Prompt: "x", Language: "en-US"}, wantErr: true},
		{name: "empty prompt", input: GenerateMeditationInput{Type: "focus", Prompt: " ", Language: "en-US"}, wantErr: true},
		{name: "unknown language", input: GenerateMeditationInput{Type: "focus", Prompt: "x", Language: "fr-FR"}, wantErr: true},
		{name: "duration too long", input: GenerateMeditationInput{Type: "focus", Prompt: "x", Language: "en-US", DurationMinutes: maxMeditationMinutes + 1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
