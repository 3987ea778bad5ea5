package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/google/uuid"

	"github.com/attuneapp/attune/internal/audio"
	"github.com/attuneapp/attune/internal/log"
	"github.com/attuneapp/attune/internal/store"
)

// Meditation catalog. The wizard walks type -> prompt -> language ->
// script -> audio -> save; each step's result carries the next tool to
// call so the flow survives a stateless conversation.
var (
	meditationTypes = []string{
		"mindfulness", "sleep", "stress-relief", "focus", "gratitude", "body-scan",
	}

	meditationPrompts = map[string][]string{
		"mindfulness":   {"breath awareness", "observing thoughts", "present-moment anchoring"},
		"sleep":         {"winding down", "releasing the day", "counting the breath into sleep"},
		"stress-relief": {"letting go of tension", "grounding under pressure", "soft belly breathing"},
		"focus":         {"single-point attention", "returning from distraction", "pre-work centering"},
		"gratitude":     {"three good things", "appreciating someone", "gratitude for the body"},
		"body-scan":     {"head to toe release", "noticing without fixing", "progressive relaxation"},
	}

	meditationLanguages = []string{"en-US", "en-GB", "zh-TW", "ja-JP", "es-ES", "de-DE"}
)

const (
	minMeditationMinutes     = 1
	maxMeditationMinutes     = 30
	defaultMeditationMinutes = 5

	// MaxMeditationContentLength caps scripts sent to audio synthesis
	// and storage.
	MaxMeditationContentLength = 10000
)

// MeditationStore is the persistence surface the meditation tools need.
type MeditationStore interface {
	Save(ctx context.Context, m *store.Meditation) (*store.Meditation, error)
	List(ctx context.Context, ownerID string) ([]*store.Meditation, error)
	Delete(ctx context.Context, ownerID string, id uuid.UUID) error
}

// AudioSynthesizer renders meditation scripts into hosted audio.
type AudioSynthesizer interface {
	Synthesize(ctx context.Context, req audio.SynthesisRequest) (*audio.SynthesisResult, error)
}

// ListMeditationTypesInput defines input for list_meditation_types (none needed).
type ListMeditationTypesInput struct{}

// ListMeditationPromptsInput defines input for list_meditation_prompts.
type ListMeditationPromptsInput struct {
	Type string `json:"type"`
}

// Validate checks domain constraints beyond the JSON schema.
func (in ListMeditationPromptsInput) Validate() error {
	return validateMeditationType(in.Type)
}

// ListMeditationLanguagesInput defines input for list_meditation_languages (none needed).
type ListMeditationLanguagesInput struct{}

// GenerateMeditationInput defines input for generate_meditation.
type GenerateMeditationInput struct {
	Type            string `json:"type"`
	Prompt          string `json:"prompt"`
	Language        string `json:"language"`
	DurationMinutes int    `json:"durationMinutes,omitempty"`
}

// Validate checks domain constraints beyond the JSON schema.
func (in GenerateMeditationInput) Validate() error {
	if err := validateMeditationType(in.Type); err != nil {
		return err
	}
	if strings.TrimSpace(in.Prompt) == "" {
		return fmt.Errorf("prompt must not be empty")
	}
	if err := validateMeditationLanguage(in.Language); err != nil {
		return err
	}
	if in.DurationMinutes != 0 &&
		(in.DurationMinutes < minMeditationMinutes || in.DurationMinutes > maxMeditationMinutes) {
		return fmt.Errorf("durationMinutes must be between %d and %d", minMeditationMinutes, maxMeditationMinutes)
	}
	return nil
}

// GenerateMeditationAudioInput defines input for generate_meditation_audio.
type GenerateMeditationAudioInput struct {
	Content   string `json:"content"`
	VoiceName string `json:"voiceName,omitempty"`
}

// Validate checks domain constraints beyond the JSON schema.
func (in GenerateMeditationAudioInput) Validate() error {
	if strings.TrimSpace(in.Content) == "" {
		return fmt.Errorf("content must not be empty")
	}
	if len(in.Content) > MaxMeditationContentLength {
		return fmt.Errorf("content length %d exceeds maximum %d", len(in.Content), MaxMeditationContentLength)
	}
	return nil
}

// SaveMeditationInput defines input for save_meditation.
type SaveMeditationInput struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Type     string `json:"type"`
	Language string `json:"language"`
	AudioURL string `json:"audioUrl,omitempty"`
}

// Validate checks domain constraints beyond the JSON schema.
func (in SaveMeditationInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("title must not be empty")
	}
	if strings.TrimSpace(in.Content) == "" {
		return fmt.Errorf("content must not be empty")
	}
	if len(in.Content) > MaxMeditationContentLength {
		return fmt.Errorf("content length %d exceeds maximum %d", len(in.Content), MaxMeditationContentLength)
	}
	if err := validateMeditationType(in.Type); err != nil {
		return err
	}
	return validateMeditationLanguage(in.Language)
}

// DeleteMeditationInput defines input for delete_meditation.
type DeleteMeditationInput struct {
	MeditationID string `json:"meditationId"`
}

// Validate checks domain constraints beyond the JSON schema.
func (in DeleteMeditationInput) Validate() error {
	return validateID(in.MeditationID, "meditationId")
}

func validateMeditationType(t string) error {
	for _, known := range meditationTypes {
		if t == known {
			return nil
		}
	}
	return fmt.Errorf("type must be one of: %s", strings.Join(meditationTypes, ", "))
}

func validateMeditationLanguage(lang string) error {
	for _, known := range meditationLanguages {
		if lang == known {
			return nil
		}
	}
	return fmt.Errorf("language must be one of: %s", strings.Join(meditationLanguages, ", "))
}

// Meditations holds dependencies for meditation tools.
type Meditations struct {
	g         *genkit.Genkit
	modelName string
	store     MeditationStore
	audio     AudioSynthesizer
	logger    log.Logger
}

// NewMeditations creates a Meditations toolset. modelName is the model
// used to write scripts.
func NewMeditations(g *genkit.Genkit, modelName string, st MeditationStore, synth AudioSynthesizer, logger log.Logger) (*Meditations, error) {
	if g == nil {
		return nil, fmt.Errorf("genkit instance is required")
	}
	if modelName == "" {
		return nil, fmt.Errorf("model name is required")
	}
	if st == nil {
		return nil, fmt.Errorf("meditation store is required")
	}
	if synth == nil {
		return nil, fmt.Errorf("audio synthesizer is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Meditations{g: g, modelName: modelName, store: st, audio: synth, logger: logger}, nil
}

// RegisterMeditations registers the meditation tools with Genkit.
func RegisterMeditations(g *genkit.Genkit, m *Meditations) ([]ai.Tool, error) {
	if g == nil {
		return nil, fmt.Errorf("genkit instance is required")
	}
	if m == nil {
		return nil, fmt.Errorf("Meditations is required")
	}

	listTypes, err := Define(g, ListMeditationTypesName,
		"Step 1 of creating a meditation: list the available meditation types. "+
			"Start here whenever the user asks for a meditation.",
		m.ListTypes)
	if err != nil {
		return nil, err
	}

	listPrompts, err := Define(g, ListMeditationPromptsName,
		"Step 2 of creating a meditation: list the guiding prompts for a chosen type. "+
			"Call list_meditation_types first.",
		m.ListPrompts)
	if err != nil {
		return nil, err
	}

	listLanguages, err := Define(g, ListMeditationLanguagesName,
		"Step 3 of creating a meditation: list the languages a meditation can be written in.",
		m.ListLanguages)
	if err != nil {
		return nil, err
	}

	generate, err := Define(g, GenerateMeditationName,
		"Step 4 of creating a meditation: write the meditation script for the chosen "+
			"type, prompt, and language. Duration defaults to 5 minutes. "+
			"Returns the full script text.",
		m.Generate)
	if err != nil {
		return nil, err
	}

	generateAudio, err := Define(g, GenerateMeditationAudioName,
		"Step 5 of creating a meditation: render a meditation script as audio. "+
			"Pass the exact script text from generate_meditation. "+
			"Returns a hosted audio URL. Requires the user to be signed in.",
		m.GenerateAudio)
	if err != nil {
		return nil, err
	}

	save, err := Define(g, SaveMeditationName,
		"Final step of creating a meditation: save the meditation to the user's library, "+
			"including the audio URL if audio was rendered. Requires the user to be signed in.",
		m.Save)
	if err != nil {
		return nil, err
	}

	deleteMeditation, err := Define(g, DeleteMeditationName,
		"Delete a saved meditation from the user's library by ID. "+
			"Requires the user to be signed in.",
		m.Delete)
	if err != nil {
		return nil, err
	}

	return []ai.Tool{listTypes, listPrompts, listLanguages, generate, generateAudio, save, deleteMeditation}, nil
}

// ListTypes returns the meditation type catalog.
func (m *Meditations) ListTypes(_ *ai.ToolContext, _ ListMeditationTypesInput) (Result, error) {
	return Result{
		Status:   StatusSuccess,
		Data:     map[string]any{"types": meditationTypes},
		NextTool: ListMeditationPromptsName,
	}, nil
}

// ListPrompts returns the guiding prompts for one meditation type.
func (m *Meditations) ListPrompts(_ *ai.ToolContext, in ListMeditationPromptsInput) (Result, error) {
	prompts := meditationPrompts[in.Type]
	return Result{
		Status:   StatusSuccess,
		Data:     map[string]any{"type": in.Type, "prompts": prompts},
		NextTool: ListMeditationLanguagesName,
	}, nil
}

// ListLanguages returns the supported meditation languages.
func (m *Meditations) ListLanguages(_ *ai.ToolContext, _ ListMeditationLanguagesInput) (Result, error) {
	return Result{
		Status:   StatusSuccess,
		Data:     map[string]any{"languages": meditationLanguages},
		NextTool: GenerateMeditationName,
	}, nil
}

// Generate writes a meditation script with the configured model.
func (m *Meditations) Generate(tctx *ai.ToolContext, in GenerateMeditationInput) (Result, error) {
	minutes := in.DurationMinutes
	if minutes == 0 {
		minutes = defaultMeditationMinutes
	}

	resp, err := genkit.Generate(tctx.Context, m.g,
		ai.WithModelName(m.modelName),
		ai.WithSystem(meditationScriptSystem),
		ai.WithMessages(ai.NewUserMessage(ai.NewTextPart(fmt.Sprintf(
			"Write a %d-minute %s meditation on %q. Language: %s. "+
				"Return only the script text, no title or commentary.",
			minutes, in.Type, in.Prompt, in.Language,
		)))),
	)
	if err != nil {
		if tctx.Context.Err() != nil {
			return Result{}, fmt.Errorf("generating meditation: %w", err)
		}
		m.logger.Warn("generating meditation script", "type", in.Type, "error", err)
		return Errf(ErrCodeExecution, "could not generate the meditation script"), nil
	}

	content := strings.TrimSpace(resp.Text())
	if content == "" {
		return Errf(ErrCodeExecution, "model returned an empty script"), nil
	}
	if len(content) > MaxMeditationContentLength {
		content = content[:MaxMeditationContentLength]
	}

	return Result{
		Status: StatusSuccess,
		Data: map[string]any{
			"content":         content,
			"type":            in.Type,
			"prompt":          in.Prompt,
			"language":        in.Language,
			"durationMinutes": minutes,
		},
		NextTool: GenerateMeditationAudioName,
	}, nil
}

// GenerateAudio renders a script into audio via the synthesis service.
// Synthesis failures are reported as structured results so the model can
// offer to save the meditation without audio.
func (m *Meditations) GenerateAudio(tctx *ai.ToolContext, in GenerateMeditationAudioInput) (Result, error) {
	_, denied, ok := RequireSubject(tctx.Context)
	if !ok {
		return denied, nil
	}

	// Draft ID for the synthesis job; the saved row gets its own ID.
	draftID := uuid.New().String()

	result, err := m.audio.Synthesize(tctx.Context, audio.SynthesisRequest{
		Content:      in.Content,
		MeditationID: draftID,
		VoiceName:    in.VoiceName,
	})
	if err != nil {
		if tctx.Context.Err() != nil {
			return Result{}, fmt.Errorf("synthesizing audio: %w", err)
		}
		m.logger.Warn("synthesizing meditation audio", "draft_id", draftID, "error", err)
		return Result{
			Status: StatusError,
			Error: &Error{
				Code:    ErrCodeNetwork,
				Message: "audio synthesis failed",
				Details: map[string]any{"success": false, "error": err.Error()},
			},
			NextTool: SaveMeditationName,
		}, nil
	}

	return Result{
		Status: StatusSuccess,
		Data: map[string]any{
			"audioUrl": result.AudioURL,
			"segments": result.Segments,
		},
		NextTool: SaveMeditationName,
	}, nil
}

// Save persists a meditation to the subject's library.
func (m *Meditations) Save(tctx *ai.ToolContext, in SaveMeditationInput) (Result, error) {
	subject, denied, ok := RequireSubject(tctx.Context)
	if !ok {
		return denied, nil
	}

	saved, err := m.store.Save(tctx.Context, &store.Meditation{
		OwnerID:  subject,
		Title:    strings.TrimSpace(in.Title),
		Content:  in.Content,
		Type:     in.Type,
		Language: in.Language,
		AudioURL: in.AudioURL,
	})
	if err != nil {
		if tctx.Context.Err() != nil {
			return Result{}, fmt.Errorf("saving meditation: %w", err)
		}
		m.logger.Warn("saving meditation", "error", err)
		return Errf(ErrCodeExecution, "could not save the meditation"), nil
	}

	m.logger.Debug("meditation saved", "meditation_id", saved.ID)
	return Result{
		Status:  StatusSuccess,
		Message: fmt.Sprintf("Saved meditation %q.", saved.Title),
		Data:    map[string]any{"meditation": saved},
	}, nil
}

// Delete removes a meditation from the subject's library.
func (m *Meditations) Delete(tctx *ai.ToolContext, in DeleteMeditationInput) (Result, error) {
	subject, denied, ok := RequireSubject(tctx.Context)
	if !ok {
		return denied, nil
	}

	id := uuid.MustParse(in.MeditationID) // validated in Validate
	err := m.store.Delete(tctx.Context, subject, id)
	if errors.Is(err, store.ErrNotFound) {
		return Errf(ErrCodeNotFound, "no meditation with ID %s", in.MeditationID), nil
	}
	if err != nil {
		if tctx.Context.Err() != nil {
			return Result{}, fmt.Errorf("deleting meditation: %w", err)
		}
		m.logger.Warn("deleting meditation", "meditation_id", id, "error", err)
		return Errf(ErrCodeExecution, "could not delete the meditation"), nil
	}

	return Result{
		Status:  StatusSuccess,
		Message: "Meditation deleted.",
		Data:    map[string]any{"deletedId": in.MeditationID},
	}, nil
}

// meditationScriptSystem instructs the script-writing model call.
const meditationScriptSystem = `You write guided meditation scripts.
Write calm, slow-paced scripts in the second person. Use short sentences
and natural pauses marked with "..." where the listener should breathe.
Write entirely in the requested language. Return only the script text.`
