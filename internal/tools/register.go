package tools

import (
	"context"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// Tool name constants. These names double as the model's instruction set:
// renaming one is a breaking change to the external contract.
const (
	// System
	CurrentTimeName = "current_time"

	// Tasks
	CreateTaskName    = "create_task"
	ListTasksName     = "list_tasks"
	SetTaskStatusName = "set_task_status"
	DeleteTaskName    = "delete_task"

	// Memory
	SaveMemoryName     = "save_memory"
	RecallMemoriesName = "recall_memories"
	ForgetMemoryName   = "forget_memory"

	// Meditation wizard
	ListMeditationTypesName     = "list_meditation_types"
	ListMeditationPromptsName   = "list_meditation_prompts"
	ListMeditationLanguagesName = "list_meditation_languages"
	GenerateMeditationName      = "generate_meditation"
	GenerateMeditationAudioName = "generate_meditation_audio"
	SaveMeditationName          = "save_meditation"
	DeleteMeditationName        = "delete_meditation"

	// Flights
	SearchFlightsName     = "search_flights"
	GetFlightStatusName   = "get_flight_status"
	CreateReservationName = "create_reservation"
	ListReservationsName  = "list_reservations"

	// Weather
	GetWeatherName = "get_weather"
)

// toolNames is the single source of truth for registered tool names.
var toolNames = []string{
	CurrentTimeName,
	CreateTaskName,
	ListTasksName,
	SetTaskStatusName,
	DeleteTaskName,
	SaveMemoryName,
	RecallMemoriesName,
	ForgetMemoryName,
	ListMeditationTypesName,
	ListMeditationPromptsName,
	ListMeditationLanguagesName,
	GenerateMeditationName,
	GenerateMeditationAudioName,
	SaveMeditationName,
	DeleteMeditationName,
	SearchFlightsName,
	GetFlightStatusName,
	CreateReservationName,
	ListReservationsName,
	GetWeatherName,
}

// Names returns all registered tool names.
func Names() []string {
	return toolNames
}

// Registry provides lookup of the registered tools as Genkit refs.
// It is stateless and safe for concurrent use: lookups go straight to
// the Genkit registry, which is immutable after startup.
type Registry struct {
	g *genkit.Genkit
}

// NewRegistry creates a registry backed by the given Genkit instance.
func NewRegistry(g *genkit.Genkit) *Registry {
	return &Registry{g: g}
}

// All returns refs for every registered tool.
func (r *Registry) All(_ context.Context) []ai.ToolRef {
	refs := make([]ai.ToolRef, 0, len(toolNames))
	for _, name := range toolNames {
		if tool := genkit.LookupTool(r.g, name); tool != nil {
			refs = append(refs, tool)
		}
	}
	return refs
}

// Count returns the number of registered tools.
func (r *Registry) Count(ctx context.Context) int {
	return len(r.All(ctx))
}
