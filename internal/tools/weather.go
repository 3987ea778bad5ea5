package tools

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/attuneapp/attune/internal/log"
	"github.com/attuneapp/attune/internal/weather"
)

// WeatherService fetches current conditions for a coordinate.
type WeatherService interface {
	Current(ctx context.Context, latitude, longitude float64) (*weather.Observation, error)
}

// GetWeatherInput defines input for the get_weather tool.
type GetWeatherInput struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Place     string  `json:"place,omitempty"`
}

// Validate checks domain constraints beyond the JSON schema.
func (in GetWeatherInput) Validate() error {
	if in.Latitude < -90 || in.Latitude > 90 {
		return fmt.Errorf("latitude must be between -90 and 90")
	}
	if in.Longitude < -180 || in.Longitude > 180 {
		return fmt.Errorf("longitude must be between -180 and 180")
	}
	return nil
}

// Weather holds dependencies for the weather tool.
type Weather struct {
	svc    WeatherService
	logger log.Logger
}

// NewWeather creates a Weather toolset.
func NewWeather(svc WeatherService, logger log.Logger) (*Weather, error) {
	if svc == nil {
		return nil, fmt.Errorf("weather service is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Weather{svc: svc, logger: logger}, nil
}

// RegisterWeather registers the weather tool with Genkit.
func RegisterWeather(g *genkit.Genkit, w *Weather) ([]ai.Tool, error) {
	if g == nil {
		return nil, fmt.Errorf("genkit instance is required")
	}
	if w == nil {
		return nil, fmt.Errorf("Weather is required")
	}

	getWeather, err := Define(g, GetWeatherName,
		"Get the current weather at a coordinate. "+
			"Resolve the place the user named to latitude and longitude yourself, "+
			"and pass the place name back so the answer can mention it. "+
			"Returns temperature (Celsius), wind speed, and conditions.",
		w.GetWeather)
	if err != nil {
		return nil, err
	}

	return []ai.Tool{getWeather}, nil
}

// GetWeather fetches current conditions. Available to anonymous users.
func (w *Weather) GetWeather(tctx *ai.ToolContext, in GetWeatherInput) (Result, error) {
	obs, err := w.svc.Current(tctx.Context, in.Latitude, in.Longitude)
	if err != nil {
		if tctx.Context.Err() != nil {
			return Result{}, fmt.Errorf("fetching weather: %w", err)
		}
		w.logger.Warn("fetching weather", "lat", in.Latitude, "lon", in.Longitude, "error", err)
		return Result{
			Status: StatusError,
			Error: &Error{
				Code:    ErrCodeNetwork,
				Message: "weather service unavailable",
				Details: map[string]any{"success": false, "error": err.Error()},
			},
		}, nil
	}

	data := map[string]any{"observation": obs}
	if in.Place != "" {
		data["place"] = in.Place
	}
	return OK(data), nil
}
