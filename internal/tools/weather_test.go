package tools

import (
	"context"
	"fmt"
	"testing"

	"github.com/attuneapp/attune/internal/log"
	"github.com/attuneapp/attune/internal/weather"
)

type fakeWeatherService struct {
	obs *weather.Observation
	err error
}

func (f *fakeWeatherService) Current(_ context.Context, _, _ float64) (*weather.Observation, error) {
	return f.obs, f.err
}

func TestGetWeatherInput_Validate(t *testing.T) {
	tests := []struct {
		name    string
		input   GetWeatherInput
		wantErr bool
	}{
		{name: "valid", input: GetWeatherInput{Latitude: 25.03, Longitude: 121.56, Place: "Taipei"}},
		{name: "latitude too high", input: GetWeatherInput{Latitude: 91}, wantErr: true},
		{name: "longitude too low", input: GetWeatherInput{Longitude: -181}, wantErr: true},
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

func TestWeather_GetWeather(t *testing.T) {
	t.Run("success echoes place", func(t *testing.T) {
		svc := &fakeWeatherService{obs: &weather.Observation{TemperatureC: 28.5, Conditions: "clear sky"}}
		w, err := NewWeather(svc, log.NewNop())
		if err != nil {
			t.Fatalf("NewWeather() error = %v", err)
		}

		result, err := w.GetWeather(anonymousCtx(), GetWeatherInput{Latitude: 25.03, Longitude: 121.56, Place: "Taipei"})
		if err != nil {
			t.Fatalf("GetWeather() error = %v", err)
		}
		if result.Status != StatusSuccess {
			t.Fatalf("status = %v, result %+v", result.Status, result)
		}
		if result.Data["place"] != "Taipei" {
			t.Errorf("place = %v, want Taipei", result.Data["place"])
		}
	})

	t.Run("service failure is a structured result", func(t *testing.T) {
		svc := &fakeWeatherService{err: fmt.Errorf("connection refused")}
		w, err := NewWeather(svc, log.NewNop())
		if err != nil {
			t.Fatalf("NewWeather() error = %v", err)
		}

		result, err := w.GetWeather(anonymousCtx(), GetWeatherInput{Latitude: 25.03, Longitude: 121.56})
		if err != nil {
			t.Fatalf("GetWeather() error = %v, want structured result", err)
		}
		if result.Error == nil || result.Error.Code != ErrCodeNetwork {
			t.Errorf("error = %+v, want code %s", result.Error, ErrCodeNetwork)
		}
	})
}
