// Package weather fetches current conditions from an Open-Meteo
// compatible forecast API.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	requestTimeout  = 10 * time.Second
	maxResponseSize = 256 * 1024
)

// Observation is the current weather at a point.
type Observation struct {
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	TemperatureC  float64 `json:"temperatureC"`
	WindSpeedKmh  float64 `json:"windSpeedKmh"`
	WeatherCode   int     `json:"weatherCode"`
	Conditions    string  `json:"conditions"`
	ObservedAtUTC string  `json:"observedAtUtc"`
}

// Client queries the forecast API. Safe for concurrent use.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a weather client for the given base URL.
func NewClient(baseURL string) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: requestTimeout},
	}, nil
}

// forecastResponse mirrors the subset of the Open-Meteo payload we read.
type forecastResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Current   struct {
		Time          string  `json:"time"`
		Temperature2m float64 `json:"temperature_2m"`
		WindSpeed10m  float64 `json:"wind_speed_10m"`
		WeatherCode   int     `json:"weather_code"`
	} `json:"current"`
}

// Current fetches current conditions for a coordinate.
func (c *Client) Current(ctx context.Context, latitude, longitude float64) (*Observation, error) {
	if latitude < -90 || latitude > 90 {
		return nil, fmt.Errorf("latitude %v out of range", latitude)
	}
	if longitude < -180 || longitude > 180 {
		return nil, fmt.Errorf("longitude %v out of range", longitude)
	}

	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(latitude, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(longitude, 'f', 4, 64))
	q.Set("current", "temperature_2m,wind_speed_10m,weather_code")
	q.Set("timezone", "UTC")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v1/forecast?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching forecast: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("forecast API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	var fc forecastResponse
	if err := json.Unmarshal(body, &fc); err != nil {
		return nil, fmt.Errorf("decoding forecast: %w", err)
	}

	return &Observation{
		Latitude:      fc.Latitude,
		Longitude:     fc.Longitude,
		TemperatureC:  fc.Current.Temperature2m,
		WindSpeedKmh:  fc.Current.WindSpeed10m,
		WeatherCode:   fc.Current.WeatherCode,
		Conditions:    describeCode(fc.Current.WeatherCode),
		ObservedAtUTC: fc.Current.Time,
	}, nil
}

// describeCode maps WMO weather codes to short descriptions.
func describeCode(code int) string {
	switch {
	case code == 0:
		return "clear sky"
	case code <= 3:
		return "partly cloudy"
	case code <= 48:
		return "fog"
	case code <= 57:
		return "drizzle"
	case code <= 67:
		return "rain"
	case code <= 77:
		return "snow"
	case code <= 82:
		return "rain showers"
	case code <= 86:
		return "snow showers"
	case code <= 99:
		return "thunderstorm"
	default:
		return "unknown"
	}
}
