// Package audio calls the internal speech-synthesis service that renders
// meditation scripts into audio.
package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	// Synthesis renders a full meditation; allow well beyond a normal
	// API round trip.
	requestTimeout  = 90 * time.Second
	maxResponseSize = 1 * 1024 * 1024
)

// SynthesisRequest is the payload sent to the synthesis service.
type SynthesisRequest struct {
	Content      string `json:"content"`
	MeditationID string `json:"meditationId"`
	VoiceName    string `json:"voiceName,omitempty"`
}

// Segment is one rendered portion of the audio with its timing.
type Segment struct {
	Text     string  `json:"text"`
	StartSec float64 `json:"startSec"`
	EndSec   float64 `json:"endSec"`
}

// SynthesisResult is the synthesis service response.
type SynthesisResult struct {
	AudioURL string    `json:"audioUrl"`
	Segments []Segment `json:"segments,omitempty"`
}

// Client talks to the synthesis service. Safe for concurrent use.
type Client struct {
	baseURL   string
	voiceName string
	client    *http.Client
}

// NewClient creates an audio client. voiceName is the default voice used
// when a request does not name one.
func NewClient(baseURL, voiceName string) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	return &Client{
		baseURL:   baseURL,
		voiceName: voiceName,
		client:    &http.Client{Timeout: requestTimeout},
	}, nil
}

// Synthesize renders content into audio and returns the hosted URL.
func (c *Client) Synthesize(ctx context.Context, req SynthesisRequest) (*SynthesisResult, error) {
	if req.Content == "" {
		return nil, fmt.Errorf("content is required")
	}
	if req.MeditationID == "" {
		return nil, fmt.Errorf("meditation ID is required")
	}
	if req.VoiceName == "" {
		req.VoiceName = c.voiceName
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/synthesize", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling synthesis service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("synthesis service returned status %d", resp.StatusCode)
	}

	var result SynthesisResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if result.AudioURL == "" {
		return nil, fmt.Errorf("synthesis service returned no audio URL")
	}
	return &result, nil
}
