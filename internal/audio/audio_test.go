package audio

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSynthesize(t *testing.T) {
	var received SynthesisRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/synthesize" {
			t.Errorf("path = %s, want /synthesize", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"audioUrl": "https://audio.example.com/m1.mp3",
			"segments": [{"text": "Breathe in.", "startSec": 0, "endSec": 3.5}]
		}`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, "aura")
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	result, err := client.Synthesize(context.Background(), SynthesisRequest{
		Content:      "Breathe in.",
		MeditationID: "m1",
	})
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if result.AudioURL != "https://audio.example.com/m1.mp3" {
		t.Errorf("AudioURL = %q", result.AudioURL)
	}
	if len(result.Segments) != 1 {
		t.Errorf("segments = %d, want 1", len(result.Segments))
	}
	if received.VoiceName != "aura" {
		t.Errorf("voiceName = %q, want default aura", received.VoiceName)
	}
}

func TestSynthesize_ExplicitVoiceWins(t *testing.T) {
	var received SynthesisRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&received)
		_, _ = w.Write([]byte(`{"audioUrl": "https://audio.example.com/m1.mp3"}`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, "aura")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := client.Synthesize(context.Background(), SynthesisRequest{
		Content: "x", MeditationID: "m1", VoiceName: "tide",
	}); err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if received.VoiceName != "tide" {
		t.Errorf("voiceName = %q, want tide", received.VoiceName)
	}
}

func TestSynthesize_Errors(t *testing.T) {
	t.Run("missing content", func(t *testing.T) {
		client, _ := NewClient("http://localhost:0", "aura")
		if _, err := client.Synthesize(context.Background(), SynthesisRequest{MeditationID: "m1"}); err == nil {
			t.Error("empty content accepted")
		}
	})

	t.Run("upstream failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "down", http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		client, _ := NewClient(srv.URL, "aura")
		if _, err := client.Synthesize(context.Background(), SynthesisRequest{Content: "x", MeditationID: "m1"}); err == nil {
			t.Error("Synthesize() should fail on upstream 503")
		}
	})

	t.Run("missing audio URL", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		client, _ := NewClient(srv.URL, "aura")
		if _, err := client.Synthesize(context.Background(), SynthesisRequest{Content: "x", MeditationID: "m1"}); err == nil {
			t.Error("Synthesize() should fail when the service returns no audio URL")
		}
	})
}
