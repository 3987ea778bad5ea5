package chat

import (
	"errors"
	"fmt"
	"testing"
)

func TestRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "rate limit", err: errors.New("googleai: rate limit exceeded"), want: true},
		{name: "quota", err: errors.New("Quota Exceeded for project"), want: true},
		{name: "http 429", err: errors.New("unexpected status 429"), want: true},
		{name: "http 503", err: errors.New("server returned 503"), want: true},
		{name: "unavailable", err: errors.New("model temporarily UNAVAILABLE"), want: true},
		{name: "connection reset", err: errors.New("read tcp: connection reset by peer"), want: true},
		{name: "timeout", err: errors.New("dial timeout"), want: true},
		{name: "invalid argument", err: errors.New("invalid argument: bad schema"), want: false},
		{name: "auth failure", err: errors.New("401 unauthorized"), want: false},
		{name: "wrapped transient", err: fmt.Errorf("generate: %w", errors.New("502 bad gateway")), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := retryableError(tt.err); got != tt.want {
				t.Errorf("retryableError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestContainsAny(t *testing.T) {
	if !containsAny("Connection RESET by peer", "reset") {
		t.Error("matching should be case-insensitive")
	}
	if containsAny("all good", "reset", "timeout") {
		t.Error("no substring should not match")
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.MaxRetries)
	}
	if cfg.InitialInterval >= cfg.MaxInterval {
		t.Errorf("InitialInterval %v should be below MaxInterval %v", cfg.InitialInterval, cfg.MaxInterval)
	}
}
