package chat

import (
	"strings"
	"testing"
	"time"
)

func TestSystemPrompt(t *testing.T) {
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	t.Run("signed in", func(t *testing.T) {
		p := systemPrompt(true, now)
		if !strings.Contains(p, "2026-08-31") {
			t.Error("prompt missing today's date")
		}
		if !strings.Contains(p, "current_time") {
			t.Error("prompt missing the current_time policy")
		}
		if strings.Contains(p, "NOT signed in") {
			t.Error("signed-in prompt carries the anonymous addendum")
		}
	})

	t.Run("anonymous", func(t *testing.T) {
		p := systemPrompt(false, now)
		if !strings.Contains(p, "NOT signed in") {
			t.Error("anonymous prompt missing the sign-in note")
		}
		// The base instructions stay identical.
		if !strings.HasPrefix(p, systemPrompt(true, now)) {
			t.Error("anonymous prompt should extend the signed-in prompt, not replace it")
		}
	})
}
