package builder

import "strings"

// Conversation window policy. The window bounds the prompt context: old
// turns are assumed to be stale small talk and dropped outright, recent
// turns are kept but truncated so a single long message cannot blow the
// prompt out of proportion.
const (
	// windowDropFraction of the oldest turns is discarded before slicing.
	windowDropFraction = 0.2

	// windowMaxTurns is the maximum number of turns embedded in a prompt.
	windowMaxTurns = 10

	// windowMaxTurnLen is the per-turn content truncation length.
	windowMaxTurnLen = 100
)

// promptWindow derives the bounded context slice for the next prompt from
// the full conversation history. Deterministic: the same history always
// produces the same window.
func promptWindow(history []Turn) []Turn {
	start := int(float64(len(history)) * windowDropFraction)
	recent := history[start:]

	if len(recent) > windowMaxTurns {
		recent = recent[len(recent)-windowMaxTurns:]
	}

	window := make([]Turn, len(recent))
	for i, t := range recent {
		if len(t.Content) > windowMaxTurnLen {
			t.Content = t.Content[:windowMaxTurnLen]
		}
		window[i] = t
	}
	return window
}

// renderWindow formats a window as "role: content" lines for the prompt.
func renderWindow(window []Turn) string {
	var sb strings.Builder
	for _, t := range window {
		sb.WriteString(t.Role)
		sb.WriteString(": ")
		sb.WriteString(t.Content)
		sb.WriteByte('\n')
	}
	return sb.String()
}
