package builder

import (
	"encoding/json"
	"strings"
)

// PendingUpdate is the ephemeral result of interpreting one user utterance.
// Fields maps field names to candidate values exactly as the model emitted
// them; nothing in it has been validated yet. A nil value means "no change".
type PendingUpdate struct {
	Fields    map[string]any `json:"updated_fields"`
	NextPhase string         `json:"next_state"`
	Reply     string         `json:"ai_response"`
}

// ParseReply extracts a PendingUpdate from the raw text returned by the
// extraction model. The model is asked to return JSON but routinely wraps
// it in prose, so the parser scans for the first balanced brace-delimited
// span and decodes that. This is the single tolerant boundary between
// unstructured model output and the typed engine: it never fails. When no
// decodable payload is found it degrades to a no-op update that echoes the
// full raw text as the reply.
func ParseReply(raw string, current Phase) PendingUpdate {
	fallback := PendingUpdate{
		Fields:    map[string]any{},
		NextPhase: string(current),
		Reply:     raw,
	}

	span, ok := jsonSpan(raw)
	if !ok {
		return fallback
	}

	var upd PendingUpdate
	if err := json.Unmarshal([]byte(span), &upd); err != nil {
		return fallback
	}
	if upd.Fields == nil {
		upd.Fields = map[string]any{}
	}
	if upd.NextPhase == "" {
		upd.NextPhase = string(current)
	}
	if upd.Reply == "" {
		upd.Reply = raw
	}
	return upd
}

// jsonSpan returns the first balanced brace-delimited substring of s.
// Braces inside JSON strings are skipped so replies like
// {"ai_response": "use {curly} braces"} parse correctly.
func jsonSpan(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	// Unbalanced: take the greedy span to the last closing brace, which
	// salvages payloads truncated by the model's token limit.
	if end := strings.LastIndexByte(s, '}'); end > start {
		return s[start : end+1], true
	}
	return "", false
}
