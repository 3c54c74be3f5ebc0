// Package testutil provides test doubles for the builder engine:
// a deterministic extraction model and an in-memory session store,
// both with failure injection.
package testutil

import (
	"context"
	"strings"
	"sync"
)

// MockModel provides deterministic extraction responses for testing.
// It matches the user message against registered patterns and returns
// the corresponding reply.
//
// Thread-safe for concurrent use.
type MockModel struct {
	mu       sync.Mutex
	rules    []mockRule
	fallback string
	err      error
	calls    []MockCall
}

type mockRule struct {
	pattern string // substring match in user message, lowercased
	reply   string
}

// MockCall records a single call to the mock model.
type MockCall struct {
	System string
	User   string
	Reply  string
}

// NewMockModel creates a mock model with the given fallback reply.
// The fallback is returned when no pattern matches.
func NewMockModel(fallback string) *MockModel {
	return &MockModel{fallback: fallback}
}

// AddReply registers a pattern-reply pair. When the user message
// contains the pattern (case-insensitive), the reply is returned.
// Patterns are checked in registration order; first match wins.
func (m *MockModel) AddReply(pattern, reply string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, mockRule{pattern: strings.ToLower(pattern), reply: reply})
}

// FailWith makes every subsequent Complete call return err.
// Pass nil to restore normal behavior.
func (m *MockModel) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns a copy of all recorded calls.
func (m *MockModel) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]MockCall, len(m.calls))
	copy(cp, m.calls)
	return cp
}

// Complete implements the builder.Completer contract.
func (m *MockModel) Complete(ctx context.Context, system, user string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return "", m.err
	}

	reply := m.fallback
	lower := strings.ToLower(user)
	for _, rule := range m.rules {
		if strings.Contains(lower, rule.pattern) {
			reply = rule.reply
			break
		}
	}

	m.calls = append(m.calls, MockCall{System: system, User: user, Reply: reply})
	return reply, nil
}
