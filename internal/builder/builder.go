// Package builder implements the conversational field-extraction engine
// behind the storefront builder. One user utterance at a time, it turns
// free-form chat into structured updates against a persisted per-session
// Configuration: extract with the model, parse the reply, guard each
// field, merge, advance the build phase, persist.
package builder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Store is the persistence boundary for Configurations, keyed by session
// id. Load returns ErrNotFound for an unknown session. Upsert overwrites
// the full record atomically.
type Store interface {
	Load(ctx context.Context, sessionID string) (*Configuration, error)
	Upsert(ctx context.Context, cfg *Configuration) error
}

// Completer is the extraction model boundary: system instruction plus user
// utterance in, free-form text out. The returned text should contain a
// JSON update payload but nothing is guaranteed; it may be slow,
// rate-limited, or malformed.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Result is the outcome of processing one message.
type Result struct {
	Success       bool
	Reply         string
	View          View
	UpdatedFields []string
}

// Controller orchestrates the engine per inbound message. Safe for
// concurrent use: distinct sessions proceed in parallel, messages for the
// same session are serialized.
type Controller struct {
	store  Store
	model  Completer
	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	sync.Mutex
	refs int
}

// NewController creates a Controller. logger may be nil.
func NewController(store Store, model Completer, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		store:  store,
		model:  model,
		logger: logger,
		locks:  make(map[string]*sessionLock),
	}
}

// lockSession acquires the per-session mutex, creating it on first use.
// Locks are refcounted so the map does not grow without bound.
func (c *Controller) lockSession(sessionID string) *sessionLock {
	c.mu.Lock()
	l, ok := c.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		c.locks[sessionID] = l
	}
	l.refs++
	c.mu.Unlock()

	l.Lock()
	return l
}

func (c *Controller) unlockSession(sessionID string, l *sessionLock) {
	l.Unlock()

	c.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(c.locks, sessionID)
	}
	c.mu.Unlock()
}

// loadOrCreate fetches the session's Configuration, creating a default
// one on first contact.
func (c *Controller) loadOrCreate(ctx context.Context, sessionID string) (*Configuration, error) {
	cfg, err := c.store.Load(ctx, sessionID)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, ErrNotFound) {
		c.logger.Debug("creating configuration for new session", "session_id", sessionID)
		return NewConfiguration(sessionID), nil
	}
	return nil, fmt.Errorf("loading configuration: %w", err)
}

// Process handles one inbound message end to end and returns the reply
// plus the updated external view.
//
// Failure contract: if the model call fails, the Configuration is left
// exactly as loaded (no turns appended, nothing persisted) and the result
// carries Success=false with the fixed apology. A persistence failure
// after a successful merge is logged and the in-memory view is still
// returned; the next message re-persists fresh state.
func (c *Controller) Process(ctx context.Context, sessionID, message string) (Result, error) {
	if sessionID == "" {
		return Result{}, ErrEmptySessionID
	}
	if message == "" {
		return Result{}, ErrEmptyMessage
	}

	ctx, span := otel.Tracer("builder").Start(ctx, "builder.process")
	span.SetAttributes(attribute.String("session_id", sessionID))
	defer span.End()

	l := c.lockSession(sessionID)
	defer c.unlockSession(sessionID, l)

	cfg, err := c.loadOrCreate(ctx, sessionID)
	if err != nil {
		return Result{}, err
	}

	// Build the prompt from the pre-message snapshot; the utterance itself
	// travels as the user message, not as history.
	system := buildSystemPrompt(cfg)

	raw, err := c.model.Complete(ctx, system, message)
	if err != nil {
		// Nothing was mutated yet: the apology carries the unchanged view
		// and no turn is recorded for a reply that was never produced.
		c.logger.Error("extraction model call failed", "error", err, "session_id", sessionID)
		return Result{
			Success: false,
			Reply:   Apology,
			View:    cfg.ExternalView(),
		}, nil
	}

	upd := ParseReply(raw, cfg.Phase)

	cfg.AppendTurn("user", message)
	applied := applyUpdate(cfg, upd, c.logger)
	cfg.Phase = NextPhase(cfg.Phase, Phase(upd.NextPhase))
	cfg.AppendTurn("assistant", upd.Reply)

	if err := c.store.Upsert(ctx, cfg); err != nil {
		// Best effort: the caller still gets the updated view. A single
		// lost write is recovered by the next message's persist.
		c.logger.Error("persisting configuration failed", "error", err, "session_id", sessionID)
	}

	c.logger.Info("processed message",
		"session_id", sessionID,
		"phase", cfg.Phase,
		"updated_fields", applied,
	)

	return Result{
		Success:       true,
		Reply:         upd.Reply,
		View:          cfg.ExternalView(),
		UpdatedFields: applied,
	}, nil
}

// Context returns the current Configuration view without processing a
// message. Unknown sessions get a fresh default view; nothing is persisted.
func (c *Controller) Context(ctx context.Context, sessionID string) (View, error) {
	if sessionID == "" {
		return View{}, ErrEmptySessionID
	}

	cfg, err := c.loadOrCreate(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	return cfg.ExternalView(), nil
}

// Reset replaces the session's Configuration with a fresh default under
// the same session id. This is the administrative escape hatch; the
// normal message path never deletes state.
func (c *Controller) Reset(ctx context.Context, sessionID string) (View, error) {
	if sessionID == "" {
		return View{}, ErrEmptySessionID
	}

	l := c.lockSession(sessionID)
	defer c.unlockSession(sessionID, l)

	cfg := NewConfiguration(sessionID)
	if err := c.store.Upsert(ctx, cfg); err != nil {
		return View{}, fmt.Errorf("persisting reset configuration: %w", err)
	}

	c.logger.Info("reset configuration", "session_id", sessionID)
	return cfg.ExternalView(), nil
}

// ShopReply answers a storefront customer's question in the configured
// brand voice. Read-only: no turn is recorded and nothing is persisted.
func (c *Controller) ShopReply(ctx context.Context, sessionID, message string) (string, error) {
	if sessionID == "" {
		return "", ErrEmptySessionID
	}
	if message == "" {
		return "", ErrEmptyMessage
	}

	cfg, err := c.loadOrCreate(ctx, sessionID)
	if err != nil {
		return "", err
	}

	reply, err := c.model.Complete(ctx, buildShopPrompt(cfg), message)
	if err != nil {
		return "", fmt.Errorf("shop completion: %w", err)
	}
	return reply, nil
}
