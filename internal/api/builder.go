package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/storeforge/storeforge/internal/builder"
)

// maxBodyBytes bounds inbound request bodies.
const maxBodyBytes = 1024 * 1024

// builderHandler exposes the storefront builder over HTTP.
type builderHandler struct {
	engine *builder.Controller
	logger *slog.Logger
}

// chatRequest is the body for builder and shop chat endpoints.
type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// chatResponse is the builder chat reply envelope.
type chatResponse struct {
	Success       bool         `json:"success"`
	Response      string       `json:"response"`
	Context       builder.View `json:"context"`
	UpdatedFields []string     `json:"updated_fields"`
	SessionID     string       `json:"session_id"`
}

// resetRequest is the body for the admin reset endpoint.
type resetRequest struct {
	SessionID string `json:"session_id"`
}

// decodeBody decodes a size-limited JSON request body into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return false
	}
	return true
}

// chat handles POST /api/v1/builder/chat. A missing session id starts a
// new session; a missing message is a client error.
func (h *builderHandler) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.SessionID == "" {
		req.SessionID = uuid.New().String()
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "missing_message", "message is required")
		return
	}

	res, err := h.engine.Process(r.Context(), req.SessionID, req.Message)
	if err != nil {
		h.logger.Error("processing builder message",
			"error", err,
			"session_id", req.SessionID,
			"request_id", requestIDFromContext(r.Context()),
		)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	fields := res.UpdatedFields
	if fields == nil {
		fields = []string{}
	}
	writeJSON(w, http.StatusOK, chatResponse{
		Success:       res.Success,
		Response:      res.Reply,
		Context:       res.View,
		UpdatedFields: fields,
		SessionID:     req.SessionID,
	})
}

// context handles GET /api/v1/builder/context/{session_id}.
func (h *builderHandler) context(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")

	view, err := h.engine.Context(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, builder.ErrEmptySessionID) {
			writeError(w, http.StatusBadRequest, "missing_session_id", "session_id is required")
			return
		}
		h.logger.Error("loading builder context", "error", err, "session_id", sessionID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"context": view})
}

// reset handles POST /api/v1/builder/reset. It replaces the session's
// configuration with a fresh default.
func (h *builderHandler) reset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "missing_session_id", "session_id is required")
		return
	}

	view, err := h.engine.Reset(r.Context(), req.SessionID)
	if err != nil {
		h.logger.Error("resetting builder session", "error", err, "session_id", req.SessionID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "context": view})
}

// shopChat handles POST /api/v1/shop/chat: a storefront customer talking
// to the configured sales agent. Read-only against the configuration.
func (h *builderHandler) shopChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "missing_session_id", "session_id is required")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "missing_message", "message is required")
		return
	}

	reply, err := h.engine.ShopReply(r.Context(), req.SessionID, req.Message)
	if err != nil {
		h.logger.Error("processing shop message", "error", err, "session_id", req.SessionID)
		writeJSON(w, http.StatusOK, map[string]any{
			"success":  false,
			"response": builder.Apology,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "response": reply})
}
