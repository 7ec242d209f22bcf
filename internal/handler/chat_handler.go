package handler

import (
	"encoding/json"
	"net/http"

	"github.com/fitcoachhq/lead-funnel-go/internal/domain"
	"github.com/fitcoachhq/lead-funnel-go/internal/funnel"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Conversation Widget Handlers
// ============================================================

type startSessionRequest struct {
	VisitorID string `json:"visitor_id"`
}

type postMessageRequest struct {
	Message string `json:"message"`
}

type postActionRequest struct {
	Action string `json:"action"`
}

// startSessionHandler opens a conversation session. The visitor ID is
// optional; a missing one gets minted server-side.
func startSessionHandler(svc *funnel.ConversationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/chat/sessions")
		defer span.End()

		var req startSessionRequest
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
		}

		result, err := svc.Start(ctx, req.VisitorID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, result)
	}
}

func postMessageHandler(svc *funnel.ConversationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/chat/sessions/{sessionId}/messages")
		defer span.End()

		sessionID := chi.URLParam(r, "sessionId")

		var req postMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Message == "" {
			writeError(w, http.StatusBadRequest, "message is required")
			return
		}

		result, err := svc.ProcessMessage(ctx, sessionID, req.Message)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func postActionHandler(svc *funnel.ConversationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/chat/sessions/{sessionId}/actions")
		defer span.End()

		sessionID := chi.URLParam(r, "sessionId")

		var req postActionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Action == "" {
			writeError(w, http.StatusBadRequest, "action is required")
			return
		}

		result, err := svc.ApplyAction(ctx, sessionID, domain.Action(req.Action))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func resetSessionHandler(svc *funnel.ConversationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/chat/sessions/{sessionId}/reset")
		defer span.End()

		sessionID := chi.URLParam(r, "sessionId")

		result, err := svc.StartOver(ctx, sessionID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func closeSessionHandler(svc *funnel.ConversationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "DELETE /v1/chat/sessions/{sessionId}")
		defer span.End()

		svc.Close(chi.URLParam(r, "sessionId"))
		w.WriteHeader(http.StatusNoContent)
	}
}
