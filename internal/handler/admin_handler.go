package handler

import (
	"encoding/json"
	"net/http"

	"github.com/fitcoachhq/lead-funnel-go/internal/auth"

	"go.uber.org/zap"
)

// ============================================================
// Admin Auth Handlers
// ============================================================

type adminLoginRequest struct {
	Password string `json:"password"`
}

func adminLoginHandler(svc *auth.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "POST /v1/admin/login")
		defer span.End()

		var req adminLoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Password == "" {
			writeError(w, http.StatusBadRequest, "password is required")
			return
		}

		session, err := svc.Login(req.Password)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, session)
	}
}
