package handler

import (
	"net/http"

	"github.com/fitcoachhq/lead-funnel-go/internal/port"
	"github.com/fitcoachhq/lead-funnel-go/internal/scoring"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Visitor Profile & Scoring Handlers
// ============================================================

func getVisitorProfileHandler(profiles port.ProfileRepository, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/visitors/{visitorId}/profile")
		defer span.End()

		profile, err := profiles.Load(ctx, chi.URLParam(r, "visitorId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, profile)
	}
}

func resetVisitorProfileHandler(profiles port.ProfileRepository, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/visitors/{visitorId}/profile")
		defer span.End()

		if err := profiles.Reset(ctx, chi.URLParam(r, "visitorId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// getVisitorICPHandler scores the stored profile on demand. Unknown
// visitors get a 404 rather than a zero score, so the dashboard can tell
// "never seen" apart from "seen but cold".
func getVisitorICPHandler(profiles port.ProfileRepository, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/visitors/{visitorId}/icp")
		defer span.End()

		profile, err := profiles.Load(ctx, chi.URLParam(r, "visitorId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		icp := scoring.Score(profile, nil)
		writeJSON(w, http.StatusOK, icp)
	}
}
