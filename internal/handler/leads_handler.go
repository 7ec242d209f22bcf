package handler

import (
	"encoding/json"
	"net/http"

	"github.com/fitcoachhq/lead-funnel-go/internal/domain"
	"github.com/fitcoachhq/lead-funnel-go/internal/leads"

	"go.uber.org/zap"
)

// ============================================================
// Lead Capture Handlers
// ============================================================

func captureLeadHandler(svc *leads.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/leads")
		defer span.End()

		var req domain.CaptureRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		result, err := svc.Capture(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, result)
	}
}

func adminListLeadsHandler(svc *leads.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/leads")
		defer span.End()

		page, pageSize := parsePagination(r)
		records, err := svc.List(ctx, page, pageSize)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, domain.ListResponse[domain.LeadRecord]{
			Data:     records,
			Total:    len(records),
			Page:     page,
			PageSize: pageSize,
			HasMore:  len(records) == pageSize,
		})
	}
}
