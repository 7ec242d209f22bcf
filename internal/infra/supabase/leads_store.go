package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/fitcoachhq/lead-funnel-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Prospects — upsert-by-email via PostgREST
// ============================================================

// UpsertLead inserts or updates a prospect row keyed by email. PostgREST
// does the merge server-side via on_conflict, so two racing submissions
// for the same email still converge to a single row.
func (c *Client) UpsertLead(ctx context.Context, lead *domain.LeadRecord) (*domain.LeadRecord, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpsertLead")
	defer span.End()
	span.SetAttributes(attribute.String("lead.segment", string(lead.Segment)))

	var saved *domain.LeadRecord

	err := c.execute(ctx, func() error {
		body, err := c.doPost(ctx, "prospects?on_conflict=email", lead,
			"resolution=merge-duplicates,return=representation")
		if err != nil {
			return err
		}

		var rows []domain.LeadRecord
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("decode upserted prospect: %w", err)
		}
		if len(rows) == 0 {
			return fmt.Errorf("upsert returned no representation")
		}

		saved = &rows[0]
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/prospects", Err: err}
	}

	c.logger.Info("supabase: lead upserted",
		zap.String("lead_id", saved.ID),
		zap.String("segment", string(saved.Segment)),
	)

	return saved, nil
}

// GetLeadByEmail fetches a single prospect by its upsert key.
func (c *Client) GetLeadByEmail(ctx context.Context, email string) (*domain.LeadRecord, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetLeadByEmail")
	defer span.End()

	// A miss is the normal answer for every new email, so it is decided
	// after execute returns rather than inside the retried call — a miss
	// must never burn retries or count as a breaker failure.
	var rows []domain.LeadRecord

	err := c.execute(ctx, func() error {
		rows = nil
		path := fmt.Sprintf("prospects?email=eq.%s&limit=1", url.QueryEscape(email))
		body, err := c.doGet(ctx, path)
		if err != nil {
			return err
		}
		if body == nil {
			return nil
		}
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("decode prospect: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/prospects", Err: err}
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "lead", ID: email}
	}

	return &rows[0], nil
}

// ListLeads returns a page of prospects, newest first. Page numbers start
// at 1.
func (c *Client) ListLeads(ctx context.Context, page, pageSize int) ([]domain.LeadRecord, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListLeads")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	var leads []domain.LeadRecord

	err := c.execute(ctx, func() error {
		path := fmt.Sprintf("prospects?order=created_at.desc&limit=%d&offset=%d", pageSize, offset)
		body, err := c.doGet(ctx, path)
		if err != nil {
			return err
		}

		if body == nil || string(body) == "[]" {
			leads = []domain.LeadRecord{}
			return nil
		}

		var rows []domain.LeadRecord
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("decode prospects: %w", err)
		}

		leads = rows
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/prospects", Err: err}
	}

	return leads, nil
}

// ScheduleFollowup records a follow-up entry for the sequence worker.
func (c *Client) ScheduleFollowup(ctx context.Context, f *domain.Followup) error {
	ctx, span := tracer.Start(ctx, "Supabase.ScheduleFollowup")
	defer span.End()

	err := c.execute(ctx, func() error {
		_, err := c.doPost(ctx, "followups", f, "return=minimal")
		return err
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/followups", Err: err}
	}

	return nil
}
