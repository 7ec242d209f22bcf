package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/fitcoachhq/lead-funnel-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// Visitor preferences — one JSON document per visitor
// ============================================================

// preferencesRow maps the user_preferences table. The whole profile lives
// in a single jsonb column; reads and writes always move the full document.
type preferencesRow struct {
	VisitorID   string             `json:"visitor_id"`
	Preferences domain.UserProfile `json:"preferences"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// Load fetches the stored visitor profile. Returns *domain.ErrNotFound for
// visitors that have never been seen.
func (c *Client) Load(ctx context.Context, visitorID string) (*domain.UserProfile, error) {
	ctx, span := tracer.Start(ctx, "Supabase.LoadProfile")
	defer span.End()
	span.SetAttributes(attribute.String("visitor.id", visitorID))

	// An empty result is the normal answer for first-time visitors. It is
	// decided after execute returns, so a miss never burns retries or
	// counts as a breaker failure.
	var rows []preferencesRow

	err := c.execute(ctx, func() error {
		rows = nil
		path := fmt.Sprintf("user_preferences?visitor_id=eq.%s&limit=1", url.QueryEscape(visitorID))
		body, err := c.doGet(ctx, path)
		if err != nil {
			return err
		}
		if body == nil {
			return nil
		}
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("decode preferences: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/preferences", Err: err}
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "profile", ID: visitorID}
	}

	p := rows[0].Preferences
	p.VisitorID = rows[0].VisitorID
	return &p, nil
}

// Save upserts the full profile document keyed by visitor_id.
func (c *Client) Save(ctx context.Context, profile *domain.UserProfile) error {
	ctx, span := tracer.Start(ctx, "Supabase.SaveProfile")
	defer span.End()
	span.SetAttributes(attribute.String("visitor.id", profile.VisitorID))

	row := preferencesRow{
		VisitorID:   profile.VisitorID,
		Preferences: *profile,
		UpdatedAt:   time.Now(),
	}

	err := c.execute(ctx, func() error {
		_, err := c.doPost(ctx, "user_preferences?on_conflict=visitor_id", row,
			"resolution=merge-duplicates,return=minimal")
		return err
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/preferences", Err: err}
	}

	return nil
}

// Reset deletes the stored profile. Deleting a missing row is a no-op,
// matching the idempotent reset semantics.
func (c *Client) Reset(ctx context.Context, visitorID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.ResetProfile")
	defer span.End()
	span.SetAttributes(attribute.String("visitor.id", visitorID))

	err := c.execute(ctx, func() error {
		return c.doDelete(ctx, fmt.Sprintf("user_preferences?visitor_id=eq.%s", url.QueryEscape(visitorID)))
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/preferences", Err: err}
	}

	return nil
}
