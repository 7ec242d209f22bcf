// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/fitcoachhq/lead-funnel-go/internal/domain"
)

// ProfileRepository loads and persists the long-lived visitor profile.
// The production implementation is backed by the hosted datastore; an
// in-memory implementation exists for tests and local development.
type ProfileRepository interface {
	// Load returns the stored profile, or *domain.ErrNotFound when the
	// visitor has never been seen.
	Load(ctx context.Context, visitorID string) (*domain.UserProfile, error)
	Save(ctx context.Context, profile *domain.UserProfile) error
	// Reset deletes the stored profile (the "reset preferences" action).
	Reset(ctx context.Context, visitorID string) error
}

// ChatProvider sends the conversation to the hosted completion API and
// returns a structured reply. Implementations own retry/backoff and the
// structured-output contract; callers own the cached-content fallback.
type ChatProvider interface {
	Send(ctx context.Context, history []domain.Message, newMessage string) (*domain.StructuredReply, domain.TokenUsage, error)
}

// LeadStore persists lead records with upsert-by-email semantics.
type LeadStore interface {
	UpsertLead(ctx context.Context, lead *domain.LeadRecord) (*domain.LeadRecord, error)
	GetLeadByEmail(ctx context.Context, email string) (*domain.LeadRecord, error)
	ListLeads(ctx context.Context, page, pageSize int) ([]domain.LeadRecord, error)
	ScheduleFollowup(ctx context.Context, f *domain.Followup) error
}

// EmailSender enrolls a captured lead into its segment email sequence and
// returns the follow-up entry implied by the segment's cadence.
type EmailSender interface {
	SendSegmentEmail(ctx context.Context, lead *domain.LeadRecord) (*domain.Followup, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
