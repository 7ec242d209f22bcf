// Package leads implements the lead capture gateway: validation, the
// upsert into the prospect store, and segment email enrollment.
package leads

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/fitcoachhq/lead-funnel-go/internal/domain"
	"github.com/fitcoachhq/lead-funnel-go/internal/infra/observability"
	"github.com/fitcoachhq/lead-funnel-go/internal/port"
	"github.com/fitcoachhq/lead-funnel-go/internal/scoring"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("leads/service")

// emailPattern accepts local@domain.tld without chasing the full RFC.
// Supabase rejects garbage anyway; this catches the obvious typos early.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Service is the lead capture gateway.
type Service struct {
	store    port.LeadStore
	profiles port.ProfileRepository
	email    port.EmailSender
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewService wires the lead gateway. email may be nil; captures then skip
// the sequence enrollment.
func NewService(store port.LeadStore, profiles port.ProfileRepository, email port.EmailSender, metrics *observability.Metrics, logger *zap.Logger) *Service {
	return &Service{
		store:    store,
		profiles: profiles,
		email:    email,
		metrics:  metrics,
		logger:   logger,
	}
}

// Capture validates the submission, scores it, and upserts the prospect
// row keyed by email. A datastore failure fails the capture; an email
// failure only clears EmailSent.
func (s *Service) Capture(ctx context.Context, req *domain.CaptureRequest) (*domain.CaptureResult, error) {
	ctx, span := tracer.Start(ctx, "LeadService.Capture")
	defer span.End()

	if err := validate(req); err != nil {
		return nil, err
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	span.SetAttributes(attribute.Bool("lead.purchase_intent", req.PurchaseIntent))

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("lead_capture", time.Since(start))
	}()

	// The existing row and the visitor profile are independent reads.
	var existing *domain.LeadRecord
	var profile *domain.UserProfile

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lead, err := s.store.GetLeadByEmail(gctx, req.Email)
		if err != nil {
			var notFound *domain.ErrNotFound
			if errors.As(err, &notFound) {
				return nil
			}
			return err
		}
		existing = lead
		return nil
	})
	if req.VisitorID != "" {
		g.Go(func() error {
			p, err := s.profiles.Load(gctx, req.VisitorID)
			if err != nil {
				// The profile only enriches the score. Missing or
				// unreachable, the capture proceeds without it.
				return nil
			}
			profile = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// The submission feeds the profile too: focus, budget, and contact
	// info collected by the form must survive into later turns and
	// rescoring, not just into this one prospect row.
	if profile == nil && (req.VisitorID != "" || req.PreferredFocus != "" || req.BudgetTier != "") {
		profile = domain.NewUserProfile(req.VisitorID)
	}
	if profile != nil {
		foldIntoProfile(profile, req)
	}

	record := buildRecord(req, existing, profile)

	saved, err := s.store.UpsertLead(ctx, record)
	if err != nil {
		return nil, err
	}
	s.metrics.IncrLeadCaptured(string(saved.Segment))

	if req.VisitorID != "" && profile != nil {
		if err := s.profiles.Save(ctx, profile); err != nil {
			s.metrics.IncrExternalError("profile-store")
			s.logger.Warn("profile write-back failed, lead kept",
				zap.String("visitor_id", req.VisitorID),
				zap.Error(err),
			)
		}
	}

	result := &domain.CaptureResult{Lead: saved}
	if s.email != nil {
		result.EmailSent = s.enroll(ctx, saved)
	}

	s.logger.Info("lead captured",
		zap.String("segment", string(saved.Segment)),
		zap.Int("icp_score", saved.ICPScore),
		zap.Bool("email_sent", result.EmailSent),
	)

	return result, nil
}

// List returns a page of captured leads for the admin dashboard.
func (s *Service) List(ctx context.Context, page, pageSize int) ([]domain.LeadRecord, error) {
	ctx, span := tracer.Start(ctx, "LeadService.List")
	defer span.End()

	return s.store.ListLeads(ctx, page, pageSize)
}

// enroll starts the segment email sequence. Failures are logged and
// swallowed; the lead is already persisted.
func (s *Service) enroll(ctx context.Context, lead *domain.LeadRecord) bool {
	followup, err := s.email.SendSegmentEmail(ctx, lead)
	if err != nil {
		s.metrics.IncrExternalError("email")
		s.logger.Warn("segment email failed, lead kept",
			zap.String("segment", string(lead.Segment)),
			zap.Error(err),
		)
		return false
	}

	if err := s.store.ScheduleFollowup(ctx, followup); err != nil {
		s.metrics.IncrExternalError("followups")
		s.logger.Warn("follow-up scheduling failed",
			zap.String("template", followup.Template),
			zap.Error(err),
		)
	}
	return true
}

// validate runs the pre-I/O checks: email shape and phone digit count.
func validate(req *domain.CaptureRequest) error {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return &domain.ErrValidation{Field: "email", Message: "email is required"}
	}
	if !emailPattern.MatchString(email) {
		return &domain.ErrValidation{Field: "email", Message: "invalid email address"}
	}

	if req.Phone != "" {
		digits := 0
		for _, r := range req.Phone {
			if r >= '0' && r <= '9' {
				digits++
			}
		}
		if digits < 10 {
			return &domain.ErrValidation{Field: "phone", Message: "phone must contain at least 10 digits"}
		}
	}

	switch req.PreferredFocus {
	case "", domain.FocusNutrition, domain.FocusTraining, domain.FocusBoth:
	default:
		return &domain.ErrValidation{Field: "preferred_focus", Message: "unknown focus area"}
	}
	switch req.BudgetTier {
	case "", domain.BudgetLow, domain.BudgetMedium, domain.BudgetHigh:
	default:
		return &domain.ErrValidation{Field: "budget_tier", Message: "unknown budget tier"}
	}
	return nil
}

// foldIntoProfile writes the submission back into the visitor profile.
// Empty fields never erase stored values.
func foldIntoProfile(p *domain.UserProfile, req *domain.CaptureRequest) {
	if p.PersonalInfo == nil {
		p.PersonalInfo = &domain.PersonalInfo{}
	}
	p.PersonalInfo.Email = req.Email
	if req.Phone != "" {
		p.PersonalInfo.Phone = req.Phone
	}
	if name := strings.TrimSpace(req.FirstName + " " + req.LastName); name != "" {
		p.PersonalInfo.Name = name
	}
	if req.PreferredFocus != "" {
		p.PreferredFocus = req.PreferredFocus
	}
	if req.BudgetTier != "" {
		p.BudgetTier = req.BudgetTier
	}
	if req.PurchaseIntent {
		p.PurchaseIntent = true
	}
	p.UpdatedAt = time.Now()
}

// buildRecord merges the submission over the existing row and re-scores.
// Omitted fields keep their stored value so a lighter second submission
// never erases data from the first.
func buildRecord(req *domain.CaptureRequest, existing *domain.LeadRecord, profile *domain.UserProfile) *domain.LeadRecord {
	record := &domain.LeadRecord{Email: req.Email}
	if existing != nil {
		*record = *existing
		record.Email = req.Email
	}

	if req.Phone != "" {
		record.Phone = req.Phone
	}
	if req.FirstName != "" {
		record.FirstName = req.FirstName
	}
	if req.LastName != "" {
		record.LastName = req.LastName
	}
	if req.PurchaseIntent {
		record.PurchaseIntent = true
	}
	if len(req.SocialData) > 0 {
		record.SocialData = req.SocialData
	}

	if profile != nil {
		if len(profile.Goals) > 0 {
			record.FitnessGoals = profile.Goals
		}
		if profile.ExperienceLevel != "" {
			record.ExperienceLevel = profile.ExperienceLevel
		}
		if profile.PurchaseIntent {
			record.PurchaseIntent = true
		}
	}

	icp := scoring.Score(profile, req.Demographics)
	record.ICPScore = icp.Score
	record.Segment = icp.Segment
	record.RecommendedProduct = icp.RecommendedProduct

	return record
}
