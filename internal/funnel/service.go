package funnel

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/fitcoachhq/lead-funnel-go/internal/domain"
	"github.com/fitcoachhq/lead-funnel-go/internal/infra/observability"
	"github.com/fitcoachhq/lead-funnel-go/internal/port"
	"github.com/fitcoachhq/lead-funnel-go/internal/scoring"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("funnel/service")

// LeadCapturer is the slice of the lead gateway the conversation service
// needs when a purchase-intent action fires with contact info on file.
type LeadCapturer interface {
	Capture(ctx context.Context, req *domain.CaptureRequest) (*domain.CaptureResult, error)
}

// TurnResult is what every conversation operation returns to the widget.
type TurnResult struct {
	SessionID string                  `json:"session_id"`
	Stage     domain.Stage            `json:"stage"`
	StageName string                  `json:"stage_name"`
	Reply     *domain.StructuredReply `json:"reply"`
	// ICP is included once the session has reached the recommendation
	// stage at least once.
	ICP *domain.ICPResult `json:"icp,omitempty"`
	// PromptLeadCapture asks the widget to show the contact-info form.
	PromptLeadCapture bool `json:"prompt_lead_capture,omitempty"`
}

// Options tune the conversation service policy knobs.
type Options struct {
	// LeadPromptProbability is the chance of showing the lead-capture
	// prompt on a qualifying message (0 disables it).
	LeadPromptProbability float64
	// Rand overrides the randomness source (tests).
	Rand func() float64
}

// ConversationService orchestrates a turn: in-flight guard → cached
// library → chat provider → canned fallback. It owns the sessions and
// folds every mutation back into the visitor profile.
type ConversationService struct {
	profiles port.ProfileRepository
	provider port.ChatProvider
	library  *ResponseLibrary
	sessions *SessionStore
	leads    LeadCapturer
	metrics  *observability.Metrics
	logger   *zap.Logger

	leadPromptProb float64
	randFn         func() float64
}

// NewConversationService wires the conversation orchestrator. leads may
// be nil (captures then only happen through the explicit endpoint).
func NewConversationService(
	profiles port.ProfileRepository,
	provider port.ChatProvider,
	library *ResponseLibrary,
	sessions *SessionStore,
	leads LeadCapturer,
	metrics *observability.Metrics,
	logger *zap.Logger,
	opts Options,
) *ConversationService {
	randFn := opts.Rand
	if randFn == nil {
		randFn = rand.Float64
	}
	return &ConversationService{
		profiles:       profiles,
		provider:       provider,
		library:        library,
		sessions:       sessions,
		leads:          leads,
		metrics:        metrics,
		logger:         logger,
		leadPromptProb: opts.LeadPromptProbability,
		randFn:         randFn,
	}
}

// Start opens a session for a visitor and returns the welcome turn with
// the stage-1 quick replies. An empty visitorID gets a fresh identity.
func (s *ConversationService) Start(ctx context.Context, visitorID string) (*TurnResult, error) {
	ctx, span := tracer.Start(ctx, "ConversationService.Start")
	defer span.End()

	if visitorID == "" {
		visitorID = uuid.New().String()
	}
	span.SetAttributes(attribute.String("visitor.id", visitorID))

	profile := s.loadOrCreateProfile(ctx, visitorID)
	sess := s.sessions.Create(visitorID)

	reply := &domain.StructuredReply{
		Type:         domain.ReplyText,
		Message:      StagePrompt(domain.StageWelcome),
		QuickReplies: sess.QuickReplies,
	}
	sess.Append(domain.RoleAssistant, uuid.New().String(), reply.Message)

	s.saveProfile(ctx, profile)
	return s.turnResult(sess, profile, reply, false), nil
}

// ProcessMessage handles one free-text turn. The cached library is always
// checked before any network call; a provider failure degrades to a
// canned response, never to a raw error in the transcript.
func (s *ConversationService) ProcessMessage(ctx context.Context, sessionID, text string) (*TurnResult, error) {
	ctx, span := tracer.Start(ctx, "ConversationService.ProcessMessage")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", sessionID))

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	// One in-flight turn per conversation. The widgets double-submit
	// without this.
	if !s.sessions.TryBegin(sessionID) {
		return nil, &domain.ErrBusy{SessionID: sessionID}
	}
	defer s.sessions.End(sessionID)

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("conversation_turn", time.Since(start))
	}()

	profile := s.loadOrCreateProfile(ctx, sess.VisitorID)
	profile.Analytics.MessageCount++
	if strings.Contains(text, "?") {
		profile.Analytics.QuestionCount++
	}

	history := make([]domain.Message, len(sess.Messages))
	copy(history, sess.Messages)
	sess.Append(domain.RoleUser, uuid.New().String(), text)

	var reply *domain.StructuredReply
	degraded := false
	if entry := s.library.Match(text); entry != nil {
		s.metrics.IncrCacheHit("responses")
		r := entry.Reply
		reply = &r
		AdvanceTo(sess, entry.Stage)
	} else {
		s.metrics.IncrCacheMiss("responses")
		reply, degraded = s.askProvider(ctx, sess, history, text)
	}
	if degraded {
		s.metrics.IncrRequest("error")
	} else {
		s.metrics.IncrRequest("success")
	}

	sess.Append(domain.RoleAssistant, uuid.New().String(), reply.Message)
	if len(reply.QuickReplies) > 0 {
		sess.QuickReplies = reply.QuickReplies
	} else {
		sess.QuickReplies = QuickRepliesFor(sess.Stage)
		reply.QuickReplies = sess.QuickReplies
	}

	promptLead := s.shouldPromptLead(profile, text)

	s.saveProfile(ctx, profile)
	return s.turnResult(sess, profile, reply, promptLead), nil
}

// ApplyAction handles a quick-reply click: validate against the stage
// allow-list, mutate the profile, advance the stage, and hand back the
// next stage's canned prompt and buttons.
func (s *ConversationService) ApplyAction(ctx context.Context, sessionID string, action domain.Action) (*TurnResult, error) {
	ctx, span := tracer.Start(ctx, "ConversationService.ApplyAction")
	defer span.End()
	span.SetAttributes(
		attribute.String("session.id", sessionID),
		attribute.String("action", string(action)),
	)

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if !s.sessions.TryBegin(sessionID) {
		return nil, &domain.ErrBusy{SessionID: sessionID}
	}
	defer s.sessions.End(sessionID)

	profile := s.loadOrCreateProfile(ctx, sess.VisitorID)

	outcome, err := Apply(sess, profile, action)
	if err != nil {
		return nil, err
	}
	s.metrics.IncrStageTransition(sess.Stage.String())

	if outcome.ViewedProgram != "" {
		profile.MarkProgramViewed(outcome.ViewedProgram, time.Now())
	}
	if action == domain.ActionAddToCart {
		profile.MarkProgramInterest(scoring.Score(profile, nil).RecommendedProduct)
	}

	reply := s.replyForAction(sess, profile, action)
	sess.Append(domain.RoleAssistant, uuid.New().String(), reply.Message)

	if outcome.PurchaseIntent && profile.HasContactInfo() && s.leads != nil {
		// Fire-and-forget: closing the widget must not cancel a capture
		// already under way.
		s.captureAsync(context.WithoutCancel(ctx), profile)
	}

	s.saveProfile(ctx, profile)
	return s.turnResult(sess, profile, reply, outcome.PurchaseIntent && !profile.HasContactInfo()), nil
}

// StartOver resets the session to stage 1 and clears the transcript,
// keeping the long-lived profile.
func (s *ConversationService) StartOver(ctx context.Context, sessionID string) (*TurnResult, error) {
	_, span := tracer.Start(ctx, "ConversationService.StartOver")
	defer span.End()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	// A reset mutates the same session a turn might still be writing to.
	if !s.sessions.TryBegin(sessionID) {
		return nil, &domain.ErrBusy{SessionID: sessionID}
	}
	defer s.sessions.End(sessionID)

	StartOver(sess)
	reply := &domain.StructuredReply{
		Type:         domain.ReplyText,
		Message:      StagePrompt(domain.StageWelcome),
		QuickReplies: sess.QuickReplies,
	}
	sess.Append(domain.RoleAssistant, uuid.New().String(), reply.Message)

	profile := s.loadOrCreateProfile(ctx, sess.VisitorID)
	return s.turnResult(sess, profile, reply, false), nil
}

// Close drops the session (widget closed). The profile already carries
// everything worth keeping; the transcript is disposable.
func (s *ConversationService) Close(sessionID string) {
	s.sessions.Delete(sessionID)
}

// askProvider sends the turn to the chat provider and degrades to the
// canned fallback on any failure. The second return reports whether the
// turn was served degraded.
func (s *ConversationService) askProvider(ctx context.Context, sess *domain.ConversationSession, history []domain.Message, text string) (*domain.StructuredReply, bool) {
	reply, usage, err := s.provider.Send(ctx, history, text)
	if err != nil {
		s.metrics.IncrExternalError("provider")
		s.metrics.IncrFallback()

		var circuitOpen *domain.ErrCircuitOpen
		if errors.As(err, &circuitOpen) {
			s.logger.Warn("provider circuit open, serving fallback",
				zap.String("session_id", sess.ID),
			)
		} else {
			s.logger.Error("provider call failed, serving fallback",
				zap.String("session_id", sess.ID),
				zap.Error(err),
			)
		}

		entry := s.library.Fallback(text)
		r := entry.Reply
		AdvanceTo(sess, entry.Stage)
		return &r, true
	}

	s.metrics.RecordTokens(usage.PromptTokens, usage.CompletionTokens)
	return reply, false
}

// replyForAction builds the assistant turn that follows a quick-reply
// click. Recommendation-stage arrivals carry the scored recommendation.
func (s *ConversationService) replyForAction(sess *domain.ConversationSession, profile *domain.UserProfile, action domain.Action) *domain.StructuredReply {
	reply := &domain.StructuredReply{
		Type:         domain.ReplyText,
		Message:      StagePrompt(sess.Stage),
		QuickReplies: sess.QuickReplies,
	}

	switch {
	case action == domain.ActionShowPrograms:
		reply.Type = domain.ReplyProgramList
		reply.Message = "Here's everything we offer — pick what fits your life."
		reply.Data = &domain.ReplyData{Programs: Catalog()}
	case sess.Stage == domain.StageRecommendation:
		icp := scoring.Score(profile, nil)
		reply.Type = domain.ReplyRecommendation
		reply.Data = &domain.ReplyData{Recommendation: &domain.Recommendation{
			Product: icp.RecommendedProduct,
			Score:   icp.Score,
			Segment: icp.Segment,
			Reason:  "Matched to your goal, experience level, and schedule.",
		}}
	case action == domain.ActionCheckout, action == domain.ActionAddToCart:
		if profile.HasContactInfo() {
			reply.Message = "You're all set — I'll send the checkout link to your email right now."
		} else {
			reply.Type = domain.ReplyLeadCapture
			reply.Message = "Awesome! Drop your email and I'll send over your checkout link and plan details."
		}
	}
	return reply
}

// shouldPromptLead implements the qualifying-message lead prompt with a
// configurable probability knob.
func (s *ConversationService) shouldPromptLead(profile *domain.UserProfile, text string) bool {
	if profile.HasContactInfo() || s.leadPromptProb <= 0 {
		return false
	}
	if !s.isQualifying(text) {
		return false
	}
	return s.randFn() < s.leadPromptProb
}

// isQualifying marks high-intent messages: pricing, programs, results.
func (s *ConversationService) isQualifying(text string) bool {
	entry := s.library.Match(text)
	if entry == nil {
		return false
	}
	switch entry.Intent {
	case "pricing", "programs", "results":
		return true
	}
	return false
}

// captureAsync persists a lead in the background with its own deadline.
func (s *ConversationService) captureAsync(ctx context.Context, profile *domain.UserProfile) {
	req := &domain.CaptureRequest{
		Email:          profile.PersonalInfo.Email,
		Phone:          profile.PersonalInfo.Phone,
		FirstName:      profile.PersonalInfo.Name,
		VisitorID:      profile.VisitorID,
		PurchaseIntent: true,
	}
	go func() {
		ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()

		if _, err := s.leads.Capture(ctx, req); err != nil {
			s.logger.Error("background lead capture failed",
				zap.String("visitor_id", req.VisitorID),
				zap.Error(err),
			)
		}
	}()
}

func (s *ConversationService) turnResult(sess *domain.ConversationSession, profile *domain.UserProfile, reply *domain.StructuredReply, promptLead bool) *TurnResult {
	result := &TurnResult{
		SessionID:         sess.ID,
		Stage:             sess.Stage,
		StageName:         sess.Stage.String(),
		Reply:             reply,
		PromptLeadCapture: promptLead,
	}
	// Reaching the recommendation stage licenses a recommendation.
	if sess.Stage >= domain.StageRecommendation {
		icp := scoring.Score(profile, nil)
		result.ICP = &icp
	}
	return result
}

// loadOrCreateProfile fetches the visitor profile, creating an empty one
// on first contact. A datastore failure degrades to a fresh in-memory
// profile so the conversation keeps working.
func (s *ConversationService) loadOrCreateProfile(ctx context.Context, visitorID string) *domain.UserProfile {
	profile, err := s.profiles.Load(ctx, visitorID)
	if err == nil {
		return profile
	}

	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		s.metrics.IncrExternalError("profile-store")
		s.logger.Error("profile load failed, starting fresh",
			zap.String("visitor_id", visitorID),
			zap.Error(err),
		)
	}
	return domain.NewUserProfile(visitorID)
}

func (s *ConversationService) saveProfile(ctx context.Context, profile *domain.UserProfile) {
	if err := s.profiles.Save(ctx, profile); err != nil {
		s.metrics.IncrExternalError("profile-store")
		s.logger.Error("profile save failed",
			zap.String("visitor_id", profile.VisitorID),
			zap.Error(err),
		)
	}
}
