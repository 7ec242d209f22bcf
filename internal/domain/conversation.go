package domain

import "time"

// Stage is a discrete step in the sales funnel. Stages only move forward
// within a session; the only way back to StageWelcome is an explicit
// user-initiated start-over.
type Stage int

const (
	StageWelcome Stage = iota + 1
	StageQualification
	StageNeedsAssessment
	StageRecommendation
	StageObjectionHandling
	StageConversion
)

// String returns the stage name used in logs and metrics labels.
func (s Stage) String() string {
	switch s {
	case StageWelcome:
		return "welcome"
	case StageQualification:
		return "qualification"
	case StageNeedsAssessment:
		return "needs_assessment"
	case StageRecommendation:
		return "recommendation"
	case StageObjectionHandling:
		return "objection_handling"
	case StageConversion:
		return "conversion"
	}
	return "unknown"
}

// Valid reports whether s is one of the six funnel stages.
func (s Stage) Valid() bool {
	return s >= StageWelcome && s <= StageConversion
}

// Action is a quick-reply action identifier. Each stage has a fixed
// allow-list of actions; the stage machine is the single authority on
// which actions are valid when.
type Action string

const (
	// Stage 1 — Welcome: pick a goal
	ActionGoalWeightLoss     Action = "weight_loss"
	ActionGoalMuscleGain     Action = "muscle_gain"
	ActionGoalNutrition      Action = "nutrition"
	ActionGoalGeneralFitness Action = "general_fitness"

	// Stage 2 — Qualification: pick experience
	ActionExperienceBeginner     Action = "beginner"
	ActionExperienceIntermediate Action = "intermediate"
	ActionExperienceAdvanced     Action = "advanced"

	// Stage 3 — Needs assessment: workout context
	ActionContextGym         Action = "gym"
	ActionContextHome        Action = "home"
	ActionContextNoRoutine   Action = "no_routine"
	ActionContextLimitedTime Action = "limited_time"

	// Stage 4 — Recommendation
	ActionAddToCart    Action = "add_to_cart"
	ActionMoreDetails  Action = "more_details"
	ActionShowPrograms Action = "show_programs"

	// Stage 5 — Objection handling
	ActionPaymentOptions Action = "payment_options"
	ActionTimeCommitment Action = "time_commitment"
	ActionAskQuestion    Action = "ask_question"

	// Stage 6 — Conversion
	ActionCheckout     Action = "checkout"
	ActionContactCoach Action = "contact_coach"
	ActionRemindLater  Action = "remind_later"
)

// Role identifies who authored a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in the append-only session transcript.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// QuickReply is a predefined button offered to the user. The set is fully
// replaced after each turn, never merged.
type QuickReply struct {
	Label  string `json:"label"`
	Action Action `json:"action"`
}

// ConversationSession is the short-lived, per-widget-open state. Its
// terminal state folds back into the UserProfile when the widget closes.
type ConversationSession struct {
	ID           string       `json:"id"`
	VisitorID    string       `json:"visitor_id"`
	Stage        Stage        `json:"stage"`
	Messages     []Message    `json:"messages"`
	QuickReplies []QuickReply `json:"quick_replies"`
	StartedAt    time.Time    `json:"started_at"`
	LastActiveAt time.Time    `json:"last_active_at"`
}

// Append adds a message to the transcript and touches the activity clock.
func (s *ConversationSession) Append(role Role, id, text string) {
	now := time.Now()
	s.Messages = append(s.Messages, Message{
		ID:        id,
		Role:      role,
		Text:      text,
		Timestamp: now,
	})
	s.LastActiveAt = now
}
