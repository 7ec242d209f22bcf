package funnel

import (
	"strings"

	"github.com/fitcoachhq/lead-funnel-go/internal/domain"
)

// Catalog returns the fixed program catalog the widgets can render.
func Catalog() []domain.Program {
	return []domain.Program{
		{ID: "nutrition-training", Name: domain.ProductNutritionTraining, Price: 199, Period: "month",
			Description: "1:1 coaching covering training and nutrition, weekly check-ins."},
		{ID: "nutrition-only", Name: domain.ProductNutritionOnly, Price: 129, Period: "month",
			Description: "Custom macros and meal structure with biweekly adjustments."},
		{ID: "self-led", Name: domain.ProductSelfLedTraining, Price: 99, Period: "month",
			Description: "App-based programming you follow at your own pace."},
		{ID: "shred", Name: domain.ProductShredChallenge, Price: 49, Period: "one_time",
			Description: "6-week kickstart challenge with community support."},
	}
}

// CachedResponse is one entry of the keyed canned-response table. Stage is
// the advisory stage affinity of the intent: a matched entry may bump the
// session forward to that stage, never backward (0 means no affinity).
type CachedResponse struct {
	Intent   string
	Stage    domain.Stage
	Patterns []string
	Reply    domain.StructuredReply
}

// ResponseLibrary selects canned structured responses from free-text
// input, so common questions never cost a provider call. Matching is
// case-insensitive substring; the entry with the most matching patterns
// wins and ties go to the earlier-registered intent.
type ResponseLibrary struct {
	entries []CachedResponse
	generic CachedResponse
}

// NewResponseLibrary builds the default library. Declaration order is the
// tie-break order — keep high-traffic intents first.
func NewResponseLibrary() *ResponseLibrary {
	safeReplies := []domain.QuickReply{
		{Label: "Show all programs", Action: domain.ActionShowPrograms},
		{Label: "I have a question", Action: domain.ActionAskQuestion},
		{Label: "Talk to a coach", Action: domain.ActionContactCoach},
	}

	return &ResponseLibrary{
		entries: []CachedResponse{
			{
				Intent:   "greeting",
				Patterns: []string{"hello", "hey", "hiya", "good morning", "good afternoon", "what's up"},
				Reply: domain.StructuredReply{
					Type:         domain.ReplyText,
					Message:      "Hey! Great to see you here. Want help picking a program, or do you have a question?",
					QuickReplies: QuickRepliesFor(domain.StageWelcome),
				},
			},
			{
				Intent:   "pricing",
				Stage:    domain.StageObjectionHandling,
				Patterns: []string{"price", "cost", "how much", "expensive", "afford", "payment plan"},
				Reply: domain.StructuredReply{
					Type:    domain.ReplyProgramList,
					Message: "Programs start at $49 for the 6-week SHRED Challenge, and monthly coaching runs $99–$199 depending on how much support you want.",
					Data:    &domain.ReplyData{Programs: Catalog()},
					QuickReplies: []domain.QuickReply{
						{Label: "Payment options", Action: domain.ActionPaymentOptions},
						{Label: "Add to cart", Action: domain.ActionAddToCart},
						{Label: "I have a question", Action: domain.ActionAskQuestion},
					},
				},
			},
			{
				Intent:   "programs",
				Stage:    domain.StageRecommendation,
				Patterns: []string{"program", "plan", "membership", "subscription", "what do you offer", "options"},
				Reply: domain.StructuredReply{
					Type:    domain.ReplyProgramList,
					Message: "Here's the full lineup — each one is built around your goal and schedule.",
					Data:    &domain.ReplyData{Programs: Catalog()},
					QuickReplies: []domain.QuickReply{
						{Label: "Add to cart", Action: domain.ActionAddToCart},
						{Label: "Tell me more", Action: domain.ActionMoreDetails},
					},
				},
			},
			{
				Intent:   "nutrition",
				Patterns: []string{"nutrition", "diet", "meal", "macro", "food", "eating", "calories"},
				Reply: domain.StructuredReply{
					Type:    domain.ReplyNutritionGuide,
					Message: "Nutrition is where most people see the fastest change. We build your plan around food you actually like — no crash diets.",
					Data: &domain.ReplyData{Nutrition: &domain.NutritionGuide{
						Headline: "How coaching handles nutrition",
						Tips: []string{
							"Custom macro targets from your goal and activity level",
							"Weekly adjustments based on progress, not guesswork",
							"No banned foods — portion and consistency first",
						},
					}},
					QuickReplies: safeReplies,
				},
			},
			{
				Intent:   "workouts",
				Patterns: []string{"workout", "training", "exercise", "routine", "lifting", "cardio"},
				Reply: domain.StructuredReply{
					Type:    domain.ReplyWorkoutInfo,
					Message: "Workouts are programmed for your equipment and schedule — gym, home, or travel. Most plans run 3–5 sessions a week.",
					Data: &domain.ReplyData{Workout: &domain.WorkoutInfo{
						Frequency: "3-5x per week",
						Summary:   "Progressive programs adapted to your equipment and available time.",
					}},
					QuickReplies: safeReplies,
				},
			},
			{
				Intent:   "results",
				Stage:    domain.StageObjectionHandling,
				Patterns: []string{"results", "how long", "timeline", "how fast", "see progress", "weeks"},
				Reply: domain.StructuredReply{
					Type:    domain.ReplyText,
					Message: "Most clients feel a difference in 2–3 weeks and see visible change by week 6–8. Consistency beats intensity — that's what coaching keeps you on.",
					QuickReplies: []domain.QuickReply{
						{Label: "How much time?", Action: domain.ActionTimeCommitment},
						{Label: "Show all programs", Action: domain.ActionShowPrograms},
					},
				},
			},
			{
				Intent:   "policy",
				Stage:    domain.StageObjectionHandling,
				Patterns: []string{"refund", "cancel", "guarantee", "terms", "policy", "money back"},
				Reply: domain.StructuredReply{
					Type:         domain.ReplyText,
					Message:      "Monthly plans cancel anytime, no lock-in. The SHRED Challenge has a 14-day money-back guarantee if it's not for you.",
					QuickReplies: safeReplies,
				},
			},
		},
		generic: CachedResponse{
			Intent: "generic",
			Reply: domain.StructuredReply{
				Type:         domain.ReplyText,
				Message:      "Sorry, I didn't quite get that — but I'm here to help! You can browse programs or ask me anything about training and nutrition.",
				QuickReplies: safeReplies,
			},
		},
	}
}

// Match returns the best cached response for the input, or nil when no
// pattern matches — the signal to fall through to the chat provider.
func (l *ResponseLibrary) Match(text string) *CachedResponse {
	lower := strings.ToLower(text)

	var best *CachedResponse
	bestCount := 0
	for i := range l.entries {
		count := 0
		for _, p := range l.entries[i].Patterns {
			if strings.Contains(lower, p) {
				count++
			}
		}
		// Strictly greater keeps the earlier-declared intent on ties.
		if count > bestCount {
			best = &l.entries[i]
			bestCount = count
		}
	}
	return best
}

// Fallback classifies the message into one of the canned intents and
// always returns a response — the generic apology when nothing matches.
// Used when the provider fails so the user never sees a raw error.
func (l *ResponseLibrary) Fallback(text string) *CachedResponse {
	if entry := l.Match(text); entry != nil {
		return entry
	}
	g := l.generic
	return &g
}
