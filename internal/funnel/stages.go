// Package funnel implements the conversational sales funnel: the six-stage
// machine, the cached response library, and the conversation service that
// orchestrates cache → provider → fallback for every turn.
package funnel

import (
	"time"

	"github.com/fitcoachhq/lead-funnel-go/internal/domain"
)

// stageActions is the authoritative allow-list of quick-reply actions per
// stage. The widgets must never assemble their own button sets — they
// render exactly what the machine hands them.
var stageActions = map[domain.Stage][]domain.Action{
	domain.StageWelcome: {
		domain.ActionGoalWeightLoss,
		domain.ActionGoalMuscleGain,
		domain.ActionGoalNutrition,
		domain.ActionGoalGeneralFitness,
	},
	domain.StageQualification: {
		domain.ActionExperienceBeginner,
		domain.ActionExperienceIntermediate,
		domain.ActionExperienceAdvanced,
	},
	domain.StageNeedsAssessment: {
		domain.ActionContextGym,
		domain.ActionContextHome,
		domain.ActionContextNoRoutine,
		domain.ActionContextLimitedTime,
	},
	domain.StageRecommendation: {
		domain.ActionAddToCart,
		domain.ActionMoreDetails,
		domain.ActionShowPrograms,
	},
	domain.StageObjectionHandling: {
		domain.ActionPaymentOptions,
		domain.ActionTimeCommitment,
		domain.ActionAskQuestion,
	},
	domain.StageConversion: {
		domain.ActionCheckout,
		domain.ActionContactCoach,
		domain.ActionRemindLater,
	},
}

// actionLabels are the button captions the widgets render.
var actionLabels = map[domain.Action]string{
	domain.ActionGoalWeightLoss:     "Lose weight",
	domain.ActionGoalMuscleGain:     "Build muscle",
	domain.ActionGoalNutrition:      "Eat better",
	domain.ActionGoalGeneralFitness: "Get fitter overall",

	domain.ActionExperienceBeginner:     "Just starting out",
	domain.ActionExperienceIntermediate: "I train sometimes",
	domain.ActionExperienceAdvanced:     "I train regularly",

	domain.ActionContextGym:         "I have a gym",
	domain.ActionContextHome:        "I work out at home",
	domain.ActionContextNoRoutine:   "No routine yet",
	domain.ActionContextLimitedTime: "Short on time",

	domain.ActionAddToCart:    "Add to cart",
	domain.ActionMoreDetails:  "Tell me more",
	domain.ActionShowPrograms: "Show all programs",

	domain.ActionPaymentOptions: "Payment options",
	domain.ActionTimeCommitment: "How much time?",
	domain.ActionAskQuestion:    "I have a question",

	domain.ActionCheckout:     "Checkout",
	domain.ActionContactCoach: "Talk to a coach",
	domain.ActionRemindLater:  "Remind me later",
}

// stagePrompts are the assistant messages that introduce each stage.
var stagePrompts = map[domain.Stage]string{
	domain.StageWelcome:           "Hey! I'm your coaching assistant. What's your main goal right now?",
	domain.StageQualification:     "Love it. How much training experience do you have?",
	domain.StageNeedsAssessment:   "Got it. What does your workout situation look like?",
	domain.StageRecommendation:    "Thanks! Based on what you told me, here's what I'd recommend.",
	domain.StageObjectionHandling: "Anything holding you back? Happy to go over the details.",
	domain.StageConversion:        "Ready when you are, let's get you started.",
}

// goal/experience/context mappings from stage actions to profile fields.
// no_routine maps to minimal equipment and limited_time to the travel
// bucket: both describe prospects without a stable gym setup.
var (
	actionGoals = map[domain.Action]domain.Goal{
		domain.ActionGoalWeightLoss:     domain.GoalWeightLoss,
		domain.ActionGoalMuscleGain:     domain.GoalMuscleGain,
		domain.ActionGoalNutrition:      domain.GoalNutrition,
		domain.ActionGoalGeneralFitness: domain.GoalGeneralFitness,
	}
	actionExperience = map[domain.Action]domain.ExperienceLevel{
		domain.ActionExperienceBeginner:     domain.ExperienceBeginner,
		domain.ActionExperienceIntermediate: domain.ExperienceIntermediate,
		domain.ActionExperienceAdvanced:     domain.ExperienceAdvanced,
	}
	actionEquipment = map[domain.Action]domain.EquipmentAccess{
		domain.ActionContextGym:         domain.EquipmentGym,
		domain.ActionContextHome:        domain.EquipmentHome,
		domain.ActionContextNoRoutine:   domain.EquipmentMinimal,
		domain.ActionContextLimitedTime: domain.EquipmentTravel,
	}
)

// QuickRepliesFor returns the button set for a stage, in allow-list order.
func QuickRepliesFor(stage domain.Stage) []domain.QuickReply {
	actions := stageActions[stage]
	replies := make([]domain.QuickReply, 0, len(actions))
	for _, a := range actions {
		replies = append(replies, domain.QuickReply{Label: actionLabels[a], Action: a})
	}
	return replies
}

// StagePrompt returns the canned assistant message introducing a stage.
func StagePrompt(stage domain.Stage) string {
	return stagePrompts[stage]
}

// ValidAction reports whether action is on the allow-list for stage.
func ValidAction(stage domain.Stage, action domain.Action) bool {
	for _, a := range stageActions[stage] {
		if a == action {
			return true
		}
	}
	return false
}

// ApplyOutcome reports the side effects of a quick-reply selection.
type ApplyOutcome struct {
	// PurchaseIntent is true for add_to_cart and checkout — the actions
	// that trigger lead capture from stage 4 onward.
	PurchaseIntent bool
	// ViewedProgram is set when the action implies looking at a program.
	ViewedProgram string
}

// Apply validates a quick-reply action against the session's current
// stage, records the corresponding profile mutation, advances the stage
// by exactly one (stage 6 is terminal), and replaces the quick-reply set
// with the next stage's allow-list. The stage never moves backward here.
func Apply(sess *domain.ConversationSession, profile *domain.UserProfile, action domain.Action) (*ApplyOutcome, error) {
	if !ValidAction(sess.Stage, action) {
		return nil, &domain.ErrInvalidAction{Stage: sess.Stage, Action: action}
	}

	outcome := &ApplyOutcome{}
	profile.Analytics.ButtonClicks++

	switch sess.Stage {
	case domain.StageWelcome:
		profile.AddGoal(actionGoals[action])
	case domain.StageQualification:
		profile.ExperienceLevel = actionExperience[action]
	case domain.StageNeedsAssessment:
		profile.EquipmentAccess = actionEquipment[action]
	case domain.StageRecommendation, domain.StageObjectionHandling, domain.StageConversion:
		switch action {
		case domain.ActionAddToCart, domain.ActionCheckout:
			profile.PurchaseIntent = true
			outcome.PurchaseIntent = true
		case domain.ActionMoreDetails:
			outcome.ViewedProgram = "recommended"
		}
	}
	profile.UpdatedAt = time.Now()

	if sess.Stage < domain.StageConversion {
		sess.Stage++
	}
	sess.QuickReplies = QuickRepliesFor(sess.Stage)
	sess.LastActiveAt = time.Now()

	return outcome, nil
}

// AdvanceTo bumps the session forward when a matched free-text intent
// belongs to a later stage. It never moves the stage backward; earlier or
// unknown targets leave the session untouched.
func AdvanceTo(sess *domain.ConversationSession, target domain.Stage) {
	if !target.Valid() || target <= sess.Stage {
		return
	}
	sess.Stage = target
	sess.QuickReplies = QuickRepliesFor(target)
}

// StartOver resets a session to stage 1 and clears the transcript. The
// long-lived profile is untouched — that is a separate, explicit action.
func StartOver(sess *domain.ConversationSession) {
	sess.Stage = domain.StageWelcome
	sess.Messages = nil
	sess.QuickReplies = QuickRepliesFor(domain.StageWelcome)
	sess.LastActiveAt = time.Now()
}
