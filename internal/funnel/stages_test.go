package funnel_test

import (
	"errors"
	"testing"

	"github.com/fitcoachhq/lead-funnel-go/internal/domain"
	"github.com/fitcoachhq/lead-funnel-go/internal/funnel"
)

func newSession(stage domain.Stage) *domain.ConversationSession {
	return &domain.ConversationSession{
		ID:           "sess-1",
		VisitorID:    "visitor-1",
		Stage:        stage,
		QuickReplies: funnel.QuickRepliesFor(stage),
	}
}

func TestApply_RejectsOffStageAction(t *testing.T) {
	sess := newSession(domain.StageWelcome)
	profile := domain.NewUserProfile("visitor-1")

	_, err := funnel.Apply(sess, profile, domain.ActionCheckout)

	var invalid *domain.ErrInvalidAction
	if !errors.As(err, &invalid) {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}
	if sess.Stage != domain.StageWelcome {
		t.Errorf("expected stage unchanged after rejection, got %v", sess.Stage)
	}
	if profile.Analytics.ButtonClicks != 0 {
		t.Error("expected no click recorded on rejection")
	}
}

func TestApply_GoalSelectionAdvancesAndRecords(t *testing.T) {
	sess := newSession(domain.StageWelcome)
	profile := domain.NewUserProfile("visitor-1")

	_, err := funnel.Apply(sess, profile, domain.ActionGoalWeightLoss)
	if err != nil {
		t.Fatalf("expected apply to succeed, got %v", err)
	}

	if sess.Stage != domain.StageQualification {
		t.Errorf("expected stage 2, got %v", sess.Stage)
	}
	if !profile.HasGoal(domain.GoalWeightLoss) {
		t.Error("expected weight_loss goal recorded")
	}
	if profile.Analytics.ButtonClicks != 1 {
		t.Errorf("expected 1 click, got %d", profile.Analytics.ButtonClicks)
	}
	if len(sess.QuickReplies) != 3 {
		t.Errorf("expected stage-2 button set, got %d buttons", len(sess.QuickReplies))
	}
}

func TestApply_GoalIsDeduplicated(t *testing.T) {
	profile := domain.NewUserProfile("visitor-1")

	for i := 0; i < 3; i++ {
		sess := newSession(domain.StageWelcome)
		if _, err := funnel.Apply(sess, profile, domain.ActionGoalMuscleGain); err != nil {
			t.Fatal(err)
		}
	}

	if len(profile.Goals) != 1 {
		t.Errorf("expected 1 goal after repeats, got %d", len(profile.Goals))
	}
}

func TestApply_ExperienceLastWriteWins(t *testing.T) {
	profile := domain.NewUserProfile("visitor-1")

	sess := newSession(domain.StageQualification)
	if _, err := funnel.Apply(sess, profile, domain.ActionExperienceBeginner); err != nil {
		t.Fatal(err)
	}
	sess = newSession(domain.StageQualification)
	if _, err := funnel.Apply(sess, profile, domain.ActionExperienceAdvanced); err != nil {
		t.Fatal(err)
	}

	if profile.ExperienceLevel != domain.ExperienceAdvanced {
		t.Errorf("expected advanced, got %q", profile.ExperienceLevel)
	}
}

func TestApply_ContextMapsToEquipment(t *testing.T) {
	cases := []struct {
		action domain.Action
		want   domain.EquipmentAccess
	}{
		{domain.ActionContextGym, domain.EquipmentGym},
		{domain.ActionContextHome, domain.EquipmentHome},
		{domain.ActionContextNoRoutine, domain.EquipmentMinimal},
		{domain.ActionContextLimitedTime, domain.EquipmentTravel},
	}

	for _, tc := range cases {
		sess := newSession(domain.StageNeedsAssessment)
		profile := domain.NewUserProfile("visitor-1")

		if _, err := funnel.Apply(sess, profile, tc.action); err != nil {
			t.Fatalf("action %s: %v", tc.action, err)
		}
		if profile.EquipmentAccess != tc.want {
			t.Errorf("action %s: expected %q, got %q", tc.action, tc.want, profile.EquipmentAccess)
		}
	}
}

func TestApply_PurchaseIntentActions(t *testing.T) {
	sess := newSession(domain.StageRecommendation)
	profile := domain.NewUserProfile("visitor-1")

	outcome, err := funnel.Apply(sess, profile, domain.ActionAddToCart)
	if err != nil {
		t.Fatal(err)
	}
	if !outcome.PurchaseIntent {
		t.Error("expected add_to_cart to carry purchase intent")
	}
	if !profile.PurchaseIntent {
		t.Error("expected purchase intent persisted on profile")
	}

	sess = newSession(domain.StageConversion)
	outcome, err = funnel.Apply(sess, profile, domain.ActionCheckout)
	if err != nil {
		t.Fatal(err)
	}
	if !outcome.PurchaseIntent {
		t.Error("expected checkout to carry purchase intent")
	}
}

func TestApply_StageSixIsTerminal(t *testing.T) {
	sess := newSession(domain.StageConversion)
	profile := domain.NewUserProfile("visitor-1")

	if _, err := funnel.Apply(sess, profile, domain.ActionRemindLater); err != nil {
		t.Fatal(err)
	}
	if sess.Stage != domain.StageConversion {
		t.Errorf("expected stage to stay at 6, got %v", sess.Stage)
	}
}

func TestAdvanceTo_NeverBackward(t *testing.T) {
	sess := newSession(domain.StageRecommendation)

	funnel.AdvanceTo(sess, domain.StageQualification)
	if sess.Stage != domain.StageRecommendation {
		t.Errorf("expected stage unchanged on backward target, got %v", sess.Stage)
	}

	funnel.AdvanceTo(sess, domain.StageObjectionHandling)
	if sess.Stage != domain.StageObjectionHandling {
		t.Errorf("expected stage 5, got %v", sess.Stage)
	}

	funnel.AdvanceTo(sess, domain.Stage(0))
	if sess.Stage != domain.StageObjectionHandling {
		t.Errorf("expected invalid target ignored, got %v", sess.Stage)
	}
}

func TestStartOver_KeepsProfileClearsTranscript(t *testing.T) {
	sess := newSession(domain.StageConversion)
	sess.Append(domain.RoleUser, "m1", "hello")
	sess.Append(domain.RoleAssistant, "m2", "hi!")

	funnel.StartOver(sess)

	if sess.Stage != domain.StageWelcome {
		t.Errorf("expected stage 1, got %v", sess.Stage)
	}
	if len(sess.Messages) != 0 {
		t.Errorf("expected empty transcript, got %d messages", len(sess.Messages))
	}
	if len(sess.QuickReplies) != 4 {
		t.Errorf("expected welcome button set, got %d", len(sess.QuickReplies))
	}
}

func TestQuickRepliesFor_AllowListOrder(t *testing.T) {
	replies := funnel.QuickRepliesFor(domain.StageWelcome)

	want := []domain.Action{
		domain.ActionGoalWeightLoss,
		domain.ActionGoalMuscleGain,
		domain.ActionGoalNutrition,
		domain.ActionGoalGeneralFitness,
	}
	if len(replies) != len(want) {
		t.Fatalf("expected %d replies, got %d", len(want), len(replies))
	}
	for i, r := range replies {
		if r.Action != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], r.Action)
		}
		if r.Label == "" {
			t.Errorf("action %s: expected a label", r.Action)
		}
	}
}

func TestValidAction_PerStage(t *testing.T) {
	if !funnel.ValidAction(domain.StageConversion, domain.ActionCheckout) {
		t.Error("expected checkout valid at stage 6")
	}
	if funnel.ValidAction(domain.StageWelcome, domain.ActionPaymentOptions) {
		t.Error("expected payment_options invalid at stage 1")
	}
}
