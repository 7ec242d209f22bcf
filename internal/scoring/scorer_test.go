package scoring_test

import (
	"testing"

	"github.com/fitcoachhq/lead-funnel-go/internal/domain"
	"github.com/fitcoachhq/lead-funnel-go/internal/scoring"
)

func TestScore_IdealProfileHitsExactly100(t *testing.T) {
	profile := &domain.UserProfile{
		Goals:           []domain.Goal{domain.GoalWeightLoss},
		ExperienceLevel: domain.ExperienceBeginner,
		PreferredFocus:  domain.FocusBoth,
		BudgetTier:      domain.BudgetHigh,
	}
	demo := &domain.Demographics{Age: 35, Gender: "female", Income: 60000}

	result := scoring.Score(profile, demo)

	// 15 + 10 + 15 + 20 + 10 + 15 + 15 = 100
	if result.Score != 100 {
		t.Errorf("expected score 100, got %d", result.Score)
	}
	if result.Segment != domain.SegmentHot {
		t.Errorf("expected segment hot, got %s", result.Segment)
	}
	if result.RecommendedProduct != domain.ProductNutritionTraining {
		t.Errorf("expected %q, got %q", domain.ProductNutritionTraining, result.RecommendedProduct)
	}
}

func TestScore_SparseProfileIsCold(t *testing.T) {
	profile := &domain.UserProfile{
		Goals:           []domain.Goal{},
		ExperienceLevel: domain.ExperienceAdvanced,
		PreferredFocus:  domain.FocusTraining,
		BudgetTier:      domain.BudgetLow,
	}

	result := scoring.Score(profile, nil)

	// 0 + 0 + 0 + 10 + 7 + 8 + 5 = 30
	if result.Score != 30 {
		t.Errorf("expected score 30, got %d", result.Score)
	}
	if result.Segment != domain.SegmentCold {
		t.Errorf("expected segment cold, got %s", result.Segment)
	}
	if result.RecommendedProduct != domain.ProductShredChallenge {
		t.Errorf("expected %q, got %q", domain.ProductShredChallenge, result.RecommendedProduct)
	}
}

func TestScore_NilInputsDoNotPanic(t *testing.T) {
	result := scoring.Score(nil, nil)

	if result.Score != 0 {
		t.Errorf("expected score 0 for nil profile, got %d", result.Score)
	}
	if result.Segment != domain.SegmentCold {
		t.Errorf("expected segment cold, got %s", result.Segment)
	}
	if result.RecommendedProduct == "" {
		t.Error("expected a product recommendation even for nil profile")
	}
}

func TestScore_BoundsHoldForAllInputs(t *testing.T) {
	profiles := []*domain.UserProfile{
		nil,
		{},
		{
			Goals: []domain.Goal{
				domain.GoalWeightLoss, domain.GoalMuscleGain,
				domain.GoalNutrition, domain.GoalGeneralFitness,
			},
			ExperienceLevel: domain.ExperienceBeginner,
			PreferredFocus:  domain.FocusBoth,
			BudgetTier:      domain.BudgetHigh,
		},
	}
	demos := []*domain.Demographics{
		nil,
		{},
		{Age: 37, Gender: "female", Income: 1000000},
		{Age: 99, Gender: "other", Income: 1},
	}

	for _, p := range profiles {
		for _, d := range demos {
			result := scoring.Score(p, d)
			if result.Score < 0 || result.Score > 100 {
				t.Errorf("score out of bounds: %d (profile=%+v demo=%+v)", result.Score, p, d)
			}
		}
	}
}

func TestScore_MonotonicInAddedFactors(t *testing.T) {
	base := &domain.UserProfile{
		Goals:      []domain.Goal{domain.GoalMuscleGain},
		BudgetTier: domain.BudgetMedium,
	}
	baseScore := scoring.Score(base, nil).Score

	richer := &domain.UserProfile{
		Goals:           base.Goals,
		BudgetTier:      base.BudgetTier,
		PreferredFocus:  domain.FocusBoth,
		ExperienceLevel: domain.ExperienceIntermediate,
	}
	richerScore := scoring.Score(richer, nil).Score

	if richerScore < baseScore {
		t.Errorf("adding factors decreased score: %d -> %d", baseScore, richerScore)
	}
}

func TestSegmentFor_Boundaries(t *testing.T) {
	cases := []struct {
		score int
		want  domain.Segment
	}{
		{0, domain.SegmentCold},
		{39, domain.SegmentCold},
		{40, domain.SegmentWarm},
		{69, domain.SegmentWarm},
		{70, domain.SegmentHot},
		{100, domain.SegmentHot},
	}
	for _, c := range cases {
		if got := scoring.SegmentFor(c.score); got != c.want {
			t.Errorf("SegmentFor(%d) = %s, want %s", c.score, got, c.want)
		}
	}
}

func TestSegmentFor_TotalOverRange(t *testing.T) {
	for score := 0; score <= 100; score++ {
		seg := scoring.SegmentFor(score)
		if seg != domain.SegmentHot && seg != domain.SegmentWarm && seg != domain.SegmentCold {
			t.Fatalf("SegmentFor(%d) returned unknown segment %q", score, seg)
		}
	}
}

func TestScore_RecommendationIsDeterministic(t *testing.T) {
	profile := &domain.UserProfile{
		Goals:           []domain.Goal{domain.GoalGeneralFitness},
		ExperienceLevel: domain.ExperienceBeginner,
		PreferredFocus:  domain.FocusTraining,
		BudgetTier:      domain.BudgetMedium,
	}
	demo := &domain.Demographics{Age: 28, Gender: "male", Income: 45000}

	first := scoring.Score(profile, demo)
	second := scoring.Score(profile, demo)

	if first != second {
		t.Errorf("same inputs gave different results: %+v vs %+v", first, second)
	}
}

func TestScore_WarmTieBreakOrder(t *testing.T) {
	// Warm + training focus → Self-Led Training (rule 2 before rule 3).
	training := &domain.UserProfile{
		Goals:           []domain.Goal{domain.GoalMuscleGain},
		ExperienceLevel: domain.ExperienceIntermediate,
		PreferredFocus:  domain.FocusTraining,
		BudgetTier:      domain.BudgetMedium,
	}
	// 0+0+0+15+10+8+10 = 43 → warm
	got := scoring.Score(training, nil)
	if got.Segment != domain.SegmentWarm {
		t.Fatalf("expected warm, got %s (score %d)", got.Segment, got.Score)
	}
	if got.RecommendedProduct != domain.ProductSelfLedTraining {
		t.Errorf("expected %q, got %q", domain.ProductSelfLedTraining, got.RecommendedProduct)
	}

	// Warm + nutrition focus (not beginner) → Nutrition Only.
	nutrition := &domain.UserProfile{
		Goals:           []domain.Goal{domain.GoalMuscleGain},
		ExperienceLevel: domain.ExperienceIntermediate,
		PreferredFocus:  domain.FocusNutrition,
		BudgetTier:      domain.BudgetMedium,
	}
	// 0+0+0+15+10+12+10 = 47 → warm
	got = scoring.Score(nutrition, nil)
	if got.Segment != domain.SegmentWarm {
		t.Fatalf("expected warm, got %s (score %d)", got.Segment, got.Score)
	}
	if got.RecommendedProduct != domain.ProductNutritionOnly {
		t.Errorf("expected %q, got %q", domain.ProductNutritionOnly, got.RecommendedProduct)
	}

	// Warm beginner takes rule 2 even with nutrition focus.
	beginner := &domain.UserProfile{
		Goals:           []domain.Goal{domain.GoalMuscleGain},
		ExperienceLevel: domain.ExperienceBeginner,
		PreferredFocus:  domain.FocusNutrition,
		BudgetTier:      domain.BudgetMedium,
	}
	got = scoring.Score(beginner, nil)
	if got.Segment != domain.SegmentWarm {
		t.Fatalf("expected warm, got %s (score %d)", got.Segment, got.Score)
	}
	if got.RecommendedProduct != domain.ProductSelfLedTraining {
		t.Errorf("beginner should hit rule 2 first: expected %q, got %q",
			domain.ProductSelfLedTraining, got.RecommendedProduct)
	}
}

func TestScore_HotWithoutWeightLossOrBothFocus(t *testing.T) {
	// Hot but focus=training and no weight_loss goal → falls through to
	// the SHRED Challenge default.
	profile := &domain.UserProfile{
		Goals:           []domain.Goal{domain.GoalMuscleGain},
		ExperienceLevel: domain.ExperienceBeginner,
		PreferredFocus:  domain.FocusTraining,
		BudgetTier:      domain.BudgetHigh,
	}
	demo := &domain.Demographics{Age: 35, Gender: "female", Income: 60000}

	// 15+10+15+15+10+8+15 = 88 → hot
	got := scoring.Score(profile, demo)
	if got.Segment != domain.SegmentHot {
		t.Fatalf("expected hot, got %s (score %d)", got.Segment, got.Score)
	}
	if got.RecommendedProduct != domain.ProductShredChallenge {
		t.Errorf("expected %q, got %q", domain.ProductShredChallenge, got.RecommendedProduct)
	}
}
