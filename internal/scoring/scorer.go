// Package scoring implements the ICP (Ideal Customer Profile) rubric:
// a pure function from a visitor profile snapshot to a 0–100 score, a
// hot/warm/cold segment, and a recommended product.
package scoring

import "github.com/fitcoachhq/lead-funnel-go/internal/domain"

// Segment thresholds. Bands are inclusive on the lower bound, no gap,
// no overlap.
const (
	hotThreshold  = 70
	warmThreshold = 40
)

// Score computes the ICPResult for a profile plus optional demographics.
// It is deterministic and total: nil or missing inputs contribute zero
// points, they never error. The weighted maxima sum to exactly 100; the
// cap exists for safety only.
func Score(profile *domain.UserProfile, demo *domain.Demographics) domain.ICPResult {
	score := 0

	if demo != nil {
		score += agePoints(demo.Age)
		score += genderPoints(demo.Gender)
		score += incomePoints(demo.Income)
	}

	if profile != nil {
		score += goalPoints(profile.Goals)
		score += experiencePoints(profile.ExperienceLevel)
		score += focusPoints(profile.PreferredFocus)
		score += budgetPoints(profile.BudgetTier)
	}

	if score > 100 {
		score = 100
	}

	seg := SegmentFor(score)
	return domain.ICPResult{
		Score:              score,
		Segment:            seg,
		RecommendedProduct: recommendProduct(seg, profile),
	}
}

// SegmentFor maps a score to its segment. Pure and total over 0..100.
func SegmentFor(score int) domain.Segment {
	switch {
	case score >= hotThreshold:
		return domain.SegmentHot
	case score >= warmThreshold:
		return domain.SegmentWarm
	default:
		return domain.SegmentCold
	}
}

// Weighted factors. Each helper returns 0 when the input is unknown.

func agePoints(age int) int {
	switch {
	case age <= 0:
		return 0 // age unknown
	case age >= 30 && age <= 45:
		return 15
	case (age >= 25 && age <= 29) || (age >= 46 && age <= 50):
		return 10
	default:
		return 5
	}
}

func genderPoints(gender string) int {
	switch gender {
	case "female":
		return 10
	case "male":
		return 7
	default:
		return 0
	}
}

func incomePoints(income float64) int {
	switch {
	case income <= 0:
		return 0 // income unknown
	case income >= 50000:
		return 15
	case income >= 30000:
		return 10
	default:
		return 5
	}
}

// goalPoints scores the goals factor. weight_loss dominates; muscle_gain
// and general_fitness score 15; anything else, including an empty goal
// set, falls in the default 10-point bucket.
func goalPoints(goals []domain.Goal) int {
	best := 10
	for _, g := range goals {
		switch g {
		case domain.GoalWeightLoss:
			return 20
		case domain.GoalMuscleGain, domain.GoalGeneralFitness:
			if best < 15 {
				best = 15
			}
		}
	}
	return best
}

func experiencePoints(level domain.ExperienceLevel) int {
	switch level {
	case domain.ExperienceBeginner, domain.ExperienceIntermediate:
		return 10
	case domain.ExperienceAdvanced:
		return 7
	default:
		return 0
	}
}

func focusPoints(focus domain.FocusArea) int {
	switch focus {
	case domain.FocusBoth:
		return 15
	case domain.FocusNutrition:
		return 12
	case domain.FocusTraining:
		return 8
	default:
		return 0
	}
}

func budgetPoints(tier domain.BudgetTier) int {
	switch tier {
	case domain.BudgetHigh:
		return 15
	case domain.BudgetMedium:
		return 10
	case domain.BudgetLow:
		return 5
	default:
		return 0
	}
}

// recommendProduct applies the tie-break rules in order; the first match
// wins. All cold profiles, and any hot/warm profile not matched earlier,
// land on the SHRED Challenge.
func recommendProduct(seg domain.Segment, profile *domain.UserProfile) string {
	var (
		focus      domain.FocusArea
		level      domain.ExperienceLevel
		weightLoss bool
	)
	if profile != nil {
		focus = profile.PreferredFocus
		level = profile.ExperienceLevel
		weightLoss = profile.HasGoal(domain.GoalWeightLoss)
	}

	switch {
	case seg == domain.SegmentHot && (focus == domain.FocusBoth || weightLoss):
		return domain.ProductNutritionTraining
	case seg == domain.SegmentWarm && (focus == domain.FocusTraining || level == domain.ExperienceBeginner):
		return domain.ProductSelfLedTraining
	case seg == domain.SegmentWarm && focus == domain.FocusNutrition:
		return domain.ProductNutritionOnly
	default:
		return domain.ProductShredChallenge
	}
}
