package domain

import "time"

// Fixed vocabularies for profile attributes. The chat widgets only ever
// send these values; anything else is rejected at the stage machine.

// Goal is a fitness goal from the fixed vocabulary.
type Goal string

const (
	GoalWeightLoss     Goal = "weight_loss"
	GoalMuscleGain     Goal = "muscle_gain"
	GoalNutrition      Goal = "nutrition"
	GoalGeneralFitness Goal = "general_fitness"
)

// ExperienceLevel — at most one value, last-write-wins.
type ExperienceLevel string

const (
	ExperienceBeginner     ExperienceLevel = "beginner"
	ExperienceIntermediate ExperienceLevel = "intermediate"
	ExperienceAdvanced     ExperienceLevel = "advanced"
)

// EquipmentAccess describes the prospect's workout context.
type EquipmentAccess string

const (
	EquipmentHome    EquipmentAccess = "home"
	EquipmentGym     EquipmentAccess = "gym"
	EquipmentMinimal EquipmentAccess = "minimal"
	EquipmentTravel  EquipmentAccess = "travel"
)

// BudgetTier buckets the prospect's willingness to spend.
type BudgetTier string

const (
	BudgetLow    BudgetTier = "low"
	BudgetMedium BudgetTier = "medium"
	BudgetHigh   BudgetTier = "high"
)

// FocusArea is the prospect's preferred coaching focus.
type FocusArea string

const (
	FocusNutrition FocusArea = "nutrition"
	FocusTraining  FocusArea = "training"
	FocusBoth      FocusArea = "both"
)

// PersonalInfo holds contact details. Optional until a lead is captured,
// at which point Email becomes required.
type PersonalInfo struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	Name  string `json:"name,omitempty"`
}

// ProgramView counts how often a program was viewed and when last.
type ProgramView struct {
	Count    int       `json:"count"`
	LastSeen time.Time `json:"last_seen"`
}

// ProfileAnalytics are interaction counters. They only tie-break
// recommendations and feed the admin dashboard — never gate correctness.
type ProfileAnalytics struct {
	MessageCount  int                    `json:"message_count"`
	QuestionCount int                    `json:"question_count"`
	ButtonClicks  int                    `json:"button_clicks"`
	ProgramViews  map[string]ProgramView `json:"program_views,omitempty"`
}

// UserProfile is the long-lived, per-visitor record accumulated across
// sessions. Created empty on first interaction, mutated incrementally by
// every user action, and only cleared by an explicit preferences reset.
type UserProfile struct {
	VisitorID          string           `json:"visitor_id"`
	Goals              []Goal           `json:"goals,omitempty"`
	ExperienceLevel    ExperienceLevel  `json:"experience_level,omitempty"`
	EquipmentAccess    EquipmentAccess  `json:"equipment_access,omitempty"`
	BudgetTier         BudgetTier       `json:"budget_tier,omitempty"`
	PreferredFocus     FocusArea        `json:"preferred_focus,omitempty"`
	InterestedPrograms []string         `json:"interested_programs,omitempty"`
	ViewedPrograms     []string         `json:"viewed_programs,omitempty"`
	PersonalInfo       *PersonalInfo    `json:"personal_info,omitempty"`
	Analytics          ProfileAnalytics `json:"analytics"`
	PurchaseIntent     bool             `json:"purchase_intent,omitempty"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// NewUserProfile creates an empty profile for a visitor.
func NewUserProfile(visitorID string) *UserProfile {
	return &UserProfile{
		VisitorID: visitorID,
		UpdatedAt: time.Now(),
	}
}

// AddGoal appends a goal if it is not already recorded (deduplicated set,
// insertion order irrelevant).
func (p *UserProfile) AddGoal(g Goal) {
	for _, existing := range p.Goals {
		if existing == g {
			return
		}
	}
	p.Goals = append(p.Goals, g)
	p.UpdatedAt = time.Now()
}

// HasGoal reports whether the profile contains the given goal.
func (p *UserProfile) HasGoal(g Goal) bool {
	for _, existing := range p.Goals {
		if existing == g {
			return true
		}
	}
	return false
}

// MarkProgramViewed bumps the view counter for a program and records it in
// the viewed set.
func (p *UserProfile) MarkProgramViewed(programID string, at time.Time) {
	if p.Analytics.ProgramViews == nil {
		p.Analytics.ProgramViews = make(map[string]ProgramView)
	}
	v := p.Analytics.ProgramViews[programID]
	v.Count++
	v.LastSeen = at
	p.Analytics.ProgramViews[programID] = v

	for _, id := range p.ViewedPrograms {
		if id == programID {
			return
		}
	}
	p.ViewedPrograms = append(p.ViewedPrograms, programID)
}

// MarkProgramInterest records explicit interest in a program (deduplicated).
func (p *UserProfile) MarkProgramInterest(programID string) {
	for _, id := range p.InterestedPrograms {
		if id == programID {
			return
		}
	}
	p.InterestedPrograms = append(p.InterestedPrograms, programID)
	p.UpdatedAt = time.Now()
}

// HasContactInfo reports whether the visitor already left an email.
func (p *UserProfile) HasContactInfo() bool {
	return p.PersonalInfo != nil && p.PersonalInfo.Email != ""
}
