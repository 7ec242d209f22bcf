package domain

import "time"

// CaptureRequest is what the widget submits when a visitor leaves contact
// info. Email is the upsert key; everything else is optional.
type CaptureRequest struct {
	Email          string         `json:"email"`
	Phone          string         `json:"phone,omitempty"`
	FirstName      string         `json:"first_name,omitempty"`
	LastName       string         `json:"last_name,omitempty"`
	VisitorID      string         `json:"visitor_id,omitempty"`
	PreferredFocus FocusArea      `json:"preferred_focus,omitempty"`
	BudgetTier     BudgetTier     `json:"budget_tier,omitempty"`
	PurchaseIntent bool           `json:"purchase_intent,omitempty"`
	SocialData     map[string]any `json:"social_data,omitempty"`
	Demographics   *Demographics  `json:"demographics,omitempty"`
}

// LeadRecord is the persisted prospect row. Keyed by email with upsert
// semantics — a repeat submission updates, never duplicates.
type LeadRecord struct {
	ID                 string          `json:"id,omitempty"`
	Email              string          `json:"email"`
	Phone              string          `json:"phone,omitempty"`
	FirstName          string          `json:"first_name,omitempty"`
	LastName           string          `json:"last_name,omitempty"`
	ICPScore           int             `json:"icp_score"`
	Segment            Segment         `json:"segment"`
	RecommendedProduct string          `json:"recommended_product"`
	FitnessGoals       []Goal          `json:"fitness_goals,omitempty"`
	ExperienceLevel    ExperienceLevel `json:"experience_level,omitempty"`
	PurchaseIntent     bool            `json:"purchase_intent"`
	SocialData         map[string]any  `json:"social_data,omitempty"`
	CreatedAt          time.Time       `json:"created_at,omitempty"`
	UpdatedAt          time.Time       `json:"updated_at,omitempty"`
}

// CaptureResult is returned to the caller of the lead gateway. EmailSent
// is informational: a failed email never fails the capture.
type CaptureResult struct {
	Lead      *LeadRecord `json:"lead"`
	EmailSent bool        `json:"email_sent"`
}

// Followup is the scheduled follow-up entry recorded alongside each
// segment email (24h/48h/72h after send).
type Followup struct {
	LeadEmail string    `json:"lead_email"`
	Segment   Segment   `json:"segment"`
	DueAt     time.Time `json:"due_at"`
	Template  string    `json:"template"`
}
