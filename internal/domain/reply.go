package domain

// ReplyType discriminates the structured reply variants the widgets know
// how to render. Each type carries only its relevant payload — the zero
// Data fields stay nil.
type ReplyType string

const (
	ReplyText           ReplyType = "text"
	ReplyProgramList    ReplyType = "program_list"
	ReplyRecommendation ReplyType = "recommendation"
	ReplyNutritionGuide ReplyType = "nutrition_guide"
	ReplyLeadCapture    ReplyType = "lead_capture"
	ReplyWorkoutInfo    ReplyType = "workout_info"
)

// Program is one catalog entry shown in a program list reply.
type Program struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Period      string  `json:"period"` // "month", "one_time"
	Description string  `json:"description,omitempty"`
}

// Recommendation is the payload for a recommendation reply.
type Recommendation struct {
	Product string  `json:"product"`
	Score   int     `json:"score"`
	Segment Segment `json:"segment"`
	Reason  string  `json:"reason,omitempty"`
}

// NutritionGuide is the payload for a nutrition guide reply.
type NutritionGuide struct {
	Headline string   `json:"headline"`
	Tips     []string `json:"tips,omitempty"`
}

// WorkoutInfo is the payload for a workout info reply.
type WorkoutInfo struct {
	Context   EquipmentAccess `json:"context,omitempty"`
	Frequency string          `json:"frequency,omitempty"`
	Summary   string          `json:"summary"`
}

// ReplyData groups the optional typed payloads of a structured reply.
// Exactly zero or one of these is set, matching Type.
type ReplyData struct {
	Programs       []Program       `json:"programs,omitempty"`
	Recommendation *Recommendation `json:"recommendation,omitempty"`
	Nutrition      *NutritionGuide `json:"nutrition,omitempty"`
	Workout        *WorkoutInfo    `json:"workout,omitempty"`
}

// StructuredReply is what every turn of the conversation produces, whether
// it came from the cached library, the provider, or a fallback.
type StructuredReply struct {
	Message      string       `json:"message"`
	Type         ReplyType    `json:"type"`
	Data         *ReplyData   `json:"data,omitempty"`
	QuickReplies []QuickReply `json:"quick_replies,omitempty"`
}
