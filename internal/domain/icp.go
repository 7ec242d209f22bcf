package domain

// Segment is the bucketed ICP outcome driving messaging intensity.
type Segment string

const (
	SegmentHot  Segment = "hot"
	SegmentWarm Segment = "warm"
	SegmentCold Segment = "cold"
)

// Product names from the coaching catalog. The recommendation tie-break
// in the scoring package picks exactly one of these.
const (
	ProductNutritionTraining = "Nutrition & Training"
	ProductSelfLedTraining   = "Self-Led Training"
	ProductNutritionOnly     = "Nutrition Only"
	ProductShredChallenge    = "SHRED Challenge"
)

// Demographics are optional enrichment attributes. Unknown fields simply
// contribute zero points — they never error.
type Demographics struct {
	Age    int     `json:"age,omitempty"`
	Gender string  `json:"gender,omitempty"` // "female", "male", or empty
	Income float64 `json:"income,omitempty"` // annual, same currency as pricing
}

// ICPResult is derived on demand from a UserProfile, never stored as a
// source of truth. Segment is a pure function of Score; Score is a pure
// function of whatever profile fields are present.
type ICPResult struct {
	Score              int     `json:"score"` // 0–100
	Segment            Segment `json:"segment"`
	RecommendedProduct string  `json:"recommended_product"`
}
