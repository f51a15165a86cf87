package model

import "time"

// Grade is a letter grade assigned to a scored comparable.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// Points maps a grade to a 0-4 scale for averaging (A=4 ... F=0).
func (g Grade) Points() float64 {
	switch g {
	case GradeA:
		return 4
	case GradeB:
		return 3
	case GradeC:
		return 2
	case GradeD:
		return 1
	default:
		return 0
	}
}

// ConfidenceLevel is the categorical confidence of an ARV estimate.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// ARV aggregation methods recorded on the result.
const (
	ARVMethodQualified             = "qualified"
	ARVMethodQualifiedPlusExtended = "qualified_plus_extended"
	ARVMethodNone                  = "none"
)

// Adjustment is one signed dollar adjustment applied to a comparable's price.
type Adjustment struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// MatchDetails records the raw deltas between subject and comparable.
// A nil field means one side did not carry the attribute.
type MatchDetails struct {
	SqftDelta      *float64 `json:"sqft_delta"`
	SqftDeltaPct   *float64 `json:"sqft_delta_pct"`
	LotSqftDelta   *float64 `json:"lot_sqft_delta"`
	YearBuiltDelta *int     `json:"year_built_delta"`
	BedroomDelta   *float64 `json:"bedroom_delta"`
	BathroomDelta  *float64 `json:"bathroom_delta"`
	DaysAgo        *int     `json:"days_ago"`
	DistanceMiles  *float64 `json:"distance_miles"`
	TypeMatch      *bool    `json:"type_match"`
}

// ScoredComparable is a Comparable annotated with its score, grade, and
// adjusted price. Values are created once per run and never mutated.
type ScoredComparable struct {
	Comparable
	CompScore       float64            `json:"comp_score"`
	CompGrade       Grade              `json:"comp_grade"`
	Adjustments     []Adjustment       `json:"adjustments"`
	AdjustedPrice   *float64           `json:"adjusted_price"`
	MatchDetails    MatchDetails       `json:"match_details"`
	ComponentScores map[string]float64 `json:"component_scores"`
	InputIndex      int                `json:"-"`
}

// TotalAdjustment sums the adjustment amounts.
func (s ScoredComparable) TotalAdjustment() float64 {
	var total float64
	for _, a := range s.Adjustments {
		total += a.Amount
	}
	return total
}

// RehabScope selects a row of the repair cost table.
type RehabScope string

const (
	RehabCosmetic RehabScope = "cosmetic"
	RehabLight    RehabScope = "light"
	RehabModerate RehabScope = "moderate"
	RehabHeavy    RehabScope = "heavy"
	RehabGut      RehabScope = "gut"
)

// RepairEstimate holds cosmetic and full-rehab estimates for a subject.
type RepairEstimate struct {
	Scope            RehabScope `json:"scope"`
	CosmeticPerSqft  float64    `json:"cosmetic_per_sqft"`
	CosmeticTotal    *float64   `json:"cosmetic_total"`
	FullRehabPerSqft float64    `json:"full_rehab_per_sqft"`
	FullRehabTotal   *float64   `json:"full_rehab_total"`
	SellingCosts     *float64   `json:"selling_costs"`
}

// SearchCriteria records the window actually applied to the candidate pool.
type SearchCriteria struct {
	RadiusMiles   float64   `json:"radius_miles"`
	DaysBack      int       `json:"days_back"`
	MaxCandidates int       `json:"max_candidates"`
	AsOf          time.Time `json:"as_of"`
	Expanded      bool      `json:"expanded"`
}

// CompAnalysisResult is the aggregate output of a comparables analysis.
type CompAnalysisResult struct {
	SubjectID        string             `json:"subject_id"`
	QualifiedComps   []ScoredComparable `json:"qualified_comps"`
	ExtendedComps    []ScoredComparable `json:"extended_comps"`
	RejectedCount    int                `json:"rejected_count"`
	ARV              *float64           `json:"arv"`
	ARVPerSqft       *float64           `json:"arv_per_sqft"`
	ARVLow           *float64           `json:"arv_low"`
	ARVHigh          *float64           `json:"arv_high"`
	ARVMethod        string             `json:"arv_method"`
	ConfidenceLevel  ConfidenceLevel    `json:"confidence_level"`
	MAO              *float64           `json:"mao"`
	MAOConservative  *float64           `json:"mao_conservative"`
	MAOAggressive    *float64           `json:"mao_aggressive"`
	RepairEstimate   RepairEstimate     `json:"repair_estimate"`
	SearchCriteria   SearchCriteria     `json:"search_criteria"`
	TotalDue         *float64           `json:"total_due,omitempty"`
	MAOBelowTotalDue bool               `json:"mao_below_total_due"`
}

// ComparablesUsed returns the number of comps that fed the ARV.
func (r *CompAnalysisResult) ComparablesUsed() int {
	switch r.ARVMethod {
	case ARVMethodQualified:
		return len(r.QualifiedComps)
	case ARVMethodQualifiedPlusExtended:
		return len(r.QualifiedComps) + len(r.ExtendedComps)
	default:
		return 0
	}
}
