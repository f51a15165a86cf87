package model

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Severity ranks a risk warning. Higher values are more severe, so the
// integer value is directly usable as a sort key.
type Severity int

const (
	SeverityLow Severity = iota + 1
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ParseSeverity converts a label back into a Severity.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return SeverityLow, nil
	case "medium":
		return SeverityMedium, nil
	case "high":
		return SeverityHigh, nil
	case "critical":
		return SeverityCritical, nil
	}
	return 0, eris.Errorf("model: unknown severity %q", s)
}

// MarshalText encodes the severity as its label.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a severity label.
func (s *Severity) UnmarshalText(b []byte) error {
	v, err := ParseSeverity(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// RiskWarning is a rule-generated caution attached to a recommendation.
type RiskWarning struct {
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// BidRecommendationInput carries everything the bid engine needs. Numeric
// fields are pointers: nil means missing, NaN or Inf means non-numeric.
type BidRecommendationInput struct {
	PropertyID       string          `json:"property_id" yaml:"property_id"`
	ARV              *float64        `json:"arv" yaml:"arv"`
	ARVConfidence    ConfidenceLevel `json:"arv_confidence,omitempty" yaml:"arv_confidence,omitempty"`
	ARVMethod        string          `json:"arv_method,omitempty" yaml:"arv_method,omitempty"`
	RehabCost        *float64        `json:"rehab_cost" yaml:"rehab_cost"`
	ClosingCosts     *float64        `json:"closing_costs,omitempty" yaml:"closing_costs,omitempty"`
	HoldingCosts     *float64        `json:"holding_costs,omitempty" yaml:"holding_costs,omitempty"`
	TargetROI        *float64        `json:"target_roi,omitempty" yaml:"target_roi,omitempty"`
	OpeningBid       *float64        `json:"opening_bid" yaml:"opening_bid"`
	MarketValue      *float64        `json:"market_value,omitempty" yaml:"market_value,omitempty"`
	AssessedValue    *float64        `json:"assessed_value,omitempty" yaml:"assessed_value,omitempty"`
	ComparablesCount int             `json:"comparables_count" yaml:"comparables_count"`
	DataQualityScore *float64        `json:"data_quality_score,omitempty" yaml:"data_quality_score,omitempty"`
	RiskScore        *float64        `json:"risk_score,omitempty" yaml:"risk_score,omitempty"`
}

// BidRange holds the three bid tiers.
type BidRange struct {
	Conservative float64 `json:"conservative"`
	Moderate     float64 `json:"moderate"`
	Aggressive   float64 `json:"aggressive"`
}

// CostBreakdown itemizes the investment base.
type CostBreakdown struct {
	Rehab   float64 `json:"rehab"`
	Closing float64 `json:"closing"`
	Holding float64 `json:"holding"`
	Total   float64 `json:"total"`
}

// CalculationBasis echoes the arithmetic inputs behind a recommendation so
// that it can be explained from its own payload.
type CalculationBasis struct {
	ARV              float64         `json:"arv"`
	RehabCost        float64         `json:"rehab_cost"`
	ClosingCosts     float64         `json:"closing_costs"`
	HoldingCosts     float64         `json:"holding_costs"`
	TargetROI        float64         `json:"target_roi"`
	TotalInvestment  float64         `json:"total_investment"`
	MaxBid           float64         `json:"max_bid"`
	ARVMethod        string          `json:"arv_method"`
	ARVConfidence    ConfidenceLevel `json:"arv_confidence"`
	ComparablesCount int             `json:"comparables_count"`
}

// BidRecommendation is the engine output for one property.
type BidRecommendation struct {
	ID                    string           `json:"id"`
	PropertyID            string           `json:"property_id"`
	BidRange              BidRange         `json:"bid_range"`
	ConfidenceLevel       float64          `json:"confidence_level"`
	ROIProjection         *float64         `json:"roi_projection"`
	RiskWarnings          []RiskWarning    `json:"risk_warnings"`
	RiskScore             *float64         `json:"risk_score"`
	CalculationBasis      CalculationBasis `json:"calculation_basis"`
	ARVEstimate           float64          `json:"arv_estimate"`
	CostBreakdown         CostBreakdown    `json:"cost_breakdown"`
	ExceedsMaxBid         bool             `json:"exceeds_max_bid"`
	RecommendationVersion string           `json:"recommendation_version"`
	DataQualityScore      *float64         `json:"data_quality_score"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
}

// HighestSeverity returns the most severe warning level, or 0 when there
// are no warnings.
func (r *BidRecommendation) HighestSeverity() Severity {
	var top Severity
	for _, w := range r.RiskWarnings {
		if w.Severity > top {
			top = w.Severity
		}
	}
	return top
}
