package bid

import (
	"math"

	"github.com/taxdeedflow/comps-cli/internal/model"
)

// ValidateInput reports every problem with a bid input, in field order. An
// empty result means the input can be calculated.
func ValidateInput(in model.BidRecommendationInput) model.ValidationErrors {
	var errs model.ValidationErrors
	add := func(field, msg string) {
		errs = append(errs, model.ValidationError{Field: field, Message: msg})
	}

	required := func(field string, v *float64, positive bool) {
		switch {
		case v == nil:
			add(field, "is required")
		case !finite(*v):
			add(field, "must be a finite number")
		case positive && *v <= 0:
			add(field, "must be greater than 0")
		case !positive && *v < 0:
			add(field, "must be 0 or greater")
		}
	}
	optional := func(field string, v *float64, check func(float64) bool, msg string) {
		if v == nil {
			return
		}
		if !finite(*v) {
			add(field, "must be a finite number")
			return
		}
		if !check(*v) {
			add(field, msg)
		}
	}
	nonNegative := func(v float64) bool { return v >= 0 }
	unit := func(v float64) bool { return v >= 0 && v <= 1 }

	required("arv", in.ARV, true)
	required("rehab_cost", in.RehabCost, false)
	optional("closing_costs", in.ClosingCosts, nonNegative, "must be 0 or greater")
	optional("holding_costs", in.HoldingCosts, nonNegative, "must be 0 or greater")
	optional("target_roi", in.TargetROI, func(v float64) bool { return v > 0 }, "must be greater than 0")
	required("opening_bid", in.OpeningBid, true)
	optional("market_value", in.MarketValue, nonNegative, "must be 0 or greater")
	optional("assessed_value", in.AssessedValue, nonNegative, "must be 0 or greater")
	if in.ComparablesCount < 0 {
		add("comparables_count", "must be 0 or greater")
	}
	optional("data_quality_score", in.DataQualityScore, unit, "must be between 0 and 1")
	optional("risk_score", in.RiskScore, unit, "must be between 0 and 1")

	switch in.ARVConfidence {
	case "", model.ConfidenceHigh, model.ConfidenceMedium, model.ConfidenceLow:
	default:
		add("arv_confidence", "must be one of high, medium, low")
	}

	return errs
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
