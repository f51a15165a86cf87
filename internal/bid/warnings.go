package bid

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/taxdeedflow/comps-cli/internal/model"
)

// Warning codes.
const (
	CodeExceedsMaxBid    = "EXCEEDS_MAX_BID"
	CodeDoesNotPencil    = "DOES_NOT_PENCIL"
	CodeNearMaxBid       = "NEAR_MAX_BID"
	CodeFewComparables   = "FEW_COMPARABLES"
	CodeLowDataQuality   = "LOW_DATA_QUALITY"
	CodeLowARVConfidence = "LOW_ARV_CONFIDENCE"
	CodeHighRiskScore    = "HIGH_RISK_SCORE"
	CodeHighRehabRatio   = "HIGH_REHAB_RATIO"
	CodeARVAboveMarket   = "ARV_ABOVE_MARKET_VALUE"
	CodeARVAboveAssessed = "ARV_ABOVE_ASSESSED_VALUE"
)

// warnings evaluates the threshold rules in a fixed order, then stable-sorts
// by severity so the most severe come first.
func (e *Engine) warnings(in model.BidRecommendationInput, rec *model.BidRecommendation, maxBid float64) []model.RiskWarning {
	out := []model.RiskWarning{}
	add := func(code string, sev model.Severity, format string, args ...any) {
		out = append(out, model.RiskWarning{Code: code, Severity: sev, Message: fmt.Sprintf(format, args...)})
	}

	arv := *in.ARV
	opening := *in.OpeningBid
	aggressive := rec.BidRange.Aggressive

	if rec.ExceedsMaxBid {
		add(CodeExceedsMaxBid, model.SeverityCritical,
			"Opening bid $%.2f exceeds the aggressive bid ceiling of $%.2f", opening, aggressive)
	}
	if maxBid <= 0 {
		add(CodeDoesNotPencil, model.SeverityCritical,
			"Deal does not pencil: costs of $%.2f leave no room under the %.0f%% ROI target", rec.CostBreakdown.Total, rec.CalculationBasis.TargetROI)
	}
	if !rec.ExceedsMaxBid && aggressive > 0 && opening >= aggressive*(1-e.cfg.NearMaxPct) {
		add(CodeNearMaxBid, model.SeverityMedium,
			"Opening bid $%.2f is within %.0f%% of the aggressive bid $%.2f", opening, e.cfg.NearMaxPct*100, aggressive)
	}
	if in.ComparablesCount < e.cfg.MinComparables {
		add(CodeFewComparables, model.SeverityHigh,
			"Only %d comparable sales support the ARV (minimum %d)", in.ComparablesCount, e.cfg.MinComparables)
	}
	if in.DataQualityScore != nil && *in.DataQualityScore < e.cfg.MinDataQuality {
		add(CodeLowDataQuality, model.SeverityMedium,
			"Data quality score %.2f is below %.2f", *in.DataQualityScore, e.cfg.MinDataQuality)
	}
	if arvConfidence(in.ARVConfidence) == model.ConfidenceLow {
		add(CodeLowARVConfidence, model.SeverityMedium, "ARV confidence is low")
	}
	if in.RiskScore != nil && *in.RiskScore < e.cfg.RiskScoreThreshold {
		add(CodeHighRiskScore, model.SeverityHigh,
			"Risk score %.2f is below the %.2f threshold", *in.RiskScore, e.cfg.RiskScoreThreshold)
	}
	if rehab := *in.RehabCost; rehab > arv*e.cfg.MaxRehabRatio {
		add(CodeHighRehabRatio, model.SeverityHigh,
			"Rehab cost $%.2f is more than %.0f%% of ARV", rehab, e.cfg.MaxRehabRatio*100)
	}
	if mv := in.MarketValue; mv != nil && *mv > 0 && arv > *mv*e.cfg.MarketDivergenceRatio {
		add(CodeARVAboveMarket, model.SeverityMedium,
			"ARV $%.2f is more than %.1fx the market value $%.2f", arv, e.cfg.MarketDivergenceRatio, *mv)
	}
	if av := in.AssessedValue; av != nil && *av > 0 && arv > *av*e.cfg.MarketDivergenceRatio {
		add(CodeARVAboveAssessed, model.SeverityMedium,
			"ARV $%.2f is more than %.1fx the assessed value $%.2f", arv, e.cfg.MarketDivergenceRatio, *av)
	}

	slices.SortStableFunc(out, func(a, b model.RiskWarning) int {
		return cmp.Compare(b.Severity, a.Severity)
	})
	return out
}
