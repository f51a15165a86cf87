// Package bid turns an ARV and cost inputs into a three-tier bid range with
// confidence, ROI projection, and risk warnings.
package bid

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/taxdeedflow/comps-cli/internal/config"
)

// RecommendationVersion is stamped on every recommendation and folded into
// its ID, so a rule change yields new IDs.
const RecommendationVersion = "2.1.0"

// DefaultConfig returns the default bid tiers and warning thresholds.
func DefaultConfig() config.BidConfig {
	return config.BidConfig{
		ConservativeFactor:    0.85,
		AggressiveFactor:      1.10,
		DefaultTargetROI:      25,
		HighConfidence:        0.9,
		MediumConfidence:      0.7,
		LowConfidence:         0.5,
		RiskScoreThreshold:    0.5,
		RiskPenalty:           0.5,
		NearMaxPct:            0.10,
		MinComparables:        3,
		MinDataQuality:        0.5,
		MaxRehabRatio:         0.5,
		MarketDivergenceRatio: 1.5,
	}
}

// ValidateConfig checks that a BidConfig is internally consistent.
func ValidateConfig(c config.BidConfig) error {
	var errs []string

	if c.ConservativeFactor <= 0 || c.ConservativeFactor > 1 {
		errs = append(errs, "conservative_factor must be in (0, 1]")
	}
	if c.AggressiveFactor < 1 {
		errs = append(errs, "aggressive_factor must be >= 1")
	}
	if c.DefaultTargetROI <= 0 {
		errs = append(errs, "default_target_roi must be > 0")
	}
	if !(c.HighConfidence >= c.MediumConfidence && c.MediumConfidence >= c.LowConfidence && c.LowConfidence >= 0 && c.HighConfidence <= 1) {
		errs = append(errs, "confidence factors must satisfy 1 >= high >= medium >= low >= 0")
	}
	if c.RiskScoreThreshold < 0 || c.RiskScoreThreshold > 1 {
		errs = append(errs, "risk_score_threshold must be in [0, 1]")
	}
	if c.RiskPenalty < 0 || c.RiskPenalty > 1 {
		errs = append(errs, "risk_penalty must be in [0, 1]")
	}
	if c.NearMaxPct < 0 || c.NearMaxPct >= 1 {
		errs = append(errs, "near_max_pct must be in [0, 1)")
	}
	if c.MinComparables < 0 {
		errs = append(errs, "min_comparables must be >= 0")
	}
	if c.MinDataQuality < 0 || c.MinDataQuality > 1 {
		errs = append(errs, "min_data_quality must be in [0, 1]")
	}
	if c.MaxRehabRatio <= 0 {
		errs = append(errs, "max_rehab_ratio must be > 0")
	}
	if c.MarketDivergenceRatio <= 1 {
		errs = append(errs, "market_divergence_ratio must be > 1")
	}

	if len(errs) > 0 {
		return eris.Errorf("bid: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
