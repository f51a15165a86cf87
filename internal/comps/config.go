// Package comps grades comparable sales against a subject property and
// aggregates them into an after-repair value.
package comps

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/taxdeedflow/comps-cli/internal/config"
)

// DefaultCompConfig returns a config.CompConfig with sensible defaults.
// Weights sum to 100.
func DefaultCompConfig() config.CompConfig {
	return config.CompConfig{
		// Weights (sum = 100). Type carries enough weight that a mismatch
		// alone drops an otherwise perfect comp out of the qualified grades.
		DistanceWeight:     20,
		RecencyWeight:      15,
		SizeWeight:         20,
		TypeWeight:         35,
		CompletenessWeight: 10,

		DistanceThresholdMiles: 0.5,
		DistanceFalloffMiles:   2.5,
		RecencyWindowDays:      180,
		RecencyFalloffDays:     365,

		GradeA: 85,
		GradeB: 70,
		GradeC: 55,
		GradeD: 40,

		LotRatePerSqft:      2,
		BedroomValue:        5_000,
		BathroomValue:       3_500,
		AgeRatePerYear:      500,
		AgeAdjustmentCap:    15_000,
		MarketTrendPerMonth: 0,
		TypeMismatchPct:     0.10,

		DefaultRadiusMiles:   1.0,
		DefaultDaysBack:      180,
		DefaultMaxCandidates: 25,
		MinQualified:         3,
		HighConfidenceMin:    5,
		ExpandSearch:         true,
		ExpansionFactor:      2,
	}
}

// WeightSum returns the sum of all component weights.
func WeightSum(c config.CompConfig) float64 {
	return c.DistanceWeight + c.RecencyWeight + c.SizeWeight +
		c.TypeWeight + c.CompletenessWeight
}

// ValidateConfig checks that a CompConfig is internally consistent.
func ValidateConfig(c config.CompConfig) error {
	var errs []string

	weights := []struct {
		name string
		w    float64
	}{
		{"distance_weight", c.DistanceWeight},
		{"recency_weight", c.RecencyWeight},
		{"size_weight", c.SizeWeight},
		{"type_weight", c.TypeWeight},
		{"completeness_weight", c.CompletenessWeight},
	}
	for _, w := range weights {
		if w.w < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", w.name))
		}
	}

	sum := WeightSum(c)
	if sum <= 0 {
		errs = append(errs, "weight sum must be > 0")
	}
	if math.Abs(sum-100) > 1 {
		errs = append(errs, fmt.Sprintf("weights should sum to 100, got %.1f", sum))
	}

	// Grades.
	if !(c.GradeA > c.GradeB && c.GradeB > c.GradeC && c.GradeC > c.GradeD && c.GradeD >= 0) {
		errs = append(errs, "grade thresholds must satisfy grade_a > grade_b > grade_c > grade_d >= 0")
	}
	if c.GradeA > 100 {
		errs = append(errs, "grade_a must be <= 100")
	}

	// Decay.
	if c.DistanceThresholdMiles < 0 || c.DistanceFalloffMiles <= 0 {
		errs = append(errs, "distance_threshold_miles must be >= 0 and distance_falloff_miles > 0")
	}
	if c.RecencyWindowDays < 0 || c.RecencyFalloffDays <= 0 {
		errs = append(errs, "recency_window_days must be >= 0 and recency_falloff_days > 0")
	}

	// Adjustments.
	if c.AgeAdjustmentCap < 0 {
		errs = append(errs, "age_adjustment_cap must be >= 0")
	}
	if c.TypeMismatchPct < 0 || c.TypeMismatchPct >= 1 {
		errs = append(errs, "type_mismatch_pct must be in [0, 1)")
	}

	// Search window.
	if c.DefaultRadiusMiles <= 0 {
		errs = append(errs, "default_radius_miles must be > 0")
	}
	if c.DefaultDaysBack <= 0 {
		errs = append(errs, "default_days_back must be > 0")
	}
	if c.DefaultMaxCandidates < 0 {
		errs = append(errs, "default_max_candidates must be >= 0")
	}
	if c.MinQualified < 1 {
		errs = append(errs, "min_qualified must be >= 1")
	}
	if c.HighConfidenceMin < c.MinQualified {
		errs = append(errs, "high_confidence_min must be >= min_qualified")
	}
	if c.ExpandSearch && c.ExpansionFactor <= 1 {
		errs = append(errs, "expansion_factor must be > 1 when expand_search is on")
	}

	if len(errs) > 0 {
		return eris.Errorf("comps: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
