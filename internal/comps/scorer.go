package comps

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/taxdeedflow/comps-cli/internal/config"
	"github.com/taxdeedflow/comps-cli/internal/model"
)

// Component names used in ScoredComparable.ComponentScores.
const (
	ComponentDistance     = "distance"
	ComponentRecency      = "recency"
	ComponentSize         = "size"
	ComponentType         = "type"
	ComponentCompleteness = "completeness"
)

// Score adjusts and scores one candidate against the subject. index is the
// candidate's position in the caller's input and is kept for tie-breaking.
func Score(subject model.SubjectProperty, comp model.Comparable, index int, asOf time.Time, cfg config.CompConfig) model.ScoredComparable {
	adjustments, details := Adjust(subject, comp, asOf, cfg)

	components := map[string]float64{
		ComponentDistance:     scoreDistance(details.DistanceMiles, cfg.DistanceThresholdMiles, cfg.DistanceFalloffMiles),
		ComponentRecency:      scoreRecency(details.DaysAgo, cfg.RecencyWindowDays, cfg.RecencyFalloffDays),
		ComponentSize:         scoreSize(details.SqftDeltaPct),
		ComponentType:         scoreTypeMatch(details.TypeMatch),
		ComponentCompleteness: scoreCompleteness(comp),
	}
	weights := map[string]float64{
		ComponentDistance:     cfg.DistanceWeight,
		ComponentRecency:      cfg.RecencyWeight,
		ComponentSize:         cfg.SizeWeight,
		ComponentType:         cfg.TypeWeight,
		ComponentCompleteness: cfg.CompletenessWeight,
	}

	// Fixed iteration order keeps the float sum bit-for-bit reproducible.
	var total float64
	for _, k := range []string{ComponentDistance, ComponentRecency, ComponentSize, ComponentType, ComponentCompleteness} {
		total += components[k] * weights[k]
	}
	if ws := WeightSum(cfg); ws > 0 {
		total = total / ws * 100
	}
	total = math.Max(0, math.Min(100, round2(total)))

	sc := model.ScoredComparable{
		Comparable:      comp,
		CompScore:       total,
		CompGrade:       Grade(total, cfg),
		Adjustments:     adjustments,
		MatchDetails:    details,
		ComponentScores: components,
		InputIndex:      index,
	}
	if price := comp.Price(); price != nil {
		adjusted := round2(*price + sc.TotalAdjustment())
		sc.AdjustedPrice = &adjusted
	}
	return sc
}

// ScoreAll scores every candidate and ranks them by score descending. Equal
// scores keep their input order.
func ScoreAll(subject model.SubjectProperty, candidates []model.Comparable, asOf time.Time, cfg config.CompConfig) []model.ScoredComparable {
	scored := make([]model.ScoredComparable, len(candidates))
	for i, c := range candidates {
		scored[i] = Score(subject, c, i, asOf, cfg)
	}
	slices.SortStableFunc(scored, func(a, b model.ScoredComparable) int {
		return cmp.Compare(b.CompScore, a.CompScore)
	})
	return scored
}

// Grade maps a 0-100 score to a letter grade.
func Grade(score float64, cfg config.CompConfig) model.Grade {
	switch {
	case score >= cfg.GradeA:
		return model.GradeA
	case score >= cfg.GradeB:
		return model.GradeB
	case score >= cfg.GradeC:
		return model.GradeC
	case score >= cfg.GradeD:
		return model.GradeD
	default:
		return model.GradeF
	}
}

// scoreDistance returns 1.0 inside the threshold radius, decaying linearly to
// 0 over falloff miles beyond it. Unknown distance scores 0.
func scoreDistance(miles *float64, threshold, falloff float64) float64 {
	if miles == nil {
		return 0
	}
	d := *miles
	if d <= threshold {
		return 1.0
	}
	if falloff <= 0 {
		return 0
	}
	return math.Max(0, 1-(d-threshold)/falloff)
}

// scoreRecency returns 1.0 for sales inside the preferred window, decaying
// linearly to 0 over falloffDays beyond it. Unknown date scores 0.
func scoreRecency(daysAgo *int, window, falloffDays int) float64 {
	if daysAgo == nil {
		return 0
	}
	d := *daysAgo
	if d <= window {
		return 1.0
	}
	if falloffDays <= 0 {
		return 0
	}
	return math.Max(0, 1-float64(d-window)/float64(falloffDays))
}

// scoreSize bands the absolute square-footage delta percentage.
func scoreSize(deltaPct *float64) float64 {
	if deltaPct == nil {
		return 0
	}
	switch p := *deltaPct; {
	case p <= 10:
		return 1.0
	case p <= 20:
		return 0.8
	case p <= 30:
		return 0.6
	case p <= 50:
		return 0.3
	default:
		return 0
	}
}

func scoreTypeMatch(match *bool) float64 {
	if match != nil && *match {
		return 1.0
	}
	return 0
}

// scoreCompleteness returns the fraction of comparison fields the comp carries.
func scoreCompleteness(c model.Comparable) float64 {
	present := []bool{
		c.Sqft != nil,
		c.LotSqft != nil,
		c.Bedrooms != nil,
		c.Bathrooms != nil,
		c.YearBuilt != nil,
		c.Type != "",
		c.SaleDate() != nil,
		c.DistanceMiles != nil,
	}
	var n int
	for _, p := range present {
		if p {
			n++
		}
	}
	return float64(n) / float64(len(present))
}
