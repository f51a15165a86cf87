package comps

import (
	"fmt"
	"math"
	"time"

	"github.com/taxdeedflow/comps-cli/internal/config"
	"github.com/taxdeedflow/comps-cli/internal/model"
)

const daysPerMonth = 30.4375

// Adjust computes the ordered dollar adjustments that bring comp in line with
// subject, plus the raw match details. Missing attributes on either side
// skip the adjustment and leave the detail nil.
func Adjust(subject model.SubjectProperty, comp model.Comparable, asOf time.Time, cfg config.CompConfig) ([]model.Adjustment, model.MatchDetails) {
	var adj []model.Adjustment
	details := matchDetails(subject, comp, asOf)
	price := comp.Price()

	add := func(desc string, amount float64) {
		amount = round2(amount)
		if amount == 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
			return
		}
		adj = append(adj, model.Adjustment{Description: desc, Amount: amount})
	}

	// Size: priced at the comp's own $/sqft.
	if price != nil && subject.Sqft != nil && comp.Sqft != nil && *comp.Sqft > 0 {
		ppsf := *price / *comp.Sqft
		add(fmt.Sprintf("Size: subject %.0f sqft vs comp %.0f sqft at $%.2f/sqft", *subject.Sqft, *comp.Sqft, ppsf),
			(*subject.Sqft-*comp.Sqft)*ppsf)
	}

	// Lot: flat rate, worth less per unit than living area.
	if subject.LotSqft != nil && comp.LotSqft != nil && *comp.LotSqft > 0 {
		add(fmt.Sprintf("Lot: subject %.0f sqft vs comp %.0f sqft at $%.2f/sqft", *subject.LotSqft, *comp.LotSqft, cfg.LotRatePerSqft),
			(*subject.LotSqft-*comp.LotSqft)*cfg.LotRatePerSqft)
	}

	if details.BedroomDelta != nil {
		add(fmt.Sprintf("Bedrooms: %+.0f at $%.0f each", *details.BedroomDelta, cfg.BedroomValue),
			*details.BedroomDelta*cfg.BedroomValue)
	}

	if details.BathroomDelta != nil {
		add(fmt.Sprintf("Bathrooms: %+.1f at $%.0f each", *details.BathroomDelta, cfg.BathroomValue),
			*details.BathroomDelta*cfg.BathroomValue)
	}

	if details.YearBuiltDelta != nil {
		raw := float64(*details.YearBuiltDelta) * cfg.AgeRatePerYear
		capped := math.Max(-cfg.AgeAdjustmentCap, math.Min(cfg.AgeAdjustmentCap, raw))
		desc := fmt.Sprintf("Age: subject built %d vs comp %d", *subject.YearBuilt, *comp.YearBuilt)
		if capped != raw {
			desc += fmt.Sprintf(" (capped at $%.0f)", cfg.AgeAdjustmentCap)
		}
		add(desc, capped)
	}

	// Market time: appreciation since the comp sold.
	if price != nil && details.DaysAgo != nil && cfg.MarketTrendPerMonth != 0 {
		months := float64(*details.DaysAgo) / daysPerMonth
		add(fmt.Sprintf("Market time: %.1f months at %.2f%%/month", months, cfg.MarketTrendPerMonth*100),
			*price*cfg.MarketTrendPerMonth*months)
	}

	// Type mismatch: percentage penalty on the comp price.
	if price != nil && details.TypeMatch != nil && !*details.TypeMatch {
		add(fmt.Sprintf("Type mismatch: subject %s vs comp %s (-%.0f%%)", subject.Type, comp.Type, cfg.TypeMismatchPct*100),
			-*price*cfg.TypeMismatchPct)
	}

	return adj, details
}

// matchDetails records subject-minus-comp deltas for every attribute both
// sides carry.
func matchDetails(subject model.SubjectProperty, comp model.Comparable, asOf time.Time) model.MatchDetails {
	var d model.MatchDetails

	if subject.Sqft != nil && comp.Sqft != nil {
		delta := *subject.Sqft - *comp.Sqft
		d.SqftDelta = &delta
		if *subject.Sqft > 0 {
			pct := math.Abs(delta) / *subject.Sqft * 100
			pct = round2(pct)
			d.SqftDeltaPct = &pct
		}
	}
	if subject.LotSqft != nil && comp.LotSqft != nil {
		delta := *subject.LotSqft - *comp.LotSqft
		d.LotSqftDelta = &delta
	}
	if subject.YearBuilt != nil && comp.YearBuilt != nil {
		delta := *subject.YearBuilt - *comp.YearBuilt
		d.YearBuiltDelta = &delta
	}
	if subject.Bedrooms != nil && comp.Bedrooms != nil {
		delta := *subject.Bedrooms - *comp.Bedrooms
		d.BedroomDelta = &delta
	}
	if subject.Bathrooms != nil && comp.Bathrooms != nil {
		delta := *subject.Bathrooms - *comp.Bathrooms
		d.BathroomDelta = &delta
	}
	if sd := comp.SaleDate(); sd != nil && !asOf.IsZero() {
		days := daysBetween(*sd, asOf)
		d.DaysAgo = &days
	}
	if comp.DistanceMiles != nil {
		dist := *comp.DistanceMiles
		d.DistanceMiles = &dist
	}
	if subject.Type != "" && comp.Type != "" {
		match := subject.Type == comp.Type
		d.TypeMatch = &match
	}

	return d
}

// daysBetween returns whole days from then to now, never negative.
func daysBetween(then, now time.Time) int {
	days := int(now.Sub(then).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
