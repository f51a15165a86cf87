package comps

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/taxdeedflow/comps-cli/internal/config"
	"github.com/taxdeedflow/comps-cli/internal/mao"
	"github.com/taxdeedflow/comps-cli/internal/model"
	"github.com/taxdeedflow/comps-cli/internal/repair"
)

// Options tunes a single analysis. Zero values fall back to config defaults.
type Options struct {
	RadiusMiles   float64                `json:"radius_miles,omitempty" yaml:"radius_miles,omitempty"`
	DaysBack      int                    `json:"days_back,omitempty" yaml:"days_back,omitempty"`
	MaxCandidates int                    `json:"max_candidates,omitempty" yaml:"max_candidates,omitempty"`
	RehabScope    model.RehabScope       `json:"rehab_scope,omitempty" yaml:"rehab_scope,omitempty"`
	AsOf          time.Time              `json:"as_of,omitzero" yaml:"as_of,omitempty"`
	HoldingCosts  *float64               `json:"holding_costs,omitempty" yaml:"holding_costs,omitempty"`
	ClosingCosts  *float64               `json:"closing_costs,omitempty" yaml:"closing_costs,omitempty"`
	Overrides     model.SubjectOverrides `json:"overrides" yaml:"overrides"`
}

// ValidateOptions reports every out-of-range option.
func ValidateOptions(o Options) model.ValidationErrors {
	var errs model.ValidationErrors
	if o.RadiusMiles < 0 || math.IsNaN(o.RadiusMiles) || math.IsInf(o.RadiusMiles, 0) {
		errs = append(errs, model.ValidationError{Field: "radius_miles", Message: "must be a finite number >= 0"})
	}
	if o.DaysBack < 0 {
		errs = append(errs, model.ValidationError{Field: "days_back", Message: "must be >= 0"})
	}
	if o.MaxCandidates < 0 {
		errs = append(errs, model.ValidationError{Field: "max_candidates", Message: "must be >= 0"})
	}
	if _, err := repair.ParseScope(string(o.RehabScope)); err != nil {
		errs = append(errs, model.ValidationError{Field: "rehab_scope", Message: "must be one of cosmetic, light, moderate, heavy, gut"})
	}
	for field, v := range map[string]*float64{"holding_costs": o.HoldingCosts, "closing_costs": o.ClosingCosts} {
		if v != nil && (*v < 0 || math.IsNaN(*v) || math.IsInf(*v, 0)) {
			errs = append(errs, model.ValidationError{Field: field, Message: "must be a finite number >= 0"})
		}
	}
	slices.SortFunc(errs, func(a, b model.ValidationError) int { return cmp.Compare(a.Field, b.Field) })
	return errs
}

type window struct {
	radius float64
	days   int
}

// Analyze runs the full comparables pipeline for one subject: overrides,
// distance fill, search window, candidate cap, scoring, classification, ARV,
// repair estimate, and MAO. Every input candidate ends up qualified,
// extended, or counted as rejected.
func Analyze(subject model.SubjectProperty, candidates []model.Comparable, opts Options, cfg config.ValuationConfig) (*model.CompAnalysisResult, error) {
	if errs := ValidateOptions(opts); len(errs) > 0 {
		return nil, errs
	}
	cc := cfg.Comps

	subject = subject.WithOverrides(opts.Overrides)
	cands := fillDistances(subject, candidates)

	w := window{radius: opts.RadiusMiles, days: opts.DaysBack}
	if w.radius == 0 {
		w.radius = cc.DefaultRadiusMiles
	}
	if w.days == 0 {
		w.days = cc.DefaultDaysBack
	}
	maxCands := opts.MaxCandidates
	if maxCands == 0 {
		maxCands = cc.DefaultMaxCandidates
	}
	asOf := opts.AsOf
	if asOf.IsZero() {
		asOf = latestSaleDate(cands)
	}

	class := evaluate(subject, cands, w, maxCands, asOf, cc)
	expanded := false
	if len(class.Qualified) < cc.MinQualified && cc.ExpandSearch && cc.ExpansionFactor > 1 {
		w = window{
			radius: w.radius * cc.ExpansionFactor,
			days:   int(math.Round(float64(w.days) * cc.ExpansionFactor)),
		}
		class = evaluate(subject, cands, w, maxCands, asOf, cc)
		expanded = true
	}

	if got := len(class.Qualified) + len(class.Extended) + class.Rejected; got != len(candidates) {
		return nil, model.NewCalculationError("comps.analyze",
			"partition covers %d of %d candidates", got, len(candidates))
	}

	est := AggregateARV(class, subject, cc)

	rep, err := repair.Estimate(opts.RehabScope, subject.Sqft, est.ARV, cfg.Repair)
	if err != nil {
		return nil, err
	}

	res := &model.CompAnalysisResult{
		SubjectID:       subject.ID,
		QualifiedComps:  class.Qualified,
		ExtendedComps:   class.Extended,
		RejectedCount:   class.Rejected,
		ARV:             est.ARV,
		ARVPerSqft:      est.PerSqft,
		ARVLow:          est.Low,
		ARVHigh:         est.High,
		ARVMethod:       est.Method,
		ConfidenceLevel: est.Confidence,
		RepairEstimate:  rep,
		TotalDue:        subject.TotalDue,
		SearchCriteria: model.SearchCriteria{
			RadiusMiles:   w.radius,
			DaysBack:      w.days,
			MaxCandidates: maxCands,
			AsOf:          asOf,
			Expanded:      expanded,
		},
	}

	if est.ARV != nil {
		calc := mao.NewCalculator(cfg.MAO)
		holding, closing := calc.DefaultCarryingCosts(*est.ARV)
		if opts.HoldingCosts != nil {
			holding = *opts.HoldingCosts
		}
		if opts.ClosingCosts != nil {
			closing = *opts.ClosingCosts
		}
		var rehab float64
		if rep.FullRehabTotal != nil {
			rehab = *rep.FullRehabTotal
		}
		band, err := calc.Calculate(mao.Inputs{
			ARV:          *est.ARV,
			RehabCost:    rehab,
			HoldingCosts: holding,
			ClosingCosts: closing,
		})
		if err != nil {
			return nil, err
		}
		res.MAO = &band.MAO
		res.MAOConservative = &band.Conservative
		res.MAOAggressive = &band.Aggressive
		if subject.TotalDue != nil && band.MAO < *subject.TotalDue {
			res.MAOBelowTotalDue = true
		}
	}

	return res, nil
}

// evaluate filters candidates to the window, caps them to the nearest
// maxCands, then scores and classifies the survivors. Filtered and capped
// candidates are counted as rejected.
func evaluate(subject model.SubjectProperty, cands []model.Comparable, w window, maxCands int, asOf time.Time, cfg config.CompConfig) Classification {
	type indexed struct {
		comp  model.Comparable
		index int
	}

	var (
		inWindow []indexed
		rejected int
	)
	for i, c := range cands {
		if !w.contains(c, asOf) {
			rejected++
			continue
		}
		inWindow = append(inWindow, indexed{comp: c, index: i})
	}

	if maxCands > 0 && len(inWindow) > maxCands {
		slices.SortStableFunc(inWindow, func(a, b indexed) int {
			return compareDistance(a.comp.DistanceMiles, b.comp.DistanceMiles)
		})
		rejected += len(inWindow) - maxCands
		inWindow = inWindow[:maxCands]
	}

	pool := make([]model.Comparable, len(inWindow))
	for i, ic := range inWindow {
		pool[i] = ic.comp
	}
	scored := ScoreAll(subject, pool, asOf, cfg)
	for i := range scored {
		scored[i].InputIndex = inWindow[scored[i].InputIndex].index
	}

	class := Classify(scored)
	class.Rejected += rejected
	return class
}

// contains reports whether the comp falls inside the radius and look-back
// window. Unknown distance or date passes; scoring penalizes it instead.
func (w window) contains(c model.Comparable, asOf time.Time) bool {
	if c.DistanceMiles != nil && *c.DistanceMiles > w.radius {
		return false
	}
	if sd := c.SaleDate(); sd != nil && !asOf.IsZero() && daysBetween(*sd, asOf) > w.days {
		return false
	}
	return true
}

// compareDistance orders known distances ascending, unknown last.
func compareDistance(a, b *float64) int {
	switch {
	case a != nil && b != nil:
		return cmp.Compare(*a, *b)
	case a != nil:
		return -1
	case b != nil:
		return 1
	}
	return 0
}

// latestSaleDate returns the most recent sale or list date among candidates,
// or the zero time when none carry a date.
func latestSaleDate(cands []model.Comparable) time.Time {
	var latest time.Time
	for _, c := range cands {
		if sd := c.SaleDate(); sd != nil && sd.After(latest) {
			latest = *sd
		}
	}
	return latest
}
