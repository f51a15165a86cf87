package comps

import (
	"cmp"
	"slices"

	"github.com/taxdeedflow/comps-cli/internal/config"
	"github.com/taxdeedflow/comps-cli/internal/model"
)

// ARVEstimate is the aggregate of the comp pool that fed the valuation.
type ARVEstimate struct {
	ARV        *float64
	PerSqft    *float64
	Low        *float64
	High       *float64
	Method     string
	Confidence model.ConfidenceLevel
	CompsUsed  int
}

// poolStrategy is one tier of the ARV fallback chain. It either yields a
// pool of comps or declines so the next tier is tried.
type poolStrategy struct {
	method string
	pool   func(Classification) []model.ScoredComparable
	min    int
}

func (s poolStrategy) try(c Classification) ([]model.ScoredComparable, bool) {
	p := s.pool(c)
	if len(p) < s.min {
		return nil, false
	}
	return p, true
}

// fallbackChain lists the ARV pool strategies in evaluation order.
func fallbackChain(cfg config.CompConfig) []poolStrategy {
	return []poolStrategy{
		{
			method: model.ARVMethodQualified,
			min:    cfg.MinQualified,
			pool:   func(c Classification) []model.ScoredComparable { return c.Qualified },
		},
		{
			method: model.ARVMethodQualifiedPlusExtended,
			min:    1,
			pool: func(c Classification) []model.ScoredComparable {
				out := make([]model.ScoredComparable, 0, len(c.Qualified)+len(c.Extended))
				out = append(out, c.Qualified...)
				return append(out, c.Extended...)
			},
		},
	}
}

// AggregateARV walks the fallback chain and reduces the first usable pool to
// a score-weighted median ARV. With no usable pool the ARV is nil and
// confidence is low; that is a valid outcome, not an error.
func AggregateARV(c Classification, subject model.SubjectProperty, cfg config.CompConfig) ARVEstimate {
	est := ARVEstimate{
		Method:     model.ARVMethodNone,
		Confidence: confidenceLevel(c.Qualified, cfg),
	}

	for _, s := range fallbackChain(cfg) {
		pool, ok := s.try(c)
		if !ok {
			continue
		}
		arv := WeightedMedian(pool)
		low, high := priceRange(pool)
		est.ARV = &arv
		est.Low = &low
		est.High = &high
		est.Method = s.method
		est.CompsUsed = len(pool)
		if subject.Sqft != nil && *subject.Sqft > 0 {
			per := round2(arv / *subject.Sqft)
			est.PerSqft = &per
		}
		break
	}

	if est.ARV == nil {
		est.Confidence = model.ConfidenceLow
	}
	return est
}

type weightedPrice struct {
	price  float64
	weight float64
}

// WeightedMedian returns the adjusted price at which the cumulative comp-score
// weight first passes half of the total, walking prices in ascending order.
// Comps without an adjusted price are ignored. Returns 0 for an empty pool.
func WeightedMedian(pool []model.ScoredComparable) float64 {
	items := make([]weightedPrice, 0, len(pool))
	var total float64
	for _, sc := range pool {
		if sc.AdjustedPrice == nil {
			continue
		}
		items = append(items, weightedPrice{price: *sc.AdjustedPrice, weight: sc.CompScore})
		total += sc.CompScore
	}
	if len(items) == 0 {
		return 0
	}
	if total <= 0 {
		for i := range items {
			items[i].weight = 1
		}
		total = float64(len(items))
	}

	slices.SortStableFunc(items, func(a, b weightedPrice) int {
		return cmp.Compare(a.price, b.price)
	})

	half := total / 2
	var cum float64
	for _, it := range items {
		cum += it.weight
		if cum > half {
			return it.price
		}
	}
	return items[len(items)-1].price
}

func priceRange(pool []model.ScoredComparable) (low, high float64) {
	first := true
	for _, sc := range pool {
		if sc.AdjustedPrice == nil {
			continue
		}
		p := *sc.AdjustedPrice
		if first || p < low {
			low = p
		}
		if first || p > high {
			high = p
		}
		first = false
	}
	return low, high
}

// confidenceLevel: high needs HighConfidenceMin qualified comps averaging B
// or better; medium needs MinQualified; otherwise low.
func confidenceLevel(qualified []model.ScoredComparable, cfg config.CompConfig) model.ConfidenceLevel {
	n := len(qualified)
	if n >= cfg.HighConfidenceMin && n > 0 {
		var pts float64
		for _, sc := range qualified {
			pts += sc.CompGrade.Points()
		}
		if pts/float64(n) >= model.GradeB.Points() {
			return model.ConfidenceHigh
		}
	}
	if n >= cfg.MinQualified {
		return model.ConfidenceMedium
	}
	return model.ConfidenceLow
}
