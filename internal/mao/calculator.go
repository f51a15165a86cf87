// Package mao computes the maximum allowable offer band from an ARV and
// carrying costs.
package mao

import (
	"math"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/taxdeedflow/comps-cli/internal/config"
	"github.com/taxdeedflow/comps-cli/internal/model"
)

// DefaultConfig returns the 65% rule with a 60-70% band.
func DefaultConfig() config.MAOConfig {
	return config.MAOConfig{
		RulePct:         0.65,
		ConservativePct: 0.60,
		AggressivePct:   0.70,
		HoldingCostPct:  0.02,
		ClosingCostPct:  0.03,
	}
}

// ValidateConfig checks conservative <= rule <= aggressive, all in (0, 1].
func ValidateConfig(c config.MAOConfig) error {
	var errs []string
	for name, v := range map[string]float64{
		"rule_pct":         c.RulePct,
		"conservative_pct": c.ConservativePct,
		"aggressive_pct":   c.AggressivePct,
	} {
		if v <= 0 || v > 1 {
			errs = append(errs, name+" must be in (0, 1]")
		}
	}
	if c.ConservativePct > c.RulePct || c.RulePct > c.AggressivePct {
		errs = append(errs, "conservative_pct <= rule_pct <= aggressive_pct required")
	}
	if c.HoldingCostPct < 0 || c.ClosingCostPct < 0 {
		errs = append(errs, "holding_cost_pct and closing_cost_pct must be >= 0")
	}
	if len(errs) > 0 {
		sort.Strings(errs)
		return eris.Errorf("mao: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Inputs are the dollar figures the MAO formula subtracts from ARV.
type Inputs struct {
	ARV          float64
	RehabCost    float64
	HoldingCosts float64
	ClosingCosts float64
}

// Result is the MAO band.
type Result struct {
	MAO          float64 `json:"mao"`
	Conservative float64 `json:"conservative"`
	Aggressive   float64 `json:"aggressive"`
}

// Calculator applies percentage-of-ARV rules.
type Calculator struct {
	cfg config.MAOConfig
}

// NewCalculator creates a Calculator with the given bounds.
func NewCalculator(cfg config.MAOConfig) *Calculator {
	return &Calculator{cfg: cfg}
}

// Calculate returns mao = arv*pct - rehab - holding - closing for the rule,
// conservative, and aggressive percentages, each floored at zero. A
// non-finite value or a broken ordering is a CalculationError.
func (c *Calculator) Calculate(in Inputs) (Result, error) {
	costs := in.RehabCost + in.HoldingCosts + in.ClosingCosts
	r := Result{
		MAO:          floor0(in.ARV*c.cfg.RulePct - costs),
		Conservative: floor0(in.ARV*c.cfg.ConservativePct - costs),
		Aggressive:   floor0(in.ARV*c.cfg.AggressivePct - costs),
	}

	for _, v := range []float64{r.MAO, r.Conservative, r.Aggressive} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Result{}, model.NewCalculationError("mao", "non-finite result for arv=%v costs=%v", in.ARV, costs)
		}
		if v < 0 {
			return Result{}, model.NewCalculationError("mao", "negative MAO %v after flooring", v)
		}
	}
	if r.Conservative > r.MAO || r.MAO > r.Aggressive {
		return Result{}, model.NewCalculationError("mao",
			"band out of order: conservative=%v mao=%v aggressive=%v", r.Conservative, r.MAO, r.Aggressive)
	}
	return r, nil
}

// DefaultCarryingCosts returns holding and closing costs as configured
// percentages of ARV, for callers that did not supply them.
func (c *Calculator) DefaultCarryingCosts(arv float64) (holding, closing float64) {
	return round2(arv * c.cfg.HoldingCostPct), round2(arv * c.cfg.ClosingCostPct)
}

func floor0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return round2(v)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Calculate is a convenience wrapper around NewCalculator(cfg).Calculate.
func Calculate(in Inputs, cfg config.MAOConfig) (Result, error) {
	return NewCalculator(cfg).Calculate(in)
}
