// Package repair estimates rehab and selling costs from a per-scope rate table.
package repair

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/taxdeedflow/comps-cli/internal/config"
	"github.com/taxdeedflow/comps-cli/internal/model"
)

// Scopes lists the rehab scopes from lightest to heaviest.
var Scopes = []model.RehabScope{
	model.RehabCosmetic,
	model.RehabLight,
	model.RehabModerate,
	model.RehabHeavy,
	model.RehabGut,
}

// DefaultRates returns the default per-scope $/sqft table and selling-cost rule.
func DefaultRates() config.RepairConfig {
	return config.RepairConfig{
		Rates: map[string]config.RepairRate{
			string(model.RehabCosmetic): {Cosmetic: 10, FullRehab: 20},
			string(model.RehabLight):    {Cosmetic: 15, FullRehab: 30},
			string(model.RehabModerate): {Cosmetic: 20, FullRehab: 45},
			string(model.RehabHeavy):    {Cosmetic: 30, FullRehab: 65},
			string(model.RehabGut):      {Cosmetic: 45, FullRehab: 90},
		},
		SellingCostPct: 0.10,
		DefaultScope:   string(model.RehabModerate),
	}
}

// ParseScope normalizes a scope label. Empty returns "".
func ParseScope(s string) (model.RehabScope, error) {
	v := model.RehabScope(strings.ToLower(strings.TrimSpace(s)))
	if v == "" {
		return "", nil
	}
	for _, known := range Scopes {
		if v == known {
			return v, nil
		}
	}
	return "", eris.Errorf("repair: unknown rehab scope %q (want cosmetic|light|moderate|heavy|gut)", s)
}

// ValidateConfig checks the rate table covers every scope with sane rates.
func ValidateConfig(c config.RepairConfig) error {
	var errs []string
	for _, s := range Scopes {
		r, ok := c.Rates[string(s)]
		if !ok {
			errs = append(errs, fmt.Sprintf("rates.%s is missing", s))
			continue
		}
		if r.Cosmetic < 0 || r.FullRehab < 0 {
			errs = append(errs, fmt.Sprintf("rates.%s must be >= 0", s))
		}
		if r.FullRehab < r.Cosmetic {
			errs = append(errs, fmt.Sprintf("rates.%s full_rehab must be >= cosmetic", s))
		}
	}
	if c.SellingCostPct < 0 || c.SellingCostPct >= 1 {
		errs = append(errs, "selling_cost_pct must be in [0, 1)")
	}
	if _, err := ParseScope(c.DefaultScope); err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		sort.Strings(errs)
		return eris.Errorf("repair: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Estimator computes repair estimates from a rate table.
type Estimator struct {
	cfg config.RepairConfig
}

// NewEstimator creates an Estimator with the given rates.
func NewEstimator(cfg config.RepairConfig) *Estimator {
	return &Estimator{cfg: cfg}
}

// Estimate returns cosmetic and full-rehab totals for the scope plus selling
// costs. Totals are nil when sqft is unknown; selling costs are nil when arv
// is unknown. An empty scope uses the configured default.
func (e *Estimator) Estimate(scope model.RehabScope, sqft, arv *float64) (model.RepairEstimate, error) {
	if scope == "" {
		scope = model.RehabScope(e.cfg.DefaultScope)
	}
	rate, ok := e.cfg.Rates[string(scope)]
	if !ok {
		return model.RepairEstimate{}, eris.Errorf("repair: unknown rehab scope %q", scope)
	}

	est := model.RepairEstimate{
		Scope:            scope,
		CosmeticPerSqft:  rate.Cosmetic,
		FullRehabPerSqft: rate.FullRehab,
	}
	if sqft != nil && *sqft > 0 {
		cosmetic := roundDollars(*sqft * rate.Cosmetic)
		full := roundDollars(*sqft * rate.FullRehab)
		est.CosmeticTotal = &cosmetic
		est.FullRehabTotal = &full
	}
	if arv != nil {
		selling := roundDollars(*arv * e.cfg.SellingCostPct)
		est.SellingCosts = &selling
	}
	return est, nil
}

func roundDollars(v float64) float64 {
	return math.Round(v*100) / 100
}

// Estimate is a convenience wrapper around NewEstimator(cfg).Estimate.
func Estimate(scope model.RehabScope, sqft, arv *float64, cfg config.RepairConfig) (model.RepairEstimate, error) {
	return NewEstimator(cfg).Estimate(scope, sqft, arv)
}
