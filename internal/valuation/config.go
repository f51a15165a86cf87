package valuation

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/taxdeedflow/comps-cli/internal/bid"
	"github.com/taxdeedflow/comps-cli/internal/comps"
	"github.com/taxdeedflow/comps-cli/internal/config"
	"github.com/taxdeedflow/comps-cli/internal/lien"
	"github.com/taxdeedflow/comps-cli/internal/mao"
	"github.com/taxdeedflow/comps-cli/internal/repair"
)

// DefaultConfig assembles the default valuation settings of every core package.
func DefaultConfig() config.ValuationConfig {
	return config.ValuationConfig{
		Comps:  comps.DefaultCompConfig(),
		Repair: repair.DefaultRates(),
		MAO:    mao.DefaultConfig(),
		Bid:    bid.DefaultConfig(),
		Lien:   lien.DefaultConfig(),
	}
}

// ValidateConfig runs every package validator and joins the failures.
func ValidateConfig(cfg config.ValuationConfig) error {
	var msgs []string
	for _, err := range []error{
		comps.ValidateConfig(cfg.Comps),
		repair.ValidateConfig(cfg.Repair),
		mao.ValidateConfig(cfg.MAO),
		bid.ValidateConfig(cfg.Bid),
		lien.ValidateConfig(cfg.Lien),
	} {
		if err != nil {
			msgs = append(msgs, err.Error())
		}
	}
	if len(msgs) > 0 {
		return eris.Errorf("valuation: invalid config: %s", strings.Join(msgs, "; "))
	}
	return nil
}
