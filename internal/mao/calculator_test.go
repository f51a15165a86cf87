package mao

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taxdeedflow/comps-cli/internal/model"
)

func TestCalculate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   Inputs
		want Result
	}{
		{
			name: "typical flip",
			in:   Inputs{ARV: 210_000, RehabCost: 81_000, HoldingCosts: 4_200, ClosingCosts: 6_300},
			want: Result{MAO: 45_000, Conservative: 34_500, Aggressive: 55_500},
		},
		{
			name: "no costs",
			in:   Inputs{ARV: 100_000},
			want: Result{MAO: 65_000, Conservative: 60_000, Aggressive: 70_000},
		},
		{
			name: "floors at zero",
			in:   Inputs{ARV: 100_000, RehabCost: 68_000},
			want: Result{MAO: 0, Conservative: 0, Aggressive: 2_000},
		},
		{
			name: "all zero when costs exceed aggressive",
			in:   Inputs{ARV: 100_000, RehabCost: 150_000},
			want: Result{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Calculate(tt.in, DefaultConfig())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCalculate_NonFiniteIsCalculationError(t *testing.T) {
	t.Parallel()
	_, err := Calculate(Inputs{ARV: math.Inf(1), RehabCost: math.Inf(1)}, DefaultConfig())
	require.Error(t, err)
	assert.True(t, model.IsCalculation(err))
}

func TestCalculate_BrokenOrderingIsCalculationError(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	cfg.ConservativePct = 0.9
	_, err := Calculate(Inputs{ARV: 100_000}, cfg)
	require.Error(t, err)
	assert.True(t, model.IsCalculation(err))
}

func TestDefaultCarryingCosts(t *testing.T) {
	t.Parallel()
	holding, closing := NewCalculator(DefaultConfig()).DefaultCarryingCosts(210_000)
	assert.Equal(t, 4_200.0, holding)
	assert.Equal(t, 6_300.0, closing)
}

func TestValidateConfig(t *testing.T) {
	t.Parallel()
	require.NoError(t, ValidateConfig(DefaultConfig()))

	bad := DefaultConfig()
	bad.RulePct = 0.75
	bad.HoldingCostPct = -0.1
	err := ValidateConfig(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conservative_pct <= rule_pct <= aggressive_pct")
	assert.Contains(t, err.Error(), "holding_cost_pct")
}
