package model

import (
	"errors"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationErrors(t *testing.T) {
	t.Parallel()
	errs := ValidationErrors{
		{Field: "arv", Message: "is required"},
		{Field: "opening_bid", Message: "must be >= 0"},
	}

	assert.Equal(t, "validation failed: arv: is required; opening_bid: must be >= 0", errs.Error())
	assert.Equal(t, []string{"arv", "opening_bid"}, errs.Fields())
	assert.True(t, errs.Has("arv"))
	assert.False(t, errs.Has("rehab_cost"))
}

func TestAsValidation_ThroughWrap(t *testing.T) {
	t.Parallel()
	var err error = ValidationErrors{{Field: "arv", Message: "is required"}}
	wrapped := eris.Wrap(err, "bid: validate")

	ve, ok := AsValidation(wrapped)
	require.True(t, ok)
	assert.True(t, ve.Has("arv"))

	_, ok = AsValidation(errors.New("plain"))
	assert.False(t, ok)
}

func TestErrorKinds(t *testing.T) {
	t.Parallel()
	calc := eris.Wrap(NewCalculationError("bid.tiers", "moderate %d < conservative", 1), "bid")
	insufficient := eris.Wrap(&InsufficientDataError{What: "arv"}, "valuation")

	assert.True(t, IsCalculation(calc))
	assert.False(t, IsInsufficientData(calc))
	assert.Contains(t, calc.Error(), "calculation error in bid.tiers: moderate 1 < conservative")

	assert.True(t, IsInsufficientData(insufficient))
	assert.False(t, IsCalculation(insufficient))
	assert.Contains(t, insufficient.Error(), "insufficient data: arv")
}
