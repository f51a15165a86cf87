package comps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taxdeedflow/comps-cli/internal/model"
)

func TestAdjust_IdenticalCompHasNoAdjustments(t *testing.T) {
	t.Parallel()
	adj, details := Adjust(testSubject(), perfectComp("c1", 200_000), testAsOf, DefaultCompConfig())

	assert.Empty(t, adj)
	require.NotNil(t, details.SqftDelta)
	assert.Equal(t, 0.0, *details.SqftDelta)
	require.NotNil(t, details.DaysAgo)
	assert.Equal(t, 30, *details.DaysAgo)
	require.NotNil(t, details.TypeMatch)
	assert.True(t, *details.TypeMatch)
}

func TestAdjust_Components(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		mutate   func(c *model.Comparable)
		want     float64
		contains string
	}{
		{
			name:     "smaller comp adjusts up at its own ppsf",
			mutate:   func(c *model.Comparable) { c.Sqft = ptrFloat64(1600) },
			want:     25_000, // 200 sqft * 125 $/sqft
			contains: "Size",
		},
		{
			name:     "larger lot adjusts down",
			mutate:   func(c *model.Comparable) { c.LotSqft = ptrFloat64(8000) },
			want:     -2_000,
			contains: "Lot",
		},
		{
			name:     "fewer bedrooms adjusts up",
			mutate:   func(c *model.Comparable) { c.Bedrooms = ptrFloat64(2) },
			want:     5_000,
			contains: "Bedrooms",
		},
		{
			name:     "extra half bath adjusts down",
			mutate:   func(c *model.Comparable) { c.Bathrooms = ptrFloat64(2.5) },
			want:     -1_750,
			contains: "Bathrooms",
		},
		{
			name:     "older comp adjusts up",
			mutate:   func(c *model.Comparable) { c.YearBuilt = ptrInt(1985) },
			want:     5_000,
			contains: "Age",
		},
		{
			name:     "age adjustment is capped",
			mutate:   func(c *model.Comparable) { c.YearBuilt = ptrInt(1945) },
			want:     15_000,
			contains: "capped",
		},
		{
			name:     "type mismatch subtracts a percentage",
			mutate:   func(c *model.Comparable) { c.Type = model.PropertyTypeMobile },
			want:     -20_000,
			contains: "Type mismatch",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			comp := perfectComp("c1", 200_000)
			tt.mutate(&comp)

			adj, _ := Adjust(testSubject(), comp, testAsOf, DefaultCompConfig())
			require.Len(t, adj, 1)
			assert.InDelta(t, tt.want, adj[0].Amount, 0.01)
			assert.Contains(t, adj[0].Description, tt.contains)
		})
	}
}

func TestAdjust_MarketTrend(t *testing.T) {
	t.Parallel()
	cfg := DefaultCompConfig()
	cfg.MarketTrendPerMonth = 0.01

	comp := perfectComp("c1", 200_000)
	comp.SoldDate = daysBefore(61)

	adj, _ := Adjust(testSubject(), comp, testAsOf, cfg)
	require.Len(t, adj, 1)
	assert.Contains(t, adj[0].Description, "Market time")
	assert.InDelta(t, 200_000*0.01*61/daysPerMonth, adj[0].Amount, 0.01)
}

func TestAdjust_OrderIsFixed(t *testing.T) {
	t.Parallel()
	comp := perfectComp("c1", 200_000)
	comp.Sqft = ptrFloat64(1600)
	comp.LotSqft = ptrFloat64(6000)
	comp.Bedrooms = ptrFloat64(4)
	comp.Bathrooms = ptrFloat64(1)
	comp.YearBuilt = ptrInt(2005)
	comp.Type = model.PropertyTypeCondo

	adj, _ := Adjust(testSubject(), comp, testAsOf, DefaultCompConfig())
	require.Len(t, adj, 6)
	prefixes := []string{"Size", "Lot", "Bedrooms", "Bathrooms", "Age", "Type mismatch"}
	for i, p := range prefixes {
		assert.Contains(t, adj[i].Description, p)
	}
}

func TestAdjust_MissingFieldsSkip(t *testing.T) {
	t.Parallel()
	subject := model.SubjectProperty{ID: "bare"}
	comp := perfectComp("c1", 200_000)

	adj, details := Adjust(subject, comp, testAsOf, DefaultCompConfig())
	assert.Empty(t, adj)
	assert.Nil(t, details.SqftDelta)
	assert.Nil(t, details.BedroomDelta)
	assert.Nil(t, details.TypeMatch)
	assert.NotNil(t, details.DaysAgo)
}

func TestAdjust_NoPriceSkipsPriceBasedAdjustments(t *testing.T) {
	t.Parallel()
	comp := perfectComp("c1", 0)
	comp.SoldPrice = nil
	comp.Sqft = ptrFloat64(1600)
	comp.Type = model.PropertyTypeCondo

	adj, _ := Adjust(testSubject(), comp, testAsOf, DefaultCompConfig())
	assert.Empty(t, adj)
}

func TestDaysBetween_NeverNegative(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0, daysBetween(testAsOf.AddDate(0, 0, 10), testAsOf))
	assert.Equal(t, 10, daysBetween(testAsOf.AddDate(0, 0, -10), testAsOf))
}
