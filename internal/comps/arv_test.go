package comps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taxdeedflow/comps-cli/internal/model"
)

func pool(prices []float64, weights []float64, grade model.Grade) []model.ScoredComparable {
	out := make([]model.ScoredComparable, len(prices))
	for i := range prices {
		out[i] = scored("p", i, weights[i], grade, ptrFloat64(prices[i]))
	}
	return out
}

func TestWeightedMedian(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		prices  []float64
		weights []float64
		want    float64
	}{
		{"equal weights odd", []float64{220_000, 200_000, 210_000, 205_000, 215_000}, []float64{1, 1, 1, 1, 1}, 210_000},
		{"equal weights even takes upper middle", []float64{100, 200, 300, 400}, []float64{1, 1, 1, 1}, 300},
		{"two equal weights takes the higher", []float64{200, 100}, []float64{1, 1}, 200},
		{"exactly half is not enough", []float64{100, 200, 300}, []float64{2, 1, 1}, 200},
		{"heavy low comp pulls down", []float64{100, 200, 300}, []float64{90, 5, 5}, 100},
		{"heavy high comp pulls up", []float64{100, 200, 300}, []float64{5, 5, 90}, 300},
		{"zero weights fall back to equal", []float64{100, 200, 300}, []float64{0, 0, 0}, 200},
		{"single", []float64{150}, []float64{70}, 150},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WeightedMedian(pool(tt.prices, tt.weights, model.GradeA)))
		})
	}
	assert.Equal(t, 0.0, WeightedMedian(nil))
}

func TestAggregateARV_ScenarioA(t *testing.T) {
	t.Parallel()
	c := Classification{Qualified: pool(
		[]float64{200_000, 205_000, 210_000, 215_000, 220_000},
		[]float64{100, 100, 100, 100, 100},
		model.GradeA,
	)}

	got := AggregateARV(c, testSubject(), DefaultCompConfig())

	require.NotNil(t, got.ARV)
	assert.Equal(t, 210_000.0, *got.ARV)
	assert.Equal(t, model.ConfidenceHigh, got.Confidence)
	assert.Equal(t, model.ARVMethodQualified, got.Method)
	assert.Equal(t, 5, got.CompsUsed)
	require.NotNil(t, got.PerSqft)
	assert.InDelta(t, 116.67, *got.PerSqft, 0.01)
	assert.Equal(t, 200_000.0, *got.Low)
	assert.Equal(t, 220_000.0, *got.High)
}

func TestFallbackChain_TiersInIsolation(t *testing.T) {
	t.Parallel()
	chain := fallbackChain(DefaultCompConfig())
	require.Len(t, chain, 2)

	two := Classification{Qualified: pool([]float64{1, 2}, []float64{80, 80}, model.GradeB)}
	_, ok := chain[0].try(two)
	assert.False(t, ok, "qualified tier needs 3")

	p, ok := chain[1].try(two)
	assert.True(t, ok)
	assert.Len(t, p, 2)

	_, ok = chain[1].try(Classification{})
	assert.False(t, ok)
}

func TestAggregateARV_FallsBackToExtended(t *testing.T) {
	t.Parallel()
	c := Classification{
		Qualified: pool([]float64{200_000}, []float64{90}, model.GradeA),
		Extended:  pool([]float64{180_000, 190_000}, []float64{60, 60}, model.GradeC),
	}
	got := AggregateARV(c, testSubject(), DefaultCompConfig())

	require.NotNil(t, got.ARV)
	assert.Equal(t, model.ARVMethodQualifiedPlusExtended, got.Method)
	assert.Equal(t, 3, got.CompsUsed)
	assert.Equal(t, 190_000.0, *got.ARV)
	assert.Equal(t, model.ConfidenceLow, got.Confidence)
}

func TestAggregateARV_NoComps(t *testing.T) {
	t.Parallel()
	got := AggregateARV(Classification{Rejected: 4}, testSubject(), DefaultCompConfig())

	assert.Nil(t, got.ARV)
	assert.Nil(t, got.PerSqft)
	assert.Equal(t, model.ARVMethodNone, got.Method)
	assert.Equal(t, model.ConfidenceLow, got.Confidence)
}

func TestConfidenceLevel(t *testing.T) {
	t.Parallel()
	cfg := DefaultCompConfig()
	assert.Equal(t, model.ConfidenceHigh, confidenceLevel(pool(make([]float64, 5), make([]float64, 5), model.GradeB), cfg))
	assert.Equal(t, model.ConfidenceMedium, confidenceLevel(pool(make([]float64, 4), make([]float64, 4), model.GradeA), cfg))
	assert.Equal(t, model.ConfidenceLow, confidenceLevel(pool(make([]float64, 2), make([]float64, 2), model.GradeA), cfg))

	mixed := append(pool(make([]float64, 3), make([]float64, 3), model.GradeB),
		pool(make([]float64, 2), make([]float64, 2), model.GradeC)...)
	assert.Equal(t, model.ConfidenceMedium, confidenceLevel(mixed, cfg), "average below B")
}
