package bid

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taxdeedflow/comps-cli/internal/model"
)

func TestValidateInput(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(in *model.BidRecommendationInput)
		want   []string
	}{
		{"valid", func(*model.BidRecommendationInput) {}, nil},
		{"missing arv", func(in *model.BidRecommendationInput) { in.ARV = nil }, []string{"arv"}},
		{"zero arv", func(in *model.BidRecommendationInput) { in.ARV = ptrFloat64(0) }, []string{"arv"}},
		{"nan arv", func(in *model.BidRecommendationInput) { in.ARV = ptrFloat64(math.NaN()) }, []string{"arv"}},
		{"inf rehab", func(in *model.BidRecommendationInput) { in.RehabCost = ptrFloat64(math.Inf(1)) }, []string{"rehab_cost"}},
		{"zero rehab is fine", func(in *model.BidRecommendationInput) { in.RehabCost = ptrFloat64(0) }, nil},
		{"negative closing", func(in *model.BidRecommendationInput) { in.ClosingCosts = ptrFloat64(-1) }, []string{"closing_costs"}},
		{"negative holding", func(in *model.BidRecommendationInput) { in.HoldingCosts = ptrFloat64(-1) }, []string{"holding_costs"}},
		{"zero target roi", func(in *model.BidRecommendationInput) { in.TargetROI = ptrFloat64(0) }, []string{"target_roi"}},
		{"missing opening bid", func(in *model.BidRecommendationInput) { in.OpeningBid = nil }, []string{"opening_bid"}},
		{"negative market value", func(in *model.BidRecommendationInput) { in.MarketValue = ptrFloat64(-5) }, []string{"market_value"}},
		{"negative comps", func(in *model.BidRecommendationInput) { in.ComparablesCount = -1 }, []string{"comparables_count"}},
		{"data quality above 1", func(in *model.BidRecommendationInput) { in.DataQualityScore = ptrFloat64(1.2) }, []string{"data_quality_score"}},
		{"risk below 0", func(in *model.BidRecommendationInput) { in.RiskScore = ptrFloat64(-0.1) }, []string{"risk_score"}},
		{"unknown confidence", func(in *model.BidRecommendationInput) { in.ARVConfidence = "certain" }, []string{"arv_confidence"}},
		{
			name: "reports every field",
			mutate: func(in *model.BidRecommendationInput) {
				in.ARV = nil
				in.RehabCost = nil
				in.OpeningBid = ptrFloat64(-1)
				in.RiskScore = ptrFloat64(2)
			},
			want: []string{"arv", "rehab_cost", "opening_bid", "risk_score"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := scenarioB()
			tt.mutate(&in)
			errs := ValidateInput(in)
			if tt.want == nil {
				assert.Empty(t, errs)
				return
			}
			assert.Equal(t, tt.want, errs.Fields())
			for _, e := range errs {
				assert.NotEmpty(t, e.Message)
			}
		})
	}
}
