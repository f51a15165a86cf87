package bid

import (
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/taxdeedflow/comps-cli/internal/config"
	"github.com/taxdeedflow/comps-cli/internal/model"
)

// idNamespace scopes recommendation IDs.
var idNamespace = uuid.MustParse("6f1c2a4e-8b3d-5e7f-9a0b-1c2d3e4f5a6b")

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source used for CreatedAt/UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// Engine computes bid recommendations. It holds no mutable state and is
// safe for concurrent use.
type Engine struct {
	cfg config.BidConfig
	now func() time.Time
}

// NewEngine creates an Engine with the given thresholds.
func NewEngine(cfg config.BidConfig, opts ...Option) *Engine {
	e := &Engine{cfg: cfg, now: time.Now}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Calculate validates the input and produces a recommendation. Invalid input
// returns model.ValidationErrors listing every bad field. A violated tier
// ordering or a non-finite result returns a *model.CalculationError.
func (e *Engine) Calculate(in model.BidRecommendationInput) (*model.BidRecommendation, error) {
	if errs := ValidateInput(in); len(errs) > 0 {
		return nil, errs
	}

	arv := *in.ARV
	rehab := *in.RehabCost
	closing := deref(in.ClosingCosts)
	holding := deref(in.HoldingCosts)
	targetROI := e.cfg.DefaultTargetROI
	if in.TargetROI != nil {
		targetROI = *in.TargetROI
	}
	opening := *in.OpeningBid

	tib := rehab + closing + holding
	maxBid := arv/(1+targetROI/100) - tib

	var tiers model.BidRange
	if maxBid > 0 {
		tiers = model.BidRange{
			Conservative: cents(maxBid * e.cfg.ConservativeFactor),
			Moderate:     cents(maxBid),
			Aggressive:   cents(math.Min(maxBid*e.cfg.AggressiveFactor, arv-tib)),
		}
	}
	if err := checkTiers(tiers); err != nil {
		return nil, err
	}

	var roi *float64
	if tiers.Moderate > 0 {
		v := cents((arv - tib - tiers.Moderate) / tiers.Moderate * 100)
		roi = &v
	}

	confidence := e.confidence(in)
	exceeds := opening > tiers.Aggressive

	id, err := recommendationID(in)
	if err != nil {
		return nil, err
	}
	now := e.now().UTC()

	rec := &model.BidRecommendation{
		ID:              id,
		PropertyID:      in.PropertyID,
		BidRange:        tiers,
		ConfidenceLevel: confidence,
		ROIProjection:   roi,
		RiskScore:       in.RiskScore,
		CalculationBasis: model.CalculationBasis{
			ARV:              arv,
			RehabCost:        rehab,
			ClosingCosts:     closing,
			HoldingCosts:     holding,
			TargetROI:        targetROI,
			TotalInvestment:  cents(tib),
			MaxBid:           cents(maxBid),
			ARVMethod:        in.ARVMethod,
			ARVConfidence:    arvConfidence(in.ARVConfidence),
			ComparablesCount: in.ComparablesCount,
		},
		ARVEstimate: arv,
		CostBreakdown: model.CostBreakdown{
			Rehab:   rehab,
			Closing: closing,
			Holding: holding,
			Total:   cents(tib),
		},
		ExceedsMaxBid:         exceeds,
		RecommendationVersion: RecommendationVersion,
		DataQualityScore:      in.DataQualityScore,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	rec.RiskWarnings = e.warnings(in, rec, maxBid)

	return rec, nil
}

// confidence scales the ARV-confidence factor by data quality and the
// external risk score, clamped to [0,1].
func (e *Engine) confidence(in model.BidRecommendationInput) float64 {
	var c float64
	switch arvConfidence(in.ARVConfidence) {
	case model.ConfidenceHigh:
		c = e.cfg.HighConfidence
	case model.ConfidenceMedium:
		c = e.cfg.MediumConfidence
	default:
		c = e.cfg.LowConfidence
	}
	if in.DataQualityScore != nil {
		c *= *in.DataQualityScore
	}
	if in.RiskScore != nil && *in.RiskScore < e.cfg.RiskScoreThreshold {
		c *= 1 - e.cfg.RiskPenalty
	}
	return math.Round(math.Max(0, math.Min(1, c))*1000) / 1000
}

func checkTiers(t model.BidRange) error {
	for _, v := range []float64{t.Conservative, t.Moderate, t.Aggressive} {
		if !finite(v) || v < 0 {
			return model.NewCalculationError("bid.tiers", "invalid tier value %v", v)
		}
	}
	if t.Conservative > t.Moderate || t.Moderate > t.Aggressive {
		return model.NewCalculationError("bid.tiers",
			"tiers out of order: conservative=%v moderate=%v aggressive=%v",
			t.Conservative, t.Moderate, t.Aggressive)
	}
	return nil
}

// recommendationID derives a stable UUIDv5 from the canonical JSON of the
// input and the rule version.
func recommendationID(in model.BidRecommendationInput) (string, error) {
	b, err := json.Marshal(struct {
		Version string                       `json:"version"`
		Input   model.BidRecommendationInput `json:"input"`
	}{RecommendationVersion, in})
	if err != nil {
		return "", eris.Wrap(err, "bid: encode input for id")
	}
	return uuid.NewSHA1(idNamespace, b).String(), nil
}

// arvConfidence treats an unstated confidence as low.
func arvConfidence(c model.ConfidenceLevel) model.ConfidenceLevel {
	if c == "" {
		return model.ConfidenceLow
	}
	return c
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func cents(v float64) float64 {
	return math.Round(v*100) / 100
}
