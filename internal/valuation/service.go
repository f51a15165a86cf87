// Package valuation wires the pure valuation core to persistence and
// logging. It is the single entry point used by the CLI and the HTTP API.
package valuation

import (
	"context"
	"math"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/taxdeedflow/comps-cli/internal/bid"
	"github.com/taxdeedflow/comps-cli/internal/comps"
	"github.com/taxdeedflow/comps-cli/internal/config"
	"github.com/taxdeedflow/comps-cli/internal/lien"
	"github.com/taxdeedflow/comps-cli/internal/mao"
	"github.com/taxdeedflow/comps-cli/internal/model"
	"github.com/taxdeedflow/comps-cli/internal/resilience"
	"github.com/taxdeedflow/comps-cli/internal/store"
)

// AnalyzeRequest is one subject with its candidate pool. When Candidates is
// empty the service loads the candidates imported for Subject.ID.
type AnalyzeRequest struct {
	Subject    model.SubjectProperty `json:"subject" yaml:"subject"`
	Candidates []model.Comparable    `json:"candidates" yaml:"candidates"`
	Options    comps.Options         `json:"options" yaml:"options"`
}

// PropertyRequest runs the full evaluation for one property: analysis,
// optional title risk, and a bid recommendation when an opening bid is known.
type PropertyRequest struct {
	AnalyzeRequest `yaml:",inline"`
	OpeningBid     *float64     `json:"opening_bid,omitempty" yaml:"opening_bid,omitempty"`
	TargetROI      *float64     `json:"target_roi,omitempty" yaml:"target_roi,omitempty"`
	Liens          []model.Lien `json:"liens,omitempty" yaml:"liens,omitempty"`
}

// Evaluation is the combined output for one property.
type Evaluation struct {
	PropertyID     string                     `json:"property_id"`
	Analysis       *model.CompAnalysisResult  `json:"analysis"`
	TitleRisk      *model.TitleRiskAssessment `json:"title_risk,omitempty"`
	Recommendation *model.BidRecommendation   `json:"recommendation,omitempty"`
}

// Service runs analyses and recommendations. Store may be nil, in which case
// nothing is loaded or persisted.
type Service struct {
	store         store.Store
	cfg           config.ValuationConfig
	engine        *bid.Engine
	mao           *mao.Calculator
	save          bool
	writeAttempts int
}

// Option configures a Service.
type Option func(*Service)

// WithPersistence saves every analysis and recommendation to the store.
func WithPersistence() Option {
	return func(s *Service) { s.save = true }
}

// WithWriteAttempts bounds retries of transient store write failures. A
// value of 1 disables retrying.
func WithWriteAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.writeAttempts = n
		}
	}
}

// WithClock sets the clock stamped on recommendations.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.engine = bid.NewEngine(s.cfg.Bid, bid.WithClock(now)) }
}

// NewService creates a service over the given store and config.
func NewService(st store.Store, cfg config.ValuationConfig, opts ...Option) *Service {
	s := &Service{
		store:  st,
		cfg:    cfg,
		engine: bid.NewEngine(cfg.Bid),
		mao:    mao.NewCalculator(cfg.MAO),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Config returns the valuation config the service was built with.
func (s *Service) Config() config.ValuationConfig { return s.cfg }

// Analyze runs a comparables analysis.
func (s *Service) Analyze(ctx context.Context, req AnalyzeRequest) (*model.CompAnalysisResult, error) {
	log := zap.L().With(zap.String("property_id", req.Subject.ID))

	cands := req.Candidates
	if len(cands) == 0 && s.store != nil && req.Subject.ID != "" {
		loaded, err := s.store.ListCandidates(ctx, req.Subject.ID)
		if err != nil {
			return nil, eris.Wrap(err, "valuation: load candidates")
		}
		log.Debug("loaded stored candidates", zap.Int("count", len(loaded)))
		cands = loaded
	}

	res, err := comps.Analyze(req.Subject, cands, req.Options, s.cfg)
	if err != nil {
		return nil, eris.Wrap(err, "valuation: analyze")
	}

	fields := []zap.Field{
		zap.Int("candidates", len(cands)),
		zap.Int("qualified", len(res.QualifiedComps)),
		zap.Int("extended", len(res.ExtendedComps)),
		zap.Int("rejected", res.RejectedCount),
		zap.String("arv_method", res.ARVMethod),
		zap.String("confidence", string(res.ConfidenceLevel)),
		zap.Bool("expanded", res.SearchCriteria.Expanded),
	}
	if res.ARV != nil {
		fields = append(fields, zap.Float64("arv", *res.ARV))
	}
	log.Info("comparables analyzed", fields...)

	if s.save && s.store != nil {
		rec, err := resilience.Retry(ctx, s.writeRetry("save_analysis"), func(ctx context.Context) (*store.AnalysisRecord, error) {
			return s.store.SaveAnalysis(ctx, res)
		})
		if err != nil {
			return nil, eris.Wrap(err, "valuation: save analysis")
		}
		log.Debug("analysis saved", zap.String("analysis_id", rec.ID))
	}
	return res, nil
}

// Recommend produces a bid recommendation.
func (s *Service) Recommend(ctx context.Context, in model.BidRecommendationInput) (*model.BidRecommendation, error) {
	log := zap.L().With(zap.String("property_id", in.PropertyID))

	rec, err := s.engine.Calculate(in)
	if err != nil {
		return nil, eris.Wrap(err, "valuation: recommend")
	}

	log.Info("bid recommendation calculated",
		zap.String("recommendation_id", rec.ID),
		zap.Float64("moderate", rec.BidRange.Moderate),
		zap.Float64("confidence", rec.ConfidenceLevel),
		zap.Int("warnings", len(rec.RiskWarnings)),
		zap.Bool("exceeds_max_bid", rec.ExceedsMaxBid),
	)

	if s.save && s.store != nil {
		err := resilience.Run(ctx, s.writeRetry("save_recommendation"), func(ctx context.Context) error {
			return s.store.SaveRecommendation(ctx, rec)
		})
		if err != nil {
			return nil, eris.Wrap(err, "valuation: save recommendation")
		}
	}
	return rec, nil
}

// AssessTitle scores surviving liens against property value.
func (s *Service) AssessTitle(in lien.Input) (*model.TitleRiskAssessment, error) {
	res, err := lien.Assess(in, s.cfg.Lien)
	if err != nil {
		return nil, eris.Wrap(err, "valuation: assess title")
	}
	zap.L().Info("title risk assessed",
		zap.String("property_id", in.PropertyID),
		zap.Float64("score", res.Score),
		zap.String("level", string(res.Level)),
		zap.Bool("auto_reject", res.AutoReject),
	)
	return res, nil
}

// Evaluate runs analysis, title risk, and bid recommendation for one property.
// The bid step runs only when an opening bid is supplied and the analysis
// produced an ARV.
func (s *Service) Evaluate(ctx context.Context, req PropertyRequest) (*Evaluation, error) {
	res, err := s.Analyze(ctx, req.AnalyzeRequest)
	if err != nil {
		return nil, err
	}
	out := &Evaluation{PropertyID: req.Subject.ID, Analysis: res}

	var riskScore *float64
	if len(req.Liens) > 0 {
		value := req.Subject.MarketValue
		if value == nil {
			value = res.ARV
		}
		if value == nil {
			zap.L().Warn("skipping title risk: no property value", zap.String("property_id", req.Subject.ID))
			return s.recommendFrom(ctx, req, res, out, nil)
		}
		tr, err := s.AssessTitle(lien.Input{PropertyID: req.Subject.ID, PropertyValue: value, Liens: req.Liens})
		if err != nil {
			return nil, err
		}
		out.TitleRisk = tr
		riskScore = &tr.Score
	}
	return s.recommendFrom(ctx, req, res, out, riskScore)
}

func (s *Service) recommendFrom(ctx context.Context, req PropertyRequest, res *model.CompAnalysisResult, out *Evaluation, riskScore *float64) (*Evaluation, error) {
	if req.OpeningBid == nil {
		return out, nil
	}
	in, err := s.BidInput(req.Subject, res, *req.OpeningBid)
	if err != nil {
		if model.IsInsufficientData(err) {
			zap.L().Warn("skipping bid recommendation", zap.String("property_id", req.Subject.ID), zap.Error(err))
			return out, nil
		}
		return nil, err
	}
	// The bid range must sit on the same cost basis as the analysis MAO.
	if req.Options.HoldingCosts != nil {
		in.HoldingCosts = req.Options.HoldingCosts
	}
	if req.Options.ClosingCosts != nil {
		in.ClosingCosts = req.Options.ClosingCosts
	}
	in.TargetROI = req.TargetROI
	in.RiskScore = riskScore

	rec, err := s.Recommend(ctx, in)
	if err != nil {
		return nil, err
	}
	out.Recommendation = rec
	return out, nil
}

// BidInput derives a bid engine input from an analysis result. It returns an
// *model.InsufficientDataError when the analysis produced no ARV.
func (s *Service) BidInput(subject model.SubjectProperty, res *model.CompAnalysisResult, openingBid float64) (model.BidRecommendationInput, error) {
	if res.ARV == nil {
		return model.BidRecommendationInput{}, &model.InsufficientDataError{What: "no ARV for " + subject.ID}
	}
	arv := *res.ARV

	rehab := 0.0
	if res.RepairEstimate.FullRehabTotal != nil {
		rehab = *res.RepairEstimate.FullRehabTotal
	}
	holding, closing := s.mao.DefaultCarryingCosts(arv)

	return model.BidRecommendationInput{
		PropertyID:       subject.ID,
		ARV:              &arv,
		ARVConfidence:    res.ConfidenceLevel,
		ARVMethod:        res.ARVMethod,
		RehabCost:        &rehab,
		ClosingCosts:     &closing,
		HoldingCosts:     &holding,
		OpeningBid:       &openingBid,
		MarketValue:      subject.MarketValue,
		AssessedValue:    subject.AssessedValue,
		ComparablesCount: res.ComparablesUsed(),
		DataQualityScore: dataQuality(res),
	}, nil
}

// dataQuality averages the completeness sub-score of the comps behind the ARV.
func dataQuality(res *model.CompAnalysisResult) *float64 {
	pool := res.QualifiedComps
	if res.ARVMethod == model.ARVMethodQualifiedPlusExtended {
		pool = append(append([]model.ScoredComparable{}, res.QualifiedComps...), res.ExtendedComps...)
	}
	if len(pool) == 0 {
		return nil
	}
	var sum float64
	for _, c := range pool {
		sum += c.ComponentScores[comps.ComponentCompleteness]
	}
	q := math.Round(sum/float64(len(pool))*1000) / 1000
	return &q
}

// Recommendation fetches a saved recommendation.
func (s *Service) Recommendation(ctx context.Context, id string) (*model.BidRecommendation, error) {
	if s.store == nil {
		return nil, eris.Wrap(store.ErrNotFound, "valuation: no store configured")
	}
	rec, err := s.store.GetRecommendation(ctx, id)
	if err != nil {
		return nil, eris.Wrapf(err, "valuation: get recommendation %s", id)
	}
	return rec, nil
}

// Recommendations lists saved recommendations.
func (s *Service) Recommendations(ctx context.Context, filter store.RecommendationFilter) ([]model.BidRecommendation, error) {
	if s.store == nil {
		return nil, eris.New("valuation: no store configured")
	}
	recs, err := s.store.ListRecommendations(ctx, filter)
	if err != nil {
		return nil, eris.Wrap(err, "valuation: list recommendations")
	}
	return recs, nil
}

// ImportCandidates stores a candidate pool for later analyses.
func (s *Service) ImportCandidates(ctx context.Context, propertyID string, cands []model.Comparable) (int64, error) {
	if s.store == nil {
		return 0, eris.New("valuation: no store configured")
	}
	if propertyID == "" {
		return 0, model.ValidationErrors{{Field: "property_id", Message: "is required"}}
	}
	n, err := resilience.Retry(ctx, s.writeRetry("save_candidates"), func(ctx context.Context) (int64, error) {
		return s.store.SaveCandidates(ctx, propertyID, cands)
	})
	if err != nil {
		return 0, eris.Wrap(err, "valuation: import candidates")
	}
	zap.L().Info("candidates imported", zap.String("property_id", propertyID), zap.Int64("rows", n))
	return n, nil
}

func (s *Service) writeRetry(op string) resilience.Policy {
	return resilience.StorePolicy("store", op, s.writeAttempts)
}
