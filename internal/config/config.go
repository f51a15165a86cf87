package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Valuation ValuationConfig `yaml:"valuation" mapstructure:"valuation"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
	// ConnectAttempts bounds startup connection retries.
	ConnectAttempts int `yaml:"connect_attempts" mapstructure:"connect_attempts"`
	// WriteAttempts bounds retries of transient write failures.
	WriteAttempts int `yaml:"write_attempts" mapstructure:"write_attempts"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	RateLimitRPS   float64  `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	RateLimitBurst int      `yaml:"rate_limit_burst" mapstructure:"rate_limit_burst"`
	CORSOrigins    []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxConcurrency int `yaml:"max_concurrency" mapstructure:"max_concurrency"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ValuationConfig is the single immutable value carrying every weight,
// threshold, and rate used by the valuation core. It is passed by value.
type ValuationConfig struct {
	Comps  CompConfig   `yaml:"comps" mapstructure:"comps"`
	Repair RepairConfig `yaml:"repair" mapstructure:"repair"`
	MAO    MAOConfig    `yaml:"mao" mapstructure:"mao"`
	Bid    BidConfig    `yaml:"bid" mapstructure:"bid"`
	Lien   LienConfig   `yaml:"lien" mapstructure:"lien"`
}

// CompConfig configures comparable adjustment, scoring, grading, and the
// search window applied to the candidate pool.
type CompConfig struct {
	// Weights (sum = 100).
	DistanceWeight     float64 `yaml:"distance_weight" mapstructure:"distance_weight"`
	RecencyWeight      float64 `yaml:"recency_weight" mapstructure:"recency_weight"`
	SizeWeight         float64 `yaml:"size_weight" mapstructure:"size_weight"`
	TypeWeight         float64 `yaml:"type_weight" mapstructure:"type_weight"`
	CompletenessWeight float64 `yaml:"completeness_weight" mapstructure:"completeness_weight"`

	// Sub-score decay.
	DistanceThresholdMiles float64 `yaml:"distance_threshold_miles" mapstructure:"distance_threshold_miles"`
	DistanceFalloffMiles   float64 `yaml:"distance_falloff_miles" mapstructure:"distance_falloff_miles"`
	RecencyWindowDays      int     `yaml:"recency_window_days" mapstructure:"recency_window_days"`
	RecencyFalloffDays     int     `yaml:"recency_falloff_days" mapstructure:"recency_falloff_days"`

	// Grade thresholds (score >= threshold).
	GradeA float64 `yaml:"grade_a" mapstructure:"grade_a"`
	GradeB float64 `yaml:"grade_b" mapstructure:"grade_b"`
	GradeC float64 `yaml:"grade_c" mapstructure:"grade_c"`
	GradeD float64 `yaml:"grade_d" mapstructure:"grade_d"`

	// Dollar adjustments.
	LotRatePerSqft      float64 `yaml:"lot_rate_per_sqft" mapstructure:"lot_rate_per_sqft"`
	BedroomValue        float64 `yaml:"bedroom_value" mapstructure:"bedroom_value"`
	BathroomValue       float64 `yaml:"bathroom_value" mapstructure:"bathroom_value"`
	AgeRatePerYear      float64 `yaml:"age_rate_per_year" mapstructure:"age_rate_per_year"`
	AgeAdjustmentCap    float64 `yaml:"age_adjustment_cap" mapstructure:"age_adjustment_cap"`
	MarketTrendPerMonth float64 `yaml:"market_trend_per_month" mapstructure:"market_trend_per_month"`
	TypeMismatchPct     float64 `yaml:"type_mismatch_pct" mapstructure:"type_mismatch_pct"`

	// Search window and ARV thresholds.
	DefaultRadiusMiles   float64 `yaml:"default_radius_miles" mapstructure:"default_radius_miles"`
	DefaultDaysBack      int     `yaml:"default_days_back" mapstructure:"default_days_back"`
	DefaultMaxCandidates int     `yaml:"default_max_candidates" mapstructure:"default_max_candidates"`
	MinQualified         int     `yaml:"min_qualified" mapstructure:"min_qualified"`
	HighConfidenceMin    int     `yaml:"high_confidence_min" mapstructure:"high_confidence_min"`
	ExpandSearch         bool    `yaml:"expand_search" mapstructure:"expand_search"`
	ExpansionFactor      float64 `yaml:"expansion_factor" mapstructure:"expansion_factor"`
}

// RepairRate is the $/sqft pair for one rehab scope.
type RepairRate struct {
	Cosmetic  float64 `yaml:"cosmetic" mapstructure:"cosmetic"`
	FullRehab float64 `yaml:"full_rehab" mapstructure:"full_rehab"`
}

// RepairConfig configures the repair estimator.
type RepairConfig struct {
	Rates          map[string]RepairRate `yaml:"rates" mapstructure:"rates"`
	SellingCostPct float64               `yaml:"selling_cost_pct" mapstructure:"selling_cost_pct"`
	DefaultScope   string                `yaml:"default_scope" mapstructure:"default_scope"`
}

// MAOConfig configures the maximum allowable offer bounds.
type MAOConfig struct {
	RulePct         float64 `yaml:"rule_pct" mapstructure:"rule_pct"`
	ConservativePct float64 `yaml:"conservative_pct" mapstructure:"conservative_pct"`
	AggressivePct   float64 `yaml:"aggressive_pct" mapstructure:"aggressive_pct"`
	HoldingCostPct  float64 `yaml:"holding_cost_pct" mapstructure:"holding_cost_pct"`
	ClosingCostPct  float64 `yaml:"closing_cost_pct" mapstructure:"closing_cost_pct"`
}

// BidConfig configures the bid recommendation engine.
type BidConfig struct {
	ConservativeFactor    float64 `yaml:"conservative_factor" mapstructure:"conservative_factor"`
	AggressiveFactor      float64 `yaml:"aggressive_factor" mapstructure:"aggressive_factor"`
	DefaultTargetROI      float64 `yaml:"default_target_roi" mapstructure:"default_target_roi"`
	HighConfidence        float64 `yaml:"high_confidence" mapstructure:"high_confidence"`
	MediumConfidence      float64 `yaml:"medium_confidence" mapstructure:"medium_confidence"`
	LowConfidence         float64 `yaml:"low_confidence" mapstructure:"low_confidence"`
	RiskScoreThreshold    float64 `yaml:"risk_score_threshold" mapstructure:"risk_score_threshold"`
	RiskPenalty           float64 `yaml:"risk_penalty" mapstructure:"risk_penalty"`
	NearMaxPct            float64 `yaml:"near_max_pct" mapstructure:"near_max_pct"`
	MinComparables        int     `yaml:"min_comparables" mapstructure:"min_comparables"`
	MinDataQuality        float64 `yaml:"min_data_quality" mapstructure:"min_data_quality"`
	MaxRehabRatio         float64 `yaml:"max_rehab_ratio" mapstructure:"max_rehab_ratio"`
	MarketDivergenceRatio float64 `yaml:"market_divergence_ratio" mapstructure:"market_divergence_ratio"`
}

// LienConfig configures the surviving-lien title-risk scorer.
type LienConfig struct {
	AutoRejectRatio     float64  `yaml:"auto_reject_ratio" mapstructure:"auto_reject_ratio"`
	LowRiskThreshold    float64  `yaml:"low_risk_threshold" mapstructure:"low_risk_threshold"`
	MediumRiskThreshold float64  `yaml:"medium_risk_threshold" mapstructure:"medium_risk_threshold"`
	UnknownLienPenalty  float64  `yaml:"unknown_lien_penalty" mapstructure:"unknown_lien_penalty"`
	SurvivingTypes      []string `yaml:"surviving_types" mapstructure:"surviving_types"`
}

// Load reads configuration from .env, config file, and environment.
func Load() (*Config, error) {
	// .env is optional; real environment variables win over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("COMPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "comps.db")
	v.SetDefault("store.connect_attempts", 3)
	v.SetDefault("store.write_attempts", 3)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit_rps", 20.0)
	v.SetDefault("server.rate_limit_burst", 40)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("batch.max_concurrency", 8)

	v.SetDefault("valuation.comps.distance_weight", 20)
	v.SetDefault("valuation.comps.recency_weight", 15)
	v.SetDefault("valuation.comps.size_weight", 20)
	v.SetDefault("valuation.comps.type_weight", 35)
	v.SetDefault("valuation.comps.completeness_weight", 10)
	v.SetDefault("valuation.comps.distance_threshold_miles", 0.5)
	v.SetDefault("valuation.comps.distance_falloff_miles", 2.5)
	v.SetDefault("valuation.comps.recency_window_days", 180)
	v.SetDefault("valuation.comps.recency_falloff_days", 365)
	v.SetDefault("valuation.comps.grade_a", 85)
	v.SetDefault("valuation.comps.grade_b", 70)
	v.SetDefault("valuation.comps.grade_c", 55)
	v.SetDefault("valuation.comps.grade_d", 40)
	v.SetDefault("valuation.comps.lot_rate_per_sqft", 2.0)
	v.SetDefault("valuation.comps.bedroom_value", 5000)
	v.SetDefault("valuation.comps.bathroom_value", 3500)
	v.SetDefault("valuation.comps.age_rate_per_year", 500)
	v.SetDefault("valuation.comps.age_adjustment_cap", 15000)
	v.SetDefault("valuation.comps.market_trend_per_month", 0.0)
	v.SetDefault("valuation.comps.type_mismatch_pct", 0.10)
	v.SetDefault("valuation.comps.default_radius_miles", 1.0)
	v.SetDefault("valuation.comps.default_days_back", 180)
	v.SetDefault("valuation.comps.default_max_candidates", 25)
	v.SetDefault("valuation.comps.min_qualified", 3)
	v.SetDefault("valuation.comps.high_confidence_min", 5)
	v.SetDefault("valuation.comps.expand_search", true)
	v.SetDefault("valuation.comps.expansion_factor", 2.0)

	v.SetDefault("valuation.repair.rates", map[string]any{
		"cosmetic": map[string]any{"cosmetic": 10, "full_rehab": 20},
		"light":    map[string]any{"cosmetic": 15, "full_rehab": 30},
		"moderate": map[string]any{"cosmetic": 20, "full_rehab": 45},
		"heavy":    map[string]any{"cosmetic": 30, "full_rehab": 65},
		"gut":      map[string]any{"cosmetic": 45, "full_rehab": 90},
	})
	v.SetDefault("valuation.repair.selling_cost_pct", 0.10)
	v.SetDefault("valuation.repair.default_scope", "moderate")

	v.SetDefault("valuation.mao.rule_pct", 0.65)
	v.SetDefault("valuation.mao.conservative_pct", 0.60)
	v.SetDefault("valuation.mao.aggressive_pct", 0.70)
	v.SetDefault("valuation.mao.holding_cost_pct", 0.02)
	v.SetDefault("valuation.mao.closing_cost_pct", 0.03)

	v.SetDefault("valuation.bid.conservative_factor", 0.85)
	v.SetDefault("valuation.bid.aggressive_factor", 1.10)
	v.SetDefault("valuation.bid.default_target_roi", 25.0)
	v.SetDefault("valuation.bid.high_confidence", 0.9)
	v.SetDefault("valuation.bid.medium_confidence", 0.7)
	v.SetDefault("valuation.bid.low_confidence", 0.5)
	v.SetDefault("valuation.bid.risk_score_threshold", 0.5)
	v.SetDefault("valuation.bid.risk_penalty", 0.5)
	v.SetDefault("valuation.bid.near_max_pct", 0.10)
	v.SetDefault("valuation.bid.min_comparables", 3)
	v.SetDefault("valuation.bid.min_data_quality", 0.5)
	v.SetDefault("valuation.bid.max_rehab_ratio", 0.5)
	v.SetDefault("valuation.bid.market_divergence_ratio", 1.5)

	v.SetDefault("valuation.lien.auto_reject_ratio", 0.30)
	v.SetDefault("valuation.lien.low_risk_threshold", 0.70)
	v.SetDefault("valuation.lien.medium_risk_threshold", 0.40)
	v.SetDefault("valuation.lien.unknown_lien_penalty", 0.05)
	v.SetDefault("valuation.lien.surviving_types", []string{
		"irs", "municipal", "code_enforcement", "hoa", "utility", "unknown",
	})
}

// Validate checks the settings a given command needs.
func (c *Config) Validate(mode string) error {
	var errs []string

	if c.Batch.MaxConcurrency < 1 || c.Batch.MaxConcurrency > 64 {
		errs = append(errs, "batch.max_concurrency must be between 1 and 64")
	}

	needsStore := false
	switch mode {
	case "analyze", "bid", "title-risk", "validate":
		// Store is only touched with --save or --property-id.
	case "batch":
	case "import", "recommendations":
		needsStore = true
	case "serve":
		needsStore = true
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
		if c.Server.RateLimitRPS < 0 {
			errs = append(errs, "server.rate_limit_rps must be >= 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if needsStore {
		errs = append(errs, c.Store.validate()...)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (s StoreConfig) validate() []string {
	var errs []string
	switch s.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Sprintf("store.driver must be sqlite or postgres (got %q)", s.Driver))
	}
	if s.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required")
	}
	return errs
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
