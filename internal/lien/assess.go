// Package lien scores the title risk left by liens that survive a tax-deed
// sale.
package lien

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/taxdeedflow/comps-cli/internal/config"
	"github.com/taxdeedflow/comps-cli/internal/model"
)

// DefaultConfig returns the default surviving-lien thresholds.
func DefaultConfig() config.LienConfig {
	return config.LienConfig{
		AutoRejectRatio:     0.30,
		LowRiskThreshold:    0.70,
		MediumRiskThreshold: 0.40,
		UnknownLienPenalty:  0.05,
		SurvivingTypes: []string{
			string(model.LienIRS),
			string(model.LienMunicipal),
			string(model.LienCodeEnforcement),
			string(model.LienHOA),
			string(model.LienUtility),
			string(model.LienUnknown),
		},
	}
}

// ValidateConfig checks that a LienConfig is internally consistent.
func ValidateConfig(c config.LienConfig) error {
	var errs []string
	if c.AutoRejectRatio <= 0 || c.AutoRejectRatio > 1 {
		errs = append(errs, "auto_reject_ratio must be in (0, 1]")
	}
	if !(c.LowRiskThreshold > c.MediumRiskThreshold && c.MediumRiskThreshold > 0 && c.LowRiskThreshold <= 1) {
		errs = append(errs, "thresholds must satisfy 1 >= low_risk_threshold > medium_risk_threshold > 0")
	}
	if c.UnknownLienPenalty < 0 {
		errs = append(errs, "unknown_lien_penalty must be >= 0")
	}
	if len(errs) > 0 {
		return eris.Errorf("lien: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Input is a property value plus its recorded liens.
type Input struct {
	PropertyID    string       `json:"property_id" yaml:"property_id"`
	PropertyValue *float64     `json:"property_value" yaml:"property_value"`
	Liens         []model.Lien `json:"liens" yaml:"liens"`
}

// Validate reports every problem with the input.
func (in Input) Validate() model.ValidationErrors {
	var errs model.ValidationErrors
	switch v := in.PropertyValue; {
	case v == nil:
		errs = append(errs, model.ValidationError{Field: "property_value", Message: "is required"})
	case math.IsNaN(*v) || math.IsInf(*v, 0) || *v <= 0:
		errs = append(errs, model.ValidationError{Field: "property_value", Message: "must be a finite number greater than 0"})
	}
	for i, l := range in.Liens {
		if math.IsNaN(l.Amount) || math.IsInf(l.Amount, 0) || l.Amount < 0 {
			errs = append(errs, model.ValidationError{
				Field:   fmt.Sprintf("liens[%d].amount", i),
				Message: "must be a finite number >= 0",
			})
		}
	}
	return errs
}

// Assess splits liens into surviving and extinguished, then scores the
// surviving total against property value. Higher scores are safer.
func Assess(in Input, cfg config.LienConfig) (*model.TitleRiskAssessment, error) {
	if errs := in.Validate(); len(errs) > 0 {
		return nil, errs
	}

	surviving := make(map[model.LienType]bool, len(cfg.SurvivingTypes))
	for _, t := range cfg.SurvivingTypes {
		surviving[model.LienType(strings.ToLower(t))] = true
	}

	basis := model.TitleRiskBasis{
		PropertyValue:   *in.PropertyValue,
		AutoRejectRatio: cfg.AutoRejectRatio,
	}
	kept := []model.Lien{}
	for _, l := range in.Liens {
		typ := normalizeType(l.Type)
		if !surviving[typ] {
			basis.ExtinguishedTotal += l.Amount
			continue
		}
		basis.SurvivingTotal += l.Amount
		if typ == model.LienUnknown {
			basis.UnknownLienCount++
		}
		kept = append(kept, l)
	}
	basis.SurvivingRatio = round4(basis.SurvivingTotal / basis.PropertyValue)

	out := &model.TitleRiskAssessment{
		PropertyID:       in.PropertyID,
		SurvivingLiens:   kept,
		CalculationBasis: basis,
	}

	if basis.SurvivingRatio > cfg.AutoRejectRatio {
		out.AutoReject = true
		out.Score = 0
	} else {
		score := 1 - basis.SurvivingRatio/cfg.AutoRejectRatio - cfg.UnknownLienPenalty*float64(basis.UnknownLienCount)
		out.Score = round4(math.Max(0, math.Min(1, score)))
	}

	switch {
	case out.Score >= cfg.LowRiskThreshold:
		out.Level = model.TitleRiskLow
	case out.Score >= cfg.MediumRiskThreshold:
		out.Level = model.TitleRiskMedium
	default:
		out.Level = model.TitleRiskHigh
	}
	return out, nil
}

// normalizeType maps empty or unrecognized lien types to unknown.
func normalizeType(t model.LienType) model.LienType {
	switch v := model.LienType(strings.ToLower(strings.TrimSpace(string(t)))); v {
	case model.LienIRS, model.LienMunicipal, model.LienCodeEnforcement, model.LienHOA,
		model.LienUtility, model.LienMortgage, model.LienJudgment, model.LienTaxCertificate:
		return v
	default:
		return model.LienUnknown
	}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
