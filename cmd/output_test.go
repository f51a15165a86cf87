package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/taxdeedflow/comps-cli/internal/model"
)

func ptrFloat64(v float64) *float64 { return &v }

func TestMoney(t *testing.T) {
	assert.Equal(t, "-", money(nil))
	assert.Equal(t, "$1234.50", money(ptrFloat64(1234.5)))
}

func TestCheckFormat(t *testing.T) {
	assert.NoError(t, checkFormat("table"))
	assert.NoError(t, checkFormat("json"))
	assert.Error(t, checkFormat("csv"))
}

func TestFormatAnalysis(t *testing.T) {
	res := &model.CompAnalysisResult{
		SubjectID:       "p1",
		ARV:             ptrFloat64(210_000),
		ARVMethod:       model.ARVMethodQualified,
		ConfidenceLevel: model.ConfidenceHigh,
		QualifiedComps: []model.ScoredComparable{{
			Comparable: model.Comparable{ID: "c1", SoldPrice: ptrFloat64(200_000)},
			CompGrade:  model.GradeA,
			CompScore:  97.5,
		}},
		RejectedCount: 1,
	}

	var buf bytes.Buffer
	formatAnalysis(&buf, res)
	out := buf.String()
	assert.Contains(t, out, "$210000.00 (qualified, high confidence)")
	assert.Contains(t, out, "1 qualified, 0 extended, 1 rejected")
	assert.Contains(t, out, "c1")
	assert.Contains(t, out, "97.50")
}

func TestFormatAnalysis_NoComps(t *testing.T) {
	var buf bytes.Buffer
	formatAnalysis(&buf, &model.CompAnalysisResult{SubjectID: "p1", ARVMethod: model.ARVMethodNone, ConfidenceLevel: model.ConfidenceLow})
	assert.Contains(t, buf.String(), "ARV:")
	assert.NotContains(t, buf.String(), "BUCKET")
}

func TestFormatRecommendation(t *testing.T) {
	rec := &model.BidRecommendation{
		ID:         "r1",
		PropertyID: "p1",
		BidRange:   model.BidRange{Conservative: 85, Moderate: 100, Aggressive: 110},
		RiskWarnings: []model.RiskWarning{
			{Code: "FEW_COMPARABLES", Severity: model.SeverityHigh, Message: "Only 1 comparable"},
		},
	}
	var buf bytes.Buffer
	formatRecommendation(&buf, rec)
	out := buf.String()
	assert.Contains(t, out, "moderate $100.00")
	assert.Contains(t, out, "ROI projection:")
	assert.Contains(t, out, "FEW_COMPARABLES")
	assert.Contains(t, out, "high")
}

func TestFormatRecommendationsList(t *testing.T) {
	recs := []model.BidRecommendation{
		{ID: "r1", PropertyID: "p1", CreatedAt: time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC)},
		{ID: "r2", PropertyID: "p2", RiskWarnings: []model.RiskWarning{{Severity: model.SeverityCritical}}},
	}
	var buf bytes.Buffer
	formatRecommendationsList(&buf, recs)
	out := buf.String()
	assert.Contains(t, out, "2026-01-02 03:04")
	assert.Contains(t, out, "critical")
}

func TestFormatValidation(t *testing.T) {
	var buf bytes.Buffer
	formatValidation(&buf, nil)
	assert.Equal(t, "valid\n", buf.String())

	buf.Reset()
	formatValidation(&buf, model.ValidationErrors{{Field: "arv", Message: "is required"}})
	assert.Contains(t, buf.String(), "arv")
	assert.Contains(t, buf.String(), "is required")
}
