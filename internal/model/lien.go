package model

import "time"

// LienType identifies the kind of encumbrance recorded against a parcel.
type LienType string

const (
	LienIRS             LienType = "irs"
	LienMunicipal       LienType = "municipal"
	LienCodeEnforcement LienType = "code_enforcement"
	LienHOA             LienType = "hoa"
	LienUtility         LienType = "utility"
	LienMortgage        LienType = "mortgage"
	LienJudgment        LienType = "judgment"
	LienTaxCertificate  LienType = "tax_certificate"
	LienUnknown         LienType = "unknown"
)

// Lien is one recorded encumbrance.
type Lien struct {
	Type         LienType   `json:"type" yaml:"type"`
	Holder       string     `json:"holder,omitempty" yaml:"holder,omitempty"`
	Amount       float64    `json:"amount" yaml:"amount"`
	RecordedDate *time.Time `json:"recorded_date,omitempty" yaml:"recorded_date,omitempty"`
}

// TitleRiskLevel buckets a title-risk score.
type TitleRiskLevel string

const (
	TitleRiskLow    TitleRiskLevel = "low"
	TitleRiskMedium TitleRiskLevel = "medium"
	TitleRiskHigh   TitleRiskLevel = "high"
)

// TitleRiskBasis echoes the inputs behind a title-risk assessment.
type TitleRiskBasis struct {
	PropertyValue     float64 `json:"property_value"`
	SurvivingTotal    float64 `json:"surviving_total"`
	ExtinguishedTotal float64 `json:"extinguished_total"`
	SurvivingRatio    float64 `json:"surviving_ratio"`
	AutoRejectRatio   float64 `json:"auto_reject_ratio"`
	UnknownLienCount  int     `json:"unknown_lien_count"`
}

// TitleRiskAssessment scores surviving liens against property value. Score
// is in [0,1] with higher meaning safer.
type TitleRiskAssessment struct {
	PropertyID       string         `json:"property_id"`
	Score            float64        `json:"score"`
	Level            TitleRiskLevel `json:"level"`
	AutoReject       bool           `json:"auto_reject"`
	SurvivingLiens   []Lien         `json:"surviving_liens"`
	CalculationBasis TitleRiskBasis `json:"calculation_basis"`
}
