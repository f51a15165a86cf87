// Package export writes analysis results and bid recommendations to XLSX
// workbooks.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/taxdeedflow/comps-cli/internal/model"
)

// Sheet names.
const (
	SheetSummary     = "Summary"
	SheetComparables = "Comparables"
	SheetBid         = "Bid"
)

const (
	moneyFormat = "#,##0.00"
	dateLayout  = "2006-01-02"
)

var comparableHeader = []string{
	"Bucket", "ID", "Address", "Grade", "Score", "Price", "Adjusted Price",
	"Total Adjustment", "Sqft", "Beds", "Baths", "Year Built", "Type",
	"Sale Date", "Distance (mi)", "Adjustments",
}

// Workbook builds the Summary and Comparables sheets for res, plus a Bid
// sheet when rec is non-nil.
func Workbook(res *model.CompAnalysisResult, rec *model.BidRecommendation) (*xlsx.File, error) {
	if res == nil {
		return nil, eris.New("export: nil analysis result")
	}
	f := xlsx.NewFile()

	if err := summarySheet(f, res); err != nil {
		return nil, err
	}
	if err := comparablesSheet(f, res); err != nil {
		return nil, err
	}
	if rec != nil {
		if err := bidSheet(f, rec); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// WriteWorkbook saves the workbook to path.
func WriteWorkbook(path string, res *model.CompAnalysisResult, rec *model.BidRecommendation) error {
	f, err := Workbook(res, rec)
	if err != nil {
		return err
	}
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}

// Write streams the workbook to w.
func Write(w io.Writer, res *model.CompAnalysisResult, rec *model.BidRecommendation) error {
	f, err := Workbook(res, rec)
	if err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export: write workbook")
	}
	return nil
}

func summarySheet(f *xlsx.File, res *model.CompAnalysisResult) error {
	sheet, err := f.AddSheet(SheetSummary)
	if err != nil {
		return eris.Wrap(err, "export: add summary sheet")
	}
	header(sheet, "Metric", "Value")

	text(sheet, "Subject", res.SubjectID)
	money(sheet, "ARV", res.ARV)
	money(sheet, "ARV Low", res.ARVLow)
	money(sheet, "ARV High", res.ARVHigh)
	money(sheet, "ARV per Sqft", res.ARVPerSqft)
	text(sheet, "ARV Method", res.ARVMethod)
	text(sheet, "Confidence", string(res.ConfidenceLevel))
	integer(sheet, "Qualified Comps", len(res.QualifiedComps))
	integer(sheet, "Extended Comps", len(res.ExtendedComps))
	integer(sheet, "Rejected Comps", res.RejectedCount)

	re := res.RepairEstimate
	text(sheet, "Rehab Scope", string(re.Scope))
	money(sheet, "Cosmetic Estimate", re.CosmeticTotal)
	money(sheet, "Full Rehab Estimate", re.FullRehabTotal)
	money(sheet, "Selling Costs", re.SellingCosts)

	money(sheet, "MAO", res.MAO)
	money(sheet, "MAO Conservative", res.MAOConservative)
	money(sheet, "MAO Aggressive", res.MAOAggressive)
	if res.TotalDue != nil {
		money(sheet, "Total Due", res.TotalDue)
		text(sheet, "MAO Below Total Due", fmt.Sprintf("%t", res.MAOBelowTotalDue))
	}

	sc := res.SearchCriteria
	number(sheet, "Radius (mi)", sc.RadiusMiles)
	integer(sheet, "Days Back", sc.DaysBack)
	integer(sheet, "Max Candidates", sc.MaxCandidates)
	if !sc.AsOf.IsZero() {
		text(sheet, "As Of", sc.AsOf.Format(dateLayout))
	}
	text(sheet, "Search Expanded", fmt.Sprintf("%t", sc.Expanded))
	return nil
}

func comparablesSheet(f *xlsx.File, res *model.CompAnalysisResult) error {
	sheet, err := f.AddSheet(SheetComparables)
	if err != nil {
		return eris.Wrap(err, "export: add comparables sheet")
	}
	header(sheet, comparableHeader...)

	for _, c := range res.QualifiedComps {
		comparableRow(sheet, "qualified", c)
	}
	for _, c := range res.ExtendedComps {
		comparableRow(sheet, "extended", c)
	}
	return nil
}

func comparableRow(sheet *xlsx.Sheet, bucket string, c model.ScoredComparable) {
	row := sheet.AddRow()
	row.AddCell().SetString(bucket)
	row.AddCell().SetString(c.ID)
	row.AddCell().SetString(c.Address)
	row.AddCell().SetString(string(c.CompGrade))
	row.AddCell().SetFloat(c.CompScore)
	moneyCell(row, c.Price())
	moneyCell(row, c.AdjustedPrice)
	row.AddCell().SetFloatWithFormat(c.TotalAdjustment(), moneyFormat)
	floatCell(row, c.Sqft)
	floatCell(row, c.Bedrooms)
	floatCell(row, c.Bathrooms)
	if c.YearBuilt != nil {
		row.AddCell().SetInt(*c.YearBuilt)
	} else {
		row.AddCell()
	}
	row.AddCell().SetString(string(c.Type))
	if d := c.SaleDate(); d != nil {
		row.AddCell().SetString(d.Format(dateLayout))
	} else {
		row.AddCell()
	}
	floatCell(row, c.DistanceMiles)

	parts := make([]string, len(c.Adjustments))
	for i, a := range c.Adjustments {
		parts[i] = fmt.Sprintf("%s %+.0f", a.Description, a.Amount)
	}
	row.AddCell().SetString(strings.Join(parts, "; "))
}

func bidSheet(f *xlsx.File, rec *model.BidRecommendation) error {
	sheet, err := f.AddSheet(SheetBid)
	if err != nil {
		return eris.Wrap(err, "export: add bid sheet")
	}
	header(sheet, "Metric", "Value")

	text(sheet, "Recommendation ID", rec.ID)
	text(sheet, "Property", rec.PropertyID)
	number(sheet, "Conservative Bid", rec.BidRange.Conservative)
	number(sheet, "Moderate Bid", rec.BidRange.Moderate)
	number(sheet, "Aggressive Bid", rec.BidRange.Aggressive)
	number(sheet, "Confidence", rec.ConfidenceLevel)
	if rec.ROIProjection != nil {
		number(sheet, "ROI Projection (%)", *rec.ROIProjection)
	}
	number(sheet, "ARV", rec.ARVEstimate)
	number(sheet, "Rehab", rec.CostBreakdown.Rehab)
	number(sheet, "Closing", rec.CostBreakdown.Closing)
	number(sheet, "Holding", rec.CostBreakdown.Holding)
	number(sheet, "Total Investment", rec.CostBreakdown.Total)
	number(sheet, "Max Bid", rec.CalculationBasis.MaxBid)
	text(sheet, "Exceeds Max Bid", fmt.Sprintf("%t", rec.ExceedsMaxBid))
	text(sheet, "Version", rec.RecommendationVersion)

	sheet.AddRow()
	header(sheet, "Warning", "Severity", "Message")
	for _, w := range rec.RiskWarnings {
		row := sheet.AddRow()
		row.AddCell().SetString(w.Code)
		row.AddCell().SetString(w.Severity.String())
		row.AddCell().SetString(w.Message)
	}
	return nil
}

func header(sheet *xlsx.Sheet, cols ...string) {
	row := sheet.AddRow()
	for _, c := range cols {
		cell := row.AddCell()
		cell.SetString(c)
		style := cell.GetStyle()
		style.Font.Bold = true
		cell.SetStyle(style)
	}
}

func text(sheet *xlsx.Sheet, label, v string) {
	row := sheet.AddRow()
	row.AddCell().SetString(label)
	row.AddCell().SetString(v)
}

func integer(sheet *xlsx.Sheet, label string, v int) {
	row := sheet.AddRow()
	row.AddCell().SetString(label)
	row.AddCell().SetInt(v)
}

func number(sheet *xlsx.Sheet, label string, v float64) {
	row := sheet.AddRow()
	row.AddCell().SetString(label)
	row.AddCell().SetFloatWithFormat(v, moneyFormat)
}

// money writes a labelled dollar row; nil values leave the cell empty.
func money(sheet *xlsx.Sheet, label string, v *float64) {
	row := sheet.AddRow()
	row.AddCell().SetString(label)
	moneyCell(row, v)
}

func moneyCell(row *xlsx.Row, v *float64) {
	cell := row.AddCell()
	if v != nil {
		cell.SetFloatWithFormat(*v, moneyFormat)
	}
}

func floatCell(row *xlsx.Row, v *float64) {
	cell := row.AddCell()
	if v != nil {
		cell.SetFloat(*v)
	}
}
