package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"

	"github.com/taxdeedflow/comps-cli/internal/model"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

func checkFormat(f string) error {
	if f != formatTable && f != formatJSON {
		return eris.Errorf("unknown --format %q (want table or json)", f)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func money(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("$%.2f", *v)
}

func optFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

// formatAnalysis writes a summary of an analysis and its comparables.
func formatAnalysis(out io.Writer, res *model.CompAnalysisResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Subject:\t%s\n", res.SubjectID)
	_, _ = fmt.Fprintf(w, "ARV:\t%s (%s, %s confidence)\n", money(res.ARV), res.ARVMethod, res.ConfidenceLevel)
	_, _ = fmt.Fprintf(w, "ARV range:\t%s - %s\n", money(res.ARVLow), money(res.ARVHigh))
	_, _ = fmt.Fprintf(w, "ARV/sqft:\t%s\n", money(res.ARVPerSqft))
	_, _ = fmt.Fprintf(w, "Repairs (%s):\tcosmetic %s, full %s\n", res.RepairEstimate.Scope,
		money(res.RepairEstimate.CosmeticTotal), money(res.RepairEstimate.FullRehabTotal))
	_, _ = fmt.Fprintf(w, "MAO:\t%s (conservative %s, aggressive %s)\n", money(res.MAO), money(res.MAOConservative), money(res.MAOAggressive))
	if res.TotalDue != nil {
		_, _ = fmt.Fprintf(w, "Total due:\t%s (MAO below total due: %t)\n", money(res.TotalDue), res.MAOBelowTotalDue)
	}
	sc := res.SearchCriteria
	_, _ = fmt.Fprintf(w, "Window:\t%.2f mi, %d days, max %d (expanded: %t)\n", sc.RadiusMiles, sc.DaysBack, sc.MaxCandidates, sc.Expanded)
	_, _ = fmt.Fprintf(w, "Comps:\t%d qualified, %d extended, %d rejected\n", len(res.QualifiedComps), len(res.ExtendedComps), res.RejectedCount)
	_ = w.Flush()

	if len(res.QualifiedComps)+len(res.ExtendedComps) == 0 {
		return
	}
	_, _ = fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "BUCKET\tID\tGRADE\tSCORE\tPRICE\tADJUSTED\tDIST_MI")
	rows := func(bucket string, list []model.ScoredComparable) {
		for _, c := range list {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%s\t%s\t%s\n",
				bucket, c.ID, c.CompGrade, c.CompScore, money(c.Price()), money(c.AdjustedPrice), optFloat(c.DistanceMiles))
		}
	}
	rows("qualified", res.QualifiedComps)
	rows("extended", res.ExtendedComps)
	_ = w.Flush()
}

// formatRecommendation writes bid tiers, ROI, and warnings.
func formatRecommendation(out io.Writer, rec *model.BidRecommendation) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Recommendation:\t%s\n", rec.ID)
	_, _ = fmt.Fprintf(w, "Property:\t%s\n", rec.PropertyID)
	_, _ = fmt.Fprintf(w, "Bids:\tconservative $%.2f, moderate $%.2f, aggressive $%.2f\n",
		rec.BidRange.Conservative, rec.BidRange.Moderate, rec.BidRange.Aggressive)
	_, _ = fmt.Fprintf(w, "Max bid:\t$%.2f\n", rec.CalculationBasis.MaxBid)
	_, _ = fmt.Fprintf(w, "Investment:\t$%.2f (rehab $%.2f, closing $%.2f, holding $%.2f)\n",
		rec.CostBreakdown.Total, rec.CostBreakdown.Rehab, rec.CostBreakdown.Closing, rec.CostBreakdown.Holding)
	_, _ = fmt.Fprintf(w, "ROI projection:\t%s%%\n", optFloat(rec.ROIProjection))
	_, _ = fmt.Fprintf(w, "Confidence:\t%.3f\n", rec.ConfidenceLevel)
	_, _ = fmt.Fprintf(w, "Exceeds max bid:\t%t\n", rec.ExceedsMaxBid)
	_ = w.Flush()

	if len(rec.RiskWarnings) == 0 {
		return
	}
	_, _ = fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SEVERITY\tCODE\tMESSAGE")
	for _, rw := range rec.RiskWarnings {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", rw.Severity, rw.Code, rw.Message)
	}
	_ = w.Flush()
}

// formatValidation lists field errors, or "valid" when there are none.
func formatValidation(out io.Writer, errs model.ValidationErrors) {
	if len(errs) == 0 {
		_, _ = fmt.Fprintln(out, "valid")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "FIELD\tMESSAGE")
	for _, e := range errs {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", e.Field, e.Message)
	}
	_ = w.Flush()
}

// formatTitleRisk writes a title-risk assessment.
func formatTitleRisk(out io.Writer, tr *model.TitleRiskAssessment) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Property:\t%s\n", tr.PropertyID)
	_, _ = fmt.Fprintf(w, "Score:\t%.4f (%s risk)\n", tr.Score, tr.Level)
	_, _ = fmt.Fprintf(w, "Auto reject:\t%t\n", tr.AutoReject)
	b := tr.CalculationBasis
	_, _ = fmt.Fprintf(w, "Surviving:\t$%.2f of $%.2f (ratio %.4f, limit %.2f)\n", b.SurvivingTotal, b.PropertyValue, b.SurvivingRatio, b.AutoRejectRatio)
	_, _ = fmt.Fprintf(w, "Extinguished:\t$%.2f\n", b.ExtinguishedTotal)
	_, _ = fmt.Fprintf(w, "Unknown liens:\t%d\n", b.UnknownLienCount)
	_ = w.Flush()
}

// formatRecommendationsList writes a tabular list of recommendations.
func formatRecommendationsList(out io.Writer, recs []model.BidRecommendation) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tPROPERTY\tMODERATE\tCONFIDENCE\tWARNINGS\tTOP_SEVERITY\tCREATED")
	for _, r := range recs {
		top := "-"
		if s := r.HighestSeverity(); s > 0 {
			top = s.String()
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t$%.2f\t%.3f\t%d\t%s\t%s\n",
			r.ID, r.PropertyID, r.BidRange.Moderate, r.ConfidenceLevel, len(r.RiskWarnings), top,
			r.CreatedAt.Format("2006-01-02 15:04"))
	}
	_ = w.Flush()
}
