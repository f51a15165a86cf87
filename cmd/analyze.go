package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/taxdeedflow/comps-cli/internal/export"
	"github.com/taxdeedflow/comps-cli/internal/ingest"
	"github.com/taxdeedflow/comps-cli/internal/model"
	"github.com/taxdeedflow/comps-cli/internal/valuation"
)

var (
	analyzeInput         string
	analyzePropertyID    string
	analyzeRadius        float64
	analyzeDays          int
	analyzeMaxCandidates int
	analyzeRehabScope    string
	analyzeOpeningBid    float64
	analyzeFormat        string
	analyzeXLSX          string
	analyzeSave          bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Grade comparables and estimate ARV, repairs, and MAO for one subject",
	Long: "Reads a JSON or YAML document {subject, candidates, options}. When candidates is empty, " +
		"the candidates previously imported for the subject ID are used. With --opening-bid a bid " +
		"recommendation is produced from the analysis as well.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := checkFormat(analyzeFormat); err != nil {
			return err
		}

		req, err := ingest.ReadAnalyzeRequest(analyzeInput)
		if err != nil {
			return err
		}
		applyAnalyzeFlags(cmd, &req)

		withStore := analyzeSave || len(req.Candidates) == 0
		env, err := initEnv(ctx, "analyze", withStore, analyzeSave)
		if err != nil {
			return err
		}
		defer env.Close()

		var ev *valuation.Evaluation
		if cmd.Flags().Changed("opening-bid") {
			bid := analyzeOpeningBid
			ev, err = env.Service.Evaluate(ctx, valuation.PropertyRequest{AnalyzeRequest: req, OpeningBid: &bid})
		} else {
			var res *model.CompAnalysisResult
			res, err = env.Service.Analyze(ctx, req)
			ev = &valuation.Evaluation{PropertyID: req.Subject.ID, Analysis: res}
		}
		if err != nil {
			return eris.Wrap(err, "analyze")
		}

		if analyzeXLSX != "" {
			if err := export.WriteWorkbook(analyzeXLSX, ev.Analysis, ev.Recommendation); err != nil {
				return err
			}
			zap.L().Info("workbook written", zap.String("path", analyzeXLSX))
		}

		out := cmd.OutOrStdout()
		if analyzeFormat == formatJSON {
			if ev.Recommendation == nil {
				return printJSON(out, ev.Analysis)
			}
			return printJSON(out, ev)
		}
		formatAnalysis(out, ev.Analysis)
		if ev.Recommendation != nil {
			_, _ = out.Write([]byte("\n"))
			formatRecommendation(out, ev.Recommendation)
		}
		return nil
	},
}

// applyAnalyzeFlags overrides document options with explicitly set flags.
func applyAnalyzeFlags(cmd *cobra.Command, req *valuation.AnalyzeRequest) {
	f := cmd.Flags()
	if analyzePropertyID != "" {
		req.Subject.ID = analyzePropertyID
	}
	if f.Changed("radius") {
		req.Options.RadiusMiles = analyzeRadius
	}
	if f.Changed("days") {
		req.Options.DaysBack = analyzeDays
	}
	if f.Changed("max-candidates") {
		req.Options.MaxCandidates = analyzeMaxCandidates
	}
	if f.Changed("rehab-scope") {
		req.Options.RehabScope = model.RehabScope(analyzeRehabScope)
	}
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVar(&analyzeInput, "input", "", "path to the analysis request (.json, .yaml)")
	f.StringVar(&analyzePropertyID, "property-id", "", "override the subject ID")
	f.Float64Var(&analyzeRadius, "radius", 0, "search radius in miles (default from config)")
	f.IntVar(&analyzeDays, "days", 0, "sale recency window in days (default from config)")
	f.IntVar(&analyzeMaxCandidates, "max-candidates", 0, "cap on candidates considered (default from config)")
	f.StringVar(&analyzeRehabScope, "rehab-scope", "", "cosmetic, light, moderate, heavy, or gut")
	f.Float64Var(&analyzeOpeningBid, "opening-bid", 0, "also produce a bid recommendation at this opening bid")
	f.StringVar(&analyzeFormat, "format", formatTable, "output format: table or json")
	f.StringVar(&analyzeXLSX, "xlsx", "", "write a Summary/Comparables/Bid workbook to this path")
	f.BoolVar(&analyzeSave, "save", false, "persist the analysis (and recommendation) to the store")
	_ = analyzeCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(analyzeCmd)
}
