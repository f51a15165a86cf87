package main

import (
	"github.com/spf13/cobra"

	"github.com/taxdeedflow/comps-cli/internal/ingest"
	"github.com/taxdeedflow/comps-cli/internal/lien"
)

var (
	titleRiskInput  string
	titleRiskFormat string
)

var titleRiskCmd = &cobra.Command{
	Use:   "title-risk",
	Short: "Score surviving liens against property value",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := checkFormat(titleRiskFormat); err != nil {
			return err
		}

		var in lien.Input
		if err := ingest.DecodeFile(titleRiskInput, &in); err != nil {
			return err
		}

		env, err := initEnv(ctx, "title-risk", false, false)
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Service.AssessTitle(in)
		if err != nil {
			return err
		}
		if titleRiskFormat == formatJSON {
			return printJSON(cmd.OutOrStdout(), res)
		}
		formatTitleRisk(cmd.OutOrStdout(), res)
		return nil
	},
}

func init() {
	titleRiskCmd.Flags().StringVar(&titleRiskInput, "input", "", "path to {property_id, property_value, liens} (.json, .yaml)")
	titleRiskCmd.Flags().StringVar(&titleRiskFormat, "format", formatTable, "output format: table or json")
	_ = titleRiskCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(titleRiskCmd)
}
