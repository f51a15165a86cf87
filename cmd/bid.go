package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/taxdeedflow/comps-cli/internal/bid"
	"github.com/taxdeedflow/comps-cli/internal/ingest"
)

var (
	bidInput  string
	bidFormat string
	bidSave   bool
)

var bidCmd = &cobra.Command{
	Use:   "bid",
	Short: "Calculate a three-tier bid recommendation",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := checkFormat(bidFormat); err != nil {
			return err
		}

		in, err := ingest.ReadBidInput(bidInput)
		if err != nil {
			return err
		}

		env, err := initEnv(ctx, "bid", bidSave, bidSave)
		if err != nil {
			return err
		}
		defer env.Close()

		rec, err := env.Service.Recommend(ctx, in)
		if err != nil {
			return eris.Wrap(err, "bid")
		}

		if bidFormat == formatJSON {
			return printJSON(cmd.OutOrStdout(), rec)
		}
		formatRecommendation(cmd.OutOrStdout(), rec)
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a bid recommendation input without calculating",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := checkFormat(bidFormat); err != nil {
			return err
		}
		in, err := ingest.ReadBidInput(bidInput)
		if err != nil {
			return err
		}

		errs := bid.ValidateInput(in)
		if bidFormat == formatJSON {
			if err := printJSON(cmd.OutOrStdout(), map[string]any{"valid": len(errs) == 0, "errors": errs}); err != nil {
				return err
			}
		} else {
			formatValidation(cmd.OutOrStdout(), errs)
		}
		if len(errs) > 0 {
			return eris.Errorf("validate: %d invalid field(s)", len(errs))
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{bidCmd, validateCmd} {
		c.Flags().StringVar(&bidInput, "input", "", "path to the bid input (.json, .yaml)")
		c.Flags().StringVar(&bidFormat, "format", formatTable, "output format: table or json")
		_ = c.MarkFlagRequired("input")
		rootCmd.AddCommand(c)
	}
	bidCmd.Flags().BoolVar(&bidSave, "save", false, "persist the recommendation to the store")
}
