package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/taxdeedflow/comps-cli/internal/store"
)

var recommendationsCmd = &cobra.Command{
	Use:   "recommendations",
	Short: "Inspect saved bid recommendations",
}

// -- recommendations list --

var recommendationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved recommendations, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		propertyID, _ := cmd.Flags().GetString("property-id")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")
		format, _ := cmd.Flags().GetString("format")
		if err := checkFormat(format); err != nil {
			return err
		}

		env, err := initEnv(ctx, "recommendations", true, false)
		if err != nil {
			return err
		}
		defer env.Close()

		recs, err := env.Service.Recommendations(ctx, store.RecommendationFilter{
			PropertyID: propertyID,
			Limit:      limit,
			Offset:     offset,
		})
		if err != nil {
			return eris.Wrap(err, "recommendations list")
		}

		if format == formatJSON {
			return printJSON(cmd.OutOrStdout(), recs)
		}
		if len(recs) == 0 {
			fmt.Fprintln(os.Stderr, "No recommendations found.")
			return nil
		}
		formatRecommendationsList(cmd.OutOrStdout(), recs)
		return nil
	},
}

// -- recommendations show --

var recommendationsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one recommendation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "recommendations", true, false)
		if err != nil {
			return err
		}
		defer env.Close()

		rec, err := env.Service.Recommendation(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "recommendations show")
		}
		return printJSON(cmd.OutOrStdout(), rec)
	},
}

func init() {
	recommendationsListCmd.Flags().String("property-id", "", "filter by property")
	recommendationsListCmd.Flags().Int("limit", 50, "max number of recommendations to display")
	recommendationsListCmd.Flags().Int("offset", 0, "skip this many recommendations")
	recommendationsListCmd.Flags().String("format", formatTable, "output format: table or json")

	recommendationsCmd.AddCommand(recommendationsListCmd)
	recommendationsCmd.AddCommand(recommendationsShowCmd)
	rootCmd.AddCommand(recommendationsCmd)
}
