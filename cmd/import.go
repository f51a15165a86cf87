package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/taxdeedflow/comps-cli/internal/ingest"
)

var (
	importFile       string
	importPropertyID string
	importCharset    string
	importSheet      string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import candidate comparables from CSV, XLSX, JSON, or YAML into the store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		comps, err := ingest.ReadCandidatesFile(ctx, importFile, ingest.FileOptions{
			Charset: importCharset,
			Sheet:   ingest.XLSXOptions{SheetName: importSheet},
		})
		if err != nil {
			return eris.Wrap(err, "import")
		}

		env, err := initEnv(ctx, "import", true, false)
		if err != nil {
			return err
		}
		defer env.Close()

		n, err := env.Service.ImportCandidates(ctx, importPropertyID, comps)
		if err != nil {
			return eris.Wrap(err, "import")
		}

		zap.L().Info("import complete",
			zap.Int64("rows", n),
			zap.String("file", importFile),
			zap.String("property_id", importPropertyID),
		)
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported %d candidates for %s\n", n, importPropertyID)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importFile, "file", "", "path to the candidates file (required)")
	importCmd.Flags().StringVar(&importPropertyID, "property-id", "", "subject property the candidates belong to (required)")
	importCmd.Flags().StringVar(&importCharset, "charset", "", "CSV source encoding, e.g. windows-1252 (default UTF-8)")
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "XLSX sheet name (default first sheet)")
	_ = importCmd.MarkFlagRequired("file")
	_ = importCmd.MarkFlagRequired("property-id")
	rootCmd.AddCommand(importCmd)
}
