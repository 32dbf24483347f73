package main

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/pantrylens/backend/internal/app"
	"github.com/pantrylens/backend/internal/domain"
)

var (
	analyzeLocale  string
	analyzeRawText bool
	analyzePretty  bool
)

// analyzeOutput is one line of the analyze report
type analyzeOutput struct {
	File string `json:"file"`
	domain.ReceiptResult
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <image>...",
	Short: "Extract pantry items from receipt images",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if analyzeLocale != "" {
			cfg.Receipt.Locale = analyzeLocale
		}

		a, err := app.New(cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		results := a.Service.AnalyzeFiles(cmd.Context(), args)

		enc := json.NewEncoder(cmd.OutOrStdout())
		if analyzePretty {
			enc.SetIndent("", "  ")
		}
		failed := 0
		for i, result := range results {
			if !analyzeRawText {
				result.RawText = ""
			}
			if !result.Success {
				failed++
			}
			if err := enc.Encode(analyzeOutput{File: args[i], ReceiptResult: result}); err != nil {
				return eris.Wrap(err, "analyze: write result")
			}
		}

		if failed > 0 {
			return eris.Errorf("%d of %d receipts could not be read", failed, len(results))
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeLocale, "locale", "", "receipt locale (en, it); overrides the config")
	analyzeCmd.Flags().BoolVar(&analyzeRawText, "raw", false, "include the OCR text in the output")
	analyzeCmd.Flags().BoolVar(&analyzePretty, "pretty", false, "indent JSON output")
	rootCmd.AddCommand(analyzeCmd)
}
