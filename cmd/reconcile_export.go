package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"
)

var exportOut string

var reconcileExportCmd = &cobra.Command{
	Use:   "export <analysis-id>",
	Short: "Export an analysis worksheet to XLSX",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		analysis, err := env.Store.GetAnalysis(ctx, args[0])
		if err != nil {
			return err
		}
		entries, err := env.Store.GetAnalysisEntries(ctx, args[0])
		if err != nil {
			return err
		}

		f := xlsx.NewFile()
		sheet, err := f.AddSheet("Reconciliation")
		if err != nil {
			return eris.Wrap(err, "export: add sheet")
		}

		header := sheet.AddRow()
		for _, h := range []string{"Entry ID", "Sale Entry", "Weight", "Included", "Adjusted Value", "Sale Price", "Adjusted Price", "Notes"} {
			header.AddCell().Value = h
		}

		for _, entry := range entries {
			sale, err := env.Store.GetSaleEntry(ctx, entry.SaleEntryID)
			if err != nil {
				return err
			}
			row := sheet.AddRow()
			row.AddCell().Value = entry.ID
			row.AddCell().Value = entry.SaleEntryID
			row.AddCell().Value = entry.Weight
			row.AddCell().Value = fmt.Sprintf("%t", entry.IncludeInFinalValue)
			row.AddCell().Value = optString(entry.AdjustedValue)
			row.AddCell().Value = optString(sale.SalePrice)
			row.AddCell().Value = optString(sale.AdjustedPrice)
			row.AddCell().Value = entry.Notes
		}

		summary := sheet.AddRow()
		summary.AddCell().Value = "Value conclusion"
		summary.AddCell().Value = optString(analysis.ValueConclusion)
		summary.AddCell().Value = string(analysis.Status)

		if err := f.Save(exportOut); err != nil {
			return eris.Wrapf(err, "export: save %s", exportOut)
		}
		fmt.Printf("wrote %s (%d entries, subject %s)\n", exportOut, len(entries), analysis.SubjectPropertyID)
		return nil
	},
}

func optString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func init() {
	reconcileExportCmd.Flags().StringVar(&exportOut, "out", "reconciliation.xlsx", "output file path")
	reconcileCmd.AddCommand(reconcileExportCmd)
}
