/*
Package report renders profitability summaries as spreadsheets.

PURPOSE:
  The back office consumes profitability as xlsx workbooks. This package
  turns a set of profit.Analysis values into a workbook with one summary
  sheet plus a monthly-breakdown sheet, ready to stream over HTTP or write
  to disk.
*/
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/profit"
)

const (
	summarySheet = "Summary"
	monthlySheet = "Monthly"
)

// Write renders the analyses as an xlsx workbook onto w.
// Names maps project ids to display names; missing entries fall back to
// the raw id.
func Write(w io.Writer, analyses []*profit.Analysis, names map[payroll.ProjectID]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(monthlySheet); err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}

	if err := writeSummary(f, analyses, names); err != nil {
		return err
	}
	if err := writeMonthly(f, analyses, names); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, analyses []*profit.Analysis, names map[payroll.ProjectID]string) error {
	header := []any{"Project", "Gross Revenue", "Revenue Source", "Allocated Cost", "Variable Cost", "Net Profit", "Margin %", "Band"}
	if err := f.SetSheetRow(summarySheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, a := range analyses {
		margin := a.MarginPercent.Round(2).String()
		if a.NoRevenue {
			margin = "no revenue"
		}
		source := "computed"
		if a.RevenueOverridden {
			// Manual totals do not reconcile with the Monthly sheet rows.
			source = "manual override"
		}
		row := []any{
			displayName(a.ProjectID, names),
			a.GrossRevenue.String(),
			source,
			a.AllocatedCost.String(),
			a.VariableCost.String(),
			a.NetProfit.String(),
			margin,
			string(a.Band()),
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary row: %w", err)
		}
	}
	return nil
}

func writeMonthly(f *excelize.File, analyses []*profit.Analysis, names map[payroll.ProjectID]string) error {
	header := []any{"Project", "Year", "Month", "Revenue", "Allocated Cost", "Variable Cost", "Net Profit"}
	if err := f.SetSheetRow(monthlySheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	rowIdx := 2
	for _, a := range analyses {
		for _, m := range a.Monthly {
			row := []any{
				displayName(a.ProjectID, names),
				m.Year,
				m.Month.String(),
				m.Revenue.String(),
				m.AllocatedCost.String(),
				m.VariableCost.String(),
				m.NetProfit.String(),
			}
			cell := fmt.Sprintf("A%d", rowIdx)
			if err := f.SetSheetRow(monthlySheet, cell, &row); err != nil {
				return fmt.Errorf("failed to write monthly row: %w", err)
			}
			rowIdx++
		}
	}
	return nil
}

func displayName(id payroll.ProjectID, names map[payroll.ProjectID]string) string {
	if name, ok := names[id]; ok {
		return name
	}
	return string(id)
}
