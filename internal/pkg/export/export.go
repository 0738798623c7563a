package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/payroll"
	"github.com/jung-kurt/gofpdf"
)

var exportHeader = []string{
	"#", "Last Name", "First Name", "Regular Hours", "Overtime Hours",
	"Holiday Hours", "Total Hours", "Pay Rate", "Adjustments", "Gross Pay",
}

func exportRecord(row payroll.ExportRow) []string {
	return []string{
		strconv.Itoa(row.RowNumber),
		row.LastName,
		row.FirstName,
		row.RegularHours,
		row.OvertimeHours,
		row.HolidayHours,
		row.TotalHours,
		row.PayRate,
		row.AdjustmentsSum,
		row.GrossPay,
	}
}

// WriteCSV renders the export with a header row.
func WriteCSV(w io.Writer, export payroll.ExportResponse) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, row := range export.Rows {
		if err := cw.Write(exportRecord(row)); err != nil {
			return fmt.Errorf("failed to write csv row %d: %w", row.RowNumber, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WritePDF renders a landscape payroll summary table.
func WritePDF(w io.Writer, export payroll.ExportResponse) error {
	widths := []float64{10, 38, 38, 24, 26, 24, 22, 22, 26, 28}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Payroll %s to %s", export.StartDate, export.EndDate), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Payroll Summary")
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 8, fmt.Sprintf("Period: %s to %s", export.StartDate, export.EndDate))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range exportHeader {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, row := range export.Rows {
		for i, v := range exportRecord(row) {
			align := "R"
			if i == 1 || i == 2 {
				align = "L"
			}
			pdf.CellFormat(widths[i], 6, v, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	if len(export.Rows) == 0 {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.Cell(0, 8, "No pay calculations for this period.")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}
	return nil
}
