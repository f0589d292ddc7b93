package payroll

import (
	"bytes"
	"context"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/domain/payroll"
)

// Payslip implements payroll.PayrollService.
func (s *PayrollServiceImpl) Payslip(ctx context.Context, id string) (string, []byte, error) {
	summary, err := s.payrollRepo.GetByID(ctx, id)
	if err != nil {
		return "", nil, err
	}
	details, err := s.payrollRepo.ListDetails(ctx, id)
	if err != nil {
		return "", nil, fmt.Errorf("failed to list payroll details: %w", err)
	}

	data, err := renderPayslip(s.mapToResponse(summary, details))
	if err != nil {
		return "", nil, err
	}
	filename := fmt.Sprintf("payslip-%s-%s.pdf", summary.EmployeeCode, summary.StartDate.Format("20060102"))
	return filename, data, nil
}

func renderPayslip(p payroll.PayrollResponse) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Payslip")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, tr(fmt.Sprintf("Employee: %s (%s)", p.EmployeeName, p.EmployeeCode)))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Period: %s to %s", p.StartDate, p.EndDate))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Status: %s", p.Status))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 11)
	for _, h := range []struct {
		title string
		width float64
	}{{"Date", 30}, {"In", 25}, {"Out", 25}, {"Hours", 20}, {"Status", 25}, {"Note", 65}} {
		pdf.CellFormat(h.width, 7, h.title, "1", 0, "", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, d := range p.Details {
		pdf.CellFormat(30, 6, d.WorkDate, "1", 0, "", false, 0, "")
		pdf.CellFormat(25, 6, clockPart(d.CheckInTime), "1", 0, "", false, 0, "")
		pdf.CellFormat(25, 6, clockPart(d.CheckOutTime), "1", 0, "", false, 0, "")
		pdf.CellFormat(20, 6, d.HoursWorked, "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, d.Status, "1", 0, "", false, 0, "")
		note := ""
		if d.Note != nil {
			note = *d.Note
		}
		pdf.CellFormat(65, 6, tr(truncate(note, 40)), "1", 0, "", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "", 12)
	for _, line := range [][2]string{
		{"Total hours", p.TotalHours},
		{"Hourly rate", p.HourlyRate},
		{"Base pay", p.BasePay},
		{"Bonus", p.Bonus},
		{"Advance", p.Advance},
		{"Deduction", p.Deduction},
	} {
		pdf.CellFormat(60, 7, line[0], "", 0, "", false, 0, "")
		pdf.CellFormat(50, 7, line[1], "", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(60, 8, "Net pay", "T", 0, "", false, 0, "")
	pdf.CellFormat(50, 8, p.NetPay, "T", 0, "R", false, 0, "")
	pdf.Ln(-1)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render payslip: %w", err)
	}
	return buf.Bytes(), nil
}

// clockPart extracts HH:MM from an RFC3339 timestamp.
func clockPart(ts *string) string {
	if ts == nil || len(*ts) < 16 {
		return "-"
	}
	return (*ts)[11:16]
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
