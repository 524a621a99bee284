package payroll

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
)

// WritePayslip renders a one-page PDF payslip for a payroll record.
func WritePayslip(w io.Writer, p Payroll) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, "Payslip")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Employee: %s", p.EmployeeName))
	pdf.Ln(7)
	pdf.Cell(0, 7, fmt.Sprintf("Period: %s", p.Month))
	pdf.Ln(7)
	pdf.Cell(0, 7, fmt.Sprintf("Status: %s", p.Status))
	pdf.Ln(12)

	line := func(label string, amount float64) {
		pdf.Cell(90, 7, label)
		pdf.CellFormat(40, 7, fmt.Sprintf("%.2f", amount), "", 0, "R", false, 0, "")
		pdf.Ln(7)
	}

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Earnings")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 11)
	line("Base salary", p.BaseSalary)
	line("Overtime", p.Overtime)
	line("Bonus", p.Bonus)
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Deductions")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 11)
	line("Tax", p.TaxDeduction)
	line("Insurance", p.InsuranceDeduct)
	line("Other", p.OtherDeductions)
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 12)
	line("Net salary", p.NetSalary)

	return pdf.Output(w)
}
