package infra

// pdf.go — Close-report PDF generation using go-pdf/fpdf.
// Renders an A5 reconciliation report for a closed register session:
//   - Session identity (id, operator, open/close timestamps)
//   - Balance block (opening, expected, declared, discrepancy)
//   - Movement totals by type (sales, expenses, debt collections)
//   - Payment table (type, method, amount, status)
//
// The output file is saved to storagePath/close_report_{sessionID}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"

	"caixapos/internal/dto"

	"github.com/go-pdf/fpdf"
)

// GenerateCloseReportPDF renders the reconciliation report for a session
// view. storagePath is the directory where the PDF is written (created
// if needed). Returns the absolute path to the generated file.
func GenerateCloseReportPDF(view *dto.RegisterViewResponse, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("close_report_%s.pdf", view.SessionID)
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 20

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentW, 8, "Register Close Report", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Session %s", view.SessionID), "", 1, "C", false, 0, "")
	pdf.Ln(2)
	pdf.Line(10, pdf.GetY(), pageW-10, pdf.GetY())
	pdf.Ln(3)

	// ── Session info ─────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Opened: %s  by %s", view.OpenedAt, view.OpenedBy), "", 1, "L", false, 0, "")
	if view.ClosedAt != nil && view.ClosedBy != nil {
		pdf.CellFormat(contentW, 5, fmt.Sprintf("Closed: %s  by %s", *view.ClosedAt, *view.ClosedBy), "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	// ── Balance block ────────────────────────────────────────────────────────
	labelW := contentW * 0.6
	valueW := contentW * 0.4

	row := func(label, value string, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 9)
		pdf.CellFormat(labelW, 6, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(valueW, 6, value, "", 1, "R", false, 0, "")
	}

	row("Opening balance", view.OpeningBalance.StringFixed(2), false)
	if view.Summary != nil {
		row("Sales total", view.Summary.SalesTotal.StringFixed(2), false)
		row("Debt collections total", view.Summary.DebtPaymentsTotal.StringFixed(2), false)
		row("Expenses total", view.Summary.ExpensesTotal.StringFixed(2), false)
		row("Expected balance", view.Summary.ExpectedBalance.StringFixed(2), true)
	}
	if view.ClosingBalance != nil {
		row("Declared closing balance", view.ClosingBalance.StringFixed(2), true)
	}
	if view.Discrepancy != nil {
		label := "Discrepancy"
		if view.Discrepancy.IsNegative() {
			label = "Discrepancy (shortage)"
		} else if view.Discrepancy.IsPositive() {
			label = "Discrepancy (surplus)"
		}
		row(label, view.Discrepancy.StringFixed(2), true)
	}
	pdf.Ln(3)

	// ── Payment table ────────────────────────────────────────────────────────
	col1 := contentW * 0.28 // type
	col2 := contentW * 0.28 // method
	col3 := contentW * 0.24 // amount
	col4 := contentW * 0.20 // status

	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(col1, 5, "Type", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 5, "Method", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 5, "Amount", "B", 0, "R", false, 0, "")
	pdf.CellFormat(col4, 5, "Status", "B", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	for _, p := range view.Payments {
		pdf.CellFormat(col1, 5, p.Type, "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, p.Method, "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 5, p.Amount.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(col4, 5, p.Status, "", 1, "L", false, 0, "")
	}

	if view.Observations != nil && *view.Observations != "" {
		pdf.Ln(3)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.MultiCell(contentW, 4, "Observations: "+*view.Observations, "", "L", false)
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write %s: %w", filePath, err)
	}
	return filePath, nil
}
