// Package pdfgen renders invoices as thermal-receipt style PDF documents.
package pdfgen

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"

	"github.com/devaakutty/Saas-backend/internal/model"
)

// GSTRate is the tax rate applied on top of the item subtotal.
const GSTRate = 0.18

// InvoicePDF renders an invoice with its item snapshots into a PDF. Company
// details come from the creating user's profile, matching what the invoice
// looked like when issued.
func InvoicePDF(invoice *model.Invoice, customer *model.Customer, issuer *model.User) ([]byte, error) {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		UnitStr: "pt",
		Size:    fpdf.SizeType{Wd: 300, Ht: 700},
	})
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	// Header band
	pdf.SetFillColor(17, 17, 17)
	pdf.Rect(0, 0, 300, 70, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 20)
	company := issuer.Company
	if company == "" {
		company = "Your Company"
	}
	pdf.SetXY(0, 18)
	pdf.CellFormat(300, 22, company, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(300, 11, issuer.Address, "", 1, "C", false, 0, "")
	pdf.CellFormat(300, 11,
		fmt.Sprintf("Phone: %s  GST: %s", issuer.Phone, issuer.GstNumber),
		"", 1, "C", false, 0, "")

	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(20, 90)

	// Meta
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(260, 12, fmt.Sprintf("INV: #%s", invoice.InvoiceNo), "", 1, "L", false, 0, "")
	pdf.CellFormat(260, 12, fmt.Sprintf("DATE: %s", invoice.CreatedAt.Format("02/01/2006")), "", 1, "L", false, 0, "")
	customerName := "-"
	if customer != nil {
		customerName = customer.Name
	}
	pdf.CellFormat(260, 12, fmt.Sprintf("CUSTOMER: %s", customerName), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	// Table header
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(120, 12, "ITEM", "B", 0, "L", false, 0, "")
	pdf.CellFormat(50, 12, "RATE", "B", 0, "R", false, 0, "")
	pdf.CellFormat(30, 12, "QTY", "B", 0, "R", false, 0, "")
	pdf.CellFormat(60, 12, "TOTAL", "B", 1, "R", false, 0, "")

	// Items
	pdf.SetFont("Helvetica", "", 9)
	var subTotal float64
	for _, item := range invoice.Items {
		pdf.CellFormat(120, 14, item.ProductName, "", 0, "L", false, 0, "")
		pdf.CellFormat(50, 14, fmt.Sprintf("%.2f", item.Rate), "", 0, "R", false, 0, "")
		pdf.CellFormat(30, 14, fmt.Sprintf("%d", item.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(60, 14, fmt.Sprintf("%.2f", item.Amount), "", 1, "R", false, 0, "")
		subTotal += item.Amount
	}

	gst := subTotal * GSTRate
	grandTotal := subTotal + gst

	// Totals
	pdf.Ln(6)
	pdf.CellFormat(200, 12, "SUBTOTAL", "T", 0, "L", false, 0, "")
	pdf.CellFormat(60, 12, fmt.Sprintf("%.2f", subTotal), "T", 1, "R", false, 0, "")
	pdf.CellFormat(200, 12, fmt.Sprintf("GST (%.0f%%)", GSTRate*100), "", 0, "L", false, 0, "")
	pdf.CellFormat(60, 12, fmt.Sprintf("%.2f", gst), "", 1, "R", false, 0, "")

	pdf.Ln(6)
	pdf.SetFillColor(17, 17, 17)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(200, 26, "  GRAND TOTAL", "", 0, "L", true, 0, "")
	pdf.CellFormat(60, 26, fmt.Sprintf("%.2f ", grandTotal), "", 1, "R", true, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
