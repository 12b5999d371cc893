package services

import (
	"bytes"
	"fmt"

	"github.com/hypernova-labs/factura-service/internal/models"
	"github.com/hypernova-labs/factura-service/internal/totals"
	"github.com/jung-kurt/gofpdf"
	"github.com/sirupsen/logrus"
)

// PDFGenerator maneja la generación de archivos PDF de facturas
type PDFGenerator struct {
	logger *logrus.Logger
}

// NewPDFGenerator crea una nueva instancia del generador
func NewPDFGenerator(logger *logrus.Logger) *PDFGenerator {
	return &PDFGenerator{
		logger: logger,
	}
}

// GenerateInvoicePDF genera un archivo PDF para la factura, respetando
// la configuración de columnas del documento
func (d *PDFGenerator) GenerateInvoicePDF(invoice *models.Invoice) ([]byte, error) {
	data := &invoice.Data

	columns := data.ColumnConfig
	if len(columns) == 0 {
		columns = models.DefaultColumnConfig()
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	// Colores corporativos
	pdf.SetFillColor(41, 128, 185)
	pdf.SetTextColor(44, 62, 80)
	pdf.SetDrawColor(52, 73, 94)

	// Header con color de fondo
	pdf.SetFillColor(41, 128, 185)
	pdf.Rect(0, 0, 210, 40, "F")

	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Arial", "B", 24)
	pdf.Cell(190, 15, "FACTURA")
	pdf.Ln(15)

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(190, 10, fmt.Sprintf("#%s", invoice.InvoiceNumber))
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 12)
	issueDate := data.IssueDate
	if issueDate == "" {
		issueDate = invoice.CreatedAt.Format("02/01/2006")
	}
	pdf.Cell(190, 8, fmt.Sprintf("Fecha: %s", issueDate))
	pdf.Ln(8)

	// Resetear colores
	pdf.SetTextColor(44, 62, 80)
	pdf.SetFillColor(255, 255, 255)

	// Bloques de emisor y cliente
	pdf.SetY(50)
	d.writeContactBlock(pdf, "DE", data.Sender, 10)
	d.writeContactBlockAt(pdf, "PARA", data.Client, 105, 50)

	// Tabla de ítems
	pdf.SetY(95)
	colWidth := 190.0 / float64(len(columns))

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(236, 240, 241)
	for _, col := range columns {
		pdf.CellFormat(colWidth, 8, col.Label, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	for _, item := range data.Items {
		for _, col := range columns {
			value := totals.RenderCell(item, col, data.Currency, data.Locale)
			pdf.CellFormat(colWidth, 7, value, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(7)
	}

	// Totales
	formatted := totals.ComputeFormatted(data)
	pdf.Ln(5)
	pdf.SetFont("Arial", "", 11)
	d.writeTotalLine(pdf, "Subtotal", formatted.Subtotal)
	d.writeTotalLine(pdf, fmt.Sprintf("Impuesto (%.2f%%)", data.TaxRate), formatted.Tax)
	pdf.SetFont("Arial", "B", 12)
	d.writeTotalLine(pdf, "Total", formatted.Total)

	// Información de pago
	if data.PaymentInfo != nil {
		pdf.Ln(8)
		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(190, 7, "INFORMACIÓN DE PAGO")
		pdf.Ln(7)
		pdf.SetFont("Arial", "", 10)
		if data.PaymentInfo.BankName != "" {
			pdf.Cell(190, 6, fmt.Sprintf("Banco: %s", data.PaymentInfo.BankName))
			pdf.Ln(6)
		}
		if data.PaymentInfo.AccountName != "" {
			pdf.Cell(190, 6, fmt.Sprintf("Titular: %s", data.PaymentInfo.AccountName))
			pdf.Ln(6)
		}
		if data.PaymentInfo.AccountNumber != "" {
			pdf.Cell(190, 6, fmt.Sprintf("Cuenta: %s", data.PaymentInfo.AccountNumber))
			pdf.Ln(6)
		}
		if data.PaymentInfo.Notes != "" {
			pdf.Cell(190, 6, data.PaymentInfo.Notes)
			pdf.Ln(6)
		}
	}

	// Notas
	if data.Notes != "" {
		pdf.Ln(6)
		pdf.SetFont("Arial", "I", 9)
		pdf.MultiCell(190, 5, data.Notes, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("error writing PDF output: %w", err)
	}

	d.logger.WithFields(logrus.Fields{
		"invoice_id": invoice.ID,
		"pdf_size":   buf.Len(),
	}).Info("Invoice PDF generated")

	return buf.Bytes(), nil
}

// writeContactBlock escribe un bloque de contacto en la posición actual
func (d *PDFGenerator) writeContactBlock(pdf *gofpdf.Fpdf, title string, contact models.Contact, x float64) {
	d.writeContactBlockAt(pdf, title, contact, x, pdf.GetY())
}

// writeContactBlockAt escribe un bloque de contacto en coordenadas fijas
func (d *PDFGenerator) writeContactBlockAt(pdf *gofpdf.Fpdf, title string, contact models.Contact, x, y float64) {
	pdf.SetXY(x, y)
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(95, 7, title)
	y += 7

	pdf.SetFont("Arial", "", 10)
	lines := []string{contact.Name, contact.Company, contact.Address, contact.Email, contact.Phone}
	for _, line := range lines {
		if line == "" {
			continue
		}
		pdf.SetXY(x, y)
		pdf.Cell(95, 5, line)
		y += 5
	}
}

// writeTotalLine escribe una línea de totales alineada a la derecha
func (d *PDFGenerator) writeTotalLine(pdf *gofpdf.Fpdf, label, value string) {
	pdf.SetX(110)
	pdf.CellFormat(50, 7, label, "", 0, "R", false, 0, "")
	pdf.CellFormat(40, 7, value, "", 0, "R", false, 0, "")
	pdf.Ln(7)
}
