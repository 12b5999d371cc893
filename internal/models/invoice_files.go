package models

import (
	"time"

	"github.com/google/uuid"
)

// InvoiceFiles representa los metadatos del PDF archivado de una factura
type InvoiceFiles struct {
	ID          uuid.UUID `json:"id" db:"id"`
	InvoiceID   uuid.UUID `json:"invoice_id" db:"invoice_id"`
	PDFURL      *string   `json:"pdf_url,omitempty" db:"pdf_url"`
	PDFSize     int64     `json:"pdf_size" db:"pdf_size"`
	GeneratedAt time.Time `json:"generated_at" db:"generated_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
