package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/hypernova-labs/factura-service/internal/models"
	"github.com/sirupsen/logrus"
)

// InvoiceFilesRepository maneja los metadatos de los PDFs archivados
type InvoiceFilesRepository struct {
	db     *DB
	logger *logrus.Logger
}

// NewInvoiceFilesRepository crea una nueva instancia del repositorio
func NewInvoiceFilesRepository(db *DB, logger *logrus.Logger) *InvoiceFilesRepository {
	return &InvoiceFilesRepository{
		db:     db,
		logger: logger,
	}
}

// CreateOrUpdate inserta o actualiza los metadatos por invoice_id
func (r *InvoiceFilesRepository) CreateOrUpdate(files *models.InvoiceFiles) error {
	query := `
		INSERT INTO invoice_files (id, invoice_id, pdf_url, pdf_size, generated_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (invoice_id) DO UPDATE SET
			pdf_url = EXCLUDED.pdf_url,
			pdf_size = EXCLUDED.pdf_size,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecWithTimeout(query,
		files.ID, files.InvoiceID, files.PDFURL, files.PDFSize,
		files.GeneratedAt, files.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("error upserting invoice files: %w", err)
	}

	return nil
}

// GetByInvoiceID obtiene los metadatos del PDF de una factura
func (r *InvoiceFilesRepository) GetByInvoiceID(invoiceID uuid.UUID) (*models.InvoiceFiles, error) {
	query := `
		SELECT id, invoice_id, pdf_url, pdf_size, generated_at, updated_at
		FROM invoice_files
		WHERE invoice_id = $1
	`

	var files models.InvoiceFiles
	err := r.db.QueryRowWithTimeout(query, invoiceID).Scan(
		&files.ID, &files.InvoiceID, &files.PDFURL, &files.PDFSize,
		&files.GeneratedAt, &files.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("invoice files %s: %w", invoiceID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("error querying invoice files: %w", err)
	}

	return &files, nil
}

// DeleteByInvoiceID elimina los metadatos del PDF de una factura
func (r *InvoiceFilesRepository) DeleteByInvoiceID(invoiceID uuid.UUID) error {
	query := `DELETE FROM invoice_files WHERE invoice_id = $1`

	if _, err := r.db.ExecWithTimeout(query, invoiceID); err != nil {
		return fmt.Errorf("error deleting invoice files: %w", err)
	}

	return nil
}
