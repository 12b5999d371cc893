package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hypernova-labs/factura-service/internal/database"
	"github.com/hypernova-labs/factura-service/internal/models"
	"github.com/sirupsen/logrus"
)

// StorageService archiva los PDFs generados en el storage de Supabase y
// guarda los metadatos en la base de datos local.
type StorageService struct {
	supabaseClient   *database.SupabaseClient
	invoiceFilesRepo *database.InvoiceFilesRepository
	logger           *logrus.Logger
}

// NewStorageService crea una nueva instancia del servicio
func NewStorageService(supabaseClient *database.SupabaseClient, invoiceFilesRepo *database.InvoiceFilesRepository, logger *logrus.Logger) *StorageService {
	return &StorageService{
		supabaseClient:   supabaseClient,
		invoiceFilesRepo: invoiceFilesRepo,
		logger:           logger,
	}
}

// ArchiveInvoicePDF sube el PDF al bucket y registra los metadatos
func (s *StorageService) ArchiveInvoicePDF(ctx context.Context, invoiceID uuid.UUID, pdfData []byte) (*models.InvoiceFiles, error) {
	key := fmt.Sprintf("invoices/%s/factura_%s.pdf", invoiceID, invoiceID)

	pdfURL, err := s.supabaseClient.UploadFile(ctx, key, pdfData, "application/pdf")
	if err != nil {
		return nil, fmt.Errorf("error uploading PDF to Supabase: %w", err)
	}

	files := &models.InvoiceFiles{
		ID:          uuid.New(),
		InvoiceID:   invoiceID,
		PDFURL:      &pdfURL,
		PDFSize:     int64(len(pdfData)),
		GeneratedAt: time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := s.invoiceFilesRepo.CreateOrUpdate(files); err != nil {
		// Si los metadatos fallan, limpiar el archivo subido
		if delErr := s.supabaseClient.DeleteFile(ctx, key); delErr != nil {
			s.logger.WithError(delErr).Warnf("Error cleaning up uploaded PDF for invoice %s", invoiceID)
		}
		return nil, fmt.Errorf("error saving invoice files metadata: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"invoice_id": invoiceID,
		"pdf_url":    pdfURL,
		"pdf_size":   files.PDFSize,
	}).Info("Invoice PDF archived in Supabase")

	return files, nil
}

// GetArchivedPDF obtiene los metadatos del PDF archivado de una factura
func (s *StorageService) GetArchivedPDF(invoiceID uuid.UUID) (*models.InvoiceFiles, error) {
	return s.invoiceFilesRepo.GetByInvoiceID(invoiceID)
}
