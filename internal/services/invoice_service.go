package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hypernova-labs/factura-service/internal/database"
	"github.com/hypernova-labs/factura-service/internal/models"
	"github.com/hypernova-labs/factura-service/internal/totals"
	"github.com/sirupsen/logrus"
)

// InvoiceService maneja la lógica de negocio para facturas
type InvoiceService struct {
	invoiceRepo    *database.InvoiceRepository
	pdfGenerator   *PDFGenerator
	storageService *StorageService
	logger         *logrus.Logger
}

// NewInvoiceService crea una nueva instancia del servicio
func NewInvoiceService(db *database.DB, storageService *StorageService, logger *logrus.Logger) *InvoiceService {
	return &InvoiceService{
		invoiceRepo:    database.NewInvoiceRepository(db, logger),
		pdfGenerator:   NewPDFGenerator(logger),
		storageService: storageService,
		logger:         logger,
	}
}

// Upsert crea o actualiza una factura por su id. Escrituras concurrentes
// sobre el mismo id se resuelven por last-write-wins; es una limitación
// aceptada y documentada, no un bug.
func (s *InvoiceService) Upsert(userID uuid.UUID, req *models.UpsertInvoiceRequest) (*models.InvoiceResponse, error) {
	if req.Data.TaxRate < 0 || req.Data.TaxRate > 100 {
		return nil, fmt.Errorf("tax rate must be between 0 and 100: %w", models.ErrValidation)
	}

	if req.Data.Currency == "" {
		req.Data.Currency = "USD"
	}

	id := uuid.New()
	createdAt := time.Now()
	if req.ID != nil {
		id = *req.ID
		// Conservar created_at si la factura ya existe
		if existing, err := s.invoiceRepo.GetByID(id); err == nil {
			createdAt = existing.CreatedAt
		}
	}

	invoice := &models.Invoice{
		ID:            id,
		UserID:        userID,
		InvoiceNumber: req.InvoiceNumber,
		Data:          req.Data,
		CreatedAt:     createdAt,
		UpdatedAt:     time.Now(),
	}

	if err := s.invoiceRepo.Upsert(invoice); err != nil {
		return nil, fmt.Errorf("error upserting invoice: %w", err)
	}

	return BuildInvoiceResponse(invoice), nil
}

// Get obtiene una factura del usuario
func (s *InvoiceService) Get(userID, id uuid.UUID) (*models.InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.GetOwned(id, userID)
	if err != nil {
		return nil, err
	}

	return BuildInvoiceResponse(invoice), nil
}

// List obtiene las facturas del usuario con paginación
func (s *InvoiceService) List(userID uuid.UUID, page, pageSize int) (*models.InvoiceListResponse, error) {
	invoices, total, err := s.invoiceRepo.ListByUser(userID, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("error listing invoices: %w", err)
	}

	items := make([]models.InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		items = append(items, *BuildInvoiceResponse(&invoices[i]))
	}

	return &models.InvoiceListResponse{
		Items:    items,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	}, nil
}

// Delete elimina una factura del usuario
func (s *InvoiceService) Delete(userID, id uuid.UUID) error {
	return s.invoiceRepo.Delete(id, userID)
}

// ExportPDF genera el PDF de una factura del usuario y lo archiva de
// forma asíncrona si hay storage configurado.
func (s *InvoiceService) ExportPDF(userID, id uuid.UUID) ([]byte, string, error) {
	invoice, err := s.invoiceRepo.GetOwned(id, userID)
	if err != nil {
		return nil, "", err
	}

	return s.renderPDF(invoice, true)
}

// ExportSharedPDF genera el PDF de una factura resuelta por un share
// público; no archiva.
func (s *InvoiceService) ExportSharedPDF(invoiceID uuid.UUID) ([]byte, string, error) {
	invoice, err := s.invoiceRepo.GetByID(invoiceID)
	if err != nil {
		return nil, "", err
	}

	return s.renderPDF(invoice, false)
}

// renderPDF genera el PDF y opcionalmente lo archiva en background
func (s *InvoiceService) renderPDF(invoice *models.Invoice, archive bool) ([]byte, string, error) {
	pdfData, err := s.pdfGenerator.GenerateInvoicePDF(invoice)
	if err != nil {
		return nil, "", fmt.Errorf("error generating PDF: %w", err)
	}

	if archive && s.storageService != nil {
		invoiceID := invoice.ID
		go func() {
			if _, err := s.storageService.ArchiveInvoicePDF(context.Background(), invoiceID, pdfData); err != nil {
				s.logger.WithError(err).Warnf("Error archiving PDF for invoice %s", invoiceID)
			}
		}()
	}

	fileName := fmt.Sprintf("factura_%s.pdf", invoice.InvoiceNumber)
	return pdfData, fileName, nil
}

// BuildInvoiceResponse construye la respuesta con totales recalculados;
// el cálculo es puro y se repite en cada consulta.
func BuildInvoiceResponse(invoice *models.Invoice) *models.InvoiceResponse {
	return &models.InvoiceResponse{
		ID:            invoice.ID,
		InvoiceNumber: invoice.InvoiceNumber,
		Data:          invoice.Data,
		Totals:        totals.Compute(&invoice.Data),
		Formatted:     totals.ComputeFormatted(&invoice.Data),
		CreatedAt:     invoice.CreatedAt,
		UpdatedAt:     invoice.UpdatedAt,
	}
}
