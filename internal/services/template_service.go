package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hypernova-labs/factura-service/internal/database"
	"github.com/hypernova-labs/factura-service/internal/models"
	"github.com/sirupsen/logrus"
)

// TemplateService maneja la lógica de negocio para plantillas de factura
type TemplateService struct {
	templateRepo *database.TemplateRepository
	logger       *logrus.Logger
}

// NewTemplateService crea una nueva instancia del servicio
func NewTemplateService(db *database.DB, logger *logrus.Logger) *TemplateService {
	return &TemplateService{
		templateRepo: database.NewTemplateRepository(db, logger),
		logger:       logger,
	}
}

// Create crea una nueva plantilla para el usuario
func (s *TemplateService) Create(userID uuid.UUID, req *models.CreateTemplateRequest) (*models.InvoiceTemplate, error) {
	template := &models.InvoiceTemplate{
		ID:           uuid.New(),
		UserID:       userID,
		Name:         req.Name,
		Description:  req.Description,
		TemplateData: req.TemplateData,
		UsageCount:   0,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := s.templateRepo.Create(template); err != nil {
		return nil, fmt.Errorf("error creating template: %w", err)
	}

	return template, nil
}

// List obtiene las plantillas del usuario con paginación
func (s *TemplateService) List(userID uuid.UUID, page, pageSize int) (*models.TemplateListResponse, error) {
	templates, total, err := s.templateRepo.ListByUser(userID, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("error listing templates: %w", err)
	}

	return &models.TemplateListResponse{
		Items:    templates,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	}, nil
}

// Apply retorna los datos de una plantilla del usuario e incrementa su
// contador de uso.
func (s *TemplateService) Apply(userID, templateID uuid.UUID) (*models.InvoiceData, error) {
	template, err := s.templateRepo.GetOwned(templateID, userID)
	if err != nil {
		return nil, err
	}

	if err := s.templateRepo.IncrementUsage(templateID); err != nil {
		// El contador es informativo; no impide aplicar la plantilla
		s.logger.WithError(err).Warnf("Error incrementing usage for template %s", templateID)
	}

	return &template.TemplateData, nil
}

// Delete elimina una plantilla del usuario
func (s *TemplateService) Delete(userID, templateID uuid.UUID) error {
	return s.templateRepo.Delete(templateID, userID)
}
