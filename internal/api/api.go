package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hypernova-labs/factura-service/internal/database"
	"github.com/hypernova-labs/factura-service/internal/email"
	"github.com/hypernova-labs/factura-service/internal/models"
	"github.com/hypernova-labs/factura-service/internal/services"
	"github.com/sirupsen/logrus"
)

// API maneja todos los endpoints de la API
type API struct {
	invoiceService  *services.InvoiceService
	shareService    *services.ShareService
	templateService *services.TemplateService
	emailService    *email.ResendService
	autosaveManager *services.AutosaveManager
	apiKeyRepo      *database.APIKeyRepository
	logger          *logrus.Logger
}

// NewAPI crea una nueva instancia de la API
func NewAPI(
	invoiceService *services.InvoiceService,
	shareService *services.ShareService,
	templateService *services.TemplateService,
	emailService *email.ResendService,
	autosaveManager *services.AutosaveManager,
	apiKeyRepo *database.APIKeyRepository,
	logger *logrus.Logger,
) *API {
	return &API{
		invoiceService:  invoiceService,
		shareService:    shareService,
		templateService: templateService,
		emailService:    emailService,
		autosaveManager: autosaveManager,
		apiKeyRepo:      apiKeyRepo,
		logger:          logger,
	}
}

// UpsertInvoice crea o actualiza una factura
func (api *API) UpsertInvoice(c *gin.Context) {
	userID, err := api.getUserIDFromAuth(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.NewUnauthorizedError("Invalid API key"))
		return
	}

	var req models.UpsertInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.logger.WithError(err).Error("Error binding upsert invoice request")
		c.JSON(http.StatusBadRequest, models.NewValidationError("Invalid request format", []models.ErrorDetail{
			{Field: "body", Issue: err.Error()},
		}))
		return
	}

	// Un guardado manual pendiente supersede cualquier autosave encolado
	if req.ID != nil {
		api.autosaveManager.Cancel(*req.ID)
	}

	response, err := api.invoiceService.Upsert(userID, &req)
	if err != nil {
		api.respondError(c, err, "Error saving invoice")
		return
	}

	c.JSON(http.StatusOK, response)
}

// AutosaveInvoice encola un guardado automático con debounce
func (api *API) AutosaveInvoice(c *gin.Context) {
	userID, err := api.getUserIDFromAuth(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.NewUnauthorizedError("Invalid API key"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewValidationError("Invalid invoice ID", []models.ErrorDetail{
			{Field: "id", Issue: "Must be a valid UUID"},
		}))
		return
	}

	var req models.UpsertInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.logger.WithError(err).Error("Error binding autosave request")
		c.JSON(http.StatusBadRequest, models.NewValidationError("Invalid request format", []models.ErrorDetail{
			{Field: "body", Issue: err.Error()},
		}))
		return
	}

	invoice := &models.Invoice{
		ID:            id,
		UserID:        userID,
		InvoiceNumber: req.InvoiceNumber,
		Data:          req.Data,
	}
	api.autosaveManager.Schedule(invoice)

	c.JSON(http.StatusAccepted, gin.H{"status": "scheduled"})
}

// ListInvoices obtiene las facturas del usuario con paginación
func (api *API) ListInvoices(c *gin.Context) {
	userID, err := api.getUserIDFromAuth(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.NewUnauthorizedError("Invalid API key"))
		return
	}

	page, pageSize := parsePagination(c)

	response, err := api.invoiceService.List(userID, page, pageSize)
	if err != nil {
		api.respondError(c, err, "Error retrieving invoices")
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetInvoice obtiene una factura por ID
func (api *API) GetInvoice(c *gin.Context) {
	userID, err := api.getUserIDFromAuth(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.NewUnauthorizedError("Invalid API key"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewValidationError("Invalid invoice ID", []models.ErrorDetail{
			{Field: "id", Issue: "Must be a valid UUID"},
		}))
		return
	}

	response, err := api.invoiceService.Get(userID, id)
	if err != nil {
		api.respondError(c, err, "Error retrieving invoice")
		return
	}

	c.JSON(http.StatusOK, response)
}

// DeleteInvoice elimina una factura del usuario
func (api *API) DeleteInvoice(c *gin.Context) {
	userID, err := api.getUserIDFromAuth(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.NewUnauthorizedError("Invalid API key"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewValidationError("Invalid invoice ID", []models.ErrorDetail{
			{Field: "id", Issue: "Must be a valid UUID"},
		}))
		return
	}

	api.autosaveManager.Cancel(id)

	if err := api.invoiceService.Delete(userID, id); err != nil {
		api.respondError(c, err, "Error deleting invoice")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetInvoicePDF genera y descarga el PDF de una factura del usuario
func (api *API) GetInvoicePDF(c *gin.Context) {
	userID, err := api.getUserIDFromAuth(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.NewUnauthorizedError("Invalid API key"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewValidationError("Invalid invoice ID", []models.ErrorDetail{
			{Field: "id", Issue: "Must be a valid UUID"},
		}))
		return
	}

	pdfData, fileName, err := api.invoiceService.ExportPDF(userID, id)
	if err != nil {
		api.respondError(c, err, "Error generating PDF")
		return
	}

	writePDF(c, pdfData, fileName)
}

// ListInvoiceShares obtiene los shares activos de una factura del usuario
func (api *API) ListInvoiceShares(c *gin.Context) {
	userID, err := api.getUserIDFromAuth(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.NewUnauthorizedError("Invalid API key"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewValidationError("Invalid invoice ID", []models.ErrorDetail{
			{Field: "id", Issue: "Must be a valid UUID"},
		}))
		return
	}

	shares, err := api.shareService.ListShares(userID, id)
	if err != nil {
		api.respondError(c, err, "Error retrieving shares")
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": shares})
}

// CreateShare crea un enlace público para una factura
func (api *API) CreateShare(c *gin.Context) {
	userID, err := api.getUserIDFromAuth(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.NewUnauthorizedError("Invalid API key"))
		return
	}

	var req models.CreateShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.logger.WithError(err).Error("Error binding create share request")
		c.JSON(http.StatusBadRequest, models.NewValidationError("Invalid request format", []models.ErrorDetail{
			{Field: "body", Issue: err.Error()},
		}))
		return
	}

	response, err := api.shareService.CreateShare(userID, &req)
	if err != nil {
		api.respondError(c, err, "Error creating share")
		return
	}

	c.JSON(http.StatusCreated, response)
}

// RevokeShare revoca un enlace público de forma definitiva
func (api *API) RevokeShare(c *gin.Context) {
	userID, err := api.getUserIDFromAuth(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.NewUnauthorizedError("Invalid API key"))
		return
	}

	idStr := c.Query("id")
	if idStr == "" {
		c.JSON(http.StatusBadRequest, models.NewValidationError("Share ID required", []models.ErrorDetail{
			{Field: "id", Issue: "Query parameter 'id' is required"},
		}))
		return
	}

	shareID, err := uuid.Parse(idStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewValidationError("Invalid share ID", []models.ErrorDetail{
			{Field: "id", Issue: "Must be a valid UUID"},
		}))
		return
	}

	if err := api.shareService.RevokeShare(userID, shareID); err != nil {
		api.respondError(c, err, "Error revoking share")
		return
	}

	c.JSON(http.StatusOK, models.RevokeShareResponse{Success: true})
}

// SendShareEmail envía el enlace público de una factura por correo
func (api *API) SendShareEmail(c *gin.Context) {
	_, err := api.getUserIDFromAuth(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.NewUnauthorizedError("Invalid API key"))
		return
	}

	var req models.ShareEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.logger.WithError(err).Error("Error binding share email request")
		c.JSON(http.StatusBadRequest, models.NewValidationError("Invalid request format", []models.ErrorDetail{
			{Field: "body", Issue: err.Error()},
		}))
		return
	}

	if err := api.emailService.SendShareEmail(&req); err != nil {
		api.logger.WithError(err).Error("Error sending share email")
		c.JSON(http.StatusBadGateway, models.NewUpstreamError("Error sending email"))
		return
	}

	status := "sent"
	if api.emailService.IsMockMode() {
		status = "logged"
	}

	c.JSON(http.StatusOK, models.ShareEmailResponse{Status: status})
}

// CreateTemplate crea una plantilla de factura
func (api *API) CreateTemplate(c *gin.Context) {
	userID, err := api.getUserIDFromAuth(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.NewUnauthorizedError("Invalid API key"))
		return
	}

	var req models.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.logger.WithError(err).Error("Error binding create template request")
		c.JSON(http.StatusBadRequest, models.NewValidationError("Invalid request format", []models.ErrorDetail{
			{Field: "body", Issue: err.Error()},
		}))
		return
	}

	template, err := api.templateService.Create(userID, &req)
	if err != nil {
		api.respondError(c, err, "Error creating template")
		return
	}

	c.JSON(http.StatusCreated, template)
}

// ListTemplates obtiene las plantillas del usuario con paginación
func (api *API) ListTemplates(c *gin.Context) {
	userID, err := api.getUserIDFromAuth(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.NewUnauthorizedError("Invalid API key"))
		return
	}

	page, pageSize := parsePagination(c)

	response, err := api.templateService.List(userID, page, pageSize)
	if err != nil {
		api.respondError(c, err, "Error retrieving templates")
		return
	}

	c.JSON(http.StatusOK, response)
}

// ApplyTemplate retorna los datos de una plantilla para una nueva factura
func (api *API) ApplyTemplate(c *gin.Context) {
	userID, err := api.getUserIDFromAuth(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.NewUnauthorizedError("Invalid API key"))
		return
	}

	templateID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewValidationError("Invalid template ID", []models.ErrorDetail{
			{Field: "id", Issue: "Must be a valid UUID"},
		}))
		return
	}

	data, err := api.templateService.Apply(userID, templateID)
	if err != nil {
		api.respondError(c, err, "Error applying template")
		return
	}

	c.JSON(http.StatusOK, gin.H{"invoice_data": data})
}

// DeleteTemplate elimina una plantilla del usuario
func (api *API) DeleteTemplate(c *gin.Context) {
	userID, err := api.getUserIDFromAuth(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.NewUnauthorizedError("Invalid API key"))
		return
	}

	templateID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewValidationError("Invalid template ID", []models.ErrorDetail{
			{Field: "id", Issue: "Must be a valid UUID"},
		}))
		return
	}

	if err := api.templateService.Delete(userID, templateID); err != nil {
		api.respondError(c, err, "Error deleting template")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// CreateAPIKey crea una nueva API key para el usuario autenticado
func (api *API) CreateAPIKey(c *gin.Context) {
	userID, err := api.getUserIDFromAuth(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.NewUnauthorizedError("Invalid API key"))
		return
	}

	var req models.CreateAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.logger.WithError(err).Error("Error binding create API key request")
		c.JSON(http.StatusBadRequest, models.NewValidationError("Invalid request format", []models.ErrorDetail{
			{Field: "body", Issue: err.Error()},
		}))
		return
	}

	apiKeyModel, plainKey, err := api.apiKeyRepo.Create(userID, req.Name)
	if err != nil {
		api.logger.WithError(err).Error("Error creating API key")
		c.JSON(http.StatusInternalServerError, models.NewInternalError("Error creating API key"))
		return
	}

	// La clave en claro se retorna una sola vez
	c.JSON(http.StatusCreated, models.CreateAPIKeyResponse{
		ID:     apiKeyModel.ID,
		Name:   apiKeyModel.Name,
		APIKey: plainKey,
	})
}

// getUserIDFromAuth extrae el user ID del header de autenticación
func (api *API) getUserIDFromAuth(c *gin.Context) (uuid.UUID, error) {
	apiKey := c.GetHeader("X-API-Key")
	if apiKey == "" {
		return uuid.Nil, models.NewAPIError(models.NewUnauthorizedError("API key required"))
	}

	apiKeyModel, err := api.apiKeyRepo.GetByHash(api.apiKeyRepo.HashAPIKey(apiKey))
	if err != nil {
		return uuid.Nil, models.NewAPIError(models.NewUnauthorizedError("Invalid API key"))
	}

	// Actualizar último uso
	if err := api.apiKeyRepo.UpdateLastUsed(apiKeyModel.ID); err != nil {
		api.logger.Warnf("Error updating API key last used: %v", err)
	}

	return apiKeyModel.UserID, nil
}

// respondError traduce los errores centinela de la capa de servicios a
// la respuesta de error estandarizada
func (api *API) respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, models.ErrValidation):
		c.JSON(http.StatusBadRequest, models.NewValidationError(err.Error(), nil))
	case errors.Is(err, models.ErrUnauthorized):
		c.JSON(http.StatusForbidden, models.NewForbiddenError("Access denied to this resource"))
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, models.NewNotFoundError("Resource not found"))
	case errors.Is(err, models.ErrUpstream):
		api.logger.WithError(err).Error(fallback)
		c.JSON(http.StatusBadGateway, models.NewUpstreamError(fallback))
	default:
		api.logger.WithError(err).Error(fallback)
		c.JSON(http.StatusInternalServerError, models.NewInternalError(fallback))
	}
}

// parsePagination lee page/page_size de la query con defaults seguros
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	return page, pageSize
}

// writePDF configura los headers de descarga y envía el archivo
func writePDF(c *gin.Context, pdfData []byte, fileName string) {
	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%s", fileName))
	c.Header("Content-Length", fmt.Sprintf("%d", len(pdfData)))
	c.Data(http.StatusOK, "application/pdf", pdfData)
}
