package models

import (
	"time"

	"github.com/google/uuid"
)

// InvoiceTemplate representa una plantilla reutilizable de factura
type InvoiceTemplate struct {
	ID           uuid.UUID   `json:"id" db:"id"`
	UserID       uuid.UUID   `json:"user_id" db:"user_id"`
	Name         string      `json:"name" db:"name"`
	Description  string      `json:"description" db:"description"`
	TemplateData InvoiceData `json:"template_data" db:"template_data"`
	UsageCount   int         `json:"usage_count" db:"usage_count"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
}

// CreateTemplateRequest representa el request para crear una plantilla
type CreateTemplateRequest struct {
	Name         string      `json:"name" binding:"required"`
	Description  string      `json:"description"`
	TemplateData InvoiceData `json:"template_data" binding:"required"`
}

// TemplateListResponse representa la respuesta paginada del listado de plantillas
type TemplateListResponse struct {
	Items    []InvoiceTemplate `json:"items"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
	Total    int               `json:"total"`
}
