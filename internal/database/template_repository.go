package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hypernova-labs/factura-service/internal/models"
	"github.com/sirupsen/logrus"
)

// TemplateRepository maneja las operaciones de base de datos para InvoiceTemplate
type TemplateRepository struct {
	db     *DB
	logger *logrus.Logger
}

// NewTemplateRepository crea una nueva instancia del repositorio
func NewTemplateRepository(db *DB, logger *logrus.Logger) *TemplateRepository {
	return &TemplateRepository{
		db:     db,
		logger: logger,
	}
}

// Create crea una nueva plantilla
func (r *TemplateRepository) Create(template *models.InvoiceTemplate) error {
	data, err := json.Marshal(template.TemplateData)
	if err != nil {
		return fmt.Errorf("error marshaling template data: %w", err)
	}

	query := `
		INSERT INTO invoice_templates (
			id, user_id, name, description, template_data, usage_count, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
	`

	_, err = r.db.ExecWithTimeout(query,
		template.ID, template.UserID, template.Name, template.Description,
		data, template.UsageCount, template.CreatedAt, template.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("error inserting template: %w", err)
	}

	return nil
}

// GetOwned obtiene una plantilla verificando propiedad
func (r *TemplateRepository) GetOwned(id, userID uuid.UUID) (*models.InvoiceTemplate, error) {
	query := `
		SELECT id, user_id, name, description, template_data, usage_count, created_at, updated_at
		FROM invoice_templates
		WHERE id = $1
	`

	var template models.InvoiceTemplate
	var data []byte

	err := r.db.QueryRowWithTimeout(query, id).Scan(
		&template.ID, &template.UserID, &template.Name, &template.Description,
		&data, &template.UsageCount, &template.CreatedAt, &template.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("template %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("error querying template: %w", err)
	}

	if template.UserID != userID {
		return nil, fmt.Errorf("template %s belongs to another user: %w", id, models.ErrUnauthorized)
	}

	if err := json.Unmarshal(data, &template.TemplateData); err != nil {
		return nil, fmt.Errorf("error unmarshaling template data: %w", err)
	}

	return &template, nil
}

// ListByUser obtiene las plantillas de un usuario con paginación
func (r *TemplateRepository) ListByUser(userID uuid.UUID, page, pageSize int) ([]models.InvoiceTemplate, int, error) {
	countQuery := `SELECT COUNT(*) FROM invoice_templates WHERE user_id = $1`
	var total int
	if err := r.db.QueryRowWithTimeout(countQuery, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting templates: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `
		SELECT id, user_id, name, description, template_data, usage_count, created_at, updated_at
		FROM invoice_templates
		WHERE user_id = $1
		ORDER BY usage_count DESC, updated_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryWithTimeout(query, userID, pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("error querying templates: %w", err)
	}
	defer rows.Close()

	var templates []models.InvoiceTemplate
	for rows.Next() {
		var template models.InvoiceTemplate
		var data []byte
		err := rows.Scan(
			&template.ID, &template.UserID, &template.Name, &template.Description,
			&data, &template.UsageCount, &template.CreatedAt, &template.UpdatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning template: %w", err)
		}
		if err := json.Unmarshal(data, &template.TemplateData); err != nil {
			return nil, 0, fmt.Errorf("error unmarshaling template data: %w", err)
		}
		templates = append(templates, template)
	}

	return templates, total, nil
}

// IncrementUsage incrementa el contador de uso de una plantilla
func (r *TemplateRepository) IncrementUsage(id uuid.UUID) error {
	query := `
		UPDATE invoice_templates
		SET usage_count = usage_count + 1, updated_at = $1
		WHERE id = $2
	`

	result, err := r.db.ExecWithTimeout(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("error incrementing template usage: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("template %s: %w", id, models.ErrNotFound)
	}

	return nil
}

// Delete elimina una plantilla verificando propiedad
func (r *TemplateRepository) Delete(id, userID uuid.UUID) error {
	query := `DELETE FROM invoice_templates WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecWithTimeout(query, id, userID)
	if err != nil {
		return fmt.Errorf("error deleting template: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("template %s: %w", id, models.ErrNotFound)
	}

	return nil
}
