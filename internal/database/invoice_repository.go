package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hypernova-labs/factura-service/internal/models"
	"github.com/sirupsen/logrus"
)

// InvoiceRepository maneja las operaciones de base de datos para Invoice
type InvoiceRepository struct {
	db     *DB
	logger *logrus.Logger
}

// NewInvoiceRepository crea una nueva instancia del repositorio
func NewInvoiceRepository(db *DB, logger *logrus.Logger) *InvoiceRepository {
	return &InvoiceRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert inserta o actualiza una factura por su id (last-write-wins)
func (r *InvoiceRepository) Upsert(invoice *models.Invoice) error {
	data, err := json.Marshal(invoice.Data)
	if err != nil {
		return fmt.Errorf("error marshaling invoice data: %w", err)
	}

	query := `
		INSERT INTO invoices (id, user_id, invoice_number, invoice_data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			invoice_number = EXCLUDED.invoice_number,
			invoice_data = EXCLUDED.invoice_data,
			updated_at = EXCLUDED.updated_at
		WHERE invoices.user_id = EXCLUDED.user_id
	`

	result, err := r.db.ExecWithTimeout(query,
		invoice.ID, invoice.UserID, invoice.InvoiceNumber, data,
		invoice.CreatedAt, invoice.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("error upserting invoice: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}

	// Cero filas significa que el id existe pero pertenece a otro usuario
	if rowsAffected == 0 {
		return fmt.Errorf("invoice %s belongs to another user: %w", invoice.ID, models.ErrUnauthorized)
	}

	return nil
}

// GetByID obtiene una factura por ID
func (r *InvoiceRepository) GetByID(id uuid.UUID) (*models.Invoice, error) {
	query := `
		SELECT id, user_id, invoice_number, invoice_data, created_at, updated_at
		FROM invoices
		WHERE id = $1
	`

	return r.scanOne(r.db.QueryRowWithTimeout(query, id))
}

// GetOwned obtiene una factura por ID verificando propiedad
func (r *InvoiceRepository) GetOwned(id, userID uuid.UUID) (*models.Invoice, error) {
	invoice, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}

	if invoice.UserID != userID {
		return nil, fmt.Errorf("invoice %s belongs to another user: %w", id, models.ErrUnauthorized)
	}

	return invoice, nil
}

// ListByUser obtiene las facturas de un usuario con paginación
func (r *InvoiceRepository) ListByUser(userID uuid.UUID, page, pageSize int) ([]models.Invoice, int, error) {
	countQuery := `SELECT COUNT(*) FROM invoices WHERE user_id = $1`
	var total int
	if err := r.db.QueryRowWithTimeout(countQuery, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting invoices: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `
		SELECT id, user_id, invoice_number, invoice_data, created_at, updated_at
		FROM invoices
		WHERE user_id = $1
		ORDER BY updated_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryWithTimeout(query, userID, pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("error querying invoices: %w", err)
	}
	defer rows.Close()

	var invoices []models.Invoice
	for rows.Next() {
		invoice, err := r.scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		invoices = append(invoices, *invoice)
	}

	return invoices, total, nil
}

// Delete elimina una factura verificando propiedad
func (r *InvoiceRepository) Delete(id, userID uuid.UUID) error {
	query := `DELETE FROM invoices WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecWithTimeout(query, id, userID)
	if err != nil {
		return fmt.Errorf("error deleting invoice: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("invoice %s: %w", id, models.ErrNotFound)
	}

	return nil
}

// scanOne escanea una fila única de factura
func (r *InvoiceRepository) scanOne(row *sql.Row) (*models.Invoice, error) {
	var invoice models.Invoice
	var data []byte

	err := row.Scan(
		&invoice.ID, &invoice.UserID, &invoice.InvoiceNumber, &data,
		&invoice.CreatedAt, &invoice.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("invoice: %w", models.ErrNotFound)
		}
		return nil, fmt.Errorf("error querying invoice: %w", err)
	}

	if err := json.Unmarshal(data, &invoice.Data); err != nil {
		return nil, fmt.Errorf("error unmarshaling invoice data: %w", err)
	}

	return &invoice, nil
}

// scanRow escanea una fila del listado
func (r *InvoiceRepository) scanRow(rows *sql.Rows) (*models.Invoice, error) {
	var invoice models.Invoice
	var data []byte

	err := rows.Scan(
		&invoice.ID, &invoice.UserID, &invoice.InvoiceNumber, &data,
		&invoice.CreatedAt, &invoice.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("error scanning invoice: %w", err)
	}

	if err := json.Unmarshal(data, &invoice.Data); err != nil {
		return nil, fmt.Errorf("error unmarshaling invoice data: %w", err)
	}

	return &invoice, nil
}
