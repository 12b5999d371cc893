package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hypernova-labs/factura-service/internal/models"
	"github.com/sirupsen/logrus"
)

// ShareRepository maneja las operaciones de base de datos para InvoiceShare
type ShareRepository struct {
	db     *DB
	logger *logrus.Logger
}

// NewShareRepository crea una nueva instancia del repositorio
func NewShareRepository(db *DB, logger *logrus.Logger) *ShareRepository {
	return &ShareRepository{
		db:     db,
		logger: logger,
	}
}

// Insert crea un nuevo share
func (r *ShareRepository) Insert(share *models.InvoiceShare) error {
	query := `
		INSERT INTO invoice_shares (
			id, invoice_id, user_id, share_token, allow_download,
			expires_at, created_at, last_accessed_at, access_count
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
	`

	_, err := r.db.ExecWithTimeout(query,
		share.ID, share.InvoiceID, share.UserID, share.ShareToken,
		share.AllowDownload, share.ExpiresAt, share.CreatedAt,
		share.LastAccessedAt, share.AccessCount,
	)
	if err != nil {
		return fmt.Errorf("error inserting share: %w", err)
	}

	return nil
}

// GetByToken obtiene un share por su token público
func (r *ShareRepository) GetByToken(token string) (*models.InvoiceShare, error) {
	query := `
		SELECT id, invoice_id, user_id, share_token, allow_download,
			   expires_at, created_at, last_accessed_at, access_count
		FROM invoice_shares
		WHERE share_token = $1
	`

	return r.scanOne(r.db.QueryRowWithTimeout(query, token))
}

// GetByID obtiene un share por ID
func (r *ShareRepository) GetByID(id uuid.UUID) (*models.InvoiceShare, error) {
	query := `
		SELECT id, invoice_id, user_id, share_token, allow_download,
			   expires_at, created_at, last_accessed_at, access_count
		FROM invoice_shares
		WHERE id = $1
	`

	return r.scanOne(r.db.QueryRowWithTimeout(query, id))
}

// ListByInvoice obtiene los shares de una factura de un usuario
func (r *ShareRepository) ListByInvoice(invoiceID, userID uuid.UUID) ([]models.InvoiceShare, error) {
	query := `
		SELECT id, invoice_id, user_id, share_token, allow_download,
			   expires_at, created_at, last_accessed_at, access_count
		FROM invoice_shares
		WHERE invoice_id = $1 AND user_id = $2
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryWithTimeout(query, invoiceID, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying shares: %w", err)
	}
	defer rows.Close()

	var shares []models.InvoiceShare
	for rows.Next() {
		var share models.InvoiceShare
		err := rows.Scan(
			&share.ID, &share.InvoiceID, &share.UserID, &share.ShareToken,
			&share.AllowDownload, &share.ExpiresAt, &share.CreatedAt,
			&share.LastAccessedAt, &share.AccessCount,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning share: %w", err)
		}
		shares = append(shares, share)
	}

	return shares, nil
}

// IncrementAccess incrementa el contador de accesos de forma atómica
// y registra el último acceso. El incremento ocurre en una sola
// sentencia para que accesos concurrentes no pierdan actualizaciones.
func (r *ShareRepository) IncrementAccess(id uuid.UUID) error {
	query := `
		UPDATE invoice_shares
		SET access_count = access_count + 1, last_accessed_at = $1
		WHERE id = $2
	`

	result, err := r.db.ExecWithTimeout(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("error incrementing access count: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("share %s: %w", id, models.ErrNotFound)
	}

	return nil
}

// DeleteOwned elimina un share de forma definitiva, solo si pertenece al
// usuario; retorna ErrUnauthorized si existe pero es de otro usuario.
func (r *ShareRepository) DeleteOwned(id, userID uuid.UUID) error {
	query := `DELETE FROM invoice_shares WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecWithTimeout(query, id, userID)
	if err != nil {
		return fmt.Errorf("error deleting share: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}

	if rowsAffected > 0 {
		return nil
	}

	// Distinguir entre share inexistente y share de otro usuario
	var ownerID uuid.UUID
	err = r.db.QueryRowWithTimeout(`SELECT user_id FROM invoice_shares WHERE id = $1`, id).Scan(&ownerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("share %s: %w", id, models.ErrNotFound)
		}
		return fmt.Errorf("error checking share ownership: %w", err)
	}

	return fmt.Errorf("share %s belongs to another user: %w", id, models.ErrUnauthorized)
}

// DeleteExpired elimina los shares cuya expiración pasó hace más del
// periodo de gracia; lo invoca el barrido periódico de workflows.
func (r *ShareRepository) DeleteExpired(grace time.Duration) (int64, error) {
	query := `DELETE FROM invoice_shares WHERE expires_at IS NOT NULL AND expires_at < $1`

	result, err := r.db.ExecWithTimeout(query, time.Now().Add(-grace))
	if err != nil {
		return 0, fmt.Errorf("error deleting expired shares: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error getting rows affected: %w", err)
	}

	return rowsAffected, nil
}

// scanOne escanea una fila única de share
func (r *ShareRepository) scanOne(row *sql.Row) (*models.InvoiceShare, error) {
	var share models.InvoiceShare
	err := row.Scan(
		&share.ID, &share.InvoiceID, &share.UserID, &share.ShareToken,
		&share.AllowDownload, &share.ExpiresAt, &share.CreatedAt,
		&share.LastAccessedAt, &share.AccessCount,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("share: %w", models.ErrNotFound)
		}
		return nil, fmt.Errorf("error querying share: %w", err)
	}

	return &share, nil
}
