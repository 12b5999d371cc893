package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/hypernova-labs/factura-service/internal/database"
	"github.com/hypernova-labs/factura-service/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const invoiceDataJSON = `{"items":[{"id":"1","description":"Diseño","quantity":2,"rate":100}],"tax_rate":10,"currency":"USD","sender":{"name":"Estudio"},"client":{"name":"Cliente"}}`

func newTestShareService(t *testing.T, now time.Time) (*ShareService, sqlmock.Sqlmock, *time.Time) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	db := &database.DB{DB: mockDB}
	clock := now

	service := &ShareService{
		shareRepo:   database.NewShareRepository(db, logger),
		invoiceRepo: database.NewInvoiceRepository(db, logger),
		logger:      logger,
		baseURL:     "http://localhost:8081",
		tokenLength: 32,
		now:         func() time.Time { return clock },
	}

	return service, mock, &clock
}

func expectInvoiceRow(mock sqlmock.Sqlmock, invoiceID, userID uuid.UUID) {
	mock.ExpectQuery("SELECT (.+) FROM invoices").
		WithArgs(invoiceID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "invoice_number", "invoice_data", "created_at", "updated_at"}).
			AddRow(invoiceID.String(), userID.String(), "F-001", []byte(invoiceDataJSON), time.Now(), time.Now()))
}

func expectShareRow(mock sqlmock.Sqlmock, token string, share *models.InvoiceShare) {
	var expiresAt interface{}
	if share.ExpiresAt != nil {
		expiresAt = *share.ExpiresAt
	}

	mock.ExpectQuery("SELECT (.+) FROM invoice_shares").
		WithArgs(token).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "invoice_id", "user_id", "share_token", "allow_download",
			"expires_at", "created_at", "last_accessed_at", "access_count",
		}).AddRow(
			share.ID.String(), share.InvoiceID.String(), share.UserID.String(),
			share.ShareToken, share.AllowDownload, expiresAt,
			share.CreatedAt, nil, share.AccessCount,
		))
}

func TestCreateShareRequiresInvoiceID(t *testing.T) {
	service, _, _ := newTestShareService(t, time.Now())

	_, err := service.CreateShare(uuid.New(), &models.CreateShareRequest{})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = service.CreateShare(uuid.New(), &models.CreateShareRequest{InvoiceID: "not-a-uuid"})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestCreateShareRejectsNonPositiveExpiry(t *testing.T) {
	service, mock, _ := newTestShareService(t, time.Now())

	invoiceID := uuid.New()
	userID := uuid.New()
	expectInvoiceRow(mock, invoiceID, userID)

	days := 0
	_, err := service.CreateShare(userID, &models.CreateShareRequest{
		InvoiceID: invoiceID.String(),
		Options:   models.ShareOptions{ExpiresInDays: &days},
	})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestCreateShareOwnershipEnforced(t *testing.T) {
	service, mock, _ := newTestShareService(t, time.Now())

	invoiceID := uuid.New()
	owner := uuid.New()
	expectInvoiceRow(mock, invoiceID, owner)

	_, err := service.CreateShare(uuid.New(), &models.CreateShareRequest{InvoiceID: invoiceID.String()})
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestCreateShare(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	service, mock, _ := newTestShareService(t, base)

	invoiceID := uuid.New()
	userID := uuid.New()
	expectInvoiceRow(mock, invoiceID, userID)

	mock.ExpectExec("INSERT INTO invoice_shares").
		WillReturnResult(sqlmock.NewResult(0, 1))

	days := 7
	response, err := service.CreateShare(userID, &models.CreateShareRequest{
		InvoiceID: invoiceID.String(),
		Options:   models.ShareOptions{AllowDownload: true, ExpiresInDays: &days},
	})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, len(response.Share.ShareToken), 32)
	assert.True(t, response.Share.AllowDownload)
	require.NotNil(t, response.Share.ExpiresAt)
	assert.Equal(t, base.Add(7*24*time.Hour), *response.Share.ExpiresAt)
	assert.Equal(t, "http://localhost:8081/share/"+response.Share.ShareToken, response.ShareURL)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveShare(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	service, mock, clock := newTestShareService(t, base)

	invoiceID := uuid.New()
	expiresAt := base.Add(7 * 24 * time.Hour)
	share := &models.InvoiceShare{
		ID:         uuid.New(),
		InvoiceID:  invoiceID,
		UserID:     uuid.New(),
		ShareToken: "tok_resolve",
		ExpiresAt:  &expiresAt,
		CreatedAt:  base,
	}

	// Seis días después sigue activo
	*clock = base.Add(6 * 24 * time.Hour)
	expectShareRow(mock, "tok_resolve", share)
	expectInvoiceRow(mock, invoiceID, share.UserID)

	resolved, err := service.ResolveShare("tok_resolve")
	require.NoError(t, err)

	assert.Equal(t, share.ID, resolved.Share.ID)
	assert.Equal(t, "F-001", resolved.Invoice.InvoiceNumber)
	assert.Equal(t, 220.0, resolved.Invoice.Totals.Total)

	// Resolver no muta estado: no hubo ningún UPDATE
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveShareExpired(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	service, mock, clock := newTestShareService(t, base)

	invoiceID := uuid.New()
	expiresAt := base.Add(7 * 24 * time.Hour)
	share := &models.InvoiceShare{
		ID:         uuid.New(),
		InvoiceID:  invoiceID,
		UserID:     uuid.New(),
		ShareToken: "tok_expired",
		ExpiresAt:  &expiresAt,
		CreatedAt:  base,
	}

	// Ocho días después ya expiró; la factura nunca se consulta
	*clock = base.Add(8 * 24 * time.Hour)
	expectShareRow(mock, "tok_expired", share)

	_, err := service.ResolveShare("tok_expired")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveShareMissingToken(t *testing.T) {
	service, mock, _ := newTestShareService(t, time.Now())

	_, err := service.ResolveShare("")
	assert.ErrorIs(t, err, models.ErrNotFound)

	mock.ExpectQuery("SELECT (.+) FROM invoice_shares").
		WithArgs("tok_missing").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "invoice_id", "user_id", "share_token", "allow_download",
			"expires_at", "created_at", "last_accessed_at", "access_count",
		}))

	// Token inexistente y token expirado son indistinguibles
	_, err = service.ResolveShare("tok_missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestResolveShareWithoutExpiryNeverExpires(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	service, mock, clock := newTestShareService(t, base)

	invoiceID := uuid.New()
	share := &models.InvoiceShare{
		ID:         uuid.New(),
		InvoiceID:  invoiceID,
		UserID:     uuid.New(),
		ShareToken: "tok_forever",
		CreatedAt:  base,
	}

	*clock = base.AddDate(10, 0, 0)
	expectShareRow(mock, "tok_forever", share)
	expectInvoiceRow(mock, invoiceID, share.UserID)

	resolved, err := service.ResolveShare("tok_forever")
	require.NoError(t, err)
	assert.Nil(t, resolved.Share.ExpiresAt)
}

func TestRevokeShareNonOwner(t *testing.T) {
	service, mock, _ := newTestShareService(t, time.Now())

	shareID := uuid.New()
	owner := uuid.New()
	intruder := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM invoice_shares").
		WithArgs(shareID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "invoice_id", "user_id", "share_token", "allow_download",
			"expires_at", "created_at", "last_accessed_at", "access_count",
		}).AddRow(shareID.String(), uuid.New().String(), owner.String(), "tok_rev", false, nil, time.Now(), nil, 0))

	mock.ExpectExec("DELETE FROM invoice_shares").
		WithArgs(shareID, intruder).
		WillReturnResult(sqlmock.NewResult(0, 0))

	mock.ExpectQuery("SELECT user_id FROM invoice_shares").
		WithArgs(shareID).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(owner.String()))

	err := service.RevokeShare(intruder, shareID)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerateShareToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := generateShareToken(32)
		require.NoError(t, err)
		assert.Len(t, token, 32)
		for _, r := range token {
			assert.Contains(t, shareTokenAlphabet, string(r))
		}
		assert.False(t, seen[token], "tokens must never repeat")
		seen[token] = true
	}

	// Longitudes menores al mínimo se elevan a 32
	short, err := generateShareToken(8)
	require.NoError(t, err)
	assert.Len(t, short, 32)
}
