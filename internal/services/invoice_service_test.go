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

func newTestInvoiceService(t *testing.T) (*InvoiceService, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	return NewInvoiceService(&database.DB{DB: mockDB}, nil, logger), mock
}

func TestUpsertRejectsInvalidTaxRate(t *testing.T) {
	service, _ := newTestInvoiceService(t)

	for _, rate := range []float64{-1, 101, 250} {
		_, err := service.Upsert(uuid.New(), &models.UpsertInvoiceRequest{
			InvoiceNumber: "F-001",
			Data:          models.InvoiceData{TaxRate: rate},
		})
		assert.ErrorIs(t, err, models.ErrValidation, "tax rate %v", rate)
	}
}

func TestUpsertCreatesInvoiceWithTotals(t *testing.T) {
	service, mock := newTestInvoiceService(t)

	mock.ExpectExec("INSERT INTO invoices").
		WillReturnResult(sqlmock.NewResult(0, 1))

	response, err := service.Upsert(uuid.New(), &models.UpsertInvoiceRequest{
		InvoiceNumber: "F-001",
		Data: models.InvoiceData{
			Items: []models.InvoiceItem{{
				ID:          "1",
				Description: "Diseño",
				Quantity:    models.FlexNumberFromString("2"),
				Rate:        models.FlexNumberFromString("100"),
			}},
			TaxRate: 10,
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 200.0, response.Totals.Subtotal)
	assert.Equal(t, 20.0, response.Totals.Tax)
	assert.Equal(t, 220.0, response.Totals.Total)
	// La moneda ausente cae a USD
	assert.Equal(t, "USD", response.Data.Currency)
	assert.NotEmpty(t, response.Formatted.Total)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertExistingIDBelongsToAnotherUser(t *testing.T) {
	service, mock := newTestInvoiceService(t)

	id := uuid.New()
	owner := uuid.New()

	// Lectura previa para conservar created_at
	mock.ExpectQuery("SELECT (.+) FROM invoices").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "invoice_number", "invoice_data", "created_at", "updated_at"}).
			AddRow(id.String(), owner.String(), "F-001", []byte(invoiceDataJSON), time.Now(), time.Now()))

	// El upsert condicionado por user_id no afecta filas
	mock.ExpectExec("INSERT INTO invoices").
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := service.Upsert(uuid.New(), &models.UpsertInvoiceRequest{
		ID:            &id,
		InvoiceNumber: "F-001",
		Data:          models.InvoiceData{TaxRate: 0},
	})
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetEnforcesOwnership(t *testing.T) {
	service, mock := newTestInvoiceService(t)

	id := uuid.New()
	owner := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM invoices").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "invoice_number", "invoice_data", "created_at", "updated_at"}).
			AddRow(id.String(), owner.String(), "F-001", []byte(invoiceDataJSON), time.Now(), time.Now()))

	_, err := service.Get(uuid.New(), id)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestBuildInvoiceResponseRecomputesTotals(t *testing.T) {
	invoice := &models.Invoice{
		ID:            uuid.New(),
		InvoiceNumber: "F-010",
		Data: models.InvoiceData{
			Items: []models.InvoiceItem{
				{ID: "1", Quantity: models.FlexNumberFromString("3"), Rate: models.FlexNumberFromString("15")},
				{ID: "2", Quantity: models.FlexNumberFromString(""), Rate: models.FlexNumberFromString("999")},
			},
			TaxRate:  0,
			Currency: "EUR",
			Locale:   "es-ES",
		},
	}

	response := BuildInvoiceResponse(invoice)

	// La línea con cantidad vacía aporta cero
	assert.Equal(t, 45.0, response.Totals.Subtotal)
	assert.Equal(t, 45.0, response.Totals.Total)
	assert.NotEmpty(t, response.Formatted.Total)
}
