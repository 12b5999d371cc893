package services

import (
	"database/sql/driver"
	"encoding/json"
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

func newTestAutosaveManager(t *testing.T, debounce time.Duration) (*AutosaveManager, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	return NewAutosaveManager(&database.DB{DB: mockDB}, debounce, logger), mock
}

// nonZeroTime acepta cualquier argumento time.Time distinto del cero
type nonZeroTime struct{}

func (nonZeroTime) Match(v driver.Value) bool {
	t, ok := v.(time.Time)
	return ok && !t.IsZero()
}

func draftInvoice(number string) *models.Invoice {
	return &models.Invoice{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		InvoiceNumber: number,
		CreatedAt:     time.Now(),
		Data: models.InvoiceData{
			Currency: "USD",
			Items: []models.InvoiceItem{{
				ID:          "1",
				Description: "Borrador",
				Quantity:    models.FlexNumberFromString("1"),
				Rate:        models.FlexNumberFromString("10"),
			}},
		},
	}
}

func TestAutosaveCoalescesEdits(t *testing.T) {
	manager, mock := newTestAutosaveManager(t, time.Hour)

	invoice := draftInvoice("F-001")
	edited := *invoice
	edited.InvoiceNumber = "F-001-v2"

	// Dos ediciones rápidas quedan como una sola escritura pendiente
	manager.Schedule(invoice)
	manager.Schedule(&edited)
	assert.Equal(t, 1, manager.PendingCount())

	data, err := json.Marshal(edited.Data)
	require.NoError(t, err)

	// El flush persiste la última versión encolada
	mock.ExpectExec("INSERT INTO invoices").
		WithArgs(edited.ID, edited.UserID, "F-001-v2", data, edited.CreatedAt, nonZeroTime{}).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, manager.Flush(invoice.ID))
	assert.Equal(t, 0, manager.PendingCount())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAutosaveFiresAfterDebounce(t *testing.T) {
	manager, mock := newTestAutosaveManager(t, 20*time.Millisecond)

	invoice := draftInvoice("F-002")

	mock.ExpectExec("INSERT INTO invoices").
		WillReturnResult(sqlmock.NewResult(0, 1))

	manager.Schedule(invoice)

	assert.Eventually(t, func() bool {
		return manager.PendingCount() == 0
	}, time.Second, 10*time.Millisecond)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAutosaveCancel(t *testing.T) {
	manager, mock := newTestAutosaveManager(t, time.Hour)

	invoice := draftInvoice("F-003")
	manager.Schedule(invoice)
	manager.Cancel(invoice.ID)

	assert.Equal(t, 0, manager.PendingCount())

	// Un flush posterior no escribe nada
	require.NoError(t, manager.Flush(invoice.ID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAutosaveFlushAll(t *testing.T) {
	manager, mock := newTestAutosaveManager(t, time.Hour)

	first := draftInvoice("F-004")
	second := draftInvoice("F-005")

	manager.Schedule(first)
	manager.Schedule(second)
	assert.Equal(t, 2, manager.PendingCount())

	mock.ExpectExec("INSERT INTO invoices").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO invoices").WillReturnResult(sqlmock.NewResult(0, 1))

	manager.FlushAll()
	assert.Equal(t, 0, manager.PendingCount())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAutosaveFlushSetsTimestampsOnBareDraft(t *testing.T) {
	manager, mock := newTestAutosaveManager(t, time.Hour)

	// El handler encola el borrador sin timestamps
	draft := &models.Invoice{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		InvoiceNumber: "F-900",
		Data:          models.InvoiceData{Currency: "USD"},
	}
	manager.Schedule(draft)

	createdAt := time.Now().Add(-48 * time.Hour)
	mock.ExpectQuery("SELECT (.+) FROM invoices").
		WithArgs(draft.ID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "invoice_number", "invoice_data", "created_at", "updated_at"}).
			AddRow(draft.ID.String(), draft.UserID.String(), "F-900", []byte(invoiceDataJSON), createdAt, createdAt))

	// El created_at existente se conserva y el updated_at nunca es cero
	mock.ExpectExec("INSERT INTO invoices").
		WithArgs(draft.ID, draft.UserID, "F-900", sqlmock.AnyArg(), createdAt, nonZeroTime{}).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, manager.Flush(draft.ID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAutosaveFlushFirstSaveInitializesCreatedAt(t *testing.T) {
	manager, mock := newTestAutosaveManager(t, time.Hour)

	draft := &models.Invoice{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		InvoiceNumber: "F-901",
		Data:          models.InvoiceData{Currency: "USD"},
	}
	manager.Schedule(draft)

	// La factura aún no existe; ambos timestamps se inicializan
	mock.ExpectQuery("SELECT (.+) FROM invoices").
		WithArgs(draft.ID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "invoice_number", "invoice_data", "created_at", "updated_at"}))

	mock.ExpectExec("INSERT INTO invoices").
		WithArgs(draft.ID, draft.UserID, "F-901", sqlmock.AnyArg(), nonZeroTime{}, nonZeroTime{}).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, manager.Flush(draft.ID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAutosaveFlushWithoutPendingIsNoop(t *testing.T) {
	manager, mock := newTestAutosaveManager(t, time.Hour)

	require.NoError(t, manager.Flush(uuid.New()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
