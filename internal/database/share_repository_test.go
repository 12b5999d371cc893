package database

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/hypernova-labs/factura-service/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockShareRepo(t *testing.T) (*ShareRepository, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	return NewShareRepository(&DB{mockDB}, logger), mock
}

func shareColumns() []string {
	return []string{
		"id", "invoice_id", "user_id", "share_token", "allow_download",
		"expires_at", "created_at", "last_accessed_at", "access_count",
	}
}

func TestShareRepositoryGetByToken(t *testing.T) {
	repo, mock := newMockShareRepo(t)

	shareID := uuid.New()
	invoiceID := uuid.New()
	userID := uuid.New()
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM invoice_shares").
		WithArgs("tok_abc").
		WillReturnRows(sqlmock.NewRows(shareColumns()).
			AddRow(shareID.String(), invoiceID.String(), userID.String(), "tok_abc", true, nil, now, nil, 3))

	share, err := repo.GetByToken("tok_abc")
	require.NoError(t, err)

	assert.Equal(t, shareID, share.ID)
	assert.Equal(t, invoiceID, share.InvoiceID)
	assert.True(t, share.AllowDownload)
	assert.Nil(t, share.ExpiresAt)
	assert.Equal(t, 3, share.AccessCount)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShareRepositoryGetByTokenNotFound(t *testing.T) {
	repo, mock := newMockShareRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM invoice_shares").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(shareColumns()))

	_, err := repo.GetByToken("missing")
	assert.ErrorIs(t, err, models.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShareRepositoryIncrementAccess(t *testing.T) {
	repo, mock := newMockShareRepo(t)

	shareID := uuid.New()

	mock.ExpectExec("UPDATE invoice_shares").
		WithArgs(sqlmock.AnyArg(), shareID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.IncrementAccess(shareID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShareRepositoryIncrementAccessMissing(t *testing.T) {
	repo, mock := newMockShareRepo(t)

	shareID := uuid.New()

	mock.ExpectExec("UPDATE invoice_shares").
		WithArgs(sqlmock.AnyArg(), shareID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.IncrementAccess(shareID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShareRepositoryDeleteOwned(t *testing.T) {
	repo, mock := newMockShareRepo(t)

	shareID := uuid.New()
	userID := uuid.New()

	mock.ExpectExec("DELETE FROM invoice_shares").
		WithArgs(shareID, userID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.DeleteOwned(shareID, userID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShareRepositoryDeleteOwnedOtherUser(t *testing.T) {
	repo, mock := newMockShareRepo(t)

	shareID := uuid.New()
	userID := uuid.New()
	otherUser := uuid.New()

	mock.ExpectExec("DELETE FROM invoice_shares").
		WithArgs(shareID, userID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	// El share existe pero pertenece a otro usuario
	mock.ExpectQuery("SELECT user_id FROM invoice_shares").
		WithArgs(shareID).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(otherUser.String()))

	err := repo.DeleteOwned(shareID, userID)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShareRepositoryDeleteOwnedMissing(t *testing.T) {
	repo, mock := newMockShareRepo(t)

	shareID := uuid.New()
	userID := uuid.New()

	mock.ExpectExec("DELETE FROM invoice_shares").
		WithArgs(shareID, userID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	mock.ExpectQuery("SELECT user_id FROM invoice_shares").
		WithArgs(shareID).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

	err := repo.DeleteOwned(shareID, userID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShareRepositoryDeleteExpired(t *testing.T) {
	repo, mock := newMockShareRepo(t)

	mock.ExpectExec("DELETE FROM invoice_shares WHERE expires_at IS NOT NULL").
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 4))

	deleted, err := repo.DeleteExpired(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(4), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
