package repository_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonasKash/sok/models"
	"github.com/JonasKash/sok/repository"
)

func TestLeadCreate(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewLeadRepository(gormDB)

	lead := &models.Lead{
		ID:           uuid.New(),
		WhatsApp:     "11988887777",
		BusinessName: "Clínica Sorriso",
		SessionID:    "sess-1",
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "leads"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Create(context.Background(), lead)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadGetByID(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewLeadRepository(gormDB)

	id := uuid.New()
	rows := sqlmock.NewRows([]string{"id", "whatsapp", "business_name", "session_id", "created_at"}).
		AddRow(id, "11988887777", "Clínica Sorriso", "sess-1", time.Now())

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "leads" WHERE id = $1`)).
		WithArgs(id, 1).
		WillReturnRows(rows)

	lead, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Clínica Sorriso", lead.BusinessName)
}

func TestLeadGetByID_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewLeadRepository(gormDB)

	id := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "leads"`)).
		WithArgs(id, 1).
		WillReturnRows(sqlmock.NewRows([]string{}))

	lead, err := repo.GetByID(context.Background(), id)
	assert.Error(t, err)
	assert.Nil(t, lead)
}
