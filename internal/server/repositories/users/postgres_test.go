package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/croplabs/picstore/internal/common"
	"github.com/croplabs/picstore/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO users").
		WithArgs("owner-1", "o@example.com", "c-abc").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewPostgresRepository(db)
	err = repo.Create(context.Background(), &models.User{ID: "owner-1", Email: "o@example.com", Container: "c-abc"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DuplicateMapsToAlreadyExists(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	repo := NewPostgresRepository(db)
	err = repo.Create(context.Background(), &models.User{ID: "owner-1"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestGetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Now()
	mock.ExpectQuery("SELECT id, email, container, created_at FROM users").
		WithArgs("owner-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "container", "created_at"}).
			AddRow("owner-1", "o@example.com", "c-abc", created))

	repo := NewPostgresRepository(db)
	u, err := repo.GetByID(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.Equal(t, "c-abc", u.Container)
}

func TestGetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT id, email, container, created_at FROM users").
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "container", "created_at"}))

	repo := NewPostgresRepository(db)
	_, err = repo.GetByID(context.Background(), "nobody")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestExists(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("owner-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	repo := NewPostgresRepository(db)
	ok, err := repo.Exists(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestExists_DBError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT EXISTS").
		WillReturnError(errors.New("connection reset"))

	repo := NewPostgresRepository(db)
	_, err = repo.Exists(context.Background(), "owner-1")
	assert.Error(t, err)
}
