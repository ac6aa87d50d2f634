package repomanager

import (
	"context"
	"database/sql"

	"github.com/croplabs/picstore/internal/dbx"
	"github.com/croplabs/picstore/internal/server/migrations"
	"github.com/croplabs/picstore/internal/server/repositories/feedbacks"
	"github.com/croplabs/picstore/internal/server/repositories/indexes"
	"github.com/croplabs/picstore/internal/server/repositories/pictures"
	"github.com/croplabs/picstore/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

type PostgresRepositoryManager struct {
}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Indexes(db dbx.DBTX) indexes.Repository {
	return indexes.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Pictures(db dbx.DBTX) pictures.Repository {
	return pictures.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Feedbacks(db dbx.DBTX) feedbacks.Repository {
	return feedbacks.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}

	return goose.UpContext(ctx, db, ".")
}
