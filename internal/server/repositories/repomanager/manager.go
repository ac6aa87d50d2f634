// Package repomanager hands out repositories bound to either the pooled
// database handle or an open transaction, so services can run the same
// repository code inside and outside dbx.WithTx.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/croplabs/picstore/internal/dbx"
	"github.com/croplabs/picstore/internal/server/repositories/feedbacks"
	"github.com/croplabs/picstore/internal/server/repositories/indexes"
	"github.com/croplabs/picstore/internal/server/repositories/pictures"
	"github.com/croplabs/picstore/internal/server/repositories/users"
)

type RepositoryManager interface {
	Users(db dbx.DBTX) users.Repository
	Indexes(db dbx.DBTX) indexes.Repository
	Pictures(db dbx.DBTX) pictures.Repository
	Feedbacks(db dbx.DBTX) feedbacks.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
