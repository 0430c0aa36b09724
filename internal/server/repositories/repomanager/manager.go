package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/mediashelf/internal/dbx"
	"github.com/dmitrijs2005/mediashelf/internal/server/repositories/media"
	"github.com/dmitrijs2005/mediashelf/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to either the pool or a
// transaction, so services can pick per operation.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Media(db dbx.DBTX) media.Repository
}
