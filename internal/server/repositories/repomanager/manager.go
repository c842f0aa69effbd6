package repomanager

import (
	"context"
	"database/sql"

	"github.com/akarpov87/securevault/internal/dbx"
	"github.com/akarpov87/securevault/internal/server/repositories/files"
	"github.com/akarpov87/securevault/internal/server/repositories/oplogs"
	"github.com/akarpov87/securevault/internal/server/repositories/refreshtokens"
	"github.com/akarpov87/securevault/internal/server/repositories/users"
)

// RepositoryManager hands out repositories bound to a concrete handle,
// letting services use the same repository type against *sql.DB or a
// transaction started with dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Files(db dbx.DBTX) files.Repository
	OperationLogs(db dbx.DBTX) oplogs.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}
