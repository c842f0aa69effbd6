package repomanager

import (
	"context"
	"database/sql"

	"github.com/akarpov87/securevault/internal/dbx"
	"github.com/akarpov87/securevault/internal/server/migrations"
	"github.com/akarpov87/securevault/internal/server/repositories/files"
	"github.com/akarpov87/securevault/internal/server/repositories/oplogs"
	"github.com/akarpov87/securevault/internal/server/repositories/refreshtokens"
	"github.com/akarpov87/securevault/internal/server/repositories/users"
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

func (m *PostgresRepositoryManager) Files(db dbx.DBTX) files.Repository {
	return files.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) OperationLogs(db dbx.DBTX) oplogs.Repository {
	return oplogs.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return refreshtokens.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return err
	}

	return nil
}
