// Package oplogs provides a PostgreSQL-backed repository for the audit trail.
// Rows are append-only from the application's point of view; the only
// mutation they ever see is the schema nulling file_id when the subject
// file is deleted.
package oplogs

import (
	"context"
	"fmt"

	"github.com/akarpov87/securevault/internal/dbx"
	"github.com/akarpov87/securevault/internal/server/models"
)

// PostgresRepository implements audit storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Append inserts an audit record and fills in the generated id and timestamp.
func (r *PostgresRepository) Append(ctx context.Context, log *models.OperationLog) (*models.OperationLog, error) {
	query := `
		INSERT INTO operation_logs (user_id, file_id, kind, details)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		log.UserID, log.FileID, string(log.Kind), log.Details).Scan(&log.ID, &log.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return log, nil
}

// ListByUser returns the user's audit records newest first. Timestamp ties
// are broken by id so repeated listings are stable.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.OperationLog, error) {
	query := `
		SELECT id, user_id, file_id, kind, details, created_at FROM operation_logs
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select logs: %w", err)
	}
	defer rows.Close()

	var result []*models.OperationLog
	for rows.Next() {
		var item models.OperationLog
		if err := rows.Scan(&item.ID, &item.UserID, &item.FileID, &item.Kind, &item.Details, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
