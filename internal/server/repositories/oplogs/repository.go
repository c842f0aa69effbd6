package oplogs

import (
	"context"

	"github.com/akarpov87/securevault/internal/server/models"
)

type Repository interface {
	Append(ctx context.Context, log *models.OperationLog) (*models.OperationLog, error)
	ListByUser(ctx context.Context, userID string) ([]*models.OperationLog, error)
}
