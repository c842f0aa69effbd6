package files

import (
	"context"

	"github.com/akarpov87/securevault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, file *models.File) (*models.File, error)
	GetByID(ctx context.Context, id int64) (*models.File, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.FileInfo, error)
	Delete(ctx context.Context, id int64) error
}
