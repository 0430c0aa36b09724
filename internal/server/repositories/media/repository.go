package media

import (
	"context"

	"github.com/dmitrijs2005/mediashelf/internal/server/models"
)

// Repository is the catalog store. Lookups by id are not owner-scoped,
// the caller decides between NotFound and Forbidden. Mutations and search
// are always scoped to an owner.
type Repository interface {
	Create(ctx context.Context, item *models.MediaItem) (*models.MediaItem, error)
	GetByID(ctx context.Context, id string) (*models.MediaItem, error)
	GetForUpdate(ctx context.Context, id string) (*models.MediaItem, error)
	Update(ctx context.Context, item *models.MediaItem) (*models.MediaItem, error)
	Delete(ctx context.Context, id, ownerID string) error
	Search(ctx context.Context, ownerID string, mediaType models.MediaType, term string) ([]*models.MediaItem, error)
}
