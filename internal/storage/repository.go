package storage

import (
	"context"
	"time"

	"github.com/equipment-visualizer/backend/internal/models"
)

// Repository persists dataset records and per-owner retention limits.
type Repository interface {
	// Create inserts ds and deletes every dataset of ds.Owner beyond the
	// limit newest, in one transaction. The deleted records are returned.
	Create(ctx context.Context, ds *models.Dataset, limit int) ([]*models.Dataset, error)
	Count(ctx context.Context, owner string) (int, error)
	// List returns the owner's datasets newest first. limit <= 0 means all.
	List(ctx context.Context, owner string, limit int) ([]*models.Dataset, error)
	Get(ctx context.Context, id, owner string) (*models.Dataset, error)
	Delete(ctx context.Context, id, owner string) (*models.Dataset, error)
	Latest(ctx context.Context, owner string) (*models.Dataset, error)
	// SetReport records the last rendered report and returns the key it replaced.
	SetReport(ctx context.Context, id, key string, at time.Time) (string, error)
	// OwnerLimit returns a stored override; ok is false when none is set.
	OwnerLimit(ctx context.Context, owner string) (limit int, ok bool, err error)
	SetOwnerLimit(ctx context.Context, owner string, limit int) error
	Close() error
}
