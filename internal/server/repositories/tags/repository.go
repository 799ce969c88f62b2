// Package tags persists the global set of unique tag names.
package tags

import (
	"context"

	"github.com/dmitrijs2005/conduit/internal/server/models"
)

type Repository interface {
	// FindOrCreate returns the tag with name, creating it when absent.
	// Concurrent callers racing on the same name receive the same tag.
	FindOrCreate(ctx context.Context, name string) (*models.Tag, error)

	// FindByName returns (nil, nil) when the tag does not exist.
	FindByName(ctx context.Context, name string) (*models.Tag, error)

	// List returns all tags ordered by name.
	List(ctx context.Context) ([]models.Tag, error)
}
