package search

import (
	"context"

	"github.com/young1lin/zaatar/internal/models"
)

// Provider defines the interface for search backends
type Provider interface {
	// Name returns the provider name
	Name() string

	// Search performs a query and returns at most req.Count results
	Search(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error)
}
