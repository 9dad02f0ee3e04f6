package application

import (
	"context"
	"errors"

	"github.com/avelar/storefront/internal/catalog/domain"
)

var ErrProductNotFound = errors.New("product not found")

// Reader is the catalog collaborator as seen by checkout and the
// dashboard projections. Implementations must return the latest known
// stock value on every call, never a cached one.
type Reader interface {
	GetProduct(ctx context.Context, id string) (domain.Product, error)
	GetStock(ctx context.Context, id string) (int, error)
	List(ctx context.Context) ([]domain.Product, error)
	ListByCategory(ctx context.Context, category string) ([]domain.Product, error)
}
