package memory

import (
	"context"
	"sync"

	"github.com/avelar/storefront/internal/catalog/application"
	"github.com/avelar/storefront/internal/catalog/domain"
)

// Store is an in-process catalog used by tests and local development.
type Store struct {
	mu       sync.RWMutex
	order    []string
	products map[string]domain.Product
}

func NewStore(products ...domain.Product) *Store {
	s := &Store{products: make(map[string]domain.Product)}
	for _, p := range products {
		s.Put(p)
	}
	return s
}

func (s *Store) Put(p domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[p.ID]; !ok {
		s.order = append(s.order, p.ID)
	}
	s.products[p.ID] = p
}

func (s *Store) SetStock(id string, stock int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return
	}
	p.Stock = stock
	s.products[id] = p
}

func (s *Store) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, application.ErrProductNotFound
	}
	return p, nil
}

func (s *Store) GetStock(ctx context.Context, id string) (int, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return 0, err
	}
	return p.Stock, nil
}

func (s *Store) List(ctx context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Product, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.products[id])
	}
	return out, nil
}

func (s *Store) ListByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(all))
	for _, p := range all {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out, nil
}
