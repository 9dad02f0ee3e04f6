package application

import (
	"context"
	"errors"
	"sync"

	catalogapp "github.com/avelar/storefront/internal/catalog/application"
	"github.com/avelar/storefront/internal/cart/domain"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
	ErrLineNotFound    = errors.New("cart line not found")
)

// Store holds the cart lines for one session, insertion-ordered and
// unique per product ID. Mutations run to completion under the lock,
// matching the one-action-at-a-time UI model.
type Store struct {
	mu    sync.Mutex
	order []string
	qty   map[string]int
}

func NewStore() *Store {
	return &Store{qty: make(map[string]int)}
}

// Add merges by product ID: an existing line has its quantity
// incremented, never duplicated.
func (s *Store) Add(productID string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.qty[productID]; !ok {
		s.order = append(s.order, productID)
	}
	s.qty[productID] += quantity
	return nil
}

func (s *Store) Remove(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remove(productID)
}

func (s *Store) remove(productID string) {
	if _, ok := s.qty[productID]; !ok {
		return
	}
	delete(s.qty, productID)
	for i, id := range s.order {
		if id == productID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// SetQuantity replaces a line's quantity. A non-positive quantity
// removes the line; the store never holds a zero or negative line.
func (s *Store) SetQuantity(productID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if quantity <= 0 {
		s.remove(productID)
		return nil
	}
	if _, ok := s.qty[productID]; !ok {
		return ErrLineNotFound
	}
	s.qty[productID] = quantity
	return nil
}

// Lines returns the cart contents in insertion order.
func (s *Store) Lines() []domain.Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Line, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, domain.Line{ProductID: id, Quantity: s.qty[id]})
	}
	return out
}

// Total recomputes the cart total against live unit prices on every
// call; nothing is cached across calls.
func (s *Store) Total(ctx context.Context, cat catalogapp.Reader) (int64, error) {
	var total int64
	for _, line := range s.Lines() {
		p, err := cat.GetProduct(ctx, line.ProductID)
		if err != nil {
			return 0, err
		}
		total += int64(line.Quantity) * p.UnitPriceCents
	}
	return total, nil
}

// Registry hands out the single shared Store per session.
type Registry struct {
	mu     sync.Mutex
	stores map[string]*Store
}

func NewRegistry() *Registry {
	return &Registry{stores: make(map[string]*Store)}
}

func (r *Registry) For(sessionID string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stores[sessionID]
	if !ok {
		s = NewStore()
		r.stores[sessionID] = s
	}
	return s
}
