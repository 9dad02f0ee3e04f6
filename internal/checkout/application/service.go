package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	cartapp "github.com/avelar/storefront/internal/cart/application"
	catalogapp "github.com/avelar/storefront/internal/catalog/application"
	"github.com/avelar/storefront/internal/checkout/domain"
)

// Handle identifies one open checkout session.
type Handle string

type checkoutState struct {
	sessionID string
	buyNow    *domain.BuyNowItem
}

// Service reconciles the two purchase entry points: the session cart
// and the single-item buy-now override.
type Service struct {
	log    *slog.Logger
	carts  *cartapp.Registry
	cat    catalogapp.Reader
	ledger Ledger

	mu   sync.Mutex
	open map[Handle]checkoutState
}

func NewService(log *slog.Logger, carts *cartapp.Registry, cat catalogapp.Reader, ledger Ledger) *Service {
	return &Service{
		log:    log,
		carts:  carts,
		cat:    cat,
		ledger: ledger,
		open:   make(map[Handle]checkoutState),
	}
}

// Open starts a checkout session. A non-nil buyNow pins the session to
// buy-now mode for exactly that item; the cart is neither consulted nor
// cleared. With nil, the session resolves over the cart's live lines.
func (s *Service) Open(sessionID string, buyNow *domain.BuyNowItem) (Handle, error) {
	if buyNow != nil && buyNow.Quantity <= 0 {
		return "", cartapp.ErrInvalidQuantity
	}
	h := Handle(uuid.NewString())
	s.mu.Lock()
	s.open[h] = checkoutState{sessionID: sessionID, buyNow: buyNow}
	s.mu.Unlock()
	return h, nil
}

// Close releases the handle and discards any buy-now override. Cart
// contents are unaffected.
func (s *Service) Close(h Handle) {
	s.mu.Lock()
	delete(s.open, h)
	s.mu.Unlock()
}

// ResolveIntent derives the purchase intent from the handle's mode and
// the latest known stock. Items above stock are flagged OverStock,
// never clamped.
func (s *Service) ResolveIntent(ctx context.Context, h Handle) (domain.Intent, error) {
	s.mu.Lock()
	state, ok := s.open[h]
	s.mu.Unlock()
	if !ok {
		return domain.Intent{}, ErrHandleNotFound
	}

	if state.buyNow != nil {
		item, err := s.resolveItem(ctx, state.buyNow.ProductID, state.buyNow.Quantity)
		if err != nil {
			return domain.Intent{}, err
		}
		return domain.Intent{Mode: domain.ModeBuyNow, Items: []domain.IntentItem{item}}, nil
	}

	lines := s.carts.For(state.sessionID).Lines()
	items := make([]domain.IntentItem, 0, len(lines))
	for _, line := range lines {
		item, err := s.resolveItem(ctx, line.ProductID, line.Quantity)
		if err != nil {
			return domain.Intent{}, err
		}
		items = append(items, item)
	}
	return domain.Intent{Mode: domain.ModeCart, Items: items}, nil
}

func (s *Service) resolveItem(ctx context.Context, productID string, quantity int) (domain.IntentItem, error) {
	p, err := s.cat.GetProduct(ctx, productID)
	if err != nil {
		return domain.IntentItem{}, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	stock, err := s.cat.GetStock(ctx, productID)
	if err != nil {
		return domain.IntentItem{}, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	return domain.IntentItem{
		ProductID:      productID,
		Quantity:       quantity,
		UnitPriceCents: p.UnitPriceCents,
		ObservedStock:  stock,
		OverStock:      quantity > stock,
	}, nil
}

// Confirm re-resolves the intent, rejects empty or over-stock intents,
// and hands the receipt to the ledger, which re-checks stock under row
// locks and decrements all-or-nothing.
func (s *Service) Confirm(ctx context.Context, h Handle, headers map[string]string, traceparent string) (domain.Receipt, error) {
	s.mu.Lock()
	state, ok := s.open[h]
	s.mu.Unlock()
	if !ok {
		return domain.Receipt{}, ErrHandleNotFound
	}

	intent, err := s.ResolveIntent(ctx, h)
	if err != nil {
		return domain.Receipt{}, err
	}
	if len(intent.Items) == 0 {
		return domain.Receipt{}, ErrEmptyIntent
	}
	if intent.Flagged() {
		return domain.Receipt{}, ErrOverStock
	}

	r := domain.Receipt{
		ID:         uuid.NewString(),
		SessionID:  state.sessionID,
		Items:      intent.Items,
		TotalCents: intent.TotalCents(),
		IssuedAt:   time.Now().UTC(),
	}

	event := domain.ReceiptIssued{
		ReceiptID:  r.ID,
		SessionID:  r.SessionID,
		TotalCents: r.TotalCents,
		IssuedAt:   r.IssuedAt,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return domain.Receipt{}, err
	}

	if err := s.ledger.ConfirmWithOutbox(ctx, r, "ReceiptIssued", payload, headers, traceparent); err != nil {
		if errors.Is(err, ErrOverStock) || errors.Is(err, ErrStaleQuantity) {
			s.log.Info("confirm rejected", "receipt_id", r.ID, "err", err)
		}
		return domain.Receipt{}, err
	}

	s.log.Info("checkout confirmed", "receipt_id", r.ID, "mode", intent.Mode, "total_cents", r.TotalCents)
	return r, nil
}
