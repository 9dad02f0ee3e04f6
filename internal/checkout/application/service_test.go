package application_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartapp "github.com/avelar/storefront/internal/cart/application"
	checkoutapp "github.com/avelar/storefront/internal/checkout/application"
	catalogdom "github.com/avelar/storefront/internal/catalog/domain"
	catalogmem "github.com/avelar/storefront/internal/catalog/infrastructure/memory"
	"github.com/avelar/storefront/internal/checkout/domain"
	checkoutmem "github.com/avelar/storefront/internal/checkout/infrastructure/memory"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixture() (*checkoutapp.Service, *cartapp.Registry, *catalogmem.Store, *checkoutmem.Ledger) {
	cat := catalogmem.NewStore(
		catalogdom.Product{ID: "a", Name: "Amber Ale", Category: "beer", UnitPriceCents: 1000, Stock: 5},
		catalogdom.Product{ID: "b", Name: "Barley Wine", Category: "wine", UnitPriceCents: 2500, Stock: 3},
		catalogdom.Product{ID: "c", Name: "Cask Stout", Category: "beer", UnitPriceCents: 700, Stock: 1},
	)
	carts := cartapp.NewRegistry()
	ledger := checkoutmem.NewLedger(cat)
	return checkoutapp.NewService(discard(), carts, cat, ledger), carts, cat, ledger
}

func TestCartModeIntent(t *testing.T) {
	svc, carts, _, _ := fixture()
	ctx := context.Background()

	require.NoError(t, carts.For("s1").Add("a", 2))

	h, err := svc.Open("s1", nil)
	require.NoError(t, err)

	intent, err := svc.ResolveIntent(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, domain.ModeCart, intent.Mode)
	require.Len(t, intent.Items, 1)
	assert.Equal(t, int64(2000), intent.TotalCents())
	assert.False(t, intent.Flagged())
}

func TestBuyNowSupersedesCart(t *testing.T) {
	svc, carts, _, _ := fixture()
	ctx := context.Background()

	require.NoError(t, carts.For("s1").Add("a", 2))
	before := carts.For("s1").Lines()

	h, err := svc.Open("s1", &domain.BuyNowItem{ProductID: "b", Quantity: 1})
	require.NoError(t, err)

	intent, err := svc.ResolveIntent(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, domain.ModeBuyNow, intent.Mode)
	require.Len(t, intent.Items, 1)
	assert.Equal(t, "b", intent.Items[0].ProductID)
	assert.Equal(t, 1, intent.Items[0].Quantity)

	svc.Close(h)
	assert.Equal(t, before, carts.For("s1").Lines())

	_, err = svc.ResolveIntent(ctx, h)
	require.ErrorIs(t, err, checkoutapp.ErrHandleNotFound)
}

func TestOpenRejectsNonPositiveBuyNow(t *testing.T) {
	svc, _, _, _ := fixture()
	_, err := svc.Open("s1", &domain.BuyNowItem{ProductID: "a", Quantity: 0})
	require.ErrorIs(t, err, cartapp.ErrInvalidQuantity)
}

func TestEmptyCartResolvesToZeroItems(t *testing.T) {
	svc, _, _, _ := fixture()
	ctx := context.Background()

	h, err := svc.Open("s1", nil)
	require.NoError(t, err)

	intent, err := svc.ResolveIntent(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, domain.ModeCart, intent.Mode)
	assert.Empty(t, intent.Items)

	_, err = svc.Confirm(ctx, h, nil, "")
	require.ErrorIs(t, err, checkoutapp.ErrEmptyIntent)
}

func TestOverStockFlaggedNotClamped(t *testing.T) {
	svc, carts, cat, ledger := fixture()
	ctx := context.Background()

	require.NoError(t, carts.For("s1").Add("c", 2)) // stock is 1

	h, err := svc.Open("s1", nil)
	require.NoError(t, err)

	intent, err := svc.ResolveIntent(ctx, h)
	require.NoError(t, err)
	require.Len(t, intent.Items, 1)
	assert.True(t, intent.Items[0].OverStock)
	assert.Equal(t, 2, intent.Items[0].Quantity)
	assert.Equal(t, 1, intent.Items[0].ObservedStock)

	_, err = svc.Confirm(ctx, h, nil, "")
	require.ErrorIs(t, err, checkoutapp.ErrOverStock)

	stock, err := cat.GetStock(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, 1, stock)
	assert.Empty(t, ledger.Receipts)
}

func TestConfirmDecrementsAndEmitsReceipt(t *testing.T) {
	svc, carts, cat, ledger := fixture()
	ctx := context.Background()

	require.NoError(t, carts.For("s1").Add("a", 2))
	require.NoError(t, carts.For("s1").Add("b", 1))

	h, err := svc.Open("s1", nil)
	require.NoError(t, err)

	receipt, err := svc.Confirm(ctx, h, map[string]string{"source": "test"}, "")
	require.NoError(t, err)
	assert.Equal(t, int64(4500), receipt.TotalCents)
	assert.Equal(t, "s1", receipt.SessionID)
	require.Len(t, receipt.Items, 2)

	stockA, _ := cat.GetStock(ctx, "a")
	stockB, _ := cat.GetStock(ctx, "b")
	assert.Equal(t, 3, stockA)
	assert.Equal(t, 2, stockB)

	require.Len(t, ledger.Events, 1)
	var ev domain.ReceiptIssued
	require.NoError(t, json.Unmarshal(ledger.Events[0], &ev))
	assert.Equal(t, receipt.ID, ev.ReceiptID)
	assert.Equal(t, receipt.TotalCents, ev.TotalCents)
	assert.WithinDuration(t, time.Now().UTC(), ev.IssuedAt, 5*time.Second)
}

func TestConfirmAllOrNothing(t *testing.T) {
	_, _, cat, ledger := fixture()
	ctx := context.Background()

	// one passing item, one over stock: nothing may be decremented
	r := domain.Receipt{
		ID:        "r1",
		SessionID: "s1",
		Items: []domain.IntentItem{
			{ProductID: "a", Quantity: 1, UnitPriceCents: 1000, ObservedStock: 5},
			{ProductID: "c", Quantity: 2, UnitPriceCents: 700, ObservedStock: 1},
		},
	}
	err := ledger.ConfirmWithOutbox(ctx, r, "ReceiptIssued", nil, nil, "")
	require.ErrorIs(t, err, checkoutapp.ErrOverStock)

	stockA, _ := cat.GetStock(ctx, "a")
	stockC, _ := cat.GetStock(ctx, "c")
	assert.Equal(t, 5, stockA)
	assert.Equal(t, 1, stockC)
	assert.Empty(t, ledger.Receipts)
}

func TestConfirmDetectsStaleQuantity(t *testing.T) {
	_, _, cat, ledger := fixture()
	ctx := context.Background()

	// stock moved from 5 to 4 after resolution, still sufficient
	cat.SetStock("a", 4)
	r := domain.Receipt{
		ID:        "r1",
		SessionID: "s1",
		Items: []domain.IntentItem{
			{ProductID: "a", Quantity: 2, UnitPriceCents: 1000, ObservedStock: 5},
		},
	}
	err := ledger.ConfirmWithOutbox(ctx, r, "ReceiptIssued", nil, nil, "")
	require.ErrorIs(t, err, checkoutapp.ErrStaleQuantity)

	stock, _ := cat.GetStock(ctx, "a")
	assert.Equal(t, 4, stock)
}

type failingCatalog struct{}

var errDown = errors.New("connection refused")

func (failingCatalog) GetProduct(context.Context, string) (catalogdom.Product, error) {
	return catalogdom.Product{}, errDown
}
func (failingCatalog) GetStock(context.Context, string) (int, error) { return 0, errDown }
func (failingCatalog) List(context.Context) ([]catalogdom.Product, error) {
	return nil, errDown
}
func (failingCatalog) ListByCategory(context.Context, string) ([]catalogdom.Product, error) {
	return nil, errDown
}

func TestCatalogOutageIsNotOverStock(t *testing.T) {
	carts := cartapp.NewRegistry()
	require.NoError(t, carts.For("s1").Add("a", 1))
	svc := checkoutapp.NewService(discard(), carts, failingCatalog{}, checkoutmem.NewLedger(catalogmem.NewStore()))

	h, err := svc.Open("s1", nil)
	require.NoError(t, err)

	_, err = svc.ResolveIntent(context.Background(), h)
	require.ErrorIs(t, err, checkoutapp.ErrCatalogUnavailable)
	require.NotErrorIs(t, err, checkoutapp.ErrOverStock)
}
