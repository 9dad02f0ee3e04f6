package shell

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	analyticsapp "github.com/avelar/storefront/internal/analytics/application"
	analyticsdom "github.com/avelar/storefront/internal/analytics/domain"
	cartapp "github.com/avelar/storefront/internal/cart/application"
	catalogapp "github.com/avelar/storefront/internal/catalog/application"
	catalogdom "github.com/avelar/storefront/internal/catalog/domain"
	checkoutapp "github.com/avelar/storefront/internal/checkout/application"
	checkoutdom "github.com/avelar/storefront/internal/checkout/domain"
	verifapp "github.com/avelar/storefront/internal/verification/application"
	verifdom "github.com/avelar/storefront/internal/verification/domain"
)

// SalesReader is the slice of the sales ledger the dashboard needs.
type SalesReader interface {
	MonthlySales(ctx context.Context) ([]analyticsdom.SalesDataItem, error)
}

// Handler is the page shell: one gate, one cart registry and one
// checkout service per process, handed to every route explicitly.
type Handler struct {
	log      *slog.Logger
	pages    Pages
	gate     *verifapp.Gate
	carts    *cartapp.Registry
	checkout *checkoutapp.Service
	cat      catalogapp.Reader
	stock    *analyticsapp.Refresher
	sales    SalesReader
	tracer   trace.Tracer
}

func NewHandler(log *slog.Logger, pages Pages, gate *verifapp.Gate, carts *cartapp.Registry, checkout *checkoutapp.Service, cat catalogapp.Reader, stock *analyticsapp.Refresher, sales SalesReader) *Handler {
	return &Handler{
		log:      log,
		pages:    pages,
		gate:     gate,
		carts:    carts,
		checkout: checkout,
		cat:      cat,
		stock:    stock,
		sales:    sales,
		tracer:   otel.Tracer("storefront-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(withSession)

	r.Post("/session/verify", h.verify)
	r.Get("/pages/{page}", h.page)

	r.Group(func(r chi.Router) {
		r.Use(h.gated)
		r.Get("/products", h.listProducts)
		r.Get("/cart", h.getCart)
		r.Post("/cart/items", h.addCartItem)
		r.Put("/cart/items/{productID}", h.setCartQuantity)
		r.Delete("/cart/items/{productID}", h.removeCartItem)
		r.Post("/checkout", h.openCheckout)
		r.Get("/checkout/{handle}", h.resolveIntent)
		r.Post("/checkout/{handle}/confirm", h.confirmCheckout)
		r.Delete("/checkout/{handle}", h.closeCheckout)
		r.Get("/dashboard/stock", h.stockDashboard)
		r.Get("/dashboard/sales", h.salesDashboard)
	})

	return r
}

// gated blocks every commerce route for unverified sessions. The
// handler behind it is never invoked, so no commerce data leaks.
func (h *Handler) gated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.gate.IsRequired(verifdom.DefaultPolicy()) {
			next.ServeHTTP(w, r)
			return
		}
		state, err := h.gate.Current(r.Context(), sessionID(r.Context()))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "verification state unavailable")
			return
		}
		if !state.Verified {
			writeError(w, http.StatusForbidden, "age verification required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type verifyReq struct {
	DateOfBirth string `json:"date_of_birth"`
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "Verify")
	defer span.End()

	var req verifyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date_of_birth")
		return
	}

	state, err := h.gate.Verify(ctx, sessionID(ctx), verifdom.Proof{DateOfBirth: dob})
	if err != nil {
		if errors.Is(err, verifapp.ErrInvalidProof) {
			writeError(w, http.StatusForbidden, "proof does not satisfy minimum age")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *Handler) page(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "page")
	cfg, ok := h.pages[name]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown page")
		return
	}

	if h.gate.IsRequired(cfg.Policy) {
		state, err := h.gate.Current(r.Context(), sessionID(r.Context()))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "verification state unavailable")
			return
		}
		if !state.Verified {
			writeJSON(w, http.StatusOK, map[string]string{"page": name, "prompt": "age_verification"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"page": name, "content": name})
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	query := strings.ToLower(r.URL.Query().Get("q"))
	category := r.URL.Query().Get("category")

	products, err := h.loadProducts(r.Context(), category)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "catalog unavailable")
		return
	}

	out := make([]catalogProduct, 0, len(products))
	for _, p := range products {
		if query == "" || strings.Contains(strings.ToLower(p.Name), query) {
			out = append(out, p)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

type catalogProduct struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Category       string `json:"category"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Stock          int    `json:"stock"`
}

func (h *Handler) loadProducts(ctx context.Context, category string) ([]catalogProduct, error) {
	var products []catalogdom.Product
	var err error
	if category != "" {
		products, err = h.cat.ListByCategory(ctx, category)
	} else {
		products, err = h.cat.List(ctx)
	}
	if err != nil {
		return nil, err
	}
	out := make([]catalogProduct, 0, len(products))
	for _, p := range products {
		out = append(out, catalogProduct{ID: p.ID, Name: p.Name, Category: p.Category, UnitPriceCents: p.UnitPriceCents, Stock: p.Stock})
	}
	return out, nil
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	store := h.carts.For(sessionID(r.Context()))
	total, err := store.Total(r.Context(), h.cat)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "catalog unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"lines":       store.Lines(),
		"total_cents": total,
	})
}

type cartItemReq struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var req cartItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if _, err := h.cat.GetProduct(r.Context(), req.ProductID); err != nil {
		h.catalogError(w, err)
		return
	}
	store := h.carts.For(sessionID(r.Context()))
	if err := store.Add(req.ProductID, req.Quantity); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lines": store.Lines()})
}

func (h *Handler) setCartQuantity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	store := h.carts.For(sessionID(r.Context()))
	if err := store.SetQuantity(chi.URLParam(r, "productID"), req.Quantity); err != nil {
		if errors.Is(err, cartapp.ErrLineNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lines": store.Lines()})
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	store := h.carts.For(sessionID(r.Context()))
	store.Remove(chi.URLParam(r, "productID"))
	writeJSON(w, http.StatusOK, map[string]any{"lines": store.Lines()})
}

type openCheckoutReq struct {
	BuyNow *checkoutdom.BuyNowItem `json:"buy_now"`
}

func (h *Handler) openCheckout(w http.ResponseWriter, r *http.Request) {
	var req openCheckoutReq
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid body")
			return
		}
	}
	handle, err := h.checkout.Open(sessionID(r.Context()), req.BuyNow)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"handle": string(handle)})
}

func (h *Handler) resolveIntent(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ResolveIntent")
	defer span.End()

	intent, err := h.checkout.ResolveIntent(ctx, checkoutapp.Handle(chi.URLParam(r, "handle")))
	if err != nil {
		h.checkoutError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"intent":      intent,
		"total_cents": intent.TotalCents(),
	})
}

func (h *Handler) confirmCheckout(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ConfirmCheckout")
	defer span.End()

	traceparent := r.Header.Get("traceparent")
	if traceparent == "" {
		carrier := propagation.MapCarrier{}
		otel.GetTextMapPropagator().Inject(ctx, carrier)
		traceparent = carrier["traceparent"]
	}
	headers := map[string]string{"source": "storefront-service"}

	receipt, err := h.checkout.Confirm(ctx, checkoutapp.Handle(chi.URLParam(r, "handle")), headers, traceparent)
	if err != nil {
		h.checkoutError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (h *Handler) closeCheckout(w http.ResponseWriter, r *http.Request) {
	h.checkout.Close(checkoutapp.Handle(chi.URLParam(r, "handle")))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) stockDashboard(w http.ResponseWriter, r *http.Request) {
	snapshot := h.stock.Snapshot()
	if snapshot == nil {
		snapshot = []analyticsdom.StockDataItem{}
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) salesDashboard(w http.ResponseWriter, r *http.Request) {
	items, err := h.sales.MonthlySales(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "sales data unavailable")
		return
	}
	if items == nil {
		items = []analyticsdom.SalesDataItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) catalogError(w http.ResponseWriter, err error) {
	if errors.Is(err, catalogapp.ErrProductNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusServiceUnavailable, "catalog unavailable")
}

func (h *Handler) checkoutError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, checkoutapp.ErrHandleNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, checkoutapp.ErrEmptyIntent):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, checkoutapp.ErrOverStock), errors.Is(err, checkoutapp.ErrStaleQuantity):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, checkoutapp.ErrCatalogUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, cartapp.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
