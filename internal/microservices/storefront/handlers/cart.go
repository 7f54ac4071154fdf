package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"coffee-storefront/internal/common/metrics"
	"coffee-storefront/internal/domain"
	"coffee-storefront/internal/microservices/cart"
	"coffee-storefront/internal/microservices/session"
)

// catalogItem resolves the {id} path variable, writing a 404 page when the
// item does not exist.
func (h *Handler) catalogItem(w http.ResponseWriter, r *http.Request) (domain.CatalogItem, bool) {
	id, _ := pathID(r)
	it, err := h.catalog.Get(id)
	if err != nil {
		h.errorPage(w, r, http.StatusNotFound, "Menu tidak ditemukan")
		return domain.CatalogItem{}, false
	}
	return it, true
}

func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	it, ok := h.catalogItem(w, r)
	if !ok {
		return
	}
	s := h.ensureSession(w, r)
	s.Do(func(s *session.Session) { s.Cart.Add(it) })
	h.metrics.CartAdds.Inc()
	h.log.Debug("cart_item_added", map[string]any{"session_id": s.ID, "item_id": it.ID})
	backToMenu(w, r)
}

func (h *Handler) DecrementCartItem(w http.ResponseWriter, r *http.Request) {
	it, ok := h.catalogItem(w, r)
	if !ok {
		return
	}
	if s, ok := h.currentSession(r); ok {
		s.Do(func(s *session.Session) { s.Cart.DecrementOrRemove(it.ID) })
	}
	backToMenu(w, r)
}

func (h *Handler) SetCartQuantity(w http.ResponseWriter, r *http.Request) {
	it, ok := h.catalogItem(w, r)
	if !ok {
		return
	}
	n, err := strconv.Atoi(strings.TrimSpace(r.FormValue("quantity")))
	if err != nil || n > domain.MaxQuantity {
		h.errorPage(w, r, http.StatusBadRequest, "Jumlah tidak valid")
		return
	}
	if s, ok := h.currentSession(r); ok {
		s.Do(func(s *session.Session) { s.Cart.SetQuantity(it.ID, n) })
	}
	backToMenu(w, r)
}

func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	it, ok := h.catalogItem(w, r)
	if !ok {
		return
	}
	if s, ok := h.currentSession(r); ok {
		s.Do(func(s *session.Session) { s.Cart.Remove(it.ID) })
	}
	backToMenu(w, r)
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if s, ok := h.currentSession(r); ok {
		s.Do(func(s *session.Session) { s.Cart.Clear() })
	}
	backToMenu(w, r)
}

// HandOff publishes the cart as the pending order and moves to the checkout
// view. An empty cart publishes nothing and stays on the menu.
func (h *Handler) HandOff(w http.ResponseWriter, r *http.Request) {
	s, ok := h.currentSession(r)
	if !ok {
		backToMenu(w, r)
		return
	}

	var err error
	s.Do(func(s *session.Session) {
		if s.CancelPayment() {
			h.metrics.Checkouts.WithLabelValues(metrics.CheckoutCancelled).Inc()
		}
		var p domain.CheckoutPayload
		p, err = s.Cart.Snapshot(h.now())
		if err != nil {
			return
		}
		if err = h.handoff.Publish(r.Context(), s.ID, p); err != nil {
			return
		}
		s.Checkout = nil
	})

	switch {
	case errors.Is(err, cart.ErrEmptyCart):
		backToMenu(w, r)
	case err != nil:
		h.log.Error("handoff_publish_failed", err, map[string]any{"session_id": s.ID})
		h.errorPage(w, r, http.StatusInternalServerError, cannotProcess)
	default:
		h.metrics.Checkouts.WithLabelValues(metrics.CheckoutHandedOff).Inc()
		h.log.Info("order_handed_off", map[string]any{"session_id": s.ID})
		redirect(w, r, "/beli")
	}
}
