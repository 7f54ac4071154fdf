package handlers

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"

	"coffee-storefront/internal/common/metrics"
	"coffee-storefront/internal/domain"
	"coffee-storefront/internal/microservices/checkout"
	"coffee-storefront/internal/microservices/handoff"
	"coffee-storefront/internal/microservices/receipt"
	"coffee-storefront/internal/microservices/session"
)

const (
	cannotProcess      = "Pesanan tidak dapat diproses"
	incompleteCustomer = "Mohon lengkapi nama dan nomor telepon"
	unknownMethod      = "Metode pembayaran tidak tersedia"
)

func (h *Handler) sessionCheckout(r *http.Request) (*session.Session, *checkout.Checkout) {
	s, ok := h.currentSession(r)
	if !ok {
		return nil, nil
	}
	var co *checkout.Checkout
	s.Do(func(s *session.Session) { co = s.Checkout })
	return s, co
}

// CheckoutView opens the pending order. Without one the visitor goes back to
// the menu; an unreadable one ends in the cannot-process page.
func (h *Handler) CheckoutView(w http.ResponseWriter, r *http.Request) {
	s, co := h.sessionCheckout(r)
	if s == nil {
		redirect(w, r, "/menu")
		return
	}
	if co != nil {
		switch co.State() {
		case checkout.StateProcessing:
			h.renderProcessing(w, r, co)
			return
		case checkout.StateCollecting:
			h.renderCheckout(w, r, http.StatusOK, co, domain.CustomerInfo{}, "", "")
			return
		}
	}

	co, err := h.checkout.Begin(r.Context(), s.ID)
	switch {
	case errors.Is(err, handoff.ErrNoPendingOrder):
		redirect(w, r, "/menu")
		return
	case err != nil:
		h.log.Error("checkout_open_failed", err, map[string]any{"session_id": s.ID})
		h.errorPage(w, r, http.StatusInternalServerError, cannotProcess)
		return
	}
	s.Do(func(s *session.Session) { s.Checkout = co })
	h.renderCheckout(w, r, http.StatusOK, co, domain.CustomerInfo{}, "", "")
}

func (h *Handler) Pay(w http.ResponseWriter, r *http.Request) {
	s, co := h.sessionCheckout(r)
	if s == nil || co == nil {
		redirect(w, r, "/beli")
		return
	}
	info := domain.CustomerInfo{
		Name:  r.FormValue("name"),
		Phone: r.FormValue("phone"),
		Notes: r.FormValue("notes"),
	}
	method := r.FormValue("method")

	err := co.Submit(info, method)
	switch {
	case err == nil:
		h.metrics.Checkouts.WithLabelValues(metrics.CheckoutSubmitted).Inc()
		redirect(w, r, "/beli/receipt")
	case errors.Is(err, domain.ErrIncompleteCustomerInfo):
		h.metrics.Checkouts.WithLabelValues(metrics.CheckoutRejected).Inc()
		h.renderCheckout(w, r, http.StatusUnprocessableEntity, co, info, method, incompleteCustomer)
	case errors.Is(err, domain.ErrUnknownPaymentMethod):
		h.metrics.Checkouts.WithLabelValues(metrics.CheckoutRejected).Inc()
		h.renderCheckout(w, r, http.StatusUnprocessableEntity, co, info, "", unknownMethod)
	case errors.Is(err, checkout.ErrAlreadyProcessing), errors.Is(err, checkout.ErrAlreadyComplete):
		redirect(w, r, "/beli/receipt")
	default:
		h.log.Error("payment_submit_failed", err, map[string]any{"session_id": s.ID})
		h.errorPage(w, r, http.StatusInternalServerError, cannotProcess)
	}
}

func (h *Handler) CancelPayment(w http.ResponseWriter, r *http.Request) {
	if s, ok := h.currentSession(r); ok {
		h.leave(s)
	}
	redirect(w, r, "/beli")
}

func (h *Handler) CheckoutStatus(w http.ResponseWriter, r *http.Request) {
	_, co := h.sessionCheckout(r)
	if co == nil {
		writeProblem(w, http.StatusNotFound, "not_found", "no checkout in progress")
		return
	}
	writeJSON(w, http.StatusOK, co.Status())
}

func (h *Handler) ReceiptView(w http.ResponseWriter, r *http.Request) {
	_, co := h.sessionCheckout(r)
	if co == nil {
		redirect(w, r, "/menu")
		return
	}
	rc, ok := co.Receipt()
	switch {
	case ok:
		ts := rc.Timestamp.In(h.loc)
		h.render(w, http.StatusOK, "receipt", receiptView{
			layout:   layout{Title: "Struk Pembelian", Path: r.URL.Path, CartCount: h.cartCount(r)},
			Receipt:  rc,
			Date:     ts.Format("2/1/2006"),
			Time:     ts.Format("15.04.05"),
			FileName: receipt.FileName(rc.OrderID),
		})
	case co.State() == checkout.StateProcessing:
		h.renderProcessing(w, r, co)
	default:
		redirect(w, r, "/beli")
	}
}

func (h *Handler) ReceiptDownload(w http.ResponseWriter, r *http.Request) {
	_, co := h.sessionCheckout(r)
	if co == nil {
		writeProblem(w, http.StatusNotFound, "not_found", "no receipt")
		return
	}
	rc, ok := co.Receipt()
	if !ok {
		writeProblem(w, http.StatusNotFound, "not_found", "payment not complete")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", receipt.FileName(rc.OrderID)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(receipt.Render(rc, h.loc)))
}

func (h *Handler) cartCount(r *http.Request) int {
	s, _ := h.currentSession(r)
	return h.visitor(s).cart.Count
}

func (h *Handler) renderCheckout(w http.ResponseWriter, r *http.Request, code int, co *checkout.Checkout, info domain.CustomerInfo, methodID, msg string) {
	st := co.Status()
	if methodID == "" {
		methodID = st.PaymentMethod
	}
	if info == (domain.CustomerInfo{}) {
		info = st.Customer
	}
	methods := make([]methodView, 0, len(domain.PaymentMethods))
	for _, m := range domain.PaymentMethods {
		methods = append(methods, methodView{PaymentMethod: m, Selected: m.ID == methodID})
	}
	p := co.Payload()
	h.render(w, code, "checkout", checkoutView{
		layout:   layout{Title: "Checkout", Path: r.URL.Path, CartCount: h.cartCount(r)},
		Items:    p.Items,
		Count:    p.ItemCount(),
		Subtotal: p.Total,
		Total:    co.Total(methodID),
		Methods:  methods,
		Customer: info,
		Error:    msg,
	})
}

func (h *Handler) renderProcessing(w http.ResponseWriter, r *http.Request, co *checkout.Checkout) {
	st := co.Status()
	name := st.PaymentMethod
	if m, err := domain.LookupPaymentMethod(st.PaymentMethod); err == nil {
		name = m.Name
	}
	h.render(w, http.StatusOK, "processing", processingView{
		layout: layout{Title: "Memproses pembayaran", Path: r.URL.Path, CartCount: h.cartCount(r)},
		Total:  st.Total,
		Method: name,
	})
}
