package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

func Router(h *Handler) http.Handler {
	r := mux.NewRouter()
	r.Use(h.metrics.Middleware)

	r.HandleFunc("/", h.Landing).Methods(http.MethodGet)
	r.HandleFunc("/home", h.Home).Methods(http.MethodGet)
	r.HandleFunc("/home/favorites/{id:[0-9]+}", h.ToggleFavorite).Methods(http.MethodPost)

	r.HandleFunc("/menu", h.Menu).Methods(http.MethodGet)
	r.HandleFunc("/menu/items/{id:[0-9]+}", h.ItemDetail).Methods(http.MethodGet)

	r.HandleFunc("/cart/items/{id:[0-9]+}", h.AddToCart).Methods(http.MethodPost)
	r.HandleFunc("/cart/items/{id:[0-9]+}/decrement", h.DecrementCartItem).Methods(http.MethodPost)
	r.HandleFunc("/cart/items/{id:[0-9]+}/quantity", h.SetCartQuantity).Methods(http.MethodPost)
	r.HandleFunc("/cart/items/{id:[0-9]+}/remove", h.RemoveCartItem).Methods(http.MethodPost)
	r.HandleFunc("/cart/clear", h.ClearCart).Methods(http.MethodPost)
	r.HandleFunc("/cart/checkout", h.HandOff).Methods(http.MethodPost)

	r.HandleFunc("/beli", h.CheckoutView).Methods(http.MethodGet)
	r.HandleFunc("/beli/pay", h.Pay).Methods(http.MethodPost)
	r.HandleFunc("/beli/cancel", h.CancelPayment).Methods(http.MethodPost)
	r.HandleFunc("/beli/status", h.CheckoutStatus).Methods(http.MethodGet)
	r.HandleFunc("/beli/receipt", h.ReceiptView).Methods(http.MethodGet)
	r.HandleFunc("/beli/receipt.txt", h.ReceiptDownload).Methods(http.MethodGet)

	r.HandleFunc("/api/v1/catalog", h.APICatalog).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/cart", h.APICart).Methods(http.MethodGet)

	r.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet)
	r.Handle("/metrics", h.metrics.Handler()).Methods(http.MethodGet)

	return logMiddleware(r)
}
