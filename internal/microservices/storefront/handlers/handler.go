package handlers

import (
	"time"

	"coffee-storefront/internal/common/logger"
	"coffee-storefront/internal/common/metrics"
	"coffee-storefront/internal/microservices/catalog"
	"coffee-storefront/internal/microservices/checkout"
	"coffee-storefront/internal/microservices/handoff"
	"coffee-storefront/internal/microservices/session"
)

type Deps struct {
	Catalog  *catalog.Catalog
	Sessions *session.Manager
	Handoff  handoff.Store
	Checkout checkout.CheckoutServiceInterface
	Metrics  *metrics.ServerMetrics

	// Location receipts are printed in.
	Location     *time.Location
	SecureCookie bool
	Now          func() time.Time
}

type Handler struct {
	catalog  *catalog.Catalog
	sessions *session.Manager
	handoff  handoff.Store
	checkout checkout.CheckoutServiceInterface
	metrics  *metrics.ServerMetrics
	pages    *pages
	loc      *time.Location
	secure   bool
	now      func() time.Time
	log      *logger.Logger
}

func New(d Deps) *Handler {
	h := &Handler{
		catalog:  d.Catalog,
		sessions: d.Sessions,
		handoff:  d.Handoff,
		checkout: d.Checkout,
		metrics:  d.Metrics,
		pages:    mustParsePages(),
		loc:      d.Location,
		secure:   d.SecureCookie,
		now:      d.Now,
		log:      logger.New("storefront"),
	}
	if h.loc == nil {
		h.loc = time.UTC
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.metrics == nil {
		h.metrics = metrics.NewServerMetrics("storefront")
	}
	return h
}
