package storefront

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"coffee-storefront/internal/common/httpx"
	"coffee-storefront/internal/common/logger"
	"coffee-storefront/internal/common/metrics"
	"coffee-storefront/internal/config"
	"coffee-storefront/internal/connections/database"
	"coffee-storefront/internal/connections/rabbitmq"
	"coffee-storefront/internal/domain"
	"coffee-storefront/internal/microservices/catalog"
	"coffee-storefront/internal/microservices/checkout"
	"coffee-storefront/internal/microservices/handoff"
	notify "coffee-storefront/internal/microservices/notificator/service"
	"coffee-storefront/internal/microservices/session"
	"coffee-storefront/internal/microservices/storefront/handlers"
)

const serviceName = "storefront"

// Run serves the storefront until ctx ends.
func Run(ctx context.Context, cfg *config.Config) error {
	lg := logger.New(serviceName)

	cat, err := catalog.Open(cfg.Catalog.Path)
	if err != nil {
		return err
	}
	m := metrics.NewServerMetrics(serviceName)
	g, gctx := errgroup.WithContext(ctx)

	var store handoff.Store
	switch cfg.Handoff.Backend {
	case config.HandoffPostgres:
		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := database.Migrate(cfg.Database); err != nil {
			return err
		}
		pg := handoff.NewPostgresStore(pool, cfg.Session.TTL)
		store = pg
		g.Go(func() error { return purgeLoop(gctx, pg, cfg.Handoff.PurgeInterval, lg) })
	default:
		store = handoff.NewMemoryStore()
	}

	var notifier checkout.Notifier
	if cfg.RabbitEnabled() {
		client, err := rabbitmq.Dial(cfg.RabbitMQ)
		if err != nil {
			return err
		}
		defer client.Close()
		if err := client.DeclareFanout(cfg.RabbitMQ.Exchange, cfg.RabbitMQ.Queue); err != nil {
			return err
		}
		notifier = notify.NewReceiptPublisher(client, cfg.RabbitMQ.Exchange, serviceName)
	}

	var sessions *session.Manager
	completed := func(sessionID string, r domain.Receipt) {
		m.Checkouts.WithLabelValues(metrics.CheckoutCompleted).Inc()
		if s, ok := sessions.Get(sessionID); ok {
			s.Do(func(s *session.Session) { s.Cart.Settle(r.Items) })
		}
	}
	svc := checkout.NewCheckoutService(store, notifier,
		checkout.WithDelay(cfg.Checkout.PaymentDelay),
		checkout.WithCompletionHook(completed),
	)
	sessions = session.NewManager(cfg.Session.TTL,
		session.WithEvictHook(func(s *session.Session) {
			cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := store.Clear(cctx, s.ID); err != nil {
				lg.Error("handoff_evict_failed", err, map[string]any{"session_id": s.ID})
			}
		}),
	)

	h := handlers.New(handlers.Deps{
		Catalog:      cat,
		Sessions:     sessions,
		Handoff:      store,
		Checkout:     svc,
		Metrics:      m,
		Location:     cfg.Location(),
		SecureCookie: cfg.Session.SecureCookie,
	})
	srv := httpx.New(cfg.Server, handlers.Router(h))

	lg.Info("service_started", map[string]any{
		"addr":            srv.Addr,
		"handoff_backend": cfg.Handoff.Backend,
		"notifications":   cfg.RabbitEnabled(),
		"payment_delay":   cfg.Checkout.PaymentDelay.String(),
		"menu_items":      len(cat.Items()),
	})

	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error { return sessions.RunJanitor(gctx, cfg.Session.SweepInterval) })

	err = g.Wait()
	lg.Info("service_stopped", nil)
	return err
}

func purgeLoop(ctx context.Context, pg *handoff.PostgresStore, every time.Duration, lg *logger.Logger) error {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			n, err := pg.Purge(ctx)
			if err != nil {
				lg.Error("handoff_purge_failed", err, nil)
				continue
			}
			if n > 0 {
				lg.Info("handoff_purged", map[string]any{"rows": n})
			}
		}
	}
}
