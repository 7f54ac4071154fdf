package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"coffee-storefront/internal/common/logger"
	"coffee-storefront/internal/config"
	"coffee-storefront/internal/connections/database"
	"coffee-storefront/internal/microservices/notificator"
	"coffee-storefront/internal/microservices/storefront"
)

const (
	modeStorefront = "storefront"
	modeSubscriber = "receipt-subscriber"
	modeMigrate    = "migrate"
)

func main() {
	app := &cli.App{
		Name:  "storefront",
		Usage: "coffee shop storefront",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to the YAML config file (default: config.yaml if present)",
				EnvVars: []string{"STOREFRONT_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "mode",
				Value: modeStorefront,
				Usage: modeStorefront + " | " + modeSubscriber + " | " + modeMigrate,
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "http port, overrides the config file",
			},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		logger.New("bootstrap").Error("fatal", err, nil)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	path := c.String("config")
	if path == "" {
		path = config.Find()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if c.IsSet("port") {
		cfg.Server.Port = c.Int("port")
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if err := logger.SetLevel(cfg.Log.Level); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	lg := logger.New("bootstrap")
	mode := c.String("mode")
	lg.Info("mode_selected", map[string]any{"mode": mode})

	switch mode {
	case modeStorefront:
		return storefront.Run(ctx, cfg)
	case modeSubscriber:
		if !cfg.RabbitEnabled() {
			return cli.Exit("rabbitmq.host is required for "+modeSubscriber, 2)
		}
		return notificator.Run(ctx, cfg)
	case modeMigrate:
		if cfg.Database.Host == "" {
			return cli.Exit("database.host is required for "+modeMigrate, 2)
		}
		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return err
		}
		pool.Close()
		return database.Migrate(cfg.Database)
	default:
		return cli.Exit(fmt.Sprintf("unknown --mode %q", mode), 2)
	}
}
