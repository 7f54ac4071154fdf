package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. STOREFRONT_SERVER_PORT.
const EnvPrefix = "storefront"

const (
	HandoffMemory   = "memory"
	HandoffPostgres = "postgres"
)

// Config holds every application setting. Values come from defaults, then the
// YAML file, then the environment.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Session  SessionConfig  `yaml:"session"`
	Checkout CheckoutConfig `yaml:"checkout"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Handoff  HandoffConfig  `yaml:"handoff"`
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout" split_words:"true"`
	WriteTimeout    time.Duration `yaml:"write_timeout" split_words:"true"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" split_words:"true"`
}

type SessionConfig struct {
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval" split_words:"true"`
	SecureCookie  bool          `yaml:"secure_cookie" split_words:"true"`
}

type CheckoutConfig struct {
	PaymentDelay time.Duration `yaml:"payment_delay" split_words:"true"`
	TimeZone     string        `yaml:"time_zone" split_words:"true"`
}

type CatalogConfig struct {
	// Path to a catalog YAML document; empty uses the built-in menu.
	Path string `yaml:"path"`
}

type HandoffConfig struct {
	Backend       string        `yaml:"backend"`
	PurgeInterval time.Duration `yaml:"purge_interval" split_words:"true"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

type RabbitMQConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	VHost    string `yaml:"vhost"`
	UseTLS   bool   `yaml:"use_tls" split_words:"true"`
	Exchange string `yaml:"exchange"`
	Queue    string `yaml:"queue"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            3000,
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Session: SessionConfig{
			TTL:           30 * time.Minute,
			SweepInterval: time.Minute,
		},
		Checkout: CheckoutConfig{
			PaymentDelay: 2 * time.Second,
			TimeZone:     "Asia/Jakarta",
		},
		Handoff: HandoffConfig{
			Backend:       HandoffMemory,
			PurgeInterval: 5 * time.Minute,
		},
		Database: DatabaseConfig{
			Port:    5432,
			SSLMode: "disable",
		},
		RabbitMQ: RabbitMQConfig{
			Port:     5672,
			VHost:    "/",
			Exchange: "receipts_fanout",
			Queue:    "receipts.q",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path (skipped when empty), applies environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "read config")
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse %s", path)
		}
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, errors.Wrap(err, "environment overrides")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var problems []string
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	if c.Session.TTL <= 0 {
		problems = append(problems, "session.ttl must be positive")
	}
	if c.Session.SweepInterval <= 0 {
		problems = append(problems, "session.sweep_interval must be positive")
	}
	if c.Checkout.PaymentDelay < 0 {
		problems = append(problems, "checkout.payment_delay must not be negative")
	}
	if _, err := time.LoadLocation(c.Checkout.TimeZone); err != nil {
		problems = append(problems, fmt.Sprintf("checkout.time_zone %q: %v", c.Checkout.TimeZone, err))
	}
	switch c.Handoff.Backend {
	case HandoffMemory:
	case HandoffPostgres:
		problems = append(problems, c.Database.missing("handoff.backend postgres")...)
		if c.Handoff.PurgeInterval <= 0 {
			problems = append(problems, "handoff.purge_interval must be positive")
		}
	default:
		problems = append(problems, fmt.Sprintf("handoff.backend %q is not memory or postgres", c.Handoff.Backend))
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		problems = append(problems, fmt.Sprintf("log.level %q unknown", c.Log.Level))
	}
	if len(problems) > 0 {
		return errors.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) Addr() string { return ":" + strconv.Itoa(c.Server.Port) }

// Location is the time zone receipts are printed in.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Checkout.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// RabbitEnabled reports whether a broker is configured.
func (c *Config) RabbitEnabled() bool { return c.RabbitMQ.Host != "" }

func (d DatabaseConfig) missing(requiredBy string) []string {
	var out []string
	for _, f := range []struct{ name, value string }{
		{"host", d.Host}, {"user", d.User}, {"database", d.Database},
	} {
		if f.value == "" {
			out = append(out, fmt.Sprintf("database.%s is required by %s", f.name, requiredBy))
		}
	}
	return out
}

// DSN is the pgx connection URL.
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + strconv.Itoa(d.Port),
		Path:     "/" + d.Database,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

// Candidates are the paths Find looks at, in order.
var Candidates = []string{"config.yaml", "deploy/config.example.yaml"}

// Find returns the first candidate config file that exists, or "" when none
// does and the defaults should be used.
func Find() string {
	for _, p := range Candidates {
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p
		}
	}
	return ""
}
