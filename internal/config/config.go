package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/AshapuriCRM/backend/internal/billing"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	StorageLocal      = "local"
	StorageCloudinary = "cloudinary"

	RendererFPDF     = "fpdf"
	RendererChromium = "chromium"
)

type DatabaseConfig struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     string
	SSLMode  string
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode,
	)
}

type DocumentConfig struct {
	Storage       string
	StorageDir    string
	PublicBaseURL string
	CloudinaryURL string
	Folder        string
	Renderer      string
	ChromiumPath  string
}

// Issuer is the staffing agency printed on every invoice.
type Issuer struct {
	Name    string
	Address string
	GSTIN   string
	State   string
}

type Config struct {
	Port           string
	Database       DatabaseConfig
	RedisAddr      string
	KafkaBroker    string
	ConsumerGroup  string
	OutboxPoll     time.Duration
	CacheTTL       time.Duration
	ConnectRetries int
	Document       DocumentConfig
	Issuer         Issuer
	DefaultRates   billing.Rates
}

// Load reads .env when present, then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function so tests can inject values.
func FromEnv(getenv func(string) string) (Config, error) {
	e := env{get: getenv}

	cfg := Config{
		Port: e.str("PORT", "3000"),
		Database: DatabaseConfig{
			Host:     e.str("DB_HOST", "localhost"),
			User:     e.str("DB_USER", "postgres"),
			Password: e.str("DB_PASSWORD", ""),
			Name:     e.str("DB_NAME", "ashapuri"),
			Port:     e.str("DB_PORT", "5432"),
			SSLMode:  e.str("DB_SSLMODE", "disable"),
		},
		RedisAddr:      e.str("REDIS_ADDR", ""),
		KafkaBroker:    e.str("KAFKA_BROKER", ""),
		ConsumerGroup:  e.str("KAFKA_CONSUMER_GROUP", "ashapuri-invoice-documents"),
		OutboxPoll:     e.duration("OUTBOX_POLL_INTERVAL", 3*time.Second),
		CacheTTL:       e.duration("INVOICE_CACHE_TTL", 10*time.Minute),
		ConnectRetries: e.int("CONNECT_RETRIES", 5),
		Document: DocumentConfig{
			Storage:       strings.ToLower(e.str("DOCUMENT_STORAGE", StorageLocal)),
			StorageDir:    e.str("DOCUMENT_STORAGE_DIR", "./storage/invoices"),
			PublicBaseURL: e.str("DOCUMENT_PUBLIC_BASE_URL", "/files/invoices"),
			CloudinaryURL: e.str("CLOUDINARY_URL", ""),
			Folder:        e.str("DOCUMENT_FOLDER", "invoices"),
			Renderer:      strings.ToLower(e.str("DOCUMENT_RENDERER", RendererFPDF)),
			ChromiumPath:  e.str("CHROMIUM_PATH", ""),
		},
		Issuer: Issuer{
			Name:    e.str("COMPANY_NAME", "Ashapuri Security Services"),
			Address: e.str("COMPANY_ADDRESS", ""),
			GSTIN:   e.str("COMPANY_GSTIN", ""),
			State:   e.str("COMPANY_STATE", ""),
		},
	}

	rates := billing.RateConfig{
		PerDayRate:        e.decimal("BILLING_DEFAULT_PER_DAY_RATE"),
		ServiceChargeRate: e.decimal("BILLING_DEFAULT_SERVICE_CHARGE_RATE"),
		BonusRate:         e.decimal("BILLING_DEFAULT_BONUS_RATE"),
		OvertimeRate:      e.decimal("BILLING_DEFAULT_OVERTIME_RATE"),
	}
	if e.err != nil {
		return Config{}, e.err
	}

	resolved, err := rates.Resolve(billing.DefaultRates())
	if err != nil {
		return Config{}, fmt.Errorf("billing defaults: %w", err)
	}
	cfg.DefaultRates = resolved

	switch cfg.Document.Storage {
	case StorageLocal:
	case StorageCloudinary:
		if cfg.Document.CloudinaryURL == "" {
			return Config{}, fmt.Errorf("CLOUDINARY_URL is required when DOCUMENT_STORAGE=%s", StorageCloudinary)
		}
	default:
		return Config{}, fmt.Errorf("unknown DOCUMENT_STORAGE %q", cfg.Document.Storage)
	}

	switch cfg.Document.Renderer {
	case RendererFPDF, RendererChromium:
	default:
		return Config{}, fmt.Errorf("unknown DOCUMENT_RENDERER %q", cfg.Document.Renderer)
	}

	return cfg, nil
}

type env struct {
	get func(string) string
	err error
}

func (e *env) str(key, def string) string {
	if v := strings.TrimSpace(e.get(key)); v != "" {
		return v
	}
	return def
}

func (e *env) int(key string, def int) int {
	v := strings.TrimSpace(e.get(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return n
}

func (e *env) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(e.get(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return d
}

func (e *env) decimal(key string) *decimal.Decimal {
	v := strings.TrimSpace(e.get(key))
	if v == "" {
		return nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		e.fail(key, err)
		return nil
	}
	return &d
}

func (e *env) fail(key string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("invalid %s: %w", key, err)
	}
}
