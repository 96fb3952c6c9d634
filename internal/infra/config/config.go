package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // TIMEZONE must resolve on minimal images

	"github.com/badoux/checkmail"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"vaccine_slot_notifier/internal/domain/slot"
)

const (
	LockBackendLocal    = "local"
	LockBackendRedis    = "redis"
	LockBackendPostgres = "postgres"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	PostalCodes        []string `validate:"required,min=1,dive,required,numeric"`
	MinAge             int      `validate:"gte=0"`
	FeeType            string   `validate:"oneof=Paid Free Both"`
	FeeCaseInsensitive bool
	Dose               int      `validate:"oneof=1 2"`
	Recipients         []string `validate:"required,min=1,dive,required"`
	SendNoSlotsEmail   bool

	SMTPHost     string `validate:"required,hostname_rfc1123|ip"`
	SMTPPort     int    `validate:"min=1,max=65535"`
	SMTPSecure   bool   // implicit TLS, usually port 465
	SMTPUsername string `validate:"required"`
	SMTPPassword string `validate:"required"`
	SMTPFrom     string `validate:"required"`

	CronSpec                 string        `validate:"required"`
	CycleTimeout             time.Duration `validate:"gte=0"`
	HTTPPort                 int           `validate:"min=1,max=65535"`
	Timezone                 string        `validate:"required"`
	CowinBaseURL             string        `validate:"required,url"`
	CowinUserAgent           string        `validate:"required"`
	HTTPTimeout              time.Duration `validate:"gte=0"`
	MaxConcurrentPostalCodes int           `validate:"gte=0"`
	NotifyWorkers            int           `validate:"min=1"`

	LockBackend   string        `validate:"oneof=local redis postgres"`
	LockTTL       time.Duration `validate:"gt=0"`
	RedisAddress  string        `validate:"required_if=LockBackend redis"`
	RedisPassword string
	RedisDB       int    `validate:"gte=0"`
	DatabaseURL   string `validate:"required_if=LockBackend postgres"`

	TelegramToken   string
	TelegramChatIDs []int64 `validate:"required_with=TelegramToken"`
	AdminTelegramID int64

	LogLevel    string
	Environment string
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.PostalCodes = splitList(os.Getenv("POSTAL_CODES"))
	if len(cfg.PostalCodes) == 0 {
		return nil, fmt.Errorf("POSTAL_CODES is not set")
	}

	if cfg.MinAge, err = intEnv("MIN_AGE", 18); err != nil {
		return nil, err
	}

	cfg.FeeType = stringEnv("FEE_TYPE", string(slot.FeeFilterBoth))
	if cfg.FeeCaseInsensitive, err = boolEnv("FEE_TYPE_CASE_INSENSITIVE", false); err != nil {
		return nil, err
	}
	if cfg.Dose, err = intEnv("DOSE", int(slot.DoseFirst)); err != nil {
		return nil, err
	}

	cfg.Recipients = splitList(os.Getenv("EMAIL_RECIPIENTS"))
	if len(cfg.Recipients) == 0 {
		return nil, fmt.Errorf("EMAIL_RECIPIENTS is not set")
	}
	if cfg.SendNoSlotsEmail, err = boolEnv("SEND_NO_SLOTS_EMAIL", true); err != nil {
		return nil, err
	}

	cfg.SMTPHost = os.Getenv("SMTP_HOST")
	if cfg.SMTPHost == "" {
		return nil, fmt.Errorf("SMTP_HOST is not set")
	}
	if cfg.SMTPPort, err = intEnv("SMTP_PORT", 587); err != nil {
		return nil, err
	}
	if cfg.SMTPSecure, err = boolEnv("SMTP_SECURE", false); err != nil {
		return nil, err
	}
	cfg.SMTPUsername = os.Getenv("SMTP_USERNAME")
	if cfg.SMTPUsername == "" {
		return nil, fmt.Errorf("SMTP_USERNAME is not set")
	}
	cfg.SMTPPassword = os.Getenv("SMTP_PASSWORD")
	if cfg.SMTPPassword == "" {
		return nil, fmt.Errorf("SMTP_PASSWORD is not set")
	}
	cfg.SMTPFrom = stringEnv("SMTP_FROM", cfg.SMTPUsername)

	cfg.CronSpec = stringEnv("CRON_SPEC", "*/10 * * * *") // Default: every 10 minutes
	if cfg.CycleTimeout, err = durationEnv("CYCLE_TIMEOUT", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.HTTPPort, err = intEnv("PORT", 3000); err != nil {
		return nil, err
	}
	cfg.Timezone = stringEnv("TIMEZONE", "Asia/Kolkata")
	cfg.CowinBaseURL = strings.TrimRight(stringEnv("COWIN_BASE_URL", "https://cdn-api.co-vin.in"), "/")
	cfg.CowinUserAgent = stringEnv("COWIN_USER_AGENT",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/90.0.4430.93 Safari/537.36")
	if cfg.HTTPTimeout, err = durationEnv("HTTP_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.MaxConcurrentPostalCodes, err = intEnv("MAX_CONCURRENT_POSTAL_CODES", 0); err != nil {
		return nil, err
	}
	if cfg.NotifyWorkers, err = intEnv("NOTIFY_WORKERS", 2); err != nil {
		return nil, err
	}

	cfg.LockBackend = strings.ToLower(stringEnv("LOCK_BACKEND", LockBackendLocal))
	if cfg.LockTTL, err = durationEnv("LOCK_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	cfg.RedisAddress = os.Getenv("REDIS_ADDRESS")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	if cfg.RedisDB, err = intEnv("REDIS_DB", 0); err != nil {
		return nil, err
	}
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	for _, raw := range splitList(os.Getenv("TELEGRAM_CHAT_IDS")) {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_IDS entry %q: %w", raw, err)
		}
		cfg.TelegramChatIDs = append(cfg.TelegramChatIDs, id)
	}
	if adminIDStr := os.Getenv("ADMIN_TELEGRAM_ID"); adminIDStr != "" {
		cfg.AdminTelegramID, err = strconv.ParseInt(adminIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks struct constraints and the recipient address format.
func (c *AppConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	for _, addr := range c.Recipients {
		if err := checkmail.ValidateFormat(addr); err != nil {
			return fmt.Errorf("invalid EMAIL_RECIPIENTS entry %q: %w", addr, err)
		}
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	return nil
}

// Criteria builds the read-only filter criteria used by every cycle.
func (c *AppConfig) Criteria() slot.Criteria {
	return slot.Criteria{
		MinAge:             c.MinAge,
		FeeFilter:          slot.FeeFilter(c.FeeType),
		Dose:               slot.Dose(c.Dose),
		PostalCodes:        append([]string(nil), c.PostalCodes...),
		Recipients:         append([]string(nil), c.Recipients...),
		SendNoSlotsNotice:  c.SendNoSlotsEmail,
		CaseInsensitiveFee: c.FeeCaseInsensitive,
	}
}

// Location resolves Timezone. Validate has already checked it loads.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func stringEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func boolEnv(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
