package config

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"development"`
	Port   string `env:"PORT" envDefault:"8080"`

	DBUser     string `env:"DB_USER"`
	DBPassword string `env:"DB_PASSWORD"`
	DBHost     string `env:"DB_HOST" envDefault:"127.0.0.1"`
	DBPort     string `env:"DB_PORT" envDefault:"3306"`
	DBName     string `env:"DB_NAME" envDefault:"optik"`
	DBMigrate  bool   `env:"DB_MIGRATE" envDefault:"false"`

	JWTSecret string        `env:"JWT_SECRET_KEY"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"12h"`

	RedisAddr     string        `env:"REDIS_ADDR" envDefault:"127.0.0.1:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	DraftTTL      time.Duration `env:"DRAFT_TTL" envDefault:"8h"`

	// Aturan penjualan
	TaxRate        string `env:"TAX_RATE" envDefault:"0.16"`
	MinDepositRate string `env:"MIN_DEPOSIT_RATE" envDefault:"0.5"`
	QuoteValidDays int    `env:"QUOTE_VALID_DAYS" envDefault:"15"`

	// Jam operasional klinik, format "15:04"
	ClinicOpen         string `env:"CLINIC_OPEN" envDefault:"09:00"`
	ClinicClose        string `env:"CLINIC_CLOSE" envDefault:"19:00"`
	AppointmentMinutes int    `env:"APPOINTMENT_MINUTES" envDefault:"30"`

	S3Endpoint  string `env:"S3_ENDPOINT"`
	S3Region    string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Bucket    string `env:"S3_BUCKET"`
	S3AccessKey string `env:"S3_ACCESS_KEY"`
	S3SecretKey string `env:"S3_SECRET_KEY"`
	S3PathStyle bool   `env:"S3_PATH_STYLE" envDefault:"true"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`
}

var (
	cfg  *Config
	once sync.Once
)

// LoadConfig membaca .env (jika ada) lalu environment variable. Hasilnya dipakai
// bersama oleh seluruh proses.
func LoadConfig() *Config {
	once.Do(func() {
		if err := godotenv.Load(); err != nil {
			log.Println("Warning: .env file not found. Relying on environment variables.")
		}
		c, err := Parse()
		if err != nil {
			log.Fatalf("Gagal membaca konfigurasi: %v", err)
		}
		cfg = c
	})
	return cfg
}

// Parse membaca konfigurasi dari environment tanpa menyimpan singleton.
func Parse() (*Config, error) {
	c := &Config{}
	if err := env.Parse(c); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET_KEY is required")
	}
	rate, err := c.Tax()
	if err != nil {
		return err
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("TAX_RATE must be in [0,1), got %s", c.TaxRate)
	}
	deposit, err := c.MinDeposit()
	if err != nil {
		return err
	}
	if deposit.IsNegative() || deposit.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("MIN_DEPOSIT_RATE must be in [0,1], got %s", c.MinDepositRate)
	}
	open, closeAt, err := c.ClinicHours()
	if err != nil {
		return err
	}
	if closeAt <= open {
		return fmt.Errorf("CLINIC_CLOSE (%s) must be after CLINIC_OPEN (%s)", c.ClinicClose, c.ClinicOpen)
	}
	if c.AppointmentMinutes <= 0 {
		return errors.New("APPOINTMENT_MINUTES must be positive")
	}
	return nil
}

func (c *Config) Tax() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(c.TaxRate)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid TAX_RATE %q: %w", c.TaxRate, err)
	}
	return d, nil
}

func (c *Config) MinDeposit() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(c.MinDepositRate)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid MIN_DEPOSIT_RATE %q: %w", c.MinDepositRate, err)
	}
	return d, nil
}

// ClinicHours mengembalikan jam buka dan tutup sebagai offset dari tengah malam.
func (c *Config) ClinicHours() (time.Duration, time.Duration, error) {
	open, err := parseClock(c.ClinicOpen)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid CLINIC_OPEN: %w", err)
	}
	closeAt, err := parseClock(c.ClinicClose)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid CLINIC_CLOSE: %w", err)
	}
	return open, closeAt, nil
}

func (c *Config) AppointmentDuration() time.Duration {
	return time.Duration(c.AppointmentMinutes) * time.Minute
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
