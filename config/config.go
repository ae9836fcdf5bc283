package config

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"puja-booking/logger"
	"puja-booking/services/pricing"
	"puja-booking/services/refund"
)

// Config is read from the environment, optionally seeded from a .env file.
type Config struct {
	AppHost     string `envconfig:"APP_HOST" default:"0.0.0.0"`
	AppPort     string `envconfig:"APP_PORT" default:"8080"`
	FrontendURL string `envconfig:"FRONTEND_URL" default:"*"`

	LogDir   string `envconfig:"LOG_DIR" default:"log/app"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	// RequestLog stores every request/response pair in the logs table.
	RequestLog bool `envconfig:"REQUEST_LOG" default:"false"`

	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`
	DBDatabase string `envconfig:"DB_DATABASE" required:"true"`
	DBUsername string `envconfig:"DB_USERNAME" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	// Tokens are RS256 when a public key URL is set, else HS256 with JWTSecret.
	JWTPublicKeyURL string `envconfig:"PUBLIC_KEY_URL"`
	JWTSecret       string `envconfig:"JWT_SECRET"`

	RabbitURL      string `envconfig:"RABBIT_URL"`
	RabbitExchange string `envconfig:"RABBIT_EXCHANGE" default:"booking.events"`
	NotifyWebhook  string `envconfig:"NOTIFY_WEBHOOK_URL"`

	OmisePublicKey       string `envconfig:"OMISE_PUBLIC_KEY"`
	OmiseSecretKey       string `envconfig:"OMISE_SECRET_KEY"`
	PaymentWebhookSecret string `envconfig:"PAYMENT_WEBHOOK_SECRET"`

	AssignmentTimeout time.Duration `envconfig:"ASSIGNMENT_TIMEOUT" default:"5m"`
	LockWait          time.Duration `envconfig:"LOCK_WAIT" default:"3s"`

	PlatformFeeBps         int64            `envconfig:"PLATFORM_FEE_BPS" default:"1500"`
	PlatformFeeTaxBps      int64            `envconfig:"PLATFORM_FEE_TAX_BPS" default:"1800"`
	TravelServiceFeeBps    int64            `envconfig:"TRAVEL_SERVICE_FEE_BPS" default:"500"`
	TravelServiceFeeTaxBps int64            `envconfig:"TRAVEL_SERVICE_FEE_TAX_BPS" default:"1800"`
	FoodAllowancePerDay    int64            `envconfig:"FOOD_ALLOWANCE_PER_DAY" default:"500"`
	AccommodationPerNight  int64            `envconfig:"ACCOMMODATION_PER_NIGHT" default:"2000"`
	TravelRatePerKm        map[string]int64 `envconfig:"TRAVEL_RATE_PER_KM" default:"OWN_VEHICLE:10,CAB:15,BUS:3,TRAIN:4,FLIGHT:9"`

	// RefundTiers maps a minimum number of days before the event to a share in bps.
	RefundTiers map[int]int64 `envconfig:"REFUND_TIERS" default:"8:9000,3:5000,1:2000,0:0"`

	DispatchWorkers  int  `envconfig:"DISPATCH_WORKERS" default:"4"`
	DispatchQueue    int  `envconfig:"DISPATCH_QUEUE" default:"100"`
	DispatchMaxTries uint `envconfig:"DISPATCH_MAX_TRIES" default:"5"`
}

// Load reads .env when present and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Warning("No .env file loaded, using process environment")
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if _, err := cfg.RateCard(); err != nil {
		return nil, err
	}
	if _, err := cfg.RefundPolicy(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Addr() string {
	return c.AppHost + ":" + c.AppPort
}

// DSN builds the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUsername, c.DBPassword, c.DBDatabase, c.DBSSLMode)
}

func (c *Config) RateCard() (pricing.RateCard, error) {
	card := pricing.RateCard{
		PlatformFeeBps:         c.PlatformFeeBps,
		PlatformFeeTaxBps:      c.PlatformFeeTaxBps,
		TravelServiceFeeBps:    c.TravelServiceFeeBps,
		TravelServiceFeeTaxBps: c.TravelServiceFeeTaxBps,
		FoodAllowancePerDay:    c.FoodAllowancePerDay,
		AccommodationPerNight:  c.AccommodationPerNight,
		TravelRatePerKm:        make(map[pricing.TravelMode]int64, len(c.TravelRatePerKm)),
	}
	for mode, rate := range c.TravelRatePerKm {
		card.TravelRatePerKm[pricing.TravelMode(mode)] = rate
	}
	if err := card.Validate(); err != nil {
		return pricing.RateCard{}, fmt.Errorf("rate card: %w", err)
	}
	return card, nil
}

// RefundPolicy orders the configured tiers by descending minimum days. The
// lowest tier catches every earlier request, including past events.
func (c *Config) RefundPolicy() (refund.Policy, error) {
	if len(c.RefundTiers) == 0 {
		return refund.DefaultPolicy(), nil
	}
	days := make([]int, 0, len(c.RefundTiers))
	for d := range c.RefundTiers {
		days = append(days, d)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(days)))

	var policy refund.Policy
	for i, d := range days {
		tier := refund.Tier{Name: tierName(days, i), MinDays: d, Bps: c.RefundTiers[d]}
		if i == len(days)-1 {
			tier.MinDays = math.MinInt32
		}
		policy.Tiers = append(policy.Tiers, tier)
	}
	if err := policy.Validate(); err != nil {
		return refund.Policy{}, fmt.Errorf("refund tiers: %w", err)
	}
	return policy, nil
}

func tierName(days []int, i int) string {
	switch {
	case i == 0:
		return fmt.Sprintf("MORE_THAN_%d_DAYS", days[0]-1)
	case i == len(days)-1:
		return "SAME_DAY"
	default:
		return fmt.Sprintf("%d_TO_%d_DAYS", days[i], days[i-1]-1)
	}
}
