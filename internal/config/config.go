package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Store backends
const (
	StoreClickHouse = "clickhouse"
	StorePostgres   = "postgres"
	StoreSQLite     = "sqlite"
	StoreMemory     = "memory"
)

type Config struct {
	Service    Service    `envconfig:"SERVICE"`
	Store      Store      `envconfig:"STORE"`
	ClickHouse ClickHouse `envconfig:"CLICKHOUSE"`
	Postgres   Postgres   `envconfig:"POSTGRES"`
	SQLite     SQLite     `envconfig:"SQLITE"`
	SQS        SQS        `envconfig:"SQS"`
	Valkey     Valkey     `envconfig:"VALKEY"`
	Tracking   Tracking   `envconfig:"TRACKING"`
	GA4        GA4        `envconfig:"GA4"`
	Mixpanel   Mixpanel   `envconfig:"MIXPANEL"`
	Secrets    Secrets    `envconfig:"SECRETS"`
	Notify     Notify     `envconfig:"NOTIFY"`
	SMTP       SMTP       `envconfig:"SMTP"`
	Report     Report     `envconfig:"REPORT"`
	Consumer   Consumer   `envconfig:"CONSUMER"`
	Telemetry  Telemetry  `envconfig:"TELEMETRY"`
}

type Service struct {
	Environment string `split_words:"true" required:"true"`
	APIPort     string `split_words:"true" default:"8080"`
	Host        string `split_words:"true" default:"localhost:8080"`
	LogLevel    string `split_words:"true" default:"info"`
	Version     string `split_words:"true" default:"dev"`
}

type Store struct {
	Backend string        `split_words:"true" default:"clickhouse"`
	Timeout time.Duration `split_words:"true" default:"5s"`
}

type ClickHouse struct {
	Host            string `split_words:"true"`
	Port            string `split_words:"true" default:"9000"`
	Database        string `split_words:"true" default:"default"`
	User            string `split_words:"true" default:""`
	Password        string `split_words:"true" default:""`
	UseTLS          bool   `split_words:"true" default:"false"`
	MaxOpenConns    int    `split_words:"true" default:"5"`
	MaxIdleConns    int    `split_words:"true" default:"2"`
	ConnMaxLifetime int    `split_words:"true" default:"3600"`
}

type Postgres struct {
	URL      string `split_words:"true"`
	MaxConns int32  `split_words:"true" default:"10"`
	MinConns int32  `split_words:"true" default:"2"`
}

type SQLite struct {
	Path string `split_words:"true" default:"lifecycle.db"`
}

type SQS struct {
	Endpoint string `split_words:"true"`
	QueueURL string `split_words:"true"`
	Region   string `split_words:"true" default:"eu-central-1"`
}

type Valkey struct {
	Host                string        `split_words:"true"`
	Port                string        `split_words:"true" default:"6379"`
	Password            string        `split_words:"true"`
	DB                  int           `split_words:"true" default:"0"`
	IdempotencyEnabled  bool          `split_words:"true" default:"true"`
	IdempotencyFailOpen bool          `split_words:"true" default:"true"`
	IdempotencyTTL      time.Duration `split_words:"true" default:"24h"`
}

// Tracking replaces the global tracking switches of the instrumented surface.
type Tracking struct {
	SinksEnabled bool          `split_words:"true" default:"true"`
	Debug        bool          `split_words:"true" default:"false"`
	SinkTimeout  time.Duration `split_words:"true" default:"3s"`
}

type GA4 struct {
	Enabled       bool   `split_words:"true" default:"true"`
	Endpoint      string `split_words:"true" default:"https://www.google-analytics.com"`
	MeasurementID string `split_words:"true"`
	APISecretName string `split_words:"true" default:"GA4_API_SECRET"`
}

type Mixpanel struct {
	Enabled   bool   `split_words:"true" default:"true"`
	Endpoint  string `split_words:"true" default:"https://api.mixpanel.com"`
	TokenName string `split_words:"true" default:"MIXPANEL_PROJECT_TOKEN"`
}

type Secrets struct {
	Provider string `split_words:"true" default:"env"`
	Prefix   string `split_words:"true" default:""`
	Region   string `split_words:"true" default:"eu-central-1"`
}

type Notify struct {
	Channel string `split_words:"true" default:"log"`
}

type SMTP struct {
	Host         string `split_words:"true"`
	Port         int    `split_words:"true" default:"587"`
	User         string `split_words:"true"`
	PasswordName string `split_words:"true" default:"SMTP_PASSWORD"`
	From         string `split_words:"true" default:"reports@lifecycle.local"`
}

type Report struct {
	Recipients        []string      `split_words:"true"`
	ScheduleEnabled   bool          `split_words:"true" default:"true"`
	ScheduleWeekday   time.Weekday  `split_words:"true" default:"1"`
	ScheduleHour      int           `split_words:"true" default:"9"`
	GenerationTimeout time.Duration `split_words:"true" default:"2m"`
}

type Consumer struct {
	MaxMessages        int32  `split_words:"true" default:"10"`
	WaitTimeSeconds    int32  `split_words:"true" default:"20"`
	RetryVisibilitySec int32  `split_words:"true" default:"30"`
	HealthCheckPort    string `split_words:"true" default:"8081"`
}

type Telemetry struct {
	Endpoint    string `split_words:"true"`
	Insecure    bool   `split_words:"true" default:"false"`
	ServiceName string `split_words:"true" default:"lifecycle-analytics"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cross-field rules envconfig tags cannot express.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case StoreClickHouse:
		if c.ClickHouse.Host == "" {
			return fmt.Errorf("CLICKHOUSE_HOST is required for store backend %q", c.Store.Backend)
		}
	case StorePostgres:
		if c.Postgres.URL == "" {
			return fmt.Errorf("POSTGRES_URL is required for store backend %q", c.Store.Backend)
		}
	case StoreSQLite, StoreMemory:
	default:
		return fmt.Errorf("unsupported store backend: %s (supported: clickhouse, postgres, sqlite, memory)", c.Store.Backend)
	}

	if c.GA4.Enabled && c.GA4.MeasurementID == "" {
		return fmt.Errorf("GA4_MEASUREMENT_ID is required when GA4 sink is enabled")
	}

	switch c.Notify.Channel {
	case "log":
	case "smtp":
		if c.SMTP.Host == "" {
			return fmt.Errorf("SMTP_HOST is required for notify channel smtp")
		}
	default:
		return fmt.Errorf("unsupported notify channel: %s (supported: smtp, log)", c.Notify.Channel)
	}

	if c.Report.ScheduleHour < 0 || c.Report.ScheduleHour > 23 {
		return fmt.Errorf("REPORT_SCHEDULE_HOUR must be between 0 and 23, got %d", c.Report.ScheduleHour)
	}

	return nil
}
