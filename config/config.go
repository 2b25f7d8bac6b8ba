package config

import (
	"strings"
	"time"
)

type AppConfig struct {
	APIPort     string `env:"PORT" envDefault:"12222"`
	APIKey      string `env:"API_KEY,required"`
	RabbitMQURL string `env:"RABBITMQ_URL"`
	// Domains are the mail domains accounts can be created on, each with its
	// leading @. The first one is the default.
	Domains      []string      `env:"TEMPMAIL_DOMAINS" envDefault:"@qubit.qzz.io,@sucvat.qzz.io" envSeparator:","`
	EmailTTL     time.Duration `env:"TEMPMAIL_EMAIL_TTL" envDefault:"30m"`
	AccountTTL   time.Duration `env:"TEMPMAIL_ACCOUNT_TTL" envDefault:"1h"`
	CookieName   string        `env:"TEMPMAIL_COOKIE_NAME" envDefault:"tm_session"`
	CookieTTL    time.Duration `env:"TEMPMAIL_COOKIE_TTL" envDefault:"720h"`
	CookieSecure bool          `env:"TEMPMAIL_COOKIE_SECURE" envDefault:"true"`
	// MaxInboundBytes caps a raw message posted to /inbound
	MaxInboundBytes int64 `env:"TEMPMAIL_MAX_INBOUND_BYTES" envDefault:"26214400"`
}

// NormalizedDomains returns the configured domains lower-cased and prefixed
// with @, skipping blanks.
func (c *AppConfig) NormalizedDomains() []string {
	var domains []string
	for _, d := range c.Domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" || d == "@" {
			continue
		}
		if !strings.HasPrefix(d, "@") {
			d = "@" + d
		}
		domains = append(domains, d)
	}
	return domains
}

type ParserConfig struct {
	MaxDepth int `env:"PARSER_MAX_DEPTH" envDefault:"50"`
	MaxParts int `env:"PARSER_MAX_PARTS" envDefault:"10000"`
}

type DatabaseConfig struct {
	Host            string `env:"TEMPMAIL_POSTGRES_HOST,required"`
	Port            string `env:"TEMPMAIL_POSTGRES_PORT" envDefault:"5432"`
	User            string `env:"TEMPMAIL_POSTGRES_USER,required"`
	DBName          string `env:"TEMPMAIL_POSTGRES_DB_NAME,required"`
	Password        string `env:"TEMPMAIL_POSTGRES_PASSWORD,required"`
	MaxConn         int    `env:"TEMPMAIL_POSTGRES_DB_MAX_CONN" envDefault:"100"`
	MaxIdleConn     int    `env:"TEMPMAIL_POSTGRES_DB_MAX_IDLE_CONN" envDefault:"10"`
	ConnMaxLifetime int    `env:"TEMPMAIL_POSTGRES_DB_CONN_MAX_LIFETIME" envDefault:"3600"`
	LogLevel        string `env:"TEMPMAIL_POSTGRES_LOG_LEVEL" envDefault:"WARN"`
	SSLMode         string `env:"TEMPMAIL_POSTGRES_SSL_MODE" envDefault:"require"`
}

// R2StorageConfig configures the raw message archive. Archiving is off when
// AccountID is empty.
type R2StorageConfig struct {
	AccountID        string `env:"CLOUDFLARE_R2_ACCOUNT_ID"`
	AccessKeyID      string `env:"CLOUDFLARE_R2_ACCESS_KEY_ID"`
	AccessKeySecret  string `env:"CLOUDFLARE_R2_ACCESS_KEY_SECRET"`
	RawMessageBucket string `env:"BUCKET_NAME_RAW_MESSAGE" envDefault:"raw-messages"`
}

func (c *R2StorageConfig) Enabled() bool {
	return c != nil && c.AccountID != ""
}
