package config

import (
	"fmt"
	"log"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	SourceGraph   = "graph"
	SourceBrowser = "browser"
	SourceGoinsta = "goinsta"
)

type Config struct {
	App struct {
		Env       string `env:"APP_ENV" env-default:"development"`
		Port      int    `env:"APP_PORT" env-default:"4000"`
		SentryUrl string `env:"SENTRY_URL"`
	}
	Postgres struct {
		Port     int    `env:"POSTGRES_PORT" env-default:"5432"`
		Host     string `env:"POSTGRES_HOST" env-default:"127.0.0.1"`
		User     string `env:"POSTGRES_USER"`
		Pass     string `env:"POSTGRES_PASS"`
		Name     string `env:"POSTGRES_NAME"`
		SslMode  string `env:"POSTGRES_SSL_MODE" env-default:"disable"`
		MaxConns int32  `env:"POSTGRES_MAX_CONNS" env-default:"15"`
	}
	Auth struct {
		JWTSecret  string        `env:"JWT_SECRET"`
		JWTExpires time.Duration `env:"JWT_EXPIRES" env-default:"168h"`
	}
	Instagram struct {
		Source       string        `env:"INSTAGRAM_SOURCE" env-default:"graph"`
		User         string        `env:"INSTAGRAM_USER"`
		Pass         string        `env:"INSTAGRAM_PASS"`
		SessionPath  string        `env:"INSTAGRAM_SESSION_PATH" env-default:"./goinsta-session"`
		GraphBaseURL string        `env:"META_API_BASE_URL" env-default:"https://graph.facebook.com"`
		GraphVersion string        `env:"META_API_VERSION" env-default:"v24.0"`
		AccessToken  string        `env:"META_ACCESS_TOKEN"`
		UserID       string        `env:"META_IG_USER_ID"`
		CDPEndpoint  string        `env:"BROWSER_CDP_ENDPOINT"`
		FetchTimeout time.Duration `env:"SOURCE_FETCH_TIMEOUT" env-default:"60s"`
		PerTagSlack  int           `env:"SOURCE_PER_TAG_SLACK" env-default:"5"`
		CacheTTL     time.Duration `env:"SOURCE_CACHE_TTL" env-default:"10m"`
		CacheSize    int           `env:"SOURCE_CACHE_SIZE" env-default:"1024"`
	}
	Enrichment struct {
		GeminiAPIKey string        `env:"GEMINI_API_KEY"`
		Models       []string      `env:"GEMINI_MODELS" env-separator:"," env-default:"gemini-2.5-flash,gemini-2.5-flash-lite"`
		Timeout      time.Duration `env:"ENRICHMENT_TIMEOUT" env-default:"30s"`
		TaxonomyPath string        `env:"TAXONOMY_PATH"`
	}
	Telegram struct {
		Token   string        `env:"TELEGRAM_TOKEN"`
		Channel string        `env:"TELEGRAM_CHANNEL"`
		Timeout time.Duration `env:"TELEGRAM_TIMEOUT" env-default:"15s"`
		// Concurrent announcement batches; batches beyond this are dropped.
		Workers int `env:"TELEGRAM_WORKERS" env-default:"2"`
	}
	Scheduler struct {
		// Hashtag sets separated by ';', hashtags inside a set by ','.
		Hashtags string        `env:"SCHEDULE_HASHTAGS"`
		Interval time.Duration `env:"SCHEDULE_INTERVAL" env-default:"1h"`
		Workers  int           `env:"SCHEDULE_WORKERS" env-default:"2"`
		City     string        `env:"SCHEDULE_CITY" env-default:"Dallas"`
		MinViews int64         `env:"SCHEDULE_MIN_VIEWS" env-default:"6000"`
		Limit    int           `env:"SCHEDULE_LIMIT" env-default:"20"`
	}
	RateLimit struct {
		Requests int           `env:"INGEST_RATE_REQUESTS" env-default:"5"`
		Per      time.Duration `env:"INGEST_RATE_PER" env-default:"1m"`
		Burst    int           `env:"INGEST_RATE_BURST" env-default:"2"`
	}
}

var (
	once sync.Once
	cfg  *Config
)

// New reads the configuration once per process. When a .env file exists in the
// working directory its values are loaded first; variables set in the
// environment still override them.
func New() (*Config, error) {
	once.Do(func() {
		cfg = &Config{}
		var err error
		if _, statErr := os.Stat(".env"); statErr == nil {
			err = cleanenv.ReadConfig(".env", cfg)
		} else {
			err = cleanenv.ReadEnv(cfg)
		}
		if err != nil {
			help, _ := cleanenv.GetDescription(cfg, nil)
			log.Fatalf("Failed to read configuration: %v\n%v", err, help)
		}
	})
	return cfg, nil
}

// GetDSN returns the key/value connection string used by database/sql drivers.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("dbname=%s user=%s password=%s host=%s port=%d sslmode=%s",
		dsnValue(c.Postgres.Name), dsnValue(c.Postgres.User), dsnValue(c.Postgres.Pass),
		dsnValue(c.Postgres.Host), c.Postgres.Port, dsnValue(c.Postgres.SslMode),
	)
}

// dsnValue single-quotes v with backslash escapes so spaces and quotes survive.
func dsnValue(v string) string {
	return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v) + "'"
}

// GetURL returns the postgres:// URL used by pgxpool. Credentials are escaped.
func (c *Config) GetURL() string {
	query := url.Values{}
	query.Set("sslmode", c.Postgres.SslMode)
	query.Set("pool_max_conns", strconv.Itoa(int(c.Postgres.MaxConns)))

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Postgres.User, c.Postgres.Pass),
		Host:     net.JoinHostPort(c.Postgres.Host, strconv.Itoa(c.Postgres.Port)),
		Path:     "/" + c.Postgres.Name,
		RawQuery: query.Encode(),
	}
	return u.String()
}

// ScheduledHashtagSets splits SCHEDULE_HASHTAGS into independent hashtag sets.
func (c *Config) ScheduledHashtagSets() [][]string {
	var sets [][]string
	for _, rawSet := range strings.Split(c.Scheduler.Hashtags, ";") {
		var set []string
		for _, tag := range strings.Split(rawSet, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				set = append(set, tag)
			}
		}
		if len(set) > 0 {
			sets = append(sets, set)
		}
	}
	return sets
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
