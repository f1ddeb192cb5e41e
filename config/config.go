package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`

	HTTPPort     string `envconfig:"HTTP_PORT" default:"14727"`
	APISecretKey string `envconfig:"API_SECRET_KEY"`

	// OpenReview Notes-API (öffentlich; Basic-Auth optional)
	OpenReviewBaseURL  string `envconfig:"OPENREVIEW_BASE_URL" default:"https://api.openreview.net"`
	OpenReviewUsername string `envconfig:"OPENREVIEW_USERNAME"`
	OpenReviewPassword string `envconfig:"OPENREVIEW_PASSWORD"`

	ArxivBaseURL string `envconfig:"ARXIV_BASE_URL" default:"http://export.arxiv.org/api/query"`

	// OpenAlex-API für die Proceedings-Suche
	OpenAlexBaseURL string `envconfig:"OPENALEX_BASE_URL" default:"https://api.openalex.org"`

	// TTL für gecachte arXiv-Matches in Sekunden (Default: 14 Tage)
	MatchTTLSeconds int `envconfig:"MATCH_TTL_SECONDS" default:"1209600"`

	CronSchedule string `envconfig:"CRON_SCHEDULE" default:"0 3 * * *"`
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// MatchTTL gibt die Cache-TTL für arXiv-Matches als Duration zurück.
func (c *Config) MatchTTL() time.Duration {
	return time.Duration(c.MatchTTLSeconds) * time.Second
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
