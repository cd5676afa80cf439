// Package config loads shipper configuration from environment
// variables with command-line flag overrides.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lokiship/lokiship/internal/formatter"
)

// Config holds the full shipper configuration.
type Config struct {
	LokiURL            string
	Username           string // optional basic auth
	Password           string
	LabelNames         []string
	StaticLabels       []formatter.Label
	PreserveTimestamps bool
	BatchSize          int
	FlushInterval      time.Duration
	Verbose            bool
}

// Load registers flags on fs with environment-derived defaults and
// parses args, so a flag given on the command line overrides its
// environment variable.
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	lokiURL := fs.String("loki-url", getEnv("LOKI_URL", ""), "Loki base URL (e.g. http://loki:3100)")
	username := fs.String("loki-username", getEnv("LOKI_USERNAME", ""), "Loki basic auth username (optional)")
	password := fs.String("loki-password", getEnv("LOKI_PASSWORD", ""), "Loki basic auth password (optional)")
	labelNames := fs.String("labels", getEnv("LABEL_NAMES", formatter.SeverityLabel), "Comma-separated property names promoted to stream labels")
	staticLabels := fs.String("static-labels", getEnv("STATIC_LABELS", ""), "Comma-separated k=v labels attached to every stream")
	preserveTs := fs.Bool("preserve-timestamps", getEnvBool("PRESERVE_TIMESTAMPS", true), "Keep each event's own timestamp on the wire")
	batchSize := fs.Int("batch-size", getEnvInt("BATCH_SIZE", 500), "Maximum number of events per batch")
	flushInterval := fs.Duration("flush-interval", getEnvDuration("FLUSH_INTERVAL", 200*time.Millisecond), "Maximum wait before flushing a batch")
	verbose := fs.Bool("verbose", getEnvBool("VERBOSE", false), "Enable debug logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := &Config{
		LokiURL:            *lokiURL,
		Username:           *username,
		Password:           *password,
		LabelNames:         splitList(*labelNames),
		PreserveTimestamps: *preserveTs,
		BatchSize:          *batchSize,
		FlushInterval:      *flushInterval,
		Verbose:            *verbose,
	}

	var err error
	cfg.StaticLabels, err = parseStaticLabels(*staticLabels)
	if err != nil {
		return nil, err
	}

	if cfg.LokiURL == "" {
		return nil, fmt.Errorf("loki URL is required (LOKI_URL or -loki-url)")
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", cfg.BatchSize)
	}
	if cfg.FlushInterval <= 0 {
		return nil, fmt.Errorf("flush interval must be positive, got %s", cfg.FlushInterval)
	}
	return cfg, nil
}

// parseStaticLabels parses "env=prod,region=eu" into label pairs.
func parseStaticLabels(s string) ([]formatter.Label, error) {
	var labels []formatter.Label
	for _, part := range splitList(s) {
		name, value, ok := strings.Cut(part, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid static label %q, want k=v", part)
		}
		labels = append(labels, formatter.Label{Name: name, Value: value})
	}
	return labels, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
