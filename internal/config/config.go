// Package config resolves runtime settings from the environment,
// optionally seeded from a .env file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/giobyte8/imagescaler/internal/monitor"
	"github.com/giobyte8/imagescaler/internal/scaler"
)

const (
	DefaultSourceDir = "images"

	PresenterLog = "log"
	PresenterTUI = "tui"
)

type AMQPConfig struct {
	Host     string
	Port     string
	User     string
	Pass     string
	Exchange string

	BatchQueueName string
}

// URI builds the broker connection string.
func (c AMQPConfig) URI() string {
	return fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		c.User,
		c.Pass,
		c.Host,
		c.Port,
	)
}

type Config struct {
	SourceDir    string
	Percentages  []int
	Monitor      monitor.Config
	ConfirmStart bool
	Presenter    string

	ScalerBackend string
	Interpolator  string
	JPEGQuality   int

	// Export metrics through OTLP instead of discarding them
	OtelEnabled bool

	AMQP AMQPConfig
}

func DefaultConfig() Config {
	return Config{
		SourceDir:     DefaultSourceDir,
		Percentages:   append([]int(nil), scaler.DefaultPercentages...),
		Monitor:       monitor.DefaultConfig(),
		Presenter:     PresenterLog,
		ScalerBackend: scaler.BackendDraw,
		Interpolator:  scaler.InterpolatorCatmullRom,
		JPEGQuality:   scaler.DefaultJPEGQuality,
	}
}

// LoadEnvFile loads 'path' into the process environment when the file
// exists. A missing file is not an error.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		slog.Debug("No .env file found, using environment variables directly.")
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}

	return nil
}

// FromEnv overlays every variable set in the environment on top of the
// defaults. 'getenv' is usually os.Getenv.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := DefaultConfig()
	var err error

	if v := getenv("SOURCE_DIR"); v != "" {
		cfg.SourceDir = v
	}

	if v := getenv("SCALE_PERCENTAGES"); v != "" {
		if cfg.Percentages, err = ParsePercentages(v); err != nil {
			return cfg, err
		}
	}

	if v := getenv("MONITOR_INITIAL_DELAY"); v != "" {
		if cfg.Monitor.InitialDelay, err = parseDuration("MONITOR_INITIAL_DELAY", v); err != nil {
			return cfg, err
		}
	}
	if v := getenv("MONITOR_PERIOD"); v != "" {
		if cfg.Monitor.Period, err = parseDuration("MONITOR_PERIOD", v); err != nil {
			return cfg, err
		}
	}

	if v := getenv("CONFIRM_START"); v != "" {
		if cfg.ConfirmStart, err = strconv.ParseBool(v); err != nil {
			return cfg, fmt.Errorf("invalid CONFIRM_START %q: %w", v, err)
		}
	}

	if v := getenv("PRESENTER"); v != "" {
		cfg.Presenter = strings.ToLower(v)
	}
	if v := getenv("SCALER_BACKEND"); v != "" {
		cfg.ScalerBackend = strings.ToLower(v)
	}
	if v := getenv("SCALE_INTERPOLATOR"); v != "" {
		cfg.Interpolator = strings.ToLower(v)
	}

	if v := getenv("JPEG_QUALITY"); v != "" {
		if cfg.JPEGQuality, err = strconv.Atoi(strings.TrimSpace(v)); err != nil {
			return cfg, fmt.Errorf("invalid JPEG_QUALITY %q: %w", v, err)
		}
	}

	if v := getenv("OTEL_ENABLED"); v != "" {
		if cfg.OtelEnabled, err = strconv.ParseBool(v); err != nil {
			return cfg, fmt.Errorf("invalid OTEL_ENABLED %q: %w", v, err)
		}
	}

	cfg.AMQP = AMQPConfig{
		Host:           getenv("RABBITMQ_HOST"),
		Port:           getenv("RABBITMQ_PORT"),
		User:           getenv("RABBITMQ_USER"),
		Pass:           getenv("RABBITMQ_PASS"),
		Exchange:       getenv("AMQP_EXCHANGE"),
		BatchQueueName: getenv("AMQP_QUEUE_BATCH_REQUESTS"),
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.SourceDir == "" {
		return fmt.Errorf("source directory cannot be empty")
	}
	if len(c.Percentages) == 0 {
		return fmt.Errorf("at least one scale percentage is required")
	}
	if !slices.IsSorted(c.Percentages) || len(slices.Compact(slices.Clone(c.Percentages))) != len(c.Percentages) {
		return fmt.Errorf("scale percentages must be ascending without duplicates, got %v", c.Percentages)
	}
	if err := c.Monitor.Validate(); err != nil {
		return err
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("jpeg quality must be within 1-100, got %d", c.JPEGQuality)
	}

	switch c.Presenter {
	case PresenterLog, PresenterTUI:
	default:
		return fmt.Errorf("unknown presenter %q", c.Presenter)
	}

	switch c.ScalerBackend {
	case scaler.BackendDraw, scaler.BackendLilliput:
	default:
		return fmt.Errorf("unknown scaler backend %q", c.ScalerBackend)
	}

	if _, err := scaler.InterpolatorByName(c.Interpolator); err != nil {
		return err
	}

	return nil
}

// ParsePercentages parses a comma separated list such as "10, 20, 30".
// Every value must be within 1-100 and strictly greater than the
// previous one.
func ParsePercentages(s string) ([]int, error) {
	var percentages []int

	for _, raw := range strings.Split(s, ",") {

		// Trim spaces in case of "10, 20"
		percent, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid scale percentage %q: %w", raw, err)
		}
		if percent < 1 || percent > 100 {
			return nil, fmt.Errorf("scale percentage must be within 1-100, got %d", percent)
		}
		if n := len(percentages); n > 0 && percent <= percentages[n-1] {
			return nil, fmt.Errorf(
				"scale percentages must be ascending without duplicates, got %d after %d",
				percent,
				percentages[n-1],
			)
		}

		percentages = append(percentages, percent)
	}

	return percentages, nil
}

func parseDuration(name, value string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, value, err)
	}

	return d, nil
}
