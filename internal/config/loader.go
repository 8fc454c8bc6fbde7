// Package config loads process configuration from the environment, an
// optional .env file and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/example/clubhouse/internal/hours"
)

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "CLUBHOUSE"

const dateLayout = "2006-01-02"

var weekdayKeys = [7]string{
	time.Sunday:    "hours.sunday",
	time.Monday:    "hours.monday",
	time.Tuesday:   "hours.tuesday",
	time.Wednesday: "hours.wednesday",
	time.Thursday:  "hours.thursday",
	time.Friday:    "hours.friday",
	time.Saturday:  "hours.saturday",
}

// Config captures configuration values for the clubhouse service.
type Config struct {
	HTTPPort        int
	SQLiteDSN       string
	ShutdownTimeout time.Duration
	Auth            AuthConfig
	Location        *time.Location
	Week            hours.Week
	// Closures are extra closed dates, midnight in Location.
	Closures  []time.Time
	LogFormat string
	LogLevel  string
}

// AuthConfig describes the identity provider whose bearer tokens are trusted.
type AuthConfig struct {
	Secret   string
	Issuer   string
	Audience string
	Leeway   time.Duration
}

// Calendar builds the opening-hours calendar with every closure applied.
func (c Config) Calendar() *hours.Calendar {
	calendar := hours.NewCalendar(c.Week)
	for _, date := range c.Closures {
		calendar = calendar.WithException(date, hours.DaySchedule{Closed: true})
	}
	return calendar
}

type options struct {
	configFile string
	envFile    string
}

// Option adjusts where Load looks for configuration.
type Option func(*options)

// WithConfigFile reads path as YAML before applying environment overrides.
func WithConfigFile(path string) Option {
	return func(o *options) { o.configFile = path }
}

// WithEnvFile loads path into the environment first. Variables that are
// already set win. A missing file is ignored.
func WithEnvFile(path string) Option {
	return func(o *options) { o.envFile = path }
}

// Load resolves configuration. Environment variables override the YAML file,
// which overrides the defaults.
//
// All missing and invalid keys are collected and reported together, named by
// their environment variable.
func Load(opts ...Option) (Config, error) {
	o := options{envFile: ".env"}
	for _, opt := range opts {
		opt(&o)
	}

	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to read %s: %w", o.envFile, err)
		}
	}

	v := newViper()
	if o.configFile != "" {
		v.SetConfigFile(o.configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", o.configFile, err)
		}
	}

	return parse(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("http.port", 8080)
	v.SetDefault("http.shutdown_timeout", "10s")
	v.SetDefault("sqlite.dsn", "clubhouse.db")
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.issuer", "")
	v.SetDefault("auth.audience", "")
	v.SetDefault("auth.leeway", "30s")
	v.SetDefault("club.timezone", "UTC")
	v.SetDefault("club.closures", "")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.level", "info")
	for day, schedule := range hours.DefaultWeek() {
		v.SetDefault(weekdayKeys[day], schedule.String())
	}
	return v
}

// EnvKey names the environment variable backing a configuration key.
func EnvKey(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func parse(v *viper.Viper) (Config, error) {
	cfg := Config{
		SQLiteDSN: strings.TrimSpace(v.GetString("sqlite.dsn")),
		LogFormat: strings.ToLower(strings.TrimSpace(v.GetString("log.format"))),
		LogLevel:  strings.ToLower(strings.TrimSpace(v.GetString("log.level"))),
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	port, err := strconv.Atoi(strings.TrimSpace(v.GetString("http.port")))
	if err != nil || port <= 0 || port > 65535 {
		invalid = append(invalid, EnvKey("http.port"))
	} else {
		cfg.HTTPPort = port
	}

	if cfg.SQLiteDSN == "" {
		missing = append(missing, EnvKey("sqlite.dsn"))
	}

	if timeout, ok := positiveDuration(v, "http.shutdown_timeout"); ok {
		cfg.ShutdownTimeout = timeout
	} else {
		invalid = append(invalid, EnvKey("http.shutdown_timeout"))
	}

	cfg.Auth = AuthConfig{
		Secret:   strings.TrimSpace(v.GetString("auth.secret")),
		Issuer:   strings.TrimSpace(v.GetString("auth.issuer")),
		Audience: strings.TrimSpace(v.GetString("auth.audience")),
	}
	if cfg.Auth.Secret == "" {
		missing = append(missing, EnvKey("auth.secret"))
	}
	if leeway, err := time.ParseDuration(strings.TrimSpace(v.GetString("auth.leeway"))); err != nil || leeway < 0 {
		invalid = append(invalid, EnvKey("auth.leeway"))
	} else {
		cfg.Auth.Leeway = leeway
	}

	loc, err := time.LoadLocation(strings.TrimSpace(v.GetString("club.timezone")))
	if err != nil {
		invalid = append(invalid, EnvKey("club.timezone"))
		loc = time.UTC
	}
	cfg.Location = loc

	for day, key := range weekdayKeys {
		schedule, err := hours.ParseDaySchedule(v.GetString(key))
		if err != nil {
			invalid = append(invalid, EnvKey(key))
			continue
		}
		cfg.Week[day] = schedule
	}

	closures, ok := parseClosures(v.GetStringSlice("club.closures"), loc)
	if !ok {
		invalid = append(invalid, EnvKey("club.closures"))
	}
	cfg.Closures = closures

	switch cfg.LogFormat {
	case "json", "text":
	default:
		invalid = append(invalid, EnvKey("log.format"))
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		invalid = append(invalid, EnvKey("log.level"))
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required configuration is missing: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("configuration values are invalid: %s", strings.Join(invalid, ", "))
	}
	return cfg, nil
}

func positiveDuration(v *viper.Viper, key string) (time.Duration, bool) {
	d, err := time.ParseDuration(strings.TrimSpace(v.GetString(key)))
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}

// parseClosures accepts a YAML list or a comma separated environment value.
func parseClosures(entries []string, loc *time.Location) ([]time.Time, bool) {
	var out []time.Time
	for _, entry := range entries {
		for _, text := range strings.Split(entry, ",") {
			text = strings.TrimSpace(text)
			if text == "" {
				continue
			}
			date, err := time.ParseInLocation(dateLayout, text, loc)
			if err != nil {
				return nil, false
			}
			out = append(out, date)
		}
	}
	return out, true
}
