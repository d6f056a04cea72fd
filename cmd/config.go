package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"fooddelivery/internal/core/domain/model/automation"
	"fooddelivery/internal/pkg/errs"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	LeaseBackendPostgres = "postgres"
	LeaseBackendRedis    = "redis"
)

type Config struct {
	HTTPPort                string           `mapstructure:"http_port"`
	AdminToken              string           `mapstructure:"admin_token"`
	LogLevel                string           `mapstructure:"log_level"`
	InstanceID              string           `mapstructure:"instance_id"`
	DBHost                  string           `mapstructure:"db_host"`
	DBPort                  string           `mapstructure:"db_port"`
	DBUser                  string           `mapstructure:"db_user"`
	DBPassword              string           `mapstructure:"db_password"`
	DBName                  string           `mapstructure:"db_name"`
	DBSslMode               string           `mapstructure:"db_sslmode"`
	LeaseBackend            string           `mapstructure:"lease_backend"`
	RedisAddr               string           `mapstructure:"redis_addr"`
	KafkaHost               string           `mapstructure:"kafka_host"`
	KafkaOrderChangedTopic  string           `mapstructure:"kafka_order_changed_topic"`
	StepTimeout             time.Duration    `mapstructure:"step_timeout"`
	SettingsRefreshInterval time.Duration    `mapstructure:"settings_refresh_interval"`
	Timezone                string           `mapstructure:"timezone"`
	Automation              AutomationConfig `mapstructure:"automation"`
}

// AutomationConfig holds the settings used until a version is saved through the API.
type AutomationConfig struct {
	PreparingToReady time.Duration        `mapstructure:"preparing_to_ready"`
	DeliveryTimeout  time.Duration        `mapstructure:"delivery_timeout"`
	SweepIntervals   SweepIntervalsConfig `mapstructure:"sweep_intervals"`
	BusinessHours    BusinessHoursConfig  `mapstructure:"business_hours"`
}

type SweepIntervalsConfig struct {
	PrepToReady    time.Duration `mapstructure:"prep_to_ready"`
	AssignShippers time.Duration `mapstructure:"assign_shippers"`
	OverdueCheck   time.Duration `mapstructure:"overdue_check"`
}

type BusinessHoursConfig struct {
	Start automation.ClockTime `mapstructure:"start"`
	End   automation.ClockTime `mapstructure:"end"`
}

// LoadConfig reads .env (when present), the optional config file and the environment,
// in increasing priority. Nested keys map to environment variables with "_", so
// automation.sweep_intervals.overdue_check is AUTOMATION_SWEEP_INTERVALS_OVERDUE_CHECK.
func LoadConfig(cfgFile string) (Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", cfgFile, err)
		}
	}

	var cfg Config
	decoderConfigOption := viper.DecoderConfigOption(func(config *mapstructure.DecoderConfig) {
		config.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			stringToClockTimeHookFunc(),
		)
	})
	if err := v.Unmarshal(&cfg, decoderConfigOption); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	defaults := automation.DefaultSettings()

	v.SetDefault("http_port", "8080")
	v.SetDefault("admin_token", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("instance_id", "")
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_user", "postgres")
	v.SetDefault("db_password", "")
	v.SetDefault("db_name", "fooddelivery")
	v.SetDefault("db_sslmode", "disable")
	v.SetDefault("lease_backend", LeaseBackendPostgres)
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("kafka_host", "")
	v.SetDefault("kafka_order_changed_topic", "order.status.changed")
	v.SetDefault("step_timeout", "5s")
	v.SetDefault("settings_refresh_interval", "15s")
	v.SetDefault("timezone", "UTC")
	v.SetDefault("automation.preparing_to_ready", defaults.PreparingToReady.String())
	v.SetDefault("automation.delivery_timeout", defaults.DeliveryTimeout.String())
	v.SetDefault("automation.sweep_intervals.prep_to_ready", defaults.SweepIntervals.PrepToReady.String())
	v.SetDefault("automation.sweep_intervals.assign_shippers", defaults.SweepIntervals.AssignShippers.String())
	v.SetDefault("automation.sweep_intervals.overdue_check", defaults.SweepIntervals.OverdueCheck.String())
	v.SetDefault("automation.business_hours.start", defaults.BusinessHours.Start.String())
	v.SetDefault("automation.business_hours.end", defaults.BusinessHours.End.String())
}

// stringToClockTimeHookFunc decodes "HH:MM" into automation.ClockTime.
func stringToClockTimeHookFunc() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to != reflect.TypeOf(automation.ClockTime{}) {
			return data, nil
		}
		return automation.ParseClockTime(data.(string))
	}
}

// Validate checks the values the service cannot start without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.AdminToken) == "" {
		return errs.NewValueIsRequiredError("ADMIN_TOKEN")
	}
	if c.LeaseBackend != LeaseBackendPostgres && c.LeaseBackend != LeaseBackendRedis {
		return errs.NewValueIsInvalidErrorWithCause("LEASE_BACKEND",
			fmt.Errorf("%q is neither %s nor %s", c.LeaseBackend, LeaseBackendPostgres, LeaseBackendRedis))
	}
	if c.LeaseBackend == LeaseBackendRedis && c.RedisAddr == "" {
		return errs.NewValueIsRequiredError("REDIS_ADDR")
	}
	if c.StepTimeout <= 0 {
		return errs.NewValueIsOutOfRangeError("STEP_TIMEOUT", c.StepTimeout, "1ns", "-")
	}
	if c.SettingsRefreshInterval <= 0 {
		return errs.NewValueIsOutOfRangeError("SETTINGS_REFRESH_INTERVAL", c.SettingsRefreshInterval, "1ns", "-")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return c.Settings().Validate()
}

// DSN returns the Postgres connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}

// Location resolves TIMEZONE.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, errs.NewValueIsInvalidErrorWithCause("TIMEZONE", err)
	}
	return loc, nil
}

func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, errs.NewValueIsInvalidErrorWithCause("LOG_LEVEL", err)
	}
	return level, nil
}

// Settings returns the configured automation settings as version 0.
func (c Config) Settings() automation.Settings {
	a := c.Automation
	return automation.Settings{
		PreparingToReady: a.PreparingToReady,
		DeliveryTimeout:  a.DeliveryTimeout,
		SweepIntervals: automation.SweepIntervals{
			PrepToReady:    a.SweepIntervals.PrepToReady,
			AssignShippers: a.SweepIntervals.AssignShippers,
			OverdueCheck:   a.SweepIntervals.OverdueCheck,
		},
		BusinessHours: automation.BusinessHours{
			Start: a.BusinessHours.Start,
			End:   a.BusinessHours.End,
		},
	}
}
