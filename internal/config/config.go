package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"

	"github.com/base-14/examples/go/parking-rules/internal/logging"
	"github.com/base-14/examples/go/parking-rules/internal/parking"
)

// EnvPrefix selects environment overrides. Nested keys use a double
// underscore, e.g. PARKING_TARIFFS__CAR__HOURLY_RATE.
const EnvPrefix = "PARKING_"

type Config struct {
	Environment  string              `json:"environment"`
	Log          LogConfig           `json:"log"`
	Server       ServerConfig        `json:"server"`
	Telemetry    TelemetryConfig     `json:"telemetry"`
	Database     DatabaseConfig      `json:"database"`
	Lot          LotConfig           `json:"lot"`
	Capacity     CapacityConfig      `json:"capacity"`
	Tariffs      TariffsConfig       `json:"tariffs"`
	Restrictions map[string][]string `json:"restrictions"`
}

type LogConfig struct {
	Level string `json:"level"`
}

type ServerConfig struct {
	Port string `json:"port"`
}

type TelemetryConfig struct {
	ServiceName string `json:"service_name"`
	Endpoint    string `json:"endpoint"`
	Disabled    bool   `json:"disabled"`
}

// DatabaseConfig selects the ledger. An empty URL keeps records in memory.
type DatabaseConfig struct {
	URL string `json:"url"`
}

type LotConfig struct {
	// Timezone is an IANA name used to decide the calendar day of an entry.
	Timezone string `json:"timezone"`
}

type CapacityConfig struct {
	Car        int `json:"car"`
	Motorcycle int `json:"motorcycle"`
}

type RateConfig struct {
	HourlyRate int64 `json:"hourly_rate"`
	DailyCap   int64 `json:"daily_cap"`
}

type TariffsConfig struct {
	GraceSeconds                int         `json:"grace_seconds"`
	Car                         *RateConfig `json:"car"`
	Motorcycle                  *RateConfig `json:"motorcycle"`
	HighDisplacementMotorcycle  *RateConfig `json:"high_displacement_motorcycle"`
	HighDisplacementThresholdCC int         `json:"high_displacement_threshold_cc"`
}

// Load applies, in order: defaults, the optional file at path, PARKING_
// environment overrides and the standard OTEL_ variables.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		parser, err := parserFor(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	// Decoding over the defaults keeps every field the sources leave out.
	// Restrictions are replaced as a whole when a source lists any.
	cfg := Default()
	cfg.Restrictions = nil
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.applyOTelEnv()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
}

func (c *Config) applyOTelEnv() {
	if v, ok := os.LookupEnv("OTEL_SERVICE_NAME"); ok && v != "" {
		c.Telemetry.ServiceName = v
	}
	if v, ok := os.LookupEnv("OTEL_EXPORTER_OTLP_ENDPOINT"); ok && v != "" {
		c.Telemetry.Endpoint = v
	}
}

// Default returns the configuration used when no file or environment
// override is present.
//
// Numeric fields are only seeded here: Load decodes over this value, so an
// explicit 0 from a file or the environment is kept.
func Default() *Config {
	defaults := parking.DefaultTariffTable()
	cfg := &Config{
		Capacity: CapacityConfig{
			Car:        parking.CarSlotLimit,
			Motorcycle: parking.MotorcycleSlotLimit,
		},
		Tariffs: TariffsConfig{
			GraceSeconds:                int(parking.DefaultGracePeriod / time.Second),
			HighDisplacementThresholdCC: defaults.HighDisplacementThresholdCC,
		},
	}
	cfg.SetDefaults()
	return cfg
}

func (c *Config) SetDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = parking.DefaultServiceName
	}
	if c.Telemetry.Endpoint == "" {
		c.Telemetry.Endpoint = parking.DefaultOTLPEndpoint
	}
	if c.Lot.Timezone == "" {
		c.Lot.Timezone = "Local"
	}
	c.Tariffs.SetDefaults()
	if c.Restrictions == nil {
		c.Restrictions = map[string][]string{}
		for class, days := range parking.DefaultWeekdayPolicy() {
			for _, d := range days {
				c.Restrictions[class] = append(c.Restrictions[class], strings.ToLower(d.String()))
			}
		}
	}
}

func (t *TariffsConfig) SetDefaults() {
	defaults := parking.DefaultTariffTable()
	if t.Car == nil {
		t.Car = &RateConfig{HourlyRate: defaults.Car.HourlyRate, DailyCap: defaults.Car.DailyCap}
	}
	if t.Motorcycle == nil {
		t.Motorcycle = &RateConfig{HourlyRate: defaults.Motorcycle.HourlyRate, DailyCap: defaults.Motorcycle.DailyCap}
	}
	if t.HighDisplacementMotorcycle == nil {
		t.HighDisplacementMotorcycle = &RateConfig{
			HourlyRate: defaults.HighDisplacementMotorcycle.HourlyRate,
			DailyCap:   defaults.HighDisplacementMotorcycle.DailyCap,
		}
	}
}

func (c *Config) Validate() error {
	if c.Capacity.Car < 0 || c.Capacity.Motorcycle < 0 {
		return fmt.Errorf("capacity must be non-negative")
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}
	if c.Tariffs.GraceSeconds < 0 {
		return fmt.Errorf("grace_seconds must be non-negative")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.WeekdayPolicy(); err != nil {
		return err
	}
	return c.TariffTable().Validate()
}

func (c *Config) LoggingOptions() logging.Options {
	return logging.Options{
		Development: c.IsDevelopment(),
		Level:       c.Log.Level,
		Service:     c.Telemetry.ServiceName,
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Lot.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid lot timezone %q: %w", c.Lot.Timezone, err)
	}
	return loc, nil
}

func (c *Config) WeekdayPolicy() (parking.WeekdayPolicy, error) {
	policy := parking.WeekdayPolicy{}
	for class, days := range c.Restrictions {
		class = strings.ToUpper(strings.TrimSpace(class))
		if utf8.RuneCountInString(class) != 1 {
			return nil, fmt.Errorf("restriction plate class must be a single letter: %q", class)
		}
		for _, name := range days {
			day, err := parking.ParseWeekday(name)
			if err != nil {
				return nil, fmt.Errorf("restrictions.%s: %w", class, err)
			}
			policy[class] = append(policy[class], day)
		}
	}
	return policy, nil
}

func (c *Config) TariffTable() parking.TariffTable {
	t := c.Tariffs
	return parking.TariffTable{
		Car:                         parking.Rate{HourlyRate: t.Car.HourlyRate, DailyCap: t.Car.DailyCap},
		Motorcycle:                  parking.Rate{HourlyRate: t.Motorcycle.HourlyRate, DailyCap: t.Motorcycle.DailyCap},
		HighDisplacementMotorcycle:  parking.Rate{HourlyRate: t.HighDisplacementMotorcycle.HourlyRate, DailyCap: t.HighDisplacementMotorcycle.DailyCap},
		HighDisplacementThresholdCC: t.HighDisplacementThresholdCC,
	}
}

// Rules converts the configuration into engine rules. Validate must have
// succeeded first.
func (c *Config) Rules() (parking.Rules, error) {
	loc, err := c.Location()
	if err != nil {
		return parking.Rules{}, err
	}
	policy, err := c.WeekdayPolicy()
	if err != nil {
		return parking.Rules{}, err
	}

	return parking.Rules{
		Tariffs:     c.TariffTable(),
		GracePeriod: time.Duration(c.Tariffs.GraceSeconds) * time.Second,
		Limits: parking.SlotLimits{
			parking.Car:        c.Capacity.Car,
			parking.Motorcycle: c.Capacity.Motorcycle,
		},
		Restricted: policy.Restricted,
		Location:   loc,
	}, nil
}

func (c *Config) TelemetryProviderConfig() parking.TelemetryConfig {
	_, fromEnv := os.LookupEnv("OTEL_RESOURCE_ATTRIBUTES")
	return parking.TelemetryConfig{
		ServiceName: c.Telemetry.ServiceName,
		Endpoint:    c.Telemetry.Endpoint,
		Disabled:    c.Telemetry.Disabled,
		FromEnv:     fromEnv,
	}
}
