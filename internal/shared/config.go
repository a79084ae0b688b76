package shared

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	AppEnv      string `mapstructure:"app_env"`
	HTTPAddr    string `mapstructure:"http_addr"`
	MetricsAddr string `mapstructure:"metrics_addr"`

	StoreBackend string `mapstructure:"store_backend"`
	MySQLDSN     string `mapstructure:"mysql_dsn"`
	SQLitePath   string `mapstructure:"sqlite_path"`
	RedisAddr    string `mapstructure:"redis_addr"`
	RedisPass    string `mapstructure:"redis_password"`
	RedisDB      int    `mapstructure:"redis_db"`

	NominatimBase string `mapstructure:"nominatim_base_url"`
	GeocodingBase string `mapstructure:"geocoding_base_url"`
	ForecastBase  string `mapstructure:"forecast_base_url"`
	MapsBase      string `mapstructure:"maps_base_url"`
	UserAgent     string `mapstructure:"user_agent"`
	Language      string `mapstructure:"language"`
	Timezone      string `mapstructure:"timezone"`

	UpstreamRPS     float64 `mapstructure:"upstream_rps"`
	UpstreamTimeout int     `mapstructure:"upstream_timeout_seconds"`
	CacheTTLSeconds int     `mapstructure:"cache_ttl_seconds"`
	CoordTTLHours   int     `mapstructure:"coord_ttl_hours"`

	WeatherMaxStops int `mapstructure:"weather_max_stops"`
	WeatherWorkers  int `mapstructure:"weather_workers"`
	WarmWorkers     int `mapstructure:"warm_workers"`
}

var defaults = map[string]any{
	"app_env":      "prod",
	"http_addr":    ":8080",
	"metrics_addr": "",

	"store_backend":  "redis",
	"mysql_dsn":      "root:root@tcp(localhost:3306)/routegen?parseTime=true&charset=utf8mb4,utf8&loc=UTC",
	"sqlite_path":    "routegen.db",
	"redis_addr":     "localhost:6379",
	"redis_password": "",
	"redis_db":       0,

	"nominatim_base_url": "https://nominatim.openstreetmap.org",
	"geocoding_base_url": "https://geocoding-api.open-meteo.com/v1",
	"forecast_base_url":  "https://api.open-meteo.com/v1",
	"maps_base_url":      "https://www.google.com/maps",
	"user_agent":         "routegen/1.0",
	"language":           "de",
	"timezone":           "Europe/Zurich",

	"upstream_rps":             1.0,
	"upstream_timeout_seconds": 10,
	"cache_ttl_seconds":        900,
	"coord_ttl_hours":          0,

	"weather_max_stops": 12,
	"weather_workers":   1,
	"warm_workers":      4,
}

// Load reads defaults, an optional routegen.yaml and the environment, in
// increasing precedence. Keys map to upper-case env names (HTTP_ADDR etc).
func Load() Config {
	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}

	v.SetConfigName("routegen")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	if err := v.ReadInConfig(); err == nil {
		log.Info().Str("file", v.ConfigFileUsed()).Msg("config file loaded")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		log.Warn().Err(err).Msg("config unmarshal failed, using defaults")
		c = fromDefaults()
	}
	c.StoreBackend = strings.ToLower(strings.TrimSpace(c.StoreBackend))
	return c
}

func fromDefaults() Config {
	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	var c Config
	_ = v.Unmarshal(&c)
	return c
}

// Validate reports settings the services cannot start with.
func (c Config) Validate() error {
	var errs []string
	switch c.StoreBackend {
	case "memory", "redis", "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("STORE_BACKEND must be memory, redis, sqlite or mysql, got %q", c.StoreBackend))
	}
	if c.StoreBackend == "mysql" && c.MySQLDSN == "" {
		errs = append(errs, "MYSQL_DSN is required for the mysql backend")
	}
	if c.StoreBackend == "sqlite" && c.SQLitePath == "" {
		errs = append(errs, "SQLITE_PATH is required for the sqlite backend")
	}
	for name, u := range map[string]string{
		"NOMINATIM_BASE_URL": c.NominatimBase,
		"GEOCODING_BASE_URL": c.GeocodingBase,
		"FORECAST_BASE_URL":  c.ForecastBase,
	} {
		if u == "" {
			errs = append(errs, name+" is required")
		}
	}
	if c.UpstreamRPS <= 0 {
		errs = append(errs, "UPSTREAM_RPS must be positive")
	}
	if c.CoordTTLHours < 0 {
		errs = append(errs, "COORD_TTL_HOURS must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config validation: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c Config) UpstreamTimeoutDuration() time.Duration {
	return time.Duration(c.UpstreamTimeout) * time.Second
}

func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// CoordTTL is zero when coordinates never expire.
func (c Config) CoordTTL() time.Duration {
	return time.Duration(c.CoordTTLHours) * time.Hour
}
