package config

import (
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"rate_monitor/internal/models"
)

const (
	configFilePathENV = "CONFIG_FILE"
	configDirENV      = "CONFIG_DIR"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	databaseDSN       = "DATABASE_DSN"

	envPrefix = "RATE_MONITOR"
)

// Config ...
type Config struct {
	API struct {
		BaseURL   string `yaml:"base_url"`
		StreamURL string `yaml:"stream_url"`
		Realm     string `yaml:"realm"`
		ClientID  string `yaml:"client_id"`
		Username  string `yaml:"username"`
		Password  string `yaml:"password"`
		Provider  string `yaml:"provider"`

		HTTPTimeout      time.Duration `yaml:"http_timeout"`
		HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	} `yaml:"api"`

	Service struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"service"`

	DB string `yaml:"db_dsn"`

	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`

	Tracing struct {
		Host        string `yaml:"host"`
		Port        int    `yaml:"port"`
		ServiceName string `yaml:"service_name"`
	} `yaml:"tracing"`

	LogLevel string `yaml:"log_level"`

	// Дефолты виджета
	Widget struct {
		MarketKind  string `yaml:"market_kind"` // Forex | Stock
		Periodicity string `yaml:"periodicity"`
		RangeDays   int    `yaml:"range_days"` // насколько назад можно выбрать дату графика
		Profile     string `yaml:"profile"`    // ключ сохранённых настроек
	} `yaml:"widget"`
}

func defaultConfig() Config {
	var c Config
	c.API.BaseURL = "https://platform.fintacharts.com"
	c.API.StreamURL = "wss://platform.fintacharts.com/api/streaming/ws/v1/realtime"
	c.API.Realm = "fintatech"
	c.API.ClientID = "app-cli"
	c.API.Provider = "simulation"
	c.API.HTTPTimeout = 10 * time.Second
	c.API.HandshakeTimeout = 10 * time.Second

	c.Service.Host = "0.0.0.0"
	c.Service.Port = 8080

	c.Tracing.Port = 6831
	c.Tracing.ServiceName = "rate_monitor"

	c.LogLevel = "info"

	c.Widget.MarketKind = string(models.MarketForex)
	c.Widget.Periodicity = "hour"
	c.Widget.RangeDays = 7
	c.Widget.Profile = "default"
	return c
}

// NewConfig читает configs/<CONFIG_FILE> (по умолчанию values_local.yaml) поверх дефолтов,
// затем применяет переменные окружения RATE_MONITOR_<SECTION>_<KEY> и .env.
func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	config := defaultConfig()

	configFileName := os.Getenv(configFilePathENV)
	explicit := configFileName != ""
	if !explicit {
		configFileName = "values_local.yaml"
	}
	dir := getenvDefault(configDirENV, "configs")

	if err := decodeFile(dir+"/"+configFileName, &config); err != nil {
		// без явно заданного файла работаем на дефолтах и env
		if explicit || !os.IsNotExist(errors.Cause(err)) {
			return nil, err
		}
	}

	applyEnv(newEnvViper(), &config)

	token := os.Getenv(tokenTelegramENV)
	if token != "" {
		config.Telegram.Token = token
	}

	dsn := os.Getenv(databaseDSN)
	if dsn != "" {
		config.DB = dsn
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}
	return &config, nil
}

func decodeFile(path string, config *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open config file %s", path)
	}
	defer func() {
		_ = file.Close()
	}()

	if err := yaml.NewDecoder(file).Decode(config); err != nil {
		return errors.Wrapf(err, "decode config file %s", path)
	}
	return nil
}

func newEnvViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// applyEnv перекрывает значения из файла переменными окружения.
func applyEnv(v *viper.Viper, c *Config) {
	str := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	integer := func(key string, dst *int) {
		if v.IsSet(key) {
			*dst = v.GetInt(key)
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v.IsSet(key) {
			if d := v.GetDuration(key); d > 0 {
				*dst = d
			}
		}
	}

	str("api.base_url", &c.API.BaseURL)
	str("api.stream_url", &c.API.StreamURL)
	str("api.realm", &c.API.Realm)
	str("api.client_id", &c.API.ClientID)
	str("api.username", &c.API.Username)
	str("api.password", &c.API.Password)
	str("api.provider", &c.API.Provider)
	duration("api.http_timeout", &c.API.HTTPTimeout)
	duration("api.handshake_timeout", &c.API.HandshakeTimeout)

	str("service.host", &c.Service.Host)
	integer("service.port", &c.Service.Port)

	str("db_dsn", &c.DB)

	str("telegram.token", &c.Telegram.Token)
	if v.IsSet("telegram.chat_id") {
		c.Telegram.ChatID = v.GetInt64("telegram.chat_id")
	}

	str("tracing.host", &c.Tracing.Host)
	integer("tracing.port", &c.Tracing.Port)
	str("tracing.service_name", &c.Tracing.ServiceName)

	str("log_level", &c.LogLevel)

	str("widget.market_kind", &c.Widget.MarketKind)
	str("widget.periodicity", &c.Widget.Periodicity)
	integer("widget.range_days", &c.Widget.RangeDays)
	str("widget.profile", &c.Widget.Profile)
}

func (c *Config) Validate() error {
	base, err := url.Parse(c.API.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return errors.Errorf("invalid api.base_url %q", c.API.BaseURL)
	}
	stream, err := url.Parse(c.API.StreamURL)
	if err != nil || (stream.Scheme != "ws" && stream.Scheme != "wss") {
		return errors.Errorf("invalid api.stream_url %q: ws or wss scheme expected", c.API.StreamURL)
	}
	if c.API.Realm == "" || c.API.ClientID == "" {
		return errors.New("api.realm and api.client_id are required")
	}
	if c.API.Provider == "" {
		return errors.New("api.provider cannot be empty")
	}
	if c.Service.Port <= 0 || c.Service.Port > 65535 {
		return errors.Errorf("invalid service.port %d", c.Service.Port)
	}
	if _, ok := models.ParseMarketKind(c.Widget.MarketKind); !ok {
		return errors.Errorf("invalid widget.market_kind %q", c.Widget.MarketKind)
	}
	if c.Widget.Periodicity == "" {
		return errors.New("widget.periodicity cannot be empty")
	}
	if c.Widget.RangeDays <= 0 {
		return errors.Errorf("widget.range_days must be positive, got %d", c.Widget.RangeDays)
	}
	return nil
}

// LoginURL: token endpoint identity-сервера.
func (c *Config) LoginURL() string {
	return strings.TrimRight(c.API.BaseURL, "/") + "/identity/realms/" + c.API.Realm + "/protocol/openid-connect/token"
}

func (c *Config) InstrumentsURL() string {
	return strings.TrimRight(c.API.BaseURL, "/") + "/api/instruments/v1/instruments"
}

func (c *Config) DateRangeURL() string {
	return strings.TrimRight(c.API.BaseURL, "/") + "/api/bars/v1/bars/date-range"
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
