package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"signal_bot/internal/market"
	"signal_bot/internal/models"
)

const (
	configFilePathENV = "CONFIG_FILE"
	configDirENV      = "CONFIG_DIR"
	defaultConfigFile = "values_local.yaml"
	defaultConfigDir  = "configs"
)

// Config ...
type Config struct {
	Service struct {
		Name       string `yaml:"name"`
		HealthAddr string `yaml:"health_addr"`
	} `yaml:"service"`

	Log LogConfig `yaml:"log"`

	Market struct {
		Timezone      string `yaml:"timezone"`
		Open          string `yaml:"open"`  // "09:15" or "09:15:00"
		Close         string `yaml:"close"` // "15:30"
		SampleFromSec int    `yaml:"sample_from_sec"`
		SampleToSec   int    `yaml:"sample_to_sec"`
	} `yaml:"market"`

	Scheduler SchedulerConfig `yaml:"scheduler"`

	Instruments []models.Instrument `yaml:"instruments"`

	Angel struct {
		BaseURL    string        `yaml:"base_url"`
		APIKey     string        `yaml:"api_key"`
		ClientCode string        `yaml:"client_code"`
		Password   string        `yaml:"password"`
		TOTPSecret string        `yaml:"totp_secret"`
		Timeout    time.Duration `yaml:"timeout"`
	} `yaml:"angel"`

	Telegram struct {
		Token   string        `yaml:"token"`
		ChatID  int64         `yaml:"chat_id"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"telegram"`

	Tracing struct {
		Enabled bool   `yaml:"enabled"`
		Host    string `yaml:"host"`
		Port    int    `yaml:"port"`
	} `yaml:"tracing"`

	Feed struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"feed"`

	DB string `yaml:"db_dsn"`
}

// LogConfig: level debug|info|warn|error, format json|console.
type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	OutputFile string `yaml:"output_file"`
}

type SchedulerConfig struct {
	Strategy         string        `yaml:"strategy"`
	Timeframe        string        `yaml:"timeframe"`
	CandleCount      int           `yaml:"candle_count"`
	Lookback         time.Duration `yaml:"lookback"`
	FetchTimeout     time.Duration `yaml:"fetch_timeout"`
	ClosedInterval   time.Duration `yaml:"closed_interval"`
	IdleInterval     time.Duration `yaml:"idle_interval"`
	CooldownInterval time.Duration `yaml:"cooldown_interval"`
	LedgerCapacity   int           `yaml:"ledger_capacity"`
}

func Default() Config {
	var c Config
	c.Service.Name = "signal_bot"
	c.Service.HealthAddr = ":8080"

	c.Log = LogConfig{Level: "info", Format: "console", OutputFile: "logs/signals.log"}

	c.Market.Timezone = "Asia/Kolkata"
	c.Market.Open = "09:15"
	c.Market.Close = "15:30"
	c.Market.SampleFromSec = 1
	c.Market.SampleToSec = 2

	c.Scheduler = SchedulerConfig{
		Strategy:         "gap",
		Timeframe:        "5m",
		CandleCount:      5,
		Lookback:         3 * time.Hour,
		FetchTimeout:     10 * time.Second,
		ClosedInterval:   time.Minute,
		IdleInterval:     time.Second,
		CooldownInterval: 3 * time.Second,
		LedgerCapacity:   1000,
	}

	c.Instruments = models.DefaultInstruments()

	c.Angel.BaseURL = "https://apiconnect.angelbroking.com"
	c.Angel.Timeout = 10 * time.Second

	c.Telegram.Timeout = 10 * time.Second

	c.Tracing.Host = "localhost"
	c.Tracing.Port = 6831

	c.Feed.Path = "/ws/signals"
	return c
}

func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	name := v.GetString(configFilePathENV)
	if name == "" {
		name = defaultConfigFile
	}
	dir := v.GetString(configDirENV)
	if dir == "" {
		dir = defaultConfigDir
	}

	cfg := Default()
	if err := loadFile(dir+"/"+name, &cfg); err != nil {
		return nil, err
	}
	applyEnv(v, &cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadFile overlays the yaml file on top of defaults. A missing file keeps defaults.
func loadFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open config file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}
	return nil
}

// applyEnv: secrets are env only in production, the rest can be overridden
// with the upper-cased dotted key, e.g. SCHEDULER_TIMEFRAME.
func applyEnv(v *viper.Viper, cfg *Config) {
	setString(v, "ANGEL_API_KEY", &cfg.Angel.APIKey)
	setString(v, "ANGEL_CLIENT_CODE", &cfg.Angel.ClientCode)
	setString(v, "ANGEL_PASSWORD", &cfg.Angel.Password)
	setString(v, "ANGEL_TOTP_SECRET", &cfg.Angel.TOTPSecret)
	setString(v, "ANGEL_BASE_URL", &cfg.Angel.BaseURL)
	setString(v, "TELEGRAM_TOKEN", &cfg.Telegram.Token)
	if v.IsSet("TELEGRAM_CHAT_ID") {
		cfg.Telegram.ChatID = v.GetInt64("TELEGRAM_CHAT_ID")
	}
	setString(v, "DATABASE_DSN", &cfg.DB)

	setString(v, "log.level", &cfg.Log.Level)
	setString(v, "log.format", &cfg.Log.Format)
	setString(v, "log.output_file", &cfg.Log.OutputFile)
	setString(v, "service.health_addr", &cfg.Service.HealthAddr)
	setString(v, "scheduler.timeframe", &cfg.Scheduler.Timeframe)
	if v.IsSet("scheduler.fetch_timeout") {
		cfg.Scheduler.FetchTimeout = v.GetDuration("scheduler.fetch_timeout")
	}
	if v.IsSet("scheduler.ledger_capacity") {
		cfg.Scheduler.LedgerCapacity = v.GetInt("scheduler.ledger_capacity")
	}
	if v.IsSet("tracing.enabled") {
		cfg.Tracing.Enabled = v.GetBool("tracing.enabled")
	}
	if v.IsSet("feed.enabled") {
		cfg.Feed.Enabled = v.GetBool("feed.enabled")
	}
}

func setString(v *viper.Viper, key string, dst *string) {
	if s := v.GetString(key); s != "" {
		*dst = s
	}
}

func (c *Config) Validate() error {
	if _, err := models.ParseTimeframe(c.Scheduler.Timeframe); err != nil {
		return fmt.Errorf("scheduler.timeframe: %w", err)
	}
	if _, err := time.LoadLocation(c.Market.Timezone); err != nil {
		return fmt.Errorf("market.timezone: %w", err)
	}
	open, err := market.ParseTimeOfDay(c.Market.Open)
	if err != nil {
		return fmt.Errorf("market.open: %w", err)
	}
	closeAt, err := market.ParseTimeOfDay(c.Market.Close)
	if err != nil {
		return fmt.Errorf("market.close: %w", err)
	}
	if !open.Before(closeAt) {
		return fmt.Errorf("market.open %s must be before market.close %s", c.Market.Open, c.Market.Close)
	}
	if c.Market.SampleFromSec < 0 || c.Market.SampleToSec > 59 || c.Market.SampleFromSec > c.Market.SampleToSec {
		return fmt.Errorf("invalid sample window %d..%d", c.Market.SampleFromSec, c.Market.SampleToSec)
	}
	if c.Scheduler.LedgerCapacity <= 0 {
		return fmt.Errorf("scheduler.ledger_capacity must be > 0")
	}
	if c.Scheduler.CandleCount < 3 {
		return fmt.Errorf("scheduler.candle_count must be >= 3")
	}
	if len(c.Instruments) == 0 {
		return fmt.Errorf("no instruments configured")
	}
	seen := make(map[string]bool, len(c.Instruments))
	for _, in := range c.Instruments {
		if in.ID == "" || in.Token == "" || in.Exchange == "" {
			return fmt.Errorf("instrument %+v: id, exchange and token are required", in)
		}
		if seen[in.ID] {
			return fmt.Errorf("duplicate instrument %s", in.ID)
		}
		seen[in.ID] = true
	}
	return nil
}
