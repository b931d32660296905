package config

import (
	"os"
	"strconv"
	"time"

	"trade_engine/internal/models"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	databaseDSN       = "DATABASE_DSN"
)

// Config — сервисная конфигурация. Файл values_*.yaml + env-оверрайды.
type Config struct {
	Service struct {
		Name string `mapstructure:"name"`
	} `mapstructure:"service"`

	DB string `mapstructure:"db_dsn"`

	Telegram struct {
		Token  string `mapstructure:"token"`
		ChatID int64  `mapstructure:"chat_id"`
	} `mapstructure:"telegram"`

	Jaeger struct {
		Host string `mapstructure:"host"`
		Port int    `mapstructure:"port"`
	} `mapstructure:"jaeger"`

	Health struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"health"`

	Feed struct {
		URL       string        `mapstructure:"url"`
		Timeframe string        `mapstructure:"timeframe"`
		Ping      time.Duration `mapstructure:"ping"`
	} `mapstructure:"feed"`

	Engine struct {
		// поведенческие форки, выключены как в исходном движке
		CooldownGating   bool `mapstructure:"cooldown_gating"`
		RangingDetection bool `mapstructure:"ranging_detection"`
		// testing mode: все кеши промахиваются, для прогонов в тестах
		TestingMode bool `mapstructure:"testing_mode"`

		PriceTTL      time.Duration `mapstructure:"price_ttl"`
		PositionTTL   time.Duration `mapstructure:"position_ttl"`
		DecisionTTL   time.Duration `mapstructure:"decision_ttl"`
		DefaultVolume float64       `mapstructure:"default_volume"`
		RingCapacity  int           `mapstructure:"ring_capacity"`

		TimerInterval time.Duration `mapstructure:"timer_interval"`
	} `mapstructure:"engine"`

	Provider struct {
		EMAFast       int           `mapstructure:"ema_fast"`
		EMASlow       int           `mapstructure:"ema_slow"`
		ATRPeriod     int           `mapstructure:"atr_period"`
		RangingFactor float64       `mapstructure:"ranging_factor"`
		IndicatorTTL  time.Duration `mapstructure:"indicator_ttl"`
	} `mapstructure:"provider"`

	Paper struct {
		Balance          float64 `mapstructure:"balance"`
		MaxPerInstrument int     `mapstructure:"max_per_instrument"`
	} `mapstructure:"paper"`

	InstrumentsFile string `mapstructure:"instruments_file"`
}

func NewConfig() (*Config, error) {
	v := viper.New()

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	v.SetConfigFile("configs/" + configFileName)

	v.SetDefault("service.name", "trade_engine")
	v.SetDefault("engine.price_ttl", "500ms")
	v.SetDefault("engine.position_ttl", "2s")
	v.SetDefault("engine.decision_ttl", "5s")
	v.SetDefault("engine.default_volume", 1.0)
	v.SetDefault("engine.ring_capacity", 256)
	v.SetDefault("engine.timer_interval", "10s")
	v.SetDefault("provider.ema_fast", 9)
	v.SetDefault("provider.ema_slow", 21)
	v.SetDefault("provider.atr_period", 14)
	v.SetDefault("provider.ranging_factor", 0.25)
	v.SetDefault("provider.indicator_ttl", "60s")
	v.SetDefault("paper.balance", 10000.0)
	v.SetDefault("paper.max_per_instrument", 5)
	v.SetDefault("health.addr", ":8080")
	v.SetDefault("feed.ping", "20s")
	v.SetDefault("feed.timeframe", "1m")
	v.SetDefault("instruments_file", "configs/instruments.yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, "read config file")
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "decode config file")
	}

	if token := os.Getenv(tokenTelegramENV); token != "" {
		config.Telegram.Token = token
	}
	if chat := os.Getenv("TELEGRAM_CHAT_ID"); chat != "" {
		if id, err := strconv.ParseInt(chat, 10, 64); err == nil {
			config.Telegram.ChatID = id
		}
	}
	if dsn := os.Getenv(databaseDSN); dsn != "" {
		config.DB = dsn
	}

	return &config, nil
}

// InstrumentPreset — строка instruments.yaml. Cooldown строкой,
// yaml.v2 не знает time.Duration.
type InstrumentPreset struct {
	Instrument     string  `yaml:"instrument"`
	BuyThreshold   float64 `yaml:"buy_threshold"`
	SellThreshold  float64 `yaml:"sell_threshold"`
	AddThreshold   float64 `yaml:"add_threshold"`
	CloseThreshold float64 `yaml:"close_threshold"`
	CloseAllBelow  float64 `yaml:"close_all_below"`
	Cooldown       string  `yaml:"cooldown"`
	MaxPositions   int     `yaml:"max_positions"`
	RiskPct        float64 `yaml:"risk_pct"`
}

func (p InstrumentPreset) ToConfig() (models.InstrumentConfig, error) {
	cfg := models.InstrumentConfig{
		Instrument:     p.Instrument,
		BuyThreshold:   p.BuyThreshold,
		SellThreshold:  p.SellThreshold,
		AddThreshold:   p.AddThreshold,
		CloseThreshold: p.CloseThreshold,
		CloseAllBelow:  p.CloseAllBelow,
		MaxPositions:   p.MaxPositions,
		RiskPct:        p.RiskPct,
	}
	if p.Cooldown != "" {
		d, err := time.ParseDuration(p.Cooldown)
		if err != nil {
			return cfg, errors.Wrapf(err, "preset %s: bad cooldown", p.Instrument)
		}
		cfg.Cooldown = d
	}
	return cfg, cfg.Validate()
}

// LoadInstruments читает пресеты инструментов для регистрации на старте.
func LoadInstruments(path string) ([]models.InstrumentConfig, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open instruments file")
	}
	defer func() {
		_ = file.Close()
	}()

	var presets []InstrumentPreset
	if err := yaml.NewDecoder(file).Decode(&presets); err != nil {
		return nil, errors.Wrap(err, "decode instruments file")
	}

	out := make([]models.InstrumentConfig, 0, len(presets))
	for _, p := range presets {
		cfg, err := p.ToConfig()
		if err != nil {
			return nil, err
		}
		out = append(out, cfg)
	}
	return out, nil
}
