package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del scanner.
type Config struct {
	Scanner      ScannerConfig      `yaml:"scanner"`
	API          APIConfig          `yaml:"api"`
	Storage      StorageConfig      `yaml:"storage"`
	Log          LogConfig          `yaml:"log"`
	Accumulation AccumulationConfig `yaml:"accumulation"`
}

// AccumulationConfig controla el motor de acumulación binaria y sus
// componentes auxiliares: ejecutor, gestor de capital, daily loss y el
// tamaño de orden sugerido por Kelly.
type AccumulationConfig struct {
	MaxPairCost           float64 `yaml:"max_pair_cost"`
	MinImprovement        float64 `yaml:"min_improvement"`
	KillSwitchMinutes     float64 `yaml:"kill_switch_minutes"`
	OrderSizeUSD          float64 `yaml:"order_size_usd"`
	RSIOverbought         float64 `yaml:"rsi_overbought"`
	RSIOversold           float64 `yaml:"rsi_oversold"`
	OBIThreshold          float64 `yaml:"obi_threshold"`
	BalanceRatioThreshold float64 `yaml:"balance_ratio_threshold"`

	// Capital split por estrategia, validado para sumar 100.
	AccumulationSharePct float64 `yaml:"accumulation_share_pct"`
	AsymmetricSharePct   float64 `yaml:"asymmetric_share_pct"`

	MaxDailyLossUSD float64 `yaml:"max_daily_loss_usd"`
	MaxDailyLossPct float64 `yaml:"max_daily_loss_pct"`
	ResetHourUTC    int     `yaml:"reset_hour_utc"`

	MaxConsecutiveFailures int     `yaml:"max_consecutive_failures"`
	PauseDurationSeconds   int     `yaml:"pause_duration_seconds"`
	MaxSlippagePct         float64 `yaml:"max_slippage_pct"`

	StateDir string `yaml:"state_dir"`
}

// Validate checks cross-field invariants that YAML unmarshalling cannot
// express, like the capital manager's split-percentage requirement.
func (c AccumulationConfig) Validate() error {
	sum := c.AccumulationSharePct + c.AsymmetricSharePct
	if sum != 0 && (sum < 99.9 || sum > 100.1) {
		return fmt.Errorf("accumulation: strategy split percentages must sum to 100, got %.2f", sum)
	}
	return nil
}

// ScannerConfig controla el comportamiento del scanner de candidatos.
type ScannerConfig struct {
	IntervalSeconds      int     `yaml:"interval_seconds"`
	OrderSizeUSDC        float64 `yaml:"order_size_usdc"`
	FeeRateDefault       float64 `yaml:"fee_rate_default"`        // default conservador si la API no devuelve fee
	MaxSpreadTotal       float64 `yaml:"max_spread_total"`
	MaxCompetition       float64 `yaml:"max_competition"`         // descartar books con demasiada profundidad rival
	MinHoursToResolution float64 `yaml:"min_hours_to_resolution"` // filtrar mercados que se resuelven pronto

	// Filtro de seguridad
	OnlyFillsProfit bool `yaml:"only_fills_profit"` // true = descartar mercados donde un fill te cuesta dinero
}

// APIConfig contiene los base URLs de las APIs.
type APIConfig struct {
	CLOBBase  string `yaml:"clob_base"`
	GammaBase string `yaml:"gamma_base"`
	FeedURL   string `yaml:"feed_url"` // websocket market channel; vacío = producción
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.Accumulation.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return &cfg, nil
}

// ScanInterval devuelve el intervalo de escaneo como time.Duration.
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.Scanner.IntervalSeconds) * time.Second
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Scanner.IntervalSeconds <= 0 {
		cfg.Scanner.IntervalSeconds = 30
	}
	if cfg.Scanner.OrderSizeUSDC <= 0 {
		cfg.Scanner.OrderSizeUSDC = 100
	}
	if cfg.Scanner.FeeRateDefault <= 0 {
		cfg.Scanner.FeeRateDefault = 0.02 // 2% default conservador
	}
	if cfg.Scanner.MaxSpreadTotal <= 0 {
		cfg.Scanner.MaxSpreadTotal = 0.10
	}
	if cfg.API.CLOBBase == "" {
		cfg.API.CLOBBase = "https://clob.polymarket.com"
	}
	if cfg.API.GammaBase == "" {
		cfg.API.GammaBase = "https://gamma-api.polymarket.com"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "pairlock.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	a := &cfg.Accumulation
	if a.MaxPairCost <= 0 {
		a.MaxPairCost = 0.98
	}
	if a.MinImprovement <= 0 {
		a.MinImprovement = 0.01
	}
	if a.KillSwitchMinutes <= 0 {
		a.KillSwitchMinutes = 20
	}
	if a.OrderSizeUSD <= 0 {
		a.OrderSizeUSD = 20
	}
	if a.RSIOverbought <= 0 {
		a.RSIOverbought = 70
	}
	if a.RSIOversold <= 0 {
		a.RSIOversold = 30
	}
	if a.OBIThreshold <= 0 {
		a.OBIThreshold = 0.3
	}
	if a.BalanceRatioThreshold <= 0 {
		a.BalanceRatioThreshold = 1.5
	}
	if a.AccumulationSharePct <= 0 && a.AsymmetricSharePct <= 0 {
		a.AccumulationSharePct = 70
		a.AsymmetricSharePct = 30
	}
	if a.MaxDailyLossPct <= 0 {
		a.MaxDailyLossPct = 0.05
	}
	if a.MaxConsecutiveFailures <= 0 {
		a.MaxConsecutiveFailures = 5
	}
	if a.PauseDurationSeconds <= 0 {
		a.PauseDurationSeconds = 60
	}
	if a.MaxSlippagePct <= 0 {
		a.MaxSlippagePct = 0.02
	}
	if a.StateDir == "" {
		a.StateDir = "state"
	}
}
