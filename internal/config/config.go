// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Feed describes the market data source the engine subscribes to.
type Feed struct {
	Provider       string   `yaml:"provider"`
	Symbols        []string `yaml:"symbols"`
	PollIntervalMs int      `yaml:"poll_interval_ms"`
}

// Engine tunes the per-symbol pipeline lifecycle and ingress guards.
type Engine struct {
	QueueSize           int  `yaml:"queue_size"`
	LatenessToleranceMs int  `yaml:"lateness_tolerance_ms"`
	DedupRetention      int  `yaml:"dedup_retention"`
	IdleEvictSecs       int  `yaml:"idle_evict_secs"`
	AutoProvision       bool `yaml:"auto_provision"`
	SinkQueueSize       int  `yaml:"sink_queue_size"`
}

// Indicators fixes every lookback window and smoothing constant.
type Indicators struct {
	SMAShort        int     `yaml:"sma_short"`
	SMALong         int     `yaml:"sma_long"`
	EMAPeriod       int     `yaml:"ema_period"`
	RSIPeriod       int     `yaml:"rsi_period"`
	MACDFast        int     `yaml:"macd_fast"`
	MACDSlow        int     `yaml:"macd_slow"`
	MACDSignal      int     `yaml:"macd_signal"`
	BBPeriod        int     `yaml:"bb_period"`
	BBStdDev        float64 `yaml:"bb_std_dev"`
	ATRPeriod       int     `yaml:"atr_period"`
	VWAPSessionSecs int     `yaml:"vwap_session_secs"`
}

// Scoring carries the composite weight map and trigger thresholds.
type Scoring struct {
	Weights       map[string]float64 `yaml:"weights"`
	BuyThreshold  float64            `yaml:"buy_threshold"`
	SellThreshold float64            `yaml:"sell_threshold"`
}

// Risk encodes the guard-rails applied to every emitted signal.
type Risk struct {
	MaxPositionFraction float64 `yaml:"max_position_fraction"`
	StopLossMult        float64 `yaml:"stop_loss_mult"`
	TakeProfitMult      float64 `yaml:"take_profit_mult"`
	CooldownSecs        int     `yaml:"cooldown_secs"`
	SignalsPath         string  `yaml:"signals_path"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App        App        `yaml:"app"`
	Feed       Feed       `yaml:"feed"`
	Engine     Engine     `yaml:"engine"`
	Indicators Indicators `yaml:"indicators"`
	Scoring    Scoring    `yaml:"scoring"`
	Risk       Risk       `yaml:"risk"`
}

// Load reads a YAML file from disk, hydrates a Config struct, and validates it.
// An invalid file never yields a partially usable configuration.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate checks the whole configuration and rejects it atomically on the
// first problem found, so a bad file never partially applies.
func (c *Config) Validate() error {
	if err := c.Indicators.validate(); err != nil {
		return err
	}
	if err := c.Scoring.Validate(); err != nil {
		return err
	}
	if err := c.Risk.Validate(); err != nil {
		return err
	}
	if c.Engine.QueueSize < 0 || c.Engine.LatenessToleranceMs < 0 || c.Engine.IdleEvictSecs < 0 {
		return fmt.Errorf("engine: negative sizes or durations")
	}
	return nil
}

func (i Indicators) validate() error {
	lookbacks := map[string]int{
		"sma_short": i.SMAShort, "sma_long": i.SMALong, "ema_period": i.EMAPeriod,
		"rsi_period": i.RSIPeriod, "macd_fast": i.MACDFast, "macd_slow": i.MACDSlow,
		"macd_signal": i.MACDSignal, "bb_period": i.BBPeriod, "atr_period": i.ATRPeriod,
	}
	for name, v := range lookbacks {
		if v <= 0 {
			return fmt.Errorf("indicators: %s must be positive, got %d", name, v)
		}
	}
	if i.MACDFast >= i.MACDSlow {
		return fmt.Errorf("indicators: macd_fast %d must be below macd_slow %d", i.MACDFast, i.MACDSlow)
	}
	if i.BBStdDev <= 0 {
		return fmt.Errorf("indicators: bb_std_dev must be positive, got %v", i.BBStdDev)
	}
	return nil
}

// Validate checks the scoring leaf alone; runtime weight-map swaps reuse it.
func (s Scoring) Validate() error {
	if len(s.Weights) == 0 {
		return fmt.Errorf("scoring: empty weight map")
	}
	known := map[string]bool{"rsi": true, "macd": true, "ma_trend": true, "bb": true, "vwap": true}
	var total float64
	for name, w := range s.Weights {
		if !known[name] {
			return fmt.Errorf("scoring: unknown weight component %q", name)
		}
		if w < 0 {
			return fmt.Errorf("scoring: negative weight for %q", name)
		}
		total += w
	}
	if total == 0 {
		return fmt.Errorf("scoring: all weights are zero")
	}
	if s.BuyThreshold <= s.SellThreshold {
		return fmt.Errorf("scoring: buy_threshold %v must be above sell_threshold %v",
			s.BuyThreshold, s.SellThreshold)
	}
	if s.BuyThreshold > 1 || s.SellThreshold < -1 {
		return fmt.Errorf("scoring: thresholds must stay within [-1,1]")
	}
	return nil
}

// Validate checks the risk leaf alone; runtime profile swaps reuse it.
func (r Risk) Validate() error {
	if r.MaxPositionFraction <= 0 || r.MaxPositionFraction > 1 {
		return fmt.Errorf("risk: max_position_fraction must be in (0,1], got %v", r.MaxPositionFraction)
	}
	if r.StopLossMult <= 0 || r.TakeProfitMult <= 0 {
		return fmt.Errorf("risk: stop and target multiples must be positive")
	}
	if r.CooldownSecs < 0 {
		return fmt.Errorf("risk: cooldown_secs must not be negative")
	}
	return nil
}
