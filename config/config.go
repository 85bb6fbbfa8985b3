// Package config 提供了统一的配置加载与管理能力。
// 配置文件为 TOML，环境变量以 APP_ 为前缀覆盖同名键 (例如 APP_ENGINE_WORKERS)。
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/wyfcoding/quant/logging"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config 全局顶级配置结构.
type Config struct {
	Version string        `mapstructure:"version" toml:"version"`
	Log     LogConfig     `mapstructure:"log"     toml:"log"`
	Metrics MetricsConfig `mapstructure:"metrics" toml:"metrics"`
	Engine  EngineConfig  `mapstructure:"engine"  toml:"engine"`
}

// LogConfig 定义日志输出、级别与切割策略.
type LogConfig struct {
	Level      string `mapstructure:"level"       toml:"level"       validate:"omitempty,oneof=debug info warn error"`
	Format     string `mapstructure:"format"      toml:"format"      validate:"omitempty,oneof=json text"`
	File       string `mapstructure:"file"        toml:"file"`
	MaxSize    int    `mapstructure:"max_size"    toml:"max_size"    validate:"min=0"`
	MaxBackups int    `mapstructure:"max_backups" toml:"max_backups" validate:"min=0"`
	MaxAge     int    `mapstructure:"max_age"     toml:"max_age"     validate:"min=0"`
	Compress   bool   `mapstructure:"compress"    toml:"compress"`
	Console    bool   `mapstructure:"console"     toml:"console"`
}

// MetricsConfig 普罗米修斯监控指标暴露配置.
type MetricsConfig struct {
	Port    string `mapstructure:"port"    toml:"port"`
	Enabled bool   `mapstructure:"enabled" toml:"enabled"`
}

// EngineConfig 定价引擎的计算参数.
type EngineConfig struct {
	// Workers 为工作池大小，0 表示使用 GOMAXPROCS。
	Workers int `mapstructure:"workers"        toml:"workers"        validate:"min=0"`
	// ChunkSize 为批量定价时每个任务处理的元素个数。
	ChunkSize     int    `mapstructure:"chunk_size"     toml:"chunk_size"     validate:"min=1"`
	Seed          uint64 `mapstructure:"seed"           toml:"seed"`
	BinomialSteps int    `mapstructure:"binomial_steps" toml:"binomial_steps" validate:"min=1"`

	MonteCarlo MonteCarloConfig `mapstructure:"monte_carlo" toml:"monte_carlo"`
	LSM        LSMConfig        `mapstructure:"lsm"         toml:"lsm"`
	Curve      CurveConfig      `mapstructure:"curve"       toml:"curve"`
}

// MonteCarloConfig 蒙特卡洛默认参数.
type MonteCarloConfig struct {
	Paths       int `mapstructure:"paths"        toml:"paths"        validate:"min=1"`
	Steps       int `mapstructure:"steps"        toml:"steps"        validate:"min=1"`
	HestonSteps int `mapstructure:"heston_steps" toml:"heston_steps" validate:"min=1"`
	// ChunkSize 为每个随机流负责的路径数，决定结果的可复现划分。
	ChunkSize int `mapstructure:"chunk_size" toml:"chunk_size" validate:"min=1"`
}

// LSMConfig Longstaff-Schwartz 默认参数.
type LSMConfig struct {
	Paths  int `mapstructure:"paths"  toml:"paths"  validate:"min=1"`
	Steps  int `mapstructure:"steps"  toml:"steps"  validate:"min=1"`
	Degree int `mapstructure:"degree" toml:"degree" validate:"min=1,max=6"`
}

// CurveConfig 收益率曲线默认参数.
type CurveConfig struct {
	Interpolation string `mapstructure:"interpolation" toml:"interpolation" validate:"oneof=linear log_linear cubic_spline monotone_cubic"`
}

// Default 返回带有默认值的配置.
func Default() *Config {
	return &Config{
		Version: "dev",
		Log: LogConfig{
			Level:      "info",
			Format:     "json",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
		},
		Metrics: MetricsConfig{Port: "9090"},
		Engine: EngineConfig{
			ChunkSize:     1024,
			Seed:          42,
			BinomialSteps: 100,
			MonteCarlo: MonteCarloConfig{
				Paths:       100_000,
				Steps:       1,
				HestonSteps: 100,
				ChunkSize:   4096,
			},
			LSM:   LSMConfig{Paths: 50_000, Steps: 50, Degree: 2},
			Curve: CurveConfig{Interpolation: "log_linear"},
		},
	}
}

// LoggingConfig 转换为 logging 包的配置.
func (c *Config) LoggingConfig(service, module string) logging.Config {
	return logging.Config{
		Service:    service,
		Module:     module,
		Level:      c.Log.Level,
		Format:     c.Log.Format,
		File:       c.Log.File,
		MaxSize:    c.Log.MaxSize,
		MaxBackups: c.Log.MaxBackups,
		MaxAge:     c.Log.MaxAge,
		Compress:   c.Log.Compress,
		Console:    c.Log.Console,
	}
}

var vInstance = viper.New()

// setDefaults 将 Default() 的取值注册为 viper 默认值，使配置文件只需覆盖部分键。
func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("version", d.Version)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.max_size", d.Log.MaxSize)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age", d.Log.MaxAge)
	v.SetDefault("metrics.port", d.Metrics.Port)
	v.SetDefault("engine.workers", d.Engine.Workers)
	v.SetDefault("engine.chunk_size", d.Engine.ChunkSize)
	v.SetDefault("engine.seed", d.Engine.Seed)
	v.SetDefault("engine.binomial_steps", d.Engine.BinomialSteps)
	v.SetDefault("engine.monte_carlo.paths", d.Engine.MonteCarlo.Paths)
	v.SetDefault("engine.monte_carlo.steps", d.Engine.MonteCarlo.Steps)
	v.SetDefault("engine.monte_carlo.heston_steps", d.Engine.MonteCarlo.HestonSteps)
	v.SetDefault("engine.monte_carlo.chunk_size", d.Engine.MonteCarlo.ChunkSize)
	v.SetDefault("engine.lsm.paths", d.Engine.LSM.Paths)
	v.SetDefault("engine.lsm.steps", d.Engine.LSM.Steps)
	v.SetDefault("engine.lsm.degree", d.Engine.LSM.Degree)
	v.SetDefault("engine.curve.interpolation", d.Engine.Curve.Interpolation)
}

// Load 加载配置文件并校验，随后监听文件变化进行热更新.
func Load(path string, conf *Config) error {
	setDefaults(vInstance)
	vInstance.SetConfigFile(path)
	vInstance.SetConfigType("toml")

	vInstance.SetEnvPrefix("APP")
	vInstance.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vInstance.AutomaticEnv()

	if err := vInstance.ReadInConfig(); err != nil {
		return fmt.Errorf("read config error: %w", err)
	}

	if err := vInstance.Unmarshal(conf); err != nil {
		return fmt.Errorf("unmarshal config error: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(conf); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	vInstance.WatchConfig()
	vInstance.OnConfigChange(func(event fsnotify.Event) {
		slog.Info("detecting config change", "file", event.Name)
		const debounceTimeout = 500 * time.Millisecond
		time.Sleep(debounceTimeout)

		next := *conf
		if err := vInstance.Unmarshal(&next); err != nil {
			slog.Error("reload config unmarshal failed", "error", err)
			return
		}
		if err := validate.Struct(&next); err != nil {
			slog.Error("reload config validation failed, keeping previous values", "error", err)
			return
		}

		*conf = next
		logging.SetLevel(conf.Log.Level)
		slog.Info("config hot-reloaded and validated successfully")
	})

	return nil
}
