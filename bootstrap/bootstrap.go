// Package bootstrap 负责命令行进程的通用初始化：环境变量、配置、日志与指标。
package bootstrap

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/wyfcoding/quant/config"
	"github.com/wyfcoding/quant/curve"
	"github.com/wyfcoding/quant/logging"
	"github.com/wyfcoding/quant/metrics"
	"github.com/wyfcoding/quant/pricing"
	"github.com/wyfcoding/quant/worker"
)

// Options 启动参数，通常来自命令行标志。
type Options struct {
	ConfigPath  string // 为空时使用默认配置
	EnvFile     string // 为空时尝试 .env，文件不存在不视为错误
	MetricsAddr string // 非空时在该端口暴露 Prometheus 指标
	LogLevel    string // 非空时覆盖配置中的日志级别
}

// Bootstrapper 持有初始化后的基础设施。
type Bootstrapper struct {
	ServiceName string
	Version     string
	Config      *config.Config
	Logger      *logging.Logger
	Metrics     *metrics.Metrics

	cleanups []func()
}

// New 创建一个新的引导器实例
func New(serviceName, version string) *Bootstrapper {
	return &Bootstrapper{
		ServiceName: serviceName,
		Version:     version,
	}
}

// Initialize 依次加载 .env、配置文件，初始化日志与指标。
// .env 先于配置加载，以便 APP_ 前缀的环境变量参与覆盖。
func (b *Bootstrapper) Initialize(opts Options) error {
	if err := loadEnv(opts.EnvFile); err != nil {
		return err
	}

	cfg := config.Default()
	if opts.ConfigPath != "" {
		if err := config.Load(opts.ConfigPath, cfg); err != nil {
			return err
		}
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if cfg.Version == "" || cfg.Version == "dev" {
		cfg.Version = b.Version
	}
	b.Config = cfg

	logging.InitLogger(cfg.LoggingConfig(b.ServiceName, "cli"))
	logging.SetLevel(cfg.Log.Level)
	b.Logger = logging.Default()

	b.Metrics = metrics.NewMetrics(b.ServiceName)
	b.Metrics.RegisterBuildInfo(b.ServiceName, cfg.Version)
	port := opts.MetricsAddr
	if port == "" && cfg.Metrics.Enabled {
		port = cfg.Metrics.Port
	}
	if port != "" {
		b.cleanups = append(b.cleanups, b.Metrics.ExposeHttp(port))
		b.Logger.Info("metrics exposed", "port", port)
	}

	b.Logger.Debug("bootstrap finished", "config", opts.ConfigPath, "version", cfg.Version)
	return nil
}

func loadEnv(path string) error {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	err := godotenv.Load(path)
	if err != nil && !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Engine 按配置创建批量定价引擎。
func (b *Bootstrapper) Engine() *pricing.Engine {
	return pricing.NewEngineFromConfig(b.Config.Engine, b.Metrics, b.Logger.Named("pricing").Logger)
}

// Pool 按配置创建模拟使用的工作池。
func (b *Bootstrapper) Pool(name string) *worker.Pool {
	return worker.NewPool(
		worker.WithName(name),
		worker.WithSize(b.Config.Engine.Workers),
		worker.WithMetrics(b.Metrics),
		worker.WithLogger(b.Logger.Named(name).Logger),
	)
}

// Interpolation 返回配置中的默认插值方式。
func (b *Bootstrapper) Interpolation() (curve.InterpolationMethod, error) {
	return curve.ParseInterpolation(b.Config.Engine.Curve.Interpolation)
}

// Slog 返回底层 slog.Logger。
func (b *Bootstrapper) Slog() *slog.Logger {
	return b.Logger.Logger
}

// Close 释放初始化时创建的资源，按注册的逆序执行。
func (b *Bootstrapper) Close() {
	for i := len(b.cleanups) - 1; i >= 0; i-- {
		b.cleanups[i]()
	}
	b.cleanups = nil
	logging.Debug(context.Background(), "bootstrap closed", "service", b.ServiceName)
}
