// quant 是定价引擎的命令行入口：单笔与批量期权定价、蒙特卡洛模拟、收益率曲线自举和路径导出。
package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/pflag"
	"github.com/wyfcoding/quant/bootstrap"
)

const serviceName = "quant"

// version 在构建时通过 -ldflags "-X main.version=..." 注入。
var version = "dev"

type command struct {
	summary string
	run     func(args []string, stdin io.Reader, stdout io.Writer) error
}

var commands = map[string]command{
	"price": {"price a single option analytically or on a binomial lattice", runPrice},
	"mc":    {"price a single option by simulation (gbm, antithetic, heston, lsm)", runMonteCarlo},
	"batch": {"price a CSV of options through the vectorized engine", runBatch},
	"curve": {"bootstrap a zero curve from a CSV of securities", runCurve},
	"paths": {"export simulated paths as CSV, optionally zstd-compressed", runPaths},
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		usage(stderr)
		return nil
	}
	if args[0] == "version" {
		fmt.Fprintln(stdout, serviceName, version)
		return nil
	}
	cmd, ok := commands[args[0]]
	if !ok {
		usage(stderr)
		return fmt.Errorf("unknown command %q", args[0])
	}
	return cmd.run(args[1:], stdin, stdout)
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "usage: %s <command> [flags]\n\ncommands:\n", serviceName)
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-8s %s\n", name, commands[name].summary)
	}
	fmt.Fprintf(w, "\nrun '%s <command> --help' for command flags\n", serviceName)
}

// commonFlags 所有子命令共享的标志。
type commonFlags struct {
	opts bootstrap.Options
}

func newFlagSet(name string) (*pflag.FlagSet, *commonFlags) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	c := &commonFlags{}
	fs.StringVarP(&c.opts.ConfigPath, "config", "c", "", "path to a TOML config file")
	fs.StringVar(&c.opts.EnvFile, "env-file", "", "dotenv file to load before reading APP_* variables (default .env if present)")
	fs.StringVar(&c.opts.MetricsAddr, "metrics-addr", "", "expose Prometheus metrics on this port while the command runs")
	fs.StringVar(&c.opts.LogLevel, "log-level", "", "override the configured log level")
	return fs, c
}

// start 解析标志并完成初始化，调用方负责 Close。
func start(fs *pflag.FlagSet, c *commonFlags, args []string) (*bootstrap.Bootstrapper, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	b := bootstrap.New(serviceName, version)
	if err := b.Initialize(c.opts); err != nil {
		return nil, err
	}
	return b, nil
}
