package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"github.com/wyfcoding/quant/pricing"
	"github.com/wyfcoding/quant/stochastic"
)

// termFlags 合约参数以十进制字符串接收，避免命令行输入在解析时引入二进制舍入。
type termFlags struct {
	kind   string
	spot   string
	strike string
	expiry string
	rate   string
	vol    string
	div    string
}

func parseDecimal(name, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid --%s %q: %w", name, value, err)
	}
	return d, nil
}

func (f *termFlags) terms() (pricing.Terms, error) {
	kind, err := pricing.ParseOptionType(f.kind)
	if err != nil {
		return pricing.Terms{}, err
	}
	fields := []struct {
		name  string
		value string
	}{
		{"spot", f.spot}, {"strike", f.strike}, {"expiry", f.expiry},
		{"rate", f.rate}, {"vol", f.vol}, {"div", f.div},
	}
	vals := make([]decimal.Decimal, len(fields))
	for i, fd := range fields {
		if vals[i], err = parseDecimal(fd.name, fd.value); err != nil {
			return pricing.Terms{}, err
		}
	}
	t := pricing.TermsFromDecimal(kind, vals[0], vals[1], vals[2], vals[3], vals[4], vals[5])
	return t, t.Validate()
}

func bindTerms(fs *pflag.FlagSet) *termFlags {
	f := &termFlags{}
	fs.StringVar(&f.kind, "type", "call", "option type: call or put")
	fs.StringVar(&f.spot, "spot", "100", "spot price")
	fs.StringVar(&f.strike, "strike", "100", "strike price")
	fs.StringVar(&f.expiry, "expiry", "1", "time to expiry in years")
	fs.StringVar(&f.rate, "rate", "0.05", "continuously compounded risk-free rate")
	fs.StringVar(&f.vol, "vol", "0.2", "annualized volatility")
	fs.StringVar(&f.div, "div", "0", "continuous dividend yield")
	return f
}

// parseSeed 解析 --seed：空或 0 使用配置值，random 取系统熵。
func parseSeed(value string, fallback uint64) (uint64, error) {
	switch strings.ToLower(value) {
	case "", "0":
		return fallback, nil
	case "random":
		return stochastic.EntropySeed(), nil
	}
	seed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid --seed %q: want an unsigned integer or \"random\"", value)
	}
	return seed, nil
}

func runPrice(args []string, _ io.Reader, stdout io.Writer) error {
	fs, common := newFlagSet("price")
	tf := bindTerms(fs)
	style := fs.String("style", "european", "exercise style: european or american")
	steps := fs.Int("steps", 0, "binomial steps for american options (0 uses config)")
	places := fs.Int32("places", 6, "decimal places in the output")
	b, err := start(fs, common, args)
	if err != nil {
		return err
	}
	defer b.Close()

	t, err := tf.terms()
	if err != nil {
		return err
	}
	var g pricing.Greeks
	switch strings.ToLower(*style) {
	case "european", "e":
		g, err = pricing.BlackScholesGreeks(t)
	case "american", "a":
		n := *steps
		if n <= 0 {
			n = b.Config.Engine.BinomialSteps
		}
		var opt pricing.American
		if opt, err = pricing.NewAmerican(t, n); err == nil {
			g, err = opt.Greeks()
		}
	default:
		return fmt.Errorf("unknown exercise style %q", *style)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, g.Quote(*places))
	return err
}

func runMonteCarlo(args []string, _ io.Reader, stdout io.Writer) error {
	fs, common := newFlagSet("mc")
	tf := bindTerms(fs)
	model := fs.String("model", "antithetic", "simulation model: gbm, antithetic, heston or lsm")
	paths := fs.Int("paths", 0, "number of paths (0 uses config)")
	steps := fs.Int("steps", 0, "time steps per path (0 uses config)")
	seed := fs.String("seed", "0", "base seed, random for a fresh one (0 uses config)")
	degree := fs.Int("degree", 0, "lsm regression degree (0 uses config)")
	var hp stochastic.HestonParams
	fs.Float64Var(&hp.V0, "v0", 0.04, "heston initial variance")
	fs.Float64Var(&hp.Kappa, "kappa", 2, "heston mean reversion speed")
	fs.Float64Var(&hp.Theta, "theta", 0.04, "heston long-run variance")
	fs.Float64Var(&hp.VolOfVol, "xi", 0.3, "heston volatility of variance")
	fs.Float64Var(&hp.Rho, "rho", -0.7, "heston correlation")
	b, err := start(fs, common, args)
	if err != nil {
		return err
	}
	defer b.Close()

	t, err := tf.terms()
	if err != nil {
		return err
	}
	cfg := b.Config.Engine
	pick := func(v, fallback int) int {
		if v > 0 {
			return v
		}
		return fallback
	}
	s, err := parseSeed(*seed, cfg.Seed)
	if err != nil {
		return err
	}
	b.Logger.Debug("simulation seed", "seed", s)
	opts := []pricing.SimOption{
		pricing.WithSeed(s),
		pricing.WithChunkSize(cfg.MonteCarlo.ChunkSize),
		pricing.WithPool(b.Pool("monte_carlo")),
		pricing.WithMetrics(b.Metrics),
	}

	var res *pricing.SimulationResult
	switch strings.ToLower(*model) {
	case "gbm":
		opts = append(opts, pricing.WithPaths(pick(*paths, cfg.MonteCarlo.Paths)), pricing.WithSteps(pick(*steps, cfg.MonteCarlo.Steps)))
		res, err = pricing.MonteCarlo(t, opts...)
	case "antithetic":
		opts = append(opts, pricing.WithPaths(pick(*paths, cfg.MonteCarlo.Paths)), pricing.WithSteps(pick(*steps, cfg.MonteCarlo.Steps)))
		res, err = pricing.MonteCarloAntithetic(t, opts...)
	case "heston":
		opts = append(opts, pricing.WithPaths(pick(*paths, cfg.MonteCarlo.Paths)), pricing.WithSteps(pick(*steps, cfg.MonteCarlo.HestonSteps)))
		res, err = pricing.Heston(t, hp, opts...)
	case "lsm":
		opts = append(opts, pricing.WithPaths(pick(*paths, cfg.LSM.Paths)), pricing.WithSteps(pick(*steps, cfg.LSM.Steps)))
		res, err = pricing.NewLSMPricer(pick(*degree, cfg.LSM.Degree)).Price(t, opts...)
	default:
		return fmt.Errorf("unknown model %q", *model)
	}
	if err != nil {
		return err
	}
	b.Logger.Debug("simulation finished", "model", *model, "paths", res.Paths)
	_, err = fmt.Fprintf(stdout, "model=%s price=%.6f stderr=%.6f paths=%d\n", *model, res.Price, res.StdError, res.Paths)
	return err
}
