package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/klauspost/compress/zstd"
	"github.com/wyfcoding/quant/stochastic"
)

// pathPoint 路径导出的一行，长表格式。
type pathPoint struct {
	Path     int     `csv:"path"`
	Step     int     `csv:"step"`
	Time     float64 `csv:"time"`
	Value    float64 `csv:"value"`
	Variance float64 `csv:"variance"`
}

func flatten(ps *stochastic.PathSet) []*pathPoint {
	width := len(ps.Times)
	out := make([]*pathPoint, 0, ps.Len()*width)
	for i, path := range ps.Values {
		for k, v := range path {
			p := &pathPoint{Path: i, Step: k, Time: ps.Times[k], Value: v}
			if ps.Variances != nil {
				p.Variance = ps.Variances[i][k]
			}
			out = append(out, p)
		}
	}
	return out
}

// compressedWriter 以 zstd 压缩写入，Close 时先刷新编码器再关闭底层文件。
type compressedWriter struct {
	enc  *zstd.Encoder
	dest io.Closer
}

func (w *compressedWriter) Write(p []byte) (int, error) { return w.enc.Write(p) }

func (w *compressedWriter) Close() error {
	if err := w.enc.Close(); err != nil {
		w.dest.Close()
		return err
	}
	return w.dest.Close()
}

func newCompressedWriter(dst io.WriteCloser) (io.WriteCloser, error) {
	enc, err := zstd.NewWriter(dst, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return nil, err
	}
	return &compressedWriter{enc: enc, dest: dst}, nil
}

func runPaths(args []string, _ io.Reader, stdout io.Writer) error {
	fs, common := newFlagSet("paths")
	model := fs.String("model", "gbm", "process: brownian, gbm or heston")
	n := fs.Int("n", 10, "number of paths")
	steps := fs.Int("steps", 252, "time steps per path")
	horizon := fs.Float64("horizon", 1, "horizon in years")
	seed := fs.String("seed", "0", "base seed, random for a fresh one (0 uses config)")
	spot := fs.Float64("spot", 100, "initial value for gbm and heston")
	drift := fs.Float64("drift", 0.05, "drift rate")
	div := fs.Float64("div", 0, "dividend yield")
	vol := fs.Float64("vol", 0.2, "gbm volatility")
	var hp stochastic.HestonParams
	fs.Float64Var(&hp.V0, "v0", 0.04, "heston initial variance")
	fs.Float64Var(&hp.Kappa, "kappa", 2, "heston mean reversion speed")
	fs.Float64Var(&hp.Theta, "theta", 0.04, "heston long-run variance")
	fs.Float64Var(&hp.VolOfVol, "xi", 0.3, "heston volatility of variance")
	fs.Float64Var(&hp.Rho, "rho", -0.7, "heston correlation")
	outPath := fs.StringP("out", "o", "-", "output file")
	compress := fs.Bool("zstd", false, "compress the output with zstd (implied by a .zst suffix)")
	b, err := start(fs, common, args)
	if err != nil {
		return err
	}
	defer b.Close()

	s, err := parseSeed(*seed, b.Config.Engine.Seed)
	if err != nil {
		return err
	}
	opts := []stochastic.Option{
		stochastic.WithPool(b.Pool("paths")),
		stochastic.WithChunkSize(b.Config.Engine.MonteCarlo.ChunkSize),
	}

	var ps *stochastic.PathSet
	switch strings.ToLower(*model) {
	case "brownian":
		var bm *stochastic.BrownianMotion
		if bm, err = stochastic.NewBrownianMotion(*horizon, *steps); err == nil {
			ps, err = bm.Paths(*n, s, opts...)
		}
	case "gbm":
		var g *stochastic.GBM
		if g, err = stochastic.NewGBM(*spot, *drift, *div, *vol, *horizon, *steps); err == nil {
			ps, err = g.Paths(*n, s, opts...)
		}
	case "heston":
		var h *stochastic.Heston
		if h, err = stochastic.NewHeston(*spot, *drift, *div, *horizon, *steps, hp); err == nil {
			ps, err = h.Paths(*n, s, opts...)
		}
	default:
		return fmt.Errorf("unknown model %q", *model)
	}
	if err != nil {
		return err
	}
	b.Metrics.AddPaths(*model, ps.Len())

	dst, err := openOutput(*outPath, stdout)
	if err != nil {
		return err
	}
	if *compress || strings.HasSuffix(*outPath, ".zst") || strings.HasSuffix(*outPath, ".zstd") {
		cw, err := newCompressedWriter(dst)
		if err != nil {
			dst.Close()
			return err
		}
		dst = cw
	}
	points := flatten(ps)
	if err := gocsv.Marshal(&points, dst); err != nil {
		dst.Close()
		return err
	}
	b.Logger.Info("paths exported", "model", *model, "paths", ps.Len(), "steps", *steps, "rows", len(points))
	return dst.Close()
}
