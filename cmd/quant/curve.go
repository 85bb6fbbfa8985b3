package main

import (
	"context"
	"io"

	"github.com/gocarina/gocsv"
	"github.com/wyfcoding/quant/curve"
	"github.com/wyfcoding/quant/logging"
)

// curvePoint 曲线采样输出行。
type curvePoint struct {
	Time           float64 `csv:"time"`
	ZeroRate       float64 `csv:"zero_rate"`
	DiscountFactor float64 `csv:"discount_factor"`
	Forward        float64 `csv:"forward"`
}

func sampleCurve(c *curve.ZeroCurve, step, end float64) ([]*curvePoint, error) {
	fwd := curve.NewForwardCurve(c)
	times, forwards, err := fwd.TermStructure(0, end, step)
	if err != nil {
		return nil, err
	}
	points := make([]*curvePoint, 0, len(times))
	for i, t := range times {
		// 采样点取每段终点，t = 0 处的零息利率没有意义
		te := min(t+step, end)
		z, err := c.ZeroRate(te)
		if err != nil {
			return nil, err
		}
		df, err := c.DiscountFactor(te)
		if err != nil {
			return nil, err
		}
		points = append(points, &curvePoint{Time: te, ZeroRate: z, DiscountFactor: df, Forward: forwards[i]})
	}
	return points, nil
}

func runCurve(args []string, stdin io.Reader, stdout io.Writer) error {
	fs, common := newFlagSet("curve")
	inPath := fs.StringP("in", "i", "-", "input CSV with maturity,price[,face_value,coupon_rate,frequency] columns")
	outPath := fs.StringP("out", "o", "-", "output CSV")
	method := fs.String("interpolation", "", "linear, log_linear, cubic_spline or monotone_cubic (default from config)")
	step := fs.Float64("step", 0.25, "sampling step in years")
	end := fs.Float64("end", 0, "last sampled maturity (default: longest security)")
	b, err := start(fs, common, args)
	if err != nil {
		return err
	}
	defer b.Close()

	m, err := b.Interpolation()
	if err != nil {
		return err
	}
	if *method != "" {
		if m, err = curve.ParseInterpolation(*method); err != nil {
			return err
		}
	}

	src, err := openInput(*inPath, stdin)
	if err != nil {
		return err
	}
	defer src.Close()
	var rows []*curve.Security
	if err := gocsv.Unmarshal(src, &rows); err != nil {
		return err
	}
	securities := make([]curve.Security, len(rows))
	for i, r := range rows {
		securities[i] = *r
	}

	defer logging.LogDuration(context.Background(), "curve bootstrap", "securities", len(securities), "interpolation", m.String())()
	c, err := curve.NewZeroCurve(securities, m)
	if err != nil {
		return err
	}
	horizon := *end
	if horizon <= 0 {
		mats := c.Maturities()
		horizon = mats[len(mats)-1]
	}
	points, err := sampleCurve(c, *step, horizon)
	if err != nil {
		return err
	}
	b.Logger.Info("curve bootstrapped", "securities", c.Len(), "interpolation", m.String(), "points", len(points))

	dst, err := openOutput(*outPath, stdout)
	if err != nil {
		return err
	}
	if err := gocsv.Marshal(&points, dst); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}
