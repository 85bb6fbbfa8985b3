package main

import (
	"context"
	"io"
	"os"

	"github.com/gocarina/gocsv"
	"github.com/wyfcoding/quant/logging"
	"github.com/wyfcoding/quant/pricing"
)

// batchRow 批量定价的输入行。
type batchRow struct {
	Spot   float64 `csv:"spot"`
	Strike float64 `csv:"strike"`
	Expiry float64 `csv:"expiry"`
	Rate   float64 `csv:"rate"`
	Vol    float64 `csv:"vol"`
	Div    float64 `csv:"div"`
}

// batchResult 批量定价的输出行。
type batchResult struct {
	batchRow
	Price float64 `csv:"price"`
	Delta float64 `csv:"delta"`
	Gamma float64 `csv:"gamma"`
	Vega  float64 `csv:"vega"`
	Theta float64 `csv:"theta"`
	Rho   float64 `csv:"rho"`
}

func toBatchInput(rows []*batchRow) pricing.BatchInput {
	n := len(rows)
	in := pricing.BatchInput{
		Spots:   make([]float64, n),
		Strikes: make([]float64, n),
		Times:   make([]float64, n),
		Rates:   make([]float64, n),
		Vols:    make([]float64, n),
		Divs:    make([]float64, n),
	}
	for i, r := range rows {
		in.Spots[i], in.Strikes[i], in.Times[i] = r.Spot, r.Strike, r.Expiry
		in.Rates[i], in.Vols[i], in.Divs[i] = r.Rate, r.Vol, r.Div
	}
	return in
}

func openInput(path string, stdin io.Reader) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(stdin), nil
	}
	return os.Open(path)
}

func openOutput(path string, stdout io.Writer) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopWriteCloser{stdout}, nil
	}
	return os.Create(path)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func runBatch(args []string, stdin io.Reader, stdout io.Writer) error {
	fs, common := newFlagSet("batch")
	kindName := fs.String("type", "call", "option type applied to every row: call or put")
	inPath := fs.StringP("in", "i", "-", "input CSV with spot,strike,expiry,rate,vol[,div] columns")
	outPath := fs.StringP("out", "o", "-", "output CSV")
	steps := fs.Int("american-steps", 0, "price american options on a lattice with this many steps (greeks omitted)")
	b, err := start(fs, common, args)
	if err != nil {
		return err
	}
	defer b.Close()

	kind, err := pricing.ParseOptionType(*kindName)
	if err != nil {
		return err
	}
	src, err := openInput(*inPath, stdin)
	if err != nil {
		return err
	}
	defer src.Close()
	var rows []*batchRow
	if err := gocsv.Unmarshal(src, &rows); err != nil {
		return err
	}

	done := logging.LogDuration(context.Background(), "batch pricing", "rows", len(rows), "type", kind)
	engine := b.Engine()
	in := toBatchInput(rows)
	results := make([]*batchResult, len(rows))
	if *steps > 0 {
		prices, err := engine.PriceAmericanMany(kind, in, *steps)
		if err != nil {
			return err
		}
		for i, r := range rows {
			results[i] = &batchResult{batchRow: *r, Price: prices[i]}
		}
	} else {
		greeks, err := engine.GreeksMany(kind, in)
		if err != nil {
			return err
		}
		for i, r := range rows {
			g := greeks.At(i)
			results[i] = &batchResult{batchRow: *r, Price: g.Price, Delta: g.Delta, Gamma: g.Gamma, Vega: g.Vega, Theta: g.Theta, Rho: g.Rho}
		}
	}
	done()
	b.Logger.Info("batch priced", "rows", len(rows), "type", kind)

	dst, err := openOutput(*outPath, stdout)
	if err != nil {
		return err
	}
	if err := gocsv.Marshal(&results, dst); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}
