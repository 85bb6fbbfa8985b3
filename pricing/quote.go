package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Quote 定点精度的价格与希腊字母，用于展示与落盘。
type Quote struct {
	Price decimal.Decimal `json:"price"`
	Delta decimal.Decimal `json:"delta"`
	Gamma decimal.Decimal `json:"gamma"`
	Vega  decimal.Decimal `json:"vega"`
	Theta decimal.Decimal `json:"theta"`
	Rho   decimal.Decimal `json:"rho"`
}

// Quote 按 places 位小数四舍五入。
func (g Greeks) Quote(places int32) Quote {
	round := func(x float64) decimal.Decimal {
		return decimal.NewFromFloat(x).Round(places)
	}
	return Quote{
		Price: round(g.Price),
		Delta: round(g.Delta),
		Gamma: round(g.Gamma),
		Vega:  round(g.Vega),
		Theta: round(g.Theta),
		Rho:   round(g.Rho),
	}
}

func (q Quote) String() string {
	return fmt.Sprintf("price=%s delta=%s gamma=%s vega=%s theta=%s rho=%s",
		q.Price, q.Delta, q.Gamma, q.Vega, q.Theta, q.Rho)
}

// TermsFromDecimal 由定点数报价构造合约参数。
func TermsFromDecimal(kind OptionType, spot, strike, expiry, rate, vol, div decimal.Decimal) Terms {
	return Terms{
		Spot:   spot.InexactFloat64(),
		Strike: strike.InexactFloat64(),
		Expiry: expiry.InexactFloat64(),
		Rate:   rate.InexactFloat64(),
		Vol:    vol.InexactFloat64(),
		Div:    div.InexactFloat64(),
		Type:   kind,
	}
}
