package pricing

// BlackScholesPrice 计算欧式期权的 Black-Scholes-Merton 价格 (含连续股息率)。
// 到期时返回内在价值。
func BlackScholesPrice(t Terms) (float64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	var l lane
	var out laneOut
	l.loadTerms(t)
	l.eval(&out, false)
	return out.price[0], nil
}

// BlackScholesGreeks 一次性计算价格及全部希腊字母，d1、d2 与 φ(d1) 只计算一次。
func BlackScholesGreeks(t Terms) (Greeks, error) {
	if err := t.Validate(); err != nil {
		return Greeks{}, err
	}
	return blackScholes(t), nil
}

// blackScholes 不做校验，调用方保证参数合法。
func blackScholes(t Terms) Greeks {
	var l lane
	var out laneOut
	l.loadTerms(t)
	l.eval(&out, true)
	return out.at(0)
}
