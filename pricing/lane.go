package pricing

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// LaneWidth 为批量内核一次处理的元素个数。
const LaneWidth = 4

// lane 以结构数组形式保存至多 LaneWidth 个期权的参数。
// 标量与批量定价都经过同一个内核，结果逐位一致。
type lane struct {
	n                int
	call             bool
	s, k, t, r, v, q [LaneWidth]float64
}

type laneOut struct {
	price, delta, gamma, vega, theta, rho [LaneWidth]float64
}

func normCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

func normPDF(x float64) float64 {
	return distuv.UnitNormal.Prob(x)
}

// loadTerms 把单个合约装入第 0 道。
func (l *lane) loadTerms(t Terms) {
	l.n = 1
	l.call = t.Type.IsCall()
	l.s[0], l.k[0], l.t[0], l.r[0], l.v[0], l.q[0] = t.Spot, t.Strike, t.Expiry, t.Rate, t.Vol, t.Div
}

// loadBatch 从批量输入的 [base, base+w) 装入。
func (l *lane) loadBatch(call bool, in BatchInput, base, w int) {
	l.n = w
	l.call = call
	copy(l.s[:w], in.Spots[base:base+w])
	copy(l.k[:w], in.Strikes[base:base+w])
	copy(l.t[:w], in.Times[base:base+w])
	copy(l.r[:w], in.Rates[base:base+w])
	copy(l.v[:w], in.Vols[base:base+w])
	if in.Divs != nil {
		copy(l.q[:w], in.Divs[base:base+w])
	} else {
		l.q = [LaneWidth]float64{}
	}
}

// moments 计算 √T、σ√T、d1 与 d2。到期的道以 1 代替 √T 作分母，结果随后被内在价值覆盖。
func (l *lane) moments() (sqrtT, volSqrtT, d1, d2 [LaneWidth]float64) {
	for j := range l.n {
		sqrtT[j] = 1
		if l.t[j] > 0 {
			sqrtT[j] = math.Sqrt(l.t[j])
		}
		volSqrtT[j] = l.v[j] * sqrtT[j]
	}
	for j := range l.n {
		d1[j] = (math.Log(l.s[j]/l.k[j]) + (l.r[j]-l.q[j]+0.5*l.v[j]*l.v[j])*l.t[j]) / volSqrtT[j]
		d2[j] = d1[j] - volSqrtT[j]
	}
	return
}

// eval 计算价格，full 为 true 时同时计算全部希腊字母。
// 到期 (t = 0) 的道在最后以内在价值覆盖。
func (l *lane) eval(out *laneOut, full bool) {
	n := l.n
	sign := 1.0
	if !l.call {
		sign = -1.0
	}

	sqrtT, volSqrtT, d1, d2 := l.moments()
	var dq, dr, n1, n2 [LaneWidth]float64
	for j := range n {
		dq[j] = math.Exp(-l.q[j] * l.t[j])
		dr[j] = math.Exp(-l.r[j] * l.t[j])
	}
	for j := range n {
		n1[j] = normCDF(sign * d1[j])
		n2[j] = normCDF(sign * d2[j])
	}
	for j := range n {
		out.price[j] = sign * (l.s[j]*dq[j]*n1[j] - l.k[j]*dr[j]*n2[j])
	}

	if full {
		var pdf [LaneWidth]float64
		for j := range n {
			pdf[j] = normPDF(d1[j])
		}
		for j := range n {
			out.delta[j] = sign * dq[j] * n1[j]
			out.gamma[j] = dq[j] * pdf[j] / (l.s[j] * volSqrtT[j])
			out.vega[j] = l.s[j] * dq[j] * pdf[j] * sqrtT[j] / 100
			decay := -l.s[j] * dq[j] * pdf[j] * l.v[j] / (2 * sqrtT[j])
			out.theta[j] = (decay - sign*l.r[j]*l.k[j]*dr[j]*n2[j] + sign*l.q[j]*l.s[j]*dq[j]*n1[j]) / 365
			out.rho[j] = sign * l.k[j] * l.t[j] * dr[j] * n2[j] / 100
		}
	}

	for j := range n {
		if l.t[j] == 0 {
			out.set(j, degenerateGreeks(l.call, l.s[j], l.k[j]))
		}
	}
}

func (o *laneOut) set(j int, g Greeks) {
	o.price[j], o.delta[j], o.gamma[j], o.vega[j], o.theta[j], o.rho[j] = g.Price, g.Delta, g.Gamma, g.Vega, g.Theta, g.Rho
}

func (o *laneOut) at(j int) Greeks {
	return Greeks{
		Price: o.price[j],
		Delta: o.delta[j],
		Gamma: o.gamma[j],
		Vega:  o.vega[j],
		Theta: o.theta[j],
		Rho:   o.rho[j],
	}
}
