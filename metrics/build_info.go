package metrics

import "github.com/prometheus/client_golang/prometheus"

// RegisterBuildInfo 以常量 1 的 gauge 暴露服务名与版本，重复调用无效果。
func (m *Metrics) RegisterBuildInfo(serviceName, version string) {
	if m == nil || m.BuildInfo != nil {
		return
	}
	labels := []string{serviceName, version}
	for i, v := range labels {
		if v == "" {
			labels[i] = "unknown"
		}
	}
	m.BuildInfo = m.NewGaugeVec(prometheus.GaugeOpts{
		Name: "quant_build_info",
		Help: "Service name and version of the running pricing engine binary",
	}, []string{"service", "version"})
	m.BuildInfo.WithLabelValues(labels...).Set(1)
}
