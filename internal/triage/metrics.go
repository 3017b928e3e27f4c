package triage

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome 是一次提交的分流结果。
type Outcome string

const (
	OutcomeEmergency Outcome = "emergency"
	OutcomeForwarded Outcome = "forwarded"
	OutcomeFallback  Outcome = "fallback"
	OutcomeStale     Outcome = "stale"
)

// Metrics 持有分流相关的 Prometheus 指标。nil 接收者上的方法均为空操作。
type Metrics struct {
	SubmitsTotal      *prometheus.CounterVec
	AssistantDuration *prometheus.HistogramVec
}

// NewMetrics 在给定 registerer 上注册并返回分流指标。
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SubmitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "medimate_triage_submits_total",
			Help: "Chat submissions by triage outcome.",
		}, []string{"outcome"}),
		AssistantDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "medimate_assistant_call_duration_seconds",
			Help:    "Duration of generative assistant calls.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8), // 0.25s .. 32s
		}, []string{"status"}),
	}
	reg.MustRegister(m.SubmitsTotal, m.AssistantDuration)
	return m
}

// Observe 记录一次分流结果。
func (m *Metrics) Observe(o Outcome) {
	if m == nil {
		return
	}
	m.SubmitsTotal.WithLabelValues(string(o)).Inc()
}

// ObserveCall 记录一次外部助手调用耗时。
func (m *Metrics) ObserveCall(d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.AssistantDuration.WithLabelValues(status).Observe(d.Seconds())
}
