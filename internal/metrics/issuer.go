package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Métricas del issuer de tokens. Viven en un paquete aparte para que el CLI
// (o quien embeba el issuer) decida en qué registry exponerlas.

var (
	TokensIssued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "devtoken_tokens_issued_total",
		Help: "Tokens firmados correctamente",
	})

	IssueFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "devtoken_issue_failures_total",
		Help: "Emisiones fallidas por código de error",
	}, []string{"code"})

	SignDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "devtoken_sign_duration_seconds",
		Help:    "Latencia de la firma ES256",
		Buckets: prometheus.ExponentialBuckets(0.00005, 2, 12),
	})
)

// ObserveIssued registra una emisión exitosa y su latencia de firma.
func ObserveIssued(took time.Duration) {
	TokensIssued.Inc()
	SignDuration.Observe(took.Seconds())
}

// ObserveFailure registra una emisión fallida. code vacío cuenta como "unknown".
func ObserveFailure(code string) {
	if code == "" {
		code = "unknown"
	}
	IssueFailures.WithLabelValues(code).Inc()
}

// RegisterIssuer registers the issuer metrics on the given registry (or default if nil).
func RegisterIssuer(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{TokensIssued, IssueFailures, SignDuration} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
