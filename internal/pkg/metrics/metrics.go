package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics agrupa os coletores Prometheus do catálogo. Um *Metrics nil é
// válido: todos os métodos viram no-op (usado nos testes de serviço).
type Metrics struct {
	gatherer prometheus.Gatherer

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	CatalogOperations   *prometheus.CounterVec
	PriceChangesTotal   *prometheus.CounterVec
	CacheLookups        *prometheus.CounterVec
}

// New registra os coletores em um registry próprio com o prefixo configurado.
func New(prefix string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		gatherer: reg,
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		CatalogOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_catalog_operations_total",
				Help: "Catalog mutations by entity, operation and result",
			},
			[]string{"entity", "operation", "result"},
		),
		PriceChangesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_price_changes_total",
				Help: "Price history rows written",
			},
			[]string{"scope"},
		),
		CacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_cache_lookups_total",
				Help: "Product cache lookups by result",
			},
			[]string{"result"},
		),
	}
}

// Handler expõe o endpoint /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveHTTP registra uma requisição concluída.
func (m *Metrics) ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.HTTPRequestsTotal.WithLabelValues(method, path, code).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path, code).Observe(elapsed.Seconds())
}

// CatalogOperation registra uma mutação do catálogo ("ok" ou "error").
func (m *Metrics) CatalogOperation(entity, operation string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.CatalogOperations.WithLabelValues(entity, operation, result).Inc()
}

// PriceChanged registra uma linha de histórico ("product" ou "variant").
func (m *Metrics) PriceChanged(scope string) {
	if m == nil {
		return
	}
	m.PriceChangesTotal.WithLabelValues(scope).Inc()
}

// CacheLookup registra hit/miss/error do cache de produtos.
func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}
