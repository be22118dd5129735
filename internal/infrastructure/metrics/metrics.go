package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "recipe_chef"

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	modelRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_requests_total",
			Help:      "Total number of model inference requests",
		},
		[]string{"task", "status"},
	)
	modelRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_request_duration_seconds",
			Help:      "Model inference request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
		},
		[]string{"task"},
	)

	nutritionBatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nutrition_batches_total",
			Help:      "Nutrition lookups per batch, by provenance of the totals",
		},
		[]string{"provenance"},
	)
	nutritionIngredientsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nutrition_ingredients_total",
			Help:      "Per-ingredient external lookup outcomes",
		},
		[]string{"outcome"},
	)
	tokenAcquisitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nutrition_token_acquisitions_total",
			Help:      "OAuth2 token acquisitions against the nutrition API",
		},
		[]string{"status"},
	)
)

// ObserveHTTPRequest 記錄 HTTP 請求
func ObserveHTTPRequest(method, path string, status int, latency time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(latency.Seconds())
}

// ObserveModelRequest 記錄模型推論請求
func ObserveModelRequest(task string, latency time.Duration, err error) {
	modelRequestsTotal.WithLabelValues(task, status(err)).Inc()
	modelRequestDuration.WithLabelValues(task).Observe(latency.Seconds())
}

// ObserveNutritionBatch 記錄一次營養批次查詢的來源
func ObserveNutritionBatch(provenance string) {
	nutritionBatchesTotal.WithLabelValues(provenance).Inc()
}

// ObserveIngredientLookup 記錄單一食材查詢結果（resolved / unresolved / cached）
func ObserveIngredientLookup(outcome string) {
	nutritionIngredientsTotal.WithLabelValues(outcome).Inc()
}

// ObserveTokenAcquisition 記錄 token 取得結果
func ObserveTokenAcquisition(err error) {
	tokenAcquisitionsTotal.WithLabelValues(status(err)).Inc()
}

// Handler 回傳 Prometheus 抓取端點
func Handler() http.Handler {
	return promhttp.Handler()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
