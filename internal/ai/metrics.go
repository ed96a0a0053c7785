package ai

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyai_ai_requests_total",
			Help: "Total number of requests to text generation backends.",
		},
		[]string{"provider", "model", "status"},
	)
	aiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storyai_ai_request_duration_seconds",
			Help:    "Histogram of text generation request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "model"},
	)
	aiPromptTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storyai_ai_prompt_tokens",
			Help:    "Estimated prompt token counts.",
			Buckets: prometheus.LinearBuckets(250, 250, 20),
		},
		[]string{"provider", "model"},
	)
	aiCompletionTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storyai_ai_completion_tokens",
			Help:    "Completion token counts reported by the backend.",
			Buckets: prometheus.ExponentialBuckets(64, 2, 10),
		},
		[]string{"provider", "model"},
	)
)

// observeRequest records the outcome of one backend call.
func observeRequest(provider, model, status string, started time.Time) {
	aiRequestsTotal.With(prometheus.Labels{"provider": provider, "model": model, "status": status}).Inc()
	aiRequestDuration.With(prometheus.Labels{"provider": provider, "model": model}).Observe(time.Since(started).Seconds())
}

func observeTokens(provider, model string, prompt, completion int) {
	if prompt > 0 {
		aiPromptTokens.With(prometheus.Labels{"provider": provider, "model": model}).Observe(float64(prompt))
	}
	if completion > 0 {
		aiCompletionTokens.With(prometheus.Labels{"provider": provider, "model": model}).Observe(float64(completion))
	}
}

// statusOf maps an error to a metric status label.
func statusOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case isRateLimited(err):
		return "rate_limited"
	default:
		return "error"
	}
}
