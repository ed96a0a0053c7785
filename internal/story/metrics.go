package story

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	storiesGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyai_stories_generated_total",
			Help: "Stories generated, by mode and outcome.",
		},
		[]string{"mode", "status"},
	)
	pagesGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyai_pages_generated_total",
			Help: "Pages generated, by mode and phase.",
		},
		[]string{"mode", "phase"},
	)
	assetOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyai_asset_outcomes_total",
			Help: "Illustration and narration attempts, by kind and outcome.",
		},
		[]string{"kind", "status"},
	)
)

func metricsStoryGenerated(mode string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	storiesGeneratedTotal.WithLabelValues(mode, status).Inc()
}

func metricsPageGenerated(mode string, phase Phase) {
	pagesGeneratedTotal.WithLabelValues(mode, string(phase)).Inc()
}

func metricsAsset(kind string, ok bool) {
	status := "generated"
	if !ok {
		status = "missing"
	}
	assetOutcomesTotal.WithLabelValues(kind, status).Inc()
}
