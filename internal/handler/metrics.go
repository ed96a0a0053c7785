package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	authAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyai_auth_attempts_total",
			Help: "Bearer token checks by transport and outcome.",
		},
		[]string{"transport", "status"},
	)

	wsSessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storyai_ws_generation_sessions_active",
		Help: "Websocket generation sessions currently open.",
	})
)
