package logic

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics
var (
	trainingRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "huddle_training_runs_total",
		Help: "Total number of full training replays completed",
	})

	ratingUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "huddle_rating_updates_total",
		Help: "Total number of per-game rating updates applied",
	})

	predictionsComputed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "huddle_predictions_total",
		Help: "Total number of game predictions computed",
	})

	trainingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "huddle_training_duration_seconds",
		Help:    "Duration of full training replays",
		Buckets: prometheus.DefBuckets,
	})

	teamsTracked = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "huddle_teams_tracked",
		Help: "Number of teams with an in-memory rating",
	})
)
