// Package metrics provides Prometheus instrumentation for the forum backend.
// It exposes counters for moderation verdicts and provider failures, a
// histogram of per-stage latency, and counters for the daily word game.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ModerationVerdicts counts final moderation decisions by the source that
	// produced them and whether the text was held.
	ModerationVerdicts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "forum_moderation_verdicts_total",
		Help: "Total number of moderation decisions",
	}, []string{"source", "unsafe"})

	// ModerationStageFailures counts cascade stages that gave no verdict
	// because of an error. reason = "timeout", "status", "error".
	ModerationStageFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "forum_moderation_stage_failures_total",
		Help: "Total number of moderation stage failures",
	}, []string{"stage", "reason"})

	// ModerationStageLatency records how long each cascade stage took.
	ModerationStageLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "forum_moderation_stage_latency_seconds",
		Help:    "Moderation stage latency in seconds",
		Buckets: []float64{.0005, .001, .005, .025, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"stage"})

	// WordleGuesses counts submitted guesses by outcome:
	// "accepted", "invalid_guess", "invalid_word", "already_completed", "limit".
	WordleGuesses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "forum_wordle_guesses_total",
		Help: "Total number of word game guesses",
	}, []string{"outcome"})

	// WordleCompletions counts finished games, result = "won" or "lost".
	WordleCompletions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "forum_wordle_completions_total",
		Help: "Total number of completed word games",
	}, []string{"result"})

	// WordGeneration counts daily words by origin: "gemini", "fallback", "admin".
	WordGeneration = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "forum_wordle_word_generation_total",
		Help: "Total number of daily words created",
	}, []string{"source"})
)

func init() {
	prometheus.MustRegister(
		ModerationVerdicts,
		ModerationStageFailures,
		ModerationStageLatency,
		WordleGuesses,
		WordleCompletions,
		WordGeneration,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
