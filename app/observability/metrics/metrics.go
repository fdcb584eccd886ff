package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
// Make fields public so they can be accessed from other packages.
type AppMetrics struct {
	WebhookEventsTotal          metric.Int64Counter
	CommandsTotal               metric.Int64Counter
	RecommendationsTotal        metric.Int64Counter
	SelectionAttempts           metric.Int64Histogram
	PlacesSearchDurationSeconds metric.Float64Histogram
	PlacesSearchErrorsTotal     metric.Int64Counter
	SessionsExpiredTotal        metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metric instruments ONLY ONCE.
// It gets the Meter from the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("whatever-eat")
		var err error
		m := &AppMetrics{}

		m.WebhookEventsTotal, err = meter.Int64Counter(
			"webhook_events_total",
			metric.WithDescription("Total number of webhook events received, by event type"),
			metric.WithUnit("{event}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create webhook_events_total: %v", err)
		}

		m.CommandsTotal, err = meter.Int64Counter(
			"commands_total",
			metric.WithDescription("Total number of parsed text commands, by command type"),
			metric.WithUnit("{command}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create commands_total: %v", err)
		}

		m.RecommendationsTotal, err = meter.Int64Counter(
			"recommendations_total",
			metric.WithDescription("Total number of restaurant recommendations served"),
			metric.WithUnit("{recommendation}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create recommendations_total: %v", err)
		}

		m.SelectionAttempts, err = meter.Int64Histogram(
			"selection_attempts",
			metric.WithDescription("Attempts needed to find an open venue per recommendation"),
			metric.WithUnit("{attempt}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create selection_attempts: %v", err)
		}

		m.PlacesSearchDurationSeconds, err = meter.Float64Histogram(
			"places_search_duration_seconds",
			metric.WithDescription("Duration of nearby-search calls in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create places_search_duration_seconds: %v", err)
		}

		m.PlacesSearchErrorsTotal, err = meter.Int64Counter(
			"places_search_errors_total",
			metric.WithDescription("Total number of failed nearby-search calls"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create places_search_errors_total: %v", err)
		}

		m.SessionsExpiredTotal, err = meter.Int64Counter(
			"sessions_expired_total",
			metric.WithDescription("Total number of sessions removed by the expiry sweep"),
			metric.WithUnit("{session}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create sessions_expired_total: %v", err)
		}

		appMetrics = m
	})
}

// Get returns the initialized metrics instance, initializing lazily if the
// bootstrap has not run yet (tests).
func Get() *AppMetrics {
	if appMetrics == nil {
		InitAppMetrics()
	}
	return appMetrics
}
