// Package metrics exposes Prometheus instrumentation for the keydeck server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LicenseChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keydeck_license_checks_total",
			Help: "Total license checks by outcome",
		},
		[]string{"outcome"}, // ok, transport_error
	)

	LicenseGateChangesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "keydeck_license_gate_changes_total",
			Help: "Times the active/inactive gate flipped",
		},
	)

	LicensePromptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keydeck_license_prompts_total",
			Help: "Activation dialog auto-pops by status",
		},
		[]string{"status"},
	)

	ActivationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keydeck_activations_total",
			Help: "Activation submissions by outcome",
		},
		[]string{"outcome"}, // success, rejected, validation, transport_error
	)

	CodeFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keydeck_code_fetches_total",
			Help: "Guard code fetches by result",
		},
		[]string{"result"}, // ok, too_old, no_match, license_error, error
	)

	CatalogSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "keydeck_catalog_items",
			Help: "Items in the current catalog",
		},
	)

	WebSocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "keydeck_websocket_clients",
			Help: "Connected WebSocket clients",
		},
	)
)

// RecordLicenseCheck records one license check outcome.
func RecordLicenseCheck(ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "transport_error"
	}
	LicenseChecksTotal.WithLabelValues(outcome).Inc()
}

// RecordPrompt records an activation dialog auto-pop.
func RecordPrompt(status string) {
	LicensePromptsTotal.WithLabelValues(status).Inc()
}
