// Package telemetry registers the Prometheus metrics the bot reports.
// Fan-out branch faults land here: a branch failure is never surfaced to
// chat, so the counters are how operators see them.
package telemetry

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	MessagesHandled  prometheus.Counter
	BranchFaults     *prometheus.CounterVec
	CommandsInvoked  *prometheus.CounterVec
	DeliveryFailures *prometheus.CounterVec
	HandleDuration   prometheus.Observer
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		MessagesHandled = promauto.NewCounter(prometheus.CounterOpts{
			Name: "sintia_messages_handled_total",
			Help: "Number of inbound messages fanned out",
		})
		BranchFaults = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sintia_fanout_branch_faults_total",
			Help: "Number of fan-out branch failures by branch",
		}, []string{"branch"})
		CommandsInvoked = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sintia_commands_invoked_total",
			Help: "Number of command invocations by trigger",
		}, []string{"trigger"})
		DeliveryFailures = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sintia_delivery_failures_total",
			Help: "Number of failed transport deliveries by endpoint",
		}, []string{"endpoint"})
		HandleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sintia_message_handle_duration_seconds",
			Help:    "Joint fan-out completion time per message",
			Buckets: prometheus.DefBuckets,
		})
	})
}

// BranchFault records a fault for one fan-out branch.
func BranchFault(branch string) {
	if BranchFaults != nil {
		BranchFaults.WithLabelValues(branch).Inc()
	}
}

// MessageHandled counts one fanned-out inbound message.
func MessageHandled() {
	if MessagesHandled != nil {
		MessagesHandled.Inc()
	}
}

// CommandInvoked counts one dispatched command by trigger.
func CommandInvoked(trigger string) {
	if CommandsInvoked != nil {
		CommandsInvoked.WithLabelValues(trigger).Inc()
	}
}

// DeliveryFailure counts one failed transport delivery.
func DeliveryFailure(endpoint string) {
	if DeliveryFailures != nil {
		DeliveryFailures.WithLabelValues(endpoint).Inc()
	}
}

// ObserveHandle records the joint fan-out completion time.
func ObserveHandle(d time.Duration) {
	if HandleDuration != nil {
		HandleDuration.Observe(d.Seconds())
	}
}

// Serve exposes /metrics on addr. Blocks until the server fails.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return server.ListenAndServe()
}
