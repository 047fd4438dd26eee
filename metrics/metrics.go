// Package metrics defines the prometheus metric types shared by the ovey
// daemon and coordinator processes.
//
// When defining new operations or metrics, these are helpful values to
// track:
//   - things coming into or going out of the system: OCP requests, kernel
//     channel packets, coordinator HTTP calls.
//   - the success or error status of any of the above.
//   - the distribution of processing latency.
package metrics

import (
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OcpRequestDuration tracks round-trip latency of an S_DK genetlink
	// request, labeled by the operation name (echo, create_device, ...).
	OcpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "ovey_ocp_request_duration_seconds",
			Help: "genetlink request/reply round-trip latency, by operation",
			Buckets: []float64{
				0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005,
				0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1,
			},
		},
		[]string{"op"})

	// OcpRequestCount counts every S_DK request sent, by operation and
	// outcome ("ok" or "error").
	OcpRequestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ovey_ocp_requests_total",
			Help: "Number of genetlink requests sent to the kernel module.",
		},
		[]string{"op", "result"})

	// KernelRequestDuration tracks the time between reading a request
	// packet off the character device and writing its response.
	KernelRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ovey_kernel_request_duration_seconds",
			Help:    "Time spent servicing one kernel-request-channel packet, by command.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"cmd"})

	// KernelRequestCount counts every packet read off the character
	// device, by command and outcome.
	KernelRequestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ovey_kernel_requests_total",
			Help: "Number of kernel-request-channel packets serviced.",
		},
		[]string{"cmd", "result"})

	// CoordinatorRequestDuration tracks daemon -> coordinator HTTP call
	// latency, by operation and response status.
	CoordinatorRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ovey_coordinator_request_duration_seconds",
			Help:    "Daemon-to-coordinator HTTP request latency, by operation.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op", "status"})

	// CoordinatorHTTPRequests counts every request the coordinator's own
	// HTTP server handled, by route and status.
	CoordinatorHTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ovey_coordinator_http_requests_total",
			Help: "Requests handled by the coordinator REST API, by route and status.",
		},
		[]string{"route", "status"})

	// StoreSize tracks the number of leased devices known to the
	// coordinator's in-memory store, by network.
	StoreSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ovey_coordinator_devices",
			Help: "Number of devices currently leased, by network.",
		},
		[]string{"network"})
)

// init logs a line confirming metric registration, the same confirmation
// the teacher's own metrics package prints on load — registration happens
// as soon as this package is imported, and callers relying on the side
// effect should know it occurred.
func init() {
	log.Println("Prometheus metrics in ovey/metrics are registered.")
}
