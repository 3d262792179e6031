package main

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/uber-go/tally"
	promreporter "github.com/uber-go/tally/prometheus"
)

var (
	operationCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "zktap_operations_total",
		Help: "ZooKeeper requests observed, by operation.",
	}, []string{"operation"})

	operationHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: "zktap_operation_latency_seconds",
		Help: "Request to response latency, by operation.",
	}, []string{"operation"})

	requestBytesCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "zktap_request_bytes_total",
		Help: "Decoded request bytes flowing client to server.",
	})

	responseBytesCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "zktap_response_bytes_total",
		Help: "Decoded response bytes flowing server to client.",
	})

	watchEventCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "zktap_watch_events_total",
		Help: "Unsolicited watch notifications pushed by the server.",
	})

	decodeErrorCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "zktap_decode_errors_total",
		Help: "Chunks abandoned because of malformed or unexpected bytes.",
	})
)

func init() {
	prometheus.MustRegister(
		operationCounter,
		operationHistogram,
		requestBytesCounter,
		responseBytesCounter,
		watchEventCounter,
		decodeErrorCounter,
	)
}

type rootScopeFactory func() (tally.Scope, tally.CachedStatsReporter, io.Closer, error)

// RootScope returns the provided metrics scope and stats reporter from the given factory
func RootScope() (tally.Scope, tally.CachedStatsReporter, io.Closer) {
	return newRootScope(getRootScope)
}

func newRootScope(scopeFactory rootScopeFactory) (tally.Scope, tally.CachedStatsReporter, io.Closer) {
	scope, reporter, closer, err := scopeFactory()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize metrics reporter %v", err))
	}
	return scope, reporter, closer
}

func getRootScope() (tally.Scope, tally.CachedStatsReporter, io.Closer, error) {
	reporter := promreporter.NewReporter(promreporter.Options{
		Registerer: prometheus.DefaultRegisterer,
	})
	scope, closer := tally.NewRootScope(tally.ScopeOptions{
		Prefix:         "zktap",
		Tags:           map[string]string{},
		CachedReporter: reporter,
		Separator:      promreporter.DefaultSeparator,
	}, 1*time.Second)
	return scope, reporter, closer, nil
}
