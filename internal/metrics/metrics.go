package metrics

import (
    "sync"
    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/collectors"
)

var (
    // Registry is the dedicated Prometheus registry for the API
    Registry = prometheus.NewRegistry()
    // HTTPRequests counts requests by method, path, and status
    HTTPRequests = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
        []string{"method", "path", "status"},
    )
    // HTTPDuration records request durations in seconds
    HTTPDuration = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
        []string{"method", "path", "status"},
    )

    // OptimizationRuns counts engine runs by algorithm and outcome
    OptimizationRuns = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "optimization_runs_total", Help: "Optimization runs by algorithm and outcome."},
        []string{"algorithm", "status"},
    )
    // OptimizationDuration tracks engine run durations in seconds
    OptimizationDuration = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{Name: "optimization_duration_seconds", Help: "Optimization run duration in seconds.", Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30, 120, 300}},
        []string{"algorithm"},
    )
    // ClientsServed tracks how many clients each run assigned
    ClientsServed = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{Name: "optimization_clients_served", Help: "Clients served per optimization run.", Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250}},
        []string{"algorithm"},
    )
    // SearchTimeouts counts runs cut off by the search time limit
    SearchTimeouts = prometheus.NewCounter(
        prometheus.CounterOpts{Name: "optimization_search_timeouts_total", Help: "Runs that hit the exact-search time limit."},
    )
)

// RegisterDefault registers collectors to the default registry.
func RegisterDefault() {
    regOnce.Do(func(){
        Registry.MustRegister(HTTPRequests)
        Registry.MustRegister(HTTPDuration)
        Registry.MustRegister(OptimizationRuns)
        Registry.MustRegister(OptimizationDuration)
        Registry.MustRegister(ClientsServed)
        Registry.MustRegister(SearchTimeouts)
        // Go/process collectors on our registry
        Registry.MustRegister(collectors.NewGoCollector())
        Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
    })
}

var regOnce sync.Once
