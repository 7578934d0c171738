package metrics

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ListedDappsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "listed_dapps",
		Help: "Number of dapps returned by the latest full registry listing.",
	})

	MalformedDappCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "malformed_dapps_dropped_total",
		Help: "Registry entries dropped from listings because their on-ledger shape was malformed.",
	})

	BlobStoreFallbackCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "blob_store_endpoint_fallbacks_total",
		Help: "Blob store requests that fell through to the next configured endpoint.",
	})

	BlobStoreExhaustedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "blob_store_endpoints_exhausted_total",
		Help: "Blob store requests that failed on every configured endpoint.",
	})

	RegistrationSubmittedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "registrations_submitted_total",
		Help: "Register transactions submitted by bulk registration jobs.",
	})

	RegistrationFailedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "registrations_failed_total",
		Help: "Register transactions that ended in a failed status.",
	})

	DeletionCommittedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "deletions_committed_total",
		Help: "Delete transactions committed after their undo window elapsed.",
	})

	DeletionCanceledCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "deletions_canceled_total",
		Help: "Scheduled deletions canceled before the undo window elapsed.",
	})

	MetricsItems = []prometheus.Collector{
		ListedDappsGauge,
		MalformedDappCounter,
		BlobStoreFallbackCounter,
		BlobStoreExhaustedCounter,
		RegistrationSubmittedCounter,
		RegistrationFailedCounter,
		DeletionCommittedCounter,
		DeletionCanceledCounter,
	}
)

const DefaultMetricsAddress = "0.0.0.0:9090"

type Metrics struct {
	httpAddress string
	registry    *prometheus.Registry
	httpServer  *http.Server
}

func NewMetrics(address string) *Metrics {
	if address == "" {
		address = DefaultMetricsAddress
	}
	return &Metrics{
		httpAddress: address,
		registry:    prometheus.NewRegistry(),
	}
}

func (m *Metrics) Start() {
	m.registry.MustRegister(MetricsItems...)
	go m.serve()
}

func (m *Metrics) serve() {
	router := mux.NewRouter()
	router.Path("/metrics").Handler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	m.httpServer = &http.Server{
		Addr:    m.httpAddress,
		Handler: router,
	}
	if err := m.httpServer.ListenAndServe(); err != nil {
		panic(err)
	}
}
