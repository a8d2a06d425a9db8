package tap

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var metricsNamespace = "kafkatap"

var (
	recordsConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name:      "records_consumed_total",
		Namespace: metricsNamespace,
		Help:      "The total number of records consumed",
	}, []string{"partition"})

	bytesWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name:      "bytes_written_total",
		Namespace: metricsNamespace,
		Help:      "The total number of payload bytes written to the sink",
	}, nil)

	deliveryErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name:      "delivery_error_total",
		Namespace: metricsNamespace,
		Help:      "Total number of non-EOF delivery errors",
	}, nil)

	partitionsAtEOF = promauto.NewGauge(prometheus.GaugeOpts{
		Name:      "partitions_at_eof",
		Namespace: metricsNamespace,
		Help:      "Number of tracked partitions that reached end-of-log",
	})
)
