package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/weiawesome/thumbnail-service/internal/processor"
)

// PrometheusObserver exports per-record processor metrics.
type PrometheusObserver struct {
	records         *prometheus.CounterVec
	processDuration *prometheus.HistogramVec
	notifyErrors    prometheus.Counter
}

// NewPrometheusObserver registers the thumbnailer metrics on reg
// (the default registerer when nil).
func NewPrometheusObserver(namespace string, reg prometheus.Registerer) (*PrometheusObserver, error) {
	if namespace == "" {
		namespace = "thumbnailer"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	o := &PrometheusObserver{
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Bucket notification records handled, by outcome.",
		}, []string{"status"}),
		processDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "process_duration_seconds",
			Help:      "Time spent on one record from classification to notification.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		notifyErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notify_errors_total",
			Help:      "Thumbnail announcements that failed.",
		}),
	}

	var err error
	o.records, err = register(reg, o.records)
	if err != nil {
		return nil, err
	}
	o.processDuration, err = register(reg, o.processDuration)
	if err != nil {
		return nil, err
	}
	o.notifyErrors, err = register(reg, o.notifyErrors)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// register adopts an already registered collector of the same shape.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		var zero C
		return zero, fmt.Errorf("register thumbnailer metric: %w", err)
	}
	return c, nil
}

// ObserveRecord implements processor.Observer.
func (o *PrometheusObserver) ObserveRecord(status processor.Status, elapsed time.Duration) {
	o.records.WithLabelValues(string(status)).Inc()
	o.processDuration.WithLabelValues(string(status)).Observe(elapsed.Seconds())
}

// ObserveNotifyError implements processor.Observer.
func (o *PrometheusObserver) ObserveNotifyError() {
	o.notifyErrors.Inc()
}
