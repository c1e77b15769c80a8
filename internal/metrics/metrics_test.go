package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weiawesome/thumbnail-service/internal/processor"
)

func TestPrometheusObserverCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	o, err := NewPrometheusObserver("", reg)
	require.NoError(t, err)

	o.ObserveRecord(processor.StatusProcessed, 20*time.Millisecond)
	o.ObserveRecord(processor.StatusProcessed, 30*time.Millisecond)
	o.ObserveRecord(processor.StatusSkipped, time.Millisecond)
	o.ObserveNotifyError()

	assert.Equal(t, 2.0, testutil.ToFloat64(o.records.WithLabelValues("processed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.records.WithLabelValues("skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.notifyErrors))
}

func TestPrometheusObserverReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPrometheusObserver("thumbnailer", reg)
	require.NoError(t, err)
	second, err := NewPrometheusObserver("thumbnailer", reg)
	require.NoError(t, err)

	second.ObserveNotifyError()
	assert.Equal(t, 1.0, testutil.ToFloat64(first.notifyErrors))
}
