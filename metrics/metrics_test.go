package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

var (
	_ Recorder = (*PrometheusMetrics)(nil)
	_ Recorder = NoOpMetrics{}
)

func TestPrometheusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheusMetrics(reg)
	ctx := context.Background()

	m.RecordSlotsFilled(ctx, models.FormatDoubleElimMsi, 2)
	m.RecordSlotsFilled(ctx, models.FormatDoubleElimMsi, 0)
	m.RecordSlotConflict(ctx, models.FormatDoubleElimMsi)
	m.RecordCommand(ctx, "report_result", 5*time.Millisecond, nil)
	m.RecordCommand(ctx, "report_result", 5*time.Millisecond, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.slotsFilled.WithLabelValues(string(models.FormatDoubleElimMsi))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.slotConflicts.WithLabelValues(string(models.FormatDoubleElimMsi))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.commandErrors.WithLabelValues("report_result")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.commandDuration))
}
