package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JPM1118/matthumb/internal/drain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_CountsByOutcome(t *testing.T) {
	r, err := NewRecorder()
	require.NoError(t, err)

	r.OnStep(drain.Step{Outcome: drain.OutcomeWaiting})
	r.OnStep(drain.Step{Outcome: drain.OutcomeWritten, Elapsed: 20 * time.Millisecond})
	r.OnStep(drain.Step{Outcome: drain.OutcomeSkipped})
	r.OnStep(drain.Step{Outcome: drain.OutcomeNone})

	assert.Equal(t, 1.0, testutil.ToFloat64(r.items.WithLabelValues("written")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.items.WithLabelValues("skipped")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.items.WithLabelValues("waiting")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ticks.WithLabelValues("waiting")))
	assert.Equal(t, 3, testutil.CollectAndCount(r.ticks))
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r, err := NewRecorder()
	require.NoError(t, err)
	r.OnStep(drain.Step{Outcome: drain.OutcomeExpired, Elapsed: time.Second})

	path := filepath.Join(t.TempDir(), "matthumb.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `matthumb_items_total{outcome="expired"} 1`), string(data))
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	r.OnStep(drain.Step{Outcome: drain.OutcomeWritten})
	assert.NoError(t, r.WriteTextfile("/nonexistent/x.prom"))
}
