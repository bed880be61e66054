package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentation_CopyCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	instr := NewInstrumentationWithRegisterer("blockcoach", "test", reg)
	require.NotNil(t, instr)

	instr.CopyDone("block", nil)
	instr.CopyDone("block", nil)
	instr.CopyDone("template", errors.New("boom"))
	instr.RolledBack()

	assert.Equal(t, 2.0, testutil.ToFloat64(instr.CounterProgramCopies.WithLabelValues("block", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(instr.CounterProgramCopies.WithLabelValues("template", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(instr.CounterCopyRollbacks))
}

func TestNewTestInstrumentation_Isolated(t *testing.T) {
	// each call registers on a fresh registry, so repeated construction must not panic
	assert.NotPanics(t, func() {
		NewTestInstrumentation()
		NewTestInstrumentation()
	})
}
