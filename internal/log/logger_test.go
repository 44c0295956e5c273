package log_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aedificium/roomsolve/internal/log"
)

func TestLoggerLogTrialfln(t *testing.T) {
	var buf bytes.Buffer
	l := log.New(&buf)
	l.LogTrialfln("trial %d failed: %s", 3, "timeout")
	assert.Equal(t, "roomsolve: trial 3 failed: timeout\n", buf.String())
}

func TestTracerNoopWithoutLogger(t *testing.T) {
	tr := log.NewTracer(nil)
	assert.False(t, tr.Enabled())
	tr.Tracef("should not panic %d", 1)
}

func TestTracerWritesWhenEnabled(t *testing.T) {
	var buf bytes.Buffer
	tr := log.NewTracer(log.New(&buf))
	assert.True(t, tr.Enabled())
	tr.Tracef("assign room %d at walk position %d", 2, 7)
	assert.Equal(t, "assign room 2 at walk position 7\n", buf.String())
}
