package metrics

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMetricsServerDisabledOnEmptyAddr(t *testing.T) {
	m := New("", nil)
	m.Start()
	require.NoError(t, m.Shutdown(context.Background()))
}

func TestMetricsServerSurvivesListenFailure(t *testing.T) {
	// Occupy a port so the metrics listener fails to bind. The failure
	// must be logged, not crash the process.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	m := New(ln.Addr().String(), nil)
	m.Start()
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, m.Shutdown(context.Background()))
}
