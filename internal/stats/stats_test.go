package stats

import (
	"expvar"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsUpdater(t *testing.T) {
	mux := http.NewServeMux()
	su := NewStatsUpdater(mux)
	require.NotNil(t, su)
	require.NotNil(t, su.updateChan)

	handler, pattern := mux.Handler(&http.Request{URL: &url.URL{Path: "/debug/vars"}, Method: http.MethodGet})
	assert.NotNil(t, handler, "expected handler for /debug/vars to be set")
	assert.Equal(t, "GET /debug/vars", pattern)

	su.RegisterMetric("ActiveRooms")

	su.Run()
	defer su.Stop()

	su.Incr("ActiveRooms")
	su.Incr("ActiveRooms")
	su.Decr("ActiveRooms")

	assert.Eventually(t, func() bool {
		metric, ok := su.vars.Get("ActiveRooms").(*expvar.Int)
		return ok && metric.Value() == 1
	}, time.Second, 10*time.Millisecond, "expected metric to settle at 1")
}
