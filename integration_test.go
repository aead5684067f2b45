// End-to-end coverage exercising the whole pipeline together: a UDP
// datagram in, the registry and admin surface reflecting it, a flush tick
// carrying it to a carbon receiver and resetting per-flush state.
package statsgod_test

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cc-metrics/statsgod/internal/admin"
	"github.com/cc-metrics/statsgod/internal/aggregate"
	"github.com/cc-metrics/statsgod/internal/ingest"
	"github.com/cc-metrics/statsgod/internal/registry"
	"github.com/cc-metrics/statsgod/internal/sink"
)

func TestUDPSampleVisibleOverAdminAndFlushedToGraphite(t *testing.T) {
	udpConn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	reg := registry.New()
	stats := &ingest.Stats{}
	listener := ingest.NewListener(udpConn, reg, stats)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go listener.Serve(ctx)

	client, err := net.Dial("udp", udpConn.LocalAddr().String())
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Write([]byte("api.requests:1|c\napi.requests:1|c\napi.latency:42|ms\nonline.users:u1|s\nonline.users:u2|s\n"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, ok := reg.Lookup("api.requests")
		return ok
	}, time.Second, 5*time.Millisecond)

	admSrv := admin.New(reg)

	rr := httptest.NewRecorder()
	admSrv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/counters/api.requests", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, float64(2), body["value"])

	rrSet := httptest.NewRecorder()
	admSrv.Handler().ServeHTTP(rrSet, httptest.NewRequest(http.MethodGet, "/sets/online.users", nil))
	require.Equal(t, http.StatusOK, rrSet.Code)
	var setBody map[string]any
	require.NoError(t, json.Unmarshal(rrSet.Body.Bytes(), &setBody))
	assert.Equal(t, []any{"u1", "u2"}, setBody["values"])

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	lineCh := make(chan string, 32)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 4096)
		n, err := conn.Read(buf)
		if err != nil {
			return
		}
		lineCh <- string(buf[:n])
	}()

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	graphite := sink.NewClient("graphite", host, port, "", 50*time.Millisecond)
	graphiteCtx, graphiteCancel := context.WithCancel(context.Background())
	defer graphiteCancel()
	go graphite.Run(graphiteCtx)

	require.Eventually(t, func() bool { return graphite.State() == sink.Connected }, time.Second, 5*time.Millisecond)

	flusher := &sink.Flusher{Registry: reg, Client: graphite}
	flusher.Tick()

	select {
	case payload := <-lineCh:
		assert.Contains(t, payload, "api.requests 2 ")
		assert.Contains(t, payload, "api.latency.count 1 ")
		assert.Contains(t, payload, "online.users.count 2 ")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for flushed payload")
	}

	rr2 := httptest.NewRecorder()
	admSrv.Handler().ServeHTTP(rr2, httptest.NewRequest(http.MethodGet, "/counters/api.requests", nil))
	var body2 map[string]any
	require.NoError(t, json.Unmarshal(rr2.Body.Bytes(), &body2))
	assert.Equal(t, float64(0), body2["value"], "counter resets after flush")
}

func TestDeletedMetricStopsAppearingInListAndFlush(t *testing.T) {
	reg := registry.New()
	_, err := reg.GetOrCreate("temp.counter", aggregate.Counter, time.Now())
	require.NoError(t, err)

	admSrv := admin.New(reg)
	rr := httptest.NewRecorder()
	admSrv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/counters/temp.counter", nil))
	require.Equal(t, http.StatusNoContent, rr.Code)

	var names []string
	rr2 := httptest.NewRecorder()
	admSrv.Handler().ServeHTTP(rr2, httptest.NewRequest(http.MethodGet, "/counters", nil))
	require.NoError(t, json.Unmarshal(rr2.Body.Bytes(), &names))
	assert.Empty(t, names)
}
