package station

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fleet stands in for several workloads behind one test server. Requests are
// routed by host name; hosts listed in failing answer 500 on every route.
type fleet struct {
	mu      sync.Mutex
	calls   []string
	failing map[string]bool
}

func (f *fleet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	host, _, _ := net.SplitHostPort(r.Host)
	f.mu.Lock()
	f.calls = append(f.calls, host+r.URL.Path)
	f.mu.Unlock()

	if f.failing[host] || r.URL.Path == "/stress" {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Stress test failed\n"))
		return
	}
	w.WriteHeader(http.StatusOK)
}

// startFleet returns a client that dials the test server for any host, and
// the port to use.
func startFleet(t *testing.T, f *fleet) (*http.Client, int) {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	addr := srv.Listener.Addr().String()
	_, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	transport := &http.Transport{
		DialContext: func(ctx context.Context, network, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, addr)
		},
	}
	t.Cleanup(transport.CloseIdleConnections)
	return &http.Client{Transport: transport}, port
}

func TestURL(t *testing.T) {
	tests := []struct {
		station  string
		expected string
	}{
		{"test", "http://billing:8080/regression"},
		{"stage", "http://billing:8080/stress"},
		{"prod", "http://billing:8080/smoke"},
	}

	for _, tt := range tests {
		t.Run(tt.station, func(t *testing.T) {
			url, err := URL(tt.station, "billing", DefaultPort)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, url)
		})
	}
}

func TestURL_UnknownStation(t *testing.T) {
	_, err := URL("qa", "billing", DefaultPort)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownStation)
	assert.Contains(t, err.Error(), "prod, stage, test")
}

func TestValidStations(t *testing.T) {
	assert.Equal(t, []string{"prod", "stage", "test"}, ValidStations())
}

func TestRun_AllHostsPass(t *testing.T) {
	f := &fleet{}
	client, port := startFleet(t, f)

	err := Run(context.Background(), client, "test", DefaultHosts, WithPort(port))
	require.NoError(t, err)
	assert.Equal(t, []string{"billing/regression", "auth/regression", "logging/regression"}, f.calls)
}

func TestRun_ProdUsesSmoke(t *testing.T) {
	f := &fleet{}
	client, port := startFleet(t, f)

	require.NoError(t, Run(context.Background(), client, "prod", []string{"billing"}, WithPort(port)))
	assert.Equal(t, []string{"billing/smoke"}, f.calls)
}

func TestRun_StageAlwaysFails(t *testing.T) {
	f := &fleet{}
	client, port := startFleet(t, f)

	err := Run(context.Background(), client, "stage", DefaultHosts, WithPort(port))
	require.Error(t, err)

	var hostErr *HostError
	require.True(t, errors.As(err, &hostErr))
	assert.Equal(t, "billing", hostErr.Host)
	assert.Equal(t, http.StatusInternalServerError, hostErr.Status)
	assert.Equal(t, "Stress test failed\n", hostErr.Body)
	assert.Len(t, f.calls, 1, "run stops at the first failure")
}

func TestRun_StopsAtFailingHost(t *testing.T) {
	f := &fleet{failing: map[string]bool{"auth": true}}
	client, port := startFleet(t, f)

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	err := Run(context.Background(), client, "test", DefaultHosts, WithPort(port), WithLogger(log))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth")
	assert.Equal(t, []string{"billing/regression", "auth/regression"}, f.calls)
	assert.Contains(t, buf.String(), "Test passed")
	assert.Contains(t, buf.String(), "Test failed")
}

func TestRun_TransportError(t *testing.T) {
	// Reserve a port and close it so nothing is listening.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	err = Run(context.Background(), nil, "test", []string{"127.0.0.1"}, WithPort(port))
	require.Error(t, err)

	var hostErr *HostError
	require.True(t, errors.As(err, &hostErr))
	assert.Equal(t, "127.0.0.1", hostErr.Host)
	assert.NotNil(t, hostErr.Err)
	assert.Zero(t, hostErr.Status)
}

func TestRun_UnknownStation(t *testing.T) {
	f := &fleet{}
	client, port := startFleet(t, f)

	err := Run(context.Background(), client, "qa", DefaultHosts, WithPort(port))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownStation)
	assert.Empty(t, f.calls)
}

func TestRun_CancelledContext(t *testing.T) {
	f := &fleet{}
	client, port := startFleet(t, f)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Run(ctx, client, "test", DefaultHosts, WithPort(port))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHostError_Message(t *testing.T) {
	err := &HostError{Host: "billing", URL: "http://billing:8080/smoke", Status: 503}
	assert.Equal(t, "station check failed for billing (http://billing:8080/smoke): status 503", err.Error())

	cause := errors.New("connection refused")
	err = &HostError{Host: "auth", URL: "http://auth:8080/smoke", Err: cause}
	assert.True(t, strings.HasSuffix(err.Error(), "connection refused"))
	assert.ErrorIs(t, err, cause)
}
