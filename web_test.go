/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Seednode/roshambo/roshambo"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	cfg *Config
	co  *roshambo.Coordinator
	srv *httptest.Server
}

func newTestServer(t *testing.T, leaderboard string) *testServer {
	t.Helper()

	path := filepath.Join(t.TempDir(), "leaderboard.txt")
	if leaderboard != "" {
		require.NoError(t, os.WriteFile(path, []byte(leaderboard), 0o644))
	}

	cfg := validConfig()
	cfg.leaderboard = path
	cfg.tick = 5 * time.Millisecond

	co, err := roshambo.New(context.Background(), roshambo.NewFileScoreboard(path), roshambo.Options{
		Capacity:       cfg.capacity,
		CountdownSteps: cfg.countdown,
		Tick:           cfg.tick,
		RestartDelay:   cfg.restartDelay,
		Rate:           rateLimit(cfg.rate),
		Burst:          cfg.burst,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go co.Run(ctx)

	errs := make(chan error, 64)
	srv := httptest.NewServer(newRouter(cfg, co, errs))

	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-co.Done()
	})

	return &testServer{cfg: cfg, co: co, srv: srv}
}

func (ts *testServer) get(t *testing.T, path string) (*http.Response, []byte) {
	t.Helper()

	resp, err := http.Get(ts.srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, body
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t, "")

	resp, body := ts.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Ok\n", string(body))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
}

func TestVersion(t *testing.T) {
	ts := newTestServer(t, "")

	_, body := ts.get(t, "/version")
	assert.Equal(t, "roshambo v"+releaseVersion+"\n", string(body))
}

func TestHomePage(t *testing.T) {
	ts := newTestServer(t, "")

	resp, body := ts.get(t, "/")
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, string(body), "<title>roshambo</title>")
	assert.Contains(t, string(body), "ws://"+strings.TrimPrefix(ts.srv.URL, "http://")+"/ws")
}

func TestRobots(t *testing.T) {
	ts := newTestServer(t, "")

	_, body := ts.get(t, "/robots.txt")
	assert.Contains(t, string(body), "User-agent: GPTBot")
}

func TestLeaderboard(t *testing.T) {
	ts := newTestServer(t, "alice,2\nbob,5\ncarol,2\n")

	resp, body := ts.get(t, "/leaderboard")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))

	var standings []roshambo.Standing
	require.NoError(t, json.Unmarshal(body, &standings))
	assert.Equal(t, []roshambo.Standing{
		{Name: "bob", Wins: 5},
		{Name: "alice", Wins: 2},
		{Name: "carol", Wins: 2},
	}, standings)
}

func TestStatus(t *testing.T) {
	ts := newTestServer(t, "")

	_, body := ts.get(t, "/status")

	var st roshambo.Status
	require.NoError(t, json.Unmarshal(body, &st))
	assert.Equal(t, 4, st.Capacity)
	assert.Empty(t, st.Active)
	assert.False(t, st.MatchRunning)
}

func TestQRCode(t *testing.T) {
	ts := newTestServer(t, "")

	resp, body := ts.get(t, "/qr")
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(body, []byte("\x89PNG\r\n\x1a\n")))
}

func TestWebSocketJoin(t *testing.T) {
	ts := newTestServer(t, "")

	url := "ws" + strings.TrimPrefix(ts.srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("name:alice")))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, roshambo.MsgWelcome, string(msg))

	require.Eventually(t, func() bool {
		st, err := ts.co.Status(context.Background())
		return err == nil && len(st.Active) == 1 && st.Active[0] == "alice"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestTCPJoin(t *testing.T) {
	ts := newTestServer(t, "")
	ts.cfg.bind = "127.0.0.1"
	ts.cfg.port = 0

	ln, err := listenGame(ts.cfg)
	require.NoError(t, err)
	defer ln.Close()

	go acceptPlayers(ts.cfg, ln, ts.co)

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = io.WriteString(conn, "name:bob\r\n")
	require.NoError(t, err)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := bufio.NewReader(conn).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, roshambo.MsgWelcome+"\n", line)
}

type failingListener struct {
	net.Listener
	failures int
	accepts  int
	times    []time.Time
}

func (l *failingListener) Accept() (net.Conn, error) {
	l.accepts++
	l.times = append(l.times, time.Now())
	if l.accepts > l.failures {
		return nil, net.ErrClosed
	}

	return nil, &net.OpError{Op: "accept", Net: "tcp", Err: os.ErrDeadlineExceeded}
}

func TestAcceptPlayersBacksOff(t *testing.T) {
	ln := &failingListener{failures: 4}

	done := make(chan struct{})
	go func() {
		acceptPlayers(&Config{}, ln, nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("acceptPlayers did not return after the listener closed")
	}

	require.Len(t, ln.times, 5)
	// 5ms, 10ms, 20ms, 40ms between consecutive failures.
	for i, want := range []time.Duration{5, 10, 20, 40} {
		gap := ln.times[i+1].Sub(ln.times[i])
		assert.GreaterOrEqual(t, gap, want*time.Millisecond, "gap after failure %d", i+1)
	}
}

func TestByteCount(t *testing.T) {
	assert.Equal(t, "0 B", byteCount(0))
	assert.Equal(t, "999 B", byteCount(999))
	assert.Equal(t, "1.5 kB", byteCount(1500))
	assert.Equal(t, "2.0 MB", byteCount(2_000_000))
}

func TestProfileHandlersRegistered(t *testing.T) {
	cfg := &Config{prefix: "/game"}
	mux := httprouter.New()

	registerProfileHandlers(cfg, mux)

	for _, name := range append(namedProfiles, "cmdline", "symbol") {
		handle, _, _ := mux.Lookup(http.MethodGet, "/game/pprof/"+name)
		assert.NotNil(t, handle, "missing /pprof/%s", name)
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/game/pprof/goroutine?debug=1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "goroutine profile")
}
