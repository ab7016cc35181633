// SPDX-License-Identifier: MIT
package transport

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lipsync/internal/viseme"
	"lipsync/pkg/utils"
)

func TestEventRendererSequences(t *testing.T) {
	mock := &utils.MockTransport{}
	r := NewEventRenderer(mock, func() string { return "session-1" })
	r.now = func() time.Time { return time.UnixMilli(5000) }

	r.RenderViseme(viseme.Ah)
	r.RenderViseme(viseme.Closed)

	sent := mock.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, viseme.Event{Viseme: viseme.Ah, Seq: 1, Timestamp: 5000, Session: "session-1"}, sent[0])
	assert.Equal(t, viseme.Event{Viseme: viseme.Closed, Seq: 2, Timestamp: 5000, Session: "session-1"}, sent[1])
}

func TestEventRendererWithoutSession(t *testing.T) {
	mock := &utils.MockTransport{}
	NewEventRenderer(mock, nil).RenderViseme(viseme.S)

	sent := mock.Sent()
	require.Len(t, sent, 1)
	assert.Empty(t, sent[0].(viseme.Event).Session)
}

type failingTransport struct{ calls int }

func (f *failingTransport) Send(any) error { f.calls++; return errors.New("full") }
func (f *failingTransport) Close() error   { return errors.New("stuck") }

func TestEventRendererSurvivesSendErrors(t *testing.T) {
	f := &failingTransport{}
	r := NewEventRenderer(f, nil)
	r.RenderViseme(viseme.Ah)
	r.RenderViseme(viseme.Ee)
	assert.Equal(t, 2, f.calls)
	assert.Equal(t, uint64(2), r.seq)
}

func TestLatest(t *testing.T) {
	var l Latest
	label, n := l.Load()
	assert.Equal(t, viseme.Closed, label)
	assert.Zero(t, n)

	l.RenderViseme(viseme.Oo)
	l.RenderViseme(viseme.ChJ)
	label, n = l.Load()
	assert.Equal(t, viseme.ChJ, label)
	assert.Equal(t, uint64(2), n)
}

func TestLatestConcurrent(t *testing.T) {
	var l Latest
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				l.RenderViseme(viseme.LTD)
			}
		}()
	}
	wg.Wait()

	label, n := l.Load()
	assert.Equal(t, viseme.LTD, label)
	assert.Equal(t, uint64(800), n)
}

func TestMulti(t *testing.T) {
	a, b := &utils.MockTransport{}, &utils.MockTransport{}
	f := &failingTransport{}
	m := Multi{a, f, b}

	assert.Error(t, m.Send("x"))
	assert.Len(t, a.Sent(), 1)
	assert.Len(t, b.Sent(), 1)

	assert.Error(t, m.Close())
	assert.True(t, a.Closed())
	assert.True(t, b.Closed())
}

func TestLoggingTransport(t *testing.T) {
	lt := NewLoggingTransport()
	assert.NoError(t, lt.Send(viseme.Event{Viseme: viseme.FV, Seq: 1}))
	assert.NoError(t, lt.Send("anything"))
	assert.NoError(t, lt.Close())
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + WebSocketPath
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitClients(t *testing.T, wst *WebSocketTransport, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return wst.Clients() == n }, 2*time.Second, 5*time.Millisecond)
}

func TestWebSocketBroadcast(t *testing.T) {
	wst := NewWebSocketTransport("127.0.0.1:0")
	defer wst.Close()
	srv := httptest.NewServer(wst.Handler())
	defer srv.Close()

	c1, c2 := dial(t, srv), dial(t, srv)
	waitClients(t, wst, 2)

	ev := viseme.Event{Viseme: viseme.Ee, Seq: 9, Timestamp: 42}
	require.NoError(t, wst.Send(ev))

	for _, c := range []*websocket.Conn{c1, c2} {
		require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, data, err := c.ReadMessage()
		require.NoError(t, err)

		var got viseme.Event
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, ev, got)
		assert.JSONEq(t, `{"viseme":"Ee","seq":9,"timestamp":42}`, string(data))
	}
}

func TestWebSocketClientDisconnect(t *testing.T) {
	wst := NewWebSocketTransport("127.0.0.1:0")
	defer wst.Close()
	srv := httptest.NewServer(wst.Handler())
	defer srv.Close()

	c := dial(t, srv)
	waitClients(t, wst, 1)

	c.Close()
	waitClients(t, wst, 0)
}

func TestWebSocketStartAndClose(t *testing.T) {
	wst := NewWebSocketTransport("127.0.0.1:0")
	require.NoError(t, wst.Start())
	assert.NotEqual(t, "127.0.0.1:0", wst.Addr())

	url := "ws://" + wst.Addr() + WebSocketPath
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	waitClients(t, wst, 1)

	require.NoError(t, wst.Close())
	require.NoError(t, wst.Close())
	assert.Zero(t, wst.Clients())
	assert.Error(t, wst.Send(viseme.Event{}))
}
