package feed

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestRetryDelayGrowth(t *testing.T) {
	c := NewClient("ws://example.com/d")

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 1000 * time.Millisecond},
		{1, 1500 * time.Millisecond},
		{2, 2250 * time.Millisecond},
		{3, 3375 * time.Millisecond},
		{9, 30000 * time.Millisecond}, // 1000 * 1.5^9 ≈ 38443ms, capped
		{20, 30000 * time.Millisecond},
	}
	for _, tc := range cases {
		if got := c.RetryDelay(tc.attempt); got != tc.want {
			t.Errorf("RetryDelay(%d) = %v, want %v", tc.attempt, got, tc.want)
		}
	}
}

func TestWebSocketURL(t *testing.T) {
	cases := []struct {
		origin string
		want   string
	}{
		{"http://localhost:8090", "ws://localhost:8090/d"},
		{"https://gobet.example.com", "wss://gobet.example.com/d"},
		{"https://gobet.example.com/", "wss://gobet.example.com/d"},
	}
	for _, tc := range cases {
		if got := WebSocketURL(tc.origin); got != tc.want {
			t.Errorf("WebSocketURL(%q) = %q, want %q", tc.origin, got, tc.want)
		}
	}
}

func TestCloseCodeText(t *testing.T) {
	if got := CloseCodeText(1006); !strings.Contains(got, "abnormally") {
		t.Errorf("Expected 1006 description, got %q", got)
	}
	if got := CloseCodeText(4999); !strings.Contains(got, "unknown close code 4999") {
		t.Errorf("Expected unknown-code fallback, got %q", got)
	}
}

// feedServer is a minimal push endpoint for channel tests.
type feedServer struct {
	*httptest.Server

	mu    sync.Mutex
	conns []*websocket.Conn

	received chan string
	accepted chan *websocket.Conn
}

func newFeedServer(t *testing.T) *feedServer {
	t.Helper()

	fs := &feedServer{
		received: make(chan string, 16),
		accepted: make(chan *websocket.Conn, 16),
	}
	upgrader := websocket.Upgrader{}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Upgrade failed: %v", err)
			return
		}
		fs.mu.Lock()
		fs.conns = append(fs.conns, conn)
		fs.mu.Unlock()
		fs.accepted <- conn
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			fs.received <- string(data)
		}
	}))
	t.Cleanup(fs.closeAll)
	return fs
}

func (fs *feedServer) wsURL() string {
	return "ws" + strings.TrimPrefix(fs.URL, "http")
}

func (fs *feedServer) closeAll() {
	fs.mu.Lock()
	conns := fs.conns
	fs.conns = nil
	fs.mu.Unlock()
	for _, conn := range conns {
		conn.Close()
	}
	fs.Close()
}

func waitSignal(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatalf("Timed out waiting for %s", what)
	}
}

func TestClientConnectSendReceive(t *testing.T) {
	fs := newFeedServer(t)

	c := NewClient(fs.wsURL())
	c.ReconnectInterval = 10 * time.Millisecond

	opened := make(chan struct{}, 4)
	messages := make(chan string, 4)
	c.OnOpen = func() { opened <- struct{}{} }
	c.OnMessage = func(text string) { messages <- text }

	c.Connect()
	defer c.Close()

	waitSignal(t, opened, "open")

	if err := c.Send(`{"SubscribeFootball":true}`); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	select {
	case got := <-fs.received:
		if got != `{"SubscribeFootball":true}` {
			t.Errorf("Server received %q", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for server receive")
	}

	server := <-fs.accepted
	if err := server.WriteMessage(websocket.TextMessage, []byte(`{"EventTypes":[]}`)); err != nil {
		t.Fatalf("Server write failed: %v", err)
	}
	select {
	case got := <-messages:
		if got != `{"EventTypes":[]}` {
			t.Errorf("Client received %q", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for client receive")
	}
}

func TestClientReconnectsAfterServerDrop(t *testing.T) {
	fs := newFeedServer(t)

	c := NewClient(fs.wsURL())
	c.ReconnectInterval = 10 * time.Millisecond

	opened := make(chan struct{}, 4)
	connecting := make(chan struct{}, 16)
	closed := make(chan struct{}, 4)
	c.OnOpen = func() { opened <- struct{}{} }
	c.OnConnecting = func() { connecting <- struct{}{} }
	c.OnClose = func(code int, reason string) { closed <- struct{}{} }

	c.Connect()
	defer c.Close()

	waitSignal(t, connecting, "initial connecting")
	waitSignal(t, opened, "first open")

	// Drop the connection server-side; the client must come back by itself.
	first := <-fs.accepted
	first.Close()

	waitSignal(t, closed, "close")
	waitSignal(t, connecting, "reconnecting")
	waitSignal(t, opened, "second open")

	if got := c.CurrentState(); got != StateOpen {
		t.Errorf("Expected state open after reconnect, got %s", got)
	}
}

func TestClientRefreshReopens(t *testing.T) {
	fs := newFeedServer(t)

	c := NewClient(fs.wsURL())
	c.ReconnectInterval = 10 * time.Millisecond

	opened := make(chan struct{}, 4)
	c.OnOpen = func() { opened <- struct{}{} }

	c.Connect()
	defer c.Close()
	waitSignal(t, opened, "first open")

	if !c.Refresh() {
		t.Fatal("Expected Refresh to drop an existing connection")
	}
	waitSignal(t, opened, "reopen after refresh")
}

func TestClientForcedCloseIsTerminal(t *testing.T) {
	fs := newFeedServer(t)

	c := NewClient(fs.wsURL())
	c.ReconnectInterval = 10 * time.Millisecond

	opened := make(chan struct{}, 4)
	c.OnOpen = func() { opened <- struct{}{} }

	c.Connect()
	waitSignal(t, opened, "open")

	if err := c.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if err := c.Send("late"); err != ErrInvalidState {
		t.Errorf("Expected ErrInvalidState after forced close, got %v", err)
	}

	select {
	case <-opened:
		t.Error("Client reconnected after forced close")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestClientSendWhileDisconnected(t *testing.T) {
	c := NewClient("ws://localhost:1/d")
	if err := c.Send("x"); err != ErrInvalidState {
		t.Errorf("Expected ErrInvalidState before Connect, got %v", err)
	}
}

func TestClientQueuesSendsWhileConnecting(t *testing.T) {
	fs := newFeedServer(t)

	c := NewClient(fs.wsURL())
	c.ReconnectInterval = 10 * time.Millisecond

	c.mu.Lock()
	c.state = StateConnecting
	c.mu.Unlock()

	// Every queued send must survive and arrive in order, not just the last.
	if err := c.Send("first"); err != nil {
		t.Fatalf("Queued send failed: %v", err)
	}
	if err := c.Send("second"); err != nil {
		t.Fatalf("Queued send failed: %v", err)
	}

	go c.dial()

	for _, want := range []string{"first", "second"} {
		select {
		case got := <-fs.received:
			if got != want {
				t.Errorf("Server received %q, want %q", got, want)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("Timed out waiting for queued %q", want)
		}
	}
	c.Close()
}
