package websocket

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/scoretree/internal/hupu"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil)
	go hub.Run(ctx)

	srv := httptest.NewServer(NewServer(hub, nil).Handler())
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func TestRecordsAreBroadcastToSubscribers(t *testing.T) {
	hub, srv := startHub(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/records"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	rec := hupu.PartialRecord{OutBizNo: 1, Team: "湖人", RootNodeID: 2, PlayerName: "LeBron James", Pts: "24"}.
		Complete([hupu.CommentSlots]string{"nice", "", ""})
	hub.BroadcastRecord(rec)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "record", msg.Type)
	assert.Equal(t, "LeBron James", msg.Data["playerName"])
	assert.Equal(t, "nice", msg.Data["comment1"])
	assert.Equal(t, "", msg.Data["comment2"])
}

func TestClientCountDropsOnDisconnect(t *testing.T) {
	hub, srv := startHub(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/records"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHealthReportsClients(t *testing.T) {
	_, srv := startHub(t)

	res, err := http.Get(srv.URL + "/ws/health")
	require.NoError(t, err)
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"healthy","clients":0}`, string(body))
}

func TestBroadcastWithoutRunningHubDoesNotBlock(t *testing.T) {
	hub := NewHub(nil)
	done := make(chan struct{})
	go func() {
		for i := 0; i < sendBuffer+10; i++ {
			hub.Broadcast([]byte("x"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked")
	}
}
