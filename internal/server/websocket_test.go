package server_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/showkit/showrunner/internal/client/clienttest"
	"github.com/showkit/showrunner/pkg/api"
)

const wsReadTimeout = 5 * time.Second

func clienttestOK() *clienttest.Caller {
	return clienttest.New(clienttest.JSON(200, `{}`))
}

func dialWebSocket(t *testing.T, env *testServerEnv) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(env.Server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) api.Event {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	_, message, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev api.Event
	require.NoError(t, json.Unmarshal(message, &ev))
	return ev
}

func TestWebSocketStreamsRunEvents(t *testing.T) {
	env := newTestServer(t, clienttestOK())
	conn := dialWebSocket(t, env)

	// give the upgrade handler a beat to wire its consumer
	time.Sleep(100 * time.Millisecond)

	id, err := env.Runner.Start(
		[]*api.Step{{Request: "GET /x"}},
		api.Settings{BaseURL: "http://api.test"},
	)
	require.NoError(t, err)

	want := []api.EventType{
		api.EventRunStarted,
		api.EventStepStarted,
		api.EventStepCompleted,
		api.EventRunCompleted,
	}
	for _, wantType := range want {
		ev := readEvent(t, conn)
		assert.Equal(t, wantType, ev.Type)
		assert.Equal(t, id, ev.RunID)
		assert.False(t, ev.Timestamp.IsZero())
	}
}

func TestWebSocketSubscribeFilters(t *testing.T) {
	env := newTestServer(t, clienttestOK())
	conn := dialWebSocket(t, env)

	// publish directly so run IDs are deterministic
	sub := api.SubscribeRequest{Type: "subscribe", RunID: "run-b"}
	require.NoError(t, conn.WriteJSON(sub))

	// give the client loop a beat to process the subscription
	time.Sleep(100 * time.Millisecond)

	env.Hub.Publish(api.Event{Type: api.EventRunStarted, RunID: "run-a"})
	env.Hub.Publish(api.Event{Type: api.EventRunStarted, RunID: "run-b"})

	ev := readEvent(t, conn)
	assert.Equal(t, api.RunID("run-b"), ev.RunID)
}

func TestWebSocketIgnoresUnknownMessages(t *testing.T) {
	env := newTestServer(t, clienttestOK())
	conn := dialWebSocket(t, env)

	require.NoError(t, conn.WriteMessage(
		websocket.TextMessage, []byte(`{"type":"noise"}`),
	))
	time.Sleep(100 * time.Millisecond)

	env.Hub.Publish(api.Event{Type: api.EventRunStarted, RunID: "run-x"})

	ev := readEvent(t, conn)
	assert.Equal(t, api.RunID("run-x"), ev.RunID)
}

func TestWebSocketStepResultPayload(t *testing.T) {
	env := newTestServer(t, clienttestOK())
	conn := dialWebSocket(t, env)
	time.Sleep(100 * time.Millisecond)

	env.Hub.Publish(api.Event{
		Type:      api.EventStepCompleted,
		RunID:     "run-1",
		StepIndex: 2,
		Result: &api.StepResult{
			Status: 200,
			Body:   map[string]any{"ok": true},
		},
	})

	ev := readEvent(t, conn)
	assert.Equal(t, api.EventStepCompleted, ev.Type)
	assert.Equal(t, 2, ev.StepIndex)
	require.NotNil(t, ev.Result)
	assert.Equal(t, 200, ev.Result.Status)
	assert.Equal(t, map[string]any{"ok": true}, ev.Result.Body)
}
