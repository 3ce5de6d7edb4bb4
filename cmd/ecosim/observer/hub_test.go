package observer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_ServeWSAndBroadcast(t *testing.T) {
	hub := NewHub()
	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, time.Second, 10*time.Millisecond)

	frame := VertexColorFrame{Year: 3, Mode: "standard", Side: 2, Heights: []float64{1, 2, 3, 4}, Colors: []uint32{1, 2, 3, 4}}
	require.NoError(t, hub.Broadcast(frame))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var got VertexColorFrame
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, frame, got)
}

func TestHub_ClientCountZeroInitially(t *testing.T) {
	hub := NewHub()
	assert.Equal(t, 0, hub.ClientCount())
}
