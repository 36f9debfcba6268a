package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishReachesClient(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub(nil)
	go hub.Run()

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) { ServeWs(hub, c, "user-1") })
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.Publish("orders", "stats")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg InvalidateMessage
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, "invalidate", msg.Type)
	assert.Equal(t, []string{"orders", "stats"}, msg.Tags)
}

func TestHub_RejectsUnknownOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub([]string{"http://app.example"})
	go hub.Run()

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) { ServeWs(hub, c, "user-1") })
	srv := httptest.NewServer(r)
	defer srv.Close()

	header := http.Header{"Origin": []string{"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestHub_PublishWithoutTagsIsNoop(t *testing.T) {
	hub := NewHub(nil)
	hub.Publish()
	assert.Len(t, hub.broadcast, 0)
}
