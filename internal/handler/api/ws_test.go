package api

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"SwingDesk/internal/domain/models"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_InitialThenUpdate(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	e := echo.New()
	hub.RegisterRoutes(e)
	srv := httptest.NewServer(e)
	defer srv.Close()

	first := models.Board{Buckets: models.Buckets{}, GeneratedAt: time.Unix(100, 0).UTC(), Scanned: 1}
	hub.Publish(first)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg BoardMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "INITIAL", msg.Type)
	assert.Equal(t, 1, msg.Board.Scanned)

	// the client is registered once INITIAL arrives
	hub.Publish(models.Board{Buckets: models.Buckets{}, GeneratedAt: time.Unix(200, 0).UTC(), Scanned: 2})
	for {
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Board.Scanned == 2 {
			break
		}
	}
	assert.Equal(t, "UPDATE", msg.Type)
	assert.Equal(t, 2, hub.Latest().Scanned)
}

func TestHub_NoInitialWithoutBoard(t *testing.T) {
	hub := NewHub(nil)
	assert.Nil(t, hub.Latest())

	// Publish never blocks even when Run is not draining.
	for i := 0; i < 10; i++ {
		hub.Publish(models.Board{Scanned: i})
	}
	assert.Equal(t, 9, hub.Latest().Scanned)
}

func TestHub_ServeAfterShutdown(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	e := echo.New()
	hub.RegisterRoutes(e)
	srv := httptest.NewServer(e)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}
