package config

import (
	"net/http"

	"github.com/gorilla/websocket"
)

type WebSocket struct {
	Upgrader websocket.Upgrader
}

// NewWebSocket accepts any origin: the board is public and the CORS
// middleware already lets every origin through.
func NewWebSocket() *WebSocket {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	return &WebSocket{
		Upgrader: upgrader,
	}
}
