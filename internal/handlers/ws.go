package handlers

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/lifeline-dev/lifeline/internal/telemetry"
	"github.com/lifeline-dev/lifeline/internal/types"
)

var (
	telemetryClients   = make(map[*websocket.Conn]bool)
	telemetryClientsMu sync.RWMutex
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// BroadcastPacket pushes one telemetry packet to every connected dashboard
// client. Used as the telemetry consumer's processing hook.
func BroadcastPacket(packet telemetry.Packet) {
	telemetryClientsMu.RLock()
	if len(telemetryClients) == 0 {
		telemetryClientsMu.RUnlock()
		return
	}

	// Copy the set so the lock is not held while writing to sockets
	clients := make([]*websocket.Conn, 0, len(telemetryClients))
	for conn := range telemetryClients {
		clients = append(clients, conn)
	}
	telemetryClientsMu.RUnlock()

	for _, conn := range clients {
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			log.Printf("Failed to set write deadline for broadcast: %v", err)
			continue
		}

		err := conn.WriteJSON(map[string]interface{}{
			"type":   "telemetry",
			"packet": packet,
		})

		if err != nil {
			log.Printf("Failed to broadcast telemetry to client: %v", err)
			telemetryClientsMu.Lock()
			delete(telemetryClients, conn)
			telemetryClientsMu.Unlock()
			conn.Close()
		}
	}
}

// TelemetryWebSocket upgrades a dashboard connection and keeps it registered
// for telemetry broadcasts until it closes.
func TelemetryWebSocket(c *gin.Context) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			for _, allowed := range types.AllowedOrigins {
				if origin == allowed {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("Failed to set initial read deadline: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.Printf("Failed to set read deadline in pong handler: %v", err)
		}
		return nil
	})

	telemetryClientsMu.Lock()
	telemetryClients[conn] = true
	telemetryClientsMu.Unlock()

	defer func() {
		telemetryClientsMu.Lock()
		delete(telemetryClients, conn)
		telemetryClientsMu.Unlock()
		conn.Close()

		log.Println("Telemetry WebSocket connection closed")
	}()

	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		log.Printf("Failed to set write deadline for welcome message: %v", err)
		return
	}

	err = conn.WriteJSON(map[string]string{
		"type":    "connected",
		"message": "Telemetry stream connected",
	})

	if err != nil {
		log.Printf("Failed to send welcome message: %v", err)
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	go func() {
		// Send pings periodically
		for range ticker.C {
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}()

	for {
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.Printf("Failed to set read deadline: %v", err)
			break
		}

		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("Telemetry WebSocket error: %v", err)
			}
			break
		}
	}
}
