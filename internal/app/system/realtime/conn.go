package realtime

import (
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Serve attaches conn to the hub as a client of userID and pumps messages
// until either side closes. It blocks for the life of the connection.
func (h *Hub) Serve(conn *websocket.Conn, userID string) {
	c := NewClient(userID)
	if !h.Register(c) {
		conn.Close()
		return
	}

	go h.readPump(conn, c)
	h.writePump(conn, c)
}

// readPump discards inbound frames; it exists to process control frames and
// notice when the peer goes away.
func (h *Hub) readPump(conn *websocket.Conn, c *Client) {
	defer h.Unregister(c)

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("realtime: read", zap.String("user_id", c.UserID), zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(conn *websocket.Conn, c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
