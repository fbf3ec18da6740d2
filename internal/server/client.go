package server

import (
	"encoding/json"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// client is one websocket connection. playerID and gameID are set as
// the client creates or joins a lobby.
type client struct {
	conn     *websocket.Conn
	send     chan []byte
	playerID string
	lobbyID  string
	gameID   string
}

func (c *client) enqueue(msg ServerMessage) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		// Client is not keeping up; the write pump will close it once
		// the channel is closed by unregister.
		return false
	}
}

func (c *client) readPump(s *Server) {
	defer func() {
		s.unregister(c)
		c.conn.Close()
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.enqueue(errorMessage("malformed message: " + err.Error()))
			continue
		}
		s.handleMessage(c, msg)
	}
}

func (c *client) writePump() {
	defer c.conn.Close()

	for data := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
