// Demo websocket server for browser client development. It runs the
// real rules engine over a small built-in card set; both seats are
// driven from the browser, no lobby or passcode involved.
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/riftforge/rift-server-go/internal/catalog"
	"github.com/riftforge/rift-server-go/internal/game"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for demo
	},
}

const demoCards = `
cards:
  - id: legend-kai
    name: Kai, Stormbrand
    type: legend
    domains: [fury]
    text:
      - "Exhaust me: gain two energy."
  - id: legend-sera
    name: Sera of the Deep
    type: legend
    domains: [calm]
    text:
      - "Exhaust me: draw a card."
  - id: bf-forge
    name: Molten Forge
    type: battlefield
  - id: bf-garden
    name: Sunken Garden
    type: battlefield
  - id: unit-vanguard
    name: Rift Vanguard
    type: unit
    cost: "1"
    might: 3
    domains: [fury]
    keywords: "[Tank]"
  - id: unit-herald
    name: Dawn Herald
    type: unit
    cost: "1"
    might: 2
    domains: [fury]
    text:
      - "When I'm played, draw a card."
  - id: unit-drake
    name: Ember Drake
    type: unit
    cost: "2F"
    might: 4
    domains: [fury]
    text:
      - "[Accelerate]"
  - id: spell-bolt
    name: Rift Bolt
    type: spell
    cost: "1"
    domains: [fury]
    keywords: "[Reaction]"
    text:
      - "Deal two damage to an enemy unit."
  - id: rune-fury
    name: Fury Rune
    type: rune
    domains: [fury]
  - id: rune-calm
    name: Calm Rune
    type: rune
    domains: [calm]
`

type WSMessage struct {
	Type     string       `json:"type"`
	GameID   string       `json:"game_id,omitempty"`
	PlayerID string       `json:"player_id,omitempty"`
	Action   *game.Action `json:"action,omitempty"`
	Data     any          `json:"data,omitempty"`
}

type Client struct {
	conn     *websocket.Conn
	send     chan []byte
	playerID string
	gameID   string
}

type Hub struct {
	engine     *game.Engine
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

func newHub(engine *game.Engine) *Hub {
	return &Hub{
		engine:     engine,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Printf("Client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			log.Printf("Client unregistered: %s", client.playerID)
		}
	}
}

func demoDeck() []string {
	return []string{
		"unit-vanguard", "unit-vanguard", "unit-herald", "unit-herald",
		"unit-drake", "unit-drake", "spell-bolt", "spell-bolt",
		"unit-vanguard", "unit-herald", "unit-drake", "spell-bolt",
	}
}

func demoRunes(domain string) []string {
	runes := make([]string, 10)
	for i := range runes {
		runes[i] = "rune-" + domain
	}
	return runes
}

func (h *Hub) createDemoGame(gameID string) error {
	seats := []game.SeatConfig{
		{
			PlayerID:    "player1",
			Name:        "Alice",
			Deck:        demoDeck(),
			RuneDeck:    demoRunes("fury"),
			Legend:      "legend-kai",
			Battlefield: "bf-forge",
		},
		{
			PlayerID:    "player2",
			Name:        "Bob",
			Deck:        demoDeck(),
			RuneDeck:    demoRunes("calm"),
			Legend:      "legend-sera",
			Battlefield: "bf-garden",
		},
	}
	return h.engine.StartMatch(gameID, seats, game.MatchOptions{
		BestOf: 1,
		Seed:   time.Now().UnixNano(),
	})
}

func (h *Hub) handleMessage(client *Client, msg WSMessage) {
	log.Printf("Received message: %s from %s", msg.Type, client.playerID)

	switch msg.Type {
	case "create_game":
		gameID := "demo-" + time.Now().Format("20060102-150405")
		if err := h.createDemoGame(gameID); err != nil {
			h.sendError(client, err.Error())
			return
		}
		client.gameID = gameID
		client.playerID = msg.PlayerID
		h.sendSnapshot(client, gameID)

	case "join_game":
		client.gameID = msg.GameID
		client.playerID = msg.PlayerID
		h.sendSnapshot(client, msg.GameID)

	case "action":
		if msg.Action == nil {
			h.sendError(client, "action message has no action")
			return
		}
		action := *msg.Action
		if action.PlayerID == "" {
			action.PlayerID = client.playerID
		}
		result, err := h.engine.ProcessAction(client.gameID, action)
		if err != nil {
			h.sendError(client, err.Error())
			return
		}
		response, _ := json.Marshal(WSMessage{Type: "action_result", Data: result})
		client.send <- response
		if result.Accepted {
			h.broadcastGameState(client.gameID)
		}
	}
}

func (h *Hub) sendError(client *Client, text string) {
	response, _ := json.Marshal(WSMessage{Type: "error", Data: text})
	client.send <- response
}

func (h *Hub) sendSnapshot(client *Client, gameID string) {
	snapshot, err := h.engine.Snapshot(gameID)
	if err != nil {
		h.sendError(client, err.Error())
		return
	}
	response, _ := json.Marshal(WSMessage{Type: "game_state", GameID: gameID, Data: snapshot})
	client.send <- response
}

func (h *Hub) broadcastGameState(gameID string) {
	snapshot, err := h.engine.Snapshot(gameID)
	if err != nil {
		return
	}
	response, _ := json.Marshal(WSMessage{Type: "game_state", GameID: gameID, Data: snapshot})

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if client.gameID == gameID {
			select {
			case client.send <- response:
			default:
			}
		}
	}
}

func (c *Client) readPump(hub *Hub) {
	defer func() {
		hub.unregister <- c
		c.conn.Close()
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("Error unmarshaling message: %v", err)
			continue
		}

		hub.handleMessage(c, msg)
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			break
		}
	}
}

func serveWS(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		return
	}

	client := &Client{
		conn: conn,
		send: make(chan []byte, 256),
	}

	hub.register <- client

	go client.writePump()
	go client.readPump(hub)
}

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	cat, err := catalog.Parse([]byte(demoCards), logger)
	if err != nil {
		log.Fatalf("parsing demo catalog: %v", err)
	}

	engine := game.NewEngine(logger, cat)
	hub := newHub(engine)
	go hub.run()

	// Fan engine events out to everyone in the game.
	engine.SetNotificationHandler(func(n game.GameNotification) {
		hub.broadcastGameState(n.GameID)
	})

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWS(hub, w, r)
	})

	log.Println("🚀 WebSocket server starting on :8080")
	log.Println("📡 WebSocket endpoint: ws://localhost:8080/ws")
	log.Println("🎮 Ready for Svelte client connections!")

	if err := http.ListenAndServe(":8080", nil); err != nil {
		log.Fatal("ListenAndServe: ", err)
	}
}
