// Package server exposes the duel engine over websockets. Clients
// exchange JSON envelopes: lobby management to pair two seats, then
// player actions against the running match, with snapshots and engine
// events fanned out to both seats.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/riftforge/rift-server-go/internal/config"
	"github.com/riftforge/rift-server-go/internal/game"
	"github.com/riftforge/rift-server-go/internal/repository"
)

// Server owns the websocket listener, the lobby manager and the client
// registry. The engine does all rules processing; the server only
// routes messages and fans out state.
type Server struct {
	cfg      *config.Config
	logger   *zap.Logger
	engine   *game.Engine
	recorder *game.ReplayRecorder
	store    *repository.Store
	lobbies  *LobbyManager
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]bool
}

// NewServer wires the engine to the websocket surface. recorder and
// store may be nil; match persistence is skipped without them.
func NewServer(cfg *config.Config, logger *zap.Logger, engine *game.Engine, recorder *game.ReplayRecorder, store *repository.Store) *Server {
	s := &Server{
		cfg:      cfg,
		logger:   logger,
		engine:   engine,
		recorder: recorder,
		store:    store,
		lobbies:  NewLobbyManager(logger),
		clients:  make(map[*client]bool),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	engine.SetNotificationHandler(s.onNotification)
	return s
}

// Handler returns the HTTP handler serving /ws and /healthz, for tests
// and embedding.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return mux
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Server.Addr,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("websocket server listening", zap.String("addr", s.cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.closeAll()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	buffer := s.cfg.Server.WriteBuffer
	if buffer <= 0 {
		buffer = 64
	}
	c := &client{
		conn: conn,
		send: make(chan []byte, buffer),
	}

	s.mu.Lock()
	s.clients[c] = true
	s.mu.Unlock()

	go c.writePump()
	go c.readPump(s)
}

func (s *Server) unregister(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
	}
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		delete(s.clients, c)
		close(c.send)
	}
}

func (s *Server) handleMessage(c *client, msg ClientMessage) {
	switch msg.Type {
	case MsgCreateLobby:
		s.handleCreateLobby(c, msg)
	case MsgListLobbies:
		c.enqueue(ServerMessage{Type: MsgLobbyList, Lobbies: s.lobbies.List()})
	case MsgJoinLobby:
		s.handleJoinLobby(c, msg)
	case MsgGameAction:
		s.handleGameAction(c, msg)
	case MsgGetSnapshot:
		s.handleGetSnapshot(c, msg)
	default:
		c.enqueue(errorMessage("unknown message type " + msg.Type))
	}
}

func (s *Server) handleCreateLobby(c *client, msg ClientMessage) {
	if msg.Seat == nil {
		c.enqueue(errorMessage("CREATE_LOBBY requires a seat"))
		return
	}

	victoryScore := msg.VictoryScore
	if victoryScore == 0 {
		victoryScore = s.cfg.Match.VictoryScore
	}
	bestOf := msg.BestOf
	if bestOf == 0 {
		bestOf = s.cfg.Match.BestOf
	}

	lobby, err := s.lobbies.Create(msg.LobbyName, msg.Passcode, *msg.Seat, victoryScore, bestOf)
	if err != nil {
		c.enqueue(errorMessage(err.Error()))
		return
	}

	c.playerID = msg.Seat.PlayerID
	c.lobbyID = lobby.ID
	c.enqueue(ServerMessage{Type: MsgLobbyCreated, LobbyID: lobby.ID})
}

func (s *Server) handleJoinLobby(c *client, msg ClientMessage) {
	if msg.Seat == nil {
		c.enqueue(errorMessage("JOIN_LOBBY requires a seat"))
		return
	}

	lobby, err := s.lobbies.Join(msg.LobbyID, msg.Passcode, *msg.Seat)
	if err != nil {
		c.enqueue(errorMessage(err.Error()))
		return
	}

	c.playerID = msg.Seat.PlayerID
	c.lobbyID = lobby.ID
	c.enqueue(ServerMessage{Type: MsgLobbyJoined, LobbyID: lobby.ID})

	gameID := lobby.ID
	opts := game.MatchOptions{
		VictoryScore: lobby.VictoryScore,
		BestOf:       lobby.BestOf,
		Seed:         time.Now().UnixNano(),
	}
	if err := s.engine.StartMatch(gameID, lobby.Seats, opts); err != nil {
		s.logger.Error("failed to start match",
			zap.String("lobby_id", lobby.ID), zap.Error(err))
		s.broadcastToLobby(lobby.ID, errorMessage("match start failed: "+err.Error()))
		s.lobbies.Remove(lobby.ID)
		return
	}
	s.lobbies.MarkStarted(lobby.ID, gameID)

	s.mu.Lock()
	for cl := range s.clients {
		if cl.lobbyID == lobby.ID {
			cl.gameID = gameID
		}
	}
	s.mu.Unlock()

	snapshot, err := s.engine.Snapshot(gameID)
	if err != nil {
		s.logger.Error("snapshot after start failed", zap.Error(err))
		return
	}
	s.broadcastToGame(gameID, ServerMessage{
		Type:     MsgGameStarted,
		LobbyID:  lobby.ID,
		GameID:   gameID,
		Snapshot: snapshot,
	})
}

func (s *Server) handleGameAction(c *client, msg ClientMessage) {
	if msg.Action == nil {
		c.enqueue(errorMessage("GAME_ACTION requires an action"))
		return
	}
	gameID := c.gameID
	if gameID == "" {
		gameID = msg.GameID
	}
	if gameID == "" {
		c.enqueue(errorMessage("not in a game"))
		return
	}

	// The connection identity decides who acts, not the payload.
	action := *msg.Action
	action.PlayerID = c.playerID

	result, err := s.engine.ProcessAction(gameID, action)
	if err != nil {
		c.enqueue(errorMessage(err.Error()))
		return
	}

	c.enqueue(ServerMessage{Type: MsgActionResult, GameID: gameID, Result: result})

	if result.Accepted {
		if snapshot, err := s.engine.Snapshot(gameID); err == nil {
			s.broadcastToGame(gameID, ServerMessage{
				Type:     MsgSnapshot,
				GameID:   gameID,
				Snapshot: snapshot,
			})
		}
	}
}

func (s *Server) handleGetSnapshot(c *client, msg ClientMessage) {
	gameID := c.gameID
	if gameID == "" {
		gameID = msg.GameID
	}
	snapshot, err := s.engine.Snapshot(gameID)
	if err != nil {
		c.enqueue(errorMessage(err.Error()))
		return
	}
	c.enqueue(ServerMessage{Type: MsgSnapshot, GameID: gameID, Snapshot: snapshot})
}

func (s *Server) broadcastToGame(gameID string, msg ServerMessage) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.clients {
		if c.gameID == gameID {
			c.enqueue(msg)
		}
	}
}

func (s *Server) broadcastToLobby(lobbyID string, msg ServerMessage) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.clients {
		if c.lobbyID == lobbyID {
			c.enqueue(msg)
		}
	}
}

// onNotification forwards engine events to the game's clients and, on
// match end, persists the result.
func (s *Server) onNotification(n game.GameNotification) {
	s.broadcastToGame(n.GameID, ServerMessage{
		Type:      MsgGameEvent,
		GameID:    n.GameID,
		Event:     n.Type,
		EventData: n.Data,
	})

	if n.Type == "MATCH_OVER" {
		s.finishMatch(n)
	}
}

func (s *Server) finishMatch(n game.GameNotification) {
	winnerID, _ := n.Data["winner"].(string)
	lobby := s.lobbies.Finish(n.GameID, winnerID)

	if s.recorder != nil && s.recorder.IsRecording(n.GameID) {
		if err := s.recorder.SaveReplay(n.GameID); err != nil {
			s.logger.Warn("failed to save replay",
				zap.String("game_id", n.GameID), zap.Error(err))
		}
	}

	if s.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		startedAt := n.Timestamp
		games := 0
		if lobby != nil {
			if lobby.StartTime != nil {
				startedAt = *lobby.StartTime
			}
			games = lobby.BestOf
		}
		result := repository.MatchResult{
			GameID:     n.GameID,
			WinnerID:   winnerID,
			Games:      games,
			StartedAt:  startedAt,
			FinishedAt: n.Timestamp,
		}
		if err := s.store.SaveMatchResult(ctx, result); err != nil {
			s.logger.Warn("failed to persist match result",
				zap.String("game_id", n.GameID), zap.Error(err))
		}
		if log, err := s.engine.ActionLog(n.GameID); err == nil {
			if err := s.store.SaveActionLog(ctx, n.GameID, log); err != nil {
				s.logger.Warn("failed to persist action log",
					zap.String("game_id", n.GameID), zap.Error(err))
			}
		}
	}

	s.logger.Info("match finished",
		zap.String("game_id", n.GameID),
		zap.String("winner", winnerID))
}
