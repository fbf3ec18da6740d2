package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/riftforge/rift-server-go/internal/game"
)

// LobbyState tracks a lobby through its lifecycle.
type LobbyState int

const (
	LobbyStateWaiting LobbyState = iota
	LobbyStateInProgress
	LobbyStateFinished
)

func (s LobbyState) String() string {
	switch s {
	case LobbyStateWaiting:
		return "WAITING"
	case LobbyStateInProgress:
		return "IN_PROGRESS"
	case LobbyStateFinished:
		return "FINISHED"
	default:
		return "UNKNOWN"
	}
}

// Lobby pairs two seats into a match. A lobby created with a passcode
// admits only joiners presenting it; the passcode itself is never
// stored, only its bcrypt hash.
type Lobby struct {
	ID           string
	Name         string
	HostID       string
	State        LobbyState
	Seats        []game.SeatConfig
	VictoryScore int
	BestOf       int
	GameID       string
	WinnerID     string
	CreateTime   time.Time
	StartTime    *time.Time

	passcodeHash []byte
}

// LobbySummary is the public listing view of a lobby.
type LobbySummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	HostID    string `json:"host_id"`
	State     string `json:"state"`
	Seats     int    `json:"seats"`
	Protected bool   `json:"protected"`
	BestOf    int    `json:"best_of"`
}

// LobbyManager owns all lobbies on the server.
type LobbyManager struct {
	mu      sync.RWMutex
	lobbies map[string]*Lobby
	logger  *zap.Logger
}

// NewLobbyManager creates an empty lobby manager.
func NewLobbyManager(logger *zap.Logger) *LobbyManager {
	return &LobbyManager{
		lobbies: make(map[string]*Lobby),
		logger:  logger,
	}
}

func seatConfig(seat SeatRequest) game.SeatConfig {
	return game.SeatConfig{
		PlayerID:    seat.PlayerID,
		Name:        seat.Name,
		Deck:        seat.Deck,
		RuneDeck:    seat.RuneDeck,
		Legend:      seat.Legend,
		Battlefield: seat.Battlefield,
	}
}

// Create opens a new lobby with the host in the first seat. An empty
// passcode leaves the lobby open to anyone.
func (m *LobbyManager) Create(name, passcode string, host SeatRequest, victoryScore, bestOf int) (*Lobby, error) {
	if host.PlayerID == "" {
		return nil, fmt.Errorf("host seat has no player")
	}

	var hash []byte
	if passcode != "" {
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hashing passcode: %w", err)
		}
	}

	lobby := &Lobby{
		ID:           uuid.New().String(),
		Name:         name,
		HostID:       host.PlayerID,
		State:        LobbyStateWaiting,
		Seats:        []game.SeatConfig{seatConfig(host)},
		VictoryScore: victoryScore,
		BestOf:       bestOf,
		CreateTime:   time.Now(),
		passcodeHash: hash,
	}

	m.mu.Lock()
	m.lobbies[lobby.ID] = lobby
	m.mu.Unlock()

	m.logger.Info("lobby created",
		zap.String("lobby_id", lobby.ID),
		zap.String("host", host.PlayerID),
		zap.Bool("protected", hash != nil))
	return lobby, nil
}

// Join fills the second seat. It returns the lobby with both seats set;
// the caller starts the match.
func (m *LobbyManager) Join(lobbyID, passcode string, seat SeatRequest) (*Lobby, error) {
	if seat.PlayerID == "" {
		return nil, fmt.Errorf("seat has no player")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	lobby, ok := m.lobbies[lobbyID]
	if !ok {
		return nil, fmt.Errorf("lobby %s not found", lobbyID)
	}
	if lobby.State != LobbyStateWaiting {
		return nil, fmt.Errorf("lobby %s is %s", lobbyID, lobby.State)
	}
	if seat.PlayerID == lobby.HostID {
		return nil, fmt.Errorf("player %s already hosts this lobby", seat.PlayerID)
	}
	if lobby.passcodeHash != nil {
		if err := bcrypt.CompareHashAndPassword(lobby.passcodeHash, []byte(passcode)); err != nil {
			return nil, fmt.Errorf("wrong passcode for lobby %s", lobbyID)
		}
	}

	lobby.Seats = append(lobby.Seats, seatConfig(seat))
	m.logger.Info("lobby filled",
		zap.String("lobby_id", lobbyID),
		zap.String("joiner", seat.PlayerID))
	return lobby, nil
}

// MarkStarted records the running game against the lobby.
func (m *LobbyManager) MarkStarted(lobbyID, gameID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if lobby, ok := m.lobbies[lobbyID]; ok {
		now := time.Now()
		lobby.State = LobbyStateInProgress
		lobby.GameID = gameID
		lobby.StartTime = &now
	}
}

// Finish records the match winner and closes the lobby.
func (m *LobbyManager) Finish(gameID, winnerID string) *Lobby {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, lobby := range m.lobbies {
		if lobby.GameID == gameID && lobby.State == LobbyStateInProgress {
			lobby.State = LobbyStateFinished
			lobby.WinnerID = winnerID
			return lobby
		}
	}
	return nil
}

// Get looks up a lobby by ID.
func (m *LobbyManager) Get(lobbyID string) (*Lobby, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lobby, ok := m.lobbies[lobbyID]
	return lobby, ok
}

// ByGame looks up the lobby running the given game.
func (m *LobbyManager) ByGame(gameID string) (*Lobby, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, lobby := range m.lobbies {
		if lobby.GameID == gameID {
			return lobby, true
		}
	}
	return nil, false
}

// List summarizes all lobbies, waiting lobbies first.
func (m *LobbyManager) List() []LobbySummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summaries := make([]LobbySummary, 0, len(m.lobbies))
	for _, lobby := range m.lobbies {
		if lobby.State == LobbyStateWaiting {
			summaries = append(summaries, m.summarize(lobby))
		}
	}
	for _, lobby := range m.lobbies {
		if lobby.State != LobbyStateWaiting {
			summaries = append(summaries, m.summarize(lobby))
		}
	}
	return summaries
}

func (m *LobbyManager) summarize(lobby *Lobby) LobbySummary {
	return LobbySummary{
		ID:        lobby.ID,
		Name:      lobby.Name,
		HostID:    lobby.HostID,
		State:     lobby.State.String(),
		Seats:     len(lobby.Seats),
		Protected: lobby.passcodeHash != nil,
		BestOf:    lobby.BestOf,
	}
}

// Remove drops a lobby.
func (m *LobbyManager) Remove(lobbyID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.lobbies, lobbyID)
}
