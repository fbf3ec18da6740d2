package server

import "github.com/riftforge/rift-server-go/internal/game"

// Client message types.
const (
	MsgCreateLobby = "CREATE_LOBBY"
	MsgJoinLobby   = "JOIN_LOBBY"
	MsgListLobbies = "LIST_LOBBIES"
	MsgGameAction  = "GAME_ACTION"
	MsgGetSnapshot = "GET_SNAPSHOT"
)

// Server message types.
const (
	MsgLobbyCreated = "LOBBY_CREATED"
	MsgLobbyList    = "LOBBY_LIST"
	MsgLobbyJoined  = "LOBBY_JOINED"
	MsgGameStarted  = "GAME_STARTED"
	MsgActionResult = "ACTION_RESULT"
	MsgSnapshot     = "SNAPSHOT"
	MsgGameEvent    = "GAME_EVENT"
	MsgMatchOver    = "MATCH_OVER"
	MsgError        = "ERROR"
)

// SeatRequest carries one seat's identity and deck lists, all catalog
// definition IDs.
type SeatRequest struct {
	PlayerID    string   `json:"player_id"`
	Name        string   `json:"name"`
	Deck        []string `json:"deck"`
	RuneDeck    []string `json:"rune_deck"`
	Legend      string   `json:"legend"`
	Battlefield string   `json:"battlefield"`
}

// ClientMessage is the JSON envelope for everything a client sends.
// Fields beyond Type are message-specific.
type ClientMessage struct {
	Type string `json:"type"`

	// Lobby creation and joining.
	LobbyName string       `json:"lobby_name,omitempty"`
	LobbyID   string       `json:"lobby_id,omitempty"`
	Passcode  string       `json:"passcode,omitempty"`
	Seat      *SeatRequest `json:"seat,omitempty"`
	// VictoryScore and BestOf override the server defaults when the
	// lobby is created; zero keeps the default.
	VictoryScore int `json:"victory_score,omitempty"`
	BestOf       int `json:"best_of,omitempty"`

	// Gameplay.
	GameID string       `json:"game_id,omitempty"`
	Action *game.Action `json:"action,omitempty"`
}

// ServerMessage is the JSON envelope for everything the server sends.
type ServerMessage struct {
	Type    string `json:"type"`
	LobbyID string `json:"lobby_id,omitempty"`
	GameID  string `json:"game_id,omitempty"`
	Error   string `json:"error,omitempty"`

	Lobbies  []LobbySummary     `json:"lobbies,omitempty"`
	Result   *game.ActionResult `json:"result,omitempty"`
	Snapshot *game.Snapshot     `json:"snapshot,omitempty"`

	// Event carries engine notifications forwarded to the game's
	// clients.
	Event     string                 `json:"event,omitempty"`
	EventData map[string]interface{} `json:"event_data,omitempty"`
}

func errorMessage(err string) ServerMessage {
	return ServerMessage{Type: MsgError, Error: err}
}
