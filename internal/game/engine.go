package game

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/riftforge/rift-server-go/internal/catalog"
	"github.com/riftforge/rift-server-go/internal/game/card"
	"github.com/riftforge/rift-server-go/internal/game/rules"
	"github.com/riftforge/rift-server-go/internal/game/runes"
	"github.com/riftforge/rift-server-go/internal/game/watchers"
)

const (
	defaultVictoryScore = 8
	defaultBestOf       = 3
	openingHandSize     = 4
)

// SeatConfig describes one seat of a match: the player and the deck
// lists, all referencing catalog definition IDs.
type SeatConfig struct {
	PlayerID    string
	Name        string
	Deck        []string
	RuneDeck    []string
	Legend      string
	Battlefield string
}

// MatchOptions tune a match.
type MatchOptions struct {
	// VictoryScore is the score that ends a game; zero means the
	// default.
	VictoryScore int
	// BestOf is the number of games in the match (1 or 3); zero means
	// the default.
	BestOf int
	// Seed drives deck shuffling. The same seed and action sequence
	// reproduce the same game.
	Seed int64
}

// GameNotification is pushed to the registered handler on observable
// state changes, for websocket fan-out.
type GameNotification struct {
	Type      string
	GameID    string
	PlayerID  string
	Timestamp time.Time
	Data      map[string]interface{}
}

// NotificationHandler consumes game notifications.
type NotificationHandler func(notification GameNotification)

// Engine owns all running duels. All rules processing is synchronous:
// one action is processed to completion before the next is accepted.
type Engine struct {
	logger  *zap.Logger
	catalog *catalog.Catalog

	mu    sync.RWMutex
	games map[string]*duelState

	notificationHandler NotificationHandler

	recorder *ReplayRecorder
}

// NewEngine creates an engine over the loaded catalog.
func NewEngine(logger *zap.Logger, cat *catalog.Catalog) *Engine {
	return &Engine{
		logger:  logger,
		catalog: cat,
		games:   make(map[string]*duelState),
	}
}

// SetNotificationHandler registers the handler receiving game
// notifications. The handler runs on its own goroutine and may call back
// into the engine.
func (e *Engine) SetNotificationHandler(handler NotificationHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notificationHandler = handler
}

// SetReplayRecorder attaches a recorder that persists action logs.
func (e *Engine) SetReplayRecorder(recorder *ReplayRecorder) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recorder = recorder
}

func (e *Engine) emitNotification(n GameNotification) {
	e.mu.RLock()
	handler := e.notificationHandler
	e.mu.RUnlock()
	if handler != nil {
		go handler(n)
	}
}

func (e *Engine) notify(ds *duelState, notifType string, data map[string]interface{}) {
	e.emitNotification(GameNotification{
		Type:      notifType,
		GameID:    ds.gameID,
		Timestamp: time.Now(),
		Data:      data,
	})
}

// StartMatch creates a new match and deals opening hands. The first seat
// is on the play in game one.
func (e *Engine) StartMatch(gameID string, seats []SeatConfig, opts MatchOptions) error {
	if gameID == "" {
		return fmt.Errorf("gameID is required")
	}
	if len(seats) != 2 {
		return fmt.Errorf("a duel needs exactly 2 seats, got %d", len(seats))
	}
	if seats[0].PlayerID == seats[1].PlayerID {
		return fmt.Errorf("seats must have distinct players")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.games[gameID]; exists {
		return fmt.Errorf("game %s already exists", gameID)
	}

	victoryScore := opts.VictoryScore
	if victoryScore <= 0 {
		victoryScore = defaultVictoryScore
	}
	bestOf := opts.BestOf
	if bestOf <= 0 {
		bestOf = defaultBestOf
	}

	ds := &duelState{
		gameID:       gameID,
		players:      make(map[string]*playerState, 2),
		playerOrder:  []string{seats[0].PlayerID, seats[1].PlayerID},
		cards:        make(map[string]*cardInstance),
		turns:        rules.NewTurnManager(seats[0].PlayerID),
		windows:      rules.NewWindowStack(),
		chain:        rules.NewChain(),
		bus:          rules.NewEventBus(),
		triggers:     rules.NewTriggerManager(),
		delayed:      rules.NewDelayedTriggerManager(),
		watchers:     rules.NewWatcherRegistry(),
		victoryScore: victoryScore,
		bestOf:       bestOf,
		gameNumber:   1,
		matchWins:    make(map[string]int, 2),
		startedAt:    time.Now(),
	}
	ds.legality = rules.NewLegalityChecker(&stateAccessor{ds: ds, engine: e})

	ds.cardsPlayed = watchers.NewCardsPlayedWatcher()
	ds.unitsDied = watchers.NewUnitsDiedWatcher()
	ds.conquests = watchers.NewConquestsWatcher()
	ds.cardsDrawn = watchers.NewCardsDrawnWatcher()
	ds.watchers.Add(ds.cardsPlayed)
	ds.watchers.Add(ds.unitsDied)
	ds.watchers.Add(ds.conquests)
	ds.watchers.Add(ds.cardsDrawn)
	ds.bus.Subscribe(ds.watchers.Dispatch)

	ds.rng = rand.New(rand.NewSource(opts.Seed))
	for _, seat := range seats {
		player, err := e.buildSeat(ds, seat)
		if err != nil {
			return fmt.Errorf("seat %s: %w", seat.PlayerID, err)
		}
		ds.players[seat.PlayerID] = player
	}

	for _, seat := range seats {
		if err := e.placeBattlefield(ds, seat); err != nil {
			return fmt.Errorf("seat %s: %w", seat.PlayerID, err)
		}
	}

	e.dealOpeningHands(ds)
	if err := ds.turns.BeginMulligan(); err != nil {
		return err
	}

	e.games[gameID] = ds
	if e.recorder != nil {
		e.recorder.StartRecordingSeeded(gameID, opts.Seed)
	}
	e.logger.Info("match started",
		zap.String("game_id", gameID),
		zap.Strings("players", ds.playerOrder),
		zap.Int("victory_score", victoryScore),
		zap.Int("best_of", bestOf))
	return nil
}

func (e *Engine) buildSeat(ds *duelState, seat SeatConfig) (*playerState, error) {
	if seat.PlayerID == "" {
		return nil, fmt.Errorf("seat has no player ID")
	}
	name := seat.Name
	if name == "" {
		name = seat.PlayerID
	}
	player := &playerState{
		PlayerID: seat.PlayerID,
		Name:     name,
		Pool:     runes.NewPool(),
	}

	for _, defID := range seat.Deck {
		ci, err := e.mintInstance(ds, defID, seat.PlayerID, zoneDeck)
		if err != nil {
			return nil, err
		}
		player.Deck = append(player.Deck, ci)
	}
	player.DeckList = append([]*cardInstance(nil), player.Deck...)
	shuffleInstances(player.Deck, ds.rng)

	for _, defID := range seat.RuneDeck {
		ci, err := e.mintInstance(ds, defID, seat.PlayerID, zoneRunes)
		if err != nil {
			return nil, err
		}
		if ci.Def.Type != card.TypeRune {
			return nil, fmt.Errorf("%s is not a rune", defID)
		}
		player.RuneDeck = append(player.RuneDeck, ci)
	}
	player.RuneList = append([]*cardInstance(nil), player.RuneDeck...)

	if seat.Legend != "" {
		legend, err := e.mintInstance(ds, seat.Legend, seat.PlayerID, zoneChampion)
		if err != nil {
			return nil, err
		}
		if legend.Def.Type != card.TypeLegend {
			return nil, fmt.Errorf("%s is not a legend", seat.Legend)
		}
		legend.Ready = true
		player.Legend = legend
	}
	return player, nil
}

func (e *Engine) placeBattlefield(ds *duelState, seat SeatConfig) error {
	if seat.Battlefield == "" {
		return nil
	}
	def, ok := e.catalog.Get(seat.Battlefield)
	if !ok {
		return fmt.Errorf("battlefield %s not in catalog", seat.Battlefield)
	}
	if def.Type != card.TypeBattlefield {
		return fmt.Errorf("%s is not a battlefield", seat.Battlefield)
	}
	bf := &battlefieldState{
		ID:      uuid.NewString(),
		Def:     def,
		OwnerID: seat.PlayerID,
		Hidden:  make(map[string][]*cardInstance),
	}
	ds.battlefields = append(ds.battlefields, bf)
	return nil
}

func (e *Engine) mintInstance(ds *duelState, defID, ownerID string, zone int) (*cardInstance, error) {
	def, ok := e.catalog.Get(defID)
	if !ok {
		return nil, fmt.Errorf("definition %s not in catalog", defID)
	}
	ci := newCardInstance(uuid.NewString(), def, ownerID, zone)
	ds.cards[ci.ID] = ci
	return ci, nil
}

func shuffleInstances(cards []*cardInstance, rng *rand.Rand) {
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}

func (e *Engine) dealOpeningHands(ds *duelState) {
	for _, id := range ds.playerOrder {
		player := ds.players[id]
		for i := 0; i < openingHandSize && len(player.Deck) > 0; i++ {
			e.drawCard(ds, player, false)
		}
	}
}

// drawCard moves the top deck card to hand. An empty deck refills from
// the trash first; failing that the player burns out and loses. The
// publish flag suppresses events during pre-game dealing.
func (e *Engine) drawCard(ds *duelState, player *playerState, publish bool) bool {
	if len(player.Deck) == 0 && len(player.Trash) > 0 {
		player.Deck = player.Trash
		player.Trash = nil
		for _, ci := range player.Deck {
			ci.Zone = zoneDeck
		}
	}
	if len(player.Deck) == 0 {
		if publish {
			e.playerLoses(ds, player, "burn out: cannot draw")
			event := rules.NewEvent(rules.EventBurnOut)
			event.PlayerID = player.PlayerID
			event.Turn = ds.turns.TurnNumber()
			ds.bus.Publish(event)
		}
		return false
	}
	ci := player.Deck[0]
	player.Deck = player.Deck[1:]
	ci.Zone = zoneHand
	player.Hand = append(player.Hand, ci)
	if publish {
		event := rules.NewEvent(rules.EventCardDrawn)
		event.PlayerID = player.PlayerID
		event.SourceID = ci.ID
		event.Turn = ds.turns.TurnNumber()
		ds.bus.Publish(event)
		e.queueTriggers(ds, event)
	}
	return true
}

func (e *Engine) handleMulligan(ds *duelState, action Action) *ActionResult {
	if ds.turns.CurrentPhase() != rules.PhaseMulligan {
		return ds.reject(action, "mulligan only during MULLIGAN", nil)
	}
	player := ds.players[action.PlayerID]
	if player.KeptHand {
		return ds.reject(action, "hand already confirmed", nil)
	}
	if player.MulliganUsed {
		return ds.reject(action, "mulligan already used", nil)
	}

	// Hand goes to the bottom of the deck, then redraw.
	for _, ci := range player.Hand {
		ci.Zone = zoneDeck
		player.Deck = append(player.Deck, ci)
	}
	player.Hand = nil
	for i := 0; i < openingHandSize && len(player.Deck) > 0; i++ {
		e.drawCard(ds, player, false)
	}
	player.MulliganUsed = true
	e.logger.Debug("player mulliganed",
		zap.String("game_id", ds.gameID),
		zap.String("player_id", player.PlayerID))
	return ds.accept(action)
}

func (e *Engine) handleConfirmMulligan(ds *duelState, action Action) *ActionResult {
	if ds.turns.CurrentPhase() != rules.PhaseMulligan {
		return ds.reject(action, "confirm-mulligan only during MULLIGAN", nil)
	}
	player := ds.players[action.PlayerID]
	if player.KeptHand {
		return ds.reject(action, "hand already confirmed", nil)
	}
	player.KeptHand = true

	for _, id := range ds.playerOrder {
		if !ds.players[id].KeptHand {
			return ds.accept(action)
		}
	}
	// Both confirmed: turns begin.
	if err := ds.turns.BeginTurns(); err != nil {
		return ds.reject(action, err.Error(), nil)
	}
	e.enterPhase(ds, rules.PhaseAwaken)
	return ds.accept(action)
}

func (e *Engine) handleConcede(ds *duelState, action Action) *ActionResult {
	player := ds.players[action.PlayerID]
	if player.Conceded {
		return ds.reject(action, "already conceded", nil)
	}
	player.Conceded = true
	e.playerLoses(ds, player, "conceded")
	return ds.accept(action)
}

func (e *Engine) handleAdvanceStep(ds *duelState, action Action) *ActionResult {
	if !ds.turns.IsTurnPhase() {
		return ds.reject(action, "no turn in progress", nil)
	}
	if action.PlayerID != ds.turns.ActivePlayer() {
		return ds.reject(action, "only the active player advances the step", map[string]string{
			"active_player": ds.turns.ActivePlayer(),
		})
	}
	if r := ds.requireNoPendingChoice(action); r != nil {
		return r
	}
	if !ds.chain.IsEmpty() {
		return ds.reject(action, "chain must be empty to advance", map[string]string{
			"chain_len": fmt.Sprintf("%d", ds.chain.Len()),
		})
	}
	if ds.windows.Depth() > 1 {
		return ds.reject(action, "close open windows before advancing", map[string]string{
			"window": string(ds.windows.Current().Kind),
		})
	}

	if ds.turns.CurrentPhase() == rules.PhaseEnding {
		e.finishTurn(ds)
		return ds.accept(action)
	}
	next, err := ds.turns.AdvancePhase("")
	if err != nil {
		return ds.reject(action, err.Error(), nil)
	}
	e.enterPhase(ds, next)
	return ds.accept(action)
}

// finishTurn leaves ENDING: end-of-turn cleanup, then the opponent's
// AWAKEN.
func (e *Engine) finishTurn(ds *duelState) {
	active := ds.turns.ActivePlayer()

	endEvent := rules.NewEvent(rules.EventTurnEnded)
	endEvent.PlayerID = active
	endEvent.Turn = ds.turns.TurnNumber()
	ds.bus.Publish(endEvent)

	// Temporary units die at end of turn.
	for _, ci := range e.sortedBoard(ds) {
		if ci.Zone == zoneBoard && ci.hasKeyword(card.KeywordTemporary) {
			e.killUnit(ds, ci, "")
		}
	}
	for _, ci := range ds.cards {
		if ci.Zone == zoneBoard {
			ci.expireEndOfTurn()
		}
	}
	for _, player := range ds.players {
		player.Pool.Empty()
	}
	ds.delayed.ExpireTurn(ds.turns.TurnNumber())
	ds.watchers.ResetAll()

	next, err := ds.turns.AdvancePhase(ds.nextPlayer(active))
	if err != nil || next != rules.PhaseAwaken {
		e.logger.Error("turn wrap failed",
			zap.String("game_id", ds.gameID),
			zap.Error(err))
		return
	}
	e.enterPhase(ds, rules.PhaseAwaken)
}

// enterPhase runs a phase's automatic effects.
func (e *Engine) enterPhase(ds *duelState, phase rules.Phase) {
	active := ds.players[ds.turns.ActivePlayer()]

	phaseEvent := rules.NewEvent(rules.EventPhaseChanged)
	phaseEvent.PlayerID = active.PlayerID
	phaseEvent.Turn = ds.turns.TurnNumber()
	phaseEvent.Metadata["phase"] = phase.String()
	ds.bus.Publish(phaseEvent)
	e.notify(ds, "PHASE_CHANGE", map[string]interface{}{
		"phase": phase.String(),
		"turn":  ds.turns.TurnNumber(),
	})

	switch phase {
	case rules.PhaseAwaken:
		beganEvent := rules.NewEvent(rules.EventTurnBegan)
		beganEvent.PlayerID = active.PlayerID
		beganEvent.Turn = ds.turns.TurnNumber()
		ds.bus.Publish(beganEvent)
		for _, ci := range ds.cards {
			if ci.ControllerID == active.PlayerID &&
				(ci.Zone == zoneBoard || ci.Zone == zoneRunes || ci.Zone == zoneChampion) {
				ci.Ready = true
			}
		}
	case rules.PhaseScoring:
		e.checkVictory(ds)
	case rules.PhaseChannel:
		e.channelRune(ds, active)
	case rules.PhaseDraw:
		e.drawCard(ds, active, true)
	case rules.PhaseAction:
		ds.windows.Reset()
		ds.turns.SetPriority(active.PlayerID)
		ds.consecutivePasses = 0
	case rules.PhaseEnding:
		e.scoreHeldBattlefields(ds, active)
		e.fireTurnEndClauses(ds, active)
	}
}

// channelRune moves the top rune-deck card into play, ready.
func (e *Engine) channelRune(ds *duelState, player *playerState) {
	if len(player.RuneDeck) == 0 {
		return
	}
	ci := player.RuneDeck[0]
	player.RuneDeck = player.RuneDeck[1:]
	ci.Zone = zoneRunes
	ci.Ready = true
	player.RunesInPlay = append(player.RunesInPlay, ci)

	event := rules.NewEvent(rules.EventRuneChanneled)
	event.PlayerID = player.PlayerID
	event.SourceID = ci.ID
	event.Turn = ds.turns.TurnNumber()
	ds.bus.Publish(event)
}

func (e *Engine) handlePassPriority(ds *duelState, action Action) *ActionResult {
	if ds.turns.CurrentPhase() != rules.PhaseAction {
		return ds.reject(action, "priority exists only during ACTION", nil)
	}
	if r := ds.requirePriority(action); r != nil {
		return r
	}
	if r := ds.requireNoPendingChoice(action); r != nil {
		return r
	}

	ds.consecutivePasses++
	if ds.consecutivePasses < len(ds.playerOrder) {
		ds.turns.SetPriority(ds.opponentOf(action.PlayerID))
		return ds.accept(action)
	}

	// Both players passed.
	ds.consecutivePasses = 0
	if !ds.chain.IsEmpty() {
		top, _ := ds.chain.Peek()
		if !top.Resolvable() {
			ds.consecutivePasses = 1
			return ds.reject(action, "top chain entry awaits mandatory targets", map[string]string{
				"entry_id": top.ID,
			})
		}
		e.resolveTop(ds)
		ds.turns.SetPriority(ds.turns.ActivePlayer())
		return ds.accept(action)
	}

	// Empty chain: close the innermost window or advance the phase.
	switch ds.windows.Current().Kind {
	case rules.WindowShowdown:
		e.beginCombatDamage(ds)
	case rules.WindowCombat:
		// Combat windows close via CONFIRM_DAMAGE; passing inside one
		// with an empty chain returns to the showdown.
		e.closeCombat(ds)
	case rules.WindowClosed:
		ds.windows.Pop()
		ds.turns.SetPriority(ds.turns.ActivePlayer())
	default:
		// Base open window: the action phase ends.
		next, err := ds.turns.AdvancePhase("")
		if err != nil {
			return ds.reject(action, err.Error(), nil)
		}
		e.enterPhase(ds, next)
	}
	return ds.accept(action)
}

// resolveTop resolves the top chain entry, fizzling it when its legality
// lapsed.
func (e *Engine) resolveTop(ds *duelState) {
	entry, err := ds.chain.Pop()
	if err != nil {
		return
	}
	result := ds.legality.CheckChainEntry(entry)
	if !result.Legal {
		if entry.OnFizzle != nil {
			entry.OnFizzle()
		}
		event := rules.NewEvent(rules.EventChainEntryFizzled)
		event.PlayerID = entry.Controller
		event.SourceID = entry.SourceID
		event.Turn = ds.turns.TurnNumber()
		event.Metadata["reason"] = result.Reason
		ds.bus.Publish(event)
		e.logger.Debug("chain entry fizzled",
			zap.String("game_id", ds.gameID),
			zap.String("entry_id", entry.ID),
			zap.String("reason", result.Reason))
	} else if entry.Resolve != nil {
		ds.resolving = &entry
		if err := entry.Resolve(); err != nil {
			e.logger.Error("chain entry resolution failed",
				zap.String("game_id", ds.gameID),
				zap.String("entry_id", entry.ID),
				zap.Error(err))
		}
		event := rules.NewEvent(rules.EventChainEntryResolved)
		event.PlayerID = entry.Controller
		event.SourceID = entry.SourceID
		event.Turn = ds.turns.TurnNumber()
		ds.bus.Publish(event)
		ds.resolving = nil
	}

	// A resolved chain in a closed window reopens it.
	if ds.chain.IsEmpty() && ds.windows.Current().Kind == rules.WindowClosed {
		ds.windows.Pop()
	}
	ds.chain.RemoveIllegalEntries(ds.legality)
	e.notify(ds, "CHAIN_UPDATE", map[string]interface{}{"chain_len": ds.chain.Len()})
}

// playerLoses marks the player lost and ends the game for them.
func (e *Engine) playerLoses(ds *duelState, player *playerState, reason string) {
	if player.Lost {
		return
	}
	player.Lost = true
	player.LostReason = reason
	e.logger.Info("player lost game",
		zap.String("game_id", ds.gameID),
		zap.String("player_id", player.PlayerID),
		zap.String("reason", reason))

	winner := ds.opponentOf(player.PlayerID)
	e.endGame(ds, winner)
}

// endGame wins the current game for winnerID and either finishes the
// match or deals the next game.
func (e *Engine) endGame(ds *duelState, winnerID string) {
	ds.matchWins[winnerID]++
	ds.players[winnerID].Wins++

	event := rules.NewEvent(rules.EventGameOver)
	event.PlayerID = winnerID
	event.Turn = ds.turns.TurnNumber()
	ds.bus.Publish(event)

	needed := ds.bestOf/2 + 1
	if ds.matchWins[winnerID] >= needed {
		ds.matchOver = true
		ds.winnerID = winnerID
		ds.turns.EndGame()
		e.notify(ds, "MATCH_OVER", map[string]interface{}{"winner": winnerID})
		e.logger.Info("match over",
			zap.String("game_id", ds.gameID),
			zap.String("winner", winnerID),
			zap.Int("games", ds.gameNumber))
		return
	}
	e.resetForNextGame(ds, winnerID)
}

// resetForNextGame rebuilds decks and state for the next game of the
// match. The loser of the previous game is on the play.
func (e *Engine) resetForNextGame(ds *duelState, lastWinner string) {
	ds.gameNumber++
	loser := ds.opponentOf(lastWinner)

	// Rebuild each seat from its mint-order lists and shuffle with the
	// match rng, so the same seed and action log reproduce every game of
	// the match, not only the first.
	kept := make(map[string]bool, len(ds.cards))
	for _, playerID := range ds.playerOrder {
		player := ds.players[playerID]
		deck := append([]*cardInstance(nil), player.DeckList...)
		for _, ci := range deck {
			resetInstance(ci, zoneDeck)
			kept[ci.ID] = true
		}
		shuffleInstances(deck, ds.rng)
		runeCards := append([]*cardInstance(nil), player.RuneList...)
		for _, ci := range runeCards {
			resetInstance(ci, zoneRunes)
			kept[ci.ID] = true
		}
		if player.Legend != nil {
			resetInstance(player.Legend, zoneChampion)
			player.Legend.Ready = true
			kept[player.Legend.ID] = true
		}
		player.Deck = deck
		player.Hand = nil
		player.Trash = nil
		player.RuneDeck = runeCards
		player.RunesInPlay = nil
		player.Pool = runes.NewPool()
		player.Score = 0
		player.Passed = false
		player.Lost = false
		player.LostReason = ""
		player.MulliganUsed = false
		player.KeptHand = false
		player.LegendUsedTurn = 0
	}
	// Instances minted outside the seat lists do not carry over.
	for id := range ds.cards {
		if !kept[id] {
			delete(ds.cards, id)
		}
	}
	for _, bf := range ds.battlefields {
		bf.ControllerID = ""
		bf.Contested = false
		bf.HeldSince = 0
		bf.Hidden = make(map[string][]*cardInstance)
	}
	ds.chain = rules.NewChain()
	ds.windows.Reset()
	ds.triggers = rules.NewTriggerManager()
	ds.delayed = rules.NewDelayedTriggerManager()
	ds.combat = nil
	ds.pending = nil
	ds.consecutivePasses = 0
	ds.playCounter = 0
	ds.watchers.ResetAll()

	ds.turns = rules.NewTurnManager(loser)
	e.dealOpeningHands(ds)
	ds.turns.BeginMulligan()
	e.notify(ds, "NEXT_GAME", map[string]interface{}{
		"game_number": ds.gameNumber,
		"on_the_play": loser,
	})
}

// afterAction runs state-based checks after every accepted action.
func (e *Engine) afterAction(ds *duelState) {
	if ds.matchOver {
		return
	}
	e.checkVictory(ds)
}

func (e *Engine) checkVictory(ds *duelState) {
	if ds.matchOver || ds.turns.CurrentPhase() == rules.PhaseGameOver {
		return
	}
	for _, id := range ds.playerOrder {
		player := ds.players[id]
		if !player.Lost && player.Score >= ds.victoryScore {
			e.endGame(ds, id)
			return
		}
	}
}

// sortedBoard returns all in-play instances in play order.
func (e *Engine) sortedBoard(ds *duelState) []*cardInstance {
	var board []*cardInstance
	for _, ci := range ds.cards {
		if ci.Zone == zoneBoard {
			board = append(board, ci)
		}
	}
	sortByPlayOrder(board)
	return board
}

// Snapshot returns the current serializable state of the game.
func (e *Engine) Snapshot(gameID string) (*Snapshot, error) {
	e.mu.RLock()
	ds, ok := e.games[gameID]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("game %s not found", gameID)
	}
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return e.buildSnapshot(ds), nil
}

// ActionLog returns a copy of the accepted-action log.
func (e *Engine) ActionLog(gameID string) ([]LoggedAction, error) {
	e.mu.RLock()
	ds, ok := e.games[gameID]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("game %s not found", gameID)
	}
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	log := make([]LoggedAction, len(ds.actionLog))
	copy(log, ds.actionLog)
	return log, nil
}

// CleanupGame removes a finished game from the engine.
func (e *Engine) CleanupGame(gameID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.games, gameID)
	if e.recorder != nil {
		e.recorder.StopRecording(gameID)
	}
}
