package game

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/riftforge/rift-server-go/internal/game/counters"
	"github.com/riftforge/rift-server-go/internal/game/rules"
	"github.com/riftforge/rift-server-go/internal/game/runes"
)

// Snapshot is the serializable view of one duel, suitable for clients,
// replay files and divergence checks.
type Snapshot struct {
	GameID         string                `json:"game_id"`
	GameNumber     int                   `json:"game_number"`
	TurnNumber     int                   `json:"turn_number"`
	Phase          string                `json:"phase"`
	ActivePlayer   string                `json:"active_player"`
	PriorityPlayer string                `json:"priority_player"`
	Windows        []WindowView          `json:"windows"`
	PlayerOrder    []string              `json:"player_order"`
	Players        map[string]PlayerView `json:"players"`
	Cards          map[string]CardView   `json:"cards"`
	Battlefields   []BattlefieldView     `json:"battlefields"`
	Chain          []ChainEntryView      `json:"chain"`
	Combat         *CombatView           `json:"combat,omitempty"`
	Pending        *ChoiceView           `json:"pending,omitempty"`
	MatchOver      bool                  `json:"match_over"`
	WinnerID       string                `json:"winner_id,omitempty"`
	Timestamp      time.Time             `json:"timestamp"`
}

// PlayerView is one seat's public and private state.
type PlayerView struct {
	PlayerID     string               `json:"player_id"`
	Name         string               `json:"name"`
	Score        int                  `json:"score"`
	Wins         int                  `json:"wins"`
	Hand         []string             `json:"hand"`
	DeckCount    int                  `json:"deck_count"`
	TrashCount   int                  `json:"trash_count"`
	RuneDeck     int                  `json:"rune_deck_count"`
	RunesInPlay  []string             `json:"runes_in_play"`
	LegendID     string               `json:"legend_id,omitempty"`
	Energy       int                  `json:"energy"`
	Power        map[runes.Domain]int `json:"power"`
	Passed       bool                 `json:"passed"`
	Lost         bool                 `json:"lost"`
	MulliganUsed bool                 `json:"mulligan_used"`
	KeptHand     bool                 `json:"kept_hand"`
}

// CardView is one card instance's visible state.
type CardView struct {
	ID            string                 `json:"id"`
	Name          string                 `json:"name"`
	Type          string                 `json:"type"`
	OwnerID       string                 `json:"owner_id"`
	ControllerID  string                 `json:"controller_id"`
	Zone          int                    `json:"zone"`
	BattlefieldID string                 `json:"battlefield_id,omitempty"`
	Ready         bool                   `json:"ready"`
	FaceDown      bool                   `json:"face_down"`
	Damage        int                    `json:"damage"`
	Might         int                    `json:"might"`
	Counters      []counters.CounterView `json:"counters,omitempty"`
	Attacking     bool                   `json:"attacking"`
	Defending     bool                   `json:"defending"`
	AttachedGear  []string               `json:"attached_gear,omitempty"`
	PlayOrder     int                    `json:"play_order"`
}

// BattlefieldView is one battlefield's state.
type BattlefieldView struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	OwnerID      string         `json:"owner_id"`
	ControllerID string         `json:"controller_id,omitempty"`
	Contested    bool           `json:"contested"`
	HeldSince    int            `json:"held_since"`
	HiddenCounts map[string]int `json:"hidden_counts,omitempty"`
}

// ChainEntryView is one pending chain entry, bottom first.
type ChainEntryView struct {
	ID          string `json:"id"`
	Controller  string `json:"controller"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
	SourceID    string `json:"source_id"`
	Ready       bool   `json:"ready"`
}

// WindowView is one window-stack entry, bottom first.
type WindowView struct {
	Kind          string `json:"kind"`
	BattlefieldID string `json:"battlefield_id,omitempty"`
}

// CombatView is the in-progress combat, if any.
type CombatView struct {
	BattlefieldID      string         `json:"battlefield_id"`
	AttackerID         string         `json:"attacker_id"`
	DefenderID         string         `json:"defender_id"`
	Attackers          []string       `json:"attackers"`
	Defenders          []string       `json:"defenders"`
	AttackAssignments  map[string]int `json:"attack_assignments,omitempty"`
	DefenseAssignments map[string]int `json:"defense_assignments,omitempty"`
}

// ChoiceView is the pending choice blocking resolution, if any.
type ChoiceView struct {
	ID       string   `json:"id"`
	Kind     string   `json:"kind"`
	Player   string   `json:"player,omitempty"`
	Awaiting []string `json:"awaiting,omitempty"`
	Prompt   string   `json:"prompt,omitempty"`
}

// buildSnapshot assembles a snapshot under the duel's lock.
func (e *Engine) buildSnapshot(ds *duelState) *Snapshot {
	snapshot := &Snapshot{
		GameID:         ds.gameID,
		GameNumber:     ds.gameNumber,
		TurnNumber:     ds.turns.TurnNumber(),
		Phase:          ds.turns.CurrentPhase().String(),
		ActivePlayer:   ds.turns.ActivePlayer(),
		PriorityPlayer: ds.turns.PriorityPlayer(),
		PlayerOrder:    append([]string{}, ds.playerOrder...),
		Players:        make(map[string]PlayerView, len(ds.players)),
		Cards:          make(map[string]CardView, len(ds.cards)),
		MatchOver:      ds.matchOver,
		WinnerID:       ds.winnerID,
		Timestamp:      time.Now(),
	}

	for _, w := range ds.windows.List() {
		snapshot.Windows = append(snapshot.Windows, WindowView{
			Kind:          string(w.Kind),
			BattlefieldID: w.BattlefieldID,
		})
	}

	for id, player := range ds.players {
		view := PlayerView{
			PlayerID:     player.PlayerID,
			Name:         player.Name,
			Score:        player.Score,
			Wins:         player.Wins,
			DeckCount:    len(player.Deck),
			TrashCount:   len(player.Trash),
			RuneDeck:     len(player.RuneDeck),
			Energy:       player.Pool.GetEnergy(),
			Power:        make(map[runes.Domain]int),
			Passed:       player.Passed,
			Lost:         player.Lost,
			MulliganUsed: player.MulliganUsed,
			KeptHand:     player.KeptHand,
		}
		for _, ci := range player.Hand {
			view.Hand = append(view.Hand, ci.ID)
		}
		for _, ci := range player.RunesInPlay {
			view.RunesInPlay = append(view.RunesInPlay, ci.ID)
		}
		for _, d := range player.Pool.Domains() {
			view.Power[d] = player.Pool.GetPower(d)
		}
		if player.Legend != nil {
			view.LegendID = player.Legend.ID
		}
		snapshot.Players[id] = view
	}

	for id, ci := range ds.cards {
		view := CardView{
			ID:            ci.ID,
			Name:          ci.Def.Name,
			Type:          string(ci.Def.Type),
			OwnerID:       ci.OwnerID,
			ControllerID:  ci.ControllerID,
			Zone:          ci.Zone,
			BattlefieldID: ci.BattlefieldID,
			Ready:         ci.Ready,
			FaceDown:      ci.FaceDown,
			Damage:        ci.Damage,
			Attacking:     ci.Attacking,
			Defending:     ci.Defending,
			AttachedGear:  append([]string{}, ci.AttachedGear...),
			PlayOrder:     ci.PlayOrder,
			Counters:      ci.Counters.ToView(),
		}
		if ci.Zone == zoneBoard && !ci.FaceDown {
			view.Might = e.effectiveMight(ds, ci, roleNone)
		} else {
			view.Might = ci.Def.Might
		}
		snapshot.Cards[id] = view
	}

	for _, bf := range ds.battlefields {
		view := BattlefieldView{
			ID:           bf.ID,
			Name:         bf.Def.Name,
			OwnerID:      bf.OwnerID,
			ControllerID: bf.ControllerID,
			Contested:    bf.Contested,
			HeldSince:    bf.HeldSince,
		}
		for playerID, hidden := range bf.Hidden {
			if len(hidden) > 0 {
				if view.HiddenCounts == nil {
					view.HiddenCounts = make(map[string]int)
				}
				view.HiddenCounts[playerID] = len(hidden)
			}
		}
		snapshot.Battlefields = append(snapshot.Battlefields, view)
	}
	sort.Slice(snapshot.Battlefields, func(i, j int) bool {
		return snapshot.Battlefields[i].ID < snapshot.Battlefields[j].ID
	})

	for _, entry := range ds.chain.List() {
		snapshot.Chain = append(snapshot.Chain, ChainEntryView{
			ID:          entry.ID,
			Controller:  entry.Controller,
			Description: entry.Description,
			Kind:        string(entry.Kind),
			SourceID:    entry.SourceID,
			Ready:       entry.Resolvable(),
		})
	}

	if ds.combat != nil {
		snapshot.Combat = &CombatView{
			BattlefieldID:      ds.combat.BattlefieldID,
			AttackerID:         ds.combat.AttackerID,
			DefenderID:         ds.combat.DefenderID,
			Attackers:          append([]string{}, ds.combat.Attackers...),
			Defenders:          append([]string{}, ds.combat.Defenders...),
			AttackAssignments:  copyAssignments(ds.combat.AttackAssignments),
			DefenseAssignments: copyAssignments(ds.combat.DefenseAssignments),
		}
	}
	if ds.pending != nil {
		snapshot.Pending = &ChoiceView{
			ID:       ds.pending.ID,
			Kind:     string(ds.pending.Kind),
			Player:   ds.pending.Player,
			Awaiting: append([]string{}, ds.pending.Awaiting...),
			Prompt:   ds.pending.Prompt,
		}
	}
	return snapshot
}

func copyAssignments(src map[string]int) map[string]int {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]int, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// SnapshotChecksum is a deterministic digest of a snapshot, used to
// detect divergent states across replays or network transmission.
type SnapshotChecksum struct {
	Hash      string
	Timestamp string
	Version   int
}

// ComputeChecksum hashes a canonical representation of the snapshot.
// Timestamps and other non-deterministic fields are excluded, so two
// replays of the same seed and action log produce equal hashes.
func (s *Snapshot) ComputeChecksum() (*SnapshotChecksum, error) {
	hash := sha256.New()
	if _, err := hash.Write([]byte(s.canonical())); err != nil {
		return nil, fmt.Errorf("failed to compute hash: %w", err)
	}
	return &SnapshotChecksum{
		Hash:      hex.EncodeToString(hash.Sum(nil)),
		Timestamp: s.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z"),
		Version:   1,
	}, nil
}

// canonical renders the snapshot deterministically: maps sorted by key,
// ordered collections kept in order.
func (s *Snapshot) canonical() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "GAME:%s|%d|%d|%s|%s|%s\n",
		s.GameID, s.GameNumber, s.TurnNumber, s.Phase, s.ActivePlayer, s.PriorityPlayer)

	buf.WriteString("WINDOWS:")
	for _, w := range s.Windows {
		fmt.Fprintf(&buf, "%s@%s,", w.Kind, w.BattlefieldID)
	}
	buf.WriteString("\n")

	playerIDs := make([]string, 0, len(s.Players))
	for id := range s.Players {
		playerIDs = append(playerIDs, id)
	}
	sort.Strings(playerIDs)
	for _, id := range playerIDs {
		p := s.Players[id]
		fmt.Fprintf(&buf, "PLAYER:%s|%s|%d|%d|%d|%d|%d|%t|%t\n",
			id, p.Name, p.Score, p.Wins, p.Energy, p.DeckCount, p.RuneDeck, p.Passed, p.Lost)
		domains := make([]string, 0, len(p.Power))
		for d := range p.Power {
			domains = append(domains, string(d))
		}
		sort.Strings(domains)
		for _, d := range domains {
			fmt.Fprintf(&buf, "  POWER:%s=%d\n", d, p.Power[runes.Domain(d)])
		}
		hand := append([]string{}, p.Hand...)
		sort.Strings(hand)
		fmt.Fprintf(&buf, "  HAND:%s\n", strings.Join(hand, ","))
	}

	cardIDs := make([]string, 0, len(s.Cards))
	for id := range s.Cards {
		cardIDs = append(cardIDs, id)
	}
	sort.Strings(cardIDs)
	for _, id := range cardIDs {
		c := s.Cards[id]
		fmt.Fprintf(&buf, "CARD:%s|%s|%s|%s|%s|%d|%s|%d|%d|%t|%t\n",
			id, c.Name, c.Type, c.OwnerID, c.ControllerID, c.Zone, c.BattlefieldID,
			c.Might, c.Damage, c.Ready, c.FaceDown)
		for _, counter := range c.Counters {
			fmt.Fprintf(&buf, "  COUNTER:%s=%d\n", counter.Name, counter.Count)
		}
	}

	for _, bf := range s.Battlefields {
		fmt.Fprintf(&buf, "BATTLEFIELD:%s|%s|%s|%t|%d\n",
			bf.ID, bf.Name, bf.ControllerID, bf.Contested, bf.HeldSince)
	}

	// Chain order matters; never sort it.
	buf.WriteString("CHAIN:\n")
	for i, entry := range s.Chain {
		fmt.Fprintf(&buf, "  %d:%s|%s|%t\n", i, entry.ID, entry.Description, entry.Ready)
	}

	buf.WriteString("PLAYER_ORDER:")
	buf.WriteString(strings.Join(s.PlayerOrder, ","))
	buf.WriteString("\n")
	return buf.String()
}

// RestoreTurnState rebuilds the turn manager the snapshot was taken at,
// for resuming phase-aware playback from a replay checkpoint.
func (s *Snapshot) RestoreTurnState() (*rules.TurnManager, error) {
	phase, err := rules.PhaseFromName(s.Phase)
	if err != nil {
		return nil, fmt.Errorf("restore turn state: %w", err)
	}
	return rules.Restore(phase, s.TurnNumber, s.ActivePlayer, s.PriorityPlayer), nil
}

// VerifyChecksum reports whether the snapshot still matches a stored
// checksum.
func (s *Snapshot) VerifyChecksum(expected *SnapshotChecksum) (bool, error) {
	computed, err := s.ComputeChecksum()
	if err != nil {
		return false, fmt.Errorf("failed to compute checksum: %w", err)
	}
	return computed.Hash == expected.Hash, nil
}

// SerializeToBytes encodes a snapshot for replay files and network
// transmission.
func (s *Snapshot) SerializeToBytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// DeserializeFromBytes decodes a snapshot produced by SerializeToBytes.
func DeserializeFromBytes(data []byte) (*Snapshot, error) {
	var snapshot Snapshot
	if err := gob.NewDecoder(bytes.NewBuffer(data)).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snapshot, nil
}

// ValidateSerializationRoundtrip checks that serialization preserves the
// snapshot by comparing canonical checksums across a round trip.
func ValidateSerializationRoundtrip(snapshot *Snapshot) error {
	original, err := snapshot.ComputeChecksum()
	if err != nil {
		return fmt.Errorf("failed to compute original checksum: %w", err)
	}
	data, err := snapshot.SerializeToBytes()
	if err != nil {
		return fmt.Errorf("failed to serialize: %w", err)
	}
	restored, err := DeserializeFromBytes(data)
	if err != nil {
		return fmt.Errorf("failed to deserialize: %w", err)
	}
	after, err := restored.ComputeChecksum()
	if err != nil {
		return fmt.Errorf("failed to compute deserialized checksum: %w", err)
	}
	if original.Hash != after.Hash {
		return fmt.Errorf("checksum mismatch: original=%s, deserialized=%s", original.Hash, after.Hash)
	}
	return nil
}
