package game

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Replay is the recorded history of one match: the seed, every accepted
// action in order, and periodic snapshot checkpoints. Replaying the
// action log against the same seed reproduces the match; checkpoints
// let a viewer seek without replaying from the start.
type Replay struct {
	GameID       string
	Seed         int64
	Actions      []LoggedAction
	Checkpoints  []*Snapshot
	CurrentIndex int
	mu           sync.RWMutex
}

// NewReplay creates an empty replay.
func NewReplay(gameID string, seed int64) *Replay {
	return &Replay{
		GameID:  gameID,
		Seed:    seed,
		Actions: make([]LoggedAction, 0),
	}
}

// RecordAction appends an accepted action.
func (r *Replay) RecordAction(action LoggedAction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Actions = append(r.Actions, action)
}

// RecordCheckpoint appends a snapshot checkpoint.
func (r *Replay) RecordCheckpoint(snapshot *Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Checkpoints = append(r.Checkpoints, snapshot)
}

// Start rewinds playback to the first action.
func (r *Replay) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.CurrentIndex = 0
}

// Next returns the next action, or nil at the end.
func (r *Replay) Next() *LoggedAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CurrentIndex < len(r.Actions) {
		action := r.Actions[r.CurrentIndex]
		r.CurrentIndex++
		return &action
	}
	return nil
}

// Previous steps back one action and returns it, or nil at the start.
func (r *Replay) Previous() *LoggedAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CurrentIndex > 0 {
		r.CurrentIndex--
		action := r.Actions[r.CurrentIndex]
		return &action
	}
	return nil
}

// Skip moves playback forward or backward by count actions.
func (r *Replay) Skip(count int) *LoggedAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	newIndex := r.CurrentIndex + count
	if newIndex >= len(r.Actions) {
		newIndex = len(r.Actions) - 1
	}
	if newIndex < 0 {
		newIndex = 0
	}
	r.CurrentIndex = newIndex
	if r.CurrentIndex < len(r.Actions) {
		action := r.Actions[r.CurrentIndex]
		return &action
	}
	return nil
}

// Size returns the number of recorded actions.
func (r *Replay) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.Actions)
}

// ActionAt returns the action at a specific index, or nil.
func (r *Replay) ActionAt(index int) *LoggedAction {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if index >= 0 && index < len(r.Actions) {
		action := r.Actions[index]
		return &action
	}
	return nil
}

// replayMetadata heads a saved replay file.
type replayMetadata struct {
	GameID          string
	Seed            int64
	Timestamp       time.Time
	Version         int
	ActionCount     int
	CheckpointCount int
}

// SaveToFile writes the replay to a gzipped gob file in the directory.
func (r *Replay) SaveToFile(directory string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := os.MkdirAll(directory, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	filename := filepath.Join(directory, fmt.Sprintf("%s.replay", r.GameID))
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()
	encoder := gob.NewEncoder(gzipWriter)

	metadata := replayMetadata{
		GameID:          r.GameID,
		Seed:            r.Seed,
		Timestamp:       time.Now(),
		Version:         1,
		ActionCount:     len(r.Actions),
		CheckpointCount: len(r.Checkpoints),
	}
	if err := encoder.Encode(&metadata); err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	for i, action := range r.Actions {
		if err := encoder.Encode(&action); err != nil {
			return fmt.Errorf("failed to encode action %d: %w", i, err)
		}
	}
	for i, checkpoint := range r.Checkpoints {
		if err := encoder.Encode(checkpoint); err != nil {
			return fmt.Errorf("failed to encode checkpoint %d: %w", i, err)
		}
	}
	return nil
}

// LoadReplayFromFile reads a replay saved by SaveToFile.
func LoadReplayFromFile(directory, gameID string) (*Replay, error) {
	filename := filepath.Join(directory, fmt.Sprintf("%s.replay", gameID))
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()
	decoder := gob.NewDecoder(gzipReader)

	var metadata replayMetadata
	if err := decoder.Decode(&metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	if metadata.Version != 1 {
		return nil, fmt.Errorf("unsupported replay version: %d", metadata.Version)
	}

	replay := NewReplay(metadata.GameID, metadata.Seed)
	for i := 0; i < metadata.ActionCount; i++ {
		var action LoggedAction
		if err := decoder.Decode(&action); err != nil {
			return nil, fmt.Errorf("failed to decode action %d: %w", i, err)
		}
		replay.Actions = append(replay.Actions, action)
	}
	for i := 0; i < metadata.CheckpointCount; i++ {
		var checkpoint Snapshot
		if err := decoder.Decode(&checkpoint); err != nil {
			return nil, fmt.Errorf("failed to decode checkpoint %d: %w", i, err)
		}
		replay.Checkpoints = append(replay.Checkpoints, &checkpoint)
	}
	return replay, nil
}

// ReplayRecorder manages replay recording for the engine.
type ReplayRecorder struct {
	logger  *zap.Logger
	mu      sync.RWMutex
	replays map[string]*Replay
	enabled map[string]bool
	saveDir string
}

// NewReplayRecorder creates a recorder writing replay files to saveDir.
func NewReplayRecorder(logger *zap.Logger, saveDir string) *ReplayRecorder {
	return &ReplayRecorder{
		logger:  logger,
		replays: make(map[string]*Replay),
		enabled: make(map[string]bool),
		saveDir: saveDir,
	}
}

// StartRecording begins recording a game.
func (rr *ReplayRecorder) StartRecording(gameID string) {
	rr.StartRecordingSeeded(gameID, 0)
}

// StartRecordingSeeded begins recording a game with its shuffle seed.
func (rr *ReplayRecorder) StartRecordingSeeded(gameID string, seed int64) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	rr.replays[gameID] = NewReplay(gameID, seed)
	rr.enabled[gameID] = true
	if rr.logger != nil {
		rr.logger.Info("started replay recording", zap.String("game_id", gameID))
	}
}

// StopRecording stops recording a game.
func (rr *ReplayRecorder) StopRecording(gameID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	rr.enabled[gameID] = false
	if rr.logger != nil {
		rr.logger.Info("stopped replay recording", zap.String("game_id", gameID))
	}
}

// RecordAction records an accepted action if recording is enabled.
func (rr *ReplayRecorder) RecordAction(gameID string, action LoggedAction) {
	rr.mu.RLock()
	enabled := rr.enabled[gameID]
	replay := rr.replays[gameID]
	rr.mu.RUnlock()
	if !enabled || replay == nil {
		return
	}
	replay.RecordAction(action)
}

// RecordCheckpoint records a snapshot checkpoint if recording is
// enabled.
func (rr *ReplayRecorder) RecordCheckpoint(gameID string, snapshot *Snapshot) {
	rr.mu.RLock()
	enabled := rr.enabled[gameID]
	replay := rr.replays[gameID]
	rr.mu.RUnlock()
	if !enabled || replay == nil {
		return
	}
	replay.RecordCheckpoint(snapshot)
	if rr.logger != nil {
		rr.logger.Debug("recorded replay checkpoint",
			zap.String("game_id", gameID),
			zap.Int("action_count", replay.Size()))
	}
}

// GetReplay returns the in-memory replay for a game.
func (rr *ReplayRecorder) GetReplay(gameID string) (*Replay, bool) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	replay, exists := rr.replays[gameID]
	return replay, exists
}

// SaveReplay writes a replay to disk and drops it from memory.
func (rr *ReplayRecorder) SaveReplay(gameID string) error {
	rr.mu.Lock()
	replay, exists := rr.replays[gameID]
	if !exists {
		rr.mu.Unlock()
		return fmt.Errorf("no replay found for game %s", gameID)
	}
	delete(rr.replays, gameID)
	delete(rr.enabled, gameID)
	rr.mu.Unlock()

	if err := replay.SaveToFile(rr.saveDir); err != nil {
		return fmt.Errorf("failed to save replay: %w", err)
	}
	if rr.logger != nil {
		rr.logger.Info("saved replay to disk",
			zap.String("game_id", gameID),
			zap.Int("action_count", replay.Size()),
			zap.String("directory", rr.saveDir))
	}
	return nil
}

// LoadReplay reads a replay back from disk.
func (rr *ReplayRecorder) LoadReplay(gameID string) (*Replay, error) {
	replay, err := LoadReplayFromFile(rr.saveDir, gameID)
	if err != nil {
		return nil, err
	}
	if rr.logger != nil {
		rr.logger.Info("loaded replay from disk",
			zap.String("game_id", gameID),
			zap.Int("action_count", replay.Size()))
	}
	return replay, nil
}

// ClearReplay drops a replay from memory without saving it.
func (rr *ReplayRecorder) ClearReplay(gameID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	delete(rr.replays, gameID)
	delete(rr.enabled, gameID)
}

// IsRecording reports whether recording is enabled for a game.
func (rr *ReplayRecorder) IsRecording(gameID string) bool {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	return rr.enabled[gameID]
}
