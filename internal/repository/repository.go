// Package repository persists match results, action logs and card
// definitions to Postgres. Persistence is optional: the server runs
// without it when no DSN is configured.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/riftforge/rift-server-go/internal/config"
	"github.com/riftforge/rift-server-go/internal/game"
)

const schema = `
CREATE TABLE IF NOT EXISTS matches (
	game_id     text PRIMARY KEY,
	winner_id   text NOT NULL,
	games       int NOT NULL,
	started_at  timestamptz NOT NULL,
	finished_at timestamptz NOT NULL
);

CREATE TABLE IF NOT EXISTS match_actions (
	game_id     text NOT NULL,
	seq         int NOT NULL,
	turn        int NOT NULL,
	phase       text NOT NULL,
	action      jsonb NOT NULL,
	recorded_at timestamptz NOT NULL,
	PRIMARY KEY (game_id, seq)
);

CREATE TABLE IF NOT EXISTS cards (
	id          text PRIMARY KEY,
	name        text NOT NULL,
	card_type   text NOT NULL,
	cost        text NOT NULL DEFAULT '',
	might       int NOT NULL DEFAULT 0,
	power_value int NOT NULL DEFAULT 0,
	domains     text[] NOT NULL DEFAULT '{}',
	tags        text[] NOT NULL DEFAULT '{}',
	keywords    text NOT NULL DEFAULT '',
	rules_text  text NOT NULL DEFAULT ''
);
`

// MatchResult is one finished match.
type MatchResult struct {
	GameID     string
	WinnerID   string
	Games      int
	StartedAt  time.Time
	FinishedAt time.Time
}

// CardRecord is one catalog entry as stored in the cards table.
type CardRecord struct {
	ID         string
	Name       string
	CardType   string
	Cost       string
	Might      int
	PowerValue int
	Domains    []string
	Tags       []string
	Keywords   string
	RulesText  string
}

// Store wraps the connection pool and owns the schema.
type Store struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewStore connects to Postgres and bootstraps the schema.
func NewStore(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing database DSN: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	pingCtx := ctx
	if cfg.ConnTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.ConnTimeout)
		defer cancel()
	}
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrapping schema: %w", err)
	}

	logger.Info("database store initialized",
		zap.Int32("max_conns", poolCfg.MaxConns))
	return &Store{pool: pool, logger: logger}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// SaveMatchResult upserts one finished match.
func (s *Store) SaveMatchResult(ctx context.Context, result MatchResult) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO matches (game_id, winner_id, games, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (game_id) DO UPDATE
		SET winner_id = EXCLUDED.winner_id,
		    games = EXCLUDED.games,
		    finished_at = EXCLUDED.finished_at`,
		result.GameID, result.WinnerID, result.Games, result.StartedAt, result.FinishedAt)
	if err != nil {
		return fmt.Errorf("saving match %s: %w", result.GameID, err)
	}
	return nil
}

// SaveActionLog writes the full accepted-action log of a game in one
// transaction. Re-saving replaces the previous log.
func (s *Store) SaveActionLog(ctx context.Context, gameID string, log []game.LoggedAction) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM match_actions WHERE game_id = $1", gameID); err != nil {
		return fmt.Errorf("clearing action log for %s: %w", gameID, err)
	}

	for _, entry := range log {
		payload, err := json.Marshal(entry.Action)
		if err != nil {
			return fmt.Errorf("encoding action %d: %w", entry.Seq, err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO match_actions (game_id, seq, turn, phase, action, recorded_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			gameID, entry.Seq, entry.Turn, entry.Phase, payload, entry.Timestamp)
		if err != nil {
			return fmt.Errorf("inserting action %d for %s: %w", entry.Seq, gameID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing action log for %s: %w", gameID, err)
	}
	return nil
}

// LoadActionLog reads back a stored action log in sequence order.
func (s *Store) LoadActionLog(ctx context.Context, gameID string) ([]game.LoggedAction, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT seq, turn, phase, action, recorded_at
		FROM match_actions WHERE game_id = $1 ORDER BY seq`,
		gameID)
	if err != nil {
		return nil, fmt.Errorf("loading action log for %s: %w", gameID, err)
	}
	defer rows.Close()

	var log []game.LoggedAction
	for rows.Next() {
		var entry game.LoggedAction
		var payload []byte
		if err := rows.Scan(&entry.Seq, &entry.Turn, &entry.Phase, &payload, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning action row: %w", err)
		}
		if err := json.Unmarshal(payload, &entry.Action); err != nil {
			return nil, fmt.Errorf("decoding action %d: %w", entry.Seq, err)
		}
		log = append(log, entry)
	}
	return log, rows.Err()
}

// RecentMatches lists the most recently finished matches.
func (s *Store) RecentMatches(ctx context.Context, limit int) ([]MatchResult, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT game_id, winner_id, games, started_at, finished_at
		FROM matches ORDER BY finished_at DESC LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("listing matches: %w", err)
	}
	defer rows.Close()

	var results []MatchResult
	for rows.Next() {
		var r MatchResult
		if err := rows.Scan(&r.GameID, &r.WinnerID, &r.Games, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("scanning match row: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// ImportCards upserts card records in one transaction and returns the
// number written.
func (s *Store) ImportCards(ctx context.Context, cards []CardRecord) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	written := 0
	for _, c := range cards {
		_, err := tx.Exec(ctx, `
			INSERT INTO cards (id, name, card_type, cost, might, power_value,
				domains, tags, keywords, rules_text)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (id) DO UPDATE
			SET name = EXCLUDED.name,
			    card_type = EXCLUDED.card_type,
			    cost = EXCLUDED.cost,
			    might = EXCLUDED.might,
			    power_value = EXCLUDED.power_value,
			    domains = EXCLUDED.domains,
			    tags = EXCLUDED.tags,
			    keywords = EXCLUDED.keywords,
			    rules_text = EXCLUDED.rules_text`,
			c.ID, c.Name, c.CardType, c.Cost, c.Might, c.PowerValue,
			c.Domains, c.Tags, c.Keywords, c.RulesText)
		if err != nil {
			return written, fmt.Errorf("upserting card %s: %w", c.ID, err)
		}
		written++
	}

	if err := tx.Commit(ctx); err != nil {
		return written, fmt.Errorf("committing card import: %w", err)
	}
	return written, nil
}

// CountCards returns the number of stored card records.
func (s *Store) CountCards(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM cards").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting cards: %w", err)
	}
	return count, nil
}

// GetCard loads one stored card record.
func (s *Store) GetCard(ctx context.Context, id string) (*CardRecord, error) {
	var c CardRecord
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, card_type, cost, might, power_value,
			domains, tags, keywords, rules_text
		FROM cards WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.CardType, &c.Cost, &c.Might, &c.PowerValue,
			&c.Domains, &c.Tags, &c.Keywords, &c.RulesText)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("card %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading card %s: %w", id, err)
	}
	return &c, nil
}
