/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package roshambo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	createLeaderboard = `CREATE TABLE IF NOT EXISTS leaderboard (
	name TEXT PRIMARY KEY,
	wins INTEGER NOT NULL DEFAULT 0
)`
	selectLeaderboard = `SELECT name, wins FROM leaderboard`
	upsertLeaderboard = `INSERT INTO leaderboard (name, wins) VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE SET wins = EXCLUDED.wins`
)

// PostgresScoreboard keeps the leaderboard in a PostgreSQL table.
type PostgresScoreboard struct {
	pool *pgxpool.Pool
}

func NewPostgresScoreboard(ctx context.Context, connString string) (*PostgresScoreboard, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := pool.Exec(ctx, createLeaderboard); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create leaderboard table: %w", err)
	}

	return &PostgresScoreboard{pool: pool}, nil
}

func (p *PostgresScoreboard) Load(ctx context.Context) (map[string]int, error) {
	rows, err := p.pool.Query(ctx, selectLeaderboard)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}

	scores := make(map[string]int)

	var (
		name string
		wins int
	)
	_, err = pgx.ForEachRow(rows, []any{&name, &wins}, func() error {
		scores[name] = wins
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}

	return scores, nil
}

func (p *PostgresScoreboard) Save(ctx context.Context, scores map[string]int) error {
	batch := &pgx.Batch{}
	for name, wins := range scores {
		batch.Queue(upsertLeaderboard, name, wins)
	}

	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("failed to save leaderboard: %w", err)
	}

	return nil
}

func (p *PostgresScoreboard) Close() { p.pool.Close() }
