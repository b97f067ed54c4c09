/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package roshambo

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// Scoreboard persists win counts by player name.
type Scoreboard interface {
	Load(ctx context.Context) (map[string]int, error)
	Save(ctx context.Context, scores map[string]int) error
}

// Standing is one leaderboard row.
type Standing struct {
	Name string `json:"name"`
	Wins int    `json:"wins"`
}

// Standings orders scores by wins, most first, then by name.
func Standings(scores map[string]int) []Standing {
	rows := make([]Standing, 0, len(scores))
	for name, wins := range scores {
		rows = append(rows, Standing{Name: name, Wins: wins})
	}

	slices.SortFunc(rows, func(a, b Standing) int {
		if a.Wins != b.Wins {
			return b.Wins - a.Wins
		}
		return strings.Compare(a.Name, b.Name)
	})

	return rows
}

// FileScoreboard stores one "name,wins" line per player.
type FileScoreboard struct {
	path string
}

func NewFileScoreboard(path string) *FileScoreboard {
	return &FileScoreboard{path: path}
}

func (f *FileScoreboard) Load(_ context.Context) (map[string]int, error) {
	scores := make(map[string]int)

	data, err := os.ReadFile(f.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return scores, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		i := strings.LastIndexByte(text, ',')
		if i <= 0 {
			return nil, fmt.Errorf("leaderboard line %d: missing separator", line)
		}

		wins, err := strconv.Atoi(text[i+1:])
		if err != nil || wins < 0 {
			return nil, fmt.Errorf("leaderboard line %d: invalid win count %q", line, text[i+1:])
		}

		scores[text[:i]] = wins
	}

	return scores, scanner.Err()
}

func (f *FileScoreboard) Save(_ context.Context, scores map[string]int) error {
	var b strings.Builder
	for _, name := range slices.Sorted(maps.Keys(scores)) {
		if name == "" || !ValidName(name) {
			return fmt.Errorf("failed to save leaderboard: %w: %q", ErrInvalidName, name)
		}
		fmt.Fprintf(&b, "%s,%d\n", name, scores[name])
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".leaderboard-*")
	if err != nil {
		return fmt.Errorf("failed to save leaderboard: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(b.String()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to save leaderboard: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to save leaderboard: %w", err)
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to save leaderboard: %w", err)
	}

	return nil
}

// persister saves scoreboard snapshots off the coordinator goroutine. Only the
// most recent unsaved snapshot is kept.
type persister struct {
	store   Scoreboard
	pending chan map[string]int
	errorf  func(format string, args ...any)
	done    chan struct{}
}

func newPersister(store Scoreboard, errorf func(string, ...any)) *persister {
	return &persister{
		store:   store,
		pending: make(chan map[string]int, 1),
		errorf:  errorf,
		done:    make(chan struct{}),
	}
}

// queue must only be called from a single goroutine.
func (p *persister) queue(scores map[string]int) {
	snapshot := maps.Clone(scores)

	select {
	case <-p.pending:
	default:
	}
	p.pending <- snapshot
}

func (p *persister) run(ctx context.Context) {
	defer close(p.done)

	for {
		select {
		case scores := <-p.pending:
			p.save(ctx, scores)
		case <-ctx.Done():
			select {
			case scores := <-p.pending:
				p.save(context.WithoutCancel(ctx), scores)
			default:
			}
			return
		}
	}
}

func (p *persister) save(ctx context.Context, scores map[string]int) {
	if err := p.store.Save(ctx, scores); err != nil {
		p.errorf("ERROR: Scoreboard not saved: %v", err)
	}
}
