/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package roshambo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockScoreboard struct {
	mock.Mock
}

func (m *mockScoreboard) Load(ctx context.Context) (map[string]int, error) {
	args := m.Called(ctx)
	scores, _ := args.Get(0).(map[string]int)
	return scores, args.Error(1)
}

func (m *mockScoreboard) Save(ctx context.Context, scores map[string]int) error {
	return m.Called(ctx, scores).Error(0)
}

func TestFileScoreboardRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leaderboard.txt")
	board := NewFileScoreboard(path)

	want := map[string]int{"alice": 3, "bob": 0, "Smith, J": 7}
	require.NoError(t, board.Save(context.Background(), want))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Smith, J,7\nalice,3\nbob,0\n", string(data))

	got, err := board.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFileScoreboardRejectsMultilineNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leaderboard.txt")
	board := NewFileScoreboard(path)
	ctx := context.Background()

	require.NoError(t, board.Save(ctx, map[string]int{"alice": 1}))

	err := board.Save(ctx, map[string]int{"alice": 2, "evil\nmallory": 0})
	assert.ErrorIs(t, err, ErrInvalidName)

	scores, err := board.Load(ctx)
	require.NoError(t, err, "a rejected save leaves the previous file readable")
	assert.Equal(t, map[string]int{"alice": 1}, scores)
}

func TestFileScoreboardMissing(t *testing.T) {
	board := NewFileScoreboard(filepath.Join(t.TempDir(), "nope.txt"))

	scores, err := board.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, scores)
}

func TestFileScoreboardCorrupt(t *testing.T) {
	for _, content := range []string{"alice\n", "alice,many\n", "alice,-1\n", ",4\n"} {
		path := filepath.Join(t.TempDir(), "leaderboard.txt")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		_, err := NewFileScoreboard(path).Load(context.Background())
		assert.Error(t, err, "content %q", content)
	}
}

func TestFileScoreboardSkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leaderboard.txt")
	require.NoError(t, os.WriteFile(path, []byte("alice,2\n\n  \nbob,1\r\n"), 0o644))

	scores, err := NewFileScoreboard(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"alice": 2, "bob": 1}, scores)
}

func TestStandings(t *testing.T) {
	got := Standings(map[string]int{"carol": 1, "bob": 4, "alice": 4, "dave": 0})

	assert.Equal(t, []Standing{
		{Name: "alice", Wins: 4},
		{Name: "bob", Wins: 4},
		{Name: "carol", Wins: 1},
		{Name: "dave", Wins: 0},
	}, got)
}

func TestPersisterKeepsLatestSnapshot(t *testing.T) {
	store := &mockScoreboard{}
	store.On("Save", mock.Anything, map[string]int{"alice": 2}).Return(nil).Once()

	p := newPersister(store, t.Logf)

	scores := map[string]int{"alice": 1}
	p.queue(scores)
	scores["alice"] = 2
	p.queue(scores)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.run(ctx)

	store.AssertExpectations(t)
}

func TestPersisterReportsFailures(t *testing.T) {
	store := &mockScoreboard{}
	store.On("Save", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	var (
		mu     sync.Mutex
		logged []string
	)
	p := newPersister(store, func(format string, args ...any) {
		mu.Lock()
		defer mu.Unlock()
		logged = append(logged, fmt.Sprintf(format, args...))
	})

	ctx, cancel := context.WithCancel(context.Background())
	go p.run(ctx)

	p.queue(map[string]int{"alice": 1})

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(logged) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-p.done

	assert.Equal(t, "ERROR: Scoreboard not saved: disk full", logged[0])
}
