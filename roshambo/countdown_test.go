/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package roshambo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountdownEmitsEveryStep(t *testing.T) {
	var got []int

	cd := startCountdown(context.Background(), 1, 5, time.Millisecond, func(_ context.Context, remaining int) bool {
		got = append(got, remaining)
		return true
	})

	select {
	case <-cd.Done():
	case <-time.After(time.Second):
		t.Fatal("countdown did not finish")
	}

	assert.Equal(t, []int{5, 4, 3, 2, 1, 0}, got)
}

func TestCountdownCancel(t *testing.T) {
	var (
		got []int
		cd  *Countdown
	)

	started := make(chan struct{})
	cd = startCountdown(context.Background(), 1, 5, time.Hour, func(_ context.Context, remaining int) bool {
		got = append(got, remaining)
		close(started)
		return true
	})

	<-started
	cd.Cancel()

	select {
	case <-cd.Done():
	case <-time.After(time.Second):
		t.Fatal("cancelled countdown did not stop")
	}

	assert.Equal(t, []int{5}, got)
}

func TestCountdownStopsWhenEmitFails(t *testing.T) {
	calls := 0

	cd := startCountdown(context.Background(), 1, 3, time.Millisecond, func(context.Context, int) bool {
		calls++
		return false
	})

	<-cd.Done()
	require.Equal(t, 1, calls)
}

func TestCountdownParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	emitted := false
	cd := startCountdown(ctx, 1, 3, time.Millisecond, func(context.Context, int) bool {
		emitted = true
		return true
	})

	<-cd.Done()
	assert.False(t, emitted)
}
