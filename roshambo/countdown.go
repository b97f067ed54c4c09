/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package roshambo

import (
	"context"
	"time"
)

type timerKind int

const (
	countdownTimer timerKind = iota
	restartTimer
)

// timerEvent is posted to the coordinator for every step of a running timer.
// remaining reaches zero exactly once, when the timer completes.
type timerEvent struct {
	kind      timerKind
	gen       uint64
	remaining int
}

// Countdown is a cancellable sequence of steps, one interval apart. The first
// step is emitted immediately and completion one interval after the last step.
type Countdown struct {
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
}

func startCountdown(parent context.Context, gen uint64, steps int, interval time.Duration, emit func(ctx context.Context, remaining int) bool) *Countdown {
	ctx, cancel := context.WithCancel(parent)

	cd := &Countdown{
		gen:    gen,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go cd.run(ctx, steps, interval, emit)

	return cd
}

func (cd *Countdown) run(ctx context.Context, steps int, interval time.Duration, emit func(context.Context, int) bool) {
	defer close(cd.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for remaining := steps; remaining >= 0; remaining-- {
		if ctx.Err() != nil || !emit(ctx, remaining) {
			return
		}
		if remaining == 0 {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Cancel stops the countdown at the next step boundary.
func (cd *Countdown) Cancel() { cd.cancel() }

// Done is closed once the countdown goroutine has exited.
func (cd *Countdown) Done() <-chan struct{} { return cd.done }
