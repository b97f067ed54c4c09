/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package roshambo runs a single rock-paper-scissors elimination room.
//
// All room, match and timer state is owned by one Coordinator goroutine.
// Connection pumps and timers only post events to it.
package roshambo

import (
	"context"
	"errors"
	"fmt"
	"log"
	"maps"
	"slices"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

type Options struct {
	Capacity       int
	CountdownSteps int
	Tick           time.Duration
	RestartDelay   time.Duration
	Rate           rate.Limit
	Burst          int
	SendBuffer     int

	// Logf receives routine activity; Errorf receives failures that an
	// operator should always see.
	Logf   func(format string, args ...any)
	Errorf func(format string, args ...any)
}

func (o *Options) defaults() {
	if o.Capacity == 0 {
		o.Capacity = 4
	}
	if o.CountdownSteps == 0 {
		o.CountdownSteps = 5
	}
	if o.Tick == 0 {
		o.Tick = time.Second
	}
	if o.RestartDelay == 0 {
		o.RestartDelay = 15 * time.Second
	}
	if o.Rate == 0 {
		o.Rate = 5
	}
	if o.Burst == 0 {
		o.Burst = 10
	}
	if o.SendBuffer == 0 {
		o.SendBuffer = 64
	}
	if o.Logf == nil {
		o.Logf = func(string, ...any) {}
	}
	if o.Errorf == nil {
		o.Errorf = log.Printf
	}
}

type joinRequest struct {
	client *Client
	name   string
}

type moveRequest struct {
	client *Client
	choice Choice
}

// Status is a point-in-time view of the room.
type Status struct {
	Capacity       int      `json:"capacity"`
	Active         []string `json:"active"`
	Waiting        int      `json:"waiting"`
	MatchRunning   bool     `json:"match_running"`
	MatchPlayers   []string `json:"match_players,omitempty"`
	MovesOpen      bool     `json:"moves_open"`
	Countdown      bool     `json:"countdown"`
	RestartPending bool     `json:"restart_pending"`
}

type Coordinator struct {
	opts   Options
	scores map[string]int
	saver  *persister

	room  *Room
	match *Match

	clients   map[*Client]bool
	countdown *Countdown
	restart   *Countdown
	gen       uint64
	movesOpen bool

	ctx context.Context

	register chan *Client
	unreg    chan *Client
	joins    chan joinRequest
	moves    chan moveRequest
	leaves   chan *Client
	timers   chan timerEvent
	queries  chan func()

	// stopped closes when the event loop exits; done closes after the final
	// scoreboard save has finished.
	stopped chan struct{}
	done    chan struct{}
}

// New loads the scoreboard and prepares a coordinator. Run must be called
// before any connection is served.
func New(ctx context.Context, store Scoreboard, opts Options) (*Coordinator, error) {
	opts.defaults()

	scores, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if scores == nil {
		scores = make(map[string]int)
	}

	return &Coordinator{
		opts:     opts,
		scores:   scores,
		saver:    newPersister(store, opts.Errorf),
		room:     NewRoom(opts.Capacity),
		match:    NewMatch(),
		clients:  make(map[*Client]bool),
		register: make(chan *Client),
		unreg:    make(chan *Client),
		joins:    make(chan joinRequest),
		moves:    make(chan moveRequest),
		leaves:   make(chan *Client),
		timers:   make(chan timerEvent),
		queries:  make(chan func()),
		stopped:  make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// post hands v to the coordinator, giving up once it has stopped.
func post[T any](co *Coordinator, ch chan<- T, v T) bool {
	select {
	case ch <- v:
		return true
	case <-co.stopped:
		return false
	}
}

// Run processes events until ctx is cancelled.
func (co *Coordinator) Run(ctx context.Context) {
	co.ctx = ctx

	saverCtx, stopSaver := context.WithCancel(context.WithoutCancel(ctx))
	go co.saver.run(saverCtx)

	defer func() {
		co.shutdown()
		close(co.stopped)
		stopSaver()
		<-co.saver.done
		close(co.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case c := <-co.register:
			co.handleRegister(c)
		case c := <-co.unreg:
			co.handleDeparture(c, false)
		case jr := <-co.joins:
			co.handleJoin(jr.client, jr.name)
		case mr := <-co.moves:
			co.handleMove(mr.client, mr.choice)
		case c := <-co.leaves:
			co.handleDeparture(c, true)
		case ev := <-co.timers:
			co.handleTimer(ev)
		case fn := <-co.queries:
			fn()
		}
	}
}

// Done is closed once Run has returned, all clients have been closed and the
// final scoreboard snapshot has been saved.
func (co *Coordinator) Done() <-chan struct{} { return co.done }

// Serve runs the connection handler for t until the peer goes away.
func (co *Coordinator) Serve(t Transport) {
	c := newClient(t, co.opts.Rate, co.opts.Burst, co.opts.SendBuffer)

	if !post(co, co.register, c) {
		_ = t.Close()
		return
	}

	go c.writePump()
	c.readPump(co)
}

func (co *Coordinator) handleRegister(c *Client) {
	co.clients[c] = true
	co.opts.Logf("ROOM: %s connected", c.label())

	if co.room.HasSeat() {
		c.state = StateUnnamed
		return
	}

	co.room.Enqueue(c)
	co.unicast(c, MsgRoomFull)
	co.opts.Logf("ROOM: %s queued (%d waiting)", c.label(), len(co.room.Waiting()))
}

func (co *Coordinator) handleJoin(c *Client, name string) {
	if c.closed || c.state == StateActive {
		return
	}

	wasQueued := c.state == StateQueued

	admission, err := co.room.Admit(c, name, co.match.HasLeft)
	switch admission {
	case Rejected:
		co.reject(c, err)
	case Queued:
		if !wasQueued {
			co.unicast(c, MsgRoomFull)
		}
		co.opts.Logf("ROOM: %s queued as %q", c.label(), name)
	case Accepted:
		co.welcome(c)
		co.maybeStart()
	}
}

func (co *Coordinator) reject(c *Client, err error) {
	switch {
	case errors.Is(err, ErrNameTaken):
		co.unicast(c, MsgNameTaken)
	case errors.Is(err, ErrRejoinDuringMatch):
		co.unicast(c, MsgRejoinBarred)
	case errors.Is(err, ErrInvalidName):
		co.unicast(c, MsgInvalidName)
	}
	co.opts.Logf("ROOM: Rejected %s: %v", c.label(), err)
}

func (co *Coordinator) welcome(c *Client) {
	if _, ok := co.scores[c.name]; !ok {
		co.scores[c.name] = 0
		co.saver.queue(co.scores)
	}

	co.opts.Logf("GAMES: %s connected to the game", c.name)

	co.broadcastExcept(c, fmt.Sprintf("%s has joined with %d wins.", c.name, co.scores[c.name]))
	co.unicast(c, MsgWelcome)
}

func (co *Coordinator) maybeStart() {
	if !co.room.Full() || co.countdown != nil || co.restart != nil || co.match.InProgress() {
		return
	}
	co.startCountdown()
}

func (co *Coordinator) startCountdown() {
	co.gen++
	co.countdown = startCountdown(co.ctx, co.gen, co.opts.CountdownSteps, co.opts.Tick, co.timerEmitter(countdownTimer, co.gen))

	co.broadcast(MsgDisableButtons)
	co.opts.Logf("GAMES: Game will start in %s...", time.Duration(co.opts.CountdownSteps)*co.opts.Tick)
}

func (co *Coordinator) startRestart() {
	co.gen++
	co.restart = startCountdown(co.ctx, co.gen, 1, co.opts.RestartDelay, co.timerEmitter(restartTimer, co.gen))

	msg := fmt.Sprintf(MsgNewGameSoon, int(co.opts.RestartDelay.Round(time.Second)/time.Second))
	co.broadcast(msg)
	co.opts.Logf("GAMES: %s", msg)
}

func (co *Coordinator) timerEmitter(kind timerKind, gen uint64) func(context.Context, int) bool {
	return func(ctx context.Context, remaining int) bool {
		select {
		case co.timers <- timerEvent{kind: kind, gen: gen, remaining: remaining}:
			return true
		case <-ctx.Done():
			return false
		case <-co.stopped:
			return false
		}
	}
}

func (co *Coordinator) cancelTimers() {
	if co.countdown != nil {
		co.countdown.Cancel()
		co.countdown = nil
		co.opts.Logf("GAMES: Countdown was cancelled, waiting for %d players...", co.room.Capacity())
	}
	if co.restart != nil {
		co.restart.Cancel()
		co.restart = nil
		co.opts.Logf("GAMES: Restart was cancelled, waiting for %d players...", co.room.Capacity())
	}
}

func (co *Coordinator) handleTimer(ev timerEvent) {
	switch ev.kind {
	case countdownTimer:
		if co.countdown == nil || co.countdown.gen != ev.gen {
			return
		}
		if ev.remaining > 0 {
			co.broadcast(strconv.Itoa(ev.remaining))
			co.opts.Logf("GAMES: %d", ev.remaining)
			return
		}
		co.countdown = nil
		co.beginMatch()

	case restartTimer:
		if co.restart == nil || co.restart.gen != ev.gen || ev.remaining > 0 {
			return
		}
		co.restart = nil
		if !co.room.Full() {
			co.opts.Logf("GAMES: Waiting for more players to start a new game...")
			return
		}
		co.broadcast(MsgNewGameNow)
		co.opts.Logf("GAMES: %s", MsgNewGameNow)
		co.startCountdown()
	}
}

func (co *Coordinator) beginMatch() {
	co.match.Start(co.room.ActiveNames())
	co.movesOpen = true

	co.broadcast(MsgGo)
	co.broadcast(MsgEnableButtons)
	co.opts.Logf("GAMES: Go (%v)", co.match.Active())
}

func (co *Coordinator) handleMove(c *Client, choice Choice) {
	if !co.movesOpen || c.state != StateActive {
		return
	}
	if !co.match.RecordChoice(c.name, choice) {
		return
	}

	co.opts.Logf("GAMES: %s selected %s", c.name, choice)
	co.evaluate()
}

func (co *Coordinator) evaluate() {
	out := co.match.Evaluate()

	switch out.Kind {
	case AwaitingMore:
		return
	case Tie:
		co.match.Apply(out)
		co.announce(out)
		co.unicastNames(out.Survivors, MsgEnableButtons)
	case Elimination:
		co.match.Apply(out)
		co.announce(out)
		co.notifyEliminated(out.Eliminated)
		co.unicastNames(out.Survivors, MsgEnableButtons)
	case SoleSurvivor:
		co.match.Apply(out)
		co.finishMatch(out)
	}
}

func (co *Coordinator) announce(out Outcome) {
	msg := out.Narrative()
	co.broadcast(msg)
	co.opts.Logf("GAMES: %s", msg)
}

func (co *Coordinator) notifyEliminated(names []string) {
	for _, name := range names {
		co.opts.Logf("GAMES: %s has been eliminated", name)
	}
	co.unicastNames(names, MsgEliminated)
	co.unicastNames(names, MsgDisableButtons)
}

func (co *Coordinator) finishMatch(out Outcome) {
	co.announce(out)
	co.notifyEliminated(out.Eliminated)

	co.scores[out.Winner]++
	co.saver.queue(co.scores)

	co.match.Finish()
	co.movesOpen = false

	co.backfill()

	if co.room.Full() {
		co.startRestart()
		return
	}
	co.opts.Logf("GAMES: Waiting for more players to start a new game...")
}

func (co *Coordinator) backfill() {
	admitted, promoted, rejected := co.room.Backfill(co.match.HasLeft)

	for _, c := range admitted {
		co.welcome(c)
	}
	for _, c := range promoted {
		co.unicast(c, MsgSeatFree)
		co.opts.Logf("ROOM: %s promoted from the queue", c.label())
	}
	for c, err := range rejected {
		co.reject(c, err)
		co.unicast(c, MsgSeatFree)
	}
}

func (co *Coordinator) handleDeparture(c *Client, voluntary bool) {
	name := c.name

	switch co.room.Release(c) {
	case InRoom:
		if co.match.InProgress() {
			co.match.RemovePlayer(name, true)
		}

		verb := "disconnected from"
		if voluntary {
			verb = "left"
		}
		msg := fmt.Sprintf("%s %s the game.", name, verb)
		co.broadcast(msg)
		co.opts.Logf("GAMES: %s", msg)

		if !co.room.Full() {
			co.cancelTimers()
		}
	case InQueue, InReserve:
		co.opts.Logf("ROOM: %s left the queue", c.label())
	}

	c.name = ""
	c.pendingName = ""
	c.state = StateUnnamed

	if !voluntary {
		delete(co.clients, c)
		co.closeClient(c)
		c.state = StateClosed
	}

	switch {
	case co.match.InProgress() && len(co.match.Active()) == 0:
		co.match.Finish()
		co.movesOpen = false
		co.backfill()
		co.maybeStart()
	case co.match.InProgress():
		co.opts.Logf("GAMES: Remaining players: %v", co.match.Active())
		co.evaluate()
	default:
		co.backfill()
		co.maybeStart()
	}
}

func (co *Coordinator) unicast(c *Client, msg string) {
	if c.closed {
		return
	}

	select {
	case c.send <- msg:
	default:
		co.opts.Errorf("ERROR: Dropping %s: send queue full", c.label())
		co.closeClient(c)
		_ = c.transport.Close()
	}
}

func (co *Coordinator) unicastNames(names []string, msg string) {
	for _, c := range co.room.Active() {
		if slices.Contains(names, c.name) {
			co.unicast(c, msg)
		}
	}
}

func (co *Coordinator) broadcast(msg string) {
	for _, c := range co.room.Active() {
		co.unicast(c, msg)
	}
}

func (co *Coordinator) broadcastExcept(except *Client, msg string) {
	for _, c := range co.room.Active() {
		if c != except {
			co.unicast(c, msg)
		}
	}
}

func (co *Coordinator) closeClient(c *Client) {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (co *Coordinator) shutdown() {
	if co.countdown != nil {
		co.countdown.Cancel()
	}
	if co.restart != nil {
		co.restart.Cancel()
	}
	for c := range co.clients {
		co.closeClient(c)
		_ = c.transport.Close()
	}
	co.saver.queue(co.scores)
}

// do runs fn on the coordinator goroutine and waits for it to finish.
func (co *Coordinator) do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})

	select {
	case co.queries <- func() { fn(); close(finished) }:
	case <-ctx.Done():
		return ctx.Err()
	case <-co.stopped:
		return ErrStopped
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Scores returns a copy of the current win counts.
func (co *Coordinator) Scores(ctx context.Context) (map[string]int, error) {
	var scores map[string]int
	err := co.do(ctx, func() { scores = maps.Clone(co.scores) })
	return scores, err
}

func (co *Coordinator) Status(ctx context.Context) (Status, error) {
	var st Status
	err := co.do(ctx, func() {
		st = Status{
			Capacity:       co.room.Capacity(),
			Active:         co.room.ActiveNames(),
			Waiting:        len(co.room.Waiting()),
			MatchRunning:   co.match.InProgress(),
			MatchPlayers:   co.match.Active(),
			MovesOpen:      co.movesOpen,
			Countdown:      co.countdown != nil,
			RestartPending: co.restart != nil,
		}
	})
	return st, err
}

// Announce sends an operator message to everyone in the room.
func (co *Coordinator) Announce(ctx context.Context, text string) error {
	return co.do(ctx, func() {
		co.broadcast("Server: " + text)
		co.opts.Logf("GAMES: Server: %s", text)
	})
}
