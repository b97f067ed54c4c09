/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package roshambo

import (
	"errors"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

type ClientState int

const (
	StateUnnamed ClientState = iota
	StateQueued
	StateActive
	StateClosed
)

func (s ClientState) String() string {
	switch s {
	case StateUnnamed:
		return "unnamed"
	case StateQueued:
		return "queued"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Client is one connected peer. The pumps only touch the transport, the send
// queue and the limiter; everything else belongs to the coordinator goroutine.
type Client struct {
	id        string
	transport Transport
	send      chan string
	limiter   *rate.Limiter

	name        string
	pendingName string
	state       ClientState
	closed      bool
}

func newClient(t Transport, limit rate.Limit, burst, buffer int) *Client {
	return &Client{
		id:        uuid.NewString(),
		transport: t,
		send:      make(chan string, buffer),
		limiter:   rate.NewLimiter(limit, burst),
	}
}

func (c *Client) ID() string { return c.id }

// label names the client in log lines.
func (c *Client) label() string {
	if c.name != "" {
		return c.name
	}
	return "client " + c.id[:8] + " (" + c.transport.RemoteAddr() + ")"
}

func (c *Client) readPump(co *Coordinator) {
	defer func() {
		post(co, co.unreg, c)
		_ = c.transport.Close()
	}()

	for {
		frame, err := c.transport.ReadFrame()
		if err != nil {
			return
		}

		cmd, err := ParseCommand(frame)
		if err != nil {
			if !errors.Is(err, ErrEmptyName) {
				co.opts.Logf("ROOM: Ignoring frame from %s: %v", c.id, err)
			}
			continue
		}

		if !c.limiter.Allow() {
			co.opts.Logf("ROOM: Dropping frame from %s: rate limited", c.id)
			continue
		}

		var ok bool
		switch cmd.Kind {
		case CmdName:
			ok = post(co, co.joins, joinRequest{client: c, name: cmd.Name})
		case CmdMove:
			ok = post(co, co.moves, moveRequest{client: c, choice: cmd.Choice})
		case CmdLeave:
			ok = post(co, co.leaves, c)
		}
		if !ok {
			return
		}
	}
}

func (c *Client) writePump() {
	defer c.transport.Close()

	for msg := range c.send {
		if err := c.transport.WriteFrame(msg); err != nil {
			return
		}
	}
}
