/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package roshambo

import (
	"fmt"
	"slices"
)

type Admission int

const (
	Accepted Admission = iota
	Queued
	Rejected
)

// Placement says where a released client was held.
type Placement int

const (
	Nowhere Placement = iota
	InRoom
	InQueue
	InReserve
)

// Room holds up to capacity active clients and a FIFO queue for the rest.
// Clients promoted from the queue before they registered a name hold a
// reserved seat until they do.
type Room struct {
	capacity int
	active   []*Client
	reserved []*Client
	waiting  []*Client
}

func NewRoom(capacity int) *Room {
	return &Room{
		capacity: capacity,
		active:   make([]*Client, 0, capacity),
	}
}

func (r *Room) Capacity() int { return r.capacity }

func (r *Room) Len() int { return len(r.active) }

func (r *Room) Full() bool { return len(r.active) >= r.capacity }

func (r *Room) Active() []*Client { return slices.Clone(r.active) }

func (r *Room) Waiting() []*Client { return slices.Clone(r.waiting) }

func (r *Room) ActiveNames() []string {
	names := make([]string, 0, len(r.active))
	for _, c := range r.active {
		names = append(names, c.name)
	}
	return names
}

// HasSeat reports whether a newly connected client may wait for a seat
// outside the queue.
func (r *Room) HasSeat() bool {
	return len(r.active)+len(r.reserved) < r.capacity && len(r.waiting) == 0
}

// Admit tries to seat c under name. barred reports names that may not
// rejoin the match in progress.
func (r *Room) Admit(c *Client, name string, barred func(string) bool) (Admission, error) {
	if name == "" {
		return Rejected, ErrEmptyName
	}
	if !ValidName(name) {
		return Rejected, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if r.nameTaken(c, name) {
		return Rejected, fmt.Errorf("%w: %q", ErrNameTaken, name)
	}
	if barred != nil && barred(name) {
		return Rejected, fmt.Errorf("%w: %q", ErrRejoinDuringMatch, name)
	}

	if slices.Contains(r.reserved, c) || (!slices.Contains(r.waiting, c) && r.HasSeat()) {
		r.reserved = slices.DeleteFunc(r.reserved, func(o *Client) bool { return o == c })
		c.name = name
		c.state = StateActive
		r.active = append(r.active, c)
		return Accepted, nil
	}

	c.pendingName = name
	if !slices.Contains(r.waiting, c) {
		r.Enqueue(c)
	}
	return Queued, nil
}

// Enqueue appends c to the waiting queue.
func (r *Room) Enqueue(c *Client) {
	c.state = StateQueued
	r.waiting = append(r.waiting, c)
}

// Release removes c from wherever the room holds it.
func (r *Room) Release(c *Client) Placement {
	drop := func(o *Client) bool { return o == c }

	switch {
	case slices.Contains(r.active, c):
		r.active = slices.DeleteFunc(r.active, drop)
		return InRoom
	case slices.Contains(r.waiting, c):
		r.waiting = slices.DeleteFunc(r.waiting, drop)
		return InQueue
	case slices.Contains(r.reserved, c):
		r.reserved = slices.DeleteFunc(r.reserved, drop)
		return InReserve
	}

	return Nowhere
}

// Backfill moves waiting clients into free seats in FIFO order. Clients that
// registered a name while queued are admitted; the others are promoted to a
// reserved seat and must send their name. rejected holds clients whose queued
// name could no longer be admitted; they keep a reserved seat.
func (r *Room) Backfill(barred func(string) bool) (admitted, promoted []*Client, rejected map[*Client]error) {
	for len(r.active)+len(r.reserved) < r.capacity && len(r.waiting) > 0 {
		c := r.waiting[0]
		r.waiting = r.waiting[1:]

		c.state = StateUnnamed
		r.reserved = append(r.reserved, c)

		name := c.pendingName
		c.pendingName = ""
		if name == "" {
			promoted = append(promoted, c)
			continue
		}

		if _, err := r.Admit(c, name, barred); err != nil {
			if rejected == nil {
				rejected = make(map[*Client]error)
			}
			rejected[c] = err
			continue
		}
		admitted = append(admitted, c)
	}

	return admitted, promoted, rejected
}

func (r *Room) nameTaken(c *Client, name string) bool {
	for _, o := range r.active {
		if o != c && o.name == name {
			return true
		}
	}
	for _, o := range r.waiting {
		if o != c && o.pendingName == name {
			return true
		}
	}
	return false
}
