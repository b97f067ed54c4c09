/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package roshambo

import (
	"fmt"
	"slices"
	"strings"
)

type OutcomeKind int

const (
	AwaitingMore OutcomeKind = iota
	Tie
	Elimination
	SoleSurvivor
)

func (k OutcomeKind) String() string {
	switch k {
	case AwaitingMore:
		return "awaiting"
	case Tie:
		return "tie"
	case Elimination:
		return "elimination"
	case SoleSurvivor:
		return "sole_survivor"
	}
	return "unknown"
}

// PlayerChoice pairs a player with the choice they submitted this round.
type PlayerChoice struct {
	Name   string
	Choice Choice
}

// Outcome is the result of evaluating the current round.
type Outcome struct {
	Kind       OutcomeKind
	Winner     string
	Survivors  []string
	Eliminated []string
	Choices    []PlayerChoice
}

// Match tracks one elimination tournament. It is not safe for concurrent use;
// the coordinator goroutine owns it.
type Match struct {
	inProgress bool
	active     []string
	choices    map[string]Choice
	left       map[string]bool
}

func NewMatch() *Match {
	return &Match{
		choices: make(map[string]Choice),
		left:    make(map[string]bool),
	}
}

// Start begins a new match among players, in join order.
func (m *Match) Start(players []string) {
	m.active = slices.Clone(players)
	clear(m.choices)
	clear(m.left)
	m.inProgress = true
}

// Finish ends the match and forgets everyone who left it.
func (m *Match) Finish() {
	m.active = nil
	clear(m.choices)
	clear(m.left)
	m.inProgress = false
}

func (m *Match) InProgress() bool { return m.inProgress }

func (m *Match) Active() []string { return slices.Clone(m.active) }

func (m *Match) IsActive(name string) bool { return slices.Contains(m.active, name) }

// HasLeft reports whether name is barred from rejoining the running match.
func (m *Match) HasLeft(name string) bool { return m.inProgress && m.left[name] }

func (m *Match) Chosen(name string) bool {
	_, ok := m.choices[name]
	return ok
}

// RecordChoice stores the player's choice for this round, replacing any earlier
// one. Choices from players outside the match are dropped.
func (m *Match) RecordChoice(name string, c Choice) bool {
	if !m.inProgress || m.left[name] || !m.IsActive(name) || !c.Valid() {
		return false
	}
	m.choices[name] = c
	return true
}

// RemovePlayer drops name from the match. Permanent removals bar the name from
// rejoining until the match ends.
func (m *Match) RemovePlayer(name string, permanently bool) {
	m.active = slices.DeleteFunc(m.active, func(p string) bool { return p == name })
	delete(m.choices, name)
	if permanently && m.inProgress {
		m.left[name] = true
	}
}

func (m *Match) ResetRound() { clear(m.choices) }

// Evaluate computes the outcome of the current round without changing any state.
func (m *Match) Evaluate() Outcome {
	out := Outcome{Kind: AwaitingMore, Choices: m.roundChoices()}

	if !m.inProgress || len(m.active) == 0 {
		return out
	}

	if len(m.active) == 1 {
		out.Kind = SoleSurvivor
		out.Winner = m.active[0]
		out.Survivors = slices.Clone(m.active)
		return out
	}

	if len(m.choices) < len(m.active) {
		return out
	}

	keep, ok := m.survivingChoice()
	if !ok {
		out.Kind = Tie
		out.Survivors = slices.Clone(m.active)
		return out
	}

	for _, p := range m.active {
		if m.choices[p] == keep {
			out.Survivors = append(out.Survivors, p)
		} else {
			out.Eliminated = append(out.Eliminated, p)
		}
	}

	out.Kind = Elimination
	if len(out.Survivors) == 1 {
		out.Kind = SoleSurvivor
		out.Winner = out.Survivors[0]
	}

	return out
}

// Apply performs the transition described by an outcome returned from Evaluate.
func (m *Match) Apply(out Outcome) {
	switch out.Kind {
	case Tie:
		m.ResetRound()
	case Elimination:
		m.active = slices.Clone(out.Survivors)
		m.ResetRound()
	case SoleSurvivor:
		m.active = slices.Clone(out.Survivors)
		m.ResetRound()
	}
}

// survivingChoice decides which choice advances. ok is false for a tie.
func (m *Match) survivingChoice() (Choice, bool) {
	counts := make(map[Choice]int, len(Choices))
	for _, p := range m.active {
		counts[m.choices[p]]++
	}

	present := make([]Choice, 0, len(Choices))
	for _, c := range Choices {
		if counts[c] > 0 {
			present = append(present, c)
		}
	}

	switch len(present) {
	case 2:
		w := winner(present[0], present[1])
		return w, w != ""
	case 3:
		top := 0
		for _, c := range present {
			top = max(top, counts[c])
		}
		var leaders []Choice
		for _, c := range present {
			if counts[c] == top {
				leaders = append(leaders, c)
			}
		}
		switch len(leaders) {
		case 1:
			return leaders[0], true
		case 2:
			return winner(leaders[0], leaders[1]), true
		}
	}

	return "", false
}

func (m *Match) roundChoices() []PlayerChoice {
	pcs := make([]PlayerChoice, 0, len(m.choices))
	for _, p := range m.active {
		if c, ok := m.choices[p]; ok {
			pcs = append(pcs, PlayerChoice{Name: p, Choice: c})
		}
	}
	return pcs
}

// Narrative renders the outcome the way it is announced to the room.
func (out Outcome) Narrative() string {
	var b strings.Builder

	b.WriteString("Player choices:\n")
	for _, pc := range out.Choices {
		fmt.Fprintf(&b, "%s: %s\n", pc.Name, pc.Choice)
	}
	choices := b.String()

	switch out.Kind {
	case SoleSurvivor:
		return fmt.Sprintf("Game over! Winner: %s.\n%s", out.Winner, choices)
	case Tie:
		reason := "All active players chose the same."
		for _, pc := range out.Choices {
			if pc.Choice != out.Choices[0].Choice {
				reason = "Every choice was played equally."
				break
			}
		}
		return fmt.Sprintf("It's a tie! %s\n%s\nContinuing the game with remaining players: %s",
			reason, choices, strings.Join(out.Survivors, ", "))
	case Elimination:
		return fmt.Sprintf("%s\nContinuing the game with remaining players: %s",
			choices, strings.Join(out.Survivors, ", "))
	}

	return "Waiting for all active players to make their choice."
}
