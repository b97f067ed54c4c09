/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package roshambo

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Outbound notices understood by clients.
const (
	MsgGo             = "Go"
	MsgEnableButtons  = "EnableButtons"
	MsgDisableButtons = "DisableButtons"
	MsgRoomFull       = "The room is full, you have been placed in a queue."
	MsgSeatFree       = "A seat is free, please send your name."
	MsgWelcome        = "Welcome to Rock-Paper-Scissors Game!"
	MsgNameTaken      = "This name is already taken. Please select a different name."
	MsgInvalidName    = "Names may not contain line breaks or control characters. Please select a different name."
	MsgRejoinBarred   = "You cannot join the ongoing game. Please wait for the next game."
	MsgEliminated     = "You have been eliminated."
	MsgNewGameSoon    = "New game will start in %d seconds..."
	MsgNewGameNow     = "New game starting now!"
)

const namePrefix = "name:"

type CommandKind int

const (
	CmdName CommandKind = iota
	CmdMove
	CmdLeave
)

// ValidName reports whether name can be shown to other players and stored on
// a single scoreboard line.
func ValidName(name string) bool {
	if !utf8.ValidString(name) {
		return false
	}
	return strings.IndexFunc(name, unicode.IsControl) < 0
}

// Command is one parsed inbound frame.
type Command struct {
	Kind   CommandKind
	Name   string
	Choice Choice
}

// ParseCommand decodes a single inbound frame. Surrounding whitespace and NUL
// padding are ignored; names keep their case.
func ParseCommand(frame string) (Command, error) {
	line := strings.Trim(frame, " \t\r\n\x00")

	switch {
	case strings.HasPrefix(line, namePrefix):
		name := strings.TrimSpace(line[len(namePrefix):])
		if name == "" {
			return Command{}, ErrEmptyName
		}
		return Command{Kind: CmdName, Name: name}, nil
	case line == "leave":
		return Command{Kind: CmdLeave}, nil
	}

	if c := Choice(line); c.Valid() {
		return Command{Kind: CmdMove, Choice: c}, nil
	}

	return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, line)
}
