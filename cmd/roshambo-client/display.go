/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
)

type lineKind int

const (
	plainLine lineKind = iota
	controlLine
	countdownLine
	goLine
	winnerLine
	eliminatedLine
	warningLine
	serverLine
)

// classify decides how a line from the server is shown.
func classify(line string) lineKind {
	switch {
	case line == "EnableButtons" || line == "DisableButtons":
		return controlLine
	case line == "Go":
		return goLine
	case strings.HasPrefix(line, "Game over!"):
		return winnerLine
	case line == "You have been eliminated.":
		return eliminatedLine
	case strings.HasPrefix(line, "Server: "):
		return serverLine
	case strings.HasPrefix(line, "This name is already taken"),
		strings.HasPrefix(line, "You cannot join"),
		strings.HasPrefix(line, "The room is full"):
		return warningLine
	}

	if n, err := strconv.Atoi(line); err == nil && n > 0 {
		return countdownLine
	}

	return plainLine
}

type Display struct {
	out io.Writer

	plainColor     *color.Color
	countdownColor *color.Color
	goColor        *color.Color
	winnerColor    *color.Color
	eliminateColor *color.Color
	warningColor   *color.Color
	serverColor    *color.Color
	promptColor    *color.Color

	movesOpen bool
}

func NewDisplay(out io.Writer) *Display {
	return &Display{
		out:            out,
		plainColor:     color.New(color.FgWhite),
		countdownColor: color.New(color.FgYellow, color.Bold),
		goColor:        color.New(color.FgGreen, color.Bold),
		winnerColor:    color.New(color.FgGreen, color.Bold, color.BgBlack),
		eliminateColor: color.New(color.FgRed, color.Bold),
		warningColor:   color.New(color.FgYellow),
		serverColor:    color.New(color.FgCyan, color.Bold),
		promptColor:    color.New(color.FgMagenta),
	}
}

// Show prints one server line. Button toggles are not printed; they switch the
// move prompt on and off instead.
func (d *Display) Show(line string) {
	timestamp := time.Now().Format("15:04:05")

	switch classify(line) {
	case controlLine:
		open := line == "EnableButtons"
		if open && !d.movesOpen {
			d.promptColor.Fprintln(d.out, "Your move: rock, paper or scissors")
		}
		d.movesOpen = open
	case countdownLine:
		d.countdownColor.Fprintf(d.out, "[%s] %s...\n", timestamp, line)
	case goLine:
		d.goColor.Fprintf(d.out, "[%s] GO!\n", timestamp)
	case winnerLine:
		d.winnerColor.Fprintf(d.out, "[%s] %s\n", timestamp, line)
	case eliminatedLine:
		d.eliminateColor.Fprintf(d.out, "[%s] %s\n", timestamp, line)
	case warningLine:
		d.warningColor.Fprintf(d.out, "[%s] %s\n", timestamp, line)
	case serverLine:
		d.serverColor.Fprintf(d.out, "[%s] [SERVER] %s\n", timestamp, strings.TrimPrefix(line, "Server: "))
	default:
		d.plainColor.Fprintf(d.out, "[%s] %s\n", timestamp, line)
	}
}

func (d *Display) MovesOpen() bool { return d.movesOpen }

func (d *Display) Warn(format string, args ...any) {
	d.warningColor.Fprintf(d.out, format+"\n", args...)
}

func (d *Display) Banner(server string) {
	d.goColor.Fprintln(d.out, "roshambo")
	fmt.Fprintf(d.out, "Connected to %s. Type rock, paper, scissors or leave.\n", server)
}
