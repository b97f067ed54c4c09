/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package roshambo

type Choice string

const (
	Rock     Choice = "rock"
	Paper    Choice = "paper"
	Scissors Choice = "scissors"
)

// Choices in a fixed order, used wherever tallies are iterated.
var Choices = [...]Choice{Rock, Paper, Scissors}

func (c Choice) Valid() bool {
	switch c {
	case Rock, Paper, Scissors:
		return true
	}
	return false
}

// Beats reports whether c wins against other.
func (c Choice) Beats(other Choice) bool {
	switch c {
	case Rock:
		return other == Scissors
	case Scissors:
		return other == Paper
	case Paper:
		return other == Rock
	}
	return false
}

// winner returns whichever of a and b beats the other, or "" when neither does.
func winner(a, b Choice) Choice {
	switch {
	case a.Beats(b):
		return a
	case b.Beats(a):
		return b
	}
	return ""
}
