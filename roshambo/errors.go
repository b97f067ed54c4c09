/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package roshambo

import "errors"

var (
	ErrNameTaken         = errors.New("name already in use")
	ErrRejoinDuringMatch = errors.New("name left the ongoing match")
	ErrEmptyName         = errors.New("name must not be empty")
	ErrInvalidName       = errors.New("name contains control characters")
	ErrUnknownCommand    = errors.New("unknown command")
	ErrStopped           = errors.New("coordinator stopped")
)
