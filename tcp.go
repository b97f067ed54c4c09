/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"net"
	"strconv"
	"time"

	"github.com/Seednode/roshambo/roshambo"
	"golang.org/x/time/rate"
)

func rateLimit(perSecond float64) rate.Limit {
	return rate.Limit(perSecond)
}

func listenGame(cfg *Config) (net.Listener, error) {
	ln, err := net.Listen("tcp", net.JoinHostPort(cfg.bind, strconv.Itoa(cfg.port)))
	if err != nil {
		return nil, err
	}

	logf(cfg, "SERVE: Accepting players on tcp://%s", ln.Addr())

	return ln, nil
}

const maxAcceptDelay = time.Second

// acceptPlayers hands every accepted connection to the coordinator until ln
// is closed. Failed accepts back off exponentially up to maxAcceptDelay.
func acceptPlayers(cfg *Config, ln net.Listener, co *roshambo.Coordinator) {
	var tempDelay time.Duration

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}

			if tempDelay == 0 {
				tempDelay = 5 * time.Millisecond
			} else {
				tempDelay *= 2
			}
			if tempDelay > maxAcceptDelay {
				tempDelay = maxAcceptDelay
			}

			errorf("ERROR: %v; retrying in %s", err, tempDelay)

			time.Sleep(tempDelay)

			continue
		}

		tempDelay = 0

		logf(cfg, "SERVE: Player connection from %s", conn.RemoteAddr())

		go co.Serve(roshambo.NewLineTransport(conn))
	}
}
