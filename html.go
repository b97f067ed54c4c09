/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"html"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"
)

func homeBody(cfg *Config, r *http.Request) string {
	body := fmt.Sprintf(`<h1>roshambo</h1>
<p>Rock-paper-scissors, %d players at a time, last one standing wins.</p>
<p>Telnet or netcat to port %d and send <code>name:&lt;you&gt;</code>, then <code>rock</code>, <code>paper</code>, <code>scissors</code> or <code>leave</code>.</p>
<p>Websocket clients connect to <code>%s</code>.</p>
<p><img src="%s/qr" alt="join code" width="320" height="320"></p>
<p><a href="%s/leaderboard">Leaderboard</a> | <a href="%s/status">Status</a></p>`,
		cfg.capacity,
		cfg.port,
		html.EscapeString(wsURL(cfg, r)),
		cfg.prefix, cfg.prefix, cfg.prefix,
	)

	return newPage("roshambo", body)
}

func serveHomePage(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		page := homeBody(cfg, r)

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Length", strconv.Itoa(len(page)))
		securityHeaders(cfg, w)

		written, err := w.Write([]byte(page))
		if err != nil {
			return
		}

		logServed(cfg, "Home page", written, r, startTime)
	}
}

func serveHealthCheck(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		securityHeaders(cfg, w)

		_, err := w.Write([]byte("Ok\n"))
		if err != nil {
			errs <- err

			return
		}
	}
}

func serveRobots(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		data := `User-agent: Amazonbot
Disallow: /

User-agent: Applebot-Extended
Disallow: /

User-agent: Bytespider
Disallow: /

User-agent: CCBot
Disallow: /

User-agent: ClaudeBot
Disallow: /

User-agent: Google-Extended
Disallow: /

User-agent: GPTBot
Disallow: /

User-agent: meta-externalagent
Disallow: /`

		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		securityHeaders(cfg, w)

		_, err := w.Write([]byte(data))
		if err != nil {
			errs <- err

			return
		}
	}
}
