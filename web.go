package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Seednode/roshambo/roshambo"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

const (
	logDate string        = `2006-01-02T15:04:05.000-07:00`
	timeout time.Duration = 10 * time.Second
)

func securityHeaders(cfg *Config, w http.ResponseWriter) {
	w.Header().Set("Cross-Origin-Embedder-Policy", "require-corp")
	w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
	w.Header().Set("Cross-Origin-Resource-Policy", "same-site")
	w.Header().Set("Permissions-Policy", "geolocation=(), midi=(), sync-xhr=(), microphone=(), camera=(), magnetometer=(), gyroscope=(), fullscreen=(), payment=()")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'")

	if cfg.scheme() == "https" {
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
	}
}

func realIP(r *http.Request) string {
	host, port, _ := net.SplitHostPort(r.RemoteAddr)
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		if net.ParseIP(ip) != nil {
			host = ip
		}
	} else if ip := r.Header.Get("X-Real-IP"); ip != "" {
		if net.ParseIP(ip) != nil {
			host = ip
		}
	}
	if net.ParseIP(host) != nil && strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port != "" {
		return host + ":" + port
	}
	return host
}

func serveVersion(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		startTime := time.Now()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		securityHeaders(cfg, w)
		w.WriteHeader(http.StatusOK)

		written, err := w.Write([]byte("roshambo v" + releaseVersion + "\n"))
		if err != nil {
			errs <- err

			return
		}

		logServed(cfg, "Version page", written, r, startTime)
	}
}

func writeJSON(cfg *Config, w http.ResponseWriter, v any, errs chan<- error) int {
	data, err := json.Marshal(v)
	if err != nil {
		errs <- err
		http.Error(w, "encoding failed", http.StatusInternalServerError)

		return 0
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	securityHeaders(cfg, w)

	written, err := w.Write(data)
	if err != nil {
		errs <- err
	}

	return written
}

func serveLeaderboard(cfg *Config, co *roshambo.Coordinator, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		startTime := time.Now()

		scores, err := co.Scores(r.Context())
		if err != nil {
			http.Error(w, "leaderboard unavailable", http.StatusServiceUnavailable)

			return
		}

		written := writeJSON(cfg, w, roshambo.Standings(scores), errs)

		logServed(cfg, "Leaderboard", written, r, startTime)
	}
}

func serveStatus(cfg *Config, co *roshambo.Coordinator, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		status, err := co.Status(r.Context())
		if err != nil {
			http.Error(w, "status unavailable", http.StatusServiceUnavailable)

			return
		}

		writeJSON(cfg, w, status, errs)
	}
}

// wsURL is the address players connect to, as seen by the requesting browser.
func wsURL(cfg *Config, r *http.Request) string {
	scheme := "ws"
	if r.TLS != nil {
		scheme = "wss"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "https" {
		scheme = "wss"
	}

	return scheme + "://" + r.Host + cfg.prefix + "/ws"
}

// serveQR renders a PNG QR code of the websocket join address.
func serveQR(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		const qrSize = 320

		png, err := qrcode.Encode(wsURL(cfg, r), qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)

			return
		}

		w.Header().Set("Content-Type", "image/png")
		securityHeaders(cfg, w)
		_, _ = w.Write(png)
	}
}

func newRouter(cfg *Config, co *roshambo.Coordinator, errs chan<- error) *httprouter.Router {
	mux := httprouter.New()

	mux.PanicHandler = func(w http.ResponseWriter, r *http.Request, i any) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		securityHeaders(cfg, w)
		w.WriteHeader(http.StatusInternalServerError)

		io.WriteString(w, newPage("Server Error", "An error has occurred. Please try again."))
	}

	mux.GET(cfg.prefix+"/", serveHomePage(cfg))

	mux.GET(cfg.prefix+"/healthz", serveHealthCheck(cfg, errs))

	mux.GET(cfg.prefix+"/leaderboard", serveLeaderboard(cfg, co, errs))

	mux.GET(cfg.prefix+"/qr", serveQR(cfg))

	mux.GET(cfg.prefix+"/robots.txt", serveRobots(cfg, errs))

	mux.GET(cfg.prefix+"/status", serveStatus(cfg, co, errs))

	mux.GET(cfg.prefix+"/version", serveVersion(cfg, errs))

	mux.GET(cfg.prefix+"/ws", serveWebSocket(cfg, co))

	if cfg.profile {
		registerProfileHandlers(cfg, mux)
	}

	return mux
}

func openScoreboard(ctx context.Context, cfg *Config) (roshambo.Scoreboard, func(), error) {
	if cfg.databaseURL != "" {
		pg, err := roshambo.NewPostgresScoreboard(ctx, cfg.databaseURL)
		if err != nil {
			return nil, nil, err
		}
		logf(cfg, "START: Leaderboard stored in postgres")

		return pg, pg.Close, nil
	}

	logf(cfg, "START: Leaderboard stored in %s", cfg.leaderboard)

	return roshambo.NewFileScoreboard(cfg.leaderboard), func() {}, nil
}

func Serve(ctx context.Context, cfg *Config) error {
	var err error

	timeZone := os.Getenv("TZ")
	if timeZone != "" {
		time.Local, err = time.LoadLocation(timeZone)
		if err != nil {
			return err
		}
	}

	logf(cfg, "START: roshambo v%s", releaseVersion)

	cfg.prefix = strings.TrimSuffix(cfg.prefix, "/")

	store, closeStore, err := openScoreboard(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	co, err := roshambo.New(ctx, store, roshambo.Options{
		Capacity:       cfg.capacity,
		CountdownSteps: cfg.countdown,
		Tick:           cfg.tick,
		RestartDelay:   cfg.restartDelay,
		Rate:           rateLimit(cfg.rate),
		Burst:          cfg.burst,
		Logf:           func(format string, args ...any) { logf(cfg, format, args...) },
		Errorf:         errorf,
	})
	if err != nil {
		return err
	}

	gameCtx, stopGame := context.WithCancel(context.WithoutCancel(ctx))
	go co.Run(gameCtx)

	defer func() {
		stopGame()
		<-co.Done()
	}()

	ln, err := listenGame(cfg)
	if err != nil {
		return err
	}

	go acceptPlayers(cfg, ln, co)

	errs := make(chan error, 64)

	go func() {
		for err := range errs {
			logf(cfg, "ERROR: %v", err)
		}
	}()

	var srv *http.Server
	if cfg.httpPort != 0 {
		srv = &http.Server{
			Addr:              net.JoinHostPort(cfg.bind, strconv.Itoa(cfg.httpPort)),
			Handler:           newRouter(cfg, co, errs),
			IdleTimeout:       10 * time.Minute,
			ReadTimeout:       timeout,
			ReadHeaderTimeout: timeout,
			WriteTimeout:      timeout,
		}

		go func() {
			var err error
			logf(cfg, "SERVE: Listening on %s://%s%s/", cfg.scheme(), srv.Addr, cfg.prefix)
			if cfg.tlsKey != "" && cfg.tlsCert != "" {
				err = srv.ListenAndServeTLS(cfg.tlsCert, cfg.tlsKey)
			} else {
				err = srv.ListenAndServe()
			}
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				errorf("ERROR: %v", err)
			}
		}()
	}

	<-ctx.Done()

	logf(cfg, "STOP: Shutting down")

	_ = ln.Close()

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}

	return nil
}
