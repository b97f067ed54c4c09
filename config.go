package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	minCapacity = 2
	maxCapacity = 8
)

type Config struct {
	bind         string
	burst        int
	capacity     int
	countdown    int
	databaseURL  string
	httpPort     int
	leaderboard  string
	port         int
	prefix       string
	profile      bool
	rate         float64
	restartDelay time.Duration
	tick         time.Duration
	tlsCert      string
	tlsKey       string
	verbose      bool
	version      bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.httpPort < 0 || c.httpPort > 65535 {
		return fmt.Errorf("invalid http port (must be between 0-65535 inclusive): %d", c.httpPort)
	}
	if c.httpPort == c.port {
		return fmt.Errorf("--port and --http-port must differ: %d", c.port)
	}
	if c.capacity < minCapacity || c.capacity > maxCapacity {
		return fmt.Errorf("invalid capacity (must be between %d-%d inclusive): %d", minCapacity, maxCapacity, c.capacity)
	}
	if c.countdown < 1 {
		return fmt.Errorf("invalid countdown (must be at least 1): %d", c.countdown)
	}
	if c.tick <= 0 {
		return fmt.Errorf("invalid tick (must be positive): %s", c.tick)
	}
	if c.restartDelay < 0 {
		return fmt.Errorf("invalid restart delay (must not be negative): %s", c.restartDelay)
	}
	if c.rate <= 0 || c.burst < 1 {
		return fmt.Errorf("invalid rate limit (rate must be positive, burst at least 1): %v/%d", c.rate, c.burst)
	}
	if c.databaseURL == "" && c.leaderboard == "" {
		return errors.New("one of --leaderboard or --database-url must be set")
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("ROSHAMBO")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "roshambo",
		Short:         "A four-player rock-paper-scissors elimination server.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return Serve(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: ROSHAMBO_BIND)")
	fs.IntVar(&cfg.burst, "burst", 10, "inbound messages a player may send in a burst (env: ROSHAMBO_BURST)")
	fs.IntVarP(&cfg.capacity, "capacity", "c", 4, "players per match (env: ROSHAMBO_CAPACITY)")
	fs.IntVar(&cfg.countdown, "countdown", 5, "countdown ticks before moves open (env: ROSHAMBO_COUNTDOWN)")
	fs.StringVar(&cfg.databaseURL, "database-url", "", "postgres connection string; stores the leaderboard in postgres instead of a file (env: ROSHAMBO_DATABASE_URL)")
	fs.IntVar(&cfg.httpPort, "http-port", 8080, "port for the websocket and http endpoints, 0 to disable (env: ROSHAMBO_HTTP_PORT)")
	fs.StringVarP(&cfg.leaderboard, "leaderboard", "l", "leaderboard.txt", "path to the leaderboard file (env: ROSHAMBO_LEADERBOARD)")
	fs.IntVarP(&cfg.port, "port", "p", 7777, "tcp port for game connections (env: ROSHAMBO_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: ROSHAMBO_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: ROSHAMBO_PROFILE)")
	fs.Float64Var(&cfg.rate, "rate", 5, "inbound messages per second allowed per player (env: ROSHAMBO_RATE)")
	fs.DurationVar(&cfg.restartDelay, "restart-delay", 15*time.Second, "pause between a match ending and the next countdown (env: ROSHAMBO_RESTART_DELAY)")
	fs.DurationVar(&cfg.tick, "tick", time.Second, "length of one countdown tick (env: ROSHAMBO_TICK)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: ROSHAMBO_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: ROSHAMBO_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: ROSHAMBO_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: ROSHAMBO_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("roshambo v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
