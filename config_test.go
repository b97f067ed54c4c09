package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		bind:         "127.0.0.1",
		burst:        10,
		capacity:     4,
		countdown:    5,
		httpPort:     8080,
		leaderboard:  "leaderboard.txt",
		port:         7777,
		rate:         5,
		restartDelay: 15 * time.Second,
		tick:         time.Second,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"http disabled", func(c *Config) { c.httpPort = 0 }, true},
		{"postgres only", func(c *Config) { c.leaderboard = ""; c.databaseURL = "postgres://localhost/roshambo" }, true},
		{"tls pair", func(c *Config) { c.tlsCert = "cert.pem"; c.tlsKey = "key.pem" }, true},
		{"tls cert only", func(c *Config) { c.tlsCert = "cert.pem" }, false},
		{"port zero", func(c *Config) { c.port = 0 }, false},
		{"port too high", func(c *Config) { c.port = 70000 }, false},
		{"same ports", func(c *Config) { c.httpPort = c.port }, false},
		{"capacity one", func(c *Config) { c.capacity = 1 }, false},
		{"capacity nine", func(c *Config) { c.capacity = 9 }, false},
		{"no countdown", func(c *Config) { c.countdown = 0 }, false},
		{"zero tick", func(c *Config) { c.tick = 0 }, false},
		{"negative restart", func(c *Config) { c.restartDelay = -time.Second }, false},
		{"zero rate", func(c *Config) { c.rate = 0 }, false},
		{"zero burst", func(c *Config) { c.burst = 0 }, false},
		{"no scoreboard", func(c *Config) { c.leaderboard = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)

			err := cfg.validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestScheme(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "http", cfg.scheme())

	cfg.tlsCert, cfg.tlsKey = "cert.pem", "key.pem"
	assert.Equal(t, "https", cfg.scheme())
}

func TestFlagDefaults(t *testing.T) {
	cfg := &Config{}
	cmd := newCmd(cfg)
	require.NoError(t, cmd.ParseFlags(nil))

	assert.Equal(t, 4, cfg.capacity)
	assert.Equal(t, 7777, cfg.port)
	assert.Equal(t, 8080, cfg.httpPort)
	assert.Equal(t, 5, cfg.countdown)
	assert.Equal(t, time.Second, cfg.tick)
	assert.Equal(t, 15*time.Second, cfg.restartDelay)
	assert.Equal(t, "leaderboard.txt", cfg.leaderboard)
	assert.NoError(t, cfg.validate())
}

func TestFlagsFromEnvironment(t *testing.T) {
	t.Setenv("ROSHAMBO_CAPACITY", "6")
	t.Setenv("ROSHAMBO_RESTART_DELAY", "3s")
	t.Setenv("ROSHAMBO_VERBOSE", "true")

	cfg := &Config{}
	cmd := newCmd(cfg)

	assert.Equal(t, 6, cfg.capacity)
	assert.Equal(t, 3*time.Second, cfg.restartDelay)
	assert.True(t, cfg.verbose)

	require.NoError(t, cmd.ParseFlags([]string{"--capacity", "3", "--http_port", "9090"}))
	assert.Equal(t, 3, cfg.capacity, "flags override the environment")
	assert.Equal(t, 9090, cfg.httpPort)
}
