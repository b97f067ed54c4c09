/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
)

const releaseVersion = "0.1.0"

const seatFree = "A seat is free, please send your name."

type clientConfig struct {
	server string
	name   string
}

// input turns a line typed by the player into a frame for the server. ok is
// false for lines that should not be sent.
func input(line string) (frame string, quit, ok bool) {
	line = strings.TrimSpace(line)

	switch {
	case line == "":
		return "", false, false
	case line == "quit" || line == "exit":
		return "", true, false
	case strings.HasPrefix(line, "/name "):
		name := strings.TrimSpace(strings.TrimPrefix(line, "/name "))
		if name == "" {
			return "", false, false
		}
		return "name:" + name, false, true
	}

	switch strings.ToLower(line) {
	case "r", "rock":
		return "rock", false, true
	case "p", "paper":
		return "paper", false, true
	case "s", "scissors":
		return "scissors", false, true
	case "leave":
		return "leave", false, true
	}

	return "", false, false
}

func play(ctx context.Context, cfg *clientConfig, stdin io.Reader, stdout io.Writer) error {
	var dialer net.Dialer

	conn, err := dialer.DialContext(ctx, "tcp", cfg.server)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", cfg.server, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	display := NewDisplay(stdout)
	display.Banner(cfg.server)

	var (
		mu   sync.Mutex
		name = cfg.name
	)
	currentName := func() string {
		mu.Lock()
		defer mu.Unlock()
		return name
	}

	send := func(frame string) error {
		_, err := io.WriteString(conn, frame+"\n")
		return err
	}

	if err := send("name:" + currentName()); err != nil {
		return err
	}

	serverGone := make(chan error, 1)

	go func() {
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			line := scanner.Text()
			display.Show(line)

			if line == seatFree {
				_ = send("name:" + currentName())
			}
		}
		serverGone <- scanner.Err()
	}()

	lines := make(chan string)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-serverGone:
			if err != nil && !errors.Is(err, net.ErrClosed) {
				return err
			}
			display.Warn("Server closed the connection.")
			return nil
		case line, open := <-lines:
			if !open {
				return nil
			}

			frame, quit, ok := input(line)
			if quit {
				return nil
			}
			if !ok {
				display.Warn("Unknown command %q. Use rock, paper, scissors, leave, /name <name> or quit.", line)
				continue
			}
			if after, found := strings.CutPrefix(frame, "name:"); found {
				mu.Lock()
				name = after
				mu.Unlock()
			}
			if err := send(frame); err != nil {
				return err
			}
		}
	}
}

func newCmd(cfg *clientConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "roshambo-client",
		Short:   "Terminal client for a roshambo server.",
		Args:    cobra.ExactArgs(0),
		Version: releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(cfg.name) == "" {
				return errors.New("--name must not be empty")
			}
			return play(cmd.Context(), cfg, os.Stdin, os.Stdout)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&cfg.server, "server", "s", "localhost:7777", "server address (host:port)")
	fs.StringVarP(&cfg.name, "name", "n", "", "display name")

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetVersionTemplate("roshambo-client v{{.Version}}\n")
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cobra.CheckErr(newCmd(&clientConfig{}).ExecuteContext(ctx))
}
