/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package roshambo

import (
	"bufio"
	"io"
	"net"
	"time"

	"github.com/gorilla/websocket"
)

const (
	maxFrameSize = 1024
	writeTimeout = 10 * time.Second
)

// Transport carries text frames for one connection. ReadFrame is only called
// from the read pump and WriteFrame only from the write pump.
type Transport interface {
	ReadFrame() (string, error)
	WriteFrame(msg string) error
	Close() error
	RemoteAddr() string
}

// lineTransport frames messages as newline-terminated lines over a stream.
type lineTransport struct {
	conn    net.Conn
	scanner *bufio.Scanner
	writer  *bufio.Writer
}

func NewLineTransport(conn net.Conn) Transport {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, maxFrameSize), maxFrameSize)

	return &lineTransport{
		conn:    conn,
		scanner: scanner,
		writer:  bufio.NewWriter(conn),
	}
}

func (t *lineTransport) ReadFrame() (string, error) {
	if !t.scanner.Scan() {
		if err := t.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return t.scanner.Text(), nil
}

func (t *lineTransport) WriteFrame(msg string) error {
	_ = t.conn.SetWriteDeadline(time.Now().Add(writeTimeout))

	if _, err := t.writer.WriteString(msg + "\n"); err != nil {
		return err
	}
	return t.writer.Flush()
}

func (t *lineTransport) Close() error { return t.conn.Close() }

func (t *lineTransport) RemoteAddr() string { return t.conn.RemoteAddr().String() }

// wsTransport carries one message per websocket text frame.
type wsTransport struct {
	conn *websocket.Conn
}

func NewWebSocketTransport(conn *websocket.Conn) Transport {
	conn.SetReadLimit(maxFrameSize)
	return &wsTransport{conn: conn}
}

func (t *wsTransport) ReadFrame() (string, error) {
	for {
		kind, data, err := t.conn.ReadMessage()
		if err != nil {
			return "", err
		}
		if kind == websocket.TextMessage {
			return string(data), nil
		}
	}
}

func (t *wsTransport) WriteFrame(msg string) error {
	_ = t.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return t.conn.WriteMessage(websocket.TextMessage, []byte(msg))
}

func (t *wsTransport) Close() error { return t.conn.Close() }

func (t *wsTransport) RemoteAddr() string { return t.conn.RemoteAddr().String() }
