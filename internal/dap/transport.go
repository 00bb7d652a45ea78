// Package dap implements the Debug Adapter Protocol client used to back
// the entity model with live adapter sessions.
package dap

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

// Transport carries framed DAP messages to and from a debug adapter.
type Transport interface {
	// Send sends a message to the debug adapter.
	Send(msg *Message) error

	// Receive blocks until the next message arrives from the adapter.
	Receive() (*Message, error)

	// Close closes the transport.
	Close() error
}

// Message is a single framed DAP message.
type Message struct {
	// ContentLength is the length of the content.
	ContentLength int

	// Content is the JSON content.
	Content json.RawMessage
}

// MaxContentLength caps the size of a single DAP message (10MB).
const MaxContentLength = 10 * 1024 * 1024

// CommandTransport runs a debug adapter as a subprocess and speaks DAP
// over its stdin and stdout.
type CommandTransport struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	reader *bufio.Reader
	mu     sync.Mutex
}

// NewCommandTransport starts the adapter command and wires its pipes.
func NewCommandTransport(cmd *exec.Cmd) (*CommandTransport, error) {
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("get stdin pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, fmt.Errorf("get stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		stdin.Close()
		stdout.Close()
		return nil, fmt.Errorf("start adapter: %w", err)
	}

	return &CommandTransport{
		cmd:    cmd,
		stdin:  stdin,
		stdout: stdout,
		reader: bufio.NewReader(stdout),
	}, nil
}

// Send sends a message to the adapter process.
func (t *CommandTransport) Send(msg *Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return writeMessage(t.stdin, msg)
}

// Receive receives a message from the adapter process.
func (t *CommandTransport) Receive() (*Message, error) {
	return readMessage(t.reader)
}

// Close closes the pipes and terminates the adapter process.
func (t *CommandTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stdin.Close()
	t.stdout.Close()

	if t.cmd.Process != nil {
		t.cmd.Process.Kill()
	}

	return t.cmd.Wait()
}

// SocketTransport speaks DAP over a TCP connection to an already running
// adapter, such as a headless delve instance.
type SocketTransport struct {
	conn   net.Conn
	reader *bufio.Reader
	mu     sync.Mutex
}

// NewSocketTransport dials the adapter at the given address.
func NewSocketTransport(address string) (*SocketTransport, error) {
	conn, err := net.Dial("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", address, err)
	}

	return &SocketTransport{
		conn:   conn,
		reader: bufio.NewReader(conn),
	}, nil
}

// NewSocketTransportFromConn wraps an existing connection.
func NewSocketTransportFromConn(conn net.Conn) *SocketTransport {
	return &SocketTransport{
		conn:   conn,
		reader: bufio.NewReader(conn),
	}
}

// Send sends a message over the socket.
func (t *SocketTransport) Send(msg *Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return writeMessage(t.conn, msg)
}

// Receive receives a message from the socket.
func (t *SocketTransport) Receive() (*Message, error) {
	return readMessage(t.reader)
}

// Close closes the socket connection.
func (t *SocketTransport) Close() error {
	return t.conn.Close()
}

// PipeTransport wraps any io.ReadWriteCloser as a Transport. Used by the
// tests and by in-process adapters.
type PipeTransport struct {
	rwc    io.ReadWriteCloser
	reader *bufio.Reader
	mu     sync.Mutex
}

// NewPipeTransport creates a transport from any ReadWriteCloser.
func NewPipeTransport(rwc io.ReadWriteCloser) *PipeTransport {
	return &PipeTransport{
		rwc:    rwc,
		reader: bufio.NewReader(rwc),
	}
}

// Send sends a message.
func (t *PipeTransport) Send(msg *Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return writeMessage(t.rwc, msg)
}

// Receive receives a message.
func (t *PipeTransport) Receive() (*Message, error) {
	return readMessage(t.reader)
}

// Close closes the underlying connection.
func (t *PipeTransport) Close() error {
	return t.rwc.Close()
}

// writeMessage frames and writes a DAP message.
func writeMessage(w io.Writer, msg *Message) error {
	header := fmt.Sprintf("Content-Length: %d\r\n\r\n", len(msg.Content))

	if _, err := w.Write([]byte(header)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	if _, err := w.Write(msg.Content); err != nil {
		return fmt.Errorf("write content: %w", err)
	}

	return nil
}

// readMessage reads one framed DAP message.
func readMessage(r *bufio.Reader) (*Message, error) {
	var contentLength int

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break // End of headers
		}

		parts := strings.SplitN(line, ": ", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid header: %s", line)
		}

		if strings.EqualFold(parts[0], "content-length") {
			length, err := strconv.Atoi(parts[1])
			if err != nil {
				return nil, fmt.Errorf("invalid content-length: %w", err)
			}
			if length < 0 || length > MaxContentLength {
				return nil, fmt.Errorf("content-length %d exceeds maximum allowed %d", length, MaxContentLength)
			}
			contentLength = length
		}
	}

	if contentLength == 0 {
		return nil, fmt.Errorf("missing Content-Length header")
	}

	content := make([]byte, contentLength)
	if _, err := io.ReadFull(r, content); err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}

	return &Message{
		ContentLength: contentLength,
		Content:       content,
	}, nil
}
