// Package ipc runs the connector as a browser native messaging host: one
// process per exchange, each message a 4-byte little-endian length followed
// by UTF-8 JSON.
package ipc

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/example/pwabridge/internal/logging"
)

// ErrDisconnected reports that the connector could not be reached or went
// away before sending a response.
var ErrDisconnected = errors.New("native host disconnected")

// MaxMessageSize is the largest frame payload accepted in either direction.
const MaxMessageSize = 1 << 20

const exitGracePeriod = 5 * time.Second

// Transport performs exactly one request/response round trip.
type Transport interface {
	Exchange(ctx context.Context, request any) (json.RawMessage, error)
}

// ProcessTransport starts the connector for every exchange, the same way a
// browser spawns a native messaging host per sendNativeMessage call.
type ProcessTransport struct {
	Host Host
}

// NewProcessTransport returns a transport bound to host.
func NewProcessTransport(host Host) *ProcessTransport {
	return &ProcessTransport{Host: host}
}

// Exchange writes request to the connector's stdin and reads one response
// frame from its stdout.
func (t *ProcessTransport) Exchange(ctx context.Context, request any) (json.RawMessage, error) {
	cmd := exec.CommandContext(ctx, t.Host.Path, t.Host.Args...)
	if len(t.Host.Env) > 0 {
		cmd.Env = append(os.Environ(), t.Host.Env...)
	}
	if logging.DebugEnabled() {
		cmd.Stderr = os.Stderr
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("connector stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("connector stdout: %w", err)
	}

	if err := cmd.Start(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: start %s: %v", ErrDisconnected, t.Host.Path, err)
	}
	defer reap(cmd)

	writeErr := WriteFrame(stdin, request)
	_ = stdin.Close()
	if writeErr != nil {
		if isBrokenPipe(writeErr) {
			return nil, fmt.Errorf("%w: %v", ErrDisconnected, writeErr)
		}
		return nil, writeErr
	}

	response, err := ReadFrame(stdout)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, os.ErrClosed) {
			return nil, fmt.Errorf("%w: connector closed before responding", ErrDisconnected)
		}
		return nil, fmt.Errorf("read connector response: %w", err)
	}

	return response, nil
}

// reap waits for the connector to exit after its stdin was closed, killing it
// when it lingers.
func reap(cmd *exec.Cmd) {
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			logging.Debugf("connector exited: %v", err)
		}
	case <-time.After(exitGracePeriod):
		logging.Debugf("connector did not exit within %s; killing", exitGracePeriod)
		_ = cmd.Process.Kill()
		<-done
	}
}

func isBrokenPipe(err error) bool {
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, os.ErrClosed)
}

// WriteFrame encodes msg and sends it with its length prefix in one write, so
// the reader never sees a header without its payload.
func WriteFrame(w io.Writer, msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	if len(payload) > MaxMessageSize {
		return frameSizeError(len(payload))
	}

	frame := binary.LittleEndian.AppendUint32(make([]byte, 0, 4+len(payload)), uint32(len(payload)))
	if _, err := w.Write(append(frame, payload...)); err != nil {
		return fmt.Errorf("send frame: %w", err)
	}
	return nil
}

// ReadFrame returns the payload of the next frame. A stream closed before the
// header yields io.EOF; one closed mid-frame yields io.ErrUnexpectedEOF.
func ReadFrame(r io.Reader) (json.RawMessage, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}

	size := binary.LittleEndian.Uint32(header[:])
	switch {
	case size == 0:
		return nil, errors.New("empty frame")
	case size > MaxMessageSize:
		return nil, frameSizeError(int(size))
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("frame payload: %w", err)
	}
	return payload, nil
}

func frameSizeError(size int) error {
	return fmt.Errorf("frame of %d bytes exceeds the %d byte limit", size, MaxMessageSize)
}
