package ipc

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestHelperProcess is not a real test. It acts as a fake connector when the
// transport tests re-execute the test binary.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("PWABRIDGE_HELPER_PROCESS") != "1" {
		return
	}
	defer os.Exit(0)

	msg, err := ReadFrame(os.Stdin)
	if err != nil {
		os.Exit(2)
	}

	switch os.Getenv("PWABRIDGE_HELPER_MODE") {
	case "hangup":
		return
	default:
		var request struct {
			Cmd string `json:"cmd"`
		}
		_ = json.Unmarshal(msg, &request)
		_ = WriteFrame(os.Stdout, map[string]any{"type": "Echo", "data": request.Cmd})
	}
}

func helperHost(mode string) Host {
	return Host{
		Path: os.Args[0],
		Args: []string{"-test.run=TestHelperProcess", "--"},
		Env:  []string{"PWABRIDGE_HELPER_PROCESS=1", "PWABRIDGE_HELPER_MODE=" + mode},
	}
}

func TestProcessTransportExchange(t *testing.T) {
	transport := NewProcessTransport(helperHost("echo"))

	raw, err := transport.Exchange(context.Background(), map[string]string{"cmd": "GetSiteList"})
	if err != nil {
		t.Fatalf("Exchange returned error: %v", err)
	}

	var response struct {
		Type string `json:"type"`
		Data string `json:"data"`
	}
	if err := json.Unmarshal(raw, &response); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if response.Type != "Echo" || response.Data != "GetSiteList" {
		t.Fatalf("unexpected response: %+v", response)
	}
}

func TestProcessTransportHangupIsDisconnect(t *testing.T) {
	transport := NewProcessTransport(helperHost("hangup"))

	_, err := transport.Exchange(context.Background(), map[string]string{"cmd": "GetSystemVersions"})
	if !errors.Is(err, ErrDisconnected) {
		t.Fatalf("expected ErrDisconnected, got %v", err)
	}
}

func TestProcessTransportMissingBinaryIsDisconnect(t *testing.T) {
	host := Host{Path: filepath.Join(t.TempDir(), "missing-connector")}
	transport := NewProcessTransport(host)

	_, err := transport.Exchange(context.Background(), map[string]string{"cmd": "GetSystemVersions"})
	if !errors.Is(err, ErrDisconnected) {
		t.Fatalf("expected ErrDisconnected, got %v", err)
	}
}

func TestDefaultHostEnvOverride(t *testing.T) {
	t.Setenv("PWABRIDGE_CONNECTOR", "/opt/custom/connector")
	host := DefaultHost()
	if host.Path != "/opt/custom/connector" {
		t.Fatalf("expected override path, got %q", host.Path)
	}
	if host.String() != "native:///opt/custom/connector" {
		t.Fatalf("unexpected host string %q", host.String())
	}
}

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, map[string]string{"cmd": "LaunchSite", "params": "01ARZ3NDEKTSV4RRFFQ69G5FAV"}); err != nil {
		t.Fatalf("WriteFrame returned error: %v", err)
	}
	if size := binary.LittleEndian.Uint32(buf.Bytes()[:4]); int(size) != buf.Len()-4 {
		t.Fatalf("length prefix %d does not match payload %d", size, buf.Len()-4)
	}

	payload, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame returned error: %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if got["cmd"] != "LaunchSite" || got["params"] != "01ARZ3NDEKTSV4RRFFQ69G5FAV" {
		t.Fatalf("unexpected payload %v", got)
	}
}

func TestReadFrameRejectsBadLengths(t *testing.T) {
	for name, header := range map[string][]byte{
		"empty":     {0, 0, 0, 0},
		"too large": {0x01, 0x00, 0x10, 0x00},
	} {
		if _, err := ReadFrame(bytes.NewReader(header)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestReadFrameClosedStream(t *testing.T) {
	if _, err := ReadFrame(bytes.NewReader(nil)); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF on empty stream, got %v", err)
	}
	if _, err := ReadFrame(bytes.NewReader([]byte{0x10, 0x00})); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected io.ErrUnexpectedEOF on short header, got %v", err)
	}
	if _, err := ReadFrame(bytes.NewReader([]byte{0x10, 0x00, 0x00, 0x00, '{'})); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected io.ErrUnexpectedEOF on truncated payload, got %v", err)
	}
}

func TestWriteFrameRejectsOversizedMessage(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, strings.Repeat("a", MaxMessageSize)); err == nil {
		t.Fatal("expected error for oversized message")
	}
	if buf.Len() != 0 {
		t.Fatalf("nothing should be written on failure, got %d bytes", buf.Len())
	}
}
