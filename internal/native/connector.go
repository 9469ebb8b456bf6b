// Package native is the client side of the connector's native messaging
// protocol. Each call performs exactly one request/response round trip.
package native

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/example/pwabridge/internal/ipc"
	"github.com/example/pwabridge/internal/logging"
	"github.com/example/pwabridge/internal/protocol"
)

// Connector sends commands to the native connector.
type Connector struct {
	transport ipc.Transport
}

// New returns a Connector using transport.
func New(transport ipc.Transport) *Connector {
	return &Connector{transport: transport}
}

// Send issues cmd and returns the decoded response when its type is the one
// cmd expects. Failures are ErrUnavailable, *Error or
// *ProtocolMismatchError; context and unclassified transport errors are
// returned wrapped.
func (c *Connector) Send(ctx context.Context, cmd protocol.Command) (protocol.Response, error) {
	callID := uuid.NewString()
	if payload, err := json.Marshal(cmd); err == nil {
		logging.LogNativeMessage(callID, "-->", payload)
	}

	raw, err := c.transport.Exchange(ctx, cmd)
	if err != nil {
		logging.Debugf("native %s %s failed: %v", callID, cmd.Name, err)
		if errors.Is(err, ipc.ErrDisconnected) {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil, fmt.Errorf("%s: %w", cmd.Name, err)
	}
	logging.LogNativeMessage(callID, "<--", raw)

	expected := cmd.Expects()
	resp, err := protocol.Decode(raw)
	if err != nil {
		mismatch := &ProtocolMismatchError{Command: cmd.Name, Expected: expected, Err: err}
		if !errors.Is(err, protocol.ErrMalformedResponse) {
			mismatch.Actual = peekType(raw)
		}
		return nil, mismatch
	}

	switch r := resp.(type) {
	case protocol.ErrorResponse:
		return nil, &Error{Message: r.Message}
	default:
		if r.Type() != expected {
			return nil, &ProtocolMismatchError{Command: cmd.Name, Expected: expected, Actual: r.Type()}
		}
		return r, nil
	}
}

// SystemVersions runs GetSystemVersions.
func (c *Connector) SystemVersions(ctx context.Context) (protocol.SystemVersions, error) {
	resp, err := c.Send(ctx, protocol.GetSystemVersions())
	if err != nil {
		return protocol.SystemVersions{}, err
	}
	return resp.(protocol.SystemVersions), nil
}

// Sites runs GetSiteList.
func (c *Connector) Sites(ctx context.Context) ([]protocol.Site, error) {
	resp, err := c.Send(ctx, protocol.GetSiteList())
	if err != nil {
		return nil, err
	}
	return resp.(protocol.SiteList).Sites, nil
}

// Profiles runs GetProfileList.
func (c *Connector) Profiles(ctx context.Context) ([]protocol.Profile, error) {
	resp, err := c.Send(ctx, protocol.GetProfileList())
	if err != nil {
		return nil, err
	}
	return resp.(protocol.ProfileList).Profiles, nil
}

// LaunchSite runs LaunchSite for the site with the given ULID.
func (c *Connector) LaunchSite(ctx context.Context, ulid string) error {
	ulid = strings.TrimSpace(ulid)
	if ulid == "" {
		return errors.New("missing site identifier")
	}
	_, err := c.Send(ctx, protocol.LaunchSite(ulid))
	return err
}

func peekType(raw []byte) protocol.ResponseType {
	var env struct {
		Type string `json:"type"`
	}
	_ = json.Unmarshal(raw, &env)
	return protocol.ResponseType(env.Type)
}
