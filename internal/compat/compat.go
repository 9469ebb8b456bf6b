// Package compat decides whether the native connector must be installed or
// updated before the bridge can use it.
package compat

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/pwabridge/internal/logging"
	"github.com/example/pwabridge/internal/native"
	"github.com/example/pwabridge/internal/protocol"
	"github.com/example/pwabridge/internal/version"
)

// Status is the outcome of a compatibility check.
type Status string

const (
	// StatusOK means the connector is usable as is.
	StatusOK Status = "ok"
	// StatusInstall means the connector or its runtime is missing.
	StatusInstall Status = "install"
	// StatusUpdateRequired means the connector is older than this bridge
	// supports, or newer and incompatible.
	StatusUpdateRequired Status = "update-required"
	// StatusUpdateOptional means the connector is newer but compatible.
	StatusUpdateOptional Status = "update-optional"
)

// VersionSource is the part of the connector the checker needs.
type VersionSource interface {
	SystemVersions(ctx context.Context) (protocol.SystemVersions, error)
}

// Options configures a Checker.
type Options struct {
	// ExtensionVersion is the bridge's own semantic version.
	ExtensionVersion string
	// VersionCheckDisabled skips the version comparison. The runtime
	// presence check still applies.
	VersionCheckDisabled bool
}

// Checker classifies the native install state.
type Checker struct {
	source VersionSource
	opts   Options
}

// NewChecker returns a Checker querying source.
func NewChecker(source VersionSource, opts Options) *Checker {
	return &Checker{source: source, opts: opts}
}

// Check performs one GetSystemVersions call and classifies the result. Only
// an unreachable connector is turned into StatusInstall; native and protocol
// errors are returned to the caller.
func (c *Checker) Check(ctx context.Context) (Status, error) {
	versions, err := c.source.SystemVersions(ctx)
	if err != nil {
		if errors.Is(err, native.ErrUnavailable) {
			logging.Debugf("connector unreachable, classifying as %s: %v", StatusInstall, err)
			return StatusInstall, nil
		}
		return "", err
	}

	status, err := Classify(c.opts.ExtensionVersion, versions.FirefoxPWA, versions.Firefox, c.opts.VersionCheckDisabled)
	if err != nil {
		return "", err
	}
	logging.Debugf("compatibility: extension=%s native=%s runtime=%t override=%t -> %s",
		c.opts.ExtensionVersion, versions.FirefoxPWA, versions.Firefox, c.opts.VersionCheckDisabled, status)
	return status, nil
}

// Classify maps the extension version, the native version, runtime presence
// and the override flag to a Status. Compatibility is the caret range
// anchored at the extension version.
func Classify(extensionVersion, nativeVersion string, runtimePresent, checkDisabled bool) (Status, error) {
	if !runtimePresent {
		return StatusInstall, nil
	}
	if checkDisabled {
		return StatusOK, nil
	}

	cmp, err := version.Compare(extensionVersion, nativeVersion)
	if err != nil {
		return "", fmt.Errorf("compare versions: %w", err)
	}

	switch {
	case cmp > 0:
		return StatusUpdateRequired, nil
	case cmp < 0:
		compatible, err := version.SatisfiesCaret(nativeVersion, extensionVersion)
		if err != nil {
			return "", fmt.Errorf("compare versions: %w", err)
		}
		if compatible {
			return StatusUpdateOptional, nil
		}
		return StatusUpdateRequired, nil
	default:
		return StatusOK, nil
	}
}
