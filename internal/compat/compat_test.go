package compat

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/example/pwabridge/internal/native"
	"github.com/example/pwabridge/internal/protocol"
)

type fakeSource struct {
	versions protocol.SystemVersions
	err      error
	calls    int
}

func (f *fakeSource) SystemVersions(context.Context) (protocol.SystemVersions, error) {
	f.calls++
	return f.versions, f.err
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		extension string
		native    string
		runtime   bool
		disabled  bool
		want      Status
	}{
		{"equal", "2.0.0", "2.0.0", true, false, StatusOK},
		{"native newer compatible", "2.0.0", "2.3.0", true, false, StatusUpdateOptional},
		{"native newer major", "2.0.0", "3.0.0", true, false, StatusUpdateRequired},
		{"native older", "2.0.0", "1.9.0", true, false, StatusUpdateRequired},
		{"runtime missing", "2.0.0", "2.0.0", false, false, StatusInstall},
		{"runtime missing beats override", "2.0.0", "1.0.0", false, true, StatusInstall},
		{"override skips comparison", "2.0.0", "1.0.0", true, true, StatusOK},
		{"override ignores garbage", "2.0.0", "garbage", true, true, StatusOK},
		{"zero major patch bump", "0.4.1", "0.4.3", true, false, StatusUpdateOptional},
		{"zero major minor bump", "0.4.1", "0.5.0", true, false, StatusUpdateRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(tt.extension, tt.native, tt.runtime, tt.disabled)
			if err != nil {
				t.Fatalf("Classify returned error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Classify = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassifyInvalidVersion(t *testing.T) {
	if _, err := Classify("2.0.0", "", true, false); err == nil {
		t.Fatal("expected error for missing native version")
	}
}

func TestCheckRuntimeMissing(t *testing.T) {
	source := &fakeSource{versions: protocol.SystemVersions{Firefox: false}}
	status, err := NewChecker(source, Options{ExtensionVersion: "2.0.0"}).Check(context.Background())
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if status != StatusInstall {
		t.Fatalf("expected install, got %s", status)
	}
	if source.calls != 1 {
		t.Fatalf("expected exactly one native call, got %d", source.calls)
	}
}

func TestCheckDisconnectedIsInstall(t *testing.T) {
	source := &fakeSource{err: fmt.Errorf("%w: connector closed before responding", native.ErrUnavailable)}
	status, err := NewChecker(source, Options{ExtensionVersion: "2.0.0"}).Check(context.Background())
	if err != nil {
		t.Fatalf("disconnection must not surface as an error: %v", err)
	}
	if status != StatusInstall {
		t.Fatalf("expected install, got %s", status)
	}
}

func TestCheckPropagatesNativeFailures(t *testing.T) {
	failures := []error{
		&native.Error{Message: "storage corrupted"},
		&native.ProtocolMismatchError{Command: protocol.CmdGetSystemVersions, Expected: protocol.TypeSystemVersions, Actual: protocol.TypeSiteList},
	}

	for _, failure := range failures {
		source := &fakeSource{err: failure}
		status, err := NewChecker(source, Options{ExtensionVersion: "2.0.0"}).Check(context.Background())
		if !errors.Is(err, failure) {
			t.Fatalf("expected %v to propagate, got status=%s err=%v", failure, status, err)
		}
		if status == StatusInstall {
			t.Fatalf("%v must not be downgraded to install", failure)
		}
	}
}

func TestCheckOverride(t *testing.T) {
	source := &fakeSource{versions: protocol.SystemVersions{Firefox: true, FirefoxPWA: "9.0.0"}}
	checker := NewChecker(source, Options{ExtensionVersion: "2.0.0", VersionCheckDisabled: true})
	status, err := checker.Check(context.Background())
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if status != StatusOK {
		t.Fatalf("expected ok with override, got %s", status)
	}
}
