package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("PWABRIDGE_SETTINGS_PATH", filepath.Join(t.TempDir(), "settings.json"))

	settings, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if settings.Bool(NativeVersionCheckDisabled) {
		t.Fatal("override should default to false")
	}
}

func TestSaveLoadPlain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")
	t.Setenv("PWABRIDGE_SETTINGS_PATH", path)

	settings := &Settings{}
	if err := settings.Set(NativeVersionCheckDisabled, true); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := settings.Set("ui.theme", "dark"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := Save(settings, ""); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !loaded.Bool(NativeVersionCheckDisabled) {
		t.Fatal("expected override to persist")
	}
	if !reflect.DeepEqual(loaded.Keys(), []string{"ui.theme", NativeVersionCheckDisabled}) {
		t.Fatalf("unexpected keys %v", loaded.Keys())
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file should be renamed away, stat err=%v", err)
	}
}

func TestBoolOnlyAcceptsJSONTrue(t *testing.T) {
	settings := &Settings{}
	for _, value := range []any{"true", 1, map[string]bool{"enabled": true}} {
		if err := settings.Set(NativeVersionCheckDisabled, value); err != nil {
			t.Fatalf("Set: %v", err)
		}
		if settings.Bool(NativeVersionCheckDisabled) {
			t.Fatalf("%#v must not enable the override", value)
		}
	}

	var nilSettings *Settings
	if nilSettings.Bool(NativeVersionCheckDisabled) {
		t.Fatal("nil settings must read false")
	}
}

func TestSealedRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.enc")
	t.Setenv("PWABRIDGE_SETTINGS_PATH", path)

	settings := &Settings{}
	if err := settings.Set(NativeVersionCheckDisabled, true); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := Save(settings, "correct horse"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(raw[:len(sealedMagic)]) != sealedMagic {
		t.Fatal("expected sealed header")
	}

	if _, err := Load(""); err == nil {
		t.Fatal("expected error loading sealed settings without passphrase")
	}
	if _, err := Load("wrong"); err == nil {
		t.Fatal("expected error loading sealed settings with wrong passphrase")
	}

	loaded, err := Load("correct horse")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !loaded.Bool(NativeVersionCheckDisabled) {
		t.Fatal("expected override to survive sealing")
	}
}

func TestDelete(t *testing.T) {
	settings := &Settings{}
	_ = settings.Set(NativeVersionCheckDisabled, true)
	settings.Delete(NativeVersionCheckDisabled)
	if _, ok := settings.Get(NativeVersionCheckDisabled); ok {
		t.Fatal("expected key to be removed")
	}
}
