package protocol

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestCommandEncoding(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{GetSystemVersions(), `{"cmd":"GetSystemVersions"}`},
		{GetSiteList(), `{"cmd":"GetSiteList"}`},
		{GetProfileList(), `{"cmd":"GetProfileList"}`},
		{LaunchSite("01ARZ3NDEKTSV4RRFFQ69G5FAV"), `{"cmd":"LaunchSite","params":"01ARZ3NDEKTSV4RRFFQ69G5FAV"}`},
	}
	for _, tt := range tests {
		data, err := json.Marshal(tt.cmd)
		if err != nil {
			t.Fatalf("marshal %s: %v", tt.cmd.Name, err)
		}
		if string(data) != tt.want {
			t.Fatalf("marshal %s = %s, want %s", tt.cmd.Name, data, tt.want)
		}
	}
}

func TestCommandExpects(t *testing.T) {
	expected := map[CommandName]ResponseType{
		CmdGetSystemVersions: TypeSystemVersions,
		CmdGetSiteList:       TypeSiteList,
		CmdGetProfileList:    TypeProfileList,
		CmdLaunchSite:        TypeSiteLaunched,
		"Unknown":            "",
	}
	for name, want := range expected {
		if got := (Command{Name: name}).Expects(); got != want {
			t.Fatalf("%s expects %q, want %q", name, got, want)
		}
	}
}

func TestDecodeVariants(t *testing.T) {
	resp, err := Decode([]byte(`{"type":"Error","data":"Site does not exist"}`))
	if err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if e, ok := resp.(ErrorResponse); !ok || e.Message != "Site does not exist" {
		t.Fatalf("unexpected error response %#v", resp)
	}

	resp, err = Decode([]byte(`{"type":"SystemVersions","data":{"firefox":"115.0","firefoxpwa":"2.3.0","_7zip":null}}`))
	if err != nil {
		t.Fatalf("decode versions: %v", err)
	}
	versions, ok := resp.(SystemVersions)
	if !ok || !versions.Firefox || versions.FirefoxPWA != "2.3.0" {
		t.Fatalf("unexpected versions %#v", resp)
	}

	resp, err = Decode([]byte(`{"type":"SiteLaunched"}`))
	if err != nil {
		t.Fatalf("decode launched: %v", err)
	}
	if _, ok := resp.(SiteLaunched); !ok {
		t.Fatalf("unexpected launched response %#v", resp)
	}

	resp, err = Decode([]byte(`{"type":"ProfileCreated","data":"x"}`))
	if err != nil {
		t.Fatalf("decode unknown: %v", err)
	}
	if resp.Type() != "ProfileCreated" {
		t.Fatalf("unknown response should keep its type, got %q", resp.Type())
	}
}

func TestDecodeRuntimePresence(t *testing.T) {
	tests := map[string]bool{
		`{"firefox":true,"firefoxpwa":"1.0.0"}`:  true,
		`{"firefox":false,"firefoxpwa":"1.0.0"}`: false,
		`{"firefox":null,"firefoxpwa":"1.0.0"}`:  false,
		`{"firefox":"","firefoxpwa":"1.0.0"}`:    false,
		`{"firefoxpwa":"1.0.0"}`:                 false,
	}
	for data, want := range tests {
		resp, err := Decode([]byte(`{"type":"SystemVersions","data":` + data + `}`))
		if err != nil {
			t.Fatalf("decode %s: %v", data, err)
		}
		if got := resp.(SystemVersions).Firefox; got != want {
			t.Fatalf("%s: firefox = %v, want %v", data, got, want)
		}
	}
}

func TestDecodeSiteListForms(t *testing.T) {
	keyed := `{"type":"SiteList","data":{
		"01B":{"ulid":"01B","profile":"00000000000000000000000000","config":{"document_url":"https://b.test/","manifest_url":"https://b.test/m.json"},"manifest":{"start_url":"https://b.test/","scope":"https://b.test/","short_name":"Bee","icons":[{"src":"/i.png","sizes":"64x64","purpose":"any"}]}},
		"01A":{"ulid":"01A","profile":"00000000000000000000000000","config":{"name":"Alpha","document_url":"https://a.test/","manifest_url":"https://a.test/m.json"},"manifest":{"start_url":"https://a.test/","scope":"https://a.test/"}}
	}}`
	resp, err := Decode([]byte(keyed))
	if err != nil {
		t.Fatalf("decode keyed: %v", err)
	}
	sites := resp.(SiteList).Sites
	if len(sites) != 2 || sites[0].ULID != "01A" || sites[1].ULID != "01B" {
		t.Fatalf("expected sites ordered by ULID, got %+v", sites)
	}
	if sites[0].DisplayName() != "Alpha" || sites[1].DisplayName() != "Bee" {
		t.Fatalf("unexpected display names %q %q", sites[0].DisplayName(), sites[1].DisplayName())
	}
	icons := sites[1].Icons()
	if len(icons) != 1 || icons[0].Src != "https://b.test/i.png" {
		t.Fatalf("expected icon resolved against manifest URL, got %+v", icons)
	}

	resp, err = Decode([]byte(`{"type":"ProfileList","data":[{"ulid":"00000000000000000000000000","sites":[]}]}`))
	if err != nil {
		t.Fatalf("decode profile array: %v", err)
	}
	profiles := resp.(ProfileList).Profiles
	if len(profiles) != 1 || profiles[0].DisplayName() != "Default" {
		t.Fatalf("unexpected profiles %+v", profiles)
	}
}

func TestDecodeMalformed(t *testing.T) {
	for _, raw := range []string{`nope`, `{}`, `{"type":7}`} {
		if _, err := Decode([]byte(raw)); !errors.Is(err, ErrMalformedResponse) {
			t.Fatalf("%s: expected ErrMalformedResponse, got %v", raw, err)
		}
	}

	_, err := Decode([]byte(`{"type":"SystemVersions","data":"oops"}`))
	if err == nil || errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected shape error for SystemVersions, got %v", err)
	}
}

func TestDecodeErrorWithoutMessage(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`{"type":"Error"}`, UnspecifiedError},
		{`{"type":"Error","data":null}`, UnspecifiedError},
		{`{"type":"Error","data":""}`, UnspecifiedError},
		{`{"type":"Error","data":{"code":3}}`, UnspecifiedError + `: {"code":3}`},
	}

	for _, tt := range tests {
		resp, err := Decode([]byte(tt.raw))
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tt.raw, err)
		}
		e, ok := resp.(ErrorResponse)
		if !ok {
			t.Fatalf("%s: expected ErrorResponse, got %#v", tt.raw, resp)
		}
		if e.Message != tt.want {
			t.Fatalf("%s: message = %q, want %q", tt.raw, e.Message, tt.want)
		}
	}
}
