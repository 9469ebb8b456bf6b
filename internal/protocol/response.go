package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrMalformedResponse reports a payload without a decodable type field.
var ErrMalformedResponse = errors.New("malformed connector response")

// Response is one of ErrorResponse, SystemVersions, SiteList, ProfileList,
// SiteLaunched or UnknownResponse.
type Response interface {
	Type() ResponseType
	isResponse()
}

// UnspecifiedError is the message of an Error reply that carried no text.
const UnspecifiedError = "connector reported an unspecified error"

// ErrorResponse carries a business error reported by the connector.
type ErrorResponse struct {
	Message string
}

// SystemVersions reports what is installed on the native side.
type SystemVersions struct {
	// Firefox is true when the managed runtime is installed.
	Firefox bool
	// FirefoxPWA is the connector's semantic version.
	FirefoxPWA string
}

// SiteList holds every installed site.
type SiteList struct {
	Sites []Site
}

// ProfileList holds every profile.
type ProfileList struct {
	Profiles []Profile
}

// SiteLaunched acknowledges a LaunchSite command.
type SiteLaunched struct{}

// UnknownResponse is any response whose type this package does not know.
type UnknownResponse struct {
	Kind string
	Data json.RawMessage
}

func (ErrorResponse) Type() ResponseType { return TypeError }
func (SystemVersions) Type() ResponseType { return TypeSystemVersions }
func (SiteList) Type() ResponseType { return TypeSiteList }
func (ProfileList) Type() ResponseType { return TypeProfileList }
func (SiteLaunched) Type() ResponseType { return TypeSiteLaunched }
func (u UnknownResponse) Type() ResponseType { return ResponseType(u.Kind) }

func (ErrorResponse) isResponse() {}
func (SystemVersions) isResponse() {}
func (SiteList) isResponse() {}
func (ProfileList) isResponse() {}
func (SiteLaunched) isResponse() {}
func (UnknownResponse) isResponse() {}

type envelope struct {
	Type *string         `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Decode parses a connector response. A payload that is not an object with a
// string type wraps ErrMalformedResponse; a known type whose data has the
// wrong shape returns an error naming the type.
func Decode(raw []byte) (Response, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if env.Type == nil {
		return nil, fmt.Errorf("%w: missing type", ErrMalformedResponse)
	}

	kind := ResponseType(*env.Type)
	switch kind {
	case TypeError:
		return ErrorResponse{Message: errorMessage(env.Data)}, nil
	case TypeSystemVersions:
		var versions SystemVersions
		if err := decodeData(env.Data, &versions); err != nil {
			return nil, fmt.Errorf("decode %s data: %w", kind, err)
		}
		return versions, nil
	case TypeSiteList:
		sites, err := decodeKeyed[Site](env.Data)
		if err != nil {
			return nil, fmt.Errorf("decode %s data: %w", kind, err)
		}
		return SiteList{Sites: sites}, nil
	case TypeProfileList:
		profiles, err := decodeKeyed[Profile](env.Data)
		if err != nil {
			return nil, fmt.Errorf("decode %s data: %w", kind, err)
		}
		return ProfileList{Profiles: profiles}, nil
	case TypeSiteLaunched:
		return SiteLaunched{}, nil
	default:
		return UnknownResponse{Kind: *env.Type, Data: env.Data}, nil
	}
}

// errorMessage extracts the text of an Error reply. Replies without a string
// payload still report an error, with the raw payload when there is one.
func errorMessage(data json.RawMessage) string {
	var message string
	if err := json.Unmarshal(data, &message); err == nil && strings.TrimSpace(message) != "" {
		return message
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`""`)) {
		return UnspecifiedError
	}
	return UnspecifiedError + ": " + string(trimmed)
}

func decodeData(data json.RawMessage, dest any) error {
	if len(data) == 0 {
		return errors.New("missing data")
	}
	return json.Unmarshal(data, dest)
}

// decodeKeyed accepts either a JSON array or an object keyed by ULID, which
// is how the connector serialises its storage maps. Object values are
// returned in key order.
func decodeKeyed[T any](data json.RawMessage) ([]T, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var list []T
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, err
		}
		return list, nil
	}

	var keyed map[string]T
	if err := json.Unmarshal(trimmed, &keyed); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(keyed))
	for key := range keyed {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]T, 0, len(keys))
	for _, key := range keys {
		out = append(out, keyed[key])
	}
	return out, nil
}

// UnmarshalJSON accepts firefox as a boolean, a version string or null.
func (v *SystemVersions) UnmarshalJSON(data []byte) error {
	var raw struct {
		Firefox    json.RawMessage `json:"firefox"`
		FirefoxPWA *string         `json:"firefoxpwa"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	present, err := presenceFlag(raw.Firefox)
	if err != nil {
		return fmt.Errorf("firefox: %w", err)
	}
	v.Firefox = present
	if raw.FirefoxPWA != nil {
		v.FirefoxPWA = strings.TrimSpace(*raw.FirefoxPWA)
	}
	return nil
}

// MarshalJSON writes the canonical boolean form.
func (v SystemVersions) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Firefox    bool   `json:"firefox"`
		FirefoxPWA string `json:"firefoxpwa"`
	}{v.Firefox, v.FirefoxPWA})
}

func presenceFlag(raw json.RawMessage) (bool, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return false, nil
	}

	var flag bool
	if err := json.Unmarshal(trimmed, &flag); err == nil {
		return flag, nil
	}
	var version string
	if err := json.Unmarshal(trimmed, &version); err == nil {
		return strings.TrimSpace(version) != "", nil
	}
	return false, fmt.Errorf("unsupported value %s", string(trimmed))
}
