// Package protocol defines the messages exchanged with the native connector.
// Requests are {cmd, params}; responses are {type, data} and decode into one
// concrete Response type per variant.
package protocol

// CommandName identifies a connector command.
type CommandName string

const (
	CmdGetSystemVersions CommandName = "GetSystemVersions"
	CmdGetSiteList       CommandName = "GetSiteList"
	CmdGetProfileList    CommandName = "GetProfileList"
	CmdLaunchSite        CommandName = "LaunchSite"
)

// ResponseType is the discriminator of a connector response.
type ResponseType string

const (
	TypeError          ResponseType = "Error"
	TypeSystemVersions ResponseType = "SystemVersions"
	TypeSiteList       ResponseType = "SiteList"
	TypeProfileList    ResponseType = "ProfileList"
	TypeSiteLaunched   ResponseType = "SiteLaunched"
)

// Command is a request sent to the connector.
type Command struct {
	Name   CommandName `json:"cmd"`
	Params any         `json:"params,omitempty"`
}

// Expects returns the response type a successful reply to c carries.
func (c Command) Expects() ResponseType {
	switch c.Name {
	case CmdGetSystemVersions:
		return TypeSystemVersions
	case CmdGetSiteList:
		return TypeSiteList
	case CmdGetProfileList:
		return TypeProfileList
	case CmdLaunchSite:
		return TypeSiteLaunched
	default:
		return ""
	}
}

// GetSystemVersions asks for the runtime and connector versions.
func GetSystemVersions() Command { return Command{Name: CmdGetSystemVersions} }

// GetSiteList asks for all installed sites.
func GetSiteList() Command { return Command{Name: CmdGetSiteList} }

// GetProfileList asks for all profiles.
func GetProfileList() Command { return Command{Name: CmdGetProfileList} }

// LaunchSite asks the connector to open the site with the given ULID.
func LaunchSite(ulid string) Command { return Command{Name: CmdLaunchSite, Params: ulid} }
