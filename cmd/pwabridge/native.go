package main

import (
	"github.com/spf13/cobra"

	"github.com/example/pwabridge/internal/compat"
	"github.com/example/pwabridge/internal/config"
	"github.com/example/pwabridge/internal/menu"
)

func statusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check whether the connector must be installed or updated",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := compatOptions()
			if err != nil {
				return err
			}

			status, err := compat.NewChecker(a.connector(), opts).Check(cmd.Context())
			if err != nil {
				return err
			}

			a.printf("%s\n", status)
			if status != compat.StatusOK {
				a.printf("Download: %s\n", menu.ReleaseURL(version))
			}
			return nil
		},
	}
}

// compatOptions reads the version check override from the settings store.
func compatOptions() (compat.Options, error) {
	settings, err := config.Load(config.Passphrase())
	if err != nil {
		return compat.Options{}, err
	}
	return compat.Options{
		ExtensionVersion:     version,
		VersionCheckDisabled: settings.Bool(config.NativeVersionCheckDisabled),
	}, nil
}

func sitesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sites",
		Short: "List installed web apps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sites, err := a.connector().Sites(cmd.Context())
			if err != nil {
				return err
			}
			if len(sites) == 0 {
				a.printf("No sites installed\n")
				return nil
			}

			a.printf("%-26s %-26s %-24s %s\n", "ULID", "Profile", "Name", "Start URL")
			for _, site := range sites {
				a.printf("%-26s %-26s %-24s %s\n", site.ULID, site.Profile, truncate(site.DisplayName(), 24), site.StartURL())
			}
			return nil
		},
	}
}

func profilesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List browser profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			profiles, err := a.connector().Profiles(cmd.Context())
			if err != nil {
				return err
			}

			a.printf("%-26s %-24s %s\n", "ULID", "Name", "Sites")
			for _, profile := range profiles {
				a.printf("%-26s %-24s %d\n", profile.ULID, truncate(profile.DisplayName(), 24), len(profile.Sites))
			}
			return nil
		},
	}
}

func launchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "launch <site-ulid>",
		Short: "Launch an installed web app",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.connector().LaunchSite(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.printf("Launched %s\n", args[0])
			return nil
		},
	}
}
