package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/pwabridge/internal/config"
)

func settingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read and change local settings",
		Long: fmt.Sprintf(`Read and change local settings.

Set %s to true to skip the connector version comparison.
Set PWABRIDGE_SETTINGS_KEY to keep the settings file encrypted.`, config.NativeVersionCheckDisabled),
	}

	cmd.AddCommand(
		settingsListCmd(a),
		settingsGetCmd(a),
		settingsSetCmd(a),
		settingsUnsetCmd(a),
	)

	return cmd
}

func settingsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load(config.Passphrase())
			if err != nil {
				return err
			}
			for _, key := range settings.Keys() {
				raw, _ := settings.Get(key)
				a.printf("%s=%s\n", key, raw)
			}
			return nil
		},
	}
}

func settingsGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print a setting as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load(config.Passphrase())
			if err != nil {
				return err
			}
			raw, ok := settings.Get(args[0])
			if !ok {
				return fmt.Errorf("setting %s is not set", args[0])
			}
			a.printf("%s\n", raw)
			return nil
		},
	}
}

func settingsSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a setting",
		Long: `Store a setting. Values that parse as JSON are stored as is, anything
else is stored as a string.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			passphrase := config.Passphrase()
			settings, err := config.Load(passphrase)
			if err != nil {
				return err
			}

			var value any = args[1]
			if json.Valid([]byte(args[1])) {
				value = json.RawMessage(args[1])
			}
			if err := settings.Set(args[0], value); err != nil {
				return err
			}
			if err := config.Save(settings, passphrase); err != nil {
				return err
			}

			raw, _ := settings.Get(args[0])
			a.printf("%s=%s\n", args[0], raw)
			return nil
		},
	}
}

func settingsUnsetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "unset <key>",
		Short: "Remove a setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			passphrase := config.Passphrase()
			settings, err := config.Load(passphrase)
			if err != nil {
				return err
			}
			settings.Delete(args[0])
			if err := config.Save(settings, passphrase); err != nil {
				return err
			}
			a.printf("Removed %s\n", args[0])
			return nil
		},
	}
}
