package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/pwabridge/internal/compat"
	"github.com/example/pwabridge/internal/menu"
)

func trayCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tray",
		Short: "Run the system tray site launcher",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := compatOptions()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			connector := a.connector()
			runner := menu.NewRunner(connector, compat.NewChecker(connector, opts), menu.NewHTTPIconFetcher(a.httpClient))
			runner.InstallURL = menu.ReleaseURL(version)

			if err := runner.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}
