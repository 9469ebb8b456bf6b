package main

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/pwabridge/internal/ipc"
	"github.com/example/pwabridge/internal/logging"
	"github.com/example/pwabridge/internal/native"
)

// Version information set at build time.
var (
	version = "2.12.1"
	commit  = "none"
	date    = "unknown"
)

// app carries the dependencies shared by all subcommands.
type app struct {
	connectorPath string
	debug         bool

	out          io.Writer
	httpClient   *http.Client
	newTransport func(host ipc.Host) ipc.Transport
}

func newApp(out io.Writer) *app {
	return &app{
		out:        out,
		httpClient: http.DefaultClient,
		newTransport: func(host ipc.Host) ipc.Transport {
			return ipc.NewProcessTransport(host)
		},
	}
}

func main() {
	log.SetFlags(0)
	log.SetOutput(os.Stderr)

	if err := newRootCmd(newApp(os.Stdout)).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pwabridge",
		Short: "Talk to the PWAsForFirefox native connector",
		Long: `pwabridge checks the native connector install state, lists and launches
installed web apps, and resolves web app manifests and icons.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if a.debug {
				logging.EnableDebug()
			}
		},
	}
	rootCmd.SetOut(a.out)

	rootCmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "Log native messages and HTTP traffic to stderr")
	rootCmd.PersistentFlags().StringVar(&a.connectorPath, "connector", "", "Path to the connector executable")

	rootCmd.AddCommand(
		statusCmd(a),
		sitesCmd(a),
		profilesCmd(a),
		launchCmd(a),
		manifestCmd(a),
		discoverCmd(a),
		iconCmd(a),
		settingsCmd(a),
		trayCmd(a),
		versionCmd(a),
	)

	return rootCmd
}

// connector builds a native client for the configured connector.
func (a *app) connector() *native.Connector {
	host := ipc.DefaultHost()
	if path := strings.TrimSpace(a.connectorPath); path != "" {
		host = ipc.Host{Path: path}
	}
	logging.Debugf("using connector %s", host)
	return native.New(a.newTransport(host))
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	if max <= 3 {
		return value[:max]
	}
	return value[:max-3] + "..."
}
