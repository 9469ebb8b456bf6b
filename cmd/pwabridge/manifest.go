package main

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"github.com/example/pwabridge/internal/icons"
	"github.com/example/pwabridge/internal/manifest"
)

func manifestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "manifest <document-url> [manifest-url]",
		Short: "Fetch and validate a web app manifest",
		Long: `Fetch the manifest for a document and validate its start URL and scope.

When the manifest URL is omitted it is discovered from the document's
<link rel="manifest"> element.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.resolve(cmd.Context(), args)
			if err != nil {
				return err
			}

			encoded, err := json.MarshalIndent(m, "", "  ")
			if err != nil {
				return err
			}
			a.printf("%s\n", encoded)
			return nil
		},
	}
}

func discoverCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "discover <document-url>",
		Short: "Find the manifest URL linked from a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manifestURL, err := manifest.NewResolver(a.httpClient).Discover(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			a.printf("%s\n", manifestURL)
			return nil
		},
	}
}

func iconCmd(a *app) *cobra.Command {
	var (
		purpose string
		size    int
	)

	cmd := &cobra.Command{
		Use:   "icon <document-url> [manifest-url]",
		Short: "Select the best manifest icon for a size and purpose",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.resolve(cmd.Context(), args)
			if err != nil {
				return err
			}

			src, ok := icons.Select(m.Icons, purpose, size)
			if !ok {
				return errors.New("no icon matches the requested purpose")
			}
			a.printf("%s\n", src)
			return nil
		},
	}

	cmd.Flags().StringVar(&purpose, "purpose", manifest.PurposeAny, "Icon purpose: any, maskable or monochrome")
	cmd.Flags().IntVar(&size, "size", 32, "Minimum icon size in pixels")

	return cmd
}

// resolve resolves the manifest for args[0], discovering the manifest URL
// when args[1] is absent.
func (a *app) resolve(ctx context.Context, args []string) (*manifest.Manifest, error) {
	resolver := manifest.NewResolver(a.httpClient)
	documentURL := args[0]

	var manifestURL string
	if len(args) > 1 {
		manifestURL = args[1]
	} else {
		found, err := resolver.Discover(ctx, documentURL)
		if err != nil {
			return nil, err
		}
		manifestURL = found
	}

	return resolver.Resolve(ctx, manifestURL, documentURL)
}
