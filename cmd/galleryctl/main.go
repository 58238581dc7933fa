// Package main implements galleryctl, a CLI for inspecting entry image
// catalogs and fetching snapshot documents from the remote image service.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/entry-gallery/server/internal/fetch"
)

var (
	serverBase     string
	timeoutSeconds int
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "galleryctl",
		Short: "Inspect entry image catalogs and snapshot documents",
		Long: `galleryctl talks to the remote image service directly: it lists the
categorized image catalog of an entry and fetches, sanitizes or packages
named snapshot documents.`,
	}

	rootCmd.PersistentFlags().StringVarP(&serverBase, "server", "s",
		"https://www.ebi.ac.uk/pdbe/entry-files/snapshots", "Remote image service base URL")
	rootCmd.PersistentFlags().IntVar(&timeoutSeconds, "timeout", 30, "Request timeout in seconds")

	rootCmd.AddCommand(newImagesCmd())
	rootCmd.AddCommand(newSnapshotCmd())
	rootCmd.AddCommand(newExportCmd())

	return rootCmd
}

func newServiceClient() *fetch.Client {
	return fetch.NewClient(serverBase, time.Duration(timeoutSeconds)*time.Second)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
