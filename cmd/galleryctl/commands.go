package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/entry-gallery/server/internal/gallery"
	"github.com/entry-gallery/server/internal/snapshot"
)

func newImagesCmd() *cobra.Command {
	var excludeSuffixes []string

	cmd := &cobra.Command{
		Use:   "images <entry>",
		Short: "List the categorized image catalog of an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entryID := args[0]

			desc, err := newServiceClient().EntryDescription(cmd.Context(), entryID)
			if err != nil {
				return err
			}
			images := gallery.ExcludeSuffixes(gallery.BuildCatalog(desc), excludeSuffixes)

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CATEGORY\tFILENAME\tTITLE")
			for _, img := range images {
				fmt.Fprintf(w, "%s\t%s\t%s\n", img.Category, img.Filename, img.SimpleTitle)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Printf("\n%d image(s)\n", len(images))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&excludeSuffixes, "exclude-suffix",
		gallery.DefaultExcludedSuffixes, "Drop images whose filename ends with any of these suffixes")
	return cmd
}

func newSnapshotCmd() *cobra.Command {
	var (
		output         string
		keepCamera     bool
		keepBackground bool
	)

	cmd := &cobra.Command{
		Use:   "snapshot <name>",
		Short: "Fetch and sanitize a snapshot document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			text, err := newServiceClient().SnapshotText(cmd.Context(), name)
			if err != nil {
				return err
			}
			sanitized, err := snapshot.Sanitize(text, snapshot.SanitizeOptions{
				RemoveBackground: !keepBackground,
				RemoveCamera:     !keepCamera,
			})
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err = os.Stdout.Write(sanitized)
				return err
			}
			if err := os.WriteFile(output, sanitized, 0644); err != nil {
				return err
			}
			fmt.Printf("Wrote %s (%d bytes)\n", output, len(sanitized))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to file instead of stdout")
	cmd.Flags().BoolVar(&keepCamera, "keep-camera", false, "Retain the camera field")
	cmd.Flags().BoolVar(&keepBackground, "keep-background", false, "Retain the background (canvas3d) field")
	return cmd
}

func newExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <name>",
		Short: "Package a snapshot document into a scene archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if output == "" {
				output = name + ".molx"
			}

			text, err := newServiceClient().SnapshotText(cmd.Context(), name)
			if err != nil {
				return err
			}

			f, err := os.Create(output)
			if err != nil {
				return err
			}
			defer f.Close()

			if err := snapshot.WriteArchive(f, name, text); err != nil {
				return err
			}
			fmt.Printf("Exported %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Archive path (default {name}.molx)")
	return cmd
}
