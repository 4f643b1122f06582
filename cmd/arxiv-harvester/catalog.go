// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pdiddy/arxiv-harvester/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List harvested papers recorded in the catalog",
	RunE:  runCatalog,
}

func init() {
	catalogCmd.Flags().String("out", "papers", "output directory holding the catalog")

	rootCmd.AddCommand(catalogCmd)
}

func runCatalog(cmd *cobra.Command, args []string) error {
	outDir, _ := cmd.Flags().GetString("out")

	store, err := catalog.Open(outDir)
	if err != nil {
		return fmt.Errorf("opening catalog: %w", err)
	}
	defer store.Close()

	entries, err := store.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("catalog is empty")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tOUTCOME\tVERSIONS\tDOWNLOADED\tREFS\tVENUE\tTITLE")
	for _, e := range entries {
		title := e.Title
		if len(title) > 60 {
			title = title[:57] + "..."
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			e.PaperID, e.Outcome, e.VersionsFound, e.VersionsDownloaded,
			e.ReferenceCount, e.Venue, title)
	}
	return w.Flush()
}
