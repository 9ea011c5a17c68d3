package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	catalogCmd := &cobra.Command{
		Use:   "catalog [query]",
		Short: "List shows in the catalog",
		Long:  "Lists the cached show catalog, optionally filtered by a search query.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCatalog,
	}

	rootCmd.AddCommand(catalogCmd)
}

func runCatalog(cmd *cobra.Command, args []string) error {
	search := ""
	if len(args) > 0 {
		search = args[0]
	}

	resp, err := NewClient(serverURL).Catalog(search)
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(resp)
		return nil
	}

	if len(resp.Metas) == 0 {
		fmt.Println("No shows found.")
		return nil
	}

	for _, m := range resp.Metas {
		fmt.Printf("%s\n  %s\n", m.Name, m.ID)
	}
	fmt.Printf("\n%d shows\n", len(resp.Metas))
	return nil
}
