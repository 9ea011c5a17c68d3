package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	showCmd := &cobra.Command{
		Use:   "show <show-url>",
		Short: "Show metadata and episode list",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}

	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	resp, err := NewClient(serverURL).Show(args[0])
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(resp)
		return nil
	}

	fmt.Printf("Name:        %s\n", resp.Meta.Name)
	if resp.Meta.Seasons > 0 {
		fmt.Printf("Seasons:     %d\n", resp.Meta.Seasons)
	}
	if resp.Meta.Description != "" {
		fmt.Printf("Description: %s\n", resp.Meta.Description)
	}

	if len(resp.Episodes) == 0 {
		fmt.Println("\nNo episodes.")
		return nil
	}

	fmt.Println()
	for _, ep := range resp.Episodes {
		fmt.Printf("S%02dE%02d  %s\n        %s\n", ep.Season, ep.Episode, ep.Name, ep.ID)
	}
	return nil
}
