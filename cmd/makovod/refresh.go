package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	refreshCmd := &cobra.Command{
		Use:   "refresh <show-url>",
		Short: "Refresh a show's cached metadata now",
		Args:  cobra.ExactArgs(1),
		RunE:  runRefresh,
	}

	rootCmd.AddCommand(refreshCmd)
}

func runRefresh(cmd *cobra.Command, args []string) error {
	if err := NewClient(serverURL).Refresh(args[0]); err != nil {
		return err
	}
	fmt.Println("Refreshed.")
	return nil
}
