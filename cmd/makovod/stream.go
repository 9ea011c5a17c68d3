package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	streamCmd := &cobra.Command{
		Use:   "stream <episode-id>",
		Short: "Resolve an episode to a playable stream URL",
		Long:  "Resolves an episode id (as printed by 'makovod show') to a playable HLS URL.",
		Args:  cobra.ExactArgs(1),
		RunE:  runStream,
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Check server health",
		Args:  cobra.NoArgs,
		RunE:  runStatus,
	}

	rootCmd.AddCommand(streamCmd, statusCmd)
}

func runStream(cmd *cobra.Command, args []string) error {
	resp, err := NewClient(serverURL).Stream(args[0])
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(resp)
		return nil
	}

	fmt.Println(resp.URL)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	resp, err := NewClient(serverURL).Health()
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(resp)
		return nil
	}

	fmt.Printf("Server:  %s (%s)\n", serverURL, resp.Status)
	return nil
}
