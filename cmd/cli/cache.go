package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the analysis cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the cached analysis for the current bundle",
	RunE:  runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	// The fingerprint depends on the collected health counters, so the
	// bundle has to be loaded before its entry can be addressed.
	progress := startProgress("Collecting bundle context...")
	result, err := app.load(cmd.Context())
	progress.Stop()
	if err != nil {
		return err
	}

	if err := app.session.ClearCache(); err != nil {
		return err
	}

	if jsonOut {
		return printJSON(map[string]any{"cleared": true, "fingerprint": result.Fingerprint})
	}

	fmt.Printf("Cleared cached analysis %s\n", result.Fingerprint)
	return nil
}
