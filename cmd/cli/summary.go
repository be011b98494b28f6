package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bundlescope/bundlescope/internal/formatter"
	"github.com/bundlescope/bundlescope/internal/session"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Collect the bundle and print its digest",
	RunE:  runSummary,
}

func runSummary(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	progress := startProgress("Collecting bundle context...")
	result, err := app.load(cmd.Context())
	progress.Stop()
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(struct {
			*session.LoadResult
			Digest string `json:"digest"`
		}{result, app.session.Digest()})
	}

	f := formatter.NewFormatter(!noColor)
	fmt.Println(f.RenderDigest(app.session.Digest()))
	return nil
}
