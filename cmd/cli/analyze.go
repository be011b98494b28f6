package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bundlescope/bundlescope/internal/formatter"
)

var forceAnalyze bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze the bundle and print root causes and recommendations",
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&forceAnalyze, "force", false, "Discard any cached analysis and run fresh")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()

	progress := startProgress("Collecting bundle context...")
	result, err := app.load(ctx)
	if err != nil {
		progress.Stop()
		return err
	}

	if result.Cached && !forceAnalyze {
		progress.Update("Restoring cached analysis...")
	} else {
		progress.Update("Analyzing cluster state...")
	}

	stored, err := app.session.Analyze(ctx, forceAnalyze)
	progress.Stop()
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(stored)
	}

	f := formatter.NewFormatter(!noColor)
	fmt.Println(f.FormatAnalysis(stored))
	return nil
}
