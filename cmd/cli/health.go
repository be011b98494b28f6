package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bundlescope/bundlescope/internal/formatter"
)

const healthProbeTimeout = 3 * time.Second

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe the analysis provider, exits 1 when offline",
	RunE:  runHealth,
}

func runHealth(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), healthProbeTimeout)
	defer cancel()

	if err := app.client.Health(ctx); err != nil {
		if jsonOut {
			printJSON(map[string]string{"agent": "offline", "error": err.Error()})
		}
		return fmt.Errorf("agent offline: %w", err)
	}

	if jsonOut {
		return printJSON(map[string]string{"agent": "online"})
	}

	if noColor {
		formatter.DisableColors()
	}
	fmt.Println(formatter.Success("✓ agent online"))
	return nil
}
