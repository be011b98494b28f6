package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bundlescope/bundlescope/internal/llm"
)

var chatCmd = &cobra.Command{
	Use:   "chat <question>",
	Short: "Ask a one-shot question about the bundle",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	question := strings.Join(args, " ")

	progress := startProgress("Collecting bundle context...")
	_, err = app.load(ctx)
	progress.Stop()
	if err != nil {
		return err
	}

	// Stream when the provider supports it; streamed turns are one-shot
	// and bypass the persisted conversation.
	if streamer, ok := app.client.(llm.Streamer); ok && !jsonOut {
		system := llm.QuestionSystemPrompt(app.session.Digest())
		err := streamer.Stream(ctx, question, system, func(chunk string) {
			fmt.Print(chunk)
		})
		if err != nil {
			return err
		}
		fmt.Println()
		return nil
	}

	answer, err := app.session.Ask(ctx, question)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(map[string]any{
			"question": question,
			"answer":   answer,
			"messages": app.session.History(),
		})
	}

	fmt.Println(answer)
	return nil
}
