package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sevigo/constraint-warden/pkg/poll"
)

var (
	watchInterval time.Duration
	watchTimeout  time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <owner> <project> <commitHash>",
	Short: "Polls a commit's verification status until it reaches a terminal state",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, project, commit := args[0], args[1], args[2]

		ctx := cmd.Context()
		if watchTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, watchTimeout)
			defer cancel()
		}

		client := &poll.Client{
			BaseURL:  serverURL,
			HookID:   hookID,
			Interval: watchInterval,
		}

		fmt.Printf("watching %s/%s@%s\n", owner, project, commit)

		state, err := client.Wait(ctx, owner, project, commit)
		if err != nil {
			return fmt.Errorf("polling failed: %w", err)
		}

		printBadge(state)
		return nil
	},
}

func printBadge(state poll.State) {
	switch state {
	case poll.StateClean:
		color.Green("✔ no constraint violations")
	case poll.StateViolation:
		color.Red("✘ constraint violations found")
	case poll.StateMetaInconsistent:
		color.Red("✘ the meta-model is inconsistent")
	case poll.StateUnavailable:
		color.Yellow("○ results unavailable")
	default:
		fmt.Println(state)
	}
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	watchCmd.Flags().DurationVar(&watchInterval, "interval", time.Second, "Polling interval")
	watchCmd.Flags().DurationVar(&watchTimeout, "timeout", 0, "Give up after this long (0 = wait forever)")
	rootCmd.AddCommand(watchCmd)
}
