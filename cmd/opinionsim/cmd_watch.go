package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dd0wney/opinion-diffusion/pkg/events"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print events published by a running simulation",
		Long: `Subscribe to the events of a simulation started with --publish and print
them until the run stops.

Examples:
  opinionsim watch --addr tcp://127.0.0.1:40899`,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			timeout, _ := cmd.Flags().GetDuration("timeout")
			jsonOut, _ := cmd.Flags().GetBool("json")

			sub, err := events.NewSubscriber(addr)
			if err != nil {
				return err
			}
			defer sub.Close()

			w := cmd.OutOrStdout()
			for {
				ev, err := sub.Next(timeout)
				if errors.Is(err, events.ErrTimeout) {
					return fmt.Errorf("no events from %s within %s", addr, timeout)
				}
				if err != nil {
					return err
				}

				switch {
				case jsonOut && ev.Step != nil:
					json.NewEncoder(w).Encode(ev.Step)
				case jsonOut && ev.Stop != nil:
					json.NewEncoder(w).Encode(ev.Stop)
				case ev.Step != nil:
					fmt.Fprintf(w, "step %d: influenced %d, mean %.6f\n", ev.Step.Step, ev.Step.Influenced, ev.Step.Mean)
				case ev.Stop != nil:
					fmt.Fprintf(w, "run %s stopped by %s after %d steps\n", ev.Stop.RunID, ev.Stop.StopReason, ev.Stop.Steps)
				}

				if ev.Stop != nil {
					return nil
				}
			}
		},
	}

	cmd.Flags().String("addr", "tcp://127.0.0.1:40899", "Publisher address")
	cmd.Flags().Duration("timeout", time.Minute, "Give up after this long without events")

	return cmd
}
