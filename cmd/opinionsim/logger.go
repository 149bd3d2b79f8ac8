package main

import (
	"github.com/dd0wney/opinion-diffusion/pkg/logging"
	"github.com/spf13/cobra"
)

// newLogger builds the command logger from the global flags. Logs go to
// stderr so stdout stays clean for results.
func newLogger(cmd *cobra.Command) (logging.Logger, error) {
	levelName, _ := cmd.Flags().GetString("log-level")
	formatName, _ := cmd.Flags().GetString("log-format")

	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(formatName)
	if err != nil {
		return nil, err
	}
	return logging.NewLogger(cmd.ErrOrStderr(), level, format), nil
}
