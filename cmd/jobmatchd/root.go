package main

import (
	"github.com/spf13/cobra"
)

const app = "jobmatchd"

var (
	// Used for flags.
	flagEnv      string
	flagLogLevel string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jobmatchd matches candidate profiles against a job offer corpus by embedding similarity",
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagEnv, "env", "",
		"environment name selecting config/<env>.yaml (default from ENV, then \"local\")")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "",
		"log level override: debug, info, warn, error")
}
