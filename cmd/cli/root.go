package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serverURL string
	hookID    string
)

var rootCmd = &cobra.Command{
	Use:   "warden-cli",
	Short: "warden-cli is the command-line interface for constraint-warden.",
	Long:  `A CLI for inspecting a running constraint-warden service: watch a commit until its verification finishes, or dump the dispatcher's queue and history.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:8080", "Base URL of the constraint-warden server")
	rootCmd.PersistentFlags().StringVar(&hookID, "hook", "ConstraintCheckerHook", "Hook identifier the routes are rooted at")

	for flagName, key := range map[string]string{"server": "SERVER_URL", "hook": "HOOK_ID"} {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flagName)); err != nil {
			slog.Error("Error binding flag", "flag", flagName, "error", err)
			os.Exit(1)
		}
	}
}

// initConfig reads in ENV variables if set.
func initConfig() {
	viper.SetEnvPrefix("CW")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}
