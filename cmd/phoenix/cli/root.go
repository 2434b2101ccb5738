package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tomislavmiksik/phoenix-be/internal/config"
)

var (
	cfgFile    string
	appVersion string // set in Execute, reported by serve and the OpenAPI document
)

// Execute creates the root command tree and runs it.
func Execute(version, commit, date string) error {
	appVersion = version
	rootCmd := newRootCmd(version, commit, date)
	return rootCmd.Execute()
}

func newRootCmd(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phoenix",
		Short: "Body-measurement tracking API",
		Long: `Phoenix: a small REST backend for tracking body measurements.

Users register and log in for a session token, administrators issue API keys
for client applications, and every measurement is scoped to its owner.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./"+config.FileName+")")
	cmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory for the SQLite database and PID file (default: ~/.phoenix)")

	cobra.OnInitialize(initConfig)

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newStopCmd())
	cmd.AddCommand(newUserCmd())
	cmd.AddCommand(newKeyCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newOpenAPICmd())
	cmd.AddCommand(newMCPCmd())
	cmd.AddCommand(newVersionCmd(version, commit, date))

	return cmd
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("phoenix")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.phoenix")
	}

	config.SetDefaults(viper.GetViper())
	viper.ReadInConfig() // Ignore error - config file is optional
}
