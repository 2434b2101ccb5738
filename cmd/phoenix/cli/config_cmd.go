package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tomislavmiksik/phoenix-be/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage Phoenix configuration",
		Long:  "Initialize a default configuration file or display the current effective configuration.",
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

// ---------- config init ----------

func newConfigInitCmd() *cobra.Command {
	var (
		force bool
		dir   string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default " + config.FileName + " configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Join(dir, config.FileName)
			if err := config.WriteDefault(path, force); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created %s\n", path)
			fmt.Fprintln(out, "Set auth.jwt_secret (or "+config.EnvPrefix+"_AUTH_JWT_SECRET) before running 'phoenix serve'.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing config file")
	cmd.Flags().StringVar(&dir, "dir", ".", "Directory to write the file to")

	return cmd
}

// ---------- config show ----------

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current effective configuration",
		Long:  "Print the configuration after merging defaults, the config file and environment overrides. Secrets are masked.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if used := viper.ConfigFileUsed(); used != "" {
				fmt.Fprintf(out, "# Config file: %s\n", used)
			} else {
				fmt.Fprintln(out, "# Config file: (none found, using defaults)")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			data, err := config.RedactedYAML(cfg)
			if err != nil {
				return err
			}
			_, err = out.Write(data)
			return err
		},
	}
}
