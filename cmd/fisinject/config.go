package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/muurk/fisinject/internal/config"
)

var initForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the defaults",
	Long: `Write the default configuration, with any --interface, --channel and
--bitrate overrides applied, to the config file.

An existing file is left alone unless --force is given.`,
	Example: `  fisinject config init --interface slcan --channel /dev/ttyACM0
  fisinject config init --config ./fisinject.yaml --force`,
	Annotations: map[string]string{
		skipConfig: "true",
	},
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long:  `Print the configuration after the file and command line flags are merged.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		_, err = os.Stdout.Write(data)
		return err
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		p, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	if config.Exists(path) && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	c := config.Default()
	applyBusFlags(cmd, c)
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := c.Save(path); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}
