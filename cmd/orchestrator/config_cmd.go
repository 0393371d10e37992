package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jpicklyk/task-orchestrator/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the effective workflow configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration (file overrides merged onto built-in defaults)",
	RunE: func(cmd *cobra.Command, args []string) error {
		loader := config.NewLoader(log.New(os.Stderr, "orchestrator: ", log.LstdFlags))
		cfg := loader.Load()

		if globalConfig.JSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(cfg)
		}

		out, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("rendering configuration: %w", err)
		}
		source := cfg.Source
		if source == "" {
			source = "built-in defaults (no config.yaml found)"
		}
		pterm.DefaultSection.Printf("Effective configuration (source: %s)", source)
		fmt.Println(string(out))
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load the configuration and report whether it parsed cleanly",
	RunE: func(cmd *cobra.Command, args []string) error {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("determining working directory: %w", err)
		}
		path := wd + "/" + config.ConfigDirName + "/" + config.ConfigFileName
		if _, err := os.Stat(path); os.IsNotExist(err) {
			pterm.Info.Printf("No configuration file at %s; built-in defaults are in effect\n", path)
			return nil
		}

		loader := config.NewLoader(log.New(os.Stderr, "orchestrator: ", log.LstdFlags))
		cfg := loader.Load()
		if cfg.Source == config.Default().Source {
			pterm.Warning.Printf("%s exists but could not be parsed; falling back to built-in defaults (see stderr log for details)\n", path)
			return nil
		}
		pterm.Success.Printf("%s parsed successfully\n", path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configValidateCmd)
}
