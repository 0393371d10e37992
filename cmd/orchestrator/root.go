package main

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cliConfig holds the global CLI configuration shared across subcommands.
type cliConfig struct {
	JSON    bool
	NoColor bool
	Verbose bool
	DBPath  string
}

var globalConfig = &cliConfig{}

var rootCmd = &cobra.Command{
	Use:   "orchestrator",
	Short: "Task orchestrator - status-workflow engine for hierarchical project/feature/task trees",
	Long: `orchestrator serves the manage_container, query_container, request_transition,
get_next_status, get_next_task, and get_blocked_tasks tools described by its
specification, backed by a SQLite-stored project/feature/task hierarchy and a
declarative, tag-selected status workflow.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if globalConfig.NoColor {
			pterm.DisableColor()
		}
		if globalConfig.Verbose {
			pterm.EnableDebugMessages()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&globalConfig.JSON, "json", false, "Output in JSON format (machine-readable)")
	rootCmd.PersistentFlags().BoolVar(&globalConfig.NoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&globalConfig.Verbose, "verbose", "v", false, "Enable verbose/debug output")
	rootCmd.PersistentFlags().StringVar(&globalConfig.DBPath, "db", "orchestrator.db", "SQLite database file path")

	if err := viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json")); err != nil {
		panic(err)
	}
	if err := viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db")); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(serveCmd, configCmd)
}
