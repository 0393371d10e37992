package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/jpicklyk/task-orchestrator/internal/cliutil"
	"github.com/jpicklyk/task-orchestrator/internal/config"
	"github.com/jpicklyk/task-orchestrator/internal/dispatch"
	"github.com/jpicklyk/task-orchestrator/internal/models"
	"github.com/jpicklyk/task-orchestrator/internal/repository/sqlite"
)

var listProjectID string
var listFeatureID string

var listCmd = &cobra.Command{
	Use:   "list [projects|features|tasks]",
	Short: "List containers from the database as a table (or JSON with --json)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		containerType, err := singularContainerType(args[0])
		if err != nil {
			return err
		}

		store, err := sqlite.Open(globalConfig.DBPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer store.Close()

		d := dispatch.New(store, config.NewLoader(log.New(os.Stderr, "orchestrator: ", log.LstdFlags)), nil)
		params, _ := json.Marshal(map[string]any{
			"operation":     "list",
			"containerType": containerType,
			"projectId":     listProjectID,
			"featureId":     listFeatureID,
		})
		env := d.Call("query_container", params)
		if !env.Success {
			return fmt.Errorf("%s: %s", env.Error.Code, env.Error.Details)
		}

		if globalConfig.JSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(env.Data)
		}

		renderList(containerType, env.Data)
		return nil
	},
}

func singularContainerType(arg string) (string, error) {
	switch arg {
	case "project", "projects":
		return "project", nil
	case "feature", "features":
		return "feature", nil
	case "task", "tasks":
		return "task", nil
	default:
		return "", fmt.Errorf("unknown container type %q: expected projects, features, or tasks", arg)
	}
}

// renderList re-marshals the dispatcher's generic Data payload into the
// typed slice cliutil expects; the dispatcher deals in `any` so it stays
// decoupled from the CLI's rendering concerns.
func renderList(containerType string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		pterm.Error.Println(err)
		return
	}
	switch containerType {
	case "project":
		var projects []models.Project
		_ = json.Unmarshal(raw, &projects)
		cliutil.RenderProjects(projects)
	case "feature":
		var features []models.Feature
		_ = json.Unmarshal(raw, &features)
		cliutil.RenderFeatures(features)
	case "task":
		var tasks []models.Task
		_ = json.Unmarshal(raw, &tasks)
		cliutil.RenderTasks(tasks)
	}
}

func init() {
	listCmd.Flags().StringVar(&listProjectID, "project", "", "Filter by project ID")
	listCmd.Flags().StringVar(&listFeatureID, "feature", "", "Filter by feature ID (tasks only)")
	rootCmd.AddCommand(listCmd)
}
