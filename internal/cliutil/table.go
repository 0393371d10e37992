// Package cliutil holds the CLI's human-readable rendering helpers: pterm
// table output and terminal width detection for deciding when to fall
// back to a narrower layout.
package cliutil

import (
	"os"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"golang.org/x/term"

	"github.com/jpicklyk/task-orchestrator/internal/models"
	"github.com/jpicklyk/task-orchestrator/internal/repository"
)

// TerminalWidth returns the current terminal's column width, or a
// conservative default of 80 when stdout is not a terminal (piped
// output, CI logs).
func TerminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 80
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// RenderProjects prints a table of projects, as shark's `epic list`/
// `feature list` commands render theirs.
func RenderProjects(projects []models.Project) {
	if len(projects) == 0 {
		pterm.Info.Println("No projects found")
		return
	}
	rows := pterm.TableData{{"ID", "NAME", "STATUS", "TAGS"}}
	for _, p := range projects {
		rows = append(rows, []string{p.ID, p.Name, p.Status, joinTags(p.Tags)})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

// RenderFeatures prints a table of features.
func RenderFeatures(features []models.Feature) {
	if len(features) == 0 {
		pterm.Info.Println("No features found")
		return
	}
	rows := pterm.TableData{{"ID", "NAME", "STATUS", "PRIORITY", "TAGS"}}
	for _, f := range features {
		rows = append(rows, []string{f.ID, f.Name, f.Status, string(f.Priority), joinTags(f.Tags)})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

// RenderTasks prints a table of tasks.
func RenderTasks(tasks []models.Task) {
	if len(tasks) == 0 {
		pterm.Info.Println("No tasks found")
		return
	}
	rows := pterm.TableData{{"ID", "TITLE", "STATUS", "PRIORITY", "COMPLEXITY", "TAGS"}}
	for _, t := range tasks {
		rows = append(rows, []string{t.ID, t.Title, t.Status, string(t.Priority), strconv.Itoa(t.Complexity), joinTags(t.Tags)})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

// RenderTaskCounts prints a feature's per-status task breakdown.
func RenderTaskCounts(counts repository.TaskCounts) {
	rows := pterm.TableData{
		{"STATUS", "COUNT"},
		{"pending", strconv.Itoa(counts.Pending)},
		{"in-progress", strconv.Itoa(counts.InProgress)},
		{"testing", strconv.Itoa(counts.Testing)},
		{"blocked", strconv.Itoa(counts.Blocked)},
		{"completed", strconv.Itoa(counts.Completed)},
		{"cancelled", strconv.Itoa(counts.Cancelled)},
		{"total", strconv.Itoa(counts.Total)},
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func joinTags(tags models.Tags) string {
	return strings.Join(tags, ", ")
}

