// Package cleanup implements the completion cleanup pass:
// when a feature reaches a terminal status within a cascade, it optionally
// prunes completed/cancelled child tasks and their sections and
// dependency edges, per configuration policy.
package cleanup

import (
	"log"

	"github.com/jpicklyk/task-orchestrator/internal/models"
	"github.com/jpicklyk/task-orchestrator/internal/repository"
)

// Policy controls which terminal child tasks are pruned when their
// parent feature completes. The default retains completed
// tasks and deletes cancelled ones along with their sections and
// dependency edges.
type Policy struct {
	Enabled           bool
	DeleteCompleted   bool
	DeleteCancelled   bool
}

// DefaultPolicy is the default: "retain completed tasks,
// delete cancelled tasks and their sections/dependencies".
func DefaultPolicy() Policy {
	return Policy{
		Enabled:         true,
		DeleteCompleted: false,
		DeleteCancelled: true,
	}
}

// Summary is the result attached to an AppliedCascade record.
type Summary struct {
	Performed            bool
	TasksDeleted         int
	TasksRetained        int
	RetainedTaskIDs      []string
	SectionsDeleted      int
	DependenciesDeleted  int
	Reason               string
}

// Cleaner runs the completion cleanup pass against a Repository.
type Cleaner struct {
	repo   repository.Repository
	policy Policy
	logger *log.Logger
}

// New constructs a Cleaner. A nil logger defaults to log.Default().
func New(repo repository.Repository, policy Policy, logger *log.Logger) *Cleaner {
	if logger == nil {
		logger = log.Default()
	}
	return &Cleaner{repo: repo, policy: policy, logger: logger}
}

// Run prunes featureID's terminal child tasks per policy. Failures never
// unwind the cascade that triggered cleanup; they are
// logged and reported in the Summary's Reason field instead.
func (c *Cleaner) Run(featureID string) *Summary {
	if !c.policy.Enabled {
		return &Summary{Performed: false, Reason: "cleanup disabled by configuration"}
	}

	tasksResult := c.repo.Tasks().FindByFeature(featureID)
	if tasksResult.IsErr() {
		c.logger.Printf("cleanup: listing tasks for feature %s: %v", featureID, tasksResult.Err())
		return &Summary{Performed: false, Reason: "could not list child tasks: " + tasksResult.Err().Message}
	}

	summary := &Summary{Performed: true, RetainedTaskIDs: []string{}}

	for _, t := range tasksResult.Value() {
		switch t.Status {
		case "completed":
			if c.policy.DeleteCompleted {
				c.deleteTask(t, summary)
			} else {
				summary.TasksRetained++
				summary.RetainedTaskIDs = append(summary.RetainedTaskIDs, t.ID)
			}
		case "cancelled":
			if c.policy.DeleteCancelled {
				c.deleteTask(t, summary)
			} else {
				summary.TasksRetained++
				summary.RetainedTaskIDs = append(summary.RetainedTaskIDs, t.ID)
			}
		default:
			summary.TasksRetained++
			summary.RetainedTaskIDs = append(summary.RetainedTaskIDs, t.ID)
		}
	}

	return summary
}

func (c *Cleaner) deleteTask(t models.Task, summary *Summary) {
	sectionsResult := c.repo.Sections().DeleteForEntity(models.EntityTask, t.ID)
	if sectionsResult.IsOk() {
		summary.SectionsDeleted += sectionsResult.Value()
	} else {
		c.logger.Printf("cleanup: deleting sections for task %s: %v", t.ID, sectionsResult.Err())
	}

	depsResult := c.repo.Dependencies().DeleteByTaskID(t.ID)
	if depsResult.IsOk() {
		summary.DependenciesDeleted += depsResult.Value()
	} else {
		c.logger.Printf("cleanup: deleting dependencies for task %s: %v", t.ID, depsResult.Err())
	}

	deleteResult := c.repo.Tasks().Delete(t.ID, true)
	if deleteResult.IsErr() {
		c.logger.Printf("cleanup: deleting task %s: %v", t.ID, deleteResult.Err())
		summary.TasksRetained++
		summary.RetainedTaskIDs = append(summary.RetainedTaskIDs, t.ID)
		return
	}
	summary.TasksDeleted++
}
