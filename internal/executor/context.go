package executor

import (
	"fmt"

	"github.com/jpicklyk/task-orchestrator/internal/config"
	"github.com/jpicklyk/task-orchestrator/internal/models"
	"github.com/jpicklyk/task-orchestrator/internal/repository"
	"github.com/jpicklyk/task-orchestrator/internal/workflow"
)

// repoContext adapts a repository.Repository (plus the active
// configuration, for role resolution) into a workflow.PrereqContext, so
// the validator package never depends on the repository package
// directly.
type repoContext struct {
	repo repository.Repository
	cfg  *config.Config
}

func newRepoContext(repo repository.Repository, cfg *config.Config) *repoContext {
	return &repoContext{repo: repo, cfg: cfg}
}

func (c *repoContext) FeatureChildTaskCount(featureID string) (int, error) {
	r := c.repo.Tasks().FindByFeature(featureID)
	if r.IsErr() {
		return 0, r.Err()
	}
	return len(r.Value()), nil
}

func (c *repoContext) FeatureChildTaskStatuses(featureID string) ([]string, error) {
	r := c.repo.Tasks().FindByFeature(featureID)
	if r.IsErr() {
		return nil, r.Err()
	}
	out := make([]string, 0, len(r.Value()))
	for _, t := range r.Value() {
		out = append(out, t.Status)
	}
	return out, nil
}

func (c *repoContext) ProjectChildFeatureStatuses(projectID string) ([]string, error) {
	r := c.repo.Features().FindByProject(projectID)
	if r.IsErr() {
		return nil, r.Err()
	}
	out := make([]string, 0, len(r.Value()))
	for _, f := range r.Value() {
		out = append(out, f.Status)
	}
	return out, nil
}

func (c *repoContext) TaskSummary(taskID string) (string, error) {
	r := c.repo.Tasks().GetByID(taskID)
	if r.IsErr() {
		return "", r.Err()
	}
	return r.Value().Summary, nil
}

// TaskInboundBlockers resolves both edge orientations to the same
// blocker identity: a BLOCKS edge stores the blocker as FromTaskID and
// taskID as ToTaskID, while an IS_BLOCKED_BY edge stores taskID as
// FromTaskID and the blocker as ToTaskID.
func (c *repoContext) TaskInboundBlockers(taskID string) ([]workflow.BlockingSource, error) {
	asTarget := c.repo.Dependencies().FindByToTaskID(taskID)
	if asTarget.IsErr() {
		return nil, asTarget.Err()
	}
	asSource := c.repo.Dependencies().FindByFromTaskID(taskID)
	if asSource.IsErr() {
		return nil, asSource.Err()
	}

	type blockerEdge struct {
		blockerID string
		unblockAt string
	}
	edges := make([]blockerEdge, 0)
	for _, d := range asTarget.Value() {
		if d.Type == models.DependencyBlocks {
			edges = append(edges, blockerEdge{blockerID: d.FromTaskID, unblockAt: d.UnblockAt})
		}
	}
	for _, d := range asSource.Value() {
		if d.Type == models.DependencyIsBlockedBy {
			edges = append(edges, blockerEdge{blockerID: d.ToTaskID, unblockAt: d.UnblockAt})
		}
	}

	out := make([]workflow.BlockingSource, 0, len(edges))
	for _, e := range edges {
		srcResult := c.repo.Tasks().GetByID(e.blockerID)
		src := workflow.BlockingSource{
			TaskID:    e.blockerID,
			UnblockAt: e.unblockAt,
		}
		if srcResult.IsErr() {
			src.Title = fmt.Sprintf("unknown task %s", e.blockerID)
		} else {
			t := srcResult.Value()
			src.Title = t.Title
			src.Status = t.Status
			if role, ok := c.cfg.RoleOf("task", t.Status); ok {
				src.Role = role
			}
		}
		out = append(out, src)
	}
	return out, nil
}
