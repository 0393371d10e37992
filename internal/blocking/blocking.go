// Package blocking implements the dependency analyser: given a task that
// has just reached a terminal status, it computes the set of downstream
// tasks whose blocking edges are now all satisfied, and it backs the
// get_next_task / get_blocked_tasks read-only helpers.
package blocking

import (
	"log"
	"sort"

	"github.com/jpicklyk/task-orchestrator/internal/models"
	"github.com/jpicklyk/task-orchestrator/internal/repository"
)

// Unblocked is one entry of the unblockedTasks list attached to a
// transition response.
type Unblocked struct {
	TaskID string
	Title  string
}

// Analyser computes blocking relationships over a Repository's
// dependency edges.
type Analyser struct {
	repo   repository.Repository
	logger *log.Logger
}

// New constructs an Analyser. A nil logger defaults to log.Default().
func New(repo repository.Repository, logger *log.Logger) *Analyser {
	if logger == nil {
		logger = log.Default()
	}
	return &Analyser{repo: repo, logger: logger}
}

// IsTerminalFunc resolves whether a task's status is terminal, supplied
// by the caller (the transition executor holds the loaded configuration;
// this package has no config dependency of its own).
type IsTerminalFunc func(status string) bool

// NewlyUnblocked computes U(A) for a task A that has just moved to a
// terminal status: every task B that A blocks (a BLOCKS edge A->B or an
// IS_BLOCKED_BY edge B->A), where B is not itself terminal and every one
// of B's inbound blocking edges now points at a terminal task.
//
// Lookup failures are handled: a blocking source task
// that cannot be found is treated as resolved (logged); an edge whose
// *target* cannot be found is simply skipped (there is no B to report).
func (a *Analyser) NewlyUnblocked(taskID string, isTerminal IsTerminalFunc) []Unblocked {
	outbound := a.repo.Dependencies().FindByFromTaskID(taskID)
	inboundAsTarget := a.repo.Dependencies().FindByToTaskID(taskID)

	candidateIDs := make(map[string]bool)
	if outbound.IsOk() {
		for _, d := range outbound.Value() {
			if d.Type == models.DependencyBlocks {
				candidateIDs[d.ToTaskID] = true
			}
		}
	}
	if inboundAsTarget.IsOk() {
		for _, d := range inboundAsTarget.Value() {
			if d.Type == models.DependencyIsBlockedBy {
				candidateIDs[d.FromTaskID] = true
			}
		}
	}

	out := make([]Unblocked, 0)
	ids := sortedKeys(candidateIDs)
	for _, bID := range ids {
		bResult := a.repo.Tasks().GetByID(bID)
		if bResult.IsErr() {
			a.logger.Printf("blocking: candidate task %s not found, skipping", bID)
			continue
		}
		b := bResult.Value()
		if isTerminal(b.Status) {
			continue
		}
		if a.allInboundBlockersTerminal(b.ID, isTerminal) {
			out = append(out, Unblocked{TaskID: b.ID, Title: b.Title})
		}
	}
	return out
}

// inboundBlockerIDs returns the distinct task IDs that block taskID,
// resolving both edge orientations to the same blocker identity: a
// BLOCKS edge stores the blocker as FromTaskID and taskID as ToTaskID,
// while an IS_BLOCKED_BY edge stores taskID as FromTaskID and the
// blocker as ToTaskID.
func (a *Analyser) inboundBlockerIDs(taskID string) ([]string, error) {
	asTarget := a.repo.Dependencies().FindByToTaskID(taskID)
	if asTarget.IsErr() {
		return nil, asTarget.Err()
	}
	asSource := a.repo.Dependencies().FindByFromTaskID(taskID)
	if asSource.IsErr() {
		return nil, asSource.Err()
	}

	seen := make(map[string]bool)
	out := make([]string, 0)
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, d := range asTarget.Value() {
		if d.Type == models.DependencyBlocks {
			add(d.FromTaskID)
		}
	}
	for _, d := range asSource.Value() {
		if d.Type == models.DependencyIsBlockedBy {
			add(d.ToTaskID)
		}
	}
	return out, nil
}

// allInboundBlockersTerminal reports whether every inbound blocking edge
// of taskID points at a terminal task. A blocker task that cannot be
// found is treated conservatively as still blocking.
func (a *Analyser) allInboundBlockersTerminal(taskID string, isTerminal IsTerminalFunc) bool {
	blockerIDs, err := a.inboundBlockerIDs(taskID)
	if err != nil {
		return false
	}
	for _, bID := range blockerIDs {
		srcResult := a.repo.Tasks().GetByID(bID)
		if srcResult.IsErr() {
			a.logger.Printf("blocking: blocker task %s of %s not found, treating as still blocking", bID, taskID)
			return false
		}
		if !isTerminal(srcResult.Value().Status) {
			return false
		}
	}
	return true
}

// IsBlocked reports whether taskID has any incomplete inbound blocking
// edge (used by get_next_task's exclusion rule and get_blocked_tasks).
// "Incomplete" here is a literal status-name check — a blocker task whose
// status is not completed or cancelled — which is stricter than the
// role-based unblockAt check the prerequisite validator uses for the
// in-progress prerequisite.
func (a *Analyser) IsBlocked(taskID string) bool {
	blockerIDs, err := a.inboundBlockerIDs(taskID)
	if err != nil {
		return false
	}
	for _, bID := range blockerIDs {
		srcResult := a.repo.Tasks().GetByID(bID)
		if srcResult.IsErr() {
			continue
		}
		status := srcResult.Value().Status
		if status != "completed" && status != "cancelled" {
			return true
		}
	}
	return false
}

// BlockedTasks returns every task in the repository (optionally scoped to
// a project/feature) that IsBlocked reports true for.
func (a *Analyser) BlockedTasks(filters repository.Filters) []models.Task {
	tasksResult := a.repo.Tasks().FindByFilters(filters)
	if tasksResult.IsErr() {
		return nil
	}
	out := make([]models.Task, 0)
	for _, t := range tasksResult.Value() {
		if a.IsBlocked(t.ID) {
			out = append(out, t)
		}
	}
	return out
}

// NextTasks implements get_next_task's selection: eligible tasks (not
// blocked) ordered by priority (HIGH < MEDIUM < LOW) then ascending
// complexity, scoped to an optional project/feature and bounded by
// limit.
func (a *Analyser) NextTasks(projectID, featureID string, limit int) []models.Task {
	var tasksResult = a.repo.Tasks().FindAll(0)
	if tasksResult.IsErr() {
		return nil
	}

	candidates := make([]models.Task, 0)
	for _, t := range tasksResult.Value() {
		if projectID != "" && t.ProjectID != projectID {
			continue
		}
		if featureID != "" && t.FeatureID != featureID {
			continue
		}
		if a.IsBlocked(t.ID) {
			continue
		}
		candidates = append(candidates, t)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		pi, pj := candidates[i].Priority.Rank(), candidates[j].Priority.Rank()
		if pi != pj {
			return pi < pj
		}
		return candidates[i].Complexity < candidates[j].Complexity
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
