package blocking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpicklyk/task-orchestrator/internal/models"
	"github.com/jpicklyk/task-orchestrator/internal/repository"
)

func isTerminalTask(status string) bool {
	return status == "completed" || status == "cancelled"
}

func TestAnalyser_NewlyUnblocked_ReturnsDownstreamWhenAllBlockersTerminal(t *testing.T) {
	repo := repository.NewMemory()
	blocker := repo.Tasks().Create(models.Task{Title: "Blocker", Status: "completed"}).Value()
	downstream := repo.Tasks().Create(models.Task{Title: "Downstream", Status: "pending"}).Value()
	repo.Dependencies().Create(models.Dependency{FromTaskID: blocker.ID, ToTaskID: downstream.ID, Type: models.DependencyBlocks})

	a := New(repo, nil)
	out := a.NewlyUnblocked(blocker.ID, isTerminalTask)
	require.Len(t, out, 1)
	assert.Equal(t, downstream.ID, out[0].TaskID)
}

func TestAnalyser_NewlyUnblocked_SkipsDownstreamWithRemainingBlocker(t *testing.T) {
	repo := repository.NewMemory()
	blockerA := repo.Tasks().Create(models.Task{Title: "A", Status: "completed"}).Value()
	blockerB := repo.Tasks().Create(models.Task{Title: "B", Status: "in-progress"}).Value()
	downstream := repo.Tasks().Create(models.Task{Title: "C", Status: "pending"}).Value()
	repo.Dependencies().Create(models.Dependency{FromTaskID: blockerA.ID, ToTaskID: downstream.ID, Type: models.DependencyBlocks})
	repo.Dependencies().Create(models.Dependency{FromTaskID: blockerB.ID, ToTaskID: downstream.ID, Type: models.DependencyBlocks})

	a := New(repo, nil)
	out := a.NewlyUnblocked(blockerA.ID, isTerminalTask)
	assert.Empty(t, out)
}

func TestAnalyser_NewlyUnblocked_IgnoresNonBlockingEdges(t *testing.T) {
	repo := repository.NewMemory()
	t1 := repo.Tasks().Create(models.Task{Title: "A", Status: "completed"}).Value()
	t2 := repo.Tasks().Create(models.Task{Title: "B", Status: "pending"}).Value()
	repo.Dependencies().Create(models.Dependency{FromTaskID: t1.ID, ToTaskID: t2.ID, Type: models.DependencyRelatesTo})

	a := New(repo, nil)
	out := a.NewlyUnblocked(t1.ID, isTerminalTask)
	assert.Empty(t, out)
}

func TestAnalyser_IsBlocked_TrueWhenInboundSourceNotTerminal(t *testing.T) {
	repo := repository.NewMemory()
	blocker := repo.Tasks().Create(models.Task{Title: "Blocker", Status: "pending"}).Value()
	downstream := repo.Tasks().Create(models.Task{Title: "Downstream", Status: "pending"}).Value()
	repo.Dependencies().Create(models.Dependency{FromTaskID: blocker.ID, ToTaskID: downstream.ID, Type: models.DependencyBlocks})

	a := New(repo, nil)
	assert.True(t, a.IsBlocked(downstream.ID))
}

func TestAnalyser_IsBlocked_TrueForIsBlockedByEdgeStoredFromDownstream(t *testing.T) {
	repo := repository.NewMemory()
	blocker := repo.Tasks().Create(models.Task{Title: "Blocker", Status: "in-progress"}).Value()
	downstream := repo.Tasks().Create(models.Task{Title: "Downstream", Status: "pending"}).Value()
	repo.Dependencies().Create(models.Dependency{FromTaskID: downstream.ID, ToTaskID: blocker.ID, Type: models.DependencyIsBlockedBy})

	a := New(repo, nil)
	assert.True(t, a.IsBlocked(downstream.ID))
}

func TestAnalyser_NewlyUnblocked_ResolvesIsBlockedByEdgeOnCompletion(t *testing.T) {
	repo := repository.NewMemory()
	blocker := repo.Tasks().Create(models.Task{Title: "Blocker", Status: "in-progress"}).Value()
	downstream := repo.Tasks().Create(models.Task{Title: "Downstream", Status: "pending"}).Value()
	repo.Dependencies().Create(models.Dependency{FromTaskID: downstream.ID, ToTaskID: blocker.ID, Type: models.DependencyIsBlockedBy})

	a := New(repo, nil)
	assert.True(t, a.IsBlocked(downstream.ID))

	completed := blocker
	completed.Status = "completed"
	repo.Tasks().Update(completed)

	assert.False(t, a.IsBlocked(downstream.ID))
	out := a.NewlyUnblocked(blocker.ID, isTerminalTask)
	require.Len(t, out, 1)
	assert.Equal(t, downstream.ID, out[0].TaskID)
}

func TestAnalyser_IsBlocked_FalseWhenNoInboundEdges(t *testing.T) {
	repo := repository.NewMemory()
	solo := repo.Tasks().Create(models.Task{Title: "Solo", Status: "pending"}).Value()

	a := New(repo, nil)
	assert.False(t, a.IsBlocked(solo.ID))
}

func TestAnalyser_BlockedTasks_ReturnsOnlyBlockedSubset(t *testing.T) {
	repo := repository.NewMemory()
	blocker := repo.Tasks().Create(models.Task{Title: "Blocker", Status: "pending"}).Value()
	blocked := repo.Tasks().Create(models.Task{Title: "Blocked", Status: "pending"}).Value()
	repo.Tasks().Create(models.Task{Title: "Free", Status: "pending"})
	repo.Dependencies().Create(models.Dependency{FromTaskID: blocker.ID, ToTaskID: blocked.ID, Type: models.DependencyBlocks})

	a := New(repo, nil)
	out := a.BlockedTasks(repository.Filters{})
	require.Len(t, out, 1)
	assert.Equal(t, blocked.ID, out[0].ID)
}

func TestAnalyser_NextTasks_ExcludesBlockedAndOrdersByPriorityThenComplexity(t *testing.T) {
	repo := repository.NewMemory()
	blocker := repo.Tasks().Create(models.Task{Title: "Blocker", Status: "pending"}).Value()
	blocked := repo.Tasks().Create(models.Task{Title: "Blocked", Status: "pending", Priority: models.PriorityHigh}).Value()
	repo.Dependencies().Create(models.Dependency{FromTaskID: blocker.ID, ToTaskID: blocked.ID, Type: models.DependencyBlocks})

	low := repo.Tasks().Create(models.Task{Title: "Low", Status: "pending", Priority: models.PriorityLow, Complexity: 2}).Value()
	high := repo.Tasks().Create(models.Task{Title: "High", Status: "pending", Priority: models.PriorityHigh, Complexity: 5}).Value()
	highSimple := repo.Tasks().Create(models.Task{Title: "HighSimple", Status: "pending", Priority: models.PriorityHigh, Complexity: 1}).Value()

	a := New(repo, nil)
	out := a.NextTasks("", "", 0)

	ids := make([]string, len(out))
	for i, t := range out {
		ids[i] = t.ID
	}
	assert.NotContains(t, ids, blocked.ID)
	require.Len(t, ids, 3)
	assert.Equal(t, highSimple.ID, ids[0])
	assert.Equal(t, high.ID, ids[1])
	assert.Equal(t, low.ID, ids[2])
}

func TestAnalyser_NextTasks_RespectsLimitAndScoping(t *testing.T) {
	repo := repository.NewMemory()
	feature := repo.Features().Create(models.Feature{Name: "F"}).Value()
	repo.Tasks().Create(models.Task{Title: "In", Status: "pending", FeatureID: feature.ID})
	repo.Tasks().Create(models.Task{Title: "Out", Status: "pending"})

	a := New(repo, nil)
	out := a.NextTasks("", feature.ID, 1)
	require.Len(t, out, 1)
	assert.Equal(t, "In", out[0].Title)
}
