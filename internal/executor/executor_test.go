package executor

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpicklyk/task-orchestrator/internal/config"
	"github.com/jpicklyk/task-orchestrator/internal/models"
	"github.com/jpicklyk/task-orchestrator/internal/repository"
)

func longSummary() string {
	return fmt.Sprintf("%0350d", 0)
}

func newTestExecutor(repo repository.Repository) *Executor {
	loader := config.NewLoader(nil)
	return New(repo, loader, nil)
}

func TestExecutor_RequestTransition_NoTransitionNeededWhenAlreadyAtTarget(t *testing.T) {
	repo := repository.NewMemory()
	task := repo.Tasks().Create(models.Task{Title: "T", Status: "cancelled"}).Value()

	e := newTestExecutor(repo)
	resp := e.RequestTransition(TransitionRequest{ContainerID: task.ID, ContainerType: "task", Trigger: TriggerCancel})
	assert.False(t, resp.Applied)
	assert.Equal(t, "No transition needed", resp.Message)
}

func TestExecutor_RequestTransition_RejectsUnknownContainer(t *testing.T) {
	repo := repository.NewMemory()
	e := newTestExecutor(repo)
	resp := e.RequestTransition(TransitionRequest{ContainerID: "missing", ContainerType: "task", Trigger: TriggerCancel})
	assert.False(t, resp.Applied)
	assert.Equal(t, "RESOURCE_NOT_FOUND", resp.ErrorCode)
}

func TestExecutor_RequestTransition_EmergencyTriggerAppliesConfiguredStatus(t *testing.T) {
	repo := repository.NewMemory()
	task := repo.Tasks().Create(models.Task{Title: "T", Status: "pending"}).Value()

	e := newTestExecutor(repo)
	resp := e.RequestTransition(TransitionRequest{ContainerID: task.ID, ContainerType: "task", Trigger: TriggerCancel})
	require.True(t, resp.Applied)
	assert.Equal(t, "cancelled", resp.NewStatus)

	updated := repo.Tasks().GetByID(task.ID).Value()
	assert.Equal(t, "cancelled", updated.Status)
}

func TestExecutor_RequestTransition_VerificationGateBlocksUntilCriteriaPass(t *testing.T) {
	repo := repository.NewMemory()
	task := repo.Tasks().Create(models.Task{
		Title:                "T",
		Status:               "testing",
		RequiresVerification: true,
		Summary:              longSummary(),
	}).Value()

	criteria, _ := json.Marshal([]models.VerificationCriterion{{Criteria: "tests pass", Pass: false}})
	repo.Sections().Create(models.Section{
		EntityType: models.EntityTask,
		EntityID:   task.ID,
		Title:      models.VerificationSectionTitle,
		Content:    string(criteria),
	})

	e := newTestExecutor(repo)
	resp := e.RequestTransition(TransitionRequest{ContainerID: task.ID, ContainerType: "task", Trigger: Trigger("complete")})
	assert.False(t, resp.Applied)
	assert.Equal(t, "verification", resp.Gate)
	assert.Equal(t, []string{"tests pass"}, resp.FailingCriteria)
	assert.Equal(t, "testing", resp.CurrentStatus)
	assert.Equal(t, "completed", resp.AttemptedStatus)
}

func TestExecutor_RequestTransition_InvalidTransitionReportsCurrentAndAttemptedStatus(t *testing.T) {
	repo := repository.NewMemory()
	task := repo.Tasks().Create(models.Task{Title: "T", Status: "pending", Summary: longSummary()}).Value()

	e := newTestExecutor(repo)
	resp := e.RequestTransition(TransitionRequest{ContainerID: task.ID, ContainerType: "task", TargetStatus: "completed"})
	assert.False(t, resp.Applied)
	assert.Equal(t, "VALIDATION_ERROR", resp.ErrorCode)
	assert.Equal(t, "pending", resp.CurrentStatus)
	assert.Equal(t, "completed", resp.AttemptedStatus)
}

func TestExecutor_RequestTransition_TargetStatusBypassesTriggerResolution(t *testing.T) {
	repo := repository.NewMemory()
	task := repo.Tasks().Create(models.Task{Title: "T", Status: "pending"}).Value()

	e := newTestExecutor(repo)
	resp := e.RequestTransition(TransitionRequest{ContainerID: task.ID, ContainerType: "task", TargetStatus: "in-progress"})
	require.True(t, resp.Applied)
	assert.Equal(t, "in-progress", resp.NewStatus)

	updated := repo.Tasks().GetByID(task.ID).Value()
	assert.Equal(t, "in-progress", updated.Status)
}

func TestExecutor_RequestTransitionBatch_SummarizesSucceededAndFailed(t *testing.T) {
	repo := repository.NewMemory()
	okTask := repo.Tasks().Create(models.Task{Title: "OK", Status: "pending"}).Value()

	e := newTestExecutor(repo)
	batch := e.RequestTransitionBatch([]TransitionRequest{
		{ContainerID: okTask.ID, ContainerType: "task", Trigger: TriggerCancel},
		{ContainerID: "missing", ContainerType: "task", Trigger: TriggerCancel},
	})
	assert.Equal(t, 2, batch.Summary.Total)
	assert.Equal(t, 1, batch.Summary.Succeeded)
	assert.Equal(t, 1, batch.Summary.Failed)
}

func TestExecutor_GetNextStatus_ReadyAdvancesToNextFlowStep(t *testing.T) {
	repo := repository.NewMemory()
	task := repo.Tasks().Create(models.Task{Title: "T", Status: "pending"}).Value()

	e := newTestExecutor(repo)
	next, err := e.GetNextStatus(task.ID, "task", "", nil)
	require.NoError(t, err)
	assert.Equal(t, NextReady, next.Kind)
	assert.Equal(t, "in-progress", next.RecommendedStatus)
}

func TestExecutor_GetNextStatus_TerminalWhenAlreadyAtTerminalStatus(t *testing.T) {
	repo := repository.NewMemory()
	task := repo.Tasks().Create(models.Task{Title: "T", Status: "completed"}).Value()

	e := newTestExecutor(repo)
	next, err := e.GetNextStatus(task.ID, "task", "", nil)
	require.NoError(t, err)
	assert.Equal(t, NextTerminal, next.Kind)
}

func TestExecutor_GetNextStatus_BlockedWhenDependencyUnresolved(t *testing.T) {
	repo := repository.NewMemory()
	blocker := repo.Tasks().Create(models.Task{Title: "Blocker", Status: "pending"}).Value()
	task := repo.Tasks().Create(models.Task{Title: "T", Status: "pending"}).Value()
	repo.Dependencies().Create(models.Dependency{FromTaskID: blocker.ID, ToTaskID: task.ID, Type: models.DependencyBlocks})

	e := newTestExecutor(repo)
	next, err := e.GetNextStatus(task.ID, "task", "", nil)
	require.NoError(t, err)
	assert.Equal(t, NextBlocked, next.Kind)
	assert.NotEmpty(t, next.Blockers)
}
