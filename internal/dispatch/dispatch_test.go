package dispatch

import (
	"encoding/json"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpicklyk/task-orchestrator/internal/config"
	"github.com/jpicklyk/task-orchestrator/internal/models"
	"github.com/jpicklyk/task-orchestrator/internal/repository"
)

func newTestDispatcher() *Dispatcher {
	repo := repository.NewMemory()
	loader := config.NewLoader(nil)
	return New(repo, loader, nil)
}

func rawOf(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestDispatcher_Call_UnknownToolReturnsValidationError(t *testing.T) {
	d := newTestDispatcher()
	env := d.Call("no_such_tool", nil)
	assert.False(t, env.Success)
	assert.Equal(t, CodeValidation, env.Error.Code)
}

func TestDispatcher_Call_RecoversPanicAsInternalError(t *testing.T) {
	// analyser, applier, and locks are left nil: getNextTask dereferences
	// analyser, which panics. Call's own recover must turn that into an
	// INTERNAL_ERROR envelope rather than crashing the test.
	d := &Dispatcher{repo: repository.NewMemory(), logger: log.Default()}
	require.NotPanics(t, func() {
		env := d.Call("get_next_task", rawOf(t, GetNextTaskParams{}))
		assert.False(t, env.Success)
		assert.Equal(t, CodeInternal, env.Error.Code)
	})
}

func TestManageContainer_Create_ProjectDefaultsStatusToPlanning(t *testing.T) {
	d := newTestDispatcher()
	env := d.Call("manage_container", rawOf(t, ManageContainerParams{
		Operation: "create", ContainerType: "project", Name: "Orchestrator",
	}))
	require.True(t, env.Success)
	assert.Equal(t, "planning", env.Data.(models.Project).Status)
}

func TestManageContainer_Create_RejectsInvalidContainerType(t *testing.T) {
	d := newTestDispatcher()
	env := d.Call("manage_container", rawOf(t, ManageContainerParams{
		Operation: "create", ContainerType: "widget",
	}))
	assert.False(t, env.Success)
	assert.Equal(t, CodeValidation, env.Error.Code)
}

func TestManageContainer_Update_ReturnsNotFoundForMissingID(t *testing.T) {
	d := newTestDispatcher()
	env := d.Call("manage_container", rawOf(t, ManageContainerParams{
		Operation: "update", ContainerType: "task", ID: "missing", Title: "x",
	}))
	assert.False(t, env.Success)
	assert.Equal(t, CodeNotFound, env.Error.Code)
}

func TestManageContainer_Delete_ConflictsOnForceRequiredDeletion(t *testing.T) {
	d := newTestDispatcher()
	createEnv := d.Call("manage_container", rawOf(t, ManageContainerParams{
		Operation: "create", ContainerType: "project", Name: "P",
	}))
	require.True(t, createEnv.Success)
	proj := createEnv.Data.(models.Project)

	featEnv := d.Call("manage_container", rawOf(t, ManageContainerParams{
		Operation: "create", ContainerType: "feature", Name: "F", ProjectID: proj.ID,
	}))
	require.True(t, featEnv.Success)

	delEnv := d.Call("manage_container", rawOf(t, ManageContainerParams{
		Operation: "delete", ContainerType: "project", ID: proj.ID,
	}))
	assert.False(t, delEnv.Success)
	assert.Equal(t, CodeConflict, delEnv.Error.Code)
}

func TestManageContainer_SetStatus_DelegatesToTransitionExecutor(t *testing.T) {
	d := newTestDispatcher()
	createEnv := d.Call("manage_container", rawOf(t, ManageContainerParams{
		Operation: "create", ContainerType: "task", Title: "T",
	}))
	require.True(t, createEnv.Success)
	task := createEnv.Data.(models.Task)

	env := d.Call("manage_container", rawOf(t, ManageContainerParams{
		Operation: "setStatus", ContainerType: "task", ID: task.ID, Status: "in-progress",
	}))
	require.True(t, env.Success)

	updated := d.repo.Tasks().GetByID(task.ID).Value()
	assert.Equal(t, "in-progress", updated.Status)
}

func TestManageContainer_SetStatus_RequiresStatus(t *testing.T) {
	d := newTestDispatcher()
	env := d.Call("manage_container", rawOf(t, ManageContainerParams{
		Operation: "setStatus", ContainerType: "task", ID: "whatever",
	}))
	assert.False(t, env.Success)
	assert.Equal(t, CodeValidation, env.Error.Code)
}

func TestManageContainer_BulkUpdate_AppliesSharedFieldsToEachID(t *testing.T) {
	d := newTestDispatcher()
	t1 := d.Call("manage_container", rawOf(t, ManageContainerParams{
		Operation: "create", ContainerType: "task", Title: "T1",
	})).Data.(models.Task)
	t2 := d.Call("manage_container", rawOf(t, ManageContainerParams{
		Operation: "create", ContainerType: "task", Title: "T2",
	})).Data.(models.Task)

	env := d.Call("manage_container", rawOf(t, ManageContainerParams{
		Operation: "bulkUpdate", ContainerType: "task",
		IDs: []string{t1.ID, t2.ID}, Priority: "high",
	}))
	require.True(t, env.Success)

	assert.Equal(t, models.PriorityHigh, d.repo.Tasks().GetByID(t1.ID).Value().Priority)
	assert.Equal(t, models.PriorityHigh, d.repo.Tasks().GetByID(t2.ID).Value().Priority)
}

func TestManageContainer_BulkUpdate_ContainersOverridePerEntry(t *testing.T) {
	d := newTestDispatcher()
	t1 := d.Call("manage_container", rawOf(t, ManageContainerParams{
		Operation: "create", ContainerType: "task", Title: "T1",
	})).Data.(models.Task)
	t2 := d.Call("manage_container", rawOf(t, ManageContainerParams{
		Operation: "create", ContainerType: "task", Title: "T2",
	})).Data.(models.Task)

	env := d.Call("manage_container", rawOf(t, ManageContainerParams{
		Operation: "bulkUpdate", ContainerType: "task",
		Containers: []BulkContainerItem{
			{ID: t1.ID, Priority: "high"},
			{ID: t2.ID, Priority: "low"},
		},
	}))
	require.True(t, env.Success)

	assert.Equal(t, models.PriorityHigh, d.repo.Tasks().GetByID(t1.ID).Value().Priority)
	assert.Equal(t, models.PriorityLow, d.repo.Tasks().GetByID(t2.ID).Value().Priority)
}

func TestManageContainer_BulkUpdate_RejectsOverLimit(t *testing.T) {
	d := newTestDispatcher()
	ids := make([]string, 101)
	for i := range ids {
		ids[i] = "id"
	}
	env := d.Call("manage_container", rawOf(t, ManageContainerParams{
		Operation: "bulkUpdate", ContainerType: "task", IDs: ids,
	}))
	assert.False(t, env.Success)
	assert.Equal(t, CodeValidation, env.Error.Code)
}

func TestManageContainer_BulkUpdate_FailsWhenEveryEntryFails(t *testing.T) {
	d := newTestDispatcher()
	env := d.Call("manage_container", rawOf(t, ManageContainerParams{
		Operation: "bulkUpdate", ContainerType: "task",
		IDs: []string{"missing-1", "missing-2"}, Priority: "high",
	}))
	assert.False(t, env.Success)
	assert.Equal(t, CodeOperationFailed, env.Error.Code)
}

func TestQueryContainer_Get_ReturnsNotFoundForMissingEntity(t *testing.T) {
	d := newTestDispatcher()
	env := d.Call("query_container", rawOf(t, QueryContainerParams{
		Operation: "get", ContainerType: "task", ID: "missing",
	}))
	assert.False(t, env.Success)
	assert.Equal(t, CodeNotFound, env.Error.Code)
}

func TestQueryContainer_List_ReturnsEmptySliceForEmptyRepository(t *testing.T) {
	d := newTestDispatcher()
	env := d.Call("query_container", rawOf(t, QueryContainerParams{
		Operation: "list", ContainerType: "task",
	}))
	require.True(t, env.Success)
	assert.Empty(t, env.Data)
}

func TestRequestTransition_RejectsMissingContainerID(t *testing.T) {
	d := newTestDispatcher()
	env := d.Call("request_transition", rawOf(t, RequestTransitionParams{
		ContainerType: "task", Trigger: "cancel",
	}))
	assert.False(t, env.Success)
	assert.Equal(t, CodeValidation, env.Error.Code)
}

func TestGetNextTask_ReturnsNoEligibleTasksMessageWhenEmpty(t *testing.T) {
	d := newTestDispatcher()
	env := d.Call("get_next_task", rawOf(t, GetNextTaskParams{}))
	require.True(t, env.Success)
	assert.Equal(t, "no eligible tasks", env.Message)
}

func TestGetBlockedTasks_ReturnsEmptyWhenNoneBlocked(t *testing.T) {
	d := newTestDispatcher()
	env := d.Call("get_blocked_tasks", rawOf(t, GetBlockedTasksParams{}))
	require.True(t, env.Success)
	assert.Empty(t, env.Data)
}

func TestGetNextStatus_RejectsMissingContainerIDAndStatus(t *testing.T) {
	d := newTestDispatcher()
	env := d.Call("get_next_status", rawOf(t, GetNextStatusParams{ContainerType: "task"}))
	assert.False(t, env.Success)
	assert.Equal(t, CodeValidation, env.Error.Code)
}
