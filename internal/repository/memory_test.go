package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpicklyk/task-orchestrator/internal/models"
	"github.com/jpicklyk/task-orchestrator/internal/result"
)

func TestMemoryProjects_CreateAssignsIDAndTimestamps(t *testing.T) {
	m := NewMemory()
	res := m.Projects().Create(models.Project{Name: "Orchestrator"})
	require.True(t, res.IsOk())
	p := res.Value()
	assert.NotEmpty(t, p.ID)
	assert.False(t, p.CreatedAt.IsZero())
}

func TestMemoryProjects_GetByID_NotFound(t *testing.T) {
	m := NewMemory()
	res := m.Projects().GetByID("missing")
	assert.False(t, res.IsOk())
	assert.Equal(t, result.NotFound, res.Err().Kind)
}

func TestMemoryProjects_Delete_RequiresForceWithChildFeatures(t *testing.T) {
	m := NewMemory()
	p := m.Projects().Create(models.Project{Name: "P"}).Value()
	m.Features().Create(models.Feature{Name: "F", ProjectID: p.ID})

	res := m.Projects().Delete(p.ID, false)
	assert.False(t, res.IsOk())
	assert.Equal(t, result.ConflictError, res.Err().Kind)

	res = m.Projects().Delete(p.ID, true)
	assert.True(t, res.IsOk())
}

func TestMemoryFeatures_Create_RejectsUnknownProject(t *testing.T) {
	m := NewMemory()
	res := m.Features().Create(models.Feature{Name: "F", ProjectID: "nope"})
	assert.False(t, res.IsOk())
	assert.Equal(t, result.ValidationError, res.Err().Kind)
}

func TestMemoryFeatures_FindByProject_FiltersToOwner(t *testing.T) {
	m := NewMemory()
	p1 := m.Projects().Create(models.Project{Name: "P1"}).Value()
	p2 := m.Projects().Create(models.Project{Name: "P2"}).Value()
	m.Features().Create(models.Feature{Name: "A", ProjectID: p1.ID})
	m.Features().Create(models.Feature{Name: "B", ProjectID: p2.ID})

	res := m.Features().FindByProject(p1.ID)
	require.True(t, res.IsOk())
	assert.Len(t, res.Value(), 1)
}

func TestMemoryFeatures_GetTaskCountsByFeatureID_BucketsByStatus(t *testing.T) {
	m := NewMemory()
	f := m.Features().Create(models.Feature{Name: "F"}).Value()
	m.Tasks().Create(models.Task{Title: "T1", FeatureID: f.ID, Status: "completed"})
	m.Tasks().Create(models.Task{Title: "T2", FeatureID: f.ID, Status: "in-progress"})
	m.Tasks().Create(models.Task{Title: "T3", FeatureID: f.ID, Status: "pending"})

	res := m.Features().GetTaskCountsByFeatureID(f.ID)
	require.True(t, res.IsOk())
	counts := res.Value()
	assert.Equal(t, 3, counts.Total)
	assert.Equal(t, 1, counts.Completed)
	assert.Equal(t, 1, counts.InProgress)
	assert.Equal(t, 1, counts.Pending)
}

func TestMemoryTasks_Create_RejectsUnknownFeatureAndProject(t *testing.T) {
	m := NewMemory()
	res := m.Tasks().Create(models.Task{Title: "T", FeatureID: "missing"})
	assert.False(t, res.IsOk())
	assert.Equal(t, result.ValidationError, res.Err().Kind)

	res = m.Tasks().Create(models.Task{Title: "T", ProjectID: "missing"})
	assert.False(t, res.IsOk())
	assert.Equal(t, result.ValidationError, res.Err().Kind)
}

func TestMemoryTasks_Delete_ConflictsOnDependencyEdgesUnlessForced(t *testing.T) {
	m := NewMemory()
	t1 := m.Tasks().Create(models.Task{Title: "T1"}).Value()
	t2 := m.Tasks().Create(models.Task{Title: "T2"}).Value()
	m.Dependencies().Create(models.Dependency{FromTaskID: t1.ID, ToTaskID: t2.ID})

	res := m.Tasks().Delete(t1.ID, false)
	assert.False(t, res.IsOk())
	assert.Equal(t, result.ConflictError, res.Err().Kind)

	res = m.Tasks().Delete(t1.ID, true)
	assert.True(t, res.IsOk())

	deps := m.Dependencies().FindByTaskID(t2.ID).Value()
	assert.Empty(t, deps)
}

func TestMemorySections_Create_RejectsDuplicateOrdinal(t *testing.T) {
	m := NewMemory()
	task := m.Tasks().Create(models.Task{Title: "T"}).Value()
	first := m.Sections().Create(models.Section{EntityType: models.EntityTask, EntityID: task.ID, Ordinal: 1})
	require.True(t, first.IsOk())

	second := m.Sections().Create(models.Section{EntityType: models.EntityTask, EntityID: task.ID, Ordinal: 1})
	assert.False(t, second.IsOk())
	assert.Equal(t, result.ConflictError, second.Err().Kind)
}

func TestMemorySections_DeleteForEntity_RemovesAllMatching(t *testing.T) {
	m := NewMemory()
	task := m.Tasks().Create(models.Task{Title: "T"}).Value()
	m.Sections().Create(models.Section{EntityType: models.EntityTask, EntityID: task.ID, Ordinal: 1})
	m.Sections().Create(models.Section{EntityType: models.EntityTask, EntityID: task.ID, Ordinal: 2})

	res := m.Sections().DeleteForEntity(models.EntityTask, task.ID)
	require.True(t, res.IsOk())
	assert.Equal(t, 2, res.Value())
}

func TestMemoryDependencies_Create_RequiresBothTasksExist(t *testing.T) {
	m := NewMemory()
	t1 := m.Tasks().Create(models.Task{Title: "T1"}).Value()

	res := m.Dependencies().Create(models.Dependency{FromTaskID: t1.ID, ToTaskID: "missing"})
	assert.False(t, res.IsOk())
	assert.Equal(t, result.ValidationError, res.Err().Kind)
}

func TestMemoryTemplates_AddAndGetByID(t *testing.T) {
	m := NewMemory()
	m.AddTemplate(models.Template{Name: "Bug Report", TargetType: models.EntityTask})

	all := m.Templates().FindAll().Value()
	require.Len(t, all, 1)

	res := m.Templates().GetByID(all[0].ID)
	require.True(t, res.IsOk())
	assert.Equal(t, "Bug Report", res.Value().Name)
}

func TestMemoryRoleTransitions_FindByEntityID_FiltersLog(t *testing.T) {
	m := NewMemory()
	m.RoleTransitions().Create(models.RoleTransition{EntityID: "a", FromRole: "queue", ToRole: "work"})
	m.RoleTransitions().Create(models.RoleTransition{EntityID: "b", FromRole: "queue", ToRole: "work"})

	res := m.RoleTransitions().FindByEntityID("a")
	require.True(t, res.IsOk())
	assert.Len(t, res.Value(), 1)
}
