package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpicklyk/task-orchestrator/internal/models"
	"github.com/jpicklyk/task-orchestrator/internal/repository"
)

func TestApplier_Apply_MaterializesSectionsInOrdinalOrder(t *testing.T) {
	repo := repository.NewMemory()
	task := repo.Tasks().Create(models.Task{Title: "T"}).Value()

	tmpl := models.Template{
		Name:       "Bug Report",
		TargetType: models.EntityTask,
		Sections: []models.TemplateSection{
			{Title: "Steps to Reproduce", Ordinal: 1, Content: "..."},
			{Title: "Expected Behavior", Ordinal: 2, Content: "..."},
		},
	}
	repo.AddTemplate(tmpl)
	all := repo.Templates().FindAll().Value()
	require.Len(t, all, 1)

	a := New(repo)
	created, err := a.Apply(all[0].ID, "task", task.ID)
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, "Steps to Reproduce", created[0].Title)
	assert.Equal(t, task.ID, created[0].EntityID)
	assert.Equal(t, models.EntityTask, created[0].EntityType)
}

func TestApplier_Apply_RejectsMismatchedTargetType(t *testing.T) {
	repo := repository.NewMemory()
	feature := repo.Features().Create(models.Feature{Name: "F"}).Value()

	repo.AddTemplate(models.Template{Name: "Task Only", TargetType: models.EntityTask})
	all := repo.Templates().FindAll().Value()

	a := New(repo)
	_, err := a.Apply(all[0].ID, "feature", feature.ID)
	assert.Error(t, err)
}

func TestApplier_Apply_RejectsUnknownTemplate(t *testing.T) {
	repo := repository.NewMemory()
	task := repo.Tasks().Create(models.Task{Title: "T"}).Value()

	a := New(repo)
	_, err := a.Apply("missing", "task", task.ID)
	assert.Error(t, err)
}

func TestApplier_ApplyMany_AccumulatesAcrossTemplatesAndStopsAtFirstError(t *testing.T) {
	repo := repository.NewMemory()
	task := repo.Tasks().Create(models.Task{Title: "T"}).Value()

	repo.AddTemplate(models.Template{
		Name:       "First",
		TargetType: models.EntityTask,
		Sections:   []models.TemplateSection{{Title: "A", Ordinal: 1}},
	})
	repo.AddTemplate(models.Template{
		Name:       "Second",
		TargetType: models.EntityFeature,
		Sections:   []models.TemplateSection{{Title: "B", Ordinal: 1}},
	})

	all := repo.Templates().FindAll().Value()
	var firstID, secondID string
	for _, tmpl := range all {
		if tmpl.Name == "First" {
			firstID = tmpl.ID
		} else {
			secondID = tmpl.ID
		}
	}

	a := New(repo)
	created, err := a.ApplyMany([]string{firstID, secondID}, "task", task.ID)
	assert.Error(t, err)
	assert.Len(t, created, 1)
}
