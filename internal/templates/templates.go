// Package templates implements the apply-template operation: materializing
// a Template's ordered TemplateSection prototypes onto a target entity as
// real Section rows. This is a data-only transform — it carries no status
// or workflow semantics of its own.
package templates

import (
	"fmt"

	"github.com/jpicklyk/task-orchestrator/internal/models"
	"github.com/jpicklyk/task-orchestrator/internal/repository"
)

// Applier materializes templates onto entities.
type Applier struct {
	repo repository.Repository
}

// New constructs an Applier.
func New(repo repository.Repository) *Applier {
	return &Applier{repo: repo}
}

// Apply instantiates every section of template templateID onto
// (entityType, entityID), preserving ordinal and content format. It
// rejects a template whose TargetType does not match entityType.
func (a *Applier) Apply(templateID, entityType, entityID string) ([]models.Section, error) {
	tmplResult := a.repo.Templates().GetByID(templateID)
	if tmplResult.IsErr() {
		return nil, tmplResult.Err()
	}
	tmpl := tmplResult.Value()
	if string(tmpl.TargetType) != "" && string(tmpl.TargetType) != entityType {
		return nil, fmt.Errorf("template %s targets %s, not %s", templateID, tmpl.TargetType, entityType)
	}

	created := make([]models.Section, 0, len(tmpl.Sections))
	for _, ts := range tmpl.Sections {
		section := models.Section{
			EntityType:       models.EntityType(entityType),
			EntityID:         entityID,
			Title:            ts.Title,
			Ordinal:          ts.Ordinal,
			ContentFormat:    ts.ContentFormat,
			Content:          ts.Content,
			UsageDescription: ts.UsageDescription,
		}
		res := a.repo.Sections().Create(section)
		if res.IsErr() {
			return created, fmt.Errorf("applying template %s: %w", templateID, res.Err())
		}
		created = append(created, res.Value())
	}
	return created, nil
}

// ApplyMany instantiates multiple templates onto the same entity, in
// order, stopping at the first failure.
func (a *Applier) ApplyMany(templateIDs []string, entityType, entityID string) ([]models.Section, error) {
	all := make([]models.Section, 0)
	for _, id := range templateIDs {
		sections, err := a.Apply(id, entityType, entityID)
		all = append(all, sections...)
		if err != nil {
			return all, err
		}
	}
	return all, nil
}
