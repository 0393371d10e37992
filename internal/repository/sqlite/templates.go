package sqlite

import (
	"database/sql"

	"github.com/jpicklyk/task-orchestrator/internal/models"
	"github.com/jpicklyk/task-orchestrator/internal/result"
)

type templateRepo struct {
	db *sql.DB
}

func (r *templateRepo) GetByID(id string) result.Result[models.Template] {
	row := r.db.QueryRow(`SELECT id, name, target_type FROM templates WHERE id = ?`, id)
	var t models.Template
	var targetType string
	err := row.Scan(&t.ID, &t.Name, &targetType)
	if err == sql.ErrNoRows {
		return result.Fail[models.Template](result.NotFound, "template not found: "+id)
	}
	if err != nil {
		return result.Failf[models.Template](result.DatabaseError, "reading template %s: %v", id, err)
	}
	t.TargetType = models.EntityType(targetType)

	sections, err := r.sectionsFor(id)
	if err != nil {
		return result.Failf[models.Template](result.DatabaseError, "reading sections for template %s: %v", id, err)
	}
	t.Sections = sections
	return result.Ok(t)
}

func (r *templateRepo) FindAll() result.Result[[]models.Template] {
	rows, err := r.db.Query(`SELECT id, name, target_type FROM templates ORDER BY name`)
	if err != nil {
		return result.Failf[[]models.Template](result.DatabaseError, "querying templates: %v", err)
	}
	defer rows.Close()

	out := make([]models.Template, 0)
	for rows.Next() {
		var t models.Template
		var targetType string
		if err := rows.Scan(&t.ID, &t.Name, &targetType); err != nil {
			return result.Failf[[]models.Template](result.DatabaseError, "scanning template: %v", err)
		}
		t.TargetType = models.EntityType(targetType)
		sections, err := r.sectionsFor(t.ID)
		if err != nil {
			return result.Failf[[]models.Template](result.DatabaseError, "reading sections for template %s: %v", t.ID, err)
		}
		t.Sections = sections
		out = append(out, t)
	}
	return result.Ok(out)
}

func (r *templateRepo) sectionsFor(templateID string) ([]models.TemplateSection, error) {
	rows, err := r.db.Query(`SELECT id, template_id, title, ordinal, content_format, content, usage_description
		FROM template_sections WHERE template_id = ? ORDER BY ordinal`, templateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.TemplateSection, 0)
	for rows.Next() {
		var ts models.TemplateSection
		var contentFormat string
		if err := rows.Scan(&ts.ID, &ts.TemplateID, &ts.Title, &ts.Ordinal, &contentFormat, &ts.Content, &ts.UsageDescription); err != nil {
			return nil, err
		}
		ts.ContentFormat = models.ContentFormat(contentFormat)
		out = append(out, ts)
	}
	return out, nil
}
