package sqlite

import (
	"database/sql"

	"github.com/jpicklyk/task-orchestrator/internal/models"
	"github.com/jpicklyk/task-orchestrator/internal/result"
)

type sectionRepo struct {
	db *sql.DB
}

const sectionColumns = `id, entity_type, entity_id, title, ordinal, content_format, content, usage_description, tags`

func (r *sectionRepo) GetSectionsForEntity(entityType models.EntityType, entityID string) result.Result[[]models.Section] {
	rows, err := r.db.Query(`SELECT `+sectionColumns+` FROM sections WHERE entity_type = ? AND entity_id = ? ORDER BY ordinal`,
		string(entityType), entityID)
	if err != nil {
		return result.Failf[[]models.Section](result.DatabaseError, "querying sections for %s %s: %v", entityType, entityID, err)
	}
	defer rows.Close()

	out := make([]models.Section, 0)
	for rows.Next() {
		s, err := scanSection(rows)
		if err != nil {
			return result.Failf[[]models.Section](result.DatabaseError, "scanning section: %v", err)
		}
		out = append(out, s)
	}
	return result.Ok(out)
}

func (r *sectionRepo) Create(s models.Section) result.Result[models.Section] {
	if s.ID == "" {
		s.ID = models.NewID()
	}
	_, err := r.db.Exec(`INSERT INTO sections (`+sectionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, string(s.EntityType), s.EntityID, s.Title, s.Ordinal, string(s.ContentFormat),
		s.Content, s.UsageDescription, encodeTags(s.Tags))
	if err != nil {
		return result.Failf[models.Section](result.ConflictError, "creating section (ordinal %d may already exist for %s %s): %v", s.Ordinal, s.EntityType, s.EntityID, err)
	}
	return result.Ok(s)
}

func (r *sectionRepo) Update(s models.Section) result.Result[models.Section] {
	res, err := r.db.Exec(`UPDATE sections SET title=?, ordinal=?, content_format=?, content=?, usage_description=?, tags=?
		WHERE id=?`, s.Title, s.Ordinal, string(s.ContentFormat), s.Content, s.UsageDescription, encodeTags(s.Tags), s.ID)
	if err != nil {
		return result.Failf[models.Section](result.DatabaseError, "updating section %s: %v", s.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return result.Fail[models.Section](result.NotFound, "section not found: "+s.ID)
	}
	return result.Ok(s)
}

func (r *sectionRepo) Delete(id string) result.Result[bool] {
	res, err := r.db.Exec(`DELETE FROM sections WHERE id = ?`, id)
	if err != nil {
		return result.Failf[bool](result.DatabaseError, "deleting section %s: %v", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return result.Fail[bool](result.NotFound, "section not found: "+id)
	}
	return result.Ok(true)
}

func (r *sectionRepo) DeleteForEntity(entityType models.EntityType, entityID string) result.Result[int] {
	res, err := r.db.Exec(`DELETE FROM sections WHERE entity_type = ? AND entity_id = ?`, string(entityType), entityID)
	if err != nil {
		return result.Failf[int](result.DatabaseError, "deleting sections for %s %s: %v", entityType, entityID, err)
	}
	n, _ := res.RowsAffected()
	return result.Ok(int(n))
}

func scanSection(row scanner) (models.Section, error) {
	var s models.Section
	var entityType, contentFormat, tags string
	err := row.Scan(&s.ID, &entityType, &s.EntityID, &s.Title, &s.Ordinal, &contentFormat, &s.Content, &s.UsageDescription, &tags)
	if err != nil {
		return models.Section{}, err
	}
	s.EntityType = models.EntityType(entityType)
	s.ContentFormat = models.ContentFormat(contentFormat)
	s.Tags = decodeTags(tags)
	return s, nil
}
