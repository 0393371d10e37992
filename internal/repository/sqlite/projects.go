package sqlite

import (
	"database/sql"
	"strings"
	"time"

	"github.com/jpicklyk/task-orchestrator/internal/models"
	"github.com/jpicklyk/task-orchestrator/internal/repository"
	"github.com/jpicklyk/task-orchestrator/internal/result"
)

type projectRepo struct {
	db *sql.DB
}

func (r *projectRepo) GetByID(id string) result.Result[models.Project] {
	row := r.db.QueryRow(`SELECT id, name, summary, description, status, tags, created_at, modified_at
		FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if err == sql.ErrNoRows {
		return result.Fail[models.Project](result.NotFound, "project not found: "+id)
	}
	if err != nil {
		return result.Failf[models.Project](result.DatabaseError, "reading project %s: %v", id, err)
	}
	return result.Ok(p)
}

func (r *projectRepo) Create(p models.Project) result.Result[models.Project] {
	if p.ID == "" {
		p.ID = models.NewID()
	}
	_, err := r.db.Exec(`INSERT INTO projects (id, name, summary, description, status, tags, created_at, modified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Summary, p.Description, p.Status, encodeTags(p.Tags), p.CreatedAt, p.ModifiedAt)
	if err != nil {
		return result.Failf[models.Project](result.DatabaseError, "creating project: %v", err)
	}
	return result.Ok(p)
}

func (r *projectRepo) Update(p models.Project) result.Result[models.Project] {
	p.ModifiedAt = time.Now()
	res, err := r.db.Exec(`UPDATE projects SET name=?, summary=?, description=?, status=?, tags=?, modified_at=?
		WHERE id=?`, p.Name, p.Summary, p.Description, p.Status, encodeTags(p.Tags), p.ModifiedAt, p.ID)
	if err != nil {
		return result.Failf[models.Project](result.DatabaseError, "updating project %s: %v", p.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return result.Fail[models.Project](result.NotFound, "project not found: "+p.ID)
	}
	return result.Ok(p)
}

func (r *projectRepo) Delete(id string, force bool) result.Result[bool] {
	if !force {
		var featureCount int
		if err := r.db.QueryRow(`SELECT COUNT(*) FROM features WHERE project_id = ?`, id).Scan(&featureCount); err != nil {
			return result.Failf[bool](result.DatabaseError, "checking dependent features for %s: %v", id, err)
		}
		if featureCount > 0 {
			return result.Failf[bool](result.ConflictError, "project %s has %d dependent features; use force to delete anyway", id, featureCount)
		}
	}
	res, err := r.db.Exec(`DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return result.Failf[bool](result.DatabaseError, "deleting project %s: %v", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return result.Fail[bool](result.NotFound, "project not found: "+id)
	}
	return result.Ok(true)
}

func (r *projectRepo) FindAll(limit int) result.Result[[]models.Project] {
	return r.query(`SELECT id, name, summary, description, status, tags, created_at, modified_at FROM projects ORDER BY created_at`, limit)
}

func (r *projectRepo) FindByFilters(f repository.Filters) result.Result[[]models.Project] {
	query := `SELECT id, name, summary, description, status, tags, created_at, modified_at FROM projects WHERE 1=1`
	args := []any{}
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, f.Status)
	}
	if f.Query != "" {
		query += ` AND (name LIKE ? OR summary LIKE ?)`
		like := "%" + f.Query + "%"
		args = append(args, like, like)
	}
	query += ` ORDER BY created_at`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return result.Failf[[]models.Project](result.DatabaseError, "querying projects: %v", err)
	}
	defer rows.Close()

	out := make([]models.Project, 0)
	for rows.Next() {
		p, err := scanProjectRows(rows)
		if err != nil {
			return result.Failf[[]models.Project](result.DatabaseError, "scanning project: %v", err)
		}
		if len(f.Tags) > 0 && !p.Tags.Intersects(f.Tags) {
			continue
		}
		out = append(out, p)
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return result.Ok(out)
}

func (r *projectRepo) GetFeatureCountsByProjectID(projectID string) result.Result[map[string]int] {
	rows, err := r.db.Query(`SELECT status, COUNT(*) FROM features WHERE project_id = ? GROUP BY status`, projectID)
	if err != nil {
		return result.Failf[map[string]int](result.DatabaseError, "counting features for project %s: %v", projectID, err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return result.Failf[map[string]int](result.DatabaseError, "scanning feature count: %v", err)
		}
		counts[strings.ToLower(status)] = n
	}
	return result.Ok(counts)
}

func (r *projectRepo) query(query string, limit int) result.Result[[]models.Project] {
	rows, err := r.db.Query(query)
	if err != nil {
		return result.Failf[[]models.Project](result.DatabaseError, "querying projects: %v", err)
	}
	defer rows.Close()

	out := make([]models.Project, 0)
	for rows.Next() {
		p, err := scanProjectRows(rows)
		if err != nil {
			return result.Failf[[]models.Project](result.DatabaseError, "scanning project: %v", err)
		}
		out = append(out, p)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return result.Ok(out)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(row scanner) (models.Project, error) {
	var p models.Project
	var tags string
	err := row.Scan(&p.ID, &p.Name, &p.Summary, &p.Description, &p.Status, &tags, &p.CreatedAt, &p.ModifiedAt)
	if err != nil {
		return models.Project{}, err
	}
	p.Tags = decodeTags(tags)
	return p, nil
}

func scanProjectRows(rows *sql.Rows) (models.Project, error) {
	return scanProject(rows)
}
