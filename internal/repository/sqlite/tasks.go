package sqlite

import (
	"database/sql"
	"time"

	"github.com/jpicklyk/task-orchestrator/internal/models"
	"github.com/jpicklyk/task-orchestrator/internal/repository"
	"github.com/jpicklyk/task-orchestrator/internal/result"
)

type taskRepo struct {
	db *sql.DB
}

const taskColumns = `id, title, summary, description, status, priority, complexity, project_id, feature_id, requires_verification, tags, created_at, modified_at`

func (r *taskRepo) GetByID(id string) result.Result[models.Task] {
	row := r.db.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return result.Fail[models.Task](result.NotFound, "task not found: "+id)
	}
	if err != nil {
		return result.Failf[models.Task](result.DatabaseError, "reading task %s: %v", id, err)
	}
	return result.Ok(t)
}

func (r *taskRepo) Create(t models.Task) result.Result[models.Task] {
	if t.ID == "" {
		t.ID = models.NewID()
	}
	_, err := r.db.Exec(`INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Summary, t.Description, t.Status, string(t.Priority), t.Complexity,
		nullable(t.ProjectID), nullable(t.FeatureID), t.RequiresVerification, encodeTags(t.Tags), t.CreatedAt, t.ModifiedAt)
	if err != nil {
		return result.Failf[models.Task](result.DatabaseError, "creating task: %v", err)
	}
	return result.Ok(t)
}

func (r *taskRepo) Update(t models.Task) result.Result[models.Task] {
	t.ModifiedAt = time.Now()
	res, err := r.db.Exec(`UPDATE tasks SET title=?, summary=?, description=?, status=?, priority=?,
		complexity=?, requires_verification=?, tags=?, modified_at=? WHERE id=?`,
		t.Title, t.Summary, t.Description, t.Status, string(t.Priority), t.Complexity,
		t.RequiresVerification, encodeTags(t.Tags), t.ModifiedAt, t.ID)
	if err != nil {
		return result.Failf[models.Task](result.DatabaseError, "updating task %s: %v", t.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return result.Fail[models.Task](result.NotFound, "task not found: "+t.ID)
	}
	return result.Ok(t)
}

func (r *taskRepo) Delete(id string, force bool) result.Result[bool] {
	tx, err := r.db.Begin()
	if err != nil {
		return result.Failf[bool](result.DatabaseError, "starting delete transaction for task %s: %v", id, err)
	}
	defer tx.Rollback()

	if force {
		if _, err := tx.Exec(`DELETE FROM sections WHERE entity_type = 'task' AND entity_id = ?`, id); err != nil {
			return result.Failf[bool](result.DatabaseError, "deleting sections for task %s: %v", id, err)
		}
		if _, err := tx.Exec(`DELETE FROM dependencies WHERE from_task_id = ? OR to_task_id = ?`, id, id); err != nil {
			return result.Failf[bool](result.DatabaseError, "deleting dependencies for task %s: %v", id, err)
		}
	} else {
		var depCount int
		if err := tx.QueryRow(`SELECT COUNT(*) FROM dependencies WHERE from_task_id = ? OR to_task_id = ?`, id, id).Scan(&depCount); err != nil {
			return result.Failf[bool](result.DatabaseError, "checking dependencies for task %s: %v", id, err)
		}
		if depCount > 0 {
			return result.Failf[bool](result.ConflictError, "task %s has %d dependency edges; use force to delete anyway", id, depCount)
		}
	}

	res, err := tx.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return result.Failf[bool](result.DatabaseError, "deleting task %s: %v", id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return result.Fail[bool](result.NotFound, "task not found: "+id)
	}
	if err := tx.Commit(); err != nil {
		return result.Failf[bool](result.DatabaseError, "committing delete of task %s: %v", id, err)
	}
	return result.Ok(true)
}

func (r *taskRepo) FindAll(limit int) result.Result[[]models.Task] {
	return r.rawQuery(`SELECT `+taskColumns+` FROM tasks ORDER BY created_at`, limit)
}

func (r *taskRepo) FindByProject(projectID string) result.Result[[]models.Task] {
	rows, err := r.db.Query(`SELECT `+taskColumns+` FROM tasks WHERE project_id = ? ORDER BY created_at`, projectID)
	if err != nil {
		return result.Failf[[]models.Task](result.DatabaseError, "querying tasks for project %s: %v", projectID, err)
	}
	defer rows.Close()
	return collectTasks(rows, 0)
}

func (r *taskRepo) FindByFeature(featureID string) result.Result[[]models.Task] {
	rows, err := r.db.Query(`SELECT `+taskColumns+` FROM tasks WHERE feature_id = ? ORDER BY created_at`, featureID)
	if err != nil {
		return result.Failf[[]models.Task](result.DatabaseError, "querying tasks for feature %s: %v", featureID, err)
	}
	defer rows.Close()
	return collectTasks(rows, 0)
}

func (r *taskRepo) FindByFilters(f repository.Filters) result.Result[[]models.Task] {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE 1=1`
	args := []any{}
	if f.ProjectID != "" {
		query += ` AND project_id = ?`
		args = append(args, f.ProjectID)
	}
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, f.Status)
	}
	if f.Priority != "" {
		query += ` AND priority = ?`
		args = append(args, f.Priority)
	}
	if f.Query != "" {
		query += ` AND (title LIKE ? OR summary LIKE ?)`
		like := "%" + f.Query + "%"
		args = append(args, like, like)
	}
	query += ` ORDER BY created_at`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return result.Failf[[]models.Task](result.DatabaseError, "querying tasks: %v", err)
	}
	defer rows.Close()
	return collectTasks(rows, f.Limit, f.Tags...)
}

func (r *taskRepo) rawQuery(query string, limit int) result.Result[[]models.Task] {
	rows, err := r.db.Query(query)
	if err != nil {
		return result.Failf[[]models.Task](result.DatabaseError, "querying tasks: %v", err)
	}
	defer rows.Close()
	return collectTasks(rows, limit)
}

func collectTasks(rows *sql.Rows, limit int, tagFilter ...string) result.Result[[]models.Task] {
	out := make([]models.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return result.Failf[[]models.Task](result.DatabaseError, "scanning task: %v", err)
		}
		if len(tagFilter) > 0 && !t.Tags.Intersects(tagFilter) {
			continue
		}
		out = append(out, t)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return result.Ok(out)
}

func scanTask(row scanner) (models.Task, error) {
	var t models.Task
	var tags, priority string
	var projectID, featureID sql.NullString
	err := row.Scan(&t.ID, &t.Title, &t.Summary, &t.Description, &t.Status, &priority, &t.Complexity,
		&projectID, &featureID, &t.RequiresVerification, &tags, &t.CreatedAt, &t.ModifiedAt)
	if err != nil {
		return models.Task{}, err
	}
	t.Priority = models.Priority(priority)
	t.ProjectID = projectID.String
	t.FeatureID = featureID.String
	t.Tags = decodeTags(tags)
	return t, nil
}
