package sqlite

import (
	"database/sql"

	"github.com/jpicklyk/task-orchestrator/internal/models"
	"github.com/jpicklyk/task-orchestrator/internal/result"
)

type dependencyRepo struct {
	db *sql.DB
}

const dependencyColumns = `id, from_task_id, to_task_id, type, unblock_at, created_at`

func (r *dependencyRepo) FindByTaskID(taskID string) result.Result[[]models.Dependency] {
	rows, err := r.db.Query(`SELECT `+dependencyColumns+` FROM dependencies WHERE from_task_id = ? OR to_task_id = ?`, taskID, taskID)
	if err != nil {
		return result.Failf[[]models.Dependency](result.DatabaseError, "querying dependencies for task %s: %v", taskID, err)
	}
	defer rows.Close()
	return collectDependencies(rows)
}

func (r *dependencyRepo) FindByToTaskID(taskID string) result.Result[[]models.Dependency] {
	rows, err := r.db.Query(`SELECT `+dependencyColumns+` FROM dependencies WHERE to_task_id = ?`, taskID)
	if err != nil {
		return result.Failf[[]models.Dependency](result.DatabaseError, "querying inbound dependencies for task %s: %v", taskID, err)
	}
	defer rows.Close()
	return collectDependencies(rows)
}

func (r *dependencyRepo) FindByFromTaskID(taskID string) result.Result[[]models.Dependency] {
	rows, err := r.db.Query(`SELECT `+dependencyColumns+` FROM dependencies WHERE from_task_id = ?`, taskID)
	if err != nil {
		return result.Failf[[]models.Dependency](result.DatabaseError, "querying outbound dependencies for task %s: %v", taskID, err)
	}
	defer rows.Close()
	return collectDependencies(rows)
}

func (r *dependencyRepo) Create(d models.Dependency) result.Result[models.Dependency] {
	if d.ID == "" {
		d.ID = models.NewID()
	}
	_, err := r.db.Exec(`INSERT INTO dependencies (`+dependencyColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		d.ID, d.FromTaskID, d.ToTaskID, string(d.Type), d.UnblockAt, d.CreatedAt)
	if err != nil {
		return result.Failf[models.Dependency](result.DatabaseError, "creating dependency: %v", err)
	}
	return result.Ok(d)
}

func (r *dependencyRepo) Delete(id string) result.Result[bool] {
	res, err := r.db.Exec(`DELETE FROM dependencies WHERE id = ?`, id)
	if err != nil {
		return result.Failf[bool](result.DatabaseError, "deleting dependency %s: %v", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return result.Fail[bool](result.NotFound, "dependency not found: "+id)
	}
	return result.Ok(true)
}

func (r *dependencyRepo) DeleteByTaskID(taskID string) result.Result[int] {
	res, err := r.db.Exec(`DELETE FROM dependencies WHERE from_task_id = ? OR to_task_id = ?`, taskID, taskID)
	if err != nil {
		return result.Failf[int](result.DatabaseError, "deleting dependencies for task %s: %v", taskID, err)
	}
	n, _ := res.RowsAffected()
	return result.Ok(int(n))
}

func collectDependencies(rows *sql.Rows) result.Result[[]models.Dependency] {
	out := make([]models.Dependency, 0)
	for rows.Next() {
		var d models.Dependency
		var depType string
		if err := rows.Scan(&d.ID, &d.FromTaskID, &d.ToTaskID, &depType, &d.UnblockAt, &d.CreatedAt); err != nil {
			return result.Failf[[]models.Dependency](result.DatabaseError, "scanning dependency: %v", err)
		}
		d.Type = models.DependencyType(depType)
		out = append(out, d)
	}
	return result.Ok(out)
}
