package sqlite

import (
	"database/sql"
	"strings"
	"time"

	"github.com/jpicklyk/task-orchestrator/internal/models"
	"github.com/jpicklyk/task-orchestrator/internal/repository"
	"github.com/jpicklyk/task-orchestrator/internal/result"
)

type featureRepo struct {
	db *sql.DB
}

const featureColumns = `id, name, summary, description, status, priority, project_id, requires_verification, tags, created_at, modified_at`

func (r *featureRepo) GetByID(id string) result.Result[models.Feature] {
	row := r.db.QueryRow(`SELECT `+featureColumns+` FROM features WHERE id = ?`, id)
	f, err := scanFeature(row)
	if err == sql.ErrNoRows {
		return result.Fail[models.Feature](result.NotFound, "feature not found: "+id)
	}
	if err != nil {
		return result.Failf[models.Feature](result.DatabaseError, "reading feature %s: %v", id, err)
	}
	return result.Ok(f)
}

func (r *featureRepo) Create(f models.Feature) result.Result[models.Feature] {
	if f.ID == "" {
		f.ID = models.NewID()
	}
	_, err := r.db.Exec(`INSERT INTO features (`+featureColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.Name, f.Summary, f.Description, f.Status, string(f.Priority), nullable(f.ProjectID),
		f.RequiresVerification, encodeTags(f.Tags), f.CreatedAt, f.ModifiedAt)
	if err != nil {
		return result.Failf[models.Feature](result.DatabaseError, "creating feature: %v", err)
	}
	return result.Ok(f)
}

func (r *featureRepo) Update(f models.Feature) result.Result[models.Feature] {
	f.ModifiedAt = time.Now()
	res, err := r.db.Exec(`UPDATE features SET name=?, summary=?, description=?, status=?, priority=?,
		requires_verification=?, tags=?, modified_at=? WHERE id=?`,
		f.Name, f.Summary, f.Description, f.Status, string(f.Priority), f.RequiresVerification,
		encodeTags(f.Tags), f.ModifiedAt, f.ID)
	if err != nil {
		return result.Failf[models.Feature](result.DatabaseError, "updating feature %s: %v", f.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return result.Fail[models.Feature](result.NotFound, "feature not found: "+f.ID)
	}
	return result.Ok(f)
}

func (r *featureRepo) Delete(id string, force bool) result.Result[bool] {
	if !force {
		var taskCount int
		if err := r.db.QueryRow(`SELECT COUNT(*) FROM tasks WHERE feature_id = ?`, id).Scan(&taskCount); err != nil {
			return result.Failf[bool](result.DatabaseError, "checking dependent tasks for %s: %v", id, err)
		}
		if taskCount > 0 {
			return result.Failf[bool](result.ConflictError, "feature %s has %d dependent tasks; use force to delete anyway", id, taskCount)
		}
	}
	res, err := r.db.Exec(`DELETE FROM features WHERE id = ?`, id)
	if err != nil {
		return result.Failf[bool](result.DatabaseError, "deleting feature %s: %v", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return result.Fail[bool](result.NotFound, "feature not found: "+id)
	}
	return result.Ok(true)
}

func (r *featureRepo) FindAll(limit int) result.Result[[]models.Feature] {
	return r.query(`SELECT `+featureColumns+` FROM features ORDER BY created_at`, limit)
}

func (r *featureRepo) FindByProject(projectID string) result.Result[[]models.Feature] {
	rows, err := r.db.Query(`SELECT `+featureColumns+` FROM features WHERE project_id = ? ORDER BY created_at`, projectID)
	if err != nil {
		return result.Failf[[]models.Feature](result.DatabaseError, "querying features for project %s: %v", projectID, err)
	}
	defer rows.Close()
	return collectFeatures(rows, 0)
}

func (r *featureRepo) FindByFilters(f repository.Filters) result.Result[[]models.Feature] {
	query := `SELECT ` + featureColumns + ` FROM features WHERE 1=1`
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
		query += ` AND (name LIKE ? OR summary LIKE ?)`
		like := "%" + f.Query + "%"
		args = append(args, like, like)
	}
	query += ` ORDER BY created_at`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return result.Failf[[]models.Feature](result.DatabaseError, "querying features: %v", err)
	}
	defer rows.Close()
	return collectFeatures(rows, f.Limit, f.Tags...)
}

func (r *featureRepo) GetTaskCount(featureID string) result.Result[int] {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM tasks WHERE feature_id = ?`, featureID).Scan(&n); err != nil {
		return result.Failf[int](result.DatabaseError, "counting tasks for feature %s: %v", featureID, err)
	}
	return result.Ok(n)
}

func (r *featureRepo) GetTaskCountsByFeatureID(featureID string) result.Result[repository.TaskCounts] {
	rows, err := r.db.Query(`SELECT status, COUNT(*) FROM tasks WHERE feature_id = ? GROUP BY status`, featureID)
	if err != nil {
		return result.Failf[repository.TaskCounts](result.DatabaseError, "counting tasks by status for feature %s: %v", featureID, err)
	}
	defer rows.Close()

	var counts repository.TaskCounts
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return result.Failf[repository.TaskCounts](result.DatabaseError, "scanning task count: %v", err)
		}
		counts.Total += n
		switch strings.ToLower(status) {
		case "pending":
			counts.Pending = n
		case "in-progress", "in_progress":
			counts.InProgress = n
		case "completed":
			counts.Completed = n
		case "cancelled":
			counts.Cancelled = n
		case "testing":
			counts.Testing = n
		case "blocked":
			counts.Blocked = n
		}
	}
	return result.Ok(counts)
}

func (r *featureRepo) query(query string, limit int) result.Result[[]models.Feature] {
	rows, err := r.db.Query(query)
	if err != nil {
		return result.Failf[[]models.Feature](result.DatabaseError, "querying features: %v", err)
	}
	defer rows.Close()
	return collectFeatures(rows, limit)
}

func collectFeatures(rows *sql.Rows, limit int, tagFilter ...string) result.Result[[]models.Feature] {
	out := make([]models.Feature, 0)
	for rows.Next() {
		f, err := scanFeature(rows)
		if err != nil {
			return result.Failf[[]models.Feature](result.DatabaseError, "scanning feature: %v", err)
		}
		if len(tagFilter) > 0 && !f.Tags.Intersects(tagFilter) {
			continue
		}
		out = append(out, f)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return result.Ok(out)
}

func scanFeature(row scanner) (models.Feature, error) {
	var f models.Feature
	var tags, priority string
	var projectID sql.NullString
	err := row.Scan(&f.ID, &f.Name, &f.Summary, &f.Description, &f.Status, &priority, &projectID,
		&f.RequiresVerification, &tags, &f.CreatedAt, &f.ModifiedAt)
	if err != nil {
		return models.Feature{}, err
	}
	f.Priority = models.Priority(priority)
	f.ProjectID = projectID.String
	f.Tags = decodeTags(tags)
	return f, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
