package sqlite

import (
	"database/sql"

	"github.com/jpicklyk/task-orchestrator/internal/models"
	"github.com/jpicklyk/task-orchestrator/internal/result"
)

type roleTransitionRepo struct {
	db *sql.DB
}

func (r *roleTransitionRepo) Create(rt models.RoleTransition) result.Result[models.RoleTransition] {
	if rt.ID == "" {
		rt.ID = models.NewID()
	}
	_, err := r.db.Exec(`INSERT INTO role_transitions
		(id, entity_id, entity_type, from_role, to_role, from_status, to_status, transitioned_at, trigger, summary)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rt.ID, rt.EntityID, string(rt.EntityType), rt.FromRole, rt.ToRole, rt.FromStatus, rt.ToStatus,
		rt.TransitionedAt, rt.Trigger, rt.Summary)
	if err != nil {
		return result.Failf[models.RoleTransition](result.DatabaseError, "logging role transition: %v", err)
	}
	return result.Ok(rt)
}

func (r *roleTransitionRepo) FindByEntityID(entityID string) result.Result[[]models.RoleTransition] {
	rows, err := r.db.Query(`SELECT id, entity_id, entity_type, from_role, to_role, from_status, to_status,
		transitioned_at, trigger, summary FROM role_transitions WHERE entity_id = ? ORDER BY transitioned_at`, entityID)
	if err != nil {
		return result.Failf[[]models.RoleTransition](result.DatabaseError, "querying role transitions for %s: %v", entityID, err)
	}
	defer rows.Close()

	out := make([]models.RoleTransition, 0)
	for rows.Next() {
		var rt models.RoleTransition
		var entityType string
		if err := rows.Scan(&rt.ID, &rt.EntityID, &entityType, &rt.FromRole, &rt.ToRole, &rt.FromStatus,
			&rt.ToStatus, &rt.TransitionedAt, &rt.Trigger, &rt.Summary); err != nil {
			return result.Failf[[]models.RoleTransition](result.DatabaseError, "scanning role transition: %v", err)
		}
		rt.EntityType = models.EntityType(entityType)
		out = append(out, rt)
	}
	return result.Ok(out)
}
