package repository

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jpicklyk/task-orchestrator/internal/models"
	"github.com/jpicklyk/task-orchestrator/internal/result"
)

// Memory is an in-process Repository implementation backed by maps
// guarded by a single RWMutex. It is the default fixture for engine
// tests (a full fake rather than a generated mock) and is suitable as
// the server's repository when no SQLite file is configured.
type Memory struct {
	mu sync.RWMutex

	projects     map[string]models.Project
	features     map[string]models.Feature
	tasks        map[string]models.Task
	sections     map[string]models.Section
	dependencies map[string]models.Dependency
	roleLog      []models.RoleTransition
	templates    map[string]models.Template
}

// NewMemory constructs an empty Memory repository.
func NewMemory() *Memory {
	return &Memory{
		projects:     make(map[string]models.Project),
		features:     make(map[string]models.Feature),
		tasks:        make(map[string]models.Task),
		sections:     make(map[string]models.Section),
		dependencies: make(map[string]models.Dependency),
		templates:    make(map[string]models.Template),
	}
}

func (m *Memory) Projects() ProjectRepository             { return (*memoryProjects)(m) }
func (m *Memory) Features() FeatureRepository             { return (*memoryFeatures)(m) }
func (m *Memory) Tasks() TaskRepository                   { return (*memoryTasks)(m) }
func (m *Memory) Sections() SectionRepository             { return (*memorySections)(m) }
func (m *Memory) Dependencies() DependencyRepository      { return (*memoryDependencies)(m) }
func (m *Memory) RoleTransitions() RoleTransitionRepository { return (*memoryRoleTransitions)(m) }
func (m *Memory) Templates() TemplateRepository           { return (*memoryTemplates)(m) }

// ---- projects ----

type memoryProjects Memory

func (r *memoryProjects) GetByID(id string) result.Result[models.Project] {
	m := (*Memory)(r)
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.projects[id]
	if !ok {
		return result.Fail[models.Project](result.NotFound, "project not found: "+id)
	}
	return result.Ok(p)
}

func (r *memoryProjects) Create(p models.Project) result.Result[models.Project] {
	m := (*Memory)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = models.NewID()
	}
	now := time.Now()
	p.CreatedAt, p.ModifiedAt = now, now
	m.projects[p.ID] = p
	return result.Ok(p)
}

func (r *memoryProjects) Update(p models.Project) result.Result[models.Project] {
	m := (*Memory)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[p.ID]; !ok {
		return result.Fail[models.Project](result.NotFound, "project not found: "+p.ID)
	}
	p.ModifiedAt = time.Now()
	m.projects[p.ID] = p
	return result.Ok(p)
}

func (r *memoryProjects) Delete(id string, force bool) result.Result[bool] {
	m := (*Memory)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[id]; !ok {
		return result.Fail[bool](result.NotFound, "project not found: "+id)
	}
	if !force {
		for _, f := range m.features {
			if f.ProjectID == id {
				return result.Fail[bool](result.ConflictError, "project has child features; delete with force")
			}
		}
	}
	delete(m.projects, id)
	return result.Ok(true)
}

func (r *memoryProjects) FindAll(limit int) result.Result[[]models.Project] {
	m := (*Memory)(r)
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Project, 0, len(m.projects))
	for _, p := range m.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return result.Ok(applyLimit(out, limit))
}

func (r *memoryProjects) FindByFilters(f Filters) result.Result[[]models.Project] {
	m := (*Memory)(r)
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Project, 0)
	for _, p := range m.projects {
		if f.Status != "" && !strings.EqualFold(p.Status, f.Status) {
			continue
		}
		if len(f.Tags) > 0 && !p.Tags.Intersects(f.Tags) {
			continue
		}
		if f.Query != "" && !containsFold(p.Name, f.Query) && !containsFold(p.Summary, f.Query) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return result.Ok(applyLimit(out, f.Limit))
}

func (r *memoryProjects) GetFeatureCountsByProjectID(projectID string) result.Result[map[string]int] {
	m := (*Memory)(r)
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[string]int)
	for _, f := range m.features {
		if f.ProjectID == projectID {
			counts[f.Status]++
		}
	}
	return result.Ok(counts)
}

// ---- features ----

type memoryFeatures Memory

func (r *memoryFeatures) GetByID(id string) result.Result[models.Feature] {
	m := (*Memory)(r)
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.features[id]
	if !ok {
		return result.Fail[models.Feature](result.NotFound, "feature not found: "+id)
	}
	return result.Ok(f)
}

func (r *memoryFeatures) Create(f models.Feature) result.Result[models.Feature] {
	m := (*Memory)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	if f.ProjectID != "" {
		if _, ok := m.projects[f.ProjectID]; !ok {
			return result.Fail[models.Feature](result.ValidationError, "projectId does not reference an existing project")
		}
	}
	if f.ID == "" {
		f.ID = models.NewID()
	}
	now := time.Now()
	f.CreatedAt, f.ModifiedAt = now, now
	m.features[f.ID] = f
	return result.Ok(f)
}

func (r *memoryFeatures) Update(f models.Feature) result.Result[models.Feature] {
	m := (*Memory)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.features[f.ID]; !ok {
		return result.Fail[models.Feature](result.NotFound, "feature not found: "+f.ID)
	}
	if f.ProjectID != "" {
		if _, ok := m.projects[f.ProjectID]; !ok {
			return result.Fail[models.Feature](result.ValidationError, "projectId does not reference an existing project")
		}
	}
	f.ModifiedAt = time.Now()
	m.features[f.ID] = f
	return result.Ok(f)
}

func (r *memoryFeatures) Delete(id string, force bool) result.Result[bool] {
	m := (*Memory)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.features[id]; !ok {
		return result.Fail[bool](result.NotFound, "feature not found: "+id)
	}
	if !force {
		for _, t := range m.tasks {
			if t.FeatureID == id {
				return result.Fail[bool](result.ConflictError, "feature has child tasks; delete with force")
			}
		}
	}
	delete(m.features, id)
	return result.Ok(true)
}

func (r *memoryFeatures) FindAll(limit int) result.Result[[]models.Feature] {
	m := (*Memory)(r)
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Feature, 0, len(m.features))
	for _, f := range m.features {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return result.Ok(applyLimit(out, limit))
}

func (r *memoryFeatures) FindByFilters(f Filters) result.Result[[]models.Feature] {
	m := (*Memory)(r)
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Feature, 0)
	for _, feat := range m.features {
		if f.ProjectID != "" && feat.ProjectID != f.ProjectID {
			continue
		}
		if f.Status != "" && !strings.EqualFold(feat.Status, f.Status) {
			continue
		}
		if f.Priority != "" && !strings.EqualFold(string(feat.Priority), f.Priority) {
			continue
		}
		if len(f.Tags) > 0 && !feat.Tags.Intersects(f.Tags) {
			continue
		}
		if f.Query != "" && !containsFold(feat.Name, f.Query) && !containsFold(feat.Summary, f.Query) {
			continue
		}
		out = append(out, feat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return result.Ok(applyLimit(out, f.Limit))
}

func (r *memoryFeatures) FindByProject(projectID string) result.Result[[]models.Feature] {
	return r.FindByFilters(Filters{ProjectID: projectID})
}

func (r *memoryFeatures) GetTaskCount(featureID string) result.Result[int] {
	m := (*Memory)(r)
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, t := range m.tasks {
		if t.FeatureID == featureID {
			count++
		}
	}
	return result.Ok(count)
}

func (r *memoryFeatures) GetTaskCountsByFeatureID(featureID string) result.Result[TaskCounts] {
	m := (*Memory)(r)
	m.mu.RLock()
	defer m.mu.RUnlock()
	var c TaskCounts
	for _, t := range m.tasks {
		if t.FeatureID != featureID {
			continue
		}
		c.Total++
		switch strings.ToLower(t.Status) {
		case "pending":
			c.Pending++
		case "in-progress":
			c.InProgress++
		case "completed":
			c.Completed++
		case "cancelled":
			c.Cancelled++
		case "testing":
			c.Testing++
		case "blocked":
			c.Blocked++
		}
	}
	return result.Ok(c)
}

// ---- tasks ----

type memoryTasks Memory

func (r *memoryTasks) GetByID(id string) result.Result[models.Task] {
	m := (*Memory)(r)
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[id]
	if !ok {
		return result.Fail[models.Task](result.NotFound, "task not found: "+id)
	}
	return result.Ok(t)
}

func (r *memoryTasks) Create(t models.Task) result.Result[models.Task] {
	m := (*Memory)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.FeatureID != "" {
		if _, ok := m.features[t.FeatureID]; !ok {
			return result.Fail[models.Task](result.ValidationError, "featureId does not reference an existing feature")
		}
	}
	if t.ProjectID != "" {
		if _, ok := m.projects[t.ProjectID]; !ok {
			return result.Fail[models.Task](result.ValidationError, "projectId does not reference an existing project")
		}
	}
	if t.ID == "" {
		t.ID = models.NewID()
	}
	now := time.Now()
	t.CreatedAt, t.ModifiedAt = now, now
	m.tasks[t.ID] = t
	return result.Ok(t)
}

func (r *memoryTasks) Update(t models.Task) result.Result[models.Task] {
	m := (*Memory)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[t.ID]; !ok {
		return result.Fail[models.Task](result.NotFound, "task not found: "+t.ID)
	}
	if t.FeatureID != "" {
		if _, ok := m.features[t.FeatureID]; !ok {
			return result.Fail[models.Task](result.ValidationError, "featureId does not reference an existing feature")
		}
	}
	if t.ProjectID != "" {
		if _, ok := m.projects[t.ProjectID]; !ok {
			return result.Fail[models.Task](result.ValidationError, "projectId does not reference an existing project")
		}
	}
	t.ModifiedAt = time.Now()
	m.tasks[t.ID] = t
	return result.Ok(t)
}

func (r *memoryTasks) Delete(id string, force bool) result.Result[bool] {
	m := (*Memory)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return result.Fail[bool](result.NotFound, "task not found: "+id)
	}
	hasDeps := false
	for _, d := range m.dependencies {
		if d.FromTaskID == id || d.ToTaskID == id {
			hasDeps = true
			break
		}
	}
	if hasDeps {
		if !force {
			return result.Fail[bool](result.ConflictError, "task has dependency edges; delete with force")
		}
		for depID, d := range m.dependencies {
			if d.FromTaskID == id || d.ToTaskID == id {
				delete(m.dependencies, depID)
			}
		}
	}
	delete(m.tasks, id)
	return result.Ok(true)
}

func (r *memoryTasks) FindAll(limit int) result.Result[[]models.Task] {
	m := (*Memory)(r)
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return result.Ok(applyLimit(out, limit))
}

func (r *memoryTasks) FindByFilters(f Filters) result.Result[[]models.Task] {
	m := (*Memory)(r)
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Task, 0)
	for _, t := range m.tasks {
		if f.ProjectID != "" && t.ProjectID != f.ProjectID {
			continue
		}
		if f.Status != "" && !strings.EqualFold(t.Status, f.Status) {
			continue
		}
		if f.Priority != "" && !strings.EqualFold(string(t.Priority), f.Priority) {
			continue
		}
		if len(f.Tags) > 0 && !t.Tags.Intersects(f.Tags) {
			continue
		}
		if f.Query != "" && !containsFold(t.Title, f.Query) && !containsFold(t.Summary, f.Query) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return result.Ok(applyLimit(out, f.Limit))
}

func (r *memoryTasks) FindByProject(projectID string) result.Result[[]models.Task] {
	return r.FindByFilters(Filters{ProjectID: projectID})
}

func (r *memoryTasks) FindByFeature(featureID string) result.Result[[]models.Task] {
	m := (*Memory)(r)
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Task, 0)
	for _, t := range m.tasks {
		if t.FeatureID == featureID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return result.Ok(out)
}

// ---- sections ----

type memorySections Memory

func (r *memorySections) GetSectionsForEntity(entityType models.EntityType, entityID string) result.Result[[]models.Section] {
	m := (*Memory)(r)
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Section, 0)
	for _, s := range m.sections {
		if s.EntityType == entityType && s.EntityID == entityID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ordinal < out[j].Ordinal })
	return result.Ok(out)
}

func (r *memorySections) Create(s models.Section) result.Result[models.Section] {
	m := (*Memory)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.sections {
		if existing.EntityType == s.EntityType && existing.EntityID == s.EntityID && existing.Ordinal == s.Ordinal {
			return result.Fail[models.Section](result.ConflictError, "ordinal already in use for this entity")
		}
	}
	if s.ID == "" {
		s.ID = models.NewID()
	}
	m.sections[s.ID] = s
	return result.Ok(s)
}

func (r *memorySections) Update(s models.Section) result.Result[models.Section] {
	m := (*Memory)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sections[s.ID]; !ok {
		return result.Fail[models.Section](result.NotFound, "section not found: "+s.ID)
	}
	m.sections[s.ID] = s
	return result.Ok(s)
}

func (r *memorySections) Delete(id string) result.Result[bool] {
	m := (*Memory)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sections[id]; !ok {
		return result.Fail[bool](result.NotFound, "section not found: "+id)
	}
	delete(m.sections, id)
	return result.Ok(true)
}

func (r *memorySections) DeleteForEntity(entityType models.EntityType, entityID string) result.Result[int] {
	m := (*Memory)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sections {
		if s.EntityType == entityType && s.EntityID == entityID {
			delete(m.sections, id)
			n++
		}
	}
	return result.Ok(n)
}

// ---- dependencies ----

type memoryDependencies Memory

func (r *memoryDependencies) FindByTaskID(taskID string) result.Result[[]models.Dependency] {
	m := (*Memory)(r)
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Dependency, 0)
	for _, d := range m.dependencies {
		if d.FromTaskID == taskID || d.ToTaskID == taskID {
			out = append(out, d)
		}
	}
	return result.Ok(out)
}

func (r *memoryDependencies) FindByToTaskID(taskID string) result.Result[[]models.Dependency] {
	m := (*Memory)(r)
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Dependency, 0)
	for _, d := range m.dependencies {
		if d.ToTaskID == taskID {
			out = append(out, d)
		}
	}
	return result.Ok(out)
}

func (r *memoryDependencies) FindByFromTaskID(taskID string) result.Result[[]models.Dependency] {
	m := (*Memory)(r)
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Dependency, 0)
	for _, d := range m.dependencies {
		if d.FromTaskID == taskID {
			out = append(out, d)
		}
	}
	return result.Ok(out)
}

func (r *memoryDependencies) Create(d models.Dependency) result.Result[models.Dependency] {
	m := (*Memory)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[d.FromTaskID]; !ok {
		return result.Fail[models.Dependency](result.ValidationError, "fromTaskId does not reference an existing task")
	}
	if _, ok := m.tasks[d.ToTaskID]; !ok {
		return result.Fail[models.Dependency](result.ValidationError, "toTaskId does not reference an existing task")
	}
	if d.ID == "" {
		d.ID = models.NewID()
	}
	d.CreatedAt = time.Now()
	m.dependencies[d.ID] = d
	return result.Ok(d)
}

func (r *memoryDependencies) Delete(id string) result.Result[bool] {
	m := (*Memory)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.dependencies[id]; !ok {
		return result.Fail[bool](result.NotFound, "dependency not found: "+id)
	}
	delete(m.dependencies, id)
	return result.Ok(true)
}

func (r *memoryDependencies) DeleteByTaskID(taskID string) result.Result[int] {
	m := (*Memory)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, d := range m.dependencies {
		if d.FromTaskID == taskID || d.ToTaskID == taskID {
			delete(m.dependencies, id)
			n++
		}
	}
	return result.Ok(n)
}

// ---- role transitions ----

type memoryRoleTransitions Memory

func (r *memoryRoleTransitions) Create(rt models.RoleTransition) result.Result[models.RoleTransition] {
	m := (*Memory)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	if rt.ID == "" {
		rt.ID = models.NewID()
	}
	if rt.TransitionedAt.IsZero() {
		rt.TransitionedAt = time.Now()
	}
	m.roleLog = append(m.roleLog, rt)
	return result.Ok(rt)
}

func (r *memoryRoleTransitions) FindByEntityID(entityID string) result.Result[[]models.RoleTransition] {
	m := (*Memory)(r)
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.RoleTransition, 0)
	for _, rt := range m.roleLog {
		if rt.EntityID == entityID {
			out = append(out, rt)
		}
	}
	return result.Ok(out)
}

// ---- templates ----

type memoryTemplates Memory

func (r *memoryTemplates) GetByID(id string) result.Result[models.Template] {
	m := (*Memory)(r)
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.templates[id]
	if !ok {
		return result.Fail[models.Template](result.NotFound, "template not found: "+id)
	}
	return result.Ok(t)
}

func (r *memoryTemplates) FindAll() result.Result[[]models.Template] {
	m := (*Memory)(r)
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Template, 0, len(m.templates))
	for _, t := range m.templates {
		out = append(out, t)
	}
	return result.Ok(out)
}

// AddTemplate seeds a template directly, used by tests and by startup
// fixtures; not part of the Repository interface since templates are
// authored out-of-band, not through the tool dispatch surface.
func (m *Memory) AddTemplate(t models.Template) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == "" {
		t.ID = models.NewID()
	}
	m.templates[t.ID] = t
}

func applyLimit[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
