// Package models defines the entities of the task-orchestration data model:
// Project, Feature, Task, Section, Dependency, RoleTransition, and the
// Template/TemplateSection pair used to materialize section bundles.
//
// Statuses and priorities are carried as opaque strings wherever a
// workflow-configured value is involved (status, in particular) — the
// configuration, not this package, drives the allowed set. See
// internal/config and internal/workflow.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// EntityType names the three hierarchy levels plus the section/template
// owner types used by the repository and dispatch layers.
type EntityType string

const (
	EntityProject EntityType = "project"
	EntityFeature EntityType = "feature"
	EntityTask    EntityType = "task"
)

// Priority is a coarse ranking used to order task selection in
// get_next_task and to filter queries.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank returns the sort weight of a priority, lower is more urgent.
// Unknown priorities sort last.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// ContentFormat is the encoding of a Section's Content field.
type ContentFormat string

const (
	ContentMarkdown ContentFormat = "markdown"
	ContentJSON     ContentFormat = "json"
	ContentPlain    ContentFormat = "plain"
)

// FilesChangedOrdinal is the reserved ordinal conventionally used for the
// "files changed" section of an entity.
const FilesChangedOrdinal = 999

// Tags is an ordered list of short, case-preserving labels. Tag
// comparisons elsewhere in the engine are case-insensitive.
type Tags []string

// Has reports whether the tag set contains needle, case-insensitively.
func (t Tags) Has(needle string) bool {
	for _, tag := range t {
		if strings.EqualFold(tag, needle) {
			return true
		}
	}
	return false
}

// Intersects reports whether t shares at least one tag with other,
// case-insensitively.
func (t Tags) Intersects(other []string) bool {
	for _, o := range other {
		if t.Has(o) {
			return true
		}
	}
	return false
}

// Project is the top level of the hierarchy.
type Project struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Summary     string    `json:"summary" db:"summary"`
	Description string    `json:"description,omitempty" db:"description"`
	Status      string    `json:"status" db:"status"`
	Tags        Tags      `json:"tags,omitempty" db:"tags"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	ModifiedAt  time.Time `json:"modifiedAt" db:"modified_at"`
}

// Feature belongs to an optional parent Project.
type Feature struct {
	ID                    string    `json:"id" db:"id"`
	Name                  string    `json:"name" db:"name"`
	Summary               string    `json:"summary" db:"summary"`
	Description           string    `json:"description,omitempty" db:"description"`
	Status                string    `json:"status" db:"status"`
	Priority              Priority  `json:"priority" db:"priority"`
	ProjectID             string    `json:"projectId,omitempty" db:"project_id"`
	RequiresVerification  bool      `json:"requiresVerification" db:"requires_verification"`
	Tags                  Tags      `json:"tags,omitempty" db:"tags"`
	CreatedAt             time.Time `json:"createdAt" db:"created_at"`
	ModifiedAt            time.Time `json:"modifiedAt" db:"modified_at"`
}

// Task is the atomic unit of work; it may belong to a Feature and/or a
// Project directly.
type Task struct {
	ID                   string    `json:"id" db:"id"`
	Title                string    `json:"title" db:"title"`
	Summary              string    `json:"summary" db:"summary"`
	Description          string    `json:"description,omitempty" db:"description"`
	Status               string    `json:"status" db:"status"`
	Priority             Priority  `json:"priority" db:"priority"`
	Complexity           int       `json:"complexity" db:"complexity"`
	ProjectID            string    `json:"projectId,omitempty" db:"project_id"`
	FeatureID            string    `json:"featureId,omitempty" db:"feature_id"`
	RequiresVerification bool      `json:"requiresVerification" db:"requires_verification"`
	Tags                 Tags      `json:"tags,omitempty" db:"tags"`
	CreatedAt            time.Time `json:"createdAt" db:"created_at"`
	ModifiedAt           time.Time `json:"modifiedAt" db:"modified_at"`
}

// DependencyType classifies a task-to-task dependency edge.
type DependencyType string

const (
	DependencyBlocks       DependencyType = "BLOCKS"
	DependencyIsBlockedBy  DependencyType = "IS_BLOCKED_BY"
	DependencyRelatesTo    DependencyType = "RELATES_TO"
)

// Dependency is a directed edge between two tasks. BLOCKS(a->b) and
// IS_BLOCKED_BY(b->a) are semantically equivalent for blocking analysis
//; RELATES_TO never blocks.
type Dependency struct {
	ID         string         `json:"id" db:"id"`
	FromTaskID string         `json:"fromTaskId" db:"from_task_id"`
	ToTaskID   string         `json:"toTaskId" db:"to_task_id"`
	Type       DependencyType `json:"type" db:"type"`
	UnblockAt  string         `json:"unblockAt,omitempty" db:"unblock_at"`
	CreatedAt  time.Time      `json:"createdAt" db:"created_at"`
}

// Blocks reports whether this edge participates in blocking analysis.
func (d Dependency) Blocks() bool {
	return d.Type == DependencyBlocks || d.Type == DependencyIsBlockedBy
}

// RoleTransition is an append-only audit row written whenever a status
// change crosses a role boundary.
type RoleTransition struct {
	ID             string     `json:"id" db:"id"`
	EntityID       string     `json:"entityId" db:"entity_id"`
	EntityType     EntityType `json:"entityType" db:"entity_type"`
	FromRole       string     `json:"fromRole" db:"from_role"`
	ToRole         string     `json:"toRole" db:"to_role"`
	FromStatus     string     `json:"fromStatus" db:"from_status"`
	ToStatus       string     `json:"toStatus" db:"to_status"`
	TransitionedAt time.Time  `json:"transitionedAt" db:"transitioned_at"`
	Trigger        string     `json:"trigger" db:"trigger"`
	Summary        string     `json:"summary,omitempty" db:"summary"`
}

// Section is a titled, ordered content block attached to exactly one
// owner entity.
type Section struct {
	ID               string        `json:"id" db:"id"`
	EntityType       EntityType    `json:"entityType" db:"entity_type"`
	EntityID         string        `json:"entityId" db:"entity_id"`
	Title            string        `json:"title" db:"title"`
	Ordinal          int           `json:"ordinal" db:"ordinal"`
	ContentFormat    ContentFormat `json:"contentFormat" db:"content_format"`
	Content          string        `json:"content" db:"content"`
	UsageDescription string        `json:"usageDescription,omitempty" db:"usage_description"`
	Tags             Tags          `json:"tags,omitempty" db:"tags"`
}

// VerificationSectionTitle is the conventional title of the section the
// transition executor's verification gate inspects.
const VerificationSectionTitle = "Verification"

// VerificationCriterion is one entry of a Verification section's JSON
// content.
type VerificationCriterion struct {
	Criteria string `json:"criteria"`
	Pass     bool   `json:"pass"`
}

// TemplateSection is a prototype section belonging to a Template.
type TemplateSection struct {
	ID               string        `json:"id" db:"id"`
	TemplateID       string        `json:"templateId" db:"template_id"`
	Title            string        `json:"title" db:"title"`
	Ordinal          int           `json:"ordinal" db:"ordinal"`
	ContentFormat    ContentFormat `json:"contentFormat" db:"content_format"`
	Content          string        `json:"content" db:"content"`
	UsageDescription string        `json:"usageDescription,omitempty" db:"usage_description"`
}

// Template is a named, ordered bundle of section prototypes applicable to
// a target entity type.
type Template struct {
	ID         string     `json:"id" db:"id"`
	Name       string     `json:"name" db:"name"`
	TargetType EntityType `json:"targetType" db:"target_type"`
	Sections   []TemplateSection `json:"sections,omitempty" db:"-"`
}

// NewID generates a new RFC 4122 UUID string, used for every entity and
// row created by the engine.
func NewID() string {
	return uuid.New().String()
}
