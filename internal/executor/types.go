// Package executor implements the transition executor and the
// get_next_status read-only helper: single and batch status transitions,
// the verification gate, role-transition logging, cascade
// application/detection, and the "newly unblocked" computation, assembled
// into the response envelope the dispatch layer renders.
package executor

import (
	"github.com/jpicklyk/task-orchestrator/internal/cleanup"
)

// Trigger is a short symbolic verb a caller passes to RequestTransition.
type Trigger string

const (
	TriggerCancel  Trigger = "cancel"
	TriggerBlock   Trigger = "block"
	TriggerHold    Trigger = "hold"
	TriggerArchive Trigger = "archive"
)

// emergencyTriggerStatus maps the fixed emergency triggers to the
// canonical status name the configuration is expected to declare as an
// emergency transition.
var emergencyTriggerStatus = map[Trigger]string{
	TriggerCancel:  "cancelled",
	TriggerBlock:   "blocked",
	TriggerHold:    "on-hold",
	TriggerArchive: "archived",
}

// TransitionRequest is one item of a request_transition call. TargetStatus,
// when set, bypasses trigger resolution entirely and is used as the target
// status directly — manage_container's setStatus operation delegates
// through this path rather than through a Trigger verb.
type TransitionRequest struct {
	ContainerID   string
	ContainerType string
	Trigger       Trigger
	TargetStatus  string
	Summary       string
}

// TransitionResponse is the per-item outcome RequestTransition and
// RequestTransitionBatch produce.
type TransitionResponse struct {
	Applied         bool
	Message         string
	PreviousStatus  string
	NewStatus       string
	PreviousRole    string
	NewRole         string
	ErrorCode       string
	ErrorDetails    string
	Suggestions     []string
	FailingCriteria []string
	// Gate names the failed completion gate ("verification") when
	// ErrorCode is set because that gate rejected the transition.
	Gate string
	// CurrentStatus and AttemptedStatus mirror the entity's status at
	// fetch time and the status this request tried to reach, surfaced on
	// failure so a caller can render "tried X from Y" without a second
	// lookup.
	CurrentStatus   string
	AttemptedStatus string
	CascadeEvents   []CascadeEventView
	UnblockedTasks  []UnblockedView
}

// CascadeEventView is the response-shaped rendering of either a detected
// (not-yet-applied) cascade suggestion or an Applied cascade record.
type CascadeEventView struct {
	Event          string
	TargetType     string
	TargetID       string
	TargetName     string
	PreviousStatus string
	NewStatus      string
	Applied        bool
	Automatic      bool
	Reason         string
	Error          string
	Cleanup        *cleanup.Summary
	ChildCascades  []CascadeEventView
}

// UnblockedView is one entry of a transition response's unblockedTasks.
type UnblockedView struct {
	TaskID string
	Title  string
}

// BatchItemResult pairs a request with its outcome for batch responses.
type BatchItemResult struct {
	ContainerID string
	Response    TransitionResponse
}

// BatchSummary aggregates a batch transition's outcomes.
type BatchSummary struct {
	Total           int
	Succeeded       int
	Failed          int
	CascadesApplied int
}

// BatchResponse is the full result of a batch request_transition call.
type BatchResponse struct {
	Items   []BatchItemResult
	Summary BatchSummary
}
