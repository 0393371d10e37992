package dispatch

// ManageContainerParams is the parameter envelope for manage_container.
// Operation selects which fields apply; unused fields are ignored.
// bulkUpdate uses either IDs (apply the top-level fields to each id) or
// Containers (each entry overrides the top-level fields for itself); the
// two are mutually exclusive and together capped at 100 entries.
type ManageContainerParams struct {
	Operation     string   `json:"operation"`
	ContainerType string   `json:"containerType"`
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Title         string   `json:"title"`
	Summary       string   `json:"summary"`
	Description   string   `json:"description"`
	Status        string   `json:"status"`
	Priority      string   `json:"priority"`
	Complexity    int      `json:"complexity"`
	ProjectID     string   `json:"projectId"`
	FeatureID     string   `json:"featureId"`
	Tags          []string `json:"tags"`

	RequiresVerification *bool `json:"requiresVerification"`
	Force                 bool  `json:"force"`

	TemplateIDs []string `json:"templateIds"`

	IDs        []string            `json:"ids,omitempty"`
	Containers []BulkContainerItem `json:"containers,omitempty"`
}

// BulkContainerItem is one entry of a bulkUpdate containers[] list. Any
// field left at its zero value falls back to the request's top-level
// value for that field.
type BulkContainerItem struct {
	ID                   string   `json:"id"`
	Name                 string   `json:"name"`
	Title                string   `json:"title"`
	Summary              string   `json:"summary"`
	Description          string   `json:"description"`
	Status               string   `json:"status"`
	Priority             string   `json:"priority"`
	Complexity           int      `json:"complexity"`
	Tags                 []string `json:"tags"`
	RequiresVerification *bool    `json:"requiresVerification"`
}

// QueryContainerParams is the parameter envelope for query_container.
type QueryContainerParams struct {
	Operation       string   `json:"operation"`
	ContainerType   string   `json:"containerType"`
	ID              string   `json:"id"`
	ProjectID       string   `json:"projectId"`
	FeatureID       string   `json:"featureId"`
	Status          string   `json:"status"`
	Priority        string   `json:"priority"`
	Tags            []string `json:"tags"`
	Query           string   `json:"query"`
	Limit           int      `json:"limit"`
	IncludeSections bool     `json:"includeSections"`
}

// RequestTransitionParams is the parameter envelope for
// request_transition. Exactly one of the top-level fields or
// Transitions should be populated; Transitions signals a batch call.
type RequestTransitionParams struct {
	ContainerID   string                   `json:"containerId"`
	ContainerType string                   `json:"containerType"`
	Trigger       string                   `json:"trigger"`
	Summary       string                   `json:"summary"`
	Transitions   []TransitionItemParams   `json:"transitions,omitempty"`
}

// TransitionItemParams is one entry of a batch request_transition call.
type TransitionItemParams struct {
	ContainerID   string `json:"containerId"`
	ContainerType string `json:"containerType"`
	Trigger       string `json:"trigger"`
	Summary       string `json:"summary"`
}

// GetNextStatusParams is the parameter envelope for get_next_status.
type GetNextStatusParams struct {
	ContainerID   string   `json:"containerId"`
	ContainerType string   `json:"containerType"`
	CurrentStatus string   `json:"currentStatus"`
	Tags          []string `json:"tags"`
}

// GetNextTaskParams is the parameter envelope for get_next_task.
type GetNextTaskParams struct {
	ProjectID string `json:"projectId"`
	FeatureID string `json:"featureId"`
	Limit     int    `json:"limit"`
}

// GetBlockedTasksParams is the parameter envelope for get_blocked_tasks.
type GetBlockedTasksParams struct {
	ProjectID string   `json:"projectId"`
	FeatureID string   `json:"featureId"`
	Status    string   `json:"status"`
	Priority  string   `json:"priority"`
	Tags      []string `json:"tags"`
	Limit     int      `json:"limit"`
}
