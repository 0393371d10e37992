package config

// Default returns the built-in workflow configuration used when
// .taskorchestrator/config.yaml is absent or fails to parse: default task
// flow pending -> in-progress -> testing -> completed, terminal completed
// / cancelled / deferred, emergency blocked / on-hold / cancelled, roles
// queue < work < review < terminal.
func Default() *Config {
	return &Config{
		Source: "built-in default",
		StatusProgression: StatusProgression{
			Projects: ProgressionSpec{
				DefaultFlow: []string{
					"planning", "in-development", "testing", "completed",
				},
				NamedFlows:           map[string][]string{},
				TerminalStatuses:     []string{"completed", "cancelled"},
				EmergencyTransitions: []string{"cancelled", "on-hold"},
			},
			Features: ProgressionSpec{
				DefaultFlow: []string{
					"planning", "in-development", "testing", "completed",
				},
				NamedFlows:           map[string][]string{},
				TerminalStatuses:     []string{"completed", "cancelled"},
				EmergencyTransitions: []string{"cancelled", "on-hold"},
			},
			Tasks: ProgressionSpec{
				DefaultFlow: []string{
					"pending", "in-progress", "testing", "completed",
				},
				NamedFlows: map[string][]string{
					"hotfix": {
						"pending", "in-progress", "completed",
					},
				},
				FlowMappings: []FlowMapping{
					{Tags: []string{"hotfix", "urgent"}, Flow: "hotfix"},
				},
				TerminalStatuses:     []string{"completed", "cancelled", "deferred"},
				EmergencyTransitions: []string{"blocked", "on-hold", "cancelled"},
			},
		},
		StatusValidation: StatusValidation{
			EnforceSequential:     true,
			AllowBackward:         true,
			AllowEmergency:        true,
			ValidatePrerequisites: true,
		},
		AutoCascade: AutoCascade{
			Enabled:  false,
			MaxDepth: 3,
		},
		StatusRoles: map[string]map[string]string{
			"project": {
				"planning":       "queue",
				"in-development": "work",
				"testing":        "review",
				"completed":      "terminal",
				"cancelled":      "terminal",
				"on-hold":        "blocked",
			},
			"feature": {
				"planning":       "queue",
				"in-development": "work",
				"testing":        "review",
				"completed":      "terminal",
				"cancelled":      "terminal",
				"on-hold":        "blocked",
			},
			"task": {
				"pending":     "queue",
				"in-progress": "work",
				"testing":     "review",
				"completed":   "terminal",
				"cancelled":   "terminal",
				"deferred":    "terminal",
				"blocked":     "blocked",
				"on-hold":     "blocked",
			},
		},
	}
}
