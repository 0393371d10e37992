package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jpicklyk/task-orchestrator/internal/config"
)

func TestValidateTransition_RejectsUnknownTargetStatus(t *testing.T) {
	out := ValidateTransition(taskConfig(), "task", "pending", "nonsense", "", nil, nil)
	assert.Equal(t, Invalid, out.Verdict)
}

func TestValidateTransition_RejectsTransitionFromTerminalStatus(t *testing.T) {
	out := ValidateTransition(taskConfig(), "task", "completed", "in-progress", "", nil, nil)
	assert.Equal(t, Invalid, out.Verdict)
	assert.Contains(t, out.Reason, "terminal")
}

func TestValidateTransition_AllowsSequentialForwardStep(t *testing.T) {
	out := ValidateTransition(taskConfig(), "task", "pending", "in-progress", "", nil, nil)
	assert.Equal(t, Valid, out.Verdict)
}

func TestValidateTransition_RejectsSkippingStatusesWhenSequentialEnforced(t *testing.T) {
	cfg := taskConfig()
	cfg.StatusValidation.EnforceSequential = true
	out := ValidateTransition(cfg, "task", "pending", "completed", "", nil, nil)
	assert.Equal(t, Invalid, out.Verdict)
	assert.NotEmpty(t, out.Suggestions)
}

func TestValidateTransition_RejectsBackwardWhenDisallowed(t *testing.T) {
	cfg := taskConfig()
	cfg.StatusValidation.AllowBackward = false
	out := ValidateTransition(cfg, "task", "in-progress", "pending", "", nil, nil)
	assert.Equal(t, Invalid, out.Verdict)
}

func TestValidateTransition_AllowsBackwardWhenConfigured(t *testing.T) {
	cfg := taskConfig()
	cfg.StatusValidation.AllowBackward = true
	out := ValidateTransition(cfg, "task", "in-progress", "pending", "", nil, nil)
	assert.Equal(t, Valid, out.Verdict)
}

func TestValidateTransition_EmergencyBypassesSequencing(t *testing.T) {
	cfg := config.Default()
	cfg.StatusValidation.AllowEmergency = true
	out := ValidateTransition(cfg, "task", "pending", "cancelled", "", nil, nil)
	assert.Equal(t, Valid, out.Verdict)
}

func TestValidateTransition_RunsPrerequisitesOnLastStep(t *testing.T) {
	cfg := taskConfig()
	cfg.StatusValidation.ValidatePrerequisites = true
	ctx := &fakeCtx{blockers: []BlockingSource{{Title: "Blocker", Role: "queue", UnblockAt: "terminal"}}}
	out := ValidateTransition(cfg, "task", "pending", "in-progress", "t1", nil, ctx)
	assert.Equal(t, Invalid, out.Verdict)
}
