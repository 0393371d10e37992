package workflow

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jpicklyk/task-orchestrator/internal/config"
)

func taskConfig() *config.Config {
	return config.Default()
}

func TestValidateStatus_RejectsUnknownStatus(t *testing.T) {
	out := ValidateStatus(taskConfig(), "task", "bogus-status", nil)
	assert.Equal(t, Invalid, out.Verdict)
}

func TestValidateStatus_AcceptsKnownStatus(t *testing.T) {
	out := ValidateStatus(taskConfig(), "task", "pending", nil)
	assert.Equal(t, Valid, out.Verdict)
}

func TestValidateStatus_DeployedWithoutEnvironmentTagIsAdvisory(t *testing.T) {
	cfg := taskConfig()
	cfg.StatusProgression.Tasks.TerminalStatuses = append(cfg.StatusProgression.Tasks.TerminalStatuses, "deployed")
	out := ValidateStatus(cfg, "task", "deployed", nil)
	assert.Equal(t, ValidWithAdvisory, out.Verdict)
	assert.NotEmpty(t, out.Advisory)
}

func TestValidateStatus_DeployedWithEnvironmentTagIsValid(t *testing.T) {
	cfg := taskConfig()
	cfg.StatusProgression.Tasks.TerminalStatuses = append(cfg.StatusProgression.Tasks.TerminalStatuses, "deployed")
	out := ValidateStatus(cfg, "task", "deployed", []string{"staging"})
	assert.Equal(t, Valid, out.Verdict)
}

// fakeCtx is a minimal PrereqContext test double.
type fakeCtx struct {
	featureTaskCount    int
	featureTaskStatuses []string
	projectFeatureStats []string
	taskSummary         string
	blockers            []BlockingSource
	err                 error
}

func (f *fakeCtx) FeatureChildTaskCount(string) (int, error) { return f.featureTaskCount, f.err }
func (f *fakeCtx) FeatureChildTaskStatuses(string) ([]string, error) {
	return f.featureTaskStatuses, f.err
}
func (f *fakeCtx) ProjectChildFeatureStatuses(string) ([]string, error) {
	return f.projectFeatureStats, f.err
}
func (f *fakeCtx) TaskSummary(string) (string, error) { return f.taskSummary, f.err }
func (f *fakeCtx) TaskInboundBlockers(string) ([]BlockingSource, error) {
	return f.blockers, f.err
}

func TestValidatePrerequisites_FeatureInDevelopmentRequiresChildTasks(t *testing.T) {
	out := ValidatePrerequisites("feature", "f1", "in-development", &fakeCtx{featureTaskCount: 0})
	assert.Equal(t, Invalid, out.Verdict)

	out = ValidatePrerequisites("feature", "f1", "in-development", &fakeCtx{featureTaskCount: 2})
	assert.Equal(t, Valid, out.Verdict)
}

func TestValidatePrerequisites_FeatureCompletedRequiresAllTasksTerminal(t *testing.T) {
	out := ValidatePrerequisites("feature", "f1", "completed", &fakeCtx{
		featureTaskStatuses: []string{"completed", "in-progress"},
	})
	assert.Equal(t, Invalid, out.Verdict)
	assert.Contains(t, out.Reason, "1 child task")

	out = ValidatePrerequisites("feature", "f1", "completed", &fakeCtx{
		featureTaskStatuses: []string{"completed", "cancelled"},
	})
	assert.Equal(t, Valid, out.Verdict)
}

func TestValidatePrerequisites_ProjectCompletedRequiresAllFeaturesTerminal(t *testing.T) {
	out := ValidatePrerequisites("project", "p1", "completed", &fakeCtx{
		projectFeatureStats: []string{"completed", "planning"},
	})
	assert.Equal(t, Invalid, out.Verdict)
}

func TestValidatePrerequisites_TaskInProgressRequiresUnblockedDependencies(t *testing.T) {
	out := ValidatePrerequisites("task", "t1", "in-progress", &fakeCtx{
		blockers: []BlockingSource{{TaskID: "blocker", Title: "Blocker task", Role: "work", UnblockAt: "terminal"}},
	})
	assert.Equal(t, Invalid, out.Verdict)
	assert.Contains(t, out.Suggestions, "Blocker task")

	out = ValidatePrerequisites("task", "t1", "in-progress", &fakeCtx{
		blockers: []BlockingSource{{TaskID: "blocker", Title: "Blocker task", Role: "terminal", UnblockAt: "terminal"}},
	})
	assert.Equal(t, Valid, out.Verdict)
}

func TestValidatePrerequisites_TaskCompletedRequiresSummaryLength(t *testing.T) {
	out := ValidatePrerequisites("task", "t1", "completed", &fakeCtx{taskSummary: "too short"})
	assert.Equal(t, Invalid, out.Verdict)

	out = ValidatePrerequisites("task", "t1", "completed", &fakeCtx{taskSummary: longSummary()})
	assert.Equal(t, Valid, out.Verdict)
}

func longSummary() string {
	return fmt.Sprintf("%0350d", 0)
}

func TestValidatePrerequisites_NilContextAlwaysValid(t *testing.T) {
	out := ValidatePrerequisites("task", "t1", "completed", nil)
	assert.Equal(t, Valid, out.Verdict)
}

func TestTruncateSuggestions_CapsAtThreeWithCount(t *testing.T) {
	out := truncateSuggestions([]string{"a", "b", "c", "d", "e"})
	assert.Equal(t, []string{"a", "b", "c", "and 2 more"}, out)
}
