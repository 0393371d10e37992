package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_MatchesWorkedExamples(t *testing.T) {
	cfg := Default()
	assert.Equal(t, []string{"pending", "in-progress", "testing", "completed"}, cfg.StatusProgression.Tasks.DefaultFlow)
	assert.True(t, cfg.StatusProgression.Tasks.IsTerminal("deferred"))
	assert.True(t, cfg.StatusProgression.Tasks.IsEmergency("blocked"))
}

func TestProgressionSpec_ActiveFlow_SelectsNamedFlowByTag(t *testing.T) {
	cfg := Default()
	name, flow := cfg.StatusProgression.Tasks.ActiveFlow([]string{"hotfix"})
	assert.Equal(t, "hotfix", name)
	assert.Equal(t, []string{"pending", "in-progress", "completed"}, flow)
}

func TestProgressionSpec_ActiveFlow_FallsBackToDefault(t *testing.T) {
	cfg := Default()
	name, flow := cfg.StatusProgression.Tasks.ActiveFlow([]string{"docs"})
	assert.Equal(t, "default", name)
	assert.Equal(t, cfg.StatusProgression.Tasks.DefaultFlow, flow)
}

func TestConfig_RoleOf_ResolvesCaseInsensitively(t *testing.T) {
	cfg := Default()
	role, ok := cfg.RoleOf("task", "In-Progress")
	assert.True(t, ok)
	assert.Equal(t, "work", role)

	_, ok = cfg.RoleOf("task", "nonexistent")
	assert.False(t, ok)
}

func TestLoader_LoadFrom_FallsBackToDefaultWhenFileMissing(t *testing.T) {
	dir := t.TempDir()
	loader := NewLoader(nil)
	cfg := loader.LoadFrom(dir)
	assert.Equal(t, "built-in default", cfg.Source)
}

func TestLoader_LoadFrom_ParsesOverridesAndFlowNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ConfigDirName), 0o755))

	doc := `
status_validation:
  enforce_sequential: false
  allow_backward: false
status_progression:
  tasks:
    default_flow: [pending, in-progress, completed]
    docs_flow: [pending, completed]
    terminal_statuses: [completed, cancelled]
    emergency_transitions: [cancelled]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigDirName, ConfigFileName), []byte(doc), 0o644))

	loader := NewLoader(nil)
	cfg := loader.LoadFrom(dir)

	assert.False(t, cfg.StatusValidation.EnforceSequential)
	assert.False(t, cfg.StatusValidation.AllowBackward)
	assert.Equal(t, []string{"pending", "in-progress", "completed"}, cfg.StatusProgression.Tasks.DefaultFlow)
	assert.Equal(t, []string{"pending", "completed"}, cfg.StatusProgression.Tasks.NamedFlows["docs"])
	assert.Contains(t, cfg.Source, ConfigFileName)
}

func TestLoader_LoadFrom_CachesWithinTTL(t *testing.T) {
	dir := t.TempDir()
	loader := NewLoader(nil)
	first := loader.LoadFrom(dir)
	second := loader.LoadFrom(dir)
	assert.Equal(t, first.Source, second.Source)
}

func TestLoader_Invalidate_ForcesReload(t *testing.T) {
	dir := t.TempDir()
	loader := NewLoader(nil)
	_ = loader.LoadFrom(dir)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, ConfigDirName), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigDirName, ConfigFileName),
		[]byte("status_validation:\n  allow_backward: false\n"), 0o644))

	loader.Invalidate()
	cfg := loader.LoadFrom(dir)
	assert.False(t, cfg.StatusValidation.AllowBackward)
	assert.Contains(t, cfg.Source, ConfigFileName)
}

func TestLoader_LoadFrom_DifferentDirectoriesBypassCache(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dirB, ConfigDirName), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dirB, ConfigDirName, ConfigFileName),
		[]byte("status_validation:\n  allow_backward: false\n"), 0o644))

	loader := NewLoader(nil)
	a := loader.LoadFrom(dirA)
	b := loader.LoadFrom(dirB)
	assert.True(t, a.StatusValidation.AllowBackward)
	assert.False(t, b.StatusValidation.AllowBackward)
}
