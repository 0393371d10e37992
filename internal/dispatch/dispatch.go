package dispatch

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/jpicklyk/task-orchestrator/internal/blocking"
	"github.com/jpicklyk/task-orchestrator/internal/config"
	"github.com/jpicklyk/task-orchestrator/internal/executor"
	"github.com/jpicklyk/task-orchestrator/internal/locking"
	"github.com/jpicklyk/task-orchestrator/internal/repository"
	"github.com/jpicklyk/task-orchestrator/internal/templates"
)

// Dispatcher routes the six named tool calls to the engine packages,
// serializing writes through the lock table.
type Dispatcher struct {
	repo     repository.Repository
	loader   *config.Loader
	exec     *executor.Executor
	analyser *blocking.Analyser
	applier  *templates.Applier
	locks    *locking.Table
	logger   *log.Logger
}

// New constructs a Dispatcher over an already-wired engine. A nil logger
// defaults to log.Default().
func New(repo repository.Repository, loader *config.Loader, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Dispatcher{
		repo:     repo,
		loader:   loader,
		exec:     executor.New(repo, loader, logger),
		analyser: blocking.New(repo, logger),
		applier:  templates.New(repo),
		locks:    locking.NewTable(),
		logger:   logger,
	}
}

// Call dispatches one named tool call. raw is the tool's JSON parameter
// payload. A panic anywhere below this point is recovered and reported as
// an INTERNAL_ERROR envelope rather than crashing the server.
func (d *Dispatcher) Call(tool string, raw json.RawMessage) (env Envelope) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Printf("dispatch: recovered panic in %s: %v", tool, r)
			env = fail(CodeInternal, "an unexpected error occurred", fmt.Sprintf("%v", r))
		}
	}()

	switch tool {
	case "manage_container":
		return d.manageContainer(raw)
	case "query_container":
		return d.queryContainer(raw)
	case "request_transition":
		return d.requestTransition(raw)
	case "get_next_status":
		return d.getNextStatus(raw)
	case "get_next_task":
		return d.getNextTask(raw)
	case "get_blocked_tasks":
		return d.getBlockedTasks(raw)
	default:
		return fail(CodeValidation, "unknown tool", fmt.Sprintf("no such tool: %s", tool))
	}
}

func decode[T any](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("decoding parameters: %w", err)
	}
	return v, nil
}

func validEntityType(t string) bool {
	switch t {
	case "project", "feature", "task":
		return true
	default:
		return false
	}
}
