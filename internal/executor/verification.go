package executor

import (
	"encoding/json"
	"fmt"

	"github.com/jpicklyk/task-orchestrator/internal/models"
)

// runVerificationGate locates the entity's "Verification" section and
// requires every criterion's Pass field to be true.
// It returns the list of failing criteria names; an empty, non-nil slice
// means the gate passed.
func (e *Executor) runVerificationGate(entityType, id string) ([]string, error) {
	sectionsResult := e.repo.Sections().GetSectionsForEntity(models.EntityType(entityType), id)
	if sectionsResult.IsErr() {
		return nil, sectionsResult.Err()
	}

	var verificationContent string
	found := false
	for _, s := range sectionsResult.Value() {
		if s.Title == models.VerificationSectionTitle {
			verificationContent = s.Content
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("no %q section found", models.VerificationSectionTitle)
	}

	var criteria []models.VerificationCriterion
	if err := json.Unmarshal([]byte(verificationContent), &criteria); err != nil {
		return nil, fmt.Errorf("parsing verification section: %w", err)
	}

	failing := make([]string, 0)
	for _, c := range criteria {
		if !c.Pass {
			failing = append(failing, c.Criteria)
		}
	}
	return failing, nil
}
