package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleAtLeast_OrdersQueueWorkReviewTerminal(t *testing.T) {
	assert.True(t, RoleAtLeast("terminal", "work"))
	assert.True(t, RoleAtLeast("work", "work"))
	assert.False(t, RoleAtLeast("queue", "work"))
	assert.False(t, RoleAtLeast("review", "terminal"))
}

func TestRoleAtLeast_UnknownRoleNeverSatisfies(t *testing.T) {
	assert.False(t, RoleAtLeast("mystery", "queue"))
}
