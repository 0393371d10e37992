package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeStatus_HandlesCaseAndSeparators(t *testing.T) {
	assert.Equal(t, "in-progress", NormalizeStatus("in-progress"))
	assert.Equal(t, "in-progress", NormalizeStatus("In_Progress"))
	assert.Equal(t, "in-progress", NormalizeStatus("inProgress"))
	assert.Equal(t, "pending", NormalizeStatus("PENDING"))
}

func TestEqualFold_IgnoresNormalizationDifferences(t *testing.T) {
	assert.True(t, EqualFold("in-progress", "In_Progress"))
	assert.True(t, EqualFold("inProgress", "in-progress"))
	assert.False(t, EqualFold("completed", "cancelled"))
}
