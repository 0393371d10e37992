package sqlite

import (
	"encoding/json"

	"github.com/jpicklyk/task-orchestrator/internal/models"
)

func encodeTags(tags models.Tags) string {
	if len(tags) == 0 {
		return ""
	}
	b, _ := json.Marshal([]string(tags))
	return string(b)
}

func decodeTags(raw string) models.Tags {
	if raw == "" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil
	}
	return models.Tags(tags)
}
