package domain

import "time"

// CheckpointVersion is the current schema version of persisted checkpoints.
// Envelopes carrying any other version are discarded.
const CheckpointVersion = 1

// Checkpoint is the versioned envelope persisted for a story.
type Checkpoint struct {
	Version int      `json:"version"`
	StoryID string   `json:"storyId"`
	SceneID string   `json:"sceneId"`
	History []string `json:"history"`
	SavedAt int64    `json:"savedAt"` // unix milliseconds
}

// SavedTime converts SavedAt to a time.Time.
func (c *Checkpoint) SavedTime() time.Time {
	return time.UnixMilli(c.SavedAt)
}
