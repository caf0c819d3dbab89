// Package models contains the data models and DTOs for the video tagging service.
package models

// Event is a single tagged moment in a video's timeline.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type Event struct {
	ID        int64   `json:"id"`
	Timestamp float64 `json:"timestamp"`
	EventType string  `json:"eventType"`
	Player    string  `json:"player"`
	Outcome   string  `json:"outcome"`
	Time      string  `json:"time"`
	VideoID   string  `json:"videoId,omitempty"`
}

// VideoRecord is the persisted unit per video key. Timestamps are epoch
// milliseconds.
type VideoRecord struct {
	Events       []Event `json:"events"`
	CreatedAt    int64   `json:"createdAt"`
	LastAccessed int64   `json:"lastAccessed"`
}

// FileDescriptor carries the scalar attributes of an uploaded video file.
type FileDescriptor struct {
	Name         string `json:"name" binding:"required"`
	Size         int64  `json:"size" binding:"min=0"`
	LastModified int64  `json:"lastModified" binding:"min=0"`
}

// StatCounter counts attempts for one (player, event type) cell.
type StatCounter struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failure    int `json:"failure"`
}

// AggregatedStats maps player -> event type -> counter.
type AggregatedStats map[string]map[string]*StatCounter

// Vocabulary lists the choices offered when tagging.
type Vocabulary struct {
	EventTypes []string `json:"eventTypes" mapstructure:"eventtypes"`
	Players    []string `json:"players" mapstructure:"players"`
	Outcomes   []string `json:"outcomes" mapstructure:"outcomes"`
}
