package models

import "time"

// TagRequestDTO is the body of an add-tag request. Duration is the video
// length as reported by the player; zero means unknown.
type TagRequestDTO struct {
	Timestamp *float64 `json:"timestamp" binding:"required"`
	EventType string   `json:"eventType" binding:"required,max=100"`
	Player    string   `json:"player" binding:"required,max=100"`
	Outcome   string   `json:"outcome" binding:"required,max=100"`
	Duration  float64  `json:"duration"`
}

// SeekRequestDTO is the body of a seek request.
type SeekRequestDTO struct {
	Timestamp *float64 `json:"timestamp" binding:"required"`
}

// VideoSessionDTO describes an opened video and its current timeline.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type VideoSessionDTO struct {
	VideoID      string  `json:"videoId"`
	Filename     string  `json:"filename"`
	Events       []Event `json:"events"`
	Persisted    bool    `json:"persisted"`
	CreatedAt    int64   `json:"createdAt,omitempty"`
	LastAccessed int64   `json:"lastAccessed,omitempty"`
}

// TagResponseDTO is returned after a tag is added.
type TagResponseDTO struct {
	Event  Event   `json:"event"`
	Events []Event `json:"events"`
}

// EventsResponseDTO wraps a timeline.
type EventsResponseDTO struct {
	VideoID string  `json:"videoId"`
	Count   int     `json:"count"`
	Events  []Event `json:"events"`
}

// SeekResponseDTO reports the pending one-shot seek target, if any.
type SeekResponseDTO struct {
	VideoID string   `json:"videoId"`
	Seek    *float64 `json:"seek"`
}

// SweepResponseDTO reports the outcome of a retention sweep.
type SweepResponseDTO struct {
	Removed    int       `json:"removed"`
	MaxAgeDays int       `json:"maxAgeDays"`
	SweptAt    time.Time `json:"sweptAt"`
}

// ErrorResponse represents an error response.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type ErrorResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Path      string    `json:"path"`
}
