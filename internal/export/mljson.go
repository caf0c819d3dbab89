package export

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/astro-analytics/video-tagging-go/internal/models"
	"github.com/astro-analytics/video-tagging-go/internal/stats"
	"github.com/astro-analytics/video-tagging-go/internal/timeline"
	"github.com/astro-analytics/video-tagging-go/internal/videokey"
)

// SchemaVersion is the fixed metadata.version of ML documents.
const SchemaVersion = "1.0"

// MLDocument bundles a video's events and statistics for training pipelines.
type MLDocument struct {
	Metadata        MLMetadata             `json:"metadata"`
	Video           MLVideo                `json:"video"`
	AggregatedStats models.AggregatedStats `json:"aggregatedStats"`
}

//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type MLMetadata struct {
	ExportedAt  time.Time `json:"exportedAt"`
	Version     string    `json:"version"`
	VideoID     string    `json:"videoId"`
	Filename    string    `json:"filename"`
	TotalEvents int       `json:"totalEvents"`
	EventTypes  []string  `json:"eventTypes"`
	Outcomes    []string  `json:"outcomes"`
}

type MLVideo struct {
	ID       string          `json:"id"`
	Metadata MLVideoMetadata `json:"metadata"`
	Events   []models.Event  `json:"events"`
}

// MLVideoMetadata mirrors the stored record; both fields are omitted when
// the video was never persisted.
type MLVideoMetadata struct {
	CreatedAt    int64 `json:"createdAt,omitempty"`
	LastAccessed int64 `json:"lastAccessed,omitempty"`
}

// BuildMLDocument assembles the ML document. record may be nil.
func BuildMLDocument(videoID string, events []models.Event, record *models.VideoRecord, now time.Time) (*MLDocument, error) {
	if videoID == "" {
		return nil, ErrInvalidInput
	}

	events = timeline.Normalize(events, videoID)

	doc := &MLDocument{
		Metadata: MLMetadata{
			ExportedAt:  now.UTC(),
			Version:     SchemaVersion,
			VideoID:     videoID,
			Filename:    videokey.FilenameToken(videoID),
			TotalEvents: len(events),
			EventTypes:  stats.Distinct(events, func(e models.Event) string { return e.EventType }),
			Outcomes:    stats.Distinct(events, func(e models.Event) string { return e.Outcome }),
		},
		Video: MLVideo{
			ID:     videoID,
			Events: events,
		},
		AggregatedStats: stats.Aggregate(events),
	}
	if record != nil {
		doc.Video.Metadata = MLVideoMetadata{
			CreatedAt:    record.CreatedAt,
			LastAccessed: record.LastAccessed,
		}
	}

	return doc, nil
}

// MarshalMLDocument pretty-prints the document with two-space indentation.
func MarshalMLDocument(doc *MLDocument) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ML document: %w", err)
	}
	return data, nil
}
