package export

import (
	"time"

	"github.com/astro-analytics/video-tagging-go/internal/models"
	"github.com/astro-analytics/video-tagging-go/internal/stats"
	"github.com/astro-analytics/video-tagging-go/internal/timeline"
	"github.com/astro-analytics/video-tagging-go/internal/videokey"
)

const (
	SheetEvents     = "Events"
	SheetStatistics = "Player Statistics"
	SheetSummary    = "Summary"
)

var (
	eventsHeader     = []string{"Event ID", "Timestamp (seconds)", "Time", "Event Type", "Player", "Outcome", "Video ID"}
	statisticsHeader = []string{"Player", "Action", "Total Attempts", "Successful", "Failed", "Success Rate (%)"}
	summaryHeader    = []string{"Metric", "Value"}
)

// Sheet is a named table. Rows hold cell values in header order.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]any
}

// Workbook is an ordered set of sheets, independent of any file format.
type Workbook struct {
	Sheets []Sheet
}

// Sheet looks up a sheet by name.
func (w *Workbook) Sheet(name string) (*Sheet, bool) {
	for i := range w.Sheets {
		if w.Sheets[i].Name == name {
			return &w.Sheets[i], true
		}
	}
	return nil, false
}

// BuildWorkbook lays out the events, per-player statistics and summary of a
// video. The input slice is not modified.
func BuildWorkbook(videoID string, events []models.Event, now time.Time) (*Workbook, error) {
	if videoID == "" {
		return nil, ErrInvalidInput
	}

	events = timeline.Normalize(events, videoID)

	return &Workbook{
		Sheets: []Sheet{
			eventsSheet(events),
			statisticsSheet(events),
			summarySheet(videoID, events, now),
		},
	}, nil
}

func eventsSheet(events []models.Event) Sheet {
	rows := make([][]any, 0, len(events))
	for _, e := range events {
		rows = append(rows, []any{e.ID, e.Timestamp, e.Time, e.EventType, e.Player, e.Outcome, e.VideoID})
	}
	return Sheet{Name: SheetEvents, Header: eventsHeader, Rows: rows}
}

func statisticsSheet(events []models.Event) Sheet {
	cells := stats.Cells(stats.Aggregate(events))
	rows := make([][]any, 0, len(cells))
	for _, c := range cells {
		counter := c.Counter
		rows = append(rows, []any{
			c.Player,
			c.Action,
			counter.Total,
			counter.Successful,
			counter.Failure,
			stats.SuccessRate(&counter),
		})
	}
	return Sheet{Name: SheetStatistics, Header: statisticsHeader, Rows: rows}
}

func summarySheet(videoID string, events []models.Event, now time.Time) Sheet {
	rows := [][]any{
		{"Video File", videokey.FilenameToken(videoID)},
		{"Total Events", len(events)},
		{"Export Date", exportDate(now)},
		{"", ""},
		{"Event Type Breakdown", ""},
	}
	for _, tc := range stats.CountByEventType(events) {
		rows = append(rows, []any{tc.EventType, tc.Count})
	}
	return Sheet{Name: SheetSummary, Header: summaryHeader, Rows: rows}
}
