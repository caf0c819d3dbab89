package export

import (
	"testing"
	"time"

	"github.com/astro-analytics/video-tagging-go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVideoID = "video_match.mp4_1024_1700000000000"

var exportTime = time.Date(2025, 3, 14, 18, 30, 0, 0, time.UTC)

func sampleEvents() []models.Event {
	return []models.Event{
		{ID: 1, Timestamp: 10, EventType: "spike", Player: "A", Outcome: "Success", Time: "9:99"},
		{ID: 2, Timestamp: 65.5, EventType: "serve", Player: "B", Outcome: "Error"},
		{ID: 3, Timestamp: 90, EventType: "spike", Player: "A", Outcome: "Error"},
	}
}

func TestBuildWorkbook_EmptyVideoID(t *testing.T) {
	wb, err := BuildWorkbook("", sampleEvents(), exportTime)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Nil(t, wb)
}

func TestBuildWorkbook_Sheets(t *testing.T) {
	wb, err := BuildWorkbook(testVideoID, sampleEvents(), exportTime)
	require.NoError(t, err)

	names := make([]string, 0, len(wb.Sheets))
	for _, s := range wb.Sheets {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{SheetEvents, SheetStatistics, SheetSummary}, names)
}

func TestBuildWorkbook_EventsSheet(t *testing.T) {
	wb, err := BuildWorkbook(testVideoID, sampleEvents(), exportTime)
	require.NoError(t, err)

	sheet, ok := wb.Sheet(SheetEvents)
	require.True(t, ok)
	assert.Equal(t, eventsHeader, sheet.Header)
	require.Len(t, sheet.Rows, 3)

	// Display time is re-derived and the video id filled in.
	assert.Equal(t, []any{int64(1), 10.0, "0:10", "spike", "A", "Success", testVideoID}, sheet.Rows[0])
	assert.Equal(t, []any{int64(2), 65.5, "1:05", "serve", "B", "Error", testVideoID}, sheet.Rows[1])
}

func TestBuildWorkbook_StatisticsSheet(t *testing.T) {
	wb, err := BuildWorkbook(testVideoID, sampleEvents(), exportTime)
	require.NoError(t, err)

	sheet, ok := wb.Sheet(SheetStatistics)
	require.True(t, ok)
	assert.Equal(t, [][]any{
		{"A", "spike", 2, 1, 1, 50.0},
		{"B", "serve", 1, 0, 1, 0.0},
	}, sheet.Rows)
}

func TestBuildWorkbook_SummarySheet(t *testing.T) {
	wb, err := BuildWorkbook(testVideoID, sampleEvents(), exportTime)
	require.NoError(t, err)

	sheet, ok := wb.Sheet(SheetSummary)
	require.True(t, ok)
	assert.Equal(t, [][]any{
		{"Video File", "match.mp4"},
		{"Total Events", 3},
		{"Export Date", "2025-03-14"},
		{"", ""},
		{"Event Type Breakdown", ""},
		{"serve", 1},
		{"spike", 2},
	}, sheet.Rows)
}

func TestBuildWorkbook_DoesNotMutateInput(t *testing.T) {
	events := sampleEvents()
	_, err := BuildWorkbook(testVideoID, events, exportTime)
	require.NoError(t, err)

	assert.Equal(t, "9:99", events[0].Time)
	assert.Empty(t, events[0].VideoID)
}

func TestBuildWorkbook_NoEvents(t *testing.T) {
	wb, err := BuildWorkbook(testVideoID, nil, exportTime)
	require.NoError(t, err)

	events, _ := wb.Sheet(SheetEvents)
	assert.Empty(t, events.Rows)
	stats, _ := wb.Sheet(SheetStatistics)
	assert.Empty(t, stats.Rows)
}

func TestFilenames(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"workbook", WorkbookFilename(testVideoID, exportTime), "match.mp4-analysis-2025-03-14.xlsx"},
		{"ml", MLFilename(testVideoID, exportTime), "match.mp4-ml-data-2025-03-14.json"},
		{"manifest", ManifestFilename(testVideoID, exportTime), "match.mp4-manifest-2025-03-14.csv"},
		{"truncated token", WorkbookFilename("video_my_clip.mp4_1_2", exportTime), "my-analysis-2025-03-14.xlsx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("filename = %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestFilenames_UseUTCDate(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	local := time.Date(2025, 3, 15, 2, 0, 0, 0, loc)

	assert.Equal(t, "match.mp4-analysis-2025-03-14.xlsx", WorkbookFilename(testVideoID, local))
}
