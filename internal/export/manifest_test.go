package export

import (
	"bytes"
	"math"
	"testing"

	"github.com/astro-analytics/video-tagging-go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalAction(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"hit", "spike"},
		{"Attack", "spike"},
		{" assist ", "set"},
		{"receive", "pass"},
		{"Serve", "serve"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := CanonicalAction(tt.in); got != tt.want {
			t.Errorf("CanonicalAction(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestBinaryOutcome(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"Success", 1},
		{"successful", 1},
		{"WON", 1},
		{"1", 1},
		{"Error", 0},
		{"Neutral", 0},
		{"miss", 0},
		{"", 0},
	}

	for _, tt := range tests {
		if got := BinaryOutcome(tt.in); got != tt.want {
			t.Errorf("BinaryOutcome(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestBuildManifest_EmptyVideoID(t *testing.T) {
	_, _, err := BuildManifest("", sampleEvents())
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestBuildManifest(t *testing.T) {
	events := []models.Event{
		{ID: 10, Timestamp: 1.0004, EventType: "hit", Player: "A", Outcome: "Success"},
		{ID: 11, Timestamp: 1.0001, EventType: "spike", Player: "A", Outcome: "Error"},
		{ID: 12, Timestamp: 1.0001, EventType: "spike", Player: "B", Outcome: "Error"},
		{ID: 13, Timestamp: math.NaN(), Time: "1:05.5", EventType: "assist", Player: "C", Outcome: "yes"},
		{ID: 14, Timestamp: -1, Time: "garbage", EventType: "serve", Player: "C", Outcome: "no"},
	}

	rows, report, err := BuildManifest(testVideoID, events)
	require.NoError(t, err)

	assert.Equal(t, ManifestReport{
		Read:         5,
		Written:      3,
		Skipped:      2,
		ActionCounts: map[string]int{"spike": 2, "set": 1},
	}, report)

	require.Len(t, rows, 3)
	assert.Equal(t, ManifestRow{
		EventID: 1, VideoID: "match", VideoFilename: "match.mp4",
		TEventSec: 1.0004, Action: "spike", Player: "A", Outcome: 1,
	}, rows[0])
	assert.Equal(t, 2, rows[1].EventID)
	assert.Equal(t, "B", rows[1].Player)
	assert.Equal(t, 65.5, rows[2].TEventSec)
	assert.Equal(t, "set", rows[2].Action)
	assert.Equal(t, 1, rows[2].Outcome)
}

func TestWriteManifestCSV(t *testing.T) {
	rows := []ManifestRow{
		{EventID: 1, VideoID: "match", VideoFilename: "match.mp4", TEventSec: 10, Action: "spike", Player: "Player, 1", Outcome: 1},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteManifestCSV(&buf, rows))

	want := "event_id,video_id,video_filename,t_event_sec,action,player,outcome\n" +
		"1,match,match.mp4,10.000,spike,\"Player, 1\",1\n"
	assert.Equal(t, want, buf.String())
}
