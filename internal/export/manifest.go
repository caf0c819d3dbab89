package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/astro-analytics/video-tagging-go/internal/models"
	"github.com/astro-analytics/video-tagging-go/internal/timeline"
	"github.com/astro-analytics/video-tagging-go/internal/videokey"
)

// ManifestHeader is the column order of the manifest CSV.
var ManifestHeader = []string{"event_id", "video_id", "video_filename", "t_event_sec", "action", "player", "outcome"}

var actionAliases = map[string]string{
	"hit":     "spike",
	"attack":  "spike",
	"assist":  "set",
	"receive": "pass",
}

var successfulOutcomes = map[string]struct{}{
	"successful": {}, "success": {}, "true": {}, "1": {}, "yes": {}, "made": {}, "win": {}, "won": {},
}

// ManifestRow is one normalized event.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type ManifestRow struct {
	EventID       int
	VideoID       string
	VideoFilename string
	TEventSec     float64
	Action        string
	Player        string
	Outcome       int
}

// ManifestReport summarizes a manifest build.
type ManifestReport struct {
	Read         int
	Written      int
	Skipped      int
	ActionCounts map[string]int
}

// CanonicalAction lowercases an event type and folds known aliases.
func CanonicalAction(raw string) string {
	k := strings.ToLower(strings.TrimSpace(raw))
	if canonical, ok := actionAliases[k]; ok {
		return canonical
	}
	return k
}

// BinaryOutcome maps an outcome to 1 for recognised success words, else 0.
func BinaryOutcome(raw string) int {
	if _, ok := successfulOutcomes[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return 1
	}
	return 0
}

type manifestKey struct {
	video  string
	t      float64
	action string
	player string
}

// BuildManifest normalizes events into manifest rows. Events that repeat
// (video, time to the millisecond, action, player) are skipped, as are
// events with no usable time.
func BuildManifest(videoID string, events []models.Event) ([]ManifestRow, ManifestReport, error) {
	report := ManifestReport{ActionCounts: make(map[string]int)}
	if videoID == "" {
		return nil, report, ErrInvalidInput
	}

	seen := make(map[manifestKey]struct{}, len(events))
	rows := make([]ManifestRow, 0, len(events))

	for _, e := range events {
		report.Read++

		t, ok := eventSeconds(e)
		if !ok {
			report.Skipped++
			continue
		}

		source := e.VideoID
		if source == "" {
			source = videoID
		}
		name := strings.TrimSuffix(videokey.FilenameToken(source), ".mp4")
		action := CanonicalAction(e.EventType)

		key := manifestKey{video: name, t: roundMillis(t), action: action, player: e.Player}
		if _, dup := seen[key]; dup {
			report.Skipped++
			continue
		}
		seen[key] = struct{}{}

		rows = append(rows, ManifestRow{
			EventID:       len(rows) + 1,
			VideoID:       name,
			VideoFilename: name + ".mp4",
			TEventSec:     t,
			Action:        action,
			Player:        e.Player,
			Outcome:       BinaryOutcome(e.Outcome),
		})
		report.Written++
		report.ActionCounts[action]++
	}

	return rows, report, nil
}

// WriteManifestCSV writes the header and rows. Times are written with
// millisecond precision.
func WriteManifestCSV(w io.Writer, rows []ManifestRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ManifestHeader); err != nil {
		return fmt.Errorf("failed to write manifest header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			strconv.Itoa(r.EventID),
			r.VideoID,
			r.VideoFilename,
			strconv.FormatFloat(r.TEventSec, 'f', 3, 64),
			r.Action,
			r.Player,
			strconv.Itoa(r.Outcome),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write manifest row %d: %w", r.EventID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// eventSeconds prefers the numeric timestamp and falls back to the display
// time when the number is unusable.
func eventSeconds(e models.Event) (float64, bool) {
	t := e.Timestamp
	if !math.IsNaN(t) && !math.IsInf(t, 0) && t >= 0 {
		return t, true
	}
	parsed, err := timeline.ParseTimestamp(e.Time)
	if err != nil || parsed < 0 {
		return 0, false
	}
	return parsed, true
}

func roundMillis(t float64) float64 {
	return math.Round(t*1000) / 1000
}
