package export

import (
	"fmt"
	"time"

	"github.com/astro-analytics/video-tagging-go/internal/videokey"
)

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeJSON = "application/json"
	ContentTypeCSV  = "text/csv"

	dateLayout = "2006-01-02"
)

// WorkbookFilename returns "<token>-analysis-<date>.xlsx".
func WorkbookFilename(videoID string, now time.Time) string {
	return filename(videoID, "analysis", now, "xlsx")
}

// MLFilename returns "<token>-ml-data-<date>.json".
func MLFilename(videoID string, now time.Time) string {
	return filename(videoID, "ml-data", now, "json")
}

// ManifestFilename returns "<token>-manifest-<date>.csv".
func ManifestFilename(videoID string, now time.Time) string {
	return filename(videoID, "manifest", now, "csv")
}

func filename(videoID, kind string, now time.Time, ext string) string {
	return fmt.Sprintf("%s-%s-%s.%s", videokey.FilenameToken(videoID), kind, exportDate(now), ext)
}

func exportDate(now time.Time) string {
	return now.UTC().Format(dateLayout)
}
