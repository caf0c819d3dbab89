// Package service provides the tagging session logic: opening videos,
// editing their timelines, seeking and exporting.
package service

import (
	"bytes"
	"context"
	"errors"
	"math"
	"time"

	"github.com/astro-analytics/video-tagging-go/internal/export"
	"github.com/astro-analytics/video-tagging-go/internal/metrics"
	"github.com/astro-analytics/video-tagging-go/internal/models"
	"github.com/astro-analytics/video-tagging-go/internal/stats"
	"github.com/astro-analytics/video-tagging-go/internal/timeline"
	"github.com/astro-analytics/video-tagging-go/internal/validation"
	"github.com/astro-analytics/video-tagging-go/internal/videokey"
	"github.com/astro-analytics/video-tagging-go/pkg/logger"
	"go.uber.org/zap"
)

const (
	FormatXLSX     = "xlsx"
	FormatJSON     = "json"
	FormatManifest = "manifest"

	defaultSeekDebounce = 100 * time.Millisecond
)

// RecordStore persists one record per video key.
type RecordStore interface {
	Load(ctx context.Context, key string) (*models.VideoRecord, bool, error)
	Save(ctx context.Context, key string, record *models.VideoRecord) (*models.VideoRecord, error)
	SweepExpired(ctx context.Context, maxAgeDays int, now time.Time) (int, error)
}

// Publisher announces finished ML exports to downstream consumers.
type Publisher interface {
	PublishMLDocument(ctx context.Context, doc *export.MLDocument) error
}

// Settings tune a TaggingService.
type Settings struct {
	MaxAgeDays   int
	SeekDebounce time.Duration
}

// ExportArtifact is a rendered export ready for download.
type ExportArtifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

// TaggingService handles tagging business logic. Mutations of one video are
// serialized; different videos proceed in parallel.
type TaggingService struct {
	store     RecordStore
	validator *validation.Validator
	encoder   export.SheetEncoder
	publisher Publisher
	metrics   *metrics.Metrics
	ids       *timeline.IDGenerator
	locks     *keyLock
	seek      *seekPulse
	now       func() time.Time
	settings  Settings
}

// NewTaggingService creates a new TaggingService instance.
func NewTaggingService(store RecordStore, validator *validation.Validator, m *metrics.Metrics, settings Settings) *TaggingService {
	if settings.SeekDebounce <= 0 {
		settings.SeekDebounce = defaultSeekDebounce
	}
	return &TaggingService{
		store:     store,
		validator: validator,
		encoder:   export.NewXLSXEncoder(),
		metrics:   m,
		ids:       timeline.NewIDGenerator(),
		locks:     newKeyLock(),
		seek:      newSeekPulse(settings.SeekDebounce),
		now:       time.Now,
		settings:  settings,
	}
}

// SetPublisher enables publishing of ML exports. A nil publisher disables it.
func (s *TaggingService) SetPublisher(p Publisher) {
	s.publisher = p
}

func (s *TaggingService) SetEncoder(e export.SheetEncoder) {
	s.encoder = e
}

func (s *TaggingService) SetClock(now func() time.Time) {
	s.now = now
}

// Close cancels pending seek timers.
func (s *TaggingService) Close() {
	s.seek.stop()
}

// Vocabulary returns the configured tagging choices.
func (s *TaggingService) Vocabulary() models.Vocabulary {
	return s.validator.Vocabulary()
}

// OpenVideo derives the key for a file and returns its stored timeline, or
// an empty one if the video has never been tagged.
func (s *TaggingService) OpenVideo(ctx context.Context, file models.FileDescriptor) (*models.VideoSessionDTO, error) {
	if file.Name == "" {
		return nil, &ValidationError{Message: "file name is required"}
	}
	if file.Size < 0 || file.LastModified < 0 {
		return nil, &ValidationError{Message: "file size and lastModified must not be negative"}
	}

	key := videokey.Derive(file)
	record, found, err := s.store.Load(ctx, key)
	if err != nil {
		logger.Log.Error("Failed to load video record",
			zap.Error(err),
			zap.String("videoId", key),
		)
		return nil, &ProcessingError{Message: "failed to load video", Cause: err}
	}

	session := &models.VideoSessionDTO{
		VideoID:  key,
		Filename: videokey.FilenameToken(key),
		Events:   []models.Event{},
	}
	if found {
		session.Events = timeline.Normalize(record.Events, key)
		session.Persisted = true
		session.CreatedAt = record.CreatedAt
		session.LastAccessed = record.LastAccessed
	}

	logger.Log.Info("Video opened",
		zap.String("videoId", key),
		zap.Int("events", len(session.Events)),
		zap.Bool("persisted", found),
	)

	return session, nil
}

// Events returns the ordered timeline of a video. Unknown videos have an
// empty timeline.
func (s *TaggingService) Events(ctx context.Context, key string) ([]models.Event, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}

	_, events, err := s.load(ctx, key)
	return events, err
}

// AddTag validates a tag, assigns it an id, inserts it in timestamp order
// and saves the whole record. It returns the new event and the updated
// timeline.
func (s *TaggingService) AddTag(ctx context.Context, key string, in validation.TagInput) (*models.Event, []models.Event, error) {
	if err := checkKey(key); err != nil {
		return nil, nil, err
	}
	if err := s.validator.ValidateTag(in); err != nil {
		logger.Log.Warn("Tag validation failed",
			zap.Error(err),
			zap.String("videoId", key),
		)
		return nil, nil, &ValidationError{Message: err.Error()}
	}

	unlock := s.locks.Lock(key)
	defer unlock()

	record, events, err := s.load(ctx, key)
	if err != nil {
		return nil, nil, err
	}

	event := models.Event{
		ID:        s.ids.Next(s.now(), events),
		Timestamp: in.Timestamp,
		EventType: in.EventType,
		Player:    in.Player,
		Outcome:   in.Outcome,
		Time:      timeline.FormatTimestamp(in.Timestamp),
		VideoID:   key,
	}
	events = timeline.Insert(events, event)

	saved, err := s.save(ctx, key, record, events)
	if err != nil {
		return nil, nil, err
	}

	s.metrics.TagAdded()
	logger.Log.Info("Tag added",
		zap.String("videoId", key),
		zap.Int64("eventId", event.ID),
		zap.String("eventType", event.EventType),
		zap.String("player", event.Player),
		zap.String("time", event.Time),
	)

	return &event, saved.Events, nil
}

// DeleteTag removes the event with id and saves the record. An unknown id
// leaves the timeline untouched and is not an error.
func (s *TaggingService) DeleteTag(ctx context.Context, key string, id int64) ([]models.Event, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(key)
	defer unlock()

	record, events, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	if !timeline.Contains(events, id) {
		logger.Log.Debug("Tag to delete not found",
			zap.String("videoId", key),
			zap.Int64("eventId", id),
		)
		return events, nil
	}

	saved, err := s.save(ctx, key, record, timeline.RemoveByID(events, id))
	if err != nil {
		return nil, err
	}

	s.metrics.TagRemoved()
	logger.Log.Info("Tag removed",
		zap.String("videoId", key),
		zap.Int64("eventId", id),
	)

	return saved.Events, nil
}

// Stats aggregates the stored timeline per player and action. A video
// without a record aggregates to an empty mapping, as its timeline is empty.
func (s *TaggingService) Stats(ctx context.Context, key string) (models.AggregatedStats, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}

	_, events, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	return stats.Aggregate(events), nil
}

// ExportWorkbook renders the timeline as an xlsx workbook.
func (s *TaggingService) ExportWorkbook(ctx context.Context, key string) (artifact *ExportArtifact, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveExport(FormatXLSX, start, err) }()

	_, events, err := s.loadForExport(ctx, key)
	if err != nil {
		return nil, err
	}

	now := s.now()
	wb, err := export.BuildWorkbook(key, events, now)
	if err != nil {
		return nil, exportError(FormatXLSX, key, err)
	}
	data, err := s.encoder.Encode(wb)
	if err != nil {
		return nil, exportError(FormatXLSX, key, err)
	}

	logger.Log.Info("Workbook exported",
		zap.String("videoId", key),
		zap.Int("events", len(events)),
		zap.Int("bytes", len(data)),
	)

	return &ExportArtifact{
		Filename:    export.WorkbookFilename(key, now),
		ContentType: export.ContentTypeXLSX,
		Data:        data,
	}, nil
}

// ExportML renders the ML JSON document and, when a publisher is set,
// announces it. Publish failures are logged and do not fail the export.
func (s *TaggingService) ExportML(ctx context.Context, key string) (artifact *ExportArtifact, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveExport(FormatJSON, start, err) }()

	record, events, err := s.loadForExport(ctx, key)
	if err != nil {
		return nil, err
	}

	now := s.now()
	doc, err := export.BuildMLDocument(key, events, record, now)
	if err != nil {
		return nil, exportError(FormatJSON, key, err)
	}
	data, err := export.MarshalMLDocument(doc)
	if err != nil {
		return nil, exportError(FormatJSON, key, err)
	}

	if s.publisher != nil {
		pubErr := s.publisher.PublishMLDocument(ctx, doc)
		s.metrics.Published(pubErr)
		if pubErr != nil {
			logger.Log.Error("Failed to publish ML export",
				zap.Error(pubErr),
				zap.String("videoId", key),
			)
		}
	}

	logger.Log.Info("ML document exported",
		zap.String("videoId", key),
		zap.Int("events", len(events)),
	)

	return &ExportArtifact{
		Filename:    export.MLFilename(key, now),
		ContentType: export.ContentTypeJSON,
		Data:        data,
	}, nil
}

// ExportManifest renders the normalized manifest CSV.
func (s *TaggingService) ExportManifest(ctx context.Context, key string) (artifact *ExportArtifact, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveExport(FormatManifest, start, err) }()

	now := s.now()
	_, events, err := s.loadForExport(ctx, key)
	if err != nil {
		return nil, err
	}

	rows, report, err := export.BuildManifest(key, events)
	if err != nil {
		return nil, exportError(FormatManifest, key, err)
	}
	var buf bytes.Buffer
	if err := export.WriteManifestCSV(&buf, rows); err != nil {
		return nil, exportError(FormatManifest, key, err)
	}

	logger.Log.Info("Manifest exported",
		zap.String("videoId", key),
		zap.Int("read", report.Read),
		zap.Int("written", report.Written),
		zap.Int("skipped", report.Skipped),
	)

	return &ExportArtifact{
		Filename:    export.ManifestFilename(key, now),
		ContentType: export.ContentTypeCSV,
		Data:        buf.Bytes(),
	}, nil
}

// Export dispatches on format name.
func (s *TaggingService) Export(ctx context.Context, key, format string) (*ExportArtifact, error) {
	switch format {
	case FormatXLSX:
		return s.ExportWorkbook(ctx, key)
	case FormatJSON:
		return s.ExportML(ctx, key)
	case FormatManifest:
		return s.ExportManifest(ctx, key)
	default:
		return nil, &ValidationError{Message: "unsupported export format: " + format}
	}
}

// RequestSeek publishes a one-shot seek target for the video player.
func (s *TaggingService) RequestSeek(key string, seconds float64) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return &ValidationError{Message: "seek target must be a non-negative number"}
	}

	s.seek.request(key, seconds)
	return nil
}

// PendingSeek returns the seek target if one is still within its debounce
// window.
func (s *TaggingService) PendingSeek(key string) (float64, bool) {
	return s.seek.get(key)
}

// Sweep removes records older than the configured retention.
func (s *TaggingService) Sweep(ctx context.Context) (*models.SweepResponseDTO, error) {
	now := s.now()
	removed, err := s.store.SweepExpired(ctx, s.settings.MaxAgeDays, now)
	if err != nil {
		logger.Log.Error("Retention sweep incomplete",
			zap.Error(err),
			zap.Int("removed", removed),
		)
		return nil, &ProcessingError{Message: "retention sweep failed", Cause: err}
	}

	return &models.SweepResponseDTO{
		Removed:    removed,
		MaxAgeDays: s.settings.MaxAgeDays,
		SweptAt:    now.UTC(),
	}, nil
}

// load returns the record (nil when absent) and its normalized timeline.
func (s *TaggingService) load(ctx context.Context, key string) (*models.VideoRecord, []models.Event, error) {
	record, found, err := s.store.Load(ctx, key)
	if err != nil {
		logger.Log.Error("Failed to load video record",
			zap.Error(err),
			zap.String("videoId", key),
		)
		return nil, nil, &ProcessingError{Message: "failed to load video", Cause: err}
	}
	if !found {
		return nil, []models.Event{}, nil
	}
	return record, timeline.Normalize(record.Events, key), nil
}

func (s *TaggingService) save(ctx context.Context, key string, prev *models.VideoRecord, events []models.Event) (*models.VideoRecord, error) {
	next := &models.VideoRecord{Events: events}
	if prev != nil {
		next.CreatedAt = prev.CreatedAt
	}

	saved, err := s.store.Save(ctx, key, next)
	if err != nil {
		logger.Log.Error("Failed to save video record",
			zap.Error(err),
			zap.String("videoId", key),
		)
		return nil, &ProcessingError{Message: "failed to save video", Cause: err}
	}
	return saved, nil
}

func (s *TaggingService) loadForExport(ctx context.Context, key string) (*models.VideoRecord, []models.Event, error) {
	if key == "" {
		return nil, nil, &ValidationError{Message: export.ErrInvalidInput.Error()}
	}
	if err := checkKey(key); err != nil {
		return nil, nil, err
	}

	record, events, err := s.load(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	if record == nil {
		return nil, nil, &NotFoundError{VideoID: key}
	}
	if len(events) == 0 {
		return nil, nil, &ValidationError{Message: "no events to export"}
	}
	return record, events, nil
}

func exportError(format, key string, err error) error {
	if errors.Is(err, export.ErrInvalidInput) {
		return &ValidationError{Message: err.Error()}
	}
	logger.Log.Error("Export failed",
		zap.Error(err),
		zap.String("format", format),
		zap.String("videoId", key),
	)
	return &ProcessingError{Message: "export failed, try again", Cause: err}
}

func checkKey(key string) error {
	if !videokey.IsVideoKey(key) {
		return &ValidationError{Message: "no video loaded"}
	}
	return nil
}
