package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/astro-analytics/video-tagging-go/internal/metrics"
	"github.com/astro-analytics/video-tagging-go/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) (*RecordStore, *MemoryBackend, *metrics.Metrics) {
	t.Helper()
	backend := NewMemoryBackend()
	m := metrics.New(prometheus.NewRegistry())
	s := NewRecordStore(backend, m)
	s.SetClock(func() time.Time { return fixedNow })
	return s, backend, m
}

func putRecord(t *testing.T, b Backend, key string, createdAt time.Time) {
	t.Helper()
	data, err := json.Marshal(models.VideoRecord{
		Events:       []models.Event{},
		CreatedAt:    createdAt.UnixMilli(),
		LastAccessed: createdAt.UnixMilli(),
	})
	require.NoError(t, err)
	require.NoError(t, b.Set(context.Background(), key, string(data)))
}

func TestRecordStore_LoadMissing(t *testing.T) {
	s, _, _ := newTestStore(t)

	record, found, err := s.Load(context.Background(), "video_a.mp4_1_2")

	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, record)
}

func TestRecordStore_LoadCorruptIsAbsent(t *testing.T) {
	s, backend, m := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, backend.Set(ctx, "video_a.mp4_1_2", "{not json"))

	record, found, err := s.Load(ctx, "video_a.mp4_1_2")

	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, record)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CorruptRecordsTotal))
}

func TestRecordStore_LoadNonObjectIsAbsent(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"null", "null"},
		{"padded null", "  null\n"},
		{"array", `[{"createdAt":1}]`},
		{"number", "42"},
		{"string", `"video"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, backend, _ := newTestStore(t)
			ctx := context.Background()
			require.NoError(t, backend.Set(ctx, "video_a.mp4_1_2", tt.raw))

			record, found, err := s.Load(ctx, "video_a.mp4_1_2")

			require.NoError(t, err)
			assert.False(t, found)
			assert.Nil(t, record)
		})
	}
}

func TestRecordStore_SweepRemovesNullRecord(t *testing.T) {
	s, backend, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, backend.Set(ctx, "video_a.mp4_1_2", "null"))
	putRecord(t, backend, "video_recent.mp4_1_1", fixedNow.Add(-time.Hour))

	removed, err := s.SweepExpired(ctx, 7, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	keys, err := backend.Keys(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"video_recent.mp4_1_1"}, keys)
}

func TestRecordStore_SaveThenLoad(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()
	key := "video_a.mp4_1_2"
	events := []models.Event{
		{ID: 1, Timestamp: 10, EventType: "serve", Player: "B", Outcome: "Error", Time: "0:10", VideoID: key},
	}

	stored, err := s.Save(ctx, key, &models.VideoRecord{Events: events})
	require.NoError(t, err)
	assert.Equal(t, fixedNow.UnixMilli(), stored.CreatedAt)
	assert.Equal(t, fixedNow.UnixMilli(), stored.LastAccessed)

	loaded, found, err := s.Load(ctx, key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, events, loaded.Events)
	assert.Equal(t, stored.CreatedAt, loaded.CreatedAt)
}

func TestRecordStore_SaveKeepsCreatedAt(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()
	created := fixedNow.Add(-48 * time.Hour).UnixMilli()

	stored, err := s.Save(ctx, "video_a.mp4_1_2", &models.VideoRecord{CreatedAt: created})

	require.NoError(t, err)
	assert.Equal(t, created, stored.CreatedAt)
	assert.Equal(t, fixedNow.UnixMilli(), stored.LastAccessed)
	assert.NotNil(t, stored.Events)
}

func TestRecordStore_SaveOverwrites(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()
	key := "video_a.mp4_1_2"

	_, err := s.Save(ctx, key, &models.VideoRecord{Events: []models.Event{{ID: 1}, {ID: 2}}})
	require.NoError(t, err)
	_, err = s.Save(ctx, key, &models.VideoRecord{Events: []models.Event{{ID: 3}}})
	require.NoError(t, err)

	loaded, found, err := s.Load(ctx, key)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, loaded.Events, 1)
	assert.Equal(t, int64(3), loaded.Events[0].ID)
}

func TestRecordStore_SweepExpired(t *testing.T) {
	s, backend, m := newTestStore(t)
	ctx := context.Background()

	putRecord(t, backend, "video_old.mp4_1_1", fixedNow.Add(-8*day))
	putRecord(t, backend, "video_recent.mp4_1_1", fixedNow.Add(-6*day))
	require.NoError(t, backend.Set(ctx, "video_broken.mp4_1_1", "###"))
	require.NoError(t, backend.Set(ctx, "video_nodate.mp4_1_1", `{"events":[]}`))
	require.NoError(t, backend.Set(ctx, "settings", "###"))

	removed, err := s.SweepExpired(ctx, 7, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	keys, err := backend.Keys(ctx, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"video_recent.mp4_1_1", "video_nodate.mp4_1_1", "settings"}, keys)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SweepRemovedTotal))
}

func TestRecordStore_SweepIsIdempotent(t *testing.T) {
	s, backend, _ := newTestStore(t)
	ctx := context.Background()

	putRecord(t, backend, "video_a.mp4_1_1", fixedNow.Add(-30*day))
	putRecord(t, backend, "video_b.mp4_1_1", fixedNow.Add(-1*day))

	first, err := s.SweepExpired(ctx, 7, fixedNow)
	require.NoError(t, err)
	second, err := s.SweepExpired(ctx, 7, fixedNow)
	require.NoError(t, err)

	assert.Equal(t, 1, first)
	assert.Equal(t, 0, second)
}

func TestRecordStore_SweepBoundaryIsExclusive(t *testing.T) {
	s, backend, _ := newTestStore(t)

	putRecord(t, backend, "video_edge.mp4_1_1", fixedNow.Add(-7*day))

	removed, err := s.SweepExpired(context.Background(), 7, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

type failingBackend struct {
	*MemoryBackend
	getErr error
	setErr error
}

func (f *failingBackend) Get(ctx context.Context, key string) (string, bool, error) {
	if f.getErr != nil {
		return "", false, f.getErr
	}
	return f.MemoryBackend.Get(ctx, key)
}

func (f *failingBackend) Set(ctx context.Context, key, value string) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.MemoryBackend.Set(ctx, key, value)
}

func TestRecordStore_BackendErrorsPropagate(t *testing.T) {
	boom := errors.New("connection reset")
	backend := &failingBackend{MemoryBackend: NewMemoryBackend(), getErr: boom, setErr: boom}
	s := NewRecordStore(backend, nil)
	ctx := context.Background()

	_, _, err := s.Load(ctx, "video_a_1_2")
	assert.ErrorIs(t, err, boom)

	_, err = s.Save(ctx, "video_a_1_2", &models.VideoRecord{})
	assert.ErrorIs(t, err, boom)

	require.NoError(t, backend.MemoryBackend.Set(ctx, "video_a_1_2", "{}"))
	_, err = s.SweepExpired(ctx, 7, fixedNow)
	assert.ErrorIs(t, err, boom)
}
