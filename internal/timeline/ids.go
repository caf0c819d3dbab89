package timeline

import (
	"sync"
	"time"

	"github.com/astro-analytics/video-tagging-go/internal/models"
)

// IDGenerator hands out event ids derived from the creation clock in epoch
// milliseconds. Ids are strictly increasing per generator and always exceed
// every id already present in the collection, so two tags created within
// the same millisecond never collide.
type IDGenerator struct {
	mu   sync.Mutex
	last int64
}

// NewIDGenerator creates an IDGenerator.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{}
}

// Next returns a fresh id for an event added to existing at now.
func (g *IDGenerator) Next(now time.Time, existing []models.Event) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := now.UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	for _, e := range existing {
		if e.ID >= id {
			id = e.ID + 1
		}
	}
	g.last = id
	return id
}
