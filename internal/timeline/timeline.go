// Package timeline keeps a video's tagged events in timestamp order.
//
// All functions are pure: they return new slices and never modify the
// collection they are given.
package timeline

import (
	"sort"

	"github.com/astro-analytics/video-tagging-go/internal/models"
)

// Insert returns events plus e, sorted ascending by timestamp. The sort is
// stable, so events sharing a timestamp keep their prior relative order and
// e lands after them.
func Insert(events []models.Event, e models.Event) []models.Event {
	out := make([]models.Event, 0, len(events)+1)
	out = append(out, events...)
	out = append(out, e)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp < out[j].Timestamp
	})
	return out
}

// RemoveByID returns events without any event whose ID is id. An unknown id
// yields an unchanged copy.
func RemoveByID(events []models.Event, id int64) []models.Event {
	out := make([]models.Event, 0, len(events))
	for _, e := range events {
		if e.ID != id {
			out = append(out, e)
		}
	}
	return out
}

// Contains reports whether an event with the given id is present.
func Contains(events []models.Event, id int64) bool {
	for _, e := range events {
		if e.ID == id {
			return true
		}
	}
	return false
}

// IsSorted reports whether events are ascending by timestamp.
func IsSorted(events []models.Event) bool {
	return sort.SliceIsSorted(events, func(i, j int) bool {
		return events[i].Timestamp < events[j].Timestamp
	})
}

// Normalize returns a copy of events with the display time re-derived from
// each timestamp and the owning video id filled in. Stored display strings
// are never trusted.
func Normalize(events []models.Event, videoID string) []models.Event {
	out := make([]models.Event, len(events))
	for i, e := range events {
		e.Time = FormatTimestamp(e.Timestamp)
		if e.VideoID == "" {
			e.VideoID = videoID
		}
		out[i] = e
	}
	if !IsSorted(out) {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Timestamp < out[j].Timestamp
		})
	}
	return out
}
