// Package stats reduces a timeline into per-player, per-action counters.
package stats

import (
	"math"
	"sort"
	"strings"

	"github.com/astro-analytics/video-tagging-go/internal/models"
)

const successMarker = "success"

// Aggregate counts every event into its (player, event type) cell. An
// outcome whose lowercase form contains "success" is successful; anything
// else is a failure.
func Aggregate(events []models.Event) models.AggregatedStats {
	out := make(models.AggregatedStats)
	for _, e := range events {
		byType, ok := out[e.Player]
		if !ok {
			byType = make(map[string]*models.StatCounter)
			out[e.Player] = byType
		}
		cell, ok := byType[e.EventType]
		if !ok {
			cell = &models.StatCounter{}
			byType[e.EventType] = cell
		}

		cell.Total++
		if IsSuccess(e.Outcome) {
			cell.Successful++
		} else {
			cell.Failure++
		}
	}
	return out
}

// IsSuccess classifies an outcome string.
func IsSuccess(outcome string) bool {
	return strings.Contains(strings.ToLower(outcome), successMarker)
}

// SuccessRate returns successful/total as a percentage rounded to one
// decimal place. A cell always has total >= 1; an empty counter yields 0.
func SuccessRate(c *models.StatCounter) float64 {
	if c == nil || c.Total == 0 {
		return 0
	}
	return roundFloat(float64(c.Successful)/float64(c.Total)*100, 1)
}

// Cell is one flattened (player, action) counter.
type Cell struct {
	Player  string
	Action  string
	Counter models.StatCounter
}

// Cells flattens stats ordered by player, then action.
func Cells(s models.AggregatedStats) []Cell {
	players := make([]string, 0, len(s))
	for p := range s {
		players = append(players, p)
	}
	sort.Strings(players)

	var out []Cell
	for _, p := range players {
		actions := make([]string, 0, len(s[p]))
		for a := range s[p] {
			actions = append(actions, a)
		}
		sort.Strings(actions)
		for _, a := range actions {
			out = append(out, Cell{Player: p, Action: a, Counter: *s[p][a]})
		}
	}
	return out
}

// TypeCount is the number of events of one type.
type TypeCount struct {
	EventType string
	Count     int
}

// CountByEventType returns event counts per type, ordered by type.
func CountByEventType(events []models.Event) []TypeCount {
	counts := make(map[string]int)
	for _, e := range events {
		counts[e.EventType]++
	}

	out := make([]TypeCount, 0, len(counts))
	for t, n := range counts {
		out = append(out, TypeCount{EventType: t, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventType < out[j].EventType })
	return out
}

// Distinct returns the distinct values of field across events in order of
// first appearance.
func Distinct(events []models.Event, field func(models.Event) string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, e := range events {
		v := field(e)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// roundFloat rounds a float64 to a specified number of decimal places.
func roundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}
