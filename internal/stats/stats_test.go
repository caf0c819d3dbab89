package stats

import (
	"math/rand"
	"testing"

	"github.com/astro-analytics/video-tagging-go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate_Scenario(t *testing.T) {
	events := []models.Event{
		{ID: 2, Timestamp: 10, EventType: "serve", Player: "B", Outcome: "Error"},
		{ID: 1, Timestamp: 65, EventType: "spike", Player: "A", Outcome: "Success"},
	}

	got := Aggregate(events)

	want := models.AggregatedStats{
		"A": {"spike": {Total: 1, Successful: 1, Failure: 0}},
		"B": {"serve": {Total: 1, Successful: 0, Failure: 1}},
	}
	assert.Equal(t, want, got)
}

func TestAggregate_Empty(t *testing.T) {
	got := Aggregate(nil)

	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestAggregate_TotalsInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	players := []string{"A", "B", "C"}
	types := []string{"serve", "spike", "block", "pass"}
	outcomes := []string{"Success", "Error", "Neutral", "successful", "SUCCESS!", "fail"}

	var events []models.Event
	for i := 0; i < 500; i++ {
		events = append(events, models.Event{
			ID:        int64(i),
			Player:    players[rng.Intn(len(players))],
			EventType: types[rng.Intn(len(types))],
			Outcome:   outcomes[rng.Intn(len(outcomes))],
		})
	}

	total := 0
	for _, byType := range Aggregate(events) {
		for _, c := range byType {
			assert.Equal(t, c.Total, c.Successful+c.Failure)
			assert.GreaterOrEqual(t, c.Total, 1)
			total += c.Total
		}
	}
	assert.Equal(t, len(events), total)
}

func TestIsSuccess(t *testing.T) {
	tests := []struct {
		outcome string
		want    bool
	}{
		{"Success", true},
		{"successful", true},
		{"Partial SUCCESS", true},
		{"success error", true},
		{"Error", false},
		{"Neutral", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.outcome, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSuccess(tt.outcome))
		})
	}
}

func TestSuccessRate(t *testing.T) {
	tests := []struct {
		name string
		c    *models.StatCounter
		want float64
	}{
		{"all successful", &models.StatCounter{Total: 4, Successful: 4}, 100},
		{"one third", &models.StatCounter{Total: 3, Successful: 1, Failure: 2}, 33.3},
		{"two thirds", &models.StatCounter{Total: 3, Successful: 2, Failure: 1}, 66.7},
		{"none", &models.StatCounter{Total: 2, Failure: 2}, 0},
		{"nil", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, SuccessRate(tt.c), 1e-9)
		})
	}
}

func TestCells_Ordered(t *testing.T) {
	s := models.AggregatedStats{
		"B": {"spike": {Total: 1, Successful: 1}},
		"A": {"serve": {Total: 2, Failure: 2}, "block": {Total: 1, Successful: 1}},
	}

	cells := Cells(s)

	require.Len(t, cells, 3)
	assert.Equal(t, Cell{Player: "A", Action: "block", Counter: models.StatCounter{Total: 1, Successful: 1}}, cells[0])
	assert.Equal(t, "serve", cells[1].Action)
	assert.Equal(t, "B", cells[2].Player)
}

func TestCountByEventType(t *testing.T) {
	events := []models.Event{
		{EventType: "spike"}, {EventType: "serve"}, {EventType: "spike"},
	}

	got := CountByEventType(events)

	assert.Equal(t, []TypeCount{{"serve", 1}, {"spike", 2}}, got)
}

func TestDistinct(t *testing.T) {
	events := []models.Event{
		{Outcome: "Success"}, {Outcome: "Error"}, {Outcome: "Success"},
	}

	got := Distinct(events, func(e models.Event) string { return e.Outcome })

	assert.Equal(t, []string{"Success", "Error"}, got)
	assert.Equal(t, []string{}, Distinct(nil, func(e models.Event) string { return e.Outcome }))
}
