// Package validation checks tag input against the configured vocabulary.
package validation

import (
	"errors"
	"fmt"
	"math"

	"github.com/astro-analytics/video-tagging-go/internal/models"
	"github.com/astro-analytics/video-tagging-go/internal/timeline"
)

// ErrEmptyVocabulary is returned when a vocabulary list has no entries;
// tagging cannot succeed without choices.
var ErrEmptyVocabulary = errors.New("vocabulary is empty")

// TagInput is a tag as requested by the client, before an id is assigned.
type TagInput struct {
	Timestamp float64
	EventType string
	Player    string
	Outcome   string
	// Duration is the video length in seconds; zero means unknown.
	Duration float64
}

type Validator struct {
	vocabulary models.Vocabulary
	eventTypes map[string]struct{}
	players    map[string]struct{}
	outcomes   map[string]struct{}
}

func New(vocabulary models.Vocabulary) *Validator {
	return &Validator{
		vocabulary: vocabulary,
		eventTypes: toSet(vocabulary.EventTypes),
		players:    toSet(vocabulary.Players),
		outcomes:   toSet(vocabulary.Outcomes),
	}
}

// Vocabulary returns copies of the configured lists.
func (v *Validator) Vocabulary() models.Vocabulary {
	return models.Vocabulary{
		EventTypes: append([]string(nil), v.vocabulary.EventTypes...),
		Players:    append([]string(nil), v.vocabulary.Players...),
		Outcomes:   append([]string(nil), v.vocabulary.Outcomes...),
	}
}

func (v *Validator) ValidateTag(in TagInput) error {
	if len(v.eventTypes) == 0 || len(v.players) == 0 || len(v.outcomes) == 0 {
		return ErrEmptyVocabulary
	}

	if math.IsNaN(in.Timestamp) || math.IsInf(in.Timestamp, 0) {
		return fmt.Errorf("timestamp must be a finite number")
	}
	if in.Timestamp < 0 {
		return fmt.Errorf("timestamp must not be negative: %g", in.Timestamp)
	}
	if in.Timestamp > timeline.MaxSeconds {
		return fmt.Errorf("timestamp %g exceeds the maximum of %d seconds", in.Timestamp, int64(timeline.MaxSeconds))
	}
	if in.Duration > 0 && in.Timestamp > in.Duration {
		return fmt.Errorf("timestamp %g exceeds video duration %g", in.Timestamp, in.Duration)
	}

	if !v.IsValidEventType(in.EventType) {
		return fmt.Errorf("unknown event type: %q", in.EventType)
	}
	if !v.IsValidPlayer(in.Player) {
		return fmt.Errorf("unknown player: %q", in.Player)
	}
	if !v.IsValidOutcome(in.Outcome) {
		return fmt.Errorf("unknown outcome: %q", in.Outcome)
	}

	return nil
}

func (v *Validator) IsValidEventType(eventType string) bool {
	_, ok := v.eventTypes[eventType]
	return ok
}

func (v *Validator) IsValidPlayer(player string) bool {
	_, ok := v.players[player]
	return ok
}

func (v *Validator) IsValidOutcome(outcome string) bool {
	_, ok := v.outcomes[outcome]
	return ok
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, s := range values {
		if s != "" {
			set[s] = struct{}{}
		}
	}
	return set
}
