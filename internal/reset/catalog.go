// Package reset holds the catalog of guided reset sessions, keyed by the
// emotional state the visitor picks on the home screen.
package reset

import "strings"

// Reset is one guided session.
type Reset struct {
	Slug            string   `json:"slug"`
	Title           string   `json:"title"`
	State           string   `json:"state"`
	DurationSeconds int      `json:"duration_seconds"`
	Steps           []string `json:"steps"`
}

// Emotional states the catalog covers.
const (
	StateStressed    = "stressed"
	StateAnxious     = "anxious"
	StateAngry       = "angry"
	StateSad         = "sad"
	StateOverwhelmed = "overwhelmed"
	StateUnfocused   = "unfocused"
)

// States returns the emotional states with at least one reset, in menu order.
func States() []string {
	return []string{StateStressed, StateAnxious, StateAngry, StateSad, StateOverwhelmed, StateUnfocused}
}

// All returns the full catalog in menu order.
func All() []Reset {
	out := make([]Reset, 0, len(catalog))
	for _, state := range States() {
		out = append(out, catalog[state]...)
	}
	return out
}

// ForState returns the resets for an emotional state, matched
// case-insensitively. Unknown states return nil.
func ForState(state string) []Reset {
	return catalog[strings.ToLower(strings.TrimSpace(state))]
}

// BySlug returns the reset with the given slug, or nil.
func BySlug(slug string) *Reset {
	slug = strings.ToLower(strings.TrimSpace(slug))
	for _, resets := range catalog {
		for i := range resets {
			if resets[i].Slug == slug {
				r := resets[i]
				return &r
			}
		}
	}
	return nil
}

var catalog = map[string][]Reset{
	StateStressed: {
		{
			Slug:            "box-breathing",
			Title:           "Box Breathing",
			State:           StateStressed,
			DurationSeconds: 180,
			Steps: []string{
				"Sit upright and relax your shoulders.",
				"Inhale through your nose for four counts.",
				"Hold for four counts.",
				"Exhale through your mouth for four counts.",
				"Hold empty for four counts, then repeat.",
			},
		},
		{
			Slug:            "shoulder-drop",
			Title:           "Shoulder Drop",
			State:           StateStressed,
			DurationSeconds: 120,
			Steps: []string{
				"Raise both shoulders toward your ears and hold for five seconds.",
				"Let them drop all at once with an exhale.",
				"Roll each shoulder backward slowly, three times.",
				"Finish with one long breath out.",
			},
		},
	},
	StateAnxious: {
		{
			Slug:            "five-senses",
			Title:           "Five Senses Grounding",
			State:           StateAnxious,
			DurationSeconds: 240,
			Steps: []string{
				"Name five things you can see.",
				"Name four things you can touch.",
				"Name three things you can hear.",
				"Name two things you can smell.",
				"Name one thing you can taste.",
			},
		},
		{
			Slug:            "long-exhale",
			Title:           "Long Exhale",
			State:           StateAnxious,
			DurationSeconds: 180,
			Steps: []string{
				"Inhale gently for four counts.",
				"Exhale slowly for eight counts.",
				"Keep the exhale twice as long as the inhale.",
				"Continue for ten rounds.",
			},
		},
	},
	StateAngry: {
		{
			Slug:            "cool-down-count",
			Title:           "Cool-Down Count",
			State:           StateAngry,
			DurationSeconds: 120,
			Steps: []string{
				"Step away from the trigger if you can.",
				"Count backward from twenty, one number per breath.",
				"Unclench your jaw and hands.",
				"Ask yourself what you need right now.",
			},
		},
	},
	StateSad: {
		{
			Slug:            "gentle-check-in",
			Title:           "Gentle Check-In",
			State:           StateSad,
			DurationSeconds: 300,
			Steps: []string{
				"Place a hand over your chest.",
				"Name the feeling without judging it.",
				"Remind yourself that feelings pass.",
				"Think of one small kind thing to do for yourself today.",
			},
		},
	},
	StateOverwhelmed: {
		{
			Slug:            "one-thing",
			Title:           "Just One Thing",
			State:           StateOverwhelmed,
			DurationSeconds: 240,
			Steps: []string{
				"Write down everything circling in your head.",
				"Pick the single smallest item.",
				"Do only that one thing.",
				"Cross it off before looking at the list again.",
			},
		},
	},
	StateUnfocused: {
		{
			Slug:            "reset-posture",
			Title:           "Posture Reset",
			State:           StateUnfocused,
			DurationSeconds: 120,
			Steps: []string{
				"Stand up and stretch toward the ceiling.",
				"Take three deep breaths by an open window if possible.",
				"Drink a glass of water.",
				"Set a timer for one focused block before sitting back down.",
			},
		},
	},
}
