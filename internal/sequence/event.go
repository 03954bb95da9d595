package sequence

import (
	"slices"
)

// State is the lamp state carried by an Event.
type State string

const (
	StateOn  State = "on"
	StateOff State = "off"
)

const (
	// ActionAnim is the sequencer action that drives a box animation.
	ActionAnim = "anim"
	// TypeSpeaking marks an animation as the box's speaking cue.
	TypeSpeaking = "speaking"
)

// Event is one timestamped cue for a character box.
type Event struct {
	Time   int    `json:"time" yaml:"time"`
	Box    string `json:"box" yaml:"box"`
	Action string `json:"action" yaml:"action"`
	Type   string `json:"type" yaml:"type"`
	State  State  `json:"state" yaml:"state"`
}

// Speaking returns a speaking cue for box at timeMs.
func Speaking(timeMs int, box string, state State) Event {
	return Event{Time: timeMs, Box: box, Action: ActionAnim, Type: TypeSpeaking, State: state}
}

// Sort orders events by time. Events sharing a timestamp keep their
// emission order.
func Sort(events []Event) {
	slices.SortStableFunc(events, func(a, b Event) int {
		return a.Time - b.Time
	})
}
