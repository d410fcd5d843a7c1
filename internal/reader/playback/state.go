package playback

// State is the control state of a playback session.
type State int

const (
	// StateRunning dispatches utterances.
	StateRunning State = iota
	// StatePaused holds the next dispatch until resumed or stopped.
	StatePaused
	// StateStopped is terminal; nothing is dispatched after it is entered.
	StateStopped
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// transitions lists the states reachable from each state. Stopped has none.
var transitions = map[State][]State{
	StateRunning: {StatePaused, StateStopped},
	StatePaused:  {StateRunning, StateStopped},
}

// canTransition reports whether from → to is a valid transition.
func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
