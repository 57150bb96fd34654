package engine

func NewEmptyState() State {
	return State{Phase: PhaseNotStarted}
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

// FindEvent returns the first event of the given type.
func FindEvent(events []Event, eventType EventType) (Event, bool) {
	for _, event := range events {
		if event.Type == eventType {
			return event, true
		}
	}
	return Event{}, false
}

// CountExceptions returns how many pool pieces carry the exception flag.
func CountExceptions(p Pool) int {
	n := 0
	for _, pc := range p {
		if pc != nil && pc.Exception {
			n++
		}
	}
	return n
}
