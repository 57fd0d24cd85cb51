package groovebox

// EventKind identifies a session status event delivered through Watch().
type EventKind int

const (
	// EventStarted fires after the transport moves to running.
	EventStarted EventKind = iota
	// EventStopped fires after the transport moves to stopped.
	EventStopped
	// EventStep fires when the drum grid advances to a new column; Step
	// carries the column index.
	EventStep
	// EventCombinedEnded fires when the backing track reaches its end while
	// the transport keeps running.
	EventCombinedEnded
	// EventLoadFailed fires when a backing track fails to decode; Message
	// carries the reason. Recoverable: the session keeps playing whatever it
	// had.
	EventLoadFailed
)

// Event carries one status update from the render path to the UI. Message is
// empty except for error kinds.
type Event struct {
	Kind    EventKind
	Step    int
	Message string
}
