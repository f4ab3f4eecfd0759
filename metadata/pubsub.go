package metadata

// Event is one state-change notification the Metadata Coordinator
// broadcasts (spec.md §4.3, "Uses a distributed pub/sub mediator to
// announce state changes").
type Event struct {
	Kind     EventKind
	Key      Key
	Location Location   // set for EventLocationAdded
	Ready    bool       // set for EventReady
}

type EventKind int

const (
	EventReady EventKind = iota
	EventLocationAdded
)

// Publisher is the broadcast sink the coordinator writes to. Production
// wiring to a real cluster pub/sub is out of scope for the core
// (spec.md §1); see spec.md §9's design note on abstracting it as a
// broadcast sink tests can substitute a probe for.
type Publisher interface {
	Publish(Event)
}

// Recorder is an in-process Publisher that remembers every event it
// received, for tests (spec.md §9).
type Recorder struct {
	Events []Event
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Publish(e Event) {
	r.Events = append(r.Events, e)
}

// noopPublisher discards every event; it's the default when no Publisher
// is configured, since pub/sub delivery is best-effort (spec.md §5).
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}
