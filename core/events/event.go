package events

// Event is a structured record of a marketplace state change: a listing, a
// bid, a settlement or an escrow movement.
type Event interface {
	EventType() string
}

// Emitter forwards marketplace events to downstream consumers such as the
// metrics recorder.
type Emitter interface {
	Emit(Event)
}

// NoopEmitter discards every event. Engines fall back to it when no emitter
// is configured.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}
