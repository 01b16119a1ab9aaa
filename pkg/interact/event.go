// Package interact normalizes native drag events, touch coordinates and
// tap-to-select into one neutral event stream, and owns the single drag
// session a game instance allows.
package interact

// Kind is one of the four neutral interaction calls.
type Kind uint8

const (
	KindDragStart Kind = iota + 1
	KindDragOver
	KindDrop
	KindCancel
)

// String returns the kind name as used on the wire.
func (k Kind) String() string {
	switch k {
	case KindDragStart:
		return "dragStart"
	case KindDragOver:
		return "dragOver"
	case KindDrop:
		return "drop"
	case KindCancel:
		return "dragCancel"
	default:
		return "unknown"
	}
}

// Modality is the physical input source an event came from.
type Modality uint8

const (
	ModalityPointer Modality = iota + 1
	ModalityTouch
	ModalityTap
)

// String returns the modality name.
func (m Modality) String() string {
	switch m {
	case ModalityPointer:
		return "pointer"
	case ModalityTouch:
		return "touch"
	case ModalityTap:
		return "tap"
	default:
		return "none"
	}
}

// Event is the neutral interaction event every adapter produces.
// TargetID is empty for a dragOver with no hovered target and for a drop
// outside any target.
type Event struct {
	Kind     Kind
	Modality Modality
	ItemID   string
	TargetID string
}

// Sink consumes neutral events.
type Sink interface {
	Handle(Event) bool
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event) bool

// Handle calls f.
func (f SinkFunc) Handle(ev Event) bool {
	return f(ev)
}

// SessionReader exposes the current drag session to adapters that need to
// know what is selected.
type SessionReader interface {
	Session() DragSession
}
