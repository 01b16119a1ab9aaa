package interact

// PointerAdapter translates native drag-and-drop callbacks (dragstart,
// dragenter, dragleave, drop, dragend) into neutral events.
type PointerAdapter struct {
	sink    Sink
	hover   string
	dropped bool
}

// NewPointerAdapter creates an adapter feeding sink.
func NewPointerAdapter(sink Sink) *PointerAdapter {
	return &PointerAdapter{sink: sink}
}

// DragStart begins dragging itemID.
func (a *PointerAdapter) DragStart(itemID string) bool {
	a.hover = ""
	a.dropped = false
	return a.emit(Event{Kind: KindDragStart, ItemID: itemID})
}

// DragEnter reports the pointer entering a target.
func (a *PointerAdapter) DragEnter(targetID string) bool {
	a.hover = targetID
	return a.emit(Event{Kind: KindDragOver, TargetID: targetID})
}

// DragLeave reports the pointer leaving a target. Leaving a target other
// than the hovered one (nested elements) is ignored.
func (a *PointerAdapter) DragLeave(targetID string) bool {
	if a.hover != targetID {
		return false
	}
	a.hover = ""
	return a.emit(Event{Kind: KindDragOver})
}

// Drop reports the item released over targetID.
func (a *PointerAdapter) Drop(targetID string) bool {
	a.dropped = true
	a.hover = ""
	return a.emit(Event{Kind: KindDrop, TargetID: targetID})
}

// DragEnd closes the gesture. Without a preceding Drop the drag was released
// outside every target and is cancelled.
func (a *PointerAdapter) DragEnd() bool {
	dropped := a.dropped
	a.dropped = false
	a.hover = ""
	if dropped {
		return false
	}
	return a.emit(Event{Kind: KindCancel})
}

func (a *PointerAdapter) emit(ev Event) bool {
	ev.Modality = ModalityPointer
	return a.sink.Handle(ev)
}

// TouchAdapter emulates dragging from raw touch coordinates, resolving each
// position against the registered layout.
type TouchAdapter struct {
	sink   Sink
	layout *Layout
}

// NewTouchAdapter creates an adapter resolving against layout.
func NewTouchAdapter(sink Sink, layout *Layout) *TouchAdapter {
	return &TouchAdapter{sink: sink, layout: layout}
}

// Start begins a drag of the item under (x, y).
func (a *TouchAdapter) Start(x, y float64) bool {
	itemID, ok := a.layout.ItemAt(x, y)
	if !ok {
		return false
	}
	return a.StartItem(itemID)
}

// StartItem begins a drag of itemID when the surface already knows which
// element the finger landed on.
func (a *TouchAdapter) StartItem(itemID string) bool {
	return a.emit(Event{Kind: KindDragStart, ItemID: itemID})
}

// Move reports the finger at (x, y).
func (a *TouchAdapter) Move(x, y float64) bool {
	target, _ := a.layout.TargetAt(x, y)
	return a.emit(Event{Kind: KindDragOver, TargetID: target})
}

// End releases the finger at (x, y). A release outside every target cancels.
func (a *TouchAdapter) End(x, y float64) bool {
	target, _ := a.layout.TargetAt(x, y)
	return a.emit(Event{Kind: KindDrop, TargetID: target})
}

// Cancel handles a platform touch cancel.
func (a *TouchAdapter) Cancel() bool {
	return a.emit(Event{Kind: KindCancel})
}

func (a *TouchAdapter) emit(ev Event) bool {
	ev.Modality = ModalityTouch
	return a.sink.Handle(ev)
}

// TapAdapter implements tap-to-select: tap an item to pick it up, then tap a
// target to drop it there.
type TapAdapter struct {
	sink    Sink
	session SessionReader
}

// NewTapAdapter creates a tap adapter. session is consulted to toggle or
// switch the current selection.
func NewTapAdapter(sink Sink, session SessionReader) *TapAdapter {
	return &TapAdapter{sink: sink, session: session}
}

// Item selects itemID. Tapping the selected item again deselects it; tapping
// another item moves the selection.
func (a *TapAdapter) Item(itemID string) bool {
	current := a.session.Session()
	if current.Active() && current.Modality == ModalityTap {
		a.emit(Event{Kind: KindCancel})
		if current.ActiveItemID == itemID {
			return true
		}
	}
	return a.emit(Event{Kind: KindDragStart, ItemID: itemID})
}

// Target drops the selected item on targetID.
func (a *TapAdapter) Target(targetID string) bool {
	return a.emit(Event{Kind: KindDrop, TargetID: targetID})
}

// Clear deselects without dropping.
func (a *TapAdapter) Clear() bool {
	return a.emit(Event{Kind: KindCancel})
}

func (a *TapAdapter) emit(ev Event) bool {
	ev.Modality = ModalityTap
	return a.sink.Handle(ev)
}
