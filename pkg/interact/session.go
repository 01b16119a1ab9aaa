package interact

// DragSession records the one in-progress drag or tap selection. The zero
// value is "no active drag".
type DragSession struct {
	ActiveItemID    string
	SourcePool      string
	HoveredTargetID string
	Modality        Modality
}

// Active reports whether a drag is in progress.
func (s DragSession) Active() bool {
	return s.ActiveItemID != ""
}

// Resolver connects the unification layer to the game state behind it.
type Resolver interface {
	// Pool returns the pool the item currently sits in. It reports false if
	// the item cannot be picked up right now.
	Pool(itemID string) (string, bool)
	// Evaluate settles one drop of itemID on targetID.
	Evaluate(itemID, targetID string)
}

// Unifier applies neutral events to the drag session and forwards drops to
// the resolver. It is not safe for concurrent use; the owner serializes calls.
type Unifier struct {
	session  DragSession
	resolver Resolver
}

// NewUnifier creates a unifier with no active drag.
func NewUnifier(resolver Resolver) *Unifier {
	return &Unifier{resolver: resolver}
}

// Session returns a copy of the current drag session.
func (u *Unifier) Session() DragSession {
	return u.session
}

// Handle applies ev and reports whether it changed anything. Out-of-order or
// duplicate events are ignored.
func (u *Unifier) Handle(ev Event) bool {
	switch ev.Kind {
	case KindDragStart:
		return u.dragStart(ev)
	case KindDragOver:
		return u.dragOver(ev)
	case KindDrop:
		return u.drop(ev)
	case KindCancel:
		return u.cancel(ev)
	}
	return false
}

// Reset tears down any active drag without evaluating it.
func (u *Unifier) Reset() {
	u.session = DragSession{}
}

func (u *Unifier) dragStart(ev Event) bool {
	if u.session.Active() || ev.ItemID == "" {
		return false
	}
	pool, ok := u.resolver.Pool(ev.ItemID)
	if !ok {
		return false
	}
	u.session = DragSession{
		ActiveItemID: ev.ItemID,
		SourcePool:   pool,
		Modality:     ev.Modality,
	}
	return true
}

func (u *Unifier) dragOver(ev Event) bool {
	if !u.owns(ev) || u.session.HoveredTargetID == ev.TargetID {
		return false
	}
	u.session.HoveredTargetID = ev.TargetID
	return true
}

func (u *Unifier) drop(ev Event) bool {
	if !u.owns(ev) {
		return false
	}
	if ev.TargetID == "" {
		u.session = DragSession{}
		return true
	}
	itemID := u.session.ActiveItemID
	defer u.Reset()
	u.resolver.Evaluate(itemID, ev.TargetID)
	return true
}

func (u *Unifier) cancel(ev Event) bool {
	if !u.owns(ev) {
		return false
	}
	u.session = DragSession{}
	return true
}

// owns reports whether ev belongs to the active session. Events from another
// modality than the one that started the drag are dropped, which filters the
// emulated mouse events some platforms send after a touch.
func (u *Unifier) owns(ev Event) bool {
	if !u.session.Active() {
		return false
	}
	return ev.Modality == 0 || ev.Modality == u.session.Modality
}
