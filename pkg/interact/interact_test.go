package interact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type drop struct{ item, target string }

type fakeResolver struct {
	pools map[string]string
	drops []drop
	panic bool
}

func newFakeResolver(items ...string) *fakeResolver {
	r := &fakeResolver{pools: make(map[string]string)}
	for _, id := range items {
		r.pools[id] = "unsorted"
	}
	return r
}

func (r *fakeResolver) Pool(itemID string) (string, bool) {
	pool, ok := r.pools[itemID]
	return pool, ok
}

func (r *fakeResolver) Evaluate(itemID, targetID string) {
	r.drops = append(r.drops, drop{itemID, targetID})
	if r.panic {
		panic("evaluation blew up")
	}
}

func TestUnifier_ExclusiveDragSession(t *testing.T) {
	res := newFakeResolver("a", "b")
	u := NewUnifier(res)

	require.True(t, u.Handle(Event{Kind: KindDragStart, Modality: ModalityPointer, ItemID: "a"}))
	assert.False(t, u.Handle(Event{Kind: KindDragStart, Modality: ModalityPointer, ItemID: "b"}))
	assert.False(t, u.Handle(Event{Kind: KindDragStart, Modality: ModalityTouch, ItemID: "b"}))
	assert.Equal(t, "a", u.Session().ActiveItemID)
	assert.Equal(t, "unsorted", u.Session().SourcePool)
}

func TestUnifier_UnknownItemCannotStart(t *testing.T) {
	u := NewUnifier(newFakeResolver("a"))
	assert.False(t, u.Handle(Event{Kind: KindDragStart, ItemID: "ghost"}))
	assert.False(t, u.Handle(Event{Kind: KindDragStart}))
	assert.False(t, u.Session().Active())
}

func TestUnifier_DropOutsideIsCancel(t *testing.T) {
	res := newFakeResolver("a")
	u := NewUnifier(res)
	u.Handle(Event{Kind: KindDragStart, Modality: ModalityPointer, ItemID: "a"})
	u.Handle(Event{Kind: KindDragOver, Modality: ModalityPointer, TargetID: "bin"})
	assert.Equal(t, "bin", u.Session().HoveredTargetID)

	assert.True(t, u.Handle(Event{Kind: KindDrop, Modality: ModalityPointer}))
	assert.Empty(t, res.drops)
	assert.False(t, u.Session().Active())
}

func TestUnifier_DropEvaluatesOnceAndTearsDown(t *testing.T) {
	res := newFakeResolver("a")
	u := NewUnifier(res)
	u.Handle(Event{Kind: KindDragStart, Modality: ModalityTouch, ItemID: "a"})
	assert.True(t, u.Handle(Event{Kind: KindDrop, Modality: ModalityTouch, TargetID: "bin"}))
	assert.False(t, u.Handle(Event{Kind: KindDrop, Modality: ModalityTouch, TargetID: "bin"}))

	assert.Equal(t, []drop{{"a", "bin"}}, res.drops)
	assert.False(t, u.Session().Active())
}

func TestUnifier_TeardownSurvivesPanic(t *testing.T) {
	res := newFakeResolver("a")
	res.panic = true
	u := NewUnifier(res)
	u.Handle(Event{Kind: KindDragStart, ItemID: "a"})

	assert.Panics(t, func() { u.Handle(Event{Kind: KindDrop, TargetID: "bin"}) })
	assert.False(t, u.Session().Active())
}

func TestUnifier_IgnoresOtherModality(t *testing.T) {
	res := newFakeResolver("a")
	u := NewUnifier(res)
	u.Handle(Event{Kind: KindDragStart, Modality: ModalityTouch, ItemID: "a"})

	assert.False(t, u.Handle(Event{Kind: KindDragOver, Modality: ModalityPointer, TargetID: "bin"}))
	assert.False(t, u.Handle(Event{Kind: KindDrop, Modality: ModalityPointer, TargetID: "bin"}))
	assert.False(t, u.Handle(Event{Kind: KindCancel, Modality: ModalityPointer}))
	assert.Empty(t, res.drops)
	assert.True(t, u.Session().Active())
}

func TestUnifier_OutOfOrderEventsAreNoOps(t *testing.T) {
	res := newFakeResolver("a")
	u := NewUnifier(res)
	assert.False(t, u.Handle(Event{Kind: KindDrop, TargetID: "bin"}))
	assert.False(t, u.Handle(Event{Kind: KindDragOver, TargetID: "bin"}))
	assert.False(t, u.Handle(Event{Kind: KindCancel}))
	assert.False(t, u.Handle(Event{Kind: Kind(99)}))
	assert.Empty(t, res.drops)
}

func TestLayout_TopmostInnermostWins(t *testing.T) {
	l := NewLayout()
	l.SetTarget("table", Rect{X: 0, Y: 0, W: 100, H: 100}, 0)
	l.SetTarget("basket", Rect{X: 10, Y: 10, W: 20, H: 20}, 0)
	l.SetTarget("popup", Rect{X: 50, Y: 50, W: 80, H: 80}, 5)

	got, ok := l.TargetAt(15, 15)
	require.True(t, ok)
	assert.Equal(t, "basket", got)

	got, _ = l.TargetAt(60, 60)
	assert.Equal(t, "popup", got)

	got, _ = l.TargetAt(5, 5)
	assert.Equal(t, "table", got)

	_, ok = l.TargetAt(500, 500)
	assert.False(t, ok)

	// Right and bottom edges are exclusive.
	_, ok = l.TargetAt(130, 60)
	assert.False(t, ok)
}

func TestLayout_LaterRegistrationBreaksTies(t *testing.T) {
	l := NewLayout()
	l.SetTarget("first", Rect{W: 10, H: 10}, 1)
	l.SetTarget("second", Rect{W: 10, H: 10}, 1)
	got, _ := l.TargetAt(1, 1)
	assert.Equal(t, "second", got)

	l.Reset()
	_, ok := l.TargetAt(1, 1)
	assert.False(t, ok)
}

func TestModalityEquivalence(t *testing.T) {
	layout := NewLayout()
	layout.SetItem("leaf", Rect{X: 0, Y: 0, W: 10, H: 10}, 1)
	layout.SetTarget("natural", Rect{X: 100, Y: 0, W: 50, H: 50}, 0)

	pointerRes := newFakeResolver("leaf")
	pointerUnifier := NewUnifier(pointerRes)
	pointer := NewPointerAdapter(pointerUnifier)
	pointer.DragStart("leaf")
	pointer.DragEnter("natural")
	pointer.Drop("natural")
	pointer.DragEnd()

	touchRes := newFakeResolver("leaf")
	touchUnifier := NewUnifier(touchRes)
	touch := NewTouchAdapter(touchUnifier, layout)
	require.True(t, touch.Start(5, 5))
	touch.Move(50, 5)
	assert.Empty(t, touchUnifier.Session().HoveredTargetID)
	touch.Move(120, 10)
	assert.Equal(t, "natural", touchUnifier.Session().HoveredTargetID)
	touch.End(120, 10)

	tapRes := newFakeResolver("leaf")
	tapUnifier := NewUnifier(tapRes)
	tap := NewTapAdapter(tapUnifier, tapUnifier)
	tap.Item("leaf")
	tap.Target("natural")

	assert.Equal(t, []drop{{"leaf", "natural"}}, pointerRes.drops)
	assert.Equal(t, pointerRes.drops, touchRes.drops)
	assert.Equal(t, pointerRes.drops, tapRes.drops)
}

func TestPointerAdapter_DragEndWithoutDropCancels(t *testing.T) {
	res := newFakeResolver("a")
	u := NewUnifier(res)
	p := NewPointerAdapter(u)
	p.DragStart("a")
	p.DragEnter("bin")
	p.DragLeave("other")
	assert.Equal(t, "bin", u.Session().HoveredTargetID)
	p.DragLeave("bin")
	assert.Empty(t, u.Session().HoveredTargetID)

	assert.True(t, p.DragEnd())
	assert.False(t, u.Session().Active())
	assert.Empty(t, res.drops)
}

func TestTouchAdapter_ReleaseOutsideCancels(t *testing.T) {
	layout := NewLayout()
	layout.SetItem("a", Rect{W: 10, H: 10}, 0)
	res := newFakeResolver("a")
	u := NewUnifier(res)
	touch := NewTouchAdapter(u, layout)

	assert.False(t, touch.Start(50, 50))
	require.True(t, touch.Start(1, 1))
	touch.End(300, 300)
	assert.Empty(t, res.drops)
	assert.False(t, u.Session().Active())

	touch.StartItem("a")
	touch.Cancel()
	assert.False(t, u.Session().Active())
}

func TestTapAdapter_ToggleAndSwitch(t *testing.T) {
	res := newFakeResolver("a", "b")
	u := NewUnifier(res)
	tap := NewTapAdapter(u, u)

	tap.Item("a")
	assert.Equal(t, "a", u.Session().ActiveItemID)
	tap.Item("b")
	assert.Equal(t, "b", u.Session().ActiveItemID)
	tap.Item("b")
	assert.False(t, u.Session().Active())

	assert.False(t, tap.Target("bin"))
	assert.Empty(t, res.drops)

	tap.Item("a")
	tap.Clear()
	assert.False(t, u.Session().Active())
}

func TestTapAdapter_DoesNotStealPointerDrag(t *testing.T) {
	res := newFakeResolver("a", "b")
	u := NewUnifier(res)
	NewPointerAdapter(u).DragStart("a")

	tap := NewTapAdapter(u, u)
	assert.False(t, tap.Item("b"))
	assert.Equal(t, "a", u.Session().ActiveItemID)
}

func TestNames(t *testing.T) {
	assert.Equal(t, "dragCancel", KindCancel.String())
	assert.Equal(t, "touch", ModalityTouch.String())
	assert.Equal(t, "unknown", Kind(0).String())
}
