// Package drag moves annotations with pointer events.
//
// The controller is a statechart with three states. Idle waits for a pointer-down
// on an annotation, Selecting holds a grabbed annotation that has not moved yet and
// Dragging follows the pointer. Pointer-up and pointer-leave both end a drag.
package drag

import (
	"github.com/felixgeelhaar/statekit"

	"github.com/digitorus/pdfmark/annotations"
	"github.com/digitorus/pdfmark/geom"
	"github.com/digitorus/pdfmark/internal/logging"
)

// State is a controller state.
type State string

const (
	Idle      State = "idle"
	Selecting State = "selecting"
	Dragging  State = "dragging"
)

const (
	stateIdle      statekit.StateID = statekit.StateID(Idle)
	stateSelecting statekit.StateID = statekit.StateID(Selecting)
	stateDragging  statekit.StateID = statekit.StateID(Dragging)
)

const (
	eventDown       statekit.EventType = "POINTER_DOWN"
	eventMove       statekit.EventType = "POINTER_MOVE"
	eventUp         statekit.EventType = "POINTER_UP"
	eventLeave      statekit.EventType = "POINTER_LEAVE"
	eventBackground statekit.EventType = "BACKGROUND"
)

// pointer is the payload of every event. Target is set on pointer-down only.
type pointer struct {
	X, Y   float64
	Target string
}

// machineContext is the state shared by the statechart actions.
type machineContext struct {
	store *annotations.Store
	page  int
	view  geom.PageViewState
	grid  float64 // zero disables snapping

	active  string
	offsetX float64 // pointer minus annotation position, document space
	offsetY float64
	moved   bool
}

func newMachine() (*statekit.MachineConfig[*machineContext], error) {
	return statekit.NewMachine[*machineContext]("drag").
		WithInitial(stateIdle).
		WithContext(&machineContext{}).
		WithAction("grab", grab).
		WithAction("move", move).
		WithAction("release", release).
		WithAction("deselect", deselect).
		WithGuard("hasTarget", hasTarget).
		State(stateIdle).
		On(eventDown).Target(stateSelecting).Guard("hasTarget").Do("grab").
		On(eventBackground).Target(stateIdle).Do("deselect").
		Done().
		State(stateSelecting).
		On(eventMove).Target(stateDragging).Do("move").
		On(eventUp).Target(stateIdle).Do("release").
		On(eventLeave).Target(stateIdle).Do("release").
		Done().
		State(stateDragging).
		On(eventMove).Target(stateDragging).Do("move").
		On(eventUp).Target(stateIdle).Do("release").
		On(eventLeave).Target(stateIdle).Do("release").
		Done().
		Build()
}

func hasTarget(ctx *machineContext, event statekit.Event) bool {
	p, ok := event.Payload.(pointer)
	return ok && ctx != nil && p.Target != ""
}

func grab(ctx **machineContext, event statekit.Event) {
	c := *ctx
	p := event.Payload.(pointer)
	a, ok := c.store.Get(p.Target)
	if !ok {
		return
	}
	c.store.Select(a.ID)
	docX, docY := c.view.ToDocument(p.X, p.Y)
	c.active = a.ID
	c.offsetX = docX - a.X
	c.offsetY = docY - a.Y
	c.moved = false
	logging.Debug().Add(logging.Annotation(a.ID)).Add(logging.Page(c.page)).Msg("annotation grabbed")
}

func move(ctx **machineContext, event statekit.Event) {
	c := *ctx
	p := event.Payload.(pointer)
	a, ok := c.store.Get(c.active)
	if !ok {
		return
	}

	docX, docY := c.view.ToDocument(p.X, p.Y)
	x, y := docX-c.offsetX, docY-c.offsetY
	if c.grid > 0 {
		x, y = geom.SnapPoint(x, y, c.grid)
	}
	w, h := a.Footprint()
	x, y = geom.Clamp(x, y, w, h, c.view.NativeWidth, c.view.NativeHeight)

	c.store.Update(a.ID, annotations.Position(x, y))
	c.moved = true
}

func release(ctx **machineContext, _ statekit.Event) {
	c := *ctx
	if c.moved {
		if a, ok := c.store.Get(c.active); ok {
			logging.Debug().Add(logging.Annotation(a.ID)).Add(logging.Page(c.page)).Msg("annotation moved")
		}
	}
	c.active = ""
	c.moved = false
}

func deselect(ctx **machineContext, _ statekit.Event) {
	(*ctx).store.Deselect()
}
