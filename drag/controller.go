package drag

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"

	"github.com/digitorus/pdfmark/annotations"
	"github.com/digitorus/pdfmark/geom"
)

// Controller turns display-space pointer events into annotation moves. All methods
// run synchronously and never wait for rendering or saving.
type Controller struct {
	interp *statekit.Interpreter[*machineContext]
	ctx    *machineContext
}

// New returns an idle controller that moves annotations of store. A grid of zero
// disables snapping.
func New(store *annotations.Store, grid float64) (*Controller, error) {
	machine, err := newMachine()
	if err != nil {
		return nil, fmt.Errorf("failed to build drag statechart: %w", err)
	}

	ctx := &machineContext{store: store, grid: grid}
	interp := statekit.NewInterpreter(machine)
	interp.UpdateContext(func(c **machineContext) {
		*c = ctx
	})
	interp.Start()

	return &Controller{interp: interp, ctx: ctx}, nil
}

// State returns the current state.
func (c *Controller) State() State {
	return State(c.interp.State().Value)
}

// SetView tells the controller which page is displayed and how. Any drag in
// progress ends first.
func (c *Controller) SetView(page int, view geom.PageViewState) {
	c.Cancel()
	c.ctx.page = page
	c.ctx.view = view
}

// SetGrid changes the snapping grid. Zero disables snapping.
func (c *Controller) SetGrid(grid float64) {
	c.ctx.grid = grid
}

// Grid returns the snapping grid.
func (c *Controller) Grid() float64 { return c.ctx.grid }

// Active returns the id of the annotation being held, if any.
func (c *Controller) Active() string { return c.ctx.active }

// HitTest returns the topmost annotation on the current page under the display
// point, or "" when there is none.
func (c *Controller) HitTest(px, py float64) string {
	if !c.ctx.view.Valid() {
		return ""
	}
	items := c.ctx.store.ListForPage(c.ctx.page)
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].Box().HitDisplay(c.ctx.view, px, py) {
			return items[i].ID
		}
	}
	return ""
}

// PointerDown grabs the annotation under the pointer, or deselects when the
// background was hit. It returns the grabbed id. A pointer-down while another
// annotation is held is ignored.
func (c *Controller) PointerDown(px, py float64) string {
	if c.State() != Idle || !c.ctx.view.Valid() {
		return ""
	}
	target := c.HitTest(px, py)
	if target == "" {
		c.interp.Send(statekit.Event{Type: eventBackground, Payload: pointer{X: px, Y: py}})
		return ""
	}
	c.interp.Send(statekit.Event{Type: eventDown, Payload: pointer{X: px, Y: py, Target: target}})
	return target
}

// PointerMove moves the held annotation so it keeps its offset to the pointer.
func (c *Controller) PointerMove(px, py float64) {
	if c.State() == Idle {
		return
	}
	c.interp.Send(statekit.Event{Type: eventMove, Payload: pointer{X: px, Y: py}})
}

// PointerUp ends the drag.
func (c *Controller) PointerUp(px, py float64) {
	if c.State() == Idle {
		return
	}
	c.interp.Send(statekit.Event{Type: eventUp, Payload: pointer{X: px, Y: py}})
}

// PointerLeave ends the drag exactly like PointerUp.
func (c *Controller) PointerLeave() {
	if c.State() == Idle {
		return
	}
	c.interp.Send(statekit.Event{Type: eventLeave, Payload: pointer{}})
}

// Background handles a click on empty page area: it clears the selection.
func (c *Controller) Background() {
	if c.State() != Idle {
		return
	}
	c.interp.Send(statekit.Event{Type: eventBackground, Payload: pointer{}})
}

// Cancel ends any drag in progress. The annotation keeps its last position.
func (c *Controller) Cancel() {
	c.PointerLeave()
}

// Stop releases the interpreter.
func (c *Controller) Stop() {
	c.interp.Stop()
}
