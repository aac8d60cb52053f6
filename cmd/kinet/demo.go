package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kinet-dev/kinet"
	"github.com/kinet-dev/kinet/pkg/dom"
)

// labelKey scopes the widget label binding.
type labelKey struct{}

// registerDemo installs the demo factories and the root component.
func registerDemo(app *kinet.App, logger *slog.Logger) {
	app.Register("fade-box", func() kinet.Component { return newFadeBox(logger) })
	app.Register("widget-tray", func() kinet.Component { return &widgetTray{} })
	app.Register("counter", func() kinet.Component { return &counter{} })
	app.Register("ticker", func() kinet.Component { return &ticker{} })
	app.Root(func() kinet.Component { return &demoApp{logger: logger} })
}

// demoApp is the demo root: a static frame whose live regions are
// dynamically mounted children. The frame itself never re-renders, so the
// mounted subtrees stay put.
type demoApp struct {
	kinet.ElemBase
	logger *slog.Logger

	booted   bool
	box      *fadeBox
	tray     *kinet.ComponentInstance
	launched int
}

func (a *demoApp) Render(ctx kinet.Ctx) *dom.Node {
	a.boot(ctx)
	return dom.El("div", dom.Class("kinet-demo"),
		dom.El("style", dom.Text(demoCSS)),
		dom.El("h1", dom.Text("kinet")),
		dom.El("div", dom.Class("demo-controls"),
			dom.El("button", dom.Text("Toggle fade"), dom.On("click", a.toggleFade)),
			dom.El("button", dom.Text("Flash"), dom.On("click", a.flash)),
			dom.El("button", dom.Text("Launch counter"), dom.On("click", a.launchCounter)),
			dom.El("button", dom.Text("Launch ticker"), dom.On("click", a.launchTicker)),
			dom.El("button", dom.Text("Launch mystery"), dom.On("click", a.launchMystery)),
			dom.El("button", dom.Text("Clear widgets"), dom.On("click", a.clearWidgets)),
		),
	)
}

// boot mounts the long-lived children once, during the first render.
func (a *demoApp) boot(ctx kinet.Ctx) {
	if a.booted {
		return
	}
	a.booted = true

	root := ctx.Session().Root()
	if h, err := a.AddComponent("fade-box", root); err == nil {
		a.box = h.Instance().Component().(*fadeBox)
	} else {
		a.logger.Error("mounting fade-box", "error", err)
	}
	if h, err := a.AddComponent("widget-tray", root); err == nil {
		a.tray = h.Instance()
	} else {
		a.logger.Error("mounting widget-tray", "error", err)
	}
}

func (a *demoApp) toggleFade() {
	if a.box != nil {
		a.box.Toggle()
	}
}

func (a *demoApp) flash() {
	if a.box != nil {
		a.box.Flash()
	}
}

func (a *demoApp) launchCounter() {
	if a.tray == nil {
		return
	}
	a.launched++
	h, err := a.AddComponent("counter", a.tray,
		kinet.Bind(labelKey{}, fmt.Sprintf("Counter %d", a.launched)))
	if err != nil {
		a.logger.Error("mounting counter", "error", err)
		return
	}
	h.Instance().Component().(*counter).attach(h)
}

func (a *demoApp) launchTicker(e *kinet.Event) {
	if a.tray == nil {
		return
	}
	h, err := a.AddComponent("ticker", a.tray)
	if err != nil {
		a.logger.Error("mounting ticker", "error", err)
		return
	}
	h.Instance().Component().(*ticker).start(e.Session, h)
}

// launchMystery asks for a descriptor nobody registered, to show the
// resolution error surface in the logs.
func (a *demoApp) launchMystery() {
	if a.tray == nil {
		return
	}
	if _, err := a.AddComponent("mystery", a.tray); err != nil {
		a.logger.Warn("mystery widget unavailable", "error", err)
	}
}

func (a *demoApp) clearWidgets() {
	if a.tray == nil {
		return
	}
	for _, child := range a.tray.Children() {
		child.Dispose()
	}
}

// fadeBox drives its root element entirely through the imperative surface:
// inline styles for the fade, a class-triggered keyframe flash, a reflow
// barrier when coming back from display:none, and the unified end stream
// to finish each effect.
type fadeBox struct {
	kinet.ElemBase
	logger *slog.Logger

	hidden bool
	ended  int
}

func newFadeBox(logger *slog.Logger) *fadeBox {
	return &fadeBox{logger: logger}
}

func (b *fadeBox) Render(ctx kinet.Ctx) *dom.Node {
	b.wire()
	return dom.El("div", dom.Class("fade-box"),
		dom.El("p", dom.Text("This panel fades through inline styles; completions arrive on the end stream.")),
	)
}

// wire activates the end stream on the first render. A fade-out settles
// into display:none when its transition completes; a flash drops its class
// when the animation completes so the next Flash can replay it.
func (b *fadeBox) wire() {
	el := b.Element()
	if el.EndEvents() != nil {
		return
	}
	el.ActivateAnimationListener()
	el.EndEvents().Subscribe(func(ev kinet.EndEvent) {
		switch {
		case ev.Kind == kinet.EndTransition && b.hidden:
			el.SetStyle("display", "none")
		case ev.Kind == kinet.EndAnimation:
			el.RemoveClass("flash", false)
		}
		b.ended++
		b.logger.Debug("effect finished",
			"kind", ev.Kind.String(), "name", ev.Name, "total", b.ended)
	})
	el.EndEvents().OnComplete(func() {
		b.logger.Debug("end stream closed", "effects", b.ended)
	})
}

// Toggle fades the panel out, or brings it back from display:none. The
// reflow barrier commits display and the starting opacity before the
// target opacity, so the fade-in animates instead of snapping.
func (b *fadeBox) Toggle() {
	el := b.Element()
	if b.hidden {
		b.hidden = false
		el.RemoveStyle("display")
		el.SetStyle("opacity", "0")
		el.ForceReflow()
		el.SetStyle("opacity", "1")
		return
	}
	b.hidden = true
	el.SetStyle("opacity", "0")
}

// Flash replays the keyframe animation: drop the class, commit the removal
// with a reflow, re-add.
func (b *fadeBox) Flash() {
	el := b.Element()
	el.RemoveClass("flash", true)
	el.AddClass("flash", false)
}

// widgetTray is an empty styled container for launched widgets, so they
// append inside a stable element instead of the demo frame.
type widgetTray struct {
	kinet.ElemBase
}

func (t *widgetTray) Render(ctx kinet.Ctx) *dom.Node {
	return dom.El("div", dom.Class("widget-tray"))
}

// counter is a launched widget with local state; clicks re-render it
// through its mount handle.
type counter struct {
	kinet.ElemBase
	self  *kinet.Handle
	label string
	n     int
}

func (c *counter) attach(h *kinet.Handle) {
	c.self = h
}

func (c *counter) Render(ctx kinet.Ctx) *dom.Node {
	if c.label == "" {
		if v, ok := ctx.Value(labelKey{}).(string); ok {
			c.label = v
		}
	}
	return dom.El("div", dom.Class("widget"),
		dom.El("span", dom.Textf("%s: %d", c.label, c.n)),
		dom.El("button", dom.Text("+1"), dom.On("click", c.increment)),
		dom.El("button", dom.Text("close"), dom.On("click", c.close)),
	)
}

func (c *counter) increment() {
	c.n++
	if c.self != nil {
		c.self.DetectChanges()
	}
}

func (c *counter) close() {
	if c.self != nil {
		c.self.Dispose()
	}
}

// ticker is a launched widget that updates itself from a goroutine via
// Session.Dispatch. The tick loop stops when the widget's scope is
// disposed.
type ticker struct {
	kinet.ElemBase
	seconds int
}

func (t *ticker) Render(ctx kinet.Ctx) *dom.Node {
	return dom.El("div", dom.Class("widget"),
		dom.El("span", dom.Textf("up %ds", t.seconds)),
	)
}

// start launches the tick loop. It runs on the event loop, right after the
// widget mounts.
func (t *ticker) start(sess *kinet.Session, h *kinet.Handle) {
	done := make(chan struct{})
	h.Instance().Owner().OnCleanup(func() { close(done) })

	go func() {
		tick := time.NewTicker(time.Second)
		defer tick.Stop()
		for {
			select {
			case <-done:
				return
			case <-tick.C:
				err := sess.Dispatch(func() {
					t.seconds++
					h.DetectChanges()
				})
				if err != nil {
					return
				}
			}
		}
	}()
}

// demoCSS styles the demo shell. Inline, so the demo serves with no static
// directory.
const demoCSS = `
  .kinet-demo { font-family: ui-sans-serif, system-ui, sans-serif; max-width: 40rem; margin: 3rem auto; }
  .kinet-demo h1 { letter-spacing: 0.3em; }
  .demo-controls { display: flex; flex-wrap: wrap; gap: 0.5rem; margin-bottom: 1rem; }
  .demo-controls button { padding: 0.4rem 0.8rem; cursor: pointer; }
  .fade-box { padding: 1rem; border: 1px solid #ccc; border-radius: 6px; opacity: 1; transition: opacity 400ms ease; }
  .fade-box.flash { animation: kinet-flash 600ms ease; }
  .widget-tray { display: flex; flex-direction: column; gap: 0.5rem; margin-top: 1rem; }
  .widget { display: flex; align-items: center; gap: 0.75rem; padding: 0.5rem 1rem; border: 1px dashed #999; border-radius: 6px; }
  @keyframes kinet-flash {
    0% { background: #fff; }
    50% { background: #ffe9a8; }
    100% { background: #fff; }
  }
`
