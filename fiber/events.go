package fiber

import (
	"fmt"
	"slices"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/delaneyj/fibertree/host"
)

type EventHandler func(e *Event)

type EventPhase uint8

const (
	CapturePhase EventPhase = iota + 1
	BubblePhase
)

func (p EventPhase) String() string {
	switch p {
	case CapturePhase:
		return "capture"
	case BubblePhase:
		return "bubble"
	default:
		return "none"
	}
}

// Event is the value handed to listeners. Native is whatever the caller of
// DispatchEvent passed in.
type Event struct {
	Type          string
	Native        any
	Target        host.Node
	TargetFiber   *Fiber
	CurrentTarget host.Node
	Phase         EventPhase

	stopped bool
}

// StopPropagation prevents any listener after the current one from running.
func (e *Event) StopPropagation()           { e.stopped = true }
func (e *Event) IsPropagationStopped() bool { return e.stopped }

// EventConfig describes one dispatchable event and the props listeners are
// registered under.
type EventConfig struct {
	Name         string
	Bubbled      string
	Captured     string
	Dependencies []string
}

type EventRegistry struct {
	configs map[string]*EventConfig
	byProp  map[string]*EventConfig
	// native events some mounted element has shown interest in
	listening mapset.Set[string]
}

var supportedEvents = []string{
	"click",
	"input",
	"keyDown",
	"keyUp",
	"keyPress",
	"mouseOver",
	"mouseOut",
}

func newEventRegistry() *EventRegistry {
	reg := &EventRegistry{
		configs:   make(map[string]*EventConfig, len(supportedEvents)),
		byProp:    make(map[string]*EventConfig, 2*len(supportedEvents)),
		listening: mapset.NewThreadUnsafeSet[string](),
	}
	for _, name := range supportedEvents {
		handle := "on" + strings.ToUpper(name[:1]) + name[1:]
		cfg := &EventConfig{
			Name:         name,
			Bubbled:      handle,
			Captured:     handle + "Capture",
			Dependencies: []string{name},
		}
		reg.configs[name] = cfg
		reg.byProp[cfg.Bubbled] = cfg
		reg.byProp[cfg.Captured] = cfg
	}
	return reg
}

func (reg *EventRegistry) isRegistrationName(prop string) bool {
	_, ok := reg.byProp[prop]
	return ok
}

func (reg *EventRegistry) listenTo(props Props) {
	for k, v := range props {
		if v == nil {
			continue
		}
		if cfg, ok := reg.byProp[k]; ok {
			for _, dep := range cfg.Dependencies {
				reg.listening.Add(dep)
			}
		}
	}
}

// Config returns the configuration of a supported event.
func (reg *EventRegistry) Config(name string) (*EventConfig, bool) {
	cfg, ok := reg.configs[name]
	return cfg, ok
}

func (r *Reconciler) Events() *EventRegistry { return r.events }

// ListeningTo returns, sorted, the native events that mounted elements
// registered listeners for.
func (r *Reconciler) ListeningTo() []string {
	names := r.events.listening.ToSlice()
	slices.Sort(names)
	return names
}

// GetListenerFor returns the handler registered under prop on the committed
// props of a host element fiber.
func (r *Reconciler) GetListenerFor(f *Fiber, prop string) EventHandler {
	if f == nil || f.kind != HostElementKind || f.stateNode == nil {
		return nil
	}
	rec, ok := r.nodes[f.stateNode]
	if !ok || rec.props == nil {
		return nil
	}
	if shouldPreventMouseEvent(prop, f.elementType.(string), rec.props) {
		return nil
	}

	switch h := rec.props[prop].(type) {
	case EventHandler:
		return h
	case func(*Event):
		return h
	}
	return nil
}

func shouldPreventMouseEvent(prop, tag string, props Props) bool {
	switch prop {
	case "onClick", "onClickCapture":
	default:
		return false
	}
	switch tag {
	case "button", "input", "select", "textarea":
		return truthy(props["disabled"])
	}
	return false
}

func truthy(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	}
	return true
}

// DispatchNodeEvent dispatches name with the host node as the target.
func (r *Reconciler) DispatchNodeEvent(name string, target host.Node, native any) error {
	f := r.FiberForNode(target)
	if f == nil {
		return fmt.Errorf("%w: node has no fiber", ErrNotMounted)
	}
	return r.DispatchEvent(name, f, native)
}

// DispatchEvent runs the capture listeners from the outermost host ancestor
// down to target, then the bubble listeners back up. Updates scheduled by
// listeners are rendered in a single pass once dispatch is over.
func (r *Reconciler) DispatchEvent(name string, target *Fiber, native any) error {
	cfg, ok := r.events.configs[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEvent, name)
	}
	if target == nil {
		return ErrNotMounted
	}
	if target.kind == HostTextKind {
		target = target.parent
		for target != nil && target.kind != HostElementKind {
			target = target.parent
		}
		if target == nil {
			return fmt.Errorf("%w: text node outside an element", ErrNotMounted)
		}
	}

	e := &Event{
		Type:        name,
		Native:      native,
		Target:      target.HostNode(),
		TargetFiber: target,
	}
	r.batchedUpdates(eventContext, func() {
		r.traverseTwoPhase(cfg, e)
	})
	return nil
}

func (r *Reconciler) traverseTwoPhase(cfg *EventConfig, e *Event) {
	var path []*Fiber
	for f := e.TargetFiber; f != nil; f = f.parent {
		if f.kind == HostElementKind {
			path = append(path, f)
		}
	}

	type entry struct {
		fiber    *Fiber
		listener EventHandler
		phase    EventPhase
	}
	var queue []entry
	for i := len(path) - 1; i >= 0; i-- {
		if l := r.GetListenerFor(path[i], cfg.Captured); l != nil {
			queue = append(queue, entry{path[i], l, CapturePhase})
		}
	}
	for _, f := range path {
		if l := r.GetListenerFor(f, cfg.Bubbled); l != nil {
			queue = append(queue, entry{f, l, BubblePhase})
		}
	}

	for _, en := range queue {
		if e.stopped {
			break
		}
		e.CurrentTarget = en.fiber.stateNode
		e.Phase = en.phase
		r.guard("listener", en.fiber, func() { en.listener(e) })
	}
	e.CurrentTarget = nil
}
