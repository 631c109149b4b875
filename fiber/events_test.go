package fiber_test

import (
	"errors"
	"testing"

	"github.com/delaneyj/fibertree/fiber"
	"github.com/delaneyj/fibertree/memhost"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recorder(log *[]string, label string) fiber.EventHandler {
	return func(e *fiber.Event) {
		*log = append(*log, label+":"+e.Phase.String())
	}
}

func nested(outer, inner fiber.Props) fiber.Node {
	op := fiber.Props{"id": "outer"}
	for k, v := range outer {
		op[k] = v
	}
	ip := fiber.Props{"id": "btn"}
	for k, v := range inner {
		ip[k] = v
	}
	return fiber.H("div", op, fiber.H("button", ip, fiber.H("span", nil, "go", "!")))
}

// capture listeners run outer to inner, bubble listeners inner to outer
func TestDispatchTwoPhaseOrder(t *testing.T) {
	r, _, container := setup(t)

	var log []string
	r.Mount(nested(
		fiber.Props{"onClick": recorder(&log, "div"), "onClickCapture": recorder(&log, "div")},
		fiber.Props{"onClick": recorder(&log, "button"), "onClickCapture": recorder(&log, "button")},
	), container, nil)

	btn := container.ByAttr("id", "btn")
	require.NotNil(t, btn)
	require.NoError(t, r.DispatchNodeEvent("click", btn, "native"))
	assert.Equal(t, []string{
		"div:capture",
		"button:capture",
		"button:bubble",
		"div:bubble",
	}, log)

	// listeners never reach the host as attributes
	assert.Equal(t, `<div id="outer"><button id="btn"><span>go!</span></button></div>`, memhost.InnerMarkup(container))
	assert.Equal(t, []string{"click"}, r.ListeningTo())
}

func TestDispatchFromTextNode(t *testing.T) {
	r, _, container := setup(t)

	var target, current any
	r.Mount(nested(fiber.Props{"onClick": fiber.EventHandler(func(e *fiber.Event) {
		target = e.Target
		current = e.CurrentTarget
	})}, nil), container, nil)

	span := container.Find(func(n *memhost.Node) bool { return n.Tag == "span" })
	require.NotNil(t, span)
	require.Len(t, span.Children, 2)

	require.NoError(t, r.DispatchNodeEvent("click", span.Children[0], nil))
	assert.Same(t, span, target)
	assert.Same(t, container.ByAttr("id", "outer"), current)
}

func TestStopPropagation(t *testing.T) {
	r, _, container := setup(t)

	var log []string
	r.Mount(nested(
		fiber.Props{"onClick": recorder(&log, "div"), "onClickCapture": recorder(&log, "div")},
		fiber.Props{"onClickCapture": fiber.EventHandler(func(e *fiber.Event) {
			log = append(log, "button:stop")
			e.StopPropagation()
		})},
	), container, nil)

	require.NoError(t, r.DispatchNodeEvent("click", container.ByAttr("id", "btn"), nil))
	assert.Equal(t, []string{"div:capture", "button:stop"}, log)
}

func TestListenerPanicIsolated(t *testing.T) {
	var reported []error
	h := memhost.New()
	container := h.NewContainer("root")
	r, err := fiber.New(h, fiber.WithOnError(func(from *fiber.Fiber, err error) {
		reported = append(reported, err)
	}))
	require.NoError(t, err)

	var log []string
	r.Mount(nested(
		fiber.Props{"onClick": recorder(&log, "div")},
		fiber.Props{"onClick": func(e *fiber.Event) { panic("bad handler") }},
	), container, nil)

	require.NoError(t, r.DispatchNodeEvent("click", container.ByAttr("id", "btn"), nil))
	assert.Equal(t, []string{"div:bubble"}, log)

	require.Len(t, reported, 1)
	var le *fiber.LifecycleError
	require.True(t, errors.As(reported[0], &le))
	assert.Equal(t, "listener", le.Phase)
	assert.Equal(t, "button", le.Component)
	assert.EqualError(t, le.Cause, "bad handler")
}

func TestDisabledButtonIgnoresClick(t *testing.T) {
	r, _, container := setup(t)

	var log []string
	r.Mount(nested(
		fiber.Props{"onClick": recorder(&log, "div")},
		fiber.Props{"onClick": recorder(&log, "button"), "disabled": true},
	), container, nil)

	require.NoError(t, r.DispatchNodeEvent("click", container.ByAttr("id", "btn"), nil))
	assert.Equal(t, []string{"div:bubble"}, log)
}

// updates scheduled from listeners render once, after dispatch
func TestEventUpdatesCoalesce(t *testing.T) {
	var commits int
	r, _, container := setup(t, fiber.WithCommitHook(func(fiber.CommitStats) { commits++ }))

	app := fiber.FC("App", func(hk *fiber.Hooks, props fiber.Props) fiber.Node {
		n, set := fiber.UseState(hk, 0)
		return fiber.H("div", fiber.Props{
			"id":        "outer",
			"onKeyDown": fiber.EventHandler(func(e *fiber.Event) { set.Set(n + 10) }),
		}, fiber.H("input", fiber.Props{
			"id":        "field",
			"value":     n,
			"onKeyDown": fiber.EventHandler(func(e *fiber.Event) { set.Update(func(v int) int { return v + 1 }) }),
		}))
	})
	r.Mount(fiber.H(app, nil), container, nil)
	commits = 0

	require.NoError(t, r.DispatchNodeEvent("keyDown", container.ByAttr("id", "field"), nil))
	assert.Equal(t, 1, commits)
	v, ok := container.ByAttr("id", "field").Attr("value")
	require.True(t, ok)
	assert.Equal(t, "10", v)
	assert.Equal(t, []string{"keyDown"}, r.ListeningTo())
}

func TestDispatchErrors(t *testing.T) {
	r, h, container := setup(t)
	r.Mount(fiber.H("p", fiber.Props{"id": "p"}, "x"), container, nil)

	err := r.DispatchNodeEvent("scroll", container.ByAttr("id", "p"), nil)
	assert.ErrorIs(t, err, fiber.ErrUnknownEvent)
	assert.ErrorIs(t, r.DispatchNodeEvent("click", h.CreateNode("p"), nil), fiber.ErrNotMounted)
	assert.ErrorIs(t, r.DispatchEvent("click", nil, nil), fiber.ErrNotMounted)

	cfg, ok := r.Events().Config("mouseOver")
	require.True(t, ok)
	assert.Equal(t, "onMouseOver", cfg.Bubbled)
	assert.Equal(t, "onMouseOverCapture", cfg.Captured)
}

// a rerender that only swaps a handler closure still refreshes the listener
func TestListenerClosureRefreshed(t *testing.T) {
	r, h, container := setup(t)

	app := fiber.FC("App", func(hk *fiber.Hooks, props fiber.Props) fiber.Node {
		n, set := fiber.UseState(hk, 0)
		return fiber.H("div", nil,
			fiber.H("button", fiber.Props{
				"id":      "inc",
				"onClick": fiber.EventHandler(func(e *fiber.Event) { set.Set(n + 1) }),
			}, "+"),
			fiber.H("span", fiber.Props{"id": "count"}, n),
		)
	})
	r.Mount(fiber.H(app, nil), container, nil)
	h.Reset()

	for range 3 {
		require.NoError(t, r.DispatchNodeEvent("click", container.ByAttr("id", "inc"), nil))
	}
	assert.Equal(t, "3", container.ByAttr("id", "count").TextContent())
	assert.Equal(t, `<div><button id="inc">+</button><span id="count">3</span></div>`, memhost.InnerMarkup(container))

	// handlers never reach the host
	counts := h.Counts()
	assert.Equal(t, 0, counts[memhost.OpSetAttrs])
	assert.Equal(t, 3, counts[memhost.OpSetText])
}
