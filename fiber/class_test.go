package fiber_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/delaneyj/fibertree/fiber"
	"github.com/delaneyj/fibertree/memhost"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type probe struct {
	fiber.Base
	name    string
	log     *[]string
	explode bool
}

func (p *probe) Render() fiber.Node {
	return fiber.H("div", fiber.Props{"id": p.name}, p.Props()["children"])
}

func (p *probe) DidMount() {
	*p.log = append(*p.log, p.name+":didMount")
}

func (p *probe) DidUpdate(prevProps fiber.Props, prevState fiber.State, snapshot any) {
	*p.log = append(*p.log, fmt.Sprintf("%s:didUpdate(%v)", p.name, snapshot))
}

func (p *probe) SnapshotBeforeUpdate(prevProps fiber.Props, prevState fiber.State) any {
	*p.log = append(*p.log, p.name+":snapshot")
	return prevProps["rev"]
}

func (p *probe) WillUnmount() {
	*p.log = append(*p.log, p.name+":willUnmount")
	if p.explode {
		panic(errors.New("boom"))
	}
}

func probeClass(log *[]string) *fiber.ClassComponent {
	return fiber.NewClass("Probe", func(props fiber.Props) fiber.Component {
		name, _ := props["name"].(string)
		return &probe{name: name, log: log, explode: props["explode"] == true}
	})
}

func TestClassLifecycleOrder(t *testing.T) {
	r, _, container := setup(t)

	var log []string
	cls := probeClass(&log)
	tree := func(rev int) fiber.Node {
		return fiber.H(cls, fiber.Props{"name": "outer", "rev": rev},
			fiber.H(cls, fiber.Props{"name": "inner", "rev": rev}),
		)
	}

	r.Mount(tree(1), container, nil)
	assert.Equal(t, []string{"inner:didMount", "outer:didMount"}, log)
	assert.Equal(t, `<div id="outer"><div id="inner"></div></div>`, memhost.InnerMarkup(container))

	log = nil
	r.Mount(tree(2), container, nil)
	assert.Equal(t, []string{
		"inner:snapshot",
		"outer:snapshot",
		"inner:didUpdate(1)",
		"outer:didUpdate(1)",
	}, log)

	log = nil
	require.NoError(t, r.Unmount(container))
	assert.Equal(t, []string{"outer:willUnmount", "inner:willUnmount"}, log)
	assert.Empty(t, container.Children)
}

// a panicking unmount lifecycle is reported while the rest of the subtree
// still unmounts
func TestDeletionCascadeIsolatesPanics(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)

	var reported []error
	h := memhost.New()
	container := h.NewContainer("root")
	r, err := fiber.New(h,
		fiber.WithLogger(zap.New(core)),
		fiber.WithOnError(func(from *fiber.Fiber, err error) {
			reported = append(reported, err)
		}),
	)
	require.NoError(t, err)

	var log []string
	cls := probeClass(&log)
	r.Mount(fiber.H("main", nil,
		fiber.H(cls, fiber.Props{"name": "a", "key": "a"}),
		fiber.H(cls, fiber.Props{"name": "b", "key": "b", "explode": true},
			fiber.H(cls, fiber.Props{"name": "b1"}),
		),
		fiber.H(cls, fiber.Props{"name": "c", "key": "c"}),
	), container, nil)
	log = nil

	r.Mount(fiber.H("main", nil, fiber.H(cls, fiber.Props{"name": "a", "key": "a"})), container, nil)
	assert.Equal(t, []string{
		"b:willUnmount",
		"b1:willUnmount",
		"c:willUnmount",
		"a:didUpdate(<nil>)",
	}, log[1:])
	assert.Equal(t, "a:snapshot", log[0])
	assert.Equal(t, `<main><div id="a"></div></main>`, memhost.InnerMarkup(container))

	require.Len(t, reported, 1)
	var le *fiber.LifecycleError
	require.True(t, errors.As(reported[0], &le))
	assert.Equal(t, "willUnmount", le.Phase)
	assert.Equal(t, "Probe", le.Component)
	assert.EqualError(t, le.Cause, "boom")

	entries := logs.FilterMessage("recovered callback panic").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "willUnmount", fields["phase"])
	assert.Equal(t, "Probe", fields["component"])
}

type counter struct {
	fiber.Base
	renders *int
	allow   bool
}

func (c *counter) Render() fiber.Node {
	*c.renders++
	return fiber.H("span", nil, c.State()["n"])
}

func (c *counter) ShouldUpdate(nextProps fiber.Props, nextState fiber.State) bool {
	return c.allow
}

func TestForceUpdateBypassesShouldUpdate(t *testing.T) {
	r, _, container := setup(t)

	var (
		renders int
		inst    *counter
	)
	cls := fiber.NewClass("Counter", func(props fiber.Props) fiber.Component {
		inst = &counter{renders: &renders}
		inst.SetInitialState(fiber.State{"n": 0})
		return inst
	})
	r.Mount(fiber.H(cls, nil), container, nil)
	assert.Equal(t, "<span>0</span>", memhost.InnerMarkup(container))
	assert.Equal(t, 1, renders)

	var done int
	require.NoError(t, inst.SetState(fiber.State{"n": 1}, func() { done++ }))
	assert.Equal(t, 1, renders)
	assert.Equal(t, 1, inst.State()["n"])
	assert.Equal(t, "<span>0</span>", memhost.InnerMarkup(container))
	assert.Equal(t, 1, done)

	require.NoError(t, inst.ForceUpdate(func() { done++ }))
	assert.Equal(t, 2, renders)
	assert.Equal(t, "<span>1</span>", memhost.InnerMarkup(container))
	assert.Equal(t, 2, done)

	inst.allow = true
	require.NoError(t, inst.SetState(fiber.Updater(func(prev fiber.State, _ fiber.Props) fiber.State {
		return fiber.State{"n": prev["n"].(int) + 1}
	}), nil))
	assert.Equal(t, "<span>2</span>", memhost.InnerMarkup(container))

	require.NoError(t, inst.ReplaceState(fiber.State{"n": 9}, nil))
	assert.Equal(t, fiber.State{"n": 9}, inst.State())
	assert.ErrorIs(t, inst.SetState(42, nil), fiber.ErrUnsupportedPayload)
}

func TestDerivedState(t *testing.T) {
	r, _, container := setup(t)

	var renders int
	cls := fiber.NewClass("Doubler", func(props fiber.Props) fiber.Component {
		return &counter{renders: &renders, allow: true}
	}, fiber.WithDerivedState(func(props fiber.Props, prev fiber.State) fiber.State {
		return fiber.State{"n": props["n"].(int) * 2}
	}))

	r.Mount(fiber.H(cls, fiber.Props{"n": 2}), container, nil)
	assert.Equal(t, "<span>4</span>", memhost.InnerMarkup(container))
	r.Mount(fiber.H(cls, fiber.Props{"n": 5}), container, nil)
	assert.Equal(t, "<span>10</span>", memhost.InnerMarkup(container))
}

type mounter struct {
	fiber.Base
}

func (m *mounter) Render() fiber.Node {
	if m.State()["mounted"] == true {
		return fiber.H("p", nil, "mounted")
	}
	return fiber.H("p", nil, "pending")
}

func (m *mounter) DidMount() {
	if err := m.SetState(fiber.State{"mounted": true}, nil); err != nil {
		panic(err)
	}
}

// state set during a commit waits for the next flush
func TestDidMountSetStateDeferred(t *testing.T) {
	r, _, container := setup(t)

	var inst *mounter
	cls := fiber.NewClass("Mounter", func(props fiber.Props) fiber.Component {
		inst = &mounter{}
		return inst
	})

	r.Mount(fiber.H(cls, nil), container, nil)
	assert.Equal(t, "<p>pending</p>", memhost.InnerMarkup(container))
	assert.True(t, r.Pending())

	r.Flush()
	assert.Equal(t, "<p>mounted</p>", memhost.InnerMarkup(container))
	assert.False(t, r.Pending())

	require.NoError(t, r.EnqueueComponentUpdate(inst, fiber.State{"mounted": false}, nil))
	assert.Equal(t, "<p>pending</p>", memhost.InnerMarkup(container))

	require.NoError(t, r.Unmount(container))
	assert.ErrorIs(t, inst.SetState(fiber.State{"mounted": true}, nil), fiber.ErrNotMounted)
}

func TestBatchCoalesces(t *testing.T) {
	var commits int
	r, _, container := setup(t, fiber.WithCommitHook(func(fiber.CommitStats) { commits++ }))

	var inst *mounter
	cls := fiber.NewClass("Mounter", func(props fiber.Props) fiber.Component {
		inst = &mounter{}
		return inst
	})
	r.Mount(fiber.H("main", nil, fiber.H(cls, nil)), container, nil)
	r.Flush()
	commits = 0

	r.Batch(func() {
		require.NoError(t, inst.SetState(fiber.State{"mounted": false}, nil))
		require.NoError(t, inst.SetState(fiber.State{"mounted": true}, nil))
		require.NoError(t, inst.SetState(fiber.State{"mounted": false}, nil))
		assert.True(t, r.Pending())
	})
	assert.Equal(t, 1, commits)
	assert.Equal(t, "<main><p>pending</p></main>", memhost.InnerMarkup(container))
}
