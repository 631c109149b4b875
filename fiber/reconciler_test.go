package fiber_test

import (
	"testing"

	"github.com/delaneyj/fibertree/fiber"
	"github.com/delaneyj/fibertree/memhost"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, opts ...fiber.Option) (*fiber.Reconciler, *memhost.Host, *memhost.Node) {
	t.Helper()
	h := memhost.New()
	container := h.NewContainer("root")
	opts = append([]fiber.Option{fiber.WithOnError(func(from *fiber.Fiber, err error) {
		assert.FailNow(t, err.Error())
	})}, opts...)
	r, err := fiber.New(h, opts...)
	require.NoError(t, err)
	return r, h, container
}

func TestNewRequiresHost(t *testing.T) {
	_, err := fiber.New(nil)
	assert.ErrorIs(t, err, fiber.ErrNilHost)
}

func card(title string, tags ...string) fiber.Node {
	items := make([]fiber.Node, len(tags))
	for i, tag := range tags {
		items[i] = fiber.H("li", fiber.Props{"key": tag, "class": "tag"}, tag)
	}
	return fiber.H("section", fiber.Props{"id": "card", "style": map[string]any{"color": "red"}},
		fiber.H("h1", nil, title),
		fiber.H("ul", nil, items),
	)
}

func TestMountRendersTree(t *testing.T) {
	r, _, container := setup(t)

	var completed bool
	r.Mount(card("hello", "x", "y"), container, func() { completed = true })
	assert.True(t, completed)
	assert.Equal(t,
		`<section id="card" style="color:red;"><h1>hello</h1><ul><li class="tag">x</li><li class="tag">y</li></ul></section>`,
		memhost.InnerMarkup(container),
	)
	assert.False(t, r.Pending())
}

// rendering an equivalent tree issues no host operations
func TestRenderIdempotent(t *testing.T) {
	r, h, container := setup(t)
	r.Mount(card("hello", "x", "y"), container, nil)

	h.Reset()
	r.Mount(card("hello", "x", "y"), container, nil)
	assert.Empty(t, h.Log())
}

func TestUpdateMinimalOps(t *testing.T) {
	r, h, container := setup(t)
	r.Mount(card("hello", "x", "y"), container, nil)

	h.Reset()
	r.Mount(card("bye", "x", "y"), container, nil)
	assert.Equal(t, []string{`setText #2 "bye"`}, h.Log())

	h.Reset()
	r.Mount(card("bye", "x"), container, nil)
	require.Len(t, h.Ops(), 1)
	assert.Equal(t, memhost.OpRemove, h.Ops()[0].Kind)
	assert.Equal(t, `<section id="card" style="color:red;"><h1>bye</h1><ul><li class="tag">x</li></ul></section>`,
		memhost.InnerMarkup(container))
}

func TestRootReuse(t *testing.T) {
	r, _, container := setup(t)
	a := r.Mount(fiber.H("p", nil, "a"), container, nil)
	b := r.Mount(fiber.H("p", nil, "b"), container, nil)
	assert.Same(t, a, b)
	assert.Equal(t, a.ID(), b.ID())
	assert.Same(t, container, a.Container())
	assert.Equal(t, "<p>b</p>", memhost.InnerMarkup(container))
}

func TestUnmount(t *testing.T) {
	r, h, container := setup(t)
	r.Mount(card("hello", "x"), container, nil)

	h.Reset()
	require.NoError(t, r.Unmount(container))
	assert.Equal(t, "", memhost.InnerMarkup(container))
	assert.Len(t, h.Ops(), 1)
	assert.ErrorIs(t, r.Unmount(container), fiber.ErrNotMounted)
}

func TestFiberForNode(t *testing.T) {
	r, _, container := setup(t)
	r.Mount(card("hello", "x"), container, nil)

	node := container.ByAttr("id", "card")
	require.NotNil(t, node)
	f := r.FiberForNode(node)
	require.NotNil(t, f)
	assert.Equal(t, fiber.HostElementKind, f.Kind())
	assert.Equal(t, "section", f.Type())
	assert.Equal(t, "card", f.Props()["id"])
	assert.Same(t, node, f.HostNode())

	assert.Nil(t, r.FiberForNode(container))
}

func TestCommitHook(t *testing.T) {
	var stats []fiber.CommitStats
	r, _, container := setup(t, fiber.WithCommitHook(func(cs fiber.CommitStats) {
		stats = append(stats, cs)
	}))

	root := r.Mount(card("hello", "x"), container, func() {})
	r.Mount(card("hello", "x", "y"), container, nil)

	require.Len(t, stats, 2)
	assert.Equal(t, root.ID().String(), stats[0].Root)
	assert.Equal(t, 1, stats[0].Placements)
	assert.Equal(t, 1, stats[0].Lifecycles)
	assert.Equal(t, 1, stats[1].Placements)
	assert.Zero(t, stats[1].Deletions)
}

func TestStyleDiff(t *testing.T) {
	r, h, container := setup(t)
	styled := func(style map[string]any) fiber.Node {
		return fiber.H("div", fiber.Props{"style": style})
	}

	r.Mount(styled(map[string]any{"color": "red", "width": "1px"}), container, nil)
	h.Reset()
	r.Mount(styled(map[string]any{"color": "blue"}), container, nil)
	assert.Equal(t, []string{`setAttrs #2 [style]`}, h.Log())
	assert.Equal(t, `<div style="color:blue;"></div>`, memhost.InnerMarkup(container))

	h.Reset()
	r.Mount(fiber.H("div", nil), container, nil)
	assert.Equal(t, `<div></div>`, memhost.InnerMarkup(container))
}
