package fiber_test

import (
	"math/rand"
	"strconv"
	"testing"

	"github.com/delaneyj/fiberparty/fiber"
	"github.com/delaneyj/fiberparty/jsx"
	"github.com/delaneyj/fiberparty/memhost"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMountCreatesHostTree(t *testing.T) {
	h := newHarness(t)
	h.render(jsx.H("div", fiber.Props{"class": "app"},
		jsx.H("h1", nil, "title"),
		jsx.H("p", nil, "count: ", 42),
	))

	assert.Equal(t, `<div class="app"><h1>title</h1><p>count: 42</p></div>`, h.markup())
	assert.Equal(t, 1, h.root.Commits())
	assert.Equal(t, fiber.NoLane, h.root.PendingLanes())

	// The whole tree is inserted with a single placement into the container.
	assert.Equal(t, 1, h.placements(h.container))
	assert.Equal(t, 1, h.host.CountOps(memhost.OpAppend, memhost.OpInsert))
}

func TestKeyedListMinimalMoves(t *testing.T) {
	cases := []struct {
		name      string
		prev, next []string
		moves     int
	}{
		{"identical", []string{"a", "b", "c"}, []string{"a", "b", "c"}, 0},
		{"move last to front", []string{"a", "b", "c", "d"}, []string{"d", "a", "b", "c"}, 3},
		{"move first to back", []string{"a", "b", "c", "d"}, []string{"b", "c", "d", "a"}, 1},
		{"interleave", []string{"a", "b", "c", "d", "e"}, []string{"a", "c", "e", "b", "d"}, 2},
		{"reverse", []string{"a", "b", "c", "d", "e"}, []string{"e", "d", "c", "b", "a"}, 4},
		{"swap ends", []string{"a", "b", "c"}, []string{"c", "b", "a"}, 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.moves, expectedMoves(tc.prev, tc.next))

			h := newHarness(t)
			h.render(keyedList(tc.prev...))
			ul := h.firstHost()
			before := ul.Subtree()
			h.host.ResetOps()

			h.render(keyedList(tc.next...))
			assert.Equal(t, tc.next, ul.ChildKeys())
			assert.Equal(t, tc.moves, h.placements(ul))
			assert.Zero(t, h.host.CountOps(memhost.OpCreate, memhost.OpCreateText, memhost.OpRemove))
			assert.True(t, ul.Subtree().Equal(before), "every host node is reused")
		})
	}
}

func TestKeyedListRandomUpdates(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	h := newHarness(t)

	pool := make([]string, 12)
	for i := range pool {
		pool[i] = "k" + strconv.Itoa(i)
	}

	prev := []string{"k0", "k1", "k2"}
	h.render(keyedList(prev...))
	ul := h.firstHost()

	for round := 0; round < 40; round++ {
		perm := rng.Perm(len(pool))
		next := make([]string, 0, len(pool))
		for _, i := range perm[:2+rng.Intn(len(pool)-2)] {
			next = append(next, pool[i])
		}

		h.host.ResetOps()
		h.render(keyedList(next...))

		require.Equal(t, next, ul.ChildKeys(), "round %d", round)
		require.Equal(t, expectedMoves(prev, next), h.placements(ul), "round %d: %v -> %v", round, prev, next)
		prev = next
	}
	assert.Empty(t, h.errs)
}

func TestReuseKeepsHostInstances(t *testing.T) {
	h := newHarness(t)
	h.render(keyedList("a", "b", "c"))
	ul := h.firstHost()
	items := append([]*memhost.Node(nil), ul.Children...)
	texts := []*memhost.Node{items[0].Children[0], items[1].Children[0], items[2].Children[0]}
	created := h.host.Created().Cardinality()

	h.host.ResetOps()
	changed := jsx.H("ul", fiber.Props{"children": []any{
		jsx.Keyed("a", "li", fiber.Props{"id": "a"}, "a"),
		jsx.Keyed("b", "li", fiber.Props{"id": "b"}, "B!"),
		jsx.Keyed("c", "li", fiber.Props{"id": "c"}, "c"),
	}})
	h.render(changed)

	assert.Equal(t, created, h.host.Created().Cardinality(), "nothing is recreated")
	for i := range items {
		assert.Same(t, items[i], ul.Children[i])
		assert.Same(t, texts[i], ul.Children[i].Children[0])
	}
	assert.Equal(t, "B!", texts[1].Text)

	var textUpdates, elementUpdates int
	for _, op := range h.host.Ops() {
		if op.Kind != memhost.OpUpdate {
			continue
		}
		if op.Node.Kind == memhost.TextNode {
			textUpdates++
			assert.Same(t, texts[1], op.Node)
		} else {
			elementUpdates++
		}
	}
	assert.Equal(t, 1, textUpdates, "only the changed text is updated")
	// ul and all three li receive new props objects.
	assert.Equal(t, 4, elementUpdates)
}

func TestIdenticalRenderHasNoEffects(t *testing.T) {
	h := newHarness(t)
	el := jsx.H("div", nil,
		jsx.Keyed("a", "span", nil, "A"),
		jsx.Keyed("b", "span", nil, "B"),
	)
	h.render(el)
	require.NotZero(t, h.lastCommit().flags&fiber.Placement)

	h.host.ResetOps()
	h.render(el)

	require.Len(t, h.commits, 2)
	assert.Equal(t, fiber.NoFlags, h.lastCommit().flags&(fiber.MutationMask|fiber.PassiveMask))
	assert.Empty(t, h.host.Ops())
	assert.Equal(t, `<div><span>A</span><span>B</span></div>`, h.markup())
}

func TestDeleteKeyedChildMidList(t *testing.T) {
	h := newHarness(t)
	h.render(keyedList("a", "b", "c"))
	ul := h.firstHost()
	a, b, c := ul.Children[0], ul.Children[1], ul.Children[2]

	h.host.ResetOps()
	h.render(keyedList("a", "c"))

	commit := h.lastCommit()
	require.Len(t, commit.deletions, 1, "exactly one parent carries Deletion")
	assert.Equal(t, []string{"b"}, commit.deletions[0].keys)
	assert.Contains(t, commit.deletions[0].parent, "ul")

	assert.Equal(t, []*memhost.Node{a, c}, ul.Children)
	assert.Nil(t, b.Parent)
	assert.True(t, h.host.Removed().Contains(b))
	assert.False(t, h.host.Removed().Contains(a))
	assert.Equal(t, 1, h.host.CountOps(memhost.OpRemove))
	assert.Zero(t, h.host.CountOps(memhost.OpCreate, memhost.OpCreateText))
	assert.Zero(t, h.placements(ul))
}

func TestReplaceTypeWithSameKey(t *testing.T) {
	h := newHarness(t)
	h.render(jsx.H("div", nil, jsx.Keyed("x", "span", nil, "one")))
	old := h.firstHost().Children[0]

	h.render(jsx.H("div", nil, jsx.Keyed("x", "p", nil, "one")))
	div := h.firstHost()
	require.Len(t, div.Children, 1)
	assert.Equal(t, "p", div.Children[0].Tag)
	assert.True(t, h.host.Removed().Contains(old))
}

func TestUnkeyedChildrenMatchByPosition(t *testing.T) {
	h := newHarness(t)
	h.render(jsx.H("div", nil, "a", jsx.H("b", nil, "bold"), "c"))
	div := h.firstHost()
	bold := div.Children[1]

	h.render(jsx.H("div", nil, "x", jsx.H("b", nil, "bolder"), "z"))
	assert.Same(t, bold, div.Children[1])
	assert.Equal(t, `<div>x<b>bolder</b>z</div>`, h.markup())
}

func TestFragmentsAndNestedArrays(t *testing.T) {
	h := newHarness(t)
	h.render(jsx.H("ul", nil,
		jsx.Keyed("head", "li", nil, "head"),
		[]any{"n1", "n2"},
		jsx.Keyed("tail", "li", nil, "tail"),
	))
	assert.Equal(t, `<ul><li>head</li>n1n2<li>tail</li></ul>`, h.markup())

	h.render(jsx.H("ul", nil,
		jsx.Keyed("head", "li", nil, "head"),
		[]any{"n1", "n2", "n3"},
		jsx.Keyed("tail", "li", nil, "tail"),
	))
	assert.Equal(t, `<ul><li>head</li>n1n2n3<li>tail</li></ul>`, h.markup())
}

func TestFragmentInsertedBeforeSibling(t *testing.T) {
	h := newHarness(t)
	h.render(jsx.H("div", nil,
		jsx.Keyed("a", "i", nil, "a"),
		jsx.Keyed("b", "i", nil, "b"),
	))

	h.render(jsx.H("div", nil,
		jsx.Keyed("a", "i", nil, "a"),
		jsx.Keyed("f", fiber.FragmentType, nil, jsx.H("u", nil, "x"), jsx.H("u", nil, "y")),
		jsx.Keyed("b", "i", nil, "b"),
	))
	assert.Equal(t, `<div><i>a</i><u>x</u><u>y</u><i>b</i></div>`, h.markup())
}

func TestTopLevelFragmentIsUnwrapped(t *testing.T) {
	h := newHarness(t)
	h.render(jsx.Fragment(jsx.H("a", nil, "1"), jsx.H("b", nil, "2")))
	assert.Equal(t, `<a>1</a><b>2</b>`, h.markup())
	assert.Len(t, h.container.Children, 2)
}

func TestFunctionComponentsRenderThrough(t *testing.T) {
	label := fiber.FC("Label", func(_ *fiber.Hooks, props fiber.Props) any {
		return jsx.H("span", nil, props["text"])
	})
	pair := fiber.FC("Pair", func(_ *fiber.Hooks, props fiber.Props) any {
		return []any{
			jsx.H(label, fiber.Props{"text": props["left"]}),
			jsx.H(label, fiber.Props{"text": props["right"]}),
		}
	})

	h := newHarness(t)
	h.render(jsx.H("div", nil, jsx.H(pair, fiber.Props{"left": "L", "right": "R"})))
	assert.Equal(t, `<div><span>L</span><span>R</span></div>`, h.markup())

	h.render(jsx.H("div", nil, jsx.H(pair, fiber.Props{"left": "L2", "right": "R"})))
	assert.Equal(t, `<div><span>L2</span><span>R</span></div>`, h.markup())
}

func TestNilAndBoolChildrenRenderNothing(t *testing.T) {
	h := newHarness(t)
	h.render(jsx.H("div", nil, "a", nil, false, "b"))
	assert.Equal(t, `<div>ab</div>`, h.markup())

	h.render(jsx.H("div", nil, true))
	assert.Equal(t, `<div></div>`, h.markup())
}

func TestUnmountClearsContainer(t *testing.T) {
	h := newHarness(t)
	h.render(keyedList("a", "b"))
	ul := h.firstHost()

	h.root.Unmount()
	h.flush()
	assert.Empty(t, h.container.Children)
	assert.True(t, h.host.Removed().Contains(ul))
	assert.Equal(t, "", h.markup())
}

func TestUnknownElementTypeAbortsRender(t *testing.T) {
	h := newHarness(t)
	h.render(jsx.H("div", nil, "ok"))

	h.render(jsx.H("div", nil, &fiber.Element{Type: 42}))
	require.Len(t, h.errs, 1)
	assert.ErrorIs(t, h.errs[0], fiber.ErrRenderPanicked)
	assert.ErrorIs(t, h.errs[0], fiber.ErrUnknownElementType)
	assert.Equal(t, `<div>ok</div>`, h.markup(), "an aborted render never touches the host")
	assert.Equal(t, 1, h.root.Commits())
	assert.False(t, h.root.Rendering())

	h.render(jsx.H("div", nil, "recovered"))
	assert.Equal(t, `<div>recovered</div>`, h.markup())
}

func TestAlternatesToggleAcrossCommits(t *testing.T) {
	h := newHarness(t)
	h.render(jsx.H("div", nil, "1"))
	first := h.root.Current().Child()
	require.NotNil(t, first)
	assert.Nil(t, first.Alternate())

	h.render(jsx.H("div", nil, "2"))
	second := h.root.Current().Child()
	require.NotSame(t, first, second)
	assert.Same(t, first, second.Alternate())

	h.render(jsx.H("div", nil, "3"))
	third := h.root.Current().Child()
	assert.Same(t, first, third, "the committed fiber and its alternate swap roles")
	assert.Same(t, second, third.Alternate())
	assert.Same(t, third, second.Alternate())

	rootFiber := h.root.Current()
	assert.Same(t, rootFiber, rootFiber.Alternate().Alternate())
	assert.Equal(t, `<div>3</div>`, h.markup())
}

type row []any

func TestOnlyChildSlicesRender(t *testing.T) {
	h := newHarness(t)
	h.render(jsx.H("div", nil, []int{1, 2}))
	assert.Equal(t, `<div></div>`, h.markup())

	h.render(jsx.H("div", nil, "a", []byte("xy"), "b"))
	assert.Equal(t, `<div>ab</div>`, h.markup())

	h.render(jsx.H("div", nil, row{"x", jsx.H("i", nil, "y")}, [2]string{"p", "q"}))
	assert.Equal(t, `<div>x<i>y</i>pq</div>`, h.markup())
	assert.Empty(t, h.errs)
}
