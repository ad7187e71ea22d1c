package fiber_test

import (
	"testing"
	"time"

	"github.com/delaneyj/fiberparty/fiber"
	"github.com/delaneyj/fiberparty/jsx"
	"github.com/delaneyj/fiberparty/memhost"
	"github.com/delaneyj/fiberparty/scheduler"
)

type deletionRecord struct {
	parent string
	keys   []string
}

type commitRecord struct {
	flags     fiber.Flags
	finished  *fiber.Fiber
	deletions []deletionRecord
}

type harness struct {
	t         *testing.T
	sched     *scheduler.Scheduler
	host      *memhost.Host
	rec       *fiber.Reconciler
	container *memhost.Node
	root      *fiber.Root
	commits   []commitRecord
	errs      []error
}

func newHarness(t *testing.T, opts ...scheduler.Option) *harness {
	t.Helper()
	frozen := time.Unix(1_700_000_000, 0)
	opts = append([]scheduler.Option{scheduler.WithClock(func() time.Time { return frozen })}, opts...)

	h := &harness{t: t, sched: scheduler.New(opts...)}
	h.host = memhost.New(h.sched)
	h.rec = fiber.NewReconciler(h.host, h.sched,
		fiber.WithOnCommit(func(_ *fiber.Root, finished *fiber.Fiber) {
			rec := commitRecord{
				flags:    finished.Flags() | finished.SubtreeFlags(),
				finished: finished,
			}
			walkFibers(finished, func(f *fiber.Fiber) {
				if f.Flags()&fiber.Deletion == 0 {
					return
				}
				d := deletionRecord{parent: f.String()}
				for _, del := range f.Deletions() {
					d.keys = append(d.keys, del.Key())
				}
				rec.deletions = append(rec.deletions, d)
			})
			h.commits = append(h.commits, rec)
		}),
		fiber.WithOnError(func(_ *fiber.Root, err error) {
			h.errs = append(h.errs, err)
		}),
	)
	h.container = h.host.NewContainer()
	h.root = h.rec.CreateContainer(h.container)
	return h
}

// render schedules el and runs the scheduler until nothing is pending.
func (h *harness) render(el any) {
	h.root.Render(el)
	h.flush()
}

func (h *harness) flush() {
	h.sched.RunUntilIdle()
}

func (h *harness) lastCommit() commitRecord {
	h.t.Helper()
	if len(h.commits) == 0 {
		h.t.Fatal("nothing committed")
	}
	return h.commits[len(h.commits)-1]
}

func (h *harness) markup() string {
	return memhost.Markup(h.container)
}

func (h *harness) firstHost() *memhost.Node {
	h.t.Helper()
	if len(h.container.Children) == 0 {
		h.t.Fatal("container is empty")
	}
	return h.container.Children[0]
}

// placements counts the nodes appended or inserted into parent since the
// last ResetOps.
func (h *harness) placements(parent *memhost.Node) int {
	n := 0
	for _, op := range h.host.Ops() {
		if (op.Kind == memhost.OpAppend || op.Kind == memhost.OpInsert) && op.Parent == parent {
			n++
		}
	}
	return n
}

func keyedList(keys ...string) *fiber.Element {
	items := make([]any, len(keys))
	for i, k := range keys {
		items[i] = jsx.Keyed(k, "li", fiber.Props{"id": k}, k)
	}
	return jsx.H("ul", fiber.Props{"children": items})
}

// expectedMoves counts the children of next that must be placed when
// reconciled against prev: new keys plus reused keys found left of the
// rightmost reused position so far.
func expectedMoves(prev, next []string) int {
	oldIndex := make(map[string]int, len(prev))
	for i, k := range prev {
		oldIndex[k] = i
	}
	moves, lastPlaced := 0, 0
	for _, k := range next {
		i, ok := oldIndex[k]
		switch {
		case !ok:
			moves++
		case i < lastPlaced:
			moves++
		default:
			lastPlaced = i
		}
	}
	return moves
}

func walkFibers(f *fiber.Fiber, fn func(*fiber.Fiber)) {
	if f == nil {
		return
	}
	fn(f)
	for c := f.Child(); c != nil; c = c.Sibling() {
		walkFibers(c, fn)
	}
}

func recoverErr(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err, _ = r.(error)
		}
	}()
	fn()
	return nil
}
