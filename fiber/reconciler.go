package fiber

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/delaneyj/fiberparty/scheduler"
)

// Reconciler drives any number of roots against one host and one scheduler.
// All of its methods, and every Setter it hands out, must be used from the
// goroutine that runs the scheduler.
type Reconciler struct {
	host  Host
	sched Scheduler

	logger   *slog.Logger
	onError  func(root *Root, err error)
	onCommit func(root *Root, finished *Fiber)

	reconcile childReconciler
	mount     childReconciler
	syncQueue syncQueue
	// updateLane is the ambient lane set by WithLane.
	updateLane Lane
}

type Option func(*Reconciler)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		r.logger = logger
	}
}

// WithOnError receives render aborts and panics recovered from effects and
// sync callbacks. root is nil when the failure is not tied to one root.
func WithOnError(fn func(root *Root, err error)) Option {
	return func(r *Reconciler) {
		r.onError = fn
	}
}

// WithOnCommit is called with every finished tree before its mutations are
// applied, while its effect flags are still set.
func WithOnCommit(fn func(root *Root, finished *Fiber)) Option {
	return func(r *Reconciler) {
		r.onCommit = fn
	}
}

func NewReconciler(host Host, sched Scheduler, opts ...Option) *Reconciler {
	r := &Reconciler{
		host:  host,
		sched: sched,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	r.reconcile = childReconciler{trackEffects: true, logger: r.logger}
	r.mount = childReconciler{trackEffects: false, logger: r.logger}
	return r
}

// WithLane runs fn with lane as the lane of every update it dispatches.
func (r *Reconciler) WithLane(lane Lane, fn func()) {
	prev := r.updateLane
	r.updateLane = lane
	defer func() { r.updateLane = prev }()
	fn()
}

func (r *Reconciler) requestUpdateLane() Lane {
	if r.updateLane == NoLane {
		return SyncLane
	}
	return r.updateLane
}

// FlushSync runs queued sync renders now instead of at the next microtask.
func (r *Reconciler) FlushSync() {
	r.flushSyncCallbacks()
}

// CreateContainer creates a root rendering into container.
func (r *Reconciler) CreateContainer(container Container) *Root {
	hostRoot := newFiber(HostRoot, Props{}, "")
	hostRoot.updateQueue = newUpdateQueue()
	root := &Root{
		rec:       r,
		container: container,
		current:   hostRoot,
	}
	hostRoot.stateNode = root
	return root
}

// UpdateContainer enqueues element, or nil to clear the root, at the ambient
// lane and schedules a render.
func (r *Reconciler) UpdateContainer(element any, root *Root) {
	lane := r.requestUpdateLane()
	root.current.updateQueue.shared.enqueue(newUpdate(element, nil, lane))
	r.scheduleUpdateOnFiber(root.current, lane)
}

func (r *Reconciler) safeCall(kind string, root *Root, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			err := recoveredError(fmt.Errorf("fiber: %s panicked", kind), rec)
			r.logger.Error("recovered panic", "kind", kind, "err", err)
			if r.onError != nil {
				r.onError(root, err)
			}
		}
	}()
	fn()
}

func (r *Reconciler) safeEffect(root *Root, kind string, fn func()) {
	r.safeCall("effect "+kind, root, fn)
}

// Root is one mounted tree.
type Root struct {
	rec       *Reconciler
	container Container
	current   *Fiber

	finishedWork *Fiber
	finishedLane Lane
	pendingLanes Lane

	callbackNode     *scheduler.Task
	callbackPriority Lane

	wip              *Fiber
	wipRenderLane    Lane
	interleavedLanes Lane

	pendingPassiveEffects pendingPassiveEffects
	hasPassiveEffects     bool
	commits               int
}

// Render schedules el as the root's new tree.
func (root *Root) Render(el any) {
	root.rec.UpdateContainer(el, root)
}

// Unmount schedules the removal of the root's whole tree.
func (root *Root) Unmount() {
	root.rec.UpdateContainer(nil, root)
}

func (root *Root) Container() Container { return root.container }

// Current is the committed root fiber.
func (root *Root) Current() *Fiber { return root.current }

func (root *Root) PendingLanes() Lane { return root.pendingLanes }

// Commits counts the trees committed by this root.
func (root *Root) Commits() int { return root.commits }

// Rendering reports whether a work-in-progress tree is suspended mid-render.
func (root *Root) Rendering() bool { return root.wip != nil }

// FlushPassiveEffects runs pending passive effects now and reports whether
// there were any.
func (root *Root) FlushPassiveEffects() bool {
	return root.flushPassiveEffects()
}
