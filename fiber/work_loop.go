package fiber

import "github.com/delaneyj/fiberparty/scheduler"

type exitStatus uint8

const (
	rootIncomplete exitStatus = iota + 1
	rootCompleted
	rootErrored
)

func (s exitStatus) String() string {
	switch s {
	case rootIncomplete:
		return "incomplete"
	case rootCompleted:
		return "completed"
	case rootErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// scheduleUpdateOnFiber records lane on the root owning f and makes sure a
// render is scheduled for it.
func (r *Reconciler) scheduleUpdateOnFiber(f *Fiber, lane Lane) {
	node := f
	for node.ret != nil {
		node = node.ret
	}
	root, ok := node.stateNode.(*Root)
	if node.tag != HostRoot || !ok {
		r.logger.Warn("update on unmounted fiber dropped", "fiber", f.String(), "lane", lane)
		return
	}
	root.markUpdated(lane)
	r.ensureRootIsScheduled(root)
}

func (r *Reconciler) dispatchSetState(f *Fiber, q *SharedQueue, value any, reducer func(any) any) {
	lane := r.requestUpdateLane()
	q.enqueue(newUpdate(value, reducer, lane))
	r.scheduleUpdateOnFiber(f, lane)
}

func (root *Root) markUpdated(lane Lane) {
	root.pendingLanes = mergeLanes(root.pendingLanes, lane)
	if root.wip != nil {
		root.interleavedLanes = mergeLanes(root.interleavedLanes, lane)
	}
}

// markRootFinished clears the committed lane. Lanes updated while the
// committed tree was rendering stay pending: their updates may have arrived
// after the state slot they target was processed.
func (root *Root) markRootFinished(lane Lane) {
	root.pendingLanes = mergeLanes(removeLanes(root.pendingLanes, lane), root.interleavedLanes)
	root.interleavedLanes = NoLane
}

// ensureRootIsScheduled keeps exactly one callback scheduled for the highest
// pending lane of root, replacing a stale one when the priority changed.
func (r *Reconciler) ensureRootIsScheduled(root *Root) {
	lane := getHighestPriorityLane(root.pendingLanes)
	existing := root.callbackNode

	if lane == NoLane {
		if existing != nil {
			r.sched.CancelCallback(existing)
		}
		root.callbackNode = nil
		root.callbackPriority = NoLane
		return
	}
	if lane == root.callbackPriority {
		return
	}
	if existing != nil {
		r.sched.CancelCallback(existing)
	}

	var node *scheduler.Task
	if lane == SyncLane {
		r.logger.Debug("scheduling sync render", "lane", lane)
		r.syncQueue.schedule(root.performSyncWork)
		r.host.ScheduleMicroTask(r.flushSyncCallbacks)
	} else {
		p := lanesToSchedulerPriority(lane)
		r.logger.Debug("scheduling concurrent render", "lane", lane, "priority", p)
		node = r.sched.ScheduleCallback(p, root.performConcurrentWork)
	}
	root.callbackNode = node
	root.callbackPriority = lane
}

func (root *Root) performSyncWork() {
	root.flushPassiveEffects()

	lane := getHighestPriorityLane(root.pendingLanes)
	if lane != SyncLane {
		root.rec.ensureRootIsScheduled(root)
		return
	}

	switch status := root.renderRoot(lane, false); status {
	case rootCompleted:
		root.finishWork(lane)
	case rootErrored:
	default:
		root.rec.logger.Error("sync render did not complete", "status", status)
	}
}

func (root *Root) performConcurrentWork(didTimeout bool) scheduler.Callback {
	cb := root.callbackNode
	if root.flushPassiveEffects() && root.callbackNode != cb {
		return nil
	}

	lane := getHighestPriorityLane(root.pendingLanes)
	if lane == NoLane {
		return nil
	}
	cb = root.callbackNode

	timeSlice := lane != SyncLane && !didTimeout
	status := root.renderRoot(lane, timeSlice)
	switch status {
	case rootIncomplete:
		root.rec.ensureRootIsScheduled(root)
		if root.callbackNode != cb {
			return nil
		}
		return root.performConcurrentWork
	case rootCompleted:
		root.finishWork(lane)
	}
	return nil
}

func (root *Root) finishWork(lane Lane) {
	root.finishedWork = root.current.alternate
	root.finishedLane = lane
	root.wip = nil
	root.wipRenderLane = NoLane
	root.commitRoot()
}

func (root *Root) prepareFreshStack(lane Lane) {
	root.finishedLane = NoLane
	root.finishedWork = nil
	root.interleavedLanes = NoLane
	root.wip = createWorkInProgress(root.current, Props{})
	root.wipRenderLane = lane
}

func (root *Root) renderRoot(lane Lane, timeSlice bool) exitStatus {
	r := root.rec
	if root.wipRenderLane != lane {
		if root.wip != nil {
			r.logger.Debug("discarding work in progress", "was", root.wipRenderLane, "now", lane)
		}
		root.prepareFreshStack(lane)
	}
	r.logger.Debug("render", "lane", lane, "timeSlice", timeSlice)

	if err := root.workLoop(timeSlice); err != nil {
		r.logger.Error("render aborted", "lane", lane, "err", err)
		root.wip = nil
		root.wipRenderLane = NoLane
		root.interleavedLanes = NoLane
		if root.callbackNode != nil {
			r.sched.CancelCallback(root.callbackNode)
		}
		root.callbackNode = nil
		root.callbackPriority = NoLane
		if r.onError != nil {
			r.onError(root, err)
		}
		return rootErrored
	}

	if root.wip != nil {
		return rootIncomplete
	}
	return rootCompleted
}

func (root *Root) workLoop(timeSlice bool) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = recoveredError(ErrRenderPanicked, rec)
		}
	}()

	for root.wip != nil {
		root.performUnitOfWork(root.wip)
		if timeSlice && root.wip != nil && root.rec.sched.ShouldYield() {
			return nil
		}
	}
	return nil
}

func (root *Root) performUnitOfWork(f *Fiber) {
	next := root.rec.beginWork(f, root.wipRenderLane)
	f.memoizedProps = f.pendingProps
	if next == nil {
		root.completeUnitOfWork(f)
		return
	}
	root.wip = next
}

func (root *Root) completeUnitOfWork(f *Fiber) {
	node := f
	for node != nil {
		root.rec.completeWork(node)
		if sibling := node.sibling; sibling != nil {
			root.wip = sibling
			return
		}
		node = node.ret
		root.wip = node
	}
}

func (root *Root) commitRoot() {
	r := root.rec
	finished := root.finishedWork
	if finished == nil {
		return
	}
	lane := root.finishedLane
	if lane == NoLane {
		r.logger.Warn("commit without a finished lane")
	}
	root.finishedWork = nil
	root.finishedLane = NoLane
	root.markRootFinished(lane)

	if root.callbackNode != nil {
		r.sched.CancelCallback(root.callbackNode)
	}
	root.callbackNode = nil
	root.callbackPriority = NoLane

	if r.onCommit != nil {
		r.onCommit(root, finished)
	}

	allFlags := finished.flags | finished.subtreeFlags
	if allFlags&PassiveMask != NoFlags && !root.hasPassiveEffects {
		root.hasPassiveEffects = true
		r.sched.ScheduleCallback(scheduler.NormalPriority, func(bool) scheduler.Callback {
			root.hasPassiveEffects = false
			root.flushPassiveEffects()
			return nil
		})
	}

	if allFlags&(MutationMask|PassiveMask) != NoFlags {
		root.commitMutationEffects(finished)
	}
	root.current = finished
	root.commits++
	r.logger.Debug("committed", "lane", lane, "flags", allFlags, "pending", root.pendingLanes)

	r.ensureRootIsScheduled(root)
}
