package fiber

// beginWork reconciles the children of wip and returns its first child, or
// nil when the subtree bottoms out.
func (r *Reconciler) beginWork(wip *Fiber, lane Lane) *Fiber {
	switch wip.tag {
	case HostRoot:
		return r.updateHostRoot(wip, lane)
	case HostComponent:
		return r.reconcileChildren(wip, wip.pendingProps.Children())
	case HostText:
		return nil
	case FunctionComponent:
		children := r.renderWithHooks(wip.alternate, wip, lane)
		return r.reconcileChildren(wip, children)
	case Fragment:
		return r.reconcileChildren(wip, wip.pendingProps.Children())
	default:
		r.logger.Warn("beginWork: unhandled fiber tag", "tag", wip.tag)
		return nil
	}
}

func (r *Reconciler) updateHostRoot(wip *Fiber, lane Lane) *Fiber {
	current := wip.alternate
	cq := current.updateQueue

	if pending := cq.shared.pending; pending != nil {
		cq.shared.pending = nil
		cq.baseQueue = mergeRings(cq.baseQueue, pending)
	}

	memoized, baseState, baseQueue := processUpdateQueue(cq.baseState, cq.baseQueue, lane)
	wip.updateQueue = &UpdateQueue{
		shared:    cq.shared,
		baseState: baseState,
		baseQueue: baseQueue,
	}
	wip.memoizedState = memoized
	return r.reconcileChildren(wip, memoized)
}

func (r *Reconciler) reconcileChildren(wip *Fiber, children any) *Fiber {
	if current := wip.alternate; current != nil {
		wip.child = r.reconcile.reconcileChildFibers(wip, current.child, children)
	} else {
		wip.child = r.mount.reconcileChildFibers(wip, nil, children)
	}
	return wip.child
}
