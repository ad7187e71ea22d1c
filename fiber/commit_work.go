package fiber

type pendingPassiveEffects struct {
	unmount []*Effect
	update  []*Effect
}

// commitMutationEffects walks finished in post order, descending only into
// subtrees that carry mutation or passive flags.
func (r *Root) commitMutationEffects(finished *Fiber) {
	next := finished
	for next != nil {
		child := next.child
		if next.subtreeFlags&(MutationMask|PassiveMask) != NoFlags && child != nil {
			next = child
			continue
		}
		for next != nil {
			r.commitMutationEffectsOnFiber(next)
			if next == finished {
				return
			}
			if sibling := next.sibling; sibling != nil {
				next = sibling
				break
			}
			next = next.ret
		}
	}
}

func (r *Root) commitMutationEffectsOnFiber(f *Fiber) {
	flags := f.flags
	if flags&Placement != NoFlags {
		r.commitPlacement(f)
		f.flags &^= Placement
	}
	if flags&Update != NoFlags {
		r.rec.host.CommitUpdate(f)
		f.flags &^= Update
	}
	if flags&Deletion != NoFlags {
		for _, d := range f.deletions {
			r.commitDeletion(d)
		}
		f.flags &^= Deletion
	}
	if flags&PassiveEffect != NoFlags {
		if f.updateQueue == nil || f.updateQueue.lastEffect == nil {
			r.rec.logger.Warn("passive effect flag without effects", "fiber", f.String())
		} else {
			r.pendingPassiveEffects.update = append(r.pendingPassiveEffects.update, f.updateQueue.lastEffect)
		}
		f.flags &^= PassiveEffect
	}
}

func (r *Root) commitPlacement(f *Fiber) {
	parent, ok := r.getHostParent(f)
	if !ok {
		return
	}
	insertOrAppendPlacementNode(r.rec.host, f, parent, getHostSibling(f))
}

func (r *Root) getHostParent(f *Fiber) (Container, bool) {
	for parent := f.ret; parent != nil; parent = parent.ret {
		switch parent.tag {
		case HostComponent:
			return parent.stateNode, true
		case HostRoot:
			if root, ok := parent.stateNode.(*Root); ok {
				return root.container, true
			}
		}
	}
	r.rec.logger.Warn("no host parent found", "fiber", f.String())
	return nil, false
}

// getHostSibling finds the host instance f must be inserted before: the next
// host node in document order under the same host parent that is not itself
// being placed.
func getHostSibling(f *Fiber) Instance {
	node := f
findSibling:
	for {
		for node.sibling == nil {
			parent := node.ret
			if parent == nil || parent.tag == HostComponent || parent.tag == HostRoot {
				return nil
			}
			node = parent
		}
		node.sibling.ret = node.ret
		node = node.sibling

		for !node.IsHost() {
			if node.flags&Placement != NoFlags || node.child == nil {
				continue findSibling
			}
			node.child.ret = node
			node = node.child
		}
		if node.flags&Placement == NoFlags {
			return node.stateNode
		}
	}
}

func insertOrAppendPlacementNode(host Host, f *Fiber, parent Container, before Instance) {
	if f.IsHost() {
		if before != nil {
			host.InsertChildToContainer(f.stateNode, parent, before)
		} else {
			host.AppendChildToContainer(parent, f.stateNode)
		}
		return
	}
	for child := f.child; child != nil; child = child.sibling {
		insertOrAppendPlacementNode(host, child, parent, before)
	}
}

func (r *Root) commitDeletion(child *Fiber) {
	var hostRoots []*Fiber
	r.commitNestedUnmounts(child, false, &hostRoots)

	if len(hostRoots) > 0 {
		if parent, ok := r.getHostParent(child); ok {
			for _, n := range hostRoots {
				r.rec.host.RemoveChild(n.stateNode, parent)
			}
		}
	}

	detachFiber(child)
	if alt := child.alternate; alt != nil {
		detachFiber(alt)
	}
}

// commitNestedUnmounts visits the deleted subtree, queueing the unmount
// effects of every function component and recording only the topmost host
// nodes, whose removal takes their descendants with them.
func (r *Root) commitNestedUnmounts(f *Fiber, insideHost bool, hostRoots *[]*Fiber) {
	switch f.tag {
	case HostComponent, HostText:
		if !insideHost {
			*hostRoots = append(*hostRoots, f)
			insideHost = true
		}
	case FunctionComponent:
		if q := f.updateQueue; q != nil && q.lastEffect != nil {
			r.pendingPassiveEffects.unmount = append(r.pendingPassiveEffects.unmount, q.lastEffect)
		}
	}
	for c := f.child; c != nil; c = c.sibling {
		r.commitNestedUnmounts(c, insideHost, hostRoots)
	}
}

func detachFiber(f *Fiber) {
	f.ret = nil
	f.child = nil
}

// flushPassiveEffects runs queued unmount destroys, then the destroys of
// effects about to re-run, then their creates. It reports whether any effect
// list was processed.
func (r *Root) flushPassiveEffects() bool {
	did := false

	unmount := r.pendingPassiveEffects.unmount
	r.pendingPassiveEffects.unmount = nil
	for _, last := range unmount {
		did = true
		r.commitHookEffectListUnmount(HookPassive, last)
	}

	updates := r.pendingPassiveEffects.update
	r.pendingPassiveEffects.update = nil
	for _, last := range updates {
		did = true
		r.commitHookEffectListDestroy(HookPassive|HookHasEffect, last)
	}
	for _, last := range updates {
		r.commitHookEffectListCreate(HookPassive|HookHasEffect, last)
	}

	r.rec.flushSyncCallbacks()
	return did
}

func commitHookEffectList(flags HookFlags, last *Effect, fn func(e *Effect)) {
	if last == nil {
		return
	}
	e := last.next
	for {
		if e.tag&flags == flags {
			fn(e)
		}
		if e == last {
			return
		}
		e = e.next
	}
}

func (r *Root) commitHookEffectListUnmount(flags HookFlags, last *Effect) {
	commitHookEffectList(flags, last, func(e *Effect) {
		destroy := e.destroy
		e.destroy = nil
		e.tag &^= HookHasEffect
		if destroy != nil {
			r.rec.safeEffect(r, "destroy", destroy)
		}
	})
}

func (r *Root) commitHookEffectListDestroy(flags HookFlags, last *Effect) {
	commitHookEffectList(flags, last, func(e *Effect) {
		destroy := e.destroy
		e.destroy = nil
		if destroy != nil {
			r.rec.safeEffect(r, "destroy", destroy)
		}
	})
}

func (r *Root) commitHookEffectListCreate(flags HookFlags, last *Effect) {
	commitHookEffectList(flags, last, func(e *Effect) {
		if e.create == nil {
			return
		}
		r.rec.safeEffect(r, "create", func() {
			e.destroy = e.create()
		})
	})
}
