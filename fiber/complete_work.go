package fiber

// completeWork creates or diffs the host instance of wip and bubbles the
// flags of its children.
func (r *Reconciler) completeWork(wip *Fiber) {
	newProps := wip.pendingProps
	current := wip.alternate

	switch wip.tag {
	case HostComponent:
		if current != nil && wip.stateNode != nil {
			if !sameProps(current.memoizedProps, newProps) {
				wip.flags |= Update
			}
		} else {
			tag, _ := wip.elementType.(string)
			inst := r.host.CreateInstance(tag, newProps)
			r.appendAllChildren(inst, wip)
			wip.stateNode = inst
		}
	case HostText:
		if current != nil && wip.stateNode != nil {
			if textContent(current.memoizedProps) != textContent(newProps) {
				wip.flags |= Update
			}
		} else {
			wip.stateNode = r.host.CreateTextInstance(textContent(newProps))
		}
	case HostRoot, FunctionComponent, Fragment:
	default:
		r.logger.Warn("completeWork: unhandled fiber tag", "tag", wip.tag)
	}
	bubbleProperties(wip)
}

// appendAllChildren attaches the topmost host descendants of wip to parent,
// looking through function components and fragments.
func (r *Reconciler) appendAllChildren(parent Instance, wip *Fiber) {
	node := wip.child
	for node != nil {
		if node.IsHost() {
			r.host.AppendInitialChild(parent, node.stateNode)
		} else if node.child != nil {
			node.child.ret = node
			node = node.child
			continue
		}
		if node == wip {
			return
		}
		for node.sibling == nil {
			if node.ret == nil || node.ret == wip {
				return
			}
			node = node.ret
		}
		node.sibling.ret = node.ret
		node = node.sibling
	}
}

func bubbleProperties(wip *Fiber) {
	subtreeFlags := NoFlags
	for child := wip.child; child != nil; child = child.sibling {
		subtreeFlags |= child.subtreeFlags | child.flags
		child.ret = wip
	}
	wip.subtreeFlags |= subtreeFlags
}
