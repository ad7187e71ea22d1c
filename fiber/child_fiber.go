package fiber

import "log/slog"

// childReconciler diffs the current children of a fiber against new child
// descriptors. The mount variant does not track side effects: a freshly
// created subtree is inserted as a whole by its topmost placed ancestor.
type childReconciler struct {
	trackEffects bool
	logger       *slog.Logger
}

func (c *childReconciler) deleteChild(returnFiber, child *Fiber) {
	if !c.trackEffects {
		return
	}
	returnFiber.deletions = append(returnFiber.deletions, child)
	returnFiber.flags |= Deletion
}

func (c *childReconciler) deleteRemainingChildren(returnFiber, currentFirst *Fiber) {
	if !c.trackEffects {
		return
	}
	for child := currentFirst; child != nil; child = child.sibling {
		c.deleteChild(returnFiber, child)
	}
}

func (c *childReconciler) placeSingleChild(f *Fiber) *Fiber {
	if c.trackEffects && f.alternate == nil {
		f.flags |= Placement
	}
	return f
}

func (c *childReconciler) reconcileSingleElement(returnFiber, currentFirst *Fiber, el *Element) *Fiber {
	for current := currentFirst; current != nil; current = current.sibling {
		if current.key != el.Key {
			c.deleteChild(returnFiber, current)
			continue
		}
		if current.elementType == el.Type {
			props := el.Props
			if el.Type == FragmentType {
				props = Props{childrenProp: el.Props.Children()}
			}
			existing := useFiber(current, props)
			existing.ret = returnFiber
			c.deleteRemainingChildren(returnFiber, current.sibling)
			return existing
		}
		// Same key, different type: nothing after it can match either.
		c.deleteRemainingChildren(returnFiber, current)
		break
	}

	f := createFiberFromElement(el)
	f.ret = returnFiber
	return f
}

func (c *childReconciler) reconcileSingleTextNode(returnFiber, currentFirst *Fiber, content string) *Fiber {
	var existing *Fiber
	for current := currentFirst; current != nil; current = current.sibling {
		if existing == nil && current.tag == HostText {
			existing = useFiber(current, textProps(content))
			existing.ret = returnFiber
			continue
		}
		c.deleteChild(returnFiber, current)
	}
	if existing != nil {
		return existing
	}

	f := createFiberFromText(content)
	f.ret = returnFiber
	return f
}

// childMapKey identifies an existing child by explicit key, else by position.
func childMapKey(key string, index int) any {
	if key != "" {
		return key
	}
	return index
}

func (c *childReconciler) updateFromMap(existing map[any]*Fiber, index int, child any) *Fiber {
	if text, ok := asText(child); ok {
		k := childMapKey("", index)
		if before := existing[k]; before != nil && before.tag == HostText {
			delete(existing, k)
			return useFiber(before, textProps(text))
		}
		return createFiberFromText(text)
	}

	if el, ok := child.(*Element); ok && el != nil {
		k := childMapKey(el.Key, index)
		before := existing[k]
		if el.Type == FragmentType {
			if before != nil && before.tag == Fragment {
				delete(existing, k)
				return useFiber(before, Props{childrenProp: el.Props.Children()})
			}
			return createFiberFromFragment(el.Props.Children(), el.Key)
		}
		if before != nil && before.elementType == el.Type {
			delete(existing, k)
			return useFiber(before, el.Props)
		}
		return createFiberFromElement(el)
	}

	if nested, ok := asChildren(child); ok {
		k := childMapKey("", index)
		if before := existing[k]; before != nil && before.tag == Fragment {
			delete(existing, k)
			return useFiber(before, Props{childrenProp: nested})
		}
		return createFiberFromFragment(nested, "")
	}

	if child != nil {
		if _, isBool := child.(bool); !isBool {
			c.logger.Warn("unsupported child type skipped", "type", typeName(child))
		}
	}
	return nil
}

func (c *childReconciler) reconcileChildrenArray(returnFiber, currentFirst *Fiber, newChildren []any) *Fiber {
	existing := make(map[any]*Fiber)
	var shadowed []*Fiber
	for current := currentFirst; current != nil; current = current.sibling {
		k := childMapKey(current.key, current.index)
		if prev, dup := existing[k]; dup {
			c.logger.Warn("duplicate child key", "parent", returnFiber.String(), "key", k)
			shadowed = append(shadowed, prev)
		}
		existing[k] = current
	}

	var firstNew, lastNew *Fiber
	lastPlacedIndex := 0
	for i, child := range newChildren {
		newFiber := c.updateFromMap(existing, i, child)
		if newFiber == nil {
			continue
		}
		newFiber.index = i
		newFiber.ret = returnFiber
		if lastNew == nil {
			firstNew = newFiber
		} else {
			lastNew.sibling = newFiber
		}
		lastNew = newFiber

		if !c.trackEffects {
			continue
		}
		current := newFiber.alternate
		if current == nil {
			newFiber.flags |= Placement
			continue
		}
		if current.index < lastPlacedIndex {
			newFiber.flags |= Placement
			continue
		}
		lastPlacedIndex = current.index
	}

	for current := currentFirst; current != nil; current = current.sibling {
		if existing[childMapKey(current.key, current.index)] == current {
			c.deleteChild(returnFiber, current)
		}
	}
	for _, current := range shadowed {
		c.deleteChild(returnFiber, current)
	}
	return firstNew
}

// reconcileChildFibers returns the first new child of returnFiber.
func (c *childReconciler) reconcileChildFibers(returnFiber, currentFirst *Fiber, newChild any) *Fiber {
	if el, ok := newChild.(*Element); ok && el != nil && el.Type == FragmentType && el.Key == "" {
		newChild = el.Props.Children()
	}

	if el, ok := newChild.(*Element); ok && el != nil {
		return c.placeSingleChild(c.reconcileSingleElement(returnFiber, currentFirst, el))
	}
	if children, ok := asChildren(newChild); ok {
		return c.reconcileChildrenArray(returnFiber, currentFirst, children)
	}
	if text, ok := asText(newChild); ok {
		return c.placeSingleChild(c.reconcileSingleTextNode(returnFiber, currentFirst, text))
	}

	c.deleteRemainingChildren(returnFiber, currentFirst)
	if newChild != nil {
		if _, isBool := newChild.(bool); !isBool {
			c.logger.Warn("unsupported child type", "parent", returnFiber.String(), "type", typeName(newChild))
		}
	}
	return nil
}

func useFiber(f *Fiber, pendingProps Props) *Fiber {
	clone := createWorkInProgress(f, pendingProps)
	clone.index = 0
	clone.sibling = nil
	return clone
}
