package fiber

// update is one state transition. Exactly one of value or reducer is used:
// a reducer transforms the running state, otherwise value replaces it.
type update struct {
	lane    Lane
	value   any
	reducer func(prev any) any
	next    *update
}

func newUpdate(value any, reducer func(any) any, lane Lane) *update {
	return &update{lane: lane, value: value, reducer: reducer}
}

func (u *update) apply(state any) any {
	if u.reducer != nil {
		return u.reducer(state)
	}
	return u.value
}

func (u *update) cloneAt(lane Lane) *update {
	return &update{lane: lane, value: u.value, reducer: u.reducer}
}

type dispatchFunc func(value any, reducer func(any) any)

// SharedQueue is the pending ring of one state slot. It is shared by a fiber
// and its alternate (or by both generations of a hook) so updates dispatched
// at any time land in the same place.
type SharedQueue struct {
	// pending points at the last update; pending.next is the first.
	pending  *update
	dispatch dispatchFunc
}

func (q *SharedQueue) enqueue(u *update) {
	if q.pending == nil {
		u.next = u
	} else {
		u.next = q.pending.next
		q.pending.next = u
	}
	q.pending = u
}

// UpdateQueue belongs to one fiber generation. baseState and baseQueue hold
// the updates skipped by a previous render together with the state they apply
// on top of. lastEffect is the effect ring of a function component.
type UpdateQueue struct {
	shared     *SharedQueue
	baseState  any
	baseQueue  *update
	lastEffect *Effect
}

func newUpdateQueue() *UpdateQueue {
	return &UpdateQueue{shared: &SharedQueue{}}
}

// mergeRings splices ring b after ring a and returns the combined ring, whose
// last update is b's last.
func mergeRings(a, b *update) *update {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	aFirst, bFirst := a.next, b.next
	a.next = bFirst
	b.next = aFirst
	return b
}

// processUpdateQueue replays the ring ending at last over baseState. Updates
// outside renderLane are kept in the returned base queue; once one update is
// skipped every later update is kept too (applied ones at NoLane) so a later
// render replays them in their original order.
func processUpdateQueue(baseState any, last *update, renderLane Lane) (memoizedState, newBaseState any, newBaseQueue *update) {
	memoizedState = baseState
	newBaseState = baseState
	if last == nil {
		return memoizedState, newBaseState, nil
	}

	var baseFirst, baseLast *update
	first := last.next
	u := first
	for {
		if !isSubsetOfLanes(renderLane, u.lane) {
			clone := u.cloneAt(u.lane)
			if baseLast == nil {
				baseFirst = clone
				newBaseState = memoizedState
			} else {
				baseLast.next = clone
			}
			baseLast = clone
		} else {
			if baseLast != nil {
				clone := u.cloneAt(NoLane)
				baseLast.next = clone
				baseLast = clone
			}
			memoizedState = u.apply(memoizedState)
		}
		u = u.next
		if u == first {
			break
		}
	}

	if baseLast == nil {
		newBaseState = memoizedState
	} else {
		baseLast.next = baseFirst
	}
	return memoizedState, newBaseState, baseLast
}
