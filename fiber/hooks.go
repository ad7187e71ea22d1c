package fiber

import (
	"fmt"
	"reflect"
)

type hookKind uint8

const (
	stateHook hookKind = iota
	effectHook
)

func (k hookKind) String() string {
	if k == effectHook {
		return "UseEffect"
	}
	return "UseState"
}

type hook struct {
	kind hookKind
	// memoizedState is the state value or the *Effect of this render.
	memoizedState any
	baseState     any
	baseQueue     *update
	queue         *SharedQueue
	next          *hook
}

// Effect is one passive effect record. Effects of a fiber form a ring on its
// update queue in call order.
type Effect struct {
	tag     HookFlags
	create  func() func()
	destroy func()
	deps    []any
	next    *Effect
}

// Hooks is the render context handed to a function component. It is only
// valid for the duration of that component's render call.
type Hooks struct {
	rec   *Reconciler
	fiber *Fiber
	lane  Lane
	mount bool

	nextCurrentHook *hook
	currentHook     *hook
	wipHook         *hook
	finished        bool
}

func (h *Hooks) check() {
	if h == nil || h.finished || h.fiber == nil {
		panic(ErrHookOutsideRender)
	}
}

func (h *Hooks) appendHook(hk *hook) {
	if h.wipHook == nil {
		h.fiber.memoizedState = hk
	} else {
		h.wipHook.next = hk
	}
	h.wipHook = hk
}

func (h *Hooks) mountWorkInProgressHook(kind hookKind) *hook {
	hk := &hook{kind: kind}
	h.appendHook(hk)
	return hk
}

func (h *Hooks) updateWorkInProgressHook(kind hookKind) *hook {
	prev := h.nextCurrentHook
	if prev == nil {
		panic(fmt.Errorf("%w: %s called more hooks than its previous render", ErrHookMismatch, h.fiber.ElementTypeName()))
	}
	if prev.kind != kind {
		panic(fmt.Errorf("%w: %s called %s where %s was called before", ErrHookMismatch, h.fiber.ElementTypeName(), kind, prev.kind))
	}
	h.currentHook = prev
	h.nextCurrentHook = prev.next

	hk := &hook{
		kind:          kind,
		memoizedState: prev.memoizedState,
		baseState:     prev.baseState,
		baseQueue:     prev.baseQueue,
		queue:         prev.queue,
	}
	h.appendHook(hk)
	return hk
}

func (h *Hooks) useState(init func() any) (any, dispatchFunc) {
	h.check()
	if h.mount {
		return h.mountState(init)
	}
	return h.updateState()
}

func (h *Hooks) mountState(init func() any) (any, dispatchFunc) {
	hk := h.mountWorkInProgressHook(stateHook)
	state := init()
	hk.memoizedState = state
	hk.baseState = state

	q := &SharedQueue{}
	rec, f := h.rec, h.fiber
	q.dispatch = func(value any, reducer func(any) any) {
		rec.dispatchSetState(f, q, value, reducer)
	}
	hk.queue = q
	return state, q.dispatch
}

func (h *Hooks) updateState() (any, dispatchFunc) {
	hk := h.updateWorkInProgressHook(stateHook)
	cur := h.currentHook
	q := hk.queue

	// Pending updates move onto the committed hook so a discarded render
	// does not lose them.
	if pending := q.pending; pending != nil {
		q.pending = nil
		cur.baseQueue = mergeRings(cur.baseQueue, pending)
	}
	hk.memoizedState, hk.baseState, hk.baseQueue = processUpdateQueue(cur.baseState, cur.baseQueue, h.lane)
	return hk.memoizedState, q.dispatch
}

func (h *Hooks) useEffect(create func() func(), deps []any) {
	h.check()
	if h.mount {
		hk := h.mountWorkInProgressHook(effectHook)
		h.fiber.flags |= PassiveEffect
		hk.memoizedState = h.pushEffect(HookPassive|HookHasEffect, create, nil, deps)
		return
	}

	hk := h.updateWorkInProgressHook(effectHook)
	var destroy func()
	if prev, ok := h.currentHook.memoizedState.(*Effect); ok && prev != nil {
		destroy = prev.destroy
		if deps != nil && areHookInputsEqual(deps, prev.deps) {
			hk.memoizedState = h.pushEffect(HookPassive, create, destroy, deps)
			return
		}
	}
	h.fiber.flags |= PassiveEffect
	hk.memoizedState = h.pushEffect(HookPassive|HookHasEffect, create, destroy, deps)
}

func (h *Hooks) pushEffect(tag HookFlags, create func() func(), destroy func(), deps []any) *Effect {
	e := &Effect{tag: tag, create: create, destroy: destroy, deps: deps}
	q := h.fiber.updateQueue
	if q == nil {
		q = &UpdateQueue{}
		h.fiber.updateQueue = q
	}
	if q.lastEffect == nil {
		e.next = e
	} else {
		e.next = q.lastEffect.next
		q.lastEffect.next = e
	}
	q.lastEffect = e
	return e
}

// renderWithHooks calls the component of wip with a fresh render context and
// returns its children.
func (r *Reconciler) renderWithHooks(current, wip *Fiber, lane Lane) any {
	comp, _ := wip.elementType.(*Component)
	if comp == nil || comp.Render == nil {
		panic(fmt.Errorf("%w: function component without a render func", ErrUnknownElementType))
	}

	wip.memoizedState = nil
	wip.updateQueue = nil

	h := &Hooks{rec: r, fiber: wip, lane: lane, mount: current == nil}
	if current != nil {
		h.nextCurrentHook, _ = current.memoizedState.(*hook)
	}
	defer func() { h.finished = true }()

	children := comp.Render(h, wip.pendingProps)
	if !h.mount && h.nextCurrentHook != nil {
		panic(fmt.Errorf("%w: %s called fewer hooks than its previous render", ErrHookMismatch, comp.Name))
	}
	return children
}

// Setter dispatches updates to one UseState slot. It may be called any time
// after the render that created it, from the reconciler's goroutine.
type Setter[T any] struct {
	dispatch dispatchFunc
}

// Set replaces the state with v.
func (s Setter[T]) Set(v T) {
	if s.dispatch != nil {
		s.dispatch(v, nil)
	}
}

// Update replaces the state with fn applied to the state at the time the
// update is processed.
func (s Setter[T]) Update(fn func(prev T) T) {
	if s.dispatch != nil {
		s.dispatch(nil, func(prev any) any { return fn(valueAs[T](prev)) })
	}
}

func valueAs[T any](v any) T {
	t, _ := v.(T)
	return t
}

// UseState declares a state slot initialised to initial on mount.
func UseState[T any](h *Hooks, initial T) (T, Setter[T]) {
	return UseStateFunc(h, func() T { return initial })
}

// UseStateFunc is UseState with a lazily computed initial value; init only
// runs on mount.
func UseStateFunc[T any](h *Hooks, init func() T) (T, Setter[T]) {
	v, dispatch := h.useState(func() any { return init() })
	return valueAs[T](v), Setter[T]{dispatch: dispatch}
}

// UseEffect registers a passive effect. create runs after the commit that
// mounted the component or changed deps, and the func it returns runs before
// the next create and on unmount. A nil deps slice runs the effect after
// every commit.
func UseEffect(h *Hooks, create func() func(), deps []any) {
	h.useEffect(create, deps)
}

func areHookInputsEqual(next, prev []any) bool {
	if prev == nil || len(next) != len(prev) {
		return false
	}
	for i := range next {
		if !sameValue(next[i], prev[i]) {
			return false
		}
	}
	return true
}

// sameValue compares deps by identity: comparable values by ==, maps and
// slices by backing pointer and length, funcs never.
func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Func:
		return false
	case reflect.Map, reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	}
	if !va.Comparable() {
		return false
	}
	return va.Equal(vb)
}
