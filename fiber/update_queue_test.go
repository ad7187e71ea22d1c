package fiber

import (
	"testing"

	"github.com/delaneyj/fiberparty/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func add(n int) func(any) any {
	return func(prev any) any { return prev.(int) + n }
}

func mul(n int) func(any) any {
	return func(prev any) any { return prev.(int) * n }
}

func ringLanes(last *update) []Lane {
	if last == nil {
		return nil
	}
	var out []Lane
	u := last.next
	for {
		out = append(out, u.lane)
		if u == last {
			return out
		}
		u = u.next
	}
}

func TestEnqueueKeepsRingOrder(t *testing.T) {
	q := &SharedQueue{}
	q.enqueue(newUpdate(nil, add(1), SyncLane))
	q.enqueue(newUpdate(nil, add(2), DefaultLane))
	q.enqueue(newUpdate(nil, add(3), IdleLane))

	assert.Equal(t, []Lane{SyncLane, DefaultLane, IdleLane}, ringLanes(q.pending))
	assert.Same(t, q.pending, q.pending.next.next.next, "ring is circular")
}

func TestMergeRings(t *testing.T) {
	a, b := &SharedQueue{}, &SharedQueue{}
	a.enqueue(newUpdate(nil, nil, SyncLane))
	a.enqueue(newUpdate(nil, nil, DefaultLane))
	b.enqueue(newUpdate(nil, nil, TransitionLane))

	merged := mergeRings(a.pending, b.pending)
	assert.Equal(t, []Lane{SyncLane, DefaultLane, TransitionLane}, ringLanes(merged))
	assert.Same(t, b.pending, mergeRings(nil, b.pending))
	assert.Same(t, a.pending, mergeRings(a.pending, nil))
}

func TestProcessUpdateQueueAppliesAllMatching(t *testing.T) {
	q := &SharedQueue{}
	q.enqueue(newUpdate(5, nil, SyncLane))
	q.enqueue(newUpdate(nil, add(1), SyncLane))

	memo, base, baseQueue := processUpdateQueue(0, q.pending, SyncLane)
	assert.Equal(t, 6, memo)
	assert.Equal(t, 6, base)
	assert.Nil(t, baseQueue)
}

func TestProcessUpdateQueueRebasesSkippedUpdates(t *testing.T) {
	q := &SharedQueue{}
	q.enqueue(newUpdate(nil, add(1), SyncLane))
	q.enqueue(newUpdate(nil, mul(10), DefaultLane))
	q.enqueue(newUpdate(nil, add(2), SyncLane))

	memo, base, baseQueue := processUpdateQueue(1, q.pending, SyncLane)
	assert.Equal(t, 4, memo, "sync updates apply over the skipped one")
	assert.Equal(t, 2, base, "base state freezes before the first skipped update")
	require.NotNil(t, baseQueue)
	assert.Equal(t, []Lane{DefaultLane, NoLane}, ringLanes(baseQueue))

	memo, base, baseQueue = processUpdateQueue(base, baseQueue, DefaultLane)
	assert.Equal(t, 22, memo, "replay keeps dispatch order")
	assert.Equal(t, 22, base)
	assert.Nil(t, baseQueue)
}

func TestProcessUpdateQueueEmpty(t *testing.T) {
	memo, base, baseQueue := processUpdateQueue("x", nil, SyncLane)
	assert.Equal(t, "x", memo)
	assert.Equal(t, "x", base)
	assert.Nil(t, baseQueue)
}

func TestLaneMath(t *testing.T) {
	lanes := mergeLanes(DefaultLane, mergeLanes(IdleLane, InputContinuousLane))
	assert.Equal(t, InputContinuousLane, getHighestPriorityLane(lanes))
	assert.Equal(t, DefaultLane|IdleLane, removeLanes(lanes, InputContinuousLane))
	assert.Equal(t, NoLane, getHighestPriorityLane(NoLane))

	assert.True(t, isSubsetOfLanes(lanes, DefaultLane))
	assert.True(t, isSubsetOfLanes(lanes, NoLane))
	assert.False(t, isSubsetOfLanes(DefaultLane, SyncLane))
	assert.Equal(t, "InputContinuous|Default|Idle", lanes.String())
	assert.Equal(t, "NoLane", NoLane.String())
}

func TestLanesToSchedulerPriority(t *testing.T) {
	assert.Equal(t, scheduler.ImmediatePriority, lanesToSchedulerPriority(SyncLane))
	assert.Equal(t, scheduler.UserBlockingPriority, lanesToSchedulerPriority(InputContinuousLane))
	assert.Equal(t, scheduler.NormalPriority, lanesToSchedulerPriority(DefaultLane|IdleLane))
	assert.Equal(t, scheduler.LowPriority, lanesToSchedulerPriority(TransitionLane))
	assert.Equal(t, scheduler.IdlePriority, lanesToSchedulerPriority(IdleLane))
	assert.Equal(t, scheduler.NoPriority, lanesToSchedulerPriority(NoLane))
}

func TestMarkRootFinishedKeepsInterleavedLanes(t *testing.T) {
	root := &Root{pendingLanes: DefaultLane | TransitionLane, interleavedLanes: DefaultLane}
	root.markRootFinished(DefaultLane)
	assert.Equal(t, DefaultLane|TransitionLane, root.pendingLanes)
	assert.Equal(t, NoLane, root.interleavedLanes)

	root.markRootFinished(DefaultLane)
	assert.Equal(t, TransitionLane, root.pendingLanes)
}

func TestHookInputsEquality(t *testing.T) {
	shared := []int{1, 2}
	m := map[string]int{"a": 1}
	fn := func() {}

	assert.True(t, areHookInputsEqual([]any{}, []any{}))
	assert.True(t, areHookInputsEqual([]any{1, "a", nil, shared, m}, []any{1, "a", nil, shared, m}))
	assert.False(t, areHookInputsEqual([]any{1}, nil), "nil previous deps always differ")
	assert.False(t, areHookInputsEqual([]any{1}, []any{1, 2}))
	assert.False(t, areHookInputsEqual([]any{1}, []any{int64(1)}))
	assert.False(t, areHookInputsEqual([]any{[]int{1, 2}}, []any{shared}), "slices compare by identity")
	assert.False(t, areHookInputsEqual([]any{fn}, []any{fn}), "funcs never compare equal")
	assert.True(t, areHookInputsEqual([]any{struct{ A int }{1}}, []any{struct{ A int }{1}}))
}

func TestFlagsString(t *testing.T) {
	assert.Equal(t, "NoFlags", NoFlags.String())
	assert.Equal(t, "Placement|Deletion", (Placement | Deletion).String())
	assert.Equal(t, MutationMask|PassiveEffect, MutationMask|PassiveMask)
}
