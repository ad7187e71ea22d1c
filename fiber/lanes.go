package fiber

import (
	"strings"

	"github.com/delaneyj/fiberparty/scheduler"
)

// Lane is a priority bit. A lower bit is a higher priority; a set of lanes is
// represented by the same type.
type Lane uint32

const (
	SyncLane Lane = 1 << iota
	InputContinuousLane
	DefaultLane
	TransitionLane
	IdleLane

	NoLane Lane = 0
)

func (l Lane) String() string {
	if l == NoLane {
		return "NoLane"
	}
	var names []string
	for _, n := range []struct {
		lane Lane
		name string
	}{
		{SyncLane, "Sync"},
		{InputContinuousLane, "InputContinuous"},
		{DefaultLane, "Default"},
		{TransitionLane, "Transition"},
		{IdleLane, "Idle"},
	} {
		if l&n.lane != 0 {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, "|")
}

func mergeLanes(a, b Lane) Lane {
	return a | b
}

func removeLanes(set, subset Lane) Lane {
	return set &^ subset
}

// isSubsetOfLanes reports whether every bit of subset is in set. NoLane is a
// subset of everything.
func isSubsetOfLanes(set, subset Lane) bool {
	return set&subset == subset
}

func getHighestPriorityLane(lanes Lane) Lane {
	return lanes & -lanes
}

func lanesToSchedulerPriority(lanes Lane) scheduler.Priority {
	switch getHighestPriorityLane(lanes) {
	case SyncLane:
		return scheduler.ImmediatePriority
	case InputContinuousLane:
		return scheduler.UserBlockingPriority
	case DefaultLane:
		return scheduler.NormalPriority
	case TransitionLane:
		return scheduler.LowPriority
	case IdleLane:
		return scheduler.IdlePriority
	default:
		return scheduler.NoPriority
	}
}
