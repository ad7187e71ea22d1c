package fiber

import "github.com/delaneyj/fiberparty/scheduler"

// Instance is an opaque host node handle.
type Instance any

// Container is an opaque host parent handle: a root container or a host
// element instance.
type Container any

// Host applies mutations to the host tree. All calls happen on the
// reconciler's goroutine.
type Host interface {
	CreateInstance(elementType string, props Props) Instance
	CreateTextInstance(text string) Instance
	AppendInitialChild(parent, child Instance)
	AppendChildToContainer(container Container, child Instance)
	InsertChildToContainer(child Instance, container Container, before Instance)
	RemoveChild(child Instance, container Container)
	// CommitUpdate applies f's memoized props to f's existing instance.
	CommitUpdate(f *Fiber)
	ScheduleMicroTask(cb func())
}

// Scheduler runs non-synchronous render work cooperatively.
type Scheduler interface {
	ScheduleCallback(p scheduler.Priority, cb scheduler.Callback) *scheduler.Task
	CancelCallback(t *scheduler.Task)
	ShouldYield() bool
}

var _ Scheduler = (*scheduler.Scheduler)(nil)
