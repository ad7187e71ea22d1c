package fiber

import "fmt"

type WorkTag uint8

const (
	FunctionComponent WorkTag = iota
	HostRoot
	HostComponent
	HostText
	Fragment
)

func (t WorkTag) String() string {
	switch t {
	case FunctionComponent:
		return "FunctionComponent"
	case HostRoot:
		return "HostRoot"
	case HostComponent:
		return "HostComponent"
	case HostText:
		return "HostText"
	case Fragment:
		return "Fragment"
	default:
		return fmt.Sprintf("WorkTag(%d)", uint8(t))
	}
}

// Fiber is the persistent work unit for one element. Each fiber is paired
// with at most one alternate: the committed fiber and its work-in-progress
// twin swap roles on every commit.
type Fiber struct {
	tag         WorkTag
	key         string
	elementType any
	// stateNode is the host instance, or the *Root for a HostRoot fiber.
	stateNode any

	ret     *Fiber
	child   *Fiber
	sibling *Fiber
	index   int

	pendingProps  Props
	memoizedProps Props
	// memoizedState is the hook list head for function components and the
	// rendered element for the root.
	memoizedState any
	updateQueue   *UpdateQueue

	alternate    *Fiber
	flags        Flags
	subtreeFlags Flags
	deletions    []*Fiber
}

func newFiber(tag WorkTag, pendingProps Props, key string) *Fiber {
	return &Fiber{
		tag:          tag,
		key:          key,
		pendingProps: pendingProps,
	}
}

func (f *Fiber) Tag() WorkTag          { return f.tag }
func (f *Fiber) Key() string           { return f.key }
func (f *Fiber) Type() any             { return f.elementType }
func (f *Fiber) StateNode() any        { return f.stateNode }
func (f *Fiber) Return() *Fiber        { return f.ret }
func (f *Fiber) Child() *Fiber         { return f.child }
func (f *Fiber) Sibling() *Fiber       { return f.sibling }
func (f *Fiber) Index() int            { return f.index }
func (f *Fiber) Alternate() *Fiber     { return f.alternate }
func (f *Fiber) PendingProps() Props   { return f.pendingProps }
func (f *Fiber) MemoizedProps() Props  { return f.memoizedProps }
func (f *Fiber) Flags() Flags          { return f.flags }
func (f *Fiber) SubtreeFlags() Flags   { return f.subtreeFlags }
func (f *Fiber) Deletions() []*Fiber   { return f.deletions }
func (f *Fiber) TextContent() string   { return textContent(f.memoizedProps) }
func (f *Fiber) IsHost() bool          { return f.tag == HostComponent || f.tag == HostText }
func (f *Fiber) ElementTypeName() string {
	switch t := f.elementType.(type) {
	case string:
		return t
	case *Component:
		return t.Name
	}
	return f.tag.String()
}

func (f *Fiber) String() string {
	if f.key != "" {
		return fmt.Sprintf("%s(%s key=%q)", f.tag, f.ElementTypeName(), f.key)
	}
	return fmt.Sprintf("%s(%s)", f.tag, f.ElementTypeName())
}

// createWorkInProgress returns current's alternate prepared for a new render,
// allocating it on first use.
func createWorkInProgress(current *Fiber, pendingProps Props) *Fiber {
	wip := current.alternate
	if wip == nil {
		wip = newFiber(current.tag, pendingProps, current.key)
		wip.stateNode = current.stateNode
		wip.alternate = current
		current.alternate = wip
	} else {
		wip.pendingProps = pendingProps
		wip.flags = NoFlags
		wip.subtreeFlags = NoFlags
		wip.deletions = nil
	}
	wip.elementType = current.elementType
	wip.updateQueue = current.updateQueue
	wip.child = current.child
	wip.memoizedProps = current.memoizedProps
	wip.memoizedState = current.memoizedState
	return wip
}

func createFiberFromElement(el *Element) *Fiber {
	var tag WorkTag
	switch el.Type.(type) {
	case string:
		tag = HostComponent
	case *Component:
		tag = FunctionComponent
	default:
		if el.Type == FragmentType {
			return createFiberFromFragment(el.Props.Children(), el.Key)
		}
		panic(fmt.Errorf("%w: %T", ErrUnknownElementType, el.Type))
	}
	f := newFiber(tag, el.Props, el.Key)
	f.elementType = el.Type
	return f
}

func createFiberFromFragment(children any, key string) *Fiber {
	f := newFiber(Fragment, Props{childrenProp: children}, key)
	f.elementType = FragmentType
	return f
}

func createFiberFromText(content string) *Fiber {
	return newFiber(HostText, textProps(content), "")
}
