package fiber

import "strings"

// Flags record the side effects a fiber needs during commit.
type Flags uint16

const (
	Placement Flags = 1 << iota
	Update
	Deletion
	PassiveEffect

	NoFlags Flags = 0

	// MutationMask covers the flags that touch the host tree.
	MutationMask = Placement | Update | Deletion
	// PassiveMask covers the flags that require a passive effect flush.
	PassiveMask = PassiveEffect | Deletion
)

func (f Flags) String() string {
	if f == NoFlags {
		return "NoFlags"
	}
	var names []string
	if f&Placement != 0 {
		names = append(names, "Placement")
	}
	if f&Update != 0 {
		names = append(names, "Update")
	}
	if f&Deletion != 0 {
		names = append(names, "Deletion")
	}
	if f&PassiveEffect != 0 {
		names = append(names, "PassiveEffect")
	}
	return strings.Join(names, "|")
}

// HookFlags tag an effect descriptor.
type HookFlags uint8

const (
	// HookHasEffect marks an effect whose create callback fires this commit.
	HookHasEffect HookFlags = 1 << iota
	HookPassive

	NoHookFlags HookFlags = 0
)
