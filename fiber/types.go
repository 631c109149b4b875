package fiber

import "fmt"

// Kind is the closed set of fiber node kinds. Every switch over Kind in the
// work loop and the commit phase ends in a structural panic.
type Kind uint8

const (
	ClassComponentKind Kind = iota
	FunctionComponentKind
	HostRootKind
	HostElementKind
	HostTextKind
)

func (k Kind) String() string {
	switch k {
	case ClassComponentKind:
		return "ClassComponent"
	case FunctionComponentKind:
		return "FunctionComponent"
	case HostRootKind:
		return "HostRoot"
	case HostElementKind:
		return "HostElement"
	case HostTextKind:
		return "HostText"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

type effectFlags uint16

const (
	fPerformedWork effectFlags = 1 << iota
	fUpdate
	fPlacement
	fDeletion
	fCallback
	fContentReset
	fSnapshot

	fNoEffect           effectFlags = 0
	fPlacementAndUpdate             = fPlacement | fUpdate
)

// expirationTime marks a fiber as dirty until a render pass at or above that
// level processes it.
type expirationTime uint32

const (
	noWork expirationTime = 0
	sync   expirationTime = 1
)

type updateTag uint8

const (
	updateMerge updateTag = iota
	updateReplace
	updateForce
)

type executionContext uint8

const (
	noContext executionContext = iota
	batchedContext
	eventContext
)
