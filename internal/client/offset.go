package client

import "fmt"

// OffsetKind enumerates the ways a consumption start point can be
// expressed before it is resolved against the cluster.
type OffsetKind int

const (
	OffsetBeginning OffsetKind = iota
	OffsetEnd
	OffsetStored
	OffsetAbsolute
	OffsetTail
)

// StartOffset is a starting-offset directive. Value is the absolute
// offset for OffsetAbsolute, or the records-before-end count (always
// positive) for OffsetTail; it is unused otherwise.
type StartOffset struct {
	Kind  OffsetKind
	Value int64
}

func (s StartOffset) String() string {
	switch s.Kind {
	case OffsetBeginning:
		return "beginning"
	case OffsetEnd:
		return "end"
	case OffsetStored:
		return "stored"
	case OffsetTail:
		return fmt.Sprintf("end-%d", s.Value)
	default:
		return fmt.Sprintf("%d", s.Value)
	}
}
