package resampler

import "time"

// FillState records how a resampled cell got its value.
type FillState int

const (
	// Known cells hold the mean of the raw samples in the bucket.
	Known FillState = iota
	// ForwardFilled cells carry the last known value of their column.
	ForwardFilled
	// Dropped cells lie past the gap-fill limit. A bucket whose cells are
	// all dropped is removed from the output.
	Dropped
	// ZeroFilled cells had nothing to carry: a column's leading gap, or a
	// dropped cell in a bucket that is kept for its other columns.
	ZeroFilled
)

func (f FillState) String() string {
	switch f {
	case Known:
		return "Known"
	case ForwardFilled:
		return "ForwardFilled"
	case Dropped:
		return "Dropped"
	case ZeroFilled:
		return "ZeroFilled"
	default:
		return "Unknown"
	}
}

// Bucket is one slot of the regular grid.
type Bucket struct {
	Start  time.Time
	Values []float64
	States []FillState
}

// Dropped reports whether the bucket is left out of the output.
func (b Bucket) Dropped() bool {
	if len(b.States) == 0 {
		return false
	}
	for _, s := range b.States {
		if s != Dropped {
			return false
		}
	}
	return true
}

// keep reports whether a bucket stays in the output: it has a real or
// carried value, or nothing in it ran past the gap-fill limit.
func keep(states []FillState) bool {
	dropped := false
	for _, s := range states {
		switch s {
		case Known, ForwardFilled:
			return true
		case Dropped:
			dropped = true
		}
	}
	return !dropped
}
