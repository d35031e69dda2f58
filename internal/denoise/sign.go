package denoise

import "github.com/kallsyms/go-mesodetect/internal/legend"

// Sign selects which half of the legend a denoiser pass works on.
type Sign int

const (
	// Neg is the negative (approaching) half.
	Neg Sign = iota
	// Pos is the positive (receding) half.
	Pos
)

func (s Sign) String() string {
	if s == Neg {
		return "neg"
	}
	return "pos"
}

// Base returns the sign's base legend index (spec.md §4.4): half-1 for
// neg, half for pos.
func (s Sign) Base(l legend.Legend) int8 {
	if s == Neg {
		return l.NegBase()
	}
	return l.PosBase()
}

// Belongs reports whether idx falls within this sign's half of the
// legend.
func (s Sign) Belongs(idx int8, l legend.Legend) bool {
	if idx < 0 {
		return false
	}
	half := int8(l.Half())
	if s == Neg {
		return idx < half
	}
	return idx >= half
}

// LayerOrder returns the layer indices walked from base toward the
// extreme: descending (base -> 0) for neg, ascending (base -> len-1) for
// pos.
func (s Sign) LayerOrder(l legend.Legend) []int8 {
	half := l.Half()
	order := make([]int8, 0, half)
	if s == Neg {
		for i := half - 1; i >= 0; i-- {
			order = append(order, int8(i))
		}
		return order
	}
	for i := half; i < len(l); i++ {
		order = append(order, int8(i))
	}
	return order
}

// gapTest implements the sign-dependent small-group gap check in
// spec.md §4.4 Step C: for pos, 0 <= idx-below <= gap; for neg,
// 0 <= below-idx <= gap.
func (s Sign) gapTest(idx, below int8, gap float64) bool {
	var d int
	if s == Pos {
		d = int(idx) - int(below)
	} else {
		d = int(below) - int(idx)
	}
	return d >= 0 && float64(d) <= gap
}
