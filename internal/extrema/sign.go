package extrema

import "github.com/kallsyms/go-mesodetect/internal/legend"

// Sign selects which half of the legend an extremum pass works on. It
// is distinct from denoise.Sign because the traversal direction differs:
// the immersion here always walks from the extremum toward the base,
// while the denoiser walks from the base toward the extremum.
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

// LayerOrder walks from the extremum toward the base: ascending
// 0..half-1 for neg, descending len-1..half for pos.
func (s Sign) LayerOrder(l legend.Legend) []int8 {
	half := l.Half()
	if s == Neg {
		order := make([]int8, 0, half)
		for i := 0; i < half; i++ {
			order = append(order, int8(i))
		}
		return order
	}
	order := make([]int8, 0, len(l)-half)
	for i := len(l) - 1; i >= half; i-- {
		order = append(order, int8(i))
	}
	return order
}

// allowedRange reports whether layer index k is within the range grown
// so far once layer boundary has been reached: k in [0, boundary] for
// neg (ascending), k in [boundary, len-1] for pos (descending).
func (s Sign) allowedRange(k, boundary int8) bool {
	if s == Neg {
		return k >= 0 && k <= boundary
	}
	return k >= boundary
}

// Depth returns the "distance below the extremum" used for the
// avg_volume attribute: half - index for neg, index - half + 1 for pos.
func Depth(idx int8, half int) int {
	if int(idx) < half {
		return half - int(idx)
	}
	return int(idx) - half + 1
}
