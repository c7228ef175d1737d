package scheduler

import (
	"github.com/specialistvlad/bundlesched/internal/bundle"
)

// bvdTraversalSorter seeds the traversal order with the sliced BVDs in id
// order and refines it with each MME walk pattern in declaration order.
type bvdTraversalSorter struct{}

// BundleViewsByTraversalOrder returns the sliced BVDs, outermost first, or nil
// when nothing is sliced.
func (bvdTraversalSorter) BundleViewsByTraversalOrder(d *bundle.Data) []bundle.BVD {
	var order []bundle.BVD
	for b := 0; b < d.NumBVDs(); b++ {
		if d.IsSliced(bundle.BVD(b)) {
			order = append(order, bundle.BVD(b))
		}
	}
	if len(order) == 0 {
		return nil
	}

	for _, wp := range d.Strategy.WalkPatterns {
		high, low := walkPreference(d, wp)
		order = applyPreference(order, high, low)
	}
	return order
}

// walkPreference splits a walk pattern into the sliced high-priority BVDs in
// declared order and the sliced output BVDs of the node the pattern omits.
// A BVD can be sliced on one MME and end up unsliced once several MMEs share
// it, so unsliced pattern entries are dropped here.
func walkPreference(d *bundle.Data, wp bundle.WalkPattern) (high, low []bundle.BVD) {
	inPattern := make(map[bundle.BVD]bool, len(wp.BVDs))
	for _, b := range wp.BVDs {
		if inPattern[b] {
			continue
		}
		inPattern[b] = true
		if d.IsSliced(b) {
			high = append(high, b)
		}
	}
	for _, b := range d.NodeOutputBVDs[wp.Node] {
		if !inPattern[b] && d.IsSliced(b) {
			low = append(low, b)
		}
	}
	return high, low
}

// applyPreference moves the last high-priority BVD ahead of every sliced
// low-priority one, then pulls the remaining high-priority BVDs in front of
// their successor, back to front. Only high-priority BVDs move.
func applyPreference(order, high, low []bundle.BVD) []bundle.BVD {
	if len(high) == 0 {
		return order
	}

	if len(low) > 0 {
		minPos := len(order)
		for _, b := range low {
			if pos := indexOf(order, b); pos >= 0 && pos < minPos {
				minPos = pos
			}
		}
		last := high[len(high)-1]
		if pos := indexOf(order, last); pos > minPos {
			order = moveTo(order, pos, minPos)
		}
	}

	for i := len(high) - 2; i >= 0; i-- {
		pos := indexOf(order, high[i])
		succ := indexOf(order, high[i+1])
		if pos > succ {
			order = moveTo(order, pos, succ)
		}
	}
	return order
}

// moveTo removes the element at from and reinserts it at to (to < from).
func moveTo(order []bundle.BVD, from, to int) []bundle.BVD {
	b := order[from]
	copy(order[to+1:from+1], order[to:from])
	order[to] = b
	return order
}

func indexOf(order []bundle.BVD, b bundle.BVD) int {
	for i, o := range order {
		if o == b {
			return i
		}
	}
	return -1
}
