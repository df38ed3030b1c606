package planner

import "math"

// sortCost approximates an n*log(n) sort cost added on top of the
// child's own cost (§4.C: "Sort cost ≈ n·log n plus child cost").
func sortCost(childSize int64, childCost float64) float64 {
	n := float64(childSize)
	if n < 2 {
		return childCost
	}
	return childCost + n*math.Log2(n)
}

// joinCost approximates a merge-join's cost as the sum of child costs
// plus a linear merge pass; the result size estimate is the smaller of
// the two input sizes, which is monotone in input sizes and a
// deterministic, implementation-defined heuristic per §4.C.
func joinCost(leftSize, rightSize int64, leftCost, rightCost float64) (size int64, cost float64) {
	size = leftSize
	if rightSize < size {
		size = rightSize
	}
	cost = leftCost + rightCost + float64(leftSize) + float64(rightSize)
	return size, cost
}

// filterCost is the child's cost plus a linear pass over its rows.
func filterCost(childSize int64, childCost float64) float64 {
	return childCost + float64(childSize)
}

// orderByCost is an n*log(n) pass, same shape as sortCost.
func orderByCost(childSize int64, childCost float64) float64 {
	return sortCost(childSize, childCost)
}
