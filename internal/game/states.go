package game

// PlayableStates enumerates every non-terminal state for target, ordered by
// yours, then opponent, then turn
func PlayableStates(target int) []State {
	if target <= 0 {
		return nil
	}
	states := make([]State, 0, NumPlayableStates(target))
	for y := 0; y < target; y++ {
		for o := 0; o < target; o++ {
			for t := 0; y+t < target; t++ {
				states = append(states, State{Yours: y, Opponent: o, Turn: t})
			}
		}
	}
	return states
}

// NumPlayableStates is len(PlayableStates(target)) without allocating
func NumPlayableStates(target int) int {
	if target <= 0 {
		return 0
	}
	return target * target * (target + 1) / 2
}

// PartitionBySum groups playable states by Yours+Opponent. Index k holds the
// states whose banked scores sum to k. Within a partition states are ordered
// by descending turn score so in-place sweeps see the larger turn totals of
// the same position first.
func PartitionBySum(target int) [][]State {
	if target <= 0 {
		return nil
	}
	parts := make([][]State, 2*target-1)
	for sum := range parts {
		for t := target - 1; t >= 0; t-- {
			for y := 0; y <= sum; y++ {
				o := sum - y
				if y >= target || o >= target || y+t >= target {
					continue
				}
				parts[sum] = append(parts[sum], State{Yours: y, Opponent: o, Turn: t})
			}
		}
	}
	return parts
}
