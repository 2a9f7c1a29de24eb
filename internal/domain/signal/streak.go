package signal

import "math"

// StreakDecay is the time constant, in days, of the streak score.
const StreakDecay = 7

// Streak returns the running count of consecutive true flags; a false flag resets it to 0.
func Streak(events []bool) []int {
	out := make([]int, len(events))
	run := 0
	for i, happened := range events {
		if happened {
			run++
		} else {
			run = 0
		}
		out[i] = run
	}
	return out
}

// StreakScore maps each streak length s to 1 - exp(-s/7), a value in [0, 1).
func StreakScore(streak []int) []float64 {
	out := make([]float64, len(streak))
	for i, s := range streak {
		out[i] = StreakScoreOf(s)
	}
	return out
}

// StreakScoreOf is StreakScore for a single streak length.
func StreakScoreOf(s int) float64 {
	return 1 - math.Exp(-float64(s)/StreakDecay)
}
