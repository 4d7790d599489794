package pow

import (
	"math"
	"math/big"
	"sort"

	"github.com/pinpins/interchained/chainindex"
	"github.com/pinpins/interchained/chainparams"
	"github.com/pinpins/interchained/wire"
)

// boolToInt replicates the implicit bool->int conversion the original C++
// performs in `nextHeight >= v9`. Preserved literally rather than "fixed"
// into `if v9` — see DESIGN.md's Open Question decisions.
func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// dgw3NovaNextWorkRequired is DGW3 with height-aware refinements: a
// rolling-median difficulty used for scaling and an asymmetric
// graceful-decay adjustment (both behind the literal `nextHeight >= v9`
// gate), an emergency/min-solve clamp from nextDifficultyFork3Height, and,
// past nextDifficultyFork5Height ("v9"), a shrunk window with the v9
// emergency-trigger and clamp rules.
//
// Grounded on original_source/src/pow.cpp's DarkGravityWave3Nova, translated
// field-for-field; see DESIGN.md for the v9 gate's literal (not "fixed")
// semantics.
func dgw3NovaNextWorkRequired(tip *chainindex.BlockNode, params *chainparams.Params) uint32 {
	nextHeight := tip.Height + 1
	v9 := nextHeight >= params.NextDifficultyFork5Height
	pastBlocks := 24
	if v9 {
		pastBlocks = 12
	}

	limitBits := compactLimit(nextHeight, params)
	if nextHeight < int64(pastBlocks) {
		return limitBits
	}
	if tip.Parent == nil {
		return limitBits
	}

	pastDifficultyAverage, _, actualTimespan := dgw3WeightedAverage(tip, pastBlocks)

	targetTimespan := int64(pastBlocks) * params.NPowTargetSpacing

	minTimespanClamp := targetTimespan / 3
	maxTimespanClamp := targetTimespan * 3

	var emergencyClamp, minSolveClamp int64
	if v9 {
		emergencyClamp = targetTimespan / 3
		minSolveClamp = targetTimespan / 4
	} else {
		emergencyClamp = targetTimespan / 6
		minSolveClamp = targetTimespan / 8
	}
	const minSolveTime = 12

	actualSolveTime := tip.Timestamp - tip.Parent.Timestamp
	unclampedActualTimespan := actualTimespan

	if v9 {
		solveTimes := rollingSolveTimes(tip, intMin(pastBlocks, 9))
		sort.Slice(solveTimes, func(i, j int) bool { return solveTimes[i] < solveTimes[j] })
		_ = solveTimes[len(solveTimes)/2] // rolling median solve time: computed for parity, unused downstream (matches original)
	}

	var triggered bool
	if v9 {
		triggered = actualSolveTime < 2*minSolveTime && unclampedActualTimespan < targetTimespan/6
	} else {
		triggered = actualSolveTime < minSolveTime || unclampedActualTimespan < targetTimespan/6
	}

	if triggered && nextHeight >= params.NextDifficultyFork3Height {
		actualTimespan = int64Min(actualTimespan, int64Min(emergencyClamp, minSolveClamp))
	}

	if v9 {
		if !triggered {
			if actualTimespan < minTimespanClamp {
				actualTimespan = minTimespanClamp
			}
			if actualTimespan > maxTimespanClamp {
				actualTimespan = maxTimespanClamp
			}
		}
	} else {
		if actualTimespan < minTimespanClamp {
			actualTimespan = minTimespanClamp
		}
		if actualTimespan > maxTimespanClamp {
			actualTimespan = maxTimespanClamp
		}
	}

	decayFactor := 1.0
	if nextHeight >= boolToInt(v9) && actualSolveTime > params.NPowTargetSpacing {
		multiplier := math.Min(6.0, float64(actualSolveTime)/float64(params.NPowTargetSpacing))
		decayFactor = math.Min(math.Pow(multiplier, 0.45), 2.0)
	}

	difficultySmoothing := pastDifficultyAverage
	if nextHeight >= boolToInt(v9) {
		diffs := rollingDifficulties(tip, intMin(pastBlocks, 5))
		sort.Slice(diffs, func(i, j int) bool { return diffs[i].Cmp(diffs[j]) < 0 })
		difficultySmoothing = diffs[len(diffs)/2]
	}

	baseline := new(big.Int).Mul(difficultySmoothing, big.NewInt(actualTimespan))
	baseline.Div(baseline, big.NewInt(targetTimespan))
	newDifficulty := new(big.Int).Set(baseline)

	if nextHeight >= boolToInt(v9) && decayFactor > 1.0 {
		diffToPrevious := big.NewInt(0)
		if baseline.Cmp(difficultySmoothing) > 0 {
			diffToPrevious = new(big.Int).Sub(baseline, difficultySmoothing)
		}
		scaled := new(big.Float).Quo(new(big.Float).SetInt(diffToPrevious), big.NewFloat(decayFactor))
		scaledInt, _ := scaled.Int(nil)
		newDifficulty = new(big.Int).Sub(baseline, scaledInt)
	}

	limit := activeLimit(nextHeight, params)
	if nextHeight <= 1 && newDifficulty.Cmp(limit) > 0 {
		newDifficulty = limit
	}
	return wire.BigToCompact(newDifficulty)
}

func rollingSolveTimes(tip *chainindex.BlockNode, count int) []int64 {
	times := make([]int64, 0, count)
	cursor := tip
	for i := 0; i < count; i++ {
		if cursor.Parent == nil {
			break
		}
		times = append(times, cursor.Timestamp-cursor.Parent.Timestamp)
		cursor = cursor.Parent
	}
	if len(times) == 0 {
		return []int64{0}
	}
	return times
}

func rollingDifficulties(tip *chainindex.BlockNode, count int) []*big.Int {
	diffs := make([]*big.Int, 0, count)
	cursor := tip
	for i := 0; i < count; i++ {
		if cursor.Parent == nil {
			break
		}
		diffs = append(diffs, wire.CompactToBig(cursor.Bits))
		cursor = cursor.Parent
	}
	if len(diffs) == 0 {
		return []*big.Int{wire.CompactToBig(tip.Bits)}
	}
	return diffs
}

func intMin(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func int64Min(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
