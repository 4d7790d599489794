package pow

import (
	"time"

	"github.com/pinpins/interchained/chainindex"
	"github.com/pinpins/interchained/chainparams"
)

// NextWorkRequired selects and runs the retarget regime active at
// tip.Height+1. The four regimes gate on ascending fork heights:
//
//	nextHeight <  difficultyForkHeight       -> legacy (interval-only)
//	nextHeight <  nextDifficultyForkHeight   -> DGW3
//	nextHeight <  nextDifficultyFork2Height  -> LWMA3
//	nextHeight >= nextDifficultyFork2Height  -> DGW3-Nova
//
// See DESIGN.md for why this mapping is the one inferred from the chain
// parameters spec.md names, rather than the narrower legacy/DGW3-Nova-only
// dispatch original_source/src/pow.cpp's GetNextWorkRequired performs: DGW3
// and LWMA3 are defined there but never wired into that dispatcher, yet
// spec.md's retargeting section describes all four as live regimes gated by
// the listed fork heights.
func NextWorkRequired(tip *chainindex.BlockNode, newBlockTime time.Time, params *chainparams.Params) uint32 {
	nextHeight := tip.Height + 1

	switch {
	case nextHeight >= params.NextDifficultyFork2Height:
		return dgw3NovaNextWorkRequired(tip, params)
	case nextHeight >= params.NextDifficultyForkHeight:
		return lwma3NextWorkRequired(tip, params)
	case nextHeight >= params.DifficultyForkHeight:
		return dgw3NextWorkRequired(tip, params)
	default:
		return legacyNextWorkRequired(tip, newBlockTime, params)
	}
}
