package pow

import (
	"math/big"

	"github.com/pinpins/interchained/chainindex"
	"github.com/pinpins/interchained/chainparams"
	"github.com/pinpins/interchained/wire"
)

const lwma3Window = 60

// lwma3NextWorkRequired is the standard LWMA retarget: a weighted average of
// the last 60 targets, scaled by a weighted sum of clipped solve-times.
// Weight i+1 runs from the tip (weight 1) back to the oldest block in the
// window (weight N) — preserved as original_source/src/pow.cpp's Lwma3 has
// it, rather than the more common tip-heaviest weighting.
//
// Grounded on original_source/src/pow.cpp's Lwma3.
func lwma3NextWorkRequired(tip *chainindex.BlockNode, params *chainparams.Params) uint32 {
	nextHeight := tip.Height + 1
	limitBits := compactLimit(nextHeight, params)
	limit := activeLimit(nextHeight, params)

	if nextHeight < params.NextDifficultyForkHeight+lwma3Window {
		return limitBits
	}

	T := params.NPowTargetSpacing
	k := big.NewInt(int64(lwma3Window * (lwma3Window + 1) / 2))

	sumTarget := big.NewInt(0)
	var t int64
	node := tip
	for i := 0; i < lwma3Window; i++ {
		if node.Parent == nil {
			break
		}
		solvetime := node.Timestamp - node.Parent.Timestamp
		if solvetime > 6*T {
			solvetime = 6 * T
		}
		if solvetime < -6*T {
			solvetime = -6 * T
		}
		weight := int64(i + 1)
		t += solvetime * weight

		weighted := new(big.Int).Mul(wire.CompactToBig(node.Bits), big.NewInt(weight))
		sumTarget.Add(sumTarget, weighted)

		node = node.Parent
	}

	if t <= 0 {
		return wire.BigToCompact(limit)
	}

	nextTarget := new(big.Int).Mul(sumTarget, big.NewInt(T))
	nextTarget.Div(nextTarget, new(big.Int).Mul(k, big.NewInt(t)))

	nextTarget = clampToLimit(nextTarget, limit)
	if nextTarget.Sign() <= 0 {
		nextTarget = big.NewInt(1)
	}
	return wire.BigToCompact(nextTarget)
}
