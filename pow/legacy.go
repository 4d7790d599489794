package pow

import (
	"math/big"
	"time"

	"github.com/pinpins/interchained/chainindex"
	"github.com/pinpins/interchained/chainparams"
	"github.com/pinpins/interchained/wire"
)

// legacyNextWorkRequired is the Bitcoin legacy retarget regime: only
// changes at the interval boundary, clamping the actual timespan between
// 1/4 and 4x of the target timespan.
//
// Grounded on original_source/src/pow.cpp's GetNextWorkRequired /
// CalculateNextWorkRequired.
func legacyNextWorkRequired(tip *chainindex.BlockNode, newBlockTime time.Time, params *chainparams.Params) uint32 {
	nextHeight := tip.Height + 1
	powLimitBits := compactLimit(nextHeight, params)
	interval := params.DifficultyAdjustmentIntervalBlocks()

	if nextHeight%interval != 0 {
		if params.FPowAllowMinDifficultyBlocks {
			if newBlockTime.Unix() > tip.Timestamp+params.NPowTargetSpacing*2 {
				return powLimitBits
			}
			node := tip
			for node.Parent != nil && node.Height%interval != 0 && node.Bits == powLimitBits {
				node = node.Parent
			}
			return node.Bits
		}
		return tip.Bits
	}

	firstNode := tip.RelativeAncestor(interval - 1)
	if firstNode == nil {
		return powLimitBits
	}
	return calculateNextWorkRequired(tip, firstNode.Timestamp, params)
}

func calculateNextWorkRequired(tip *chainindex.BlockNode, firstBlockTime int64, params *chainparams.Params) uint32 {
	if params.FPowNoRetargeting {
		return tip.Bits
	}

	actualTimespan := tip.Timestamp - firstBlockTime
	minTimespan := params.NPowTargetTimespan / 4
	maxTimespan := params.NPowTargetTimespan * 4
	if actualTimespan < minTimespan {
		actualTimespan = minTimespan
	}
	if actualTimespan > maxTimespan {
		actualTimespan = maxTimespan
	}

	newTarget := wire.CompactToBig(tip.Bits)
	newTarget.Mul(newTarget, big.NewInt(actualTimespan))
	newTarget.Div(newTarget, big.NewInt(params.NPowTargetTimespan))

	newTarget = clampToLimit(newTarget, params.PowLimit)
	return wire.BigToCompact(newTarget)
}
