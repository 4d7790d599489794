package pow

import (
	"math/big"

	"github.com/pinpins/interchained/chainindex"
	"github.com/pinpins/interchained/chainparams"
	"github.com/pinpins/interchained/wire"
)

const dgw3PastBlocks = 24

// dgw3NextWorkRequired averages the targets of the last 24 blocks
// (incrementally weighted mean), clamps the accumulated timespan to
// [target/3, target*3], and scales the average by clamped/target.
//
// Grounded on original_source/src/pow.cpp's DarkGravityWave3.
func dgw3NextWorkRequired(tip *chainindex.BlockNode, params *chainparams.Params) uint32 {
	nextHeight := tip.Height + 1
	limitBits := compactLimit(nextHeight, params)
	if nextHeight < dgw3PastBlocks {
		return limitBits
	}

	average, _, actualTimespan := dgw3WeightedAverage(tip, dgw3PastBlocks)

	targetTimespan := int64(dgw3PastBlocks) * params.NPowTargetSpacing
	if actualTimespan < targetTimespan/3 {
		actualTimespan = targetTimespan / 3
	}
	if actualTimespan > targetTimespan*3 {
		actualTimespan = targetTimespan * 3
	}

	newDifficulty := new(big.Int).Mul(average, big.NewInt(actualTimespan))
	newDifficulty.Div(newDifficulty, big.NewInt(targetTimespan))

	limit := activeLimit(nextHeight, params)
	if nextHeight <= 5879 && newDifficulty.Cmp(limit) > 0 {
		newDifficulty = limit
	}
	return wire.BigToCompact(newDifficulty)
}

// dgw3WeightedAverage walks back up to pastBlocks ancestors from tip,
// computing the incrementally-weighted average target and the accumulated
// inter-block timespan, shared by DGW3 and DGW3-Nova.
func dgw3WeightedAverage(tip *chainindex.BlockNode, pastBlocks int) (average *big.Int, lastNode *chainindex.BlockNode, actualTimespan int64) {
	var pastAveragePrev *big.Int
	var lastBlockTime int64
	node := tip
	for i := 0; i < pastBlocks; i++ {
		if node == nil {
			break
		}
		current := wire.CompactToBig(node.Bits)
		if i == 0 {
			average = current
		} else {
			average = new(big.Int).Mul(pastAveragePrev, big.NewInt(int64(i)))
			average.Add(average, current)
			average.Div(average, big.NewInt(int64(i+1)))
		}
		pastAveragePrev = average

		if lastBlockTime > 0 {
			actualTimespan += lastBlockTime - node.Timestamp
		}
		lastBlockTime = node.Timestamp
		lastNode = node
		node = node.Parent
	}
	return average, lastNode, actualTimespan
}
