// Package pow implements the difficulty retargeting regimes and proof-of-work
// verification described in spec.md §4.A, grounded on
// original_source/src/pow.cpp.
package pow

import (
	"math/big"

	"github.com/pinpins/interchained/chainparams"
	"github.com/pinpins/interchained/wire"
	"github.com/pkg/errors"
)

// Sentinel errors for the PoW verification error taxonomy (spec.md §7).
var (
	ErrPoWTargetOutOfRange = errors.New("pow: target out of range")
	ErrBadMemoryHardHash   = errors.New("pow: bad memory-hard hash")
)

// activeLimit returns the PoW limit in effect for nextHeight: the
// memory-hard limit past the yespower fork, the legacy limit otherwise.
func activeLimit(nextHeight int64, params *chainparams.Params) *big.Int {
	if nextHeight >= params.YespowerForkHeight {
		return params.PowLimitYespower
	}
	return params.PowLimit
}

func clampToLimit(target *big.Int, limit *big.Int) *big.Int {
	if target.Cmp(limit) > 0 {
		return new(big.Int).Set(limit)
	}
	return target
}

func compactLimit(nextHeight int64, params *chainparams.Params) uint32 {
	return wire.BigToCompact(activeLimit(nextHeight, params))
}
