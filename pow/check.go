package pow

import (
	"bytes"
	"math/big"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/pinpins/interchained/chainparams"
	"github.com/pinpins/interchained/wire"
)

// CheckProofOfWork validates a candidate block header against the active
// regime, in five steps:
//
//  1. height 0 (genesis) always passes.
//  2. nBits decodes to a positive, in-range target; otherwise reject.
//  3. height 1 is a bootstrap block and always passes regardless of hash.
//  4. past the yespower fork, recompute the memory-hard hash and compare.
//  5. otherwise compare the header's own (SHA-256) block hash.
//
// Grounded on original_source/src/pow.cpp's CheckProofOfWork /
// CheckProofOfWorkWithHeight.
func CheckProofOfWork(header *wire.BlockHeader, height int64, params *chainparams.Params) (bool, error) {
	if height == 0 {
		return true, nil
	}

	target := wire.CompactToBig(header.Bits)
	limit := activeLimit(height, params)
	if target.Sign() <= 0 || target.Cmp(limit) > 0 {
		return false, ErrPoWTargetOutOfRange
	}

	if height == 1 {
		return true, nil
	}

	if height >= params.YespowerForkHeight {
		buf := &bytes.Buffer{}
		if err := header.Serialize(buf); err != nil {
			return false, err
		}
		digest := MemoryHardHash(buf.Bytes(), paramsForHeight(height))
		return hashLessOrEqual(digest, target), nil
	}

	return hashLessOrEqual(header.BlockHash(), target), nil
}

func hashLessOrEqual(hash chainhash.Hash, target *big.Int) bool {
	hashInt := new(big.Int).SetBytes(reverseBytes(hash[:]))
	return hashInt.Cmp(target) <= 0
}

// reverseBytes flips a hash's byte order: chainhash stores digests
// internally reversed, so comparisons against a big.Int target need the
// natural (big-endian numeric) order.
func reverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}
