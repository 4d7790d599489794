// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mining

// MaxBlockWeight is the hard consensus ceiling on a block's serialized
// weight (3*base size + total size), matching Bitcoin-family SegWit blocks.
const MaxBlockWeight = 4_000_000

// MaxBlockSigOpsCost is the hard consensus ceiling on a block's weighted
// signature-operation count.
const MaxBlockSigOpsCost = 80_000

// Policy houses the policy (configuration parameters) which is used to control
// the generation of block templates. See the documentation for
// NewBlockTemplate for more details on how each of these parameters is used.
type Policy struct {
	// BlockMaxWeight is the maximum block weight to be used when
	// generating a block template, clamped to [4000, MaxBlockWeight-4000]
	// to leave room for the coinbase reservation.
	BlockMaxWeight uint32

	// BlockMinTxFee is the minimum fee rate, in amount per byte, that a
	// transaction must pay for the template assembler to include it.
	BlockMinTxFee int64

	// BlockVersion overrides the header version written into new
	// templates. Zero means "use the chain's current version". Only the
	// regression-test network honours a nonzero override; it exists so
	// regtest harnesses can exercise version-gated validation rules
	// without waiting on a real deployment height.
	BlockVersion int32

	// PrintPriority enables verbose per-transaction logging of the
	// fee-rate ordering used during package selection.
	PrintPriority bool
}

// ClampedBlockMaxWeight returns BlockMaxWeight clamped to the legal range.
func (p *Policy) ClampedBlockMaxWeight() uint32 {
	const min = 4000
	const max = MaxBlockWeight - 4000
	switch {
	case p.BlockMaxWeight < min:
		return min
	case p.BlockMaxWeight > max:
		return max
	default:
		return p.BlockMaxWeight
	}
}
