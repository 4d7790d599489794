// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mining

import (
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/pinpins/interchained/chainindex"
	"github.com/pinpins/interchained/chainparams"
	"github.com/pinpins/interchained/mempool"
	"github.com/pinpins/interchained/pow"
	"github.com/pinpins/interchained/wire"
	"github.com/pkg/errors"
)

// BlockTemplate houses a block that has yet to be solved along with the
// bookkeeping the miner and downstream ledger replay need: per-transaction
// fees and sigop costs, and the coinbase's witness commitment if any.
//
// Grounded on mining/mining.go's BlockTemplate, trimmed of DAG-specific mass
// accounting and extended with the witness-commitment field spec.md §4.B
// step 8 requires.
type BlockTemplate struct {
	Block *wire.MsgBlock

	// Fees[i] is the fee paid by Block.Transactions[i]; Fees[0] (coinbase)
	// is the negative of the sum of all other fees.
	Fees []int64

	// SigOps[i] is the signature-operation cost of Block.Transactions[i].
	SigOps []int64

	Height int64

	// WitnessCommitment is the commitment appended to the coinbase's
	// OP_RETURN output, nil when the template carries no witness data.
	WitnessCommitment *[32]byte
}

// TxSource is the mempool view the assembler reads from: an ancestor-fee-rate
// ordered snapshot of candidate transactions. Admission/eviction policy is
// out of scope; the assembler only consumes whatever is already indexed.
//
// Grounded on mining/mining.go's TxSource interface, replacing kaspad's
// MiningDescs()/HaveTransaction() shape with the ancestor-aggregate model
// spec.md §3/§4.B describe.
type TxSource interface {
	OrderedByAncestorFeeRate() []*mempool.Entry
}

// ChainTip is the minimal chain-state view the assembler needs: the current
// tip, its median time past, and the height to build on top of.
type ChainTip interface {
	Tip() *chainindex.BlockNode
}

// Logger is the minimal leveled-logging surface the assembler needs for
// Policy.PrintPriority; satisfied by *logger.Logger.
type Logger interface {
	Infof(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{}) {}

// BlkTmplGenerator builds block templates against a mining policy, a
// mempool view, and the active chain parameters.
//
// Grounded on mining/mining.go's BlkTmplGenerator, generalized from a DAG
// generator (dag *blockdag.BlockDAG) to a linear-chain one (chainindex +
// chainparams).
type BlkTmplGenerator struct {
	policy     *Policy
	params     *chainparams.Params
	txSource   TxSource
	chainTip   ChainTip
	timeSource chainindex.TimeSource

	// Logger receives a line per selected transaction when
	// policy.PrintPriority is set. Defaults to a no-op.
	Logger Logger
}

// NewBlkTmplGenerator returns a generator driven by policy, reading
// transactions from txSource and chain state from chainTip.
func NewBlkTmplGenerator(policy *Policy, params *chainparams.Params, txSource TxSource,
	chainTip ChainTip, timeSource chainindex.TimeSource) *BlkTmplGenerator {
	return &BlkTmplGenerator{
		policy:     policy,
		params:     params,
		txSource:   txSource,
		chainTip:   chainTip,
		timeSource: timeSource,
		Logger:     nopLogger{},
	}
}

// reservedWeight and reservedSigOps are the placeholder coinbase's weight
// and sigop-cost budget, spec.md §4.B step 1.
const (
	reservedWeight = 4000
	reservedSigOps = 400
)

// coinbaseSentinel is the fixed 8-byte scriptSig suffix used for templates
// that have not yet had an extra-nonce assigned.
var coinbaseSentinel = []byte{0xf0, 0x00, 0x00, 0x0f, 0xf1, 0x11, 0x11, 0x1f}

// NewBlockTemplate runs the ten-step assembly algorithm of spec.md §4.B and
// returns a candidate block ready for nonce search, or a descriptive error.
func (g *BlkTmplGenerator) NewBlockTemplate(payToScript []byte) (*BlockTemplate, error) {
	// Step 1: reset accumulators, reserving space for the coinbase.
	weightUsed := int64(reservedWeight)
	sigOpsUsed := int64(reservedSigOps)

	// Step 2: lock the chain tip and mempool view atomically. The caller
	// is expected to hold any external lock (chain-state then mempool, per
	// spec.md §5); this call just reads a consistent snapshot of both.
	tip := g.chainTip.Tip()
	if tip == nil {
		return nil, errors.New("mining: no chain tip available")
	}
	nextHeight := tip.Height + 1
	mtp := tip.GetMedianTimePast()

	// Step 3: version. Version-bits signaling is out of scope for this
	// chain; use the current header version unconditionally, unless the
	// regression-test network has a policy override in effect.
	version := int32(4)
	if g.params.Name == "regtest" && g.policy.BlockVersion != 0 {
		version = g.policy.BlockVersion
	}

	// Step 4: time.
	now := g.timeSource.Now()
	blockTime := mtp.Add(time.Second)
	if now.After(blockTime) {
		blockTime = now
	}
	if nextHeight >= g.params.DifficultyForkHeight {
		maxTime := mtp.Add(20 * time.Minute)
		if blockTime.After(maxTime) {
			blockTime = maxTime
		}
	}

	// Step 5: witness flag. spec.md's consumed chain parameters carry no
	// separate SegWit activation height, so witness serialization is
	// active unconditionally past genesis.
	witnessEnabled := nextHeight > 0

	// Step 6: package selection.
	entries := g.txSource.OrderedByAncestorFeeRate()
	selected, fees, sigops, err := selectPackages(entries, selectionLimits{
		maxWeight:        int64(g.policy.ClampedBlockMaxWeight()),
		maxSigOpsCost:    MaxBlockSigOpsCost,
		minFeeRate:       g.policy.BlockMinTxFee,
		weightUsed:       weightUsed,
		sigOpsUsed:       sigOpsUsed,
		witnessEnabled:   witnessEnabled,
		height:           nextHeight,
		medianTimePast:   mtp,
		blockTime:        blockTime,
	})
	if err != nil {
		return nil, errors.Wrap(err, "mining: package selection failed")
	}
	if g.policy.PrintPriority {
		for i, e := range selected {
			g.Logger.Infof("mining: selected tx %s (rank %d, fee %d, sigops %d)",
				e.Tx.TxHash(), i, fees[i], sigops[i])
		}
	}

	totalFees := int64(0)
	for _, f := range fees {
		totalFees += f
	}

	// Step 7+8: coinbase and witness commitment.
	coinbase, commitment, err := buildCoinbase(coinbaseParams{
		params:         g.params,
		height:         nextHeight,
		fees:           totalFees,
		payToScript:    payToScript,
		witnessEnabled: witnessEnabled,
		selected:       selected,
	})
	if err != nil {
		return nil, errors.Wrap(err, "mining: coinbase construction failed")
	}

	block := &wire.MsgBlock{
		Header: wire.BlockHeader{
			Version:   version,
			PrevBlock: tip.Hash,
			Timestamp: blockTime,
		},
	}
	block.AddTransaction(coinbase)
	for _, e := range selected {
		block.AddTransaction(e.Tx)
	}

	// Step 9: header finalisation.
	block.Header.Timestamp = blockTime
	block.Header.Bits = pow.NextWorkRequired(tip, blockTime, g.params)
	block.Header.Nonce = 0
	hashes := make([]chainhash.Hash, len(block.Transactions))
	for i, tx := range block.Transactions {
		hashes[i] = tx.TxHash()
	}
	block.Header.MerkleRoot = wire.CalcMerkleRoot(hashes)

	template := &BlockTemplate{
		Block:             block,
		Fees:              append([]int64{-totalFees}, fees...),
		SigOps:            append([]int64{reservedSigOps}, sigops...),
		Height:            nextHeight,
		WitnessCommitment: commitment,
	}

	// Step 10: self-check.
	if err := selfCheckTemplate(template, tip, g.params); err != nil {
		return nil, errors.Wrap(err, "mining: self-check failed")
	}

	return template, nil
}
