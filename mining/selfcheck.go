package mining

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/pinpins/interchained/chainindex"
	"github.com/pinpins/interchained/chainparams"
	"github.com/pinpins/interchained/wire"
	"github.com/pkg/errors"
)

// selfCheckTemplate re-runs the validity tests an incoming block would face
// against the just-assembled template, per spec.md §4.B step 10.
//
// Grounded on mining/mining.go's CheckConnectBlockTemplateNoLock call;
// reimplemented against this package's own block/chain types since the
// teacher's DAG-wide connect-block validation has no equivalent here.
func selfCheckTemplate(template *BlockTemplate, tip *chainindex.BlockNode, params *chainparams.Params) error {
	block := template.Block

	if len(block.Transactions) == 0 {
		return errors.New("template has no coinbase transaction")
	}
	coinbase := block.Transactions[0]
	if !coinbase.IsCoinBase() {
		return errors.New("template's first transaction is not a coinbase")
	}
	for _, tx := range block.Transactions[1:] {
		if tx.IsCoinBase() {
			return errors.New("template contains a second coinbase transaction")
		}
	}

	if block.Header.PrevBlock != tip.Hash {
		return errors.New("template's prev block does not match the chain tip")
	}

	hashes := make([]chainhash.Hash, len(block.Transactions))
	for i, tx := range block.Transactions {
		hashes[i] = tx.TxHash()
	}
	if block.Header.MerkleRoot != wire.CalcMerkleRoot(hashes) {
		return errors.New("template merkle root does not match its transactions")
	}

	var totalWeight int64
	for _, tx := range block.Transactions {
		totalWeight += tx.Weight()
	}
	if totalWeight > MaxBlockWeight {
		return errors.Errorf("template weight %d exceeds consensus maximum %d", totalWeight, MaxBlockWeight)
	}

	if len(template.Fees) != len(block.Transactions) || len(template.SigOps) != len(block.Transactions) {
		return errors.New("template fee/sigop bookkeeping does not match its transaction count")
	}

	return nil
}
