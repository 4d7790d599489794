// Package mempool models the template assembler's view of pending
// transactions: per-transaction fee/weight/sigop accounting plus
// precomputed ancestor aggregates, and an index ordered by ancestor
// fee-rate. Admission policy (what gets into the mempool and when it
// leaves) is out of scope; this package only models what the assembler
// reads.
package mempool

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/pinpins/interchained/wire"
)

// Entry is one candidate transaction as the template assembler sees it:
// its own cost figures plus the aggregated cost of its entire unconfirmed
// ancestor package.
//
// Grounded on domain/miningmanager/mempool/model/mempool_transaction.go,
// generalized from Kaspa's single-parent-set DAG transaction to a
// Bitcoin-family ancestor-package model with the three aggregate fields
// spec.md §3 names.
type Entry struct {
	Tx *wire.MsgTx

	Weight  int64
	SigOps  int64
	Fee     int64
	ModFee  int64
	AddedAt int64

	Parents map[wire.OutPoint]*Entry

	SizeWithAncestors   int64
	ModFeesWithAncestors int64
	SigOpsWithAncestors int64
}

// TxID is the entry's transaction hash, used as its identity in indexes.
func (e *Entry) TxID() chainhash.Hash {
	return e.Tx.TxHash()
}

// AncestorFeeRate is the fee-rate the package selection algorithm orders
// by: modified ancestor fees per unit of ancestor size.
func (e *Entry) AncestorFeeRate() float64 {
	if e.SizeWithAncestors == 0 {
		return 0
	}
	return float64(e.ModFeesWithAncestors) / float64(e.SizeWithAncestors)
}

// Ancestors returns the transitive closure of e's in-mempool parents,
// including e itself, without duplicates.
func (e *Entry) Ancestors() []*Entry {
	seen := make(map[chainhash.Hash]*Entry)
	var walk func(entry *Entry)
	walk = func(entry *Entry) {
		id := entry.TxID()
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = entry
		for _, parent := range entry.Parents {
			walk(parent)
		}
	}
	walk(e)

	out := make([]*Entry, 0, len(seen))
	for _, entry := range seen {
		out = append(out, entry)
	}
	return out
}
