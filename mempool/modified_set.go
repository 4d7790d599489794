package mempool

import "github.com/btcsuite/btcd/chaincfg/chainhash"

// ModifiedSet tracks entries whose ancestor aggregates have been
// invalidated by transactions the assembler already put in the block: once
// an ancestor is included, its cost no longer belongs in a not-yet-included
// descendant's ancestor-fee-rate.
//
// Grounded on spec.md §4.B's package selection description; there is no
// direct teacher analogue (Kaspa's block template builder walks a DAG
// rather than re-scoring Bitcoin-style ancestor packages), so this is
// modeled from the spec's own description of the Bitcoin-family algorithm,
// in the style of the nearby ordered-index type.
type ModifiedSet struct {
	byID map[chainhash.Hash]*Entry
}

// NewModifiedSet returns an empty set.
func NewModifiedSet() *ModifiedSet {
	return &ModifiedSet{byID: make(map[chainhash.Hash]*Entry)}
}

// Upsert records or replaces the modified view of entry.
func (m *ModifiedSet) Upsert(entry *Entry) {
	m.byID[entry.TxID()] = entry
}

// Remove drops entry from the set (it has been included or failed).
func (m *ModifiedSet) Remove(id chainhash.Hash) {
	delete(m.byID, id)
}

// Get returns the modified view of id, if present.
func (m *ModifiedSet) Get(id chainhash.Hash) (*Entry, bool) {
	e, ok := m.byID[id]
	return e, ok
}

// Best returns the highest ancestor-fee-rate entry in the set, or nil.
func (m *ModifiedSet) Best() *Entry {
	var best *Entry
	for _, e := range m.byID {
		if best == nil || e.AncestorFeeRate() > best.AncestorFeeRate() ||
			(e.AncestorFeeRate() == best.AncestorFeeRate() && compareHash(e.TxID(), best.TxID()) < 0) {
			best = e
		}
	}
	return best
}

// DiscountAncestors subtracts the size, modified fee, and sigops of the
// given included ancestors from entry's aggregates, reflecting that those
// ancestors are now sunk cost already paid for by the block.
func DiscountAncestors(entry *Entry, included []*Entry) *Entry {
	discounted := *entry
	for _, anc := range included {
		discounted.SizeWithAncestors -= anc.Weight / 4
		discounted.ModFeesWithAncestors -= anc.ModFee
		discounted.SigOpsWithAncestors -= anc.SigOps
	}
	return &discounted
}
