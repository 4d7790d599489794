package mempool

import (
	"sort"

	"github.com/pkg/errors"
)

// OrderedByAncestorFeeRate keeps entries sorted ascending by
// AncestorFeeRate, with ties broken by transaction id, so the package
// selection loop can always take the index's last element as "current
// front" (the highest fee-rate candidate).
//
// Grounded on
// domain/miningmanager/mempool/model/ordered_transactions_by_fee_rate.go,
// generalized from mass-based fee-rate to the ancestor-aggregate fee-rate
// spec.md §4.B's package selection reads.
type OrderedByAncestorFeeRate struct {
	slice []*Entry
}

// Push inserts entry at its sorted position.
func (o *OrderedByAncestorFeeRate) Push(entry *Entry) {
	index := o.findInsertIndex(entry)
	o.slice = append(o.slice[:index],
		append([]*Entry{entry}, o.slice[index:]...)...)
}

// Remove deletes entry from the index.
func (o *OrderedByAncestorFeeRate) Remove(entry *Entry) error {
	index := o.findInsertIndex(entry)
	id := entry.TxID()
	for i := index; i < len(o.slice); i++ {
		if o.slice[i].TxID() == id {
			o.slice = append(o.slice[:i], o.slice[i+1:]...)
			return nil
		}
	}
	return errors.Errorf("entry %s not found in ordered index", id)
}

// Front returns the highest-fee-rate entry still present, or nil if empty.
func (o *OrderedByAncestorFeeRate) Front() *Entry {
	if len(o.slice) == 0 {
		return nil
	}
	return o.slice[len(o.slice)-1]
}

// Len reports the number of entries held.
func (o *OrderedByAncestorFeeRate) Len() int {
	return len(o.slice)
}

// All returns a descending (best-first) snapshot of the index.
func (o *OrderedByAncestorFeeRate) All() []*Entry {
	out := make([]*Entry, len(o.slice))
	for i, e := range o.slice {
		out[len(o.slice)-1-i] = e
	}
	return out
}

// OrderedByAncestorFeeRate satisfies mining.TxSource, letting the index feed
// the template assembler directly.
func (o *OrderedByAncestorFeeRate) OrderedByAncestorFeeRate() []*Entry {
	return o.All()
}

func (o *OrderedByAncestorFeeRate) findInsertIndex(entry *Entry) int {
	rate := entry.AncestorFeeRate()
	id := entry.TxID()
	return sort.Search(len(o.slice), func(i int) bool {
		elementRate := o.slice[i].AncestorFeeRate()
		if elementRate > rate {
			return true
		}
		if elementRate == rate {
			elementID := o.slice[i].TxID()
			cmp := compareHash(id, elementID)
			return cmp <= 0
		}
		return false
	})
}

func compareHash(a, b [32]byte) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}
