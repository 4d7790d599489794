package mining

import (
	"sort"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/pinpins/interchained/mempool"
	"github.com/pinpins/interchained/wire"
)

// lockTimeThreshold is the boundary between height-based and time-based
// nLockTime, matching Bitcoin's LOCKTIME_THRESHOLD.
const lockTimeThreshold = 500_000_000

// maxConsecutiveFailures bounds how many rejected candidates the loop
// tolerates before giving up early, per spec.md §4.B.
const maxConsecutiveFailures = 1000

type selectionLimits struct {
	maxWeight      int64
	maxSigOpsCost  int64
	minFeeRate     int64
	weightUsed     int64
	sigOpsUsed     int64
	witnessEnabled bool
	height         int64
	medianTimePast time.Time
	blockTime      time.Time
}

// selectPackages implements spec.md §4.B's package selection: a greedy walk
// over the mempool's ancestor-fee-rate index and an auxiliary modified set
// of entries whose aggregates prior inclusions have invalidated.
//
// Grounded on spec.md §4.B's description; replaces mining/txselection.go's
// probabilistic alpha-weighted random selector (grounded on a different,
// non-deterministic algorithm this spec does not call for).
func selectPackages(entries []*mempool.Entry, limits selectionLimits) (selected []*mempool.Entry, fees []int64, sigops []int64, err error) {
	included := make(map[chainhash.Hash]bool)
	failed := make(map[chainhash.Hash]bool)
	modified := mempool.NewModifiedSet()

	weightUsed := limits.weightUsed
	sigOpsUsed := limits.sigOpsUsed
	consecutiveFailures := 0
	idx := 0

	cutoff := limits.blockTime
	if limits.witnessEnabled {
		cutoff = limits.medianTimePast
	}

	for {
		for idx < len(entries) && (included[entries[idx].TxID()] || failed[entries[idx].TxID()]) {
			idx++
		}
		var indexCandidate *mempool.Entry
		if idx < len(entries) {
			indexCandidate = entries[idx]
		}
		modifiedCandidate := modified.Best()

		var candidate *mempool.Entry
		useModified := false
		switch {
		case indexCandidate == nil && modifiedCandidate == nil:
			return selected, fees, sigops, nil
		case indexCandidate == nil:
			candidate, useModified = modifiedCandidate, true
		case modifiedCandidate == nil:
			candidate = indexCandidate
		default:
			if modifiedCandidate.AncestorFeeRate() >= indexCandidate.AncestorFeeRate() {
				candidate, useModified = modifiedCandidate, true
			} else {
				candidate = indexCandidate
			}
		}

		id := candidate.TxID()

		var pkg []*mempool.Entry
		for _, a := range candidate.Ancestors() {
			if !included[a.TxID()] {
				pkg = append(pkg, a)
			}
		}

		var pkgWeight, pkgSigOps, pkgFees int64
		for _, a := range pkg {
			pkgWeight += a.Weight
			pkgSigOps += a.SigOps
			pkgFees += a.ModFee
		}
		pkgSize := pkgWeight / 4

		ok := weightUsed+4*pkgSize < limits.maxWeight &&
			sigOpsUsed+pkgSigOps < limits.maxSigOpsCost &&
			pkgFees >= limits.minFeeRate*pkgSize &&
			allFinal(pkg, limits.height, cutoff) &&
			(limits.witnessEnabled || noneHaveWitness(pkg))

		if !ok {
			failed[id] = true
			if useModified {
				modified.Remove(id)
			} else {
				idx++
			}
			consecutiveFailures++
			if consecutiveFailures > maxConsecutiveFailures && weightUsed > limits.maxWeight-4000 {
				return selected, fees, sigops, nil
			}
			continue
		}

		consecutiveFailures = 0

		sort.Slice(pkg, func(i, j int) bool {
			return len(pkg[i].Ancestors()) < len(pkg[j].Ancestors())
		})
		for _, a := range pkg {
			included[a.TxID()] = true
			selected = append(selected, a)
			fees = append(fees, a.Fee)
			sigops = append(sigops, a.SigOps)
			weightUsed += a.Weight
			sigOpsUsed += a.SigOps
		}
		if useModified {
			modified.Remove(id)
		} else {
			idx++
		}

		updateModifiedSet(modified, entries, included, failed, pkg)
	}
}

// updateModifiedSet discounts the cost of the just-included package from
// every not-yet-resolved entry that descends from it.
func updateModifiedSet(modified *mempool.ModifiedSet, entries []*mempool.Entry,
	included, failed map[chainhash.Hash]bool, pkg []*mempool.Entry) {
	for _, e := range entries {
		id := e.TxID()
		if included[id] || failed[id] {
			continue
		}
		var matched []*mempool.Entry
		for _, anc := range e.Ancestors() {
			for _, a := range pkg {
				if anc.TxID() == a.TxID() {
					matched = append(matched, a)
					break
				}
			}
		}
		if len(matched) == 0 {
			continue
		}
		current, ok := modified.Get(id)
		if !ok {
			current = e
		}
		modified.Upsert(mempool.DiscountAncestors(current, matched))
	}
}

func allFinal(pkg []*mempool.Entry, height int64, cutoff time.Time) bool {
	for _, e := range pkg {
		if !isFinal(e.Tx, height, cutoff) {
			return false
		}
	}
	return true
}

func isFinal(tx *wire.MsgTx, height int64, cutoff time.Time) bool {
	if tx.LockTime == 0 {
		return true
	}
	if int64(tx.LockTime) < lockTimeThreshold {
		return int64(tx.LockTime) < height
	}
	return int64(tx.LockTime) < cutoff.Unix()
}

func noneHaveWitness(pkg []*mempool.Entry) bool {
	for _, e := range pkg {
		if e.Tx.HasWitness() {
			return false
		}
	}
	return true
}
