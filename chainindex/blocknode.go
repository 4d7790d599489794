// Package chainindex models the in-memory chain of block records consumed
// by the pow and mining packages: a linear, singly linked index (no DAG, no
// cycles) carrying just enough per-block data to retarget difficulty and
// compute median time past.
package chainindex

import (
	"sort"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// medianTimeBlocks is the number of blocks used to calculate the median
// time used to validate block timestamps, per spec.md §3.
const medianTimeBlocks = 11

// BlockNode represents a block within the chain index: height, time, bits,
// and a back-link to its single parent.
//
// Grounded on blockdag/blocknode.go's blockNode, trimmed of the DAG's
// blue-score/parent-set/UTXO-diff fields since this models a linear chain.
type BlockNode struct {
	Parent *BlockNode

	Hash       chainhash.Hash
	Height     int64
	Version    int32
	Bits       uint32
	Timestamp  int64
	MerkleRoot chainhash.Hash
}

// NewBlockNode builds a node linked to parent. parent is nil only for the
// genesis node.
func NewBlockNode(hash chainhash.Hash, version int32, bits uint32, timestamp time.Time, merkleRoot chainhash.Hash, parent *BlockNode) *BlockNode {
	node := &BlockNode{
		Parent:     parent,
		Hash:       hash,
		Version:    version,
		Bits:       bits,
		Timestamp:  timestamp.Unix(),
		MerkleRoot: merkleRoot,
	}
	if parent != nil {
		node.Height = parent.Height + 1
	}
	return node
}

// IsGenesis reports whether this node has no parent.
func (node *BlockNode) IsGenesis() bool {
	return node.Parent == nil
}

// RelativeAncestor returns the ancestor distance blocks behind node, or nil
// if the chain isn't that long.
func (node *BlockNode) RelativeAncestor(distance int64) *BlockNode {
	n := node
	for i := int64(0); i < distance && n != nil; i++ {
		n = n.Parent
	}
	return n
}

// GetMedianTimePast returns the median of the timestamps of the last 11
// ancestors (including node itself), per spec.md §3. Short histories pad
// with the earliest available timestamp, matching
// blockdag/blocknode.go's PastMedianTime padding-with-genesis behavior.
func (node *BlockNode) GetMedianTimePast() time.Time {
	timestamps := make([]int64, 0, medianTimeBlocks)
	iter := node
	for i := 0; i < medianTimeBlocks; i++ {
		timestamps = append(timestamps, iter.Timestamp)
		if !iter.IsGenesis() {
			iter = iter.Parent
		}
	}
	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i] < timestamps[j] })
	median := timestamps[len(timestamps)/2]
	return time.Unix(median, 0)
}

// Ancestors walks back count blocks from node and returns them in
// newest-to-oldest order, stopping early if genesis is reached. Used by the
// pow package's difficulty-window walks in place of database round-trips.
func (node *BlockNode) Ancestors(count int) []*BlockNode {
	window := make([]*BlockNode, 0, count)
	n := node
	for i := 0; i < count && n != nil; i++ {
		window = append(window, n)
		if n.IsGenesis() {
			break
		}
		n = n.Parent
	}
	return window
}
