// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"sync"

	"github.com/pinpins/interchained/chainindex"
	"github.com/pinpins/interchained/chainparams"
	"github.com/pinpins/interchained/pow"
	"github.com/pinpins/interchained/wire"
	"github.com/pkg/errors"
)

// chain is the node's in-memory block index: genesis plus every block
// accepted since, no reorg handling and no persistence. A restart rebuilds
// from genesis only; there is no peer layer to resync from in this scope.
//
// It implements mining.ChainTip, tokenledger.BlockSource, and
// miner.BlockSubmitter, the three views the rest of the node needs of
// chain state, the way blockdag.BlockDAG serves a comparable trio of
// roles for the teacher's DAG.
type chain struct {
	mu     sync.Mutex
	params *chainparams.Params
	nodes  []*chainindex.BlockNode
	blocks []*wire.MsgBlock
}

// newChain seeds the index with params' hardcoded genesis block.
func newChain(params *chainparams.Params) *chain {
	genesis := params.GenesisBlock
	node := chainindex.NewBlockNode(genesis.BlockHash(), genesis.Header.Version, genesis.Header.Bits,
		genesis.Header.Timestamp, genesis.Header.MerkleRoot, nil)
	return &chain{
		params: params,
		nodes:  []*chainindex.BlockNode{node},
		blocks: []*wire.MsgBlock{genesis},
	}
}

// Tip implements mining.ChainTip.
func (c *chain) Tip() *chainindex.BlockNode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nodes[len(c.nodes)-1]
}

// TipHeight implements tokenledger.BlockSource.
func (c *chain) TipHeight() int64 {
	return c.Tip().Height
}

// BlockAtHeight implements tokenledger.BlockSource.
func (c *chain) BlockAtHeight(height int64) (*wire.MsgBlock, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if height < 0 || height >= int64(len(c.blocks)) {
		return nil, false
	}
	return c.blocks[height], true
}

// SubmitBlock implements miner.BlockSubmitter: it accepts block only if it
// extends the current tip with a valid proof of work.
func (c *chain) SubmitBlock(block *wire.MsgBlock) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tip := c.nodes[len(c.nodes)-1]
	if block.Header.PrevBlock != tip.Hash {
		return errors.New("chain: submitted block does not extend the current tip")
	}
	height := tip.Height + 1

	ok, err := pow.CheckProofOfWork(&block.Header, height, c.params)
	if err != nil {
		return errors.Wrap(err, "chain: proof-of-work check failed")
	}
	if !ok {
		return errors.New("chain: invalid proof of work")
	}

	node := chainindex.NewBlockNode(block.BlockHash(), block.Header.Version, block.Header.Bits,
		block.Header.Timestamp, block.Header.MerkleRoot, tip)
	c.nodes = append(c.nodes, node)
	c.blocks = append(c.blocks, block)
	return nil
}
