package miner

import (
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/pinpins/interchained/mining"
	"github.com/pinpins/interchained/wire"
)

var extraNonceMu sync.Mutex
var extraNonceCounter int64
var extraNonceLastPrevBlock chainhash.Hash

// IncrementExtraNonce rewrites a cloned template's coinbase scriptSig to
// (height, extra_nonce) and rebuilds the merkle root, the way each worker
// diversifies an otherwise-identical template clone. extra_nonce is a
// package-level counter reset whenever the template's previous-block hash
// differs from the last call's, matching Bitcoin Core's static nExtraNonce
// convention.
//
// Grounded on spec.md §4.C step 5 and original_source/src/miner.cpp's
// IncrementExtraNonce; no teacher (kaspad) analogue since Kaspa templates
// carry no scriptSig extra-nonce field.
func IncrementExtraNonce(block *wire.MsgBlock, height int64) int64 {
	extraNonceMu.Lock()
	if block.Header.PrevBlock != extraNonceLastPrevBlock {
		extraNonceCounter = 0
		extraNonceLastPrevBlock = block.Header.PrevBlock
	}
	extraNonceCounter++
	n := extraNonceCounter
	extraNonceMu.Unlock()

	coinbase := block.Transactions[0]
	script := mining.EncodeScriptNum(height)
	script = append(script, mining.EncodeScriptNum(n)...)
	coinbase.TxIn[0].SignatureScript = script

	recomputeMerkleRoot(block)
	return n
}

func recomputeMerkleRoot(block *wire.MsgBlock) {
	hashes := make([]chainhash.Hash, len(block.Transactions))
	for i, tx := range block.Transactions {
		hashes[i] = tx.TxHash()
	}
	block.Header.MerkleRoot = wire.CalcMerkleRoot(hashes)
}

// captureWitnessStack returns the coinbase's first input's witness stack if
// it is the single 32-byte reserved-value form buildCoinbase produces, or
// nil otherwise.
func captureWitnessStack(block *wire.MsgBlock) [][]byte {
	witness := block.Transactions[0].TxIn[0].Witness
	if len(witness) == 1 && len(witness[0]) == 32 {
		stack := make([][]byte, 1)
		stack[0] = append([]byte(nil), witness[0]...)
		return stack
	}
	return nil
}

// restoreWitnessStack reinstates a previously captured witness stack onto a
// cloned template's coinbase, per spec.md §4.C step 5: IncrementExtraNonce
// only touches scriptSig, but a defensive restore keeps the witness data
// byte-identical across clones regardless of how copystructure handled it.
func restoreWitnessStack(block *wire.MsgBlock, original [][]byte) {
	if original == nil {
		return
	}
	block.Transactions[0].TxIn[0].Witness = original
}

// regenerateWitnessCommitment recomputes and rewrites the coinbase's
// witness-commitment output from the block's current transaction set,
// unconditionally, per DESIGN.md's Open Question decision on this point.
func regenerateWitnessCommitment(template *mining.BlockTemplate) {
	if template.WitnessCommitment == nil {
		return
	}
	block := template.Block
	coinbase := block.Transactions[0]

	hashes := make([]chainhash.Hash, 0, len(block.Transactions))
	hashes = append(hashes, chainhash.Hash{})
	for _, tx := range block.Transactions[1:] {
		hashes = append(hashes, tx.TxHash())
	}
	root := wire.CalcMerkleRoot(hashes)
	reserved := make([]byte, 32)
	commitment := wire.DoubleSHA256(append(root[:], reserved...))

	for i := len(coinbase.TxOut) - 1; i >= 0; i-- {
		out := coinbase.TxOut[i]
		if isWitnessCommitmentScript(out.PkScript) {
			out.PkScript = append(append([]byte{0x6a, byte(len(witnessCommitmentHeaderLocal) + 32)},
				witnessCommitmentHeaderLocal...), commitment[:]...)
			break
		}
	}
	template.WitnessCommitment = &commitment
	recomputeMerkleRoot(block)
}

var witnessCommitmentHeaderLocal = []byte{0xaa, 0x21, 0xa9, 0xed}

func isWitnessCommitmentScript(script []byte) bool {
	if len(script) < 6 || script[0] != 0x6a {
		return false
	}
	for i, b := range witnessCommitmentHeaderLocal {
		if script[2+i] != b {
			return false
		}
	}
	return true
}
