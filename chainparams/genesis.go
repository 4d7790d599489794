package chainparams

import (
	"time"

	"github.com/pinpins/interchained/wire"
)

// genesisCoinbaseTx is the coinbase transaction embedded in every network's
// genesis block: a single null-input, single zero-value output carrying a
// timestamped message, the way Bitcoin-family genesis blocks embed one.
//
// Grounded on dagconfig/genesis.go's genesisCoinbaseTx.
var genesisCoinbaseTx = wire.MsgTx{
	Version: 1,
	TxIn: []*wire.TxIn{
		{
			PreviousOutPoint: wire.OutPoint{Index: 0xffffffff},
			SignatureScript: []byte(
				"interchained genesis block: governance wallet seeded, fee burn active"),
			Sequence: wire.MaxTxInSequenceNum,
		},
	},
	TxOut: []*wire.TxOut{
		{
			Value:    0,
			PkScript: []byte{},
		},
	},
}

// genesisTimestamp is shared by every network's genesis block; only the
// bits (proof-of-work limit) differ between them.
var genesisTimestamp = time.Unix(1_735_689_600, 0)

// newGenesisBlock builds a one-transaction block at the given difficulty.
// CheckProofOfWork accepts height-0 blocks unconditionally, so no nonce
// search is needed; a genuine solve (as the teacher's cmd/genesis tool once
// did for its DAG genesis) would only matter if genesis carried real PoW.
func newGenesisBlock(bits uint32) *wire.MsgBlock {
	block := &wire.MsgBlock{
		Header: wire.BlockHeader{
			Version:    1,
			MerkleRoot: genesisCoinbaseTx.TxHash(),
			Timestamp:  genesisTimestamp,
			Bits:       bits,
			Nonce:      0,
		},
	}
	block.AddTransaction(&genesisCoinbaseTx)
	return block
}

var (
	mainNetGenesis = newGenesisBlock(wire.BigToCompact(mainPowLimit))
	regtestGenesis = newGenesisBlock(wire.BigToCompact(regtestPowLimit))
	testNetGenesis = newGenesisBlock(wire.BigToCompact(mainPowLimit))
)
