package wire

import (
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/pkg/errors"
)

// MsgBlock defines a block: header plus the ordered transaction list. The
// first transaction is always the coinbase.
//
// Grounded on wire/msgblock_test.go's round-trip expectations.
type MsgBlock struct {
	Header       BlockHeader
	Transactions []*MsgTx
}

// AddTransaction appends a transaction to the block.
func (msg *MsgBlock) AddTransaction(tx *MsgTx) {
	msg.Transactions = append(msg.Transactions, tx)
}

// Serialize encodes the full block: header, var-int tx count, then each
// transaction (with its own witness data inline per BIP144).
func (msg *MsgBlock) Serialize(w io.Writer) error {
	if err := msg.Header.Serialize(w); err != nil {
		return errors.Wrap(err, "failed to serialize header")
	}
	if err := WriteVarInt(w, uint64(len(msg.Transactions))); err != nil {
		return errors.Wrap(err, "failed to write tx count")
	}
	for i, tx := range msg.Transactions {
		if err := tx.Serialize(w); err != nil {
			return errors.Wrapf(err, "failed to serialize transaction %d", i)
		}
	}
	return nil
}

// Deserialize decodes a block written by Serialize.
func (msg *MsgBlock) Deserialize(r io.Reader) error {
	if err := msg.Header.Deserialize(r); err != nil {
		return errors.Wrap(err, "failed to deserialize header")
	}
	count, err := ReadVarInt(r)
	if err != nil {
		return errors.Wrap(err, "failed to read tx count")
	}
	msg.Transactions = make([]*MsgTx, count)
	for i := range msg.Transactions {
		tx := &MsgTx{}
		if err := tx.Deserialize(r); err != nil {
			return errors.Wrapf(err, "failed to deserialize transaction %d", i)
		}
		msg.Transactions[i] = tx
	}
	return nil
}

// BlockHash is a convenience wrapper over Header.BlockHash.
func (msg *MsgBlock) BlockHash() chainhash.Hash {
	return msg.Header.BlockHash()
}

// TxLoc describes the span within a serialized block occupied by each
// transaction; kept minimal since the out-of-scope storage engine is the
// only consumer that would need more.
type TxLoc struct {
	TxStart int
	TxLen   int
}

// CalcMerkleRoot computes the merkle root over the given transaction
// hashes using the standard Bitcoin duplicate-last-odd-leaf algorithm.
func CalcMerkleRoot(hashes []chainhash.Hash) chainhash.Hash {
	if len(hashes) == 0 {
		return chainhash.Hash{}
	}
	level := make([]chainhash.Hash, len(hashes))
	copy(level, hashes)
	for len(level) > 1 {
		if len(level)%2 != 0 {
			level = append(level, level[len(level)-1])
		}
		next := make([]chainhash.Hash, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			var buf [chainhash.HashSize * 2]byte
			copy(buf[:chainhash.HashSize], level[i][:])
			copy(buf[chainhash.HashSize:], level[i+1][:])
			next = append(next, chainhash.DoubleHashH(buf[:]))
		}
		level = next
	}
	return level[0]
}
