package wire

import (
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/pkg/errors"
)

// MaxTxInSequenceNum is the maximum sequence number a transaction input can
// carry; used by the null-previous-output coinbase convention.
const MaxTxInSequenceNum uint32 = 0xffffffff

// OutPoint defines a data type used to track previous transaction outputs.
type OutPoint struct {
	Hash  chainhash.Hash
	Index uint32
}

// IsNull returns whether the outpoint refers to nothing, the coinbase
// convention (all-zero hash, max-uint32 index).
func (o OutPoint) IsNull() bool {
	return o.Index == 0xffffffff && o.Hash == chainhash.Hash{}
}

// TxIn defines a transaction input.
type TxIn struct {
	PreviousOutPoint OutPoint
	SignatureScript  []byte
	Sequence         uint32
	Witness          [][]byte
}

// TxOut defines a transaction output.
type TxOut struct {
	Value    int64
	PkScript []byte
}

// MsgTx implements a Bitcoin-family transaction: inputs, outputs, and an
// optional per-input witness stack.
//
// Grounded on wire/msgtx_test.go's round-trip expectations (the retrieval
// pack ships the test but not the implementation file).
type MsgTx struct {
	Version  int32
	TxIn     []*TxIn
	TxOut    []*TxOut
	LockTime uint32
}

// HasWitness reports whether any input carries witness data.
func (msg *MsgTx) HasWitness() bool {
	for _, txIn := range msg.TxIn {
		if len(txIn.Witness) > 0 {
			return true
		}
	}
	return false
}

// IsCoinBase determines whether the transaction is a coinbase: exactly one
// input with a null previous outpoint.
func (msg *MsgTx) IsCoinBase() bool {
	return len(msg.TxIn) == 1 && msg.TxIn[0].PreviousOutPoint.IsNull()
}

// SerializeSize returns the number of bytes it would take to serialize the
// transaction, including witness data when present.
func (msg *MsgTx) SerializeSize() int {
	buf := &sliceWriter{}
	_ = msg.Serialize(buf)
	return len(buf.buf)
}

// Weight returns the transaction weight: 3*base size + total size (the
// SegWit discount), as consumed by the package-selection accounting.
func (msg *MsgTx) Weight() int64 {
	withWitness := msg.SerializeSize()
	baseOnly := msg.baseSerializeSize()
	return int64(3*baseOnly + withWitness)
}

func (msg *MsgTx) baseSerializeSize() int {
	buf := &sliceWriter{}
	_ = writeTx(buf, msg, false)
	return len(buf.buf)
}

// TxHash computes the transaction identifier: double-SHA256 of the
// non-witness serialization (the consensus txid, unaffected by malleable
// witness data).
func (msg *MsgTx) TxHash() chainhash.Hash {
	buf := &sliceWriter{}
	_ = writeTx(buf, msg, false)
	return chainhash.DoubleHashH(buf.buf)
}

// Serialize encodes the transaction, including witness data when present.
func (msg *MsgTx) Serialize(w io.Writer) error {
	return writeTx(w, msg, msg.HasWitness())
}

// Deserialize decodes a transaction, detecting the witness marker the way
// BIP144 specifies.
func (msg *MsgTx) Deserialize(r io.Reader) error {
	return readTx(r, msg)
}

func writeTx(w io.Writer, msg *MsgTx, withWitness bool) error {
	if err := writeUint32(w, uint32(msg.Version)); err != nil {
		return errors.Wrap(err, "failed to write version")
	}
	if withWitness {
		// BIP144 marker + flag.
		if _, err := w.Write([]byte{0x00, 0x01}); err != nil {
			return errors.Wrap(err, "failed to write witness marker")
		}
	}
	if err := WriteVarInt(w, uint64(len(msg.TxIn))); err != nil {
		return errors.Wrap(err, "failed to write txin count")
	}
	for _, txIn := range msg.TxIn {
		if _, err := w.Write(txIn.PreviousOutPoint.Hash[:]); err != nil {
			return errors.Wrap(err, "failed to write outpoint hash")
		}
		if err := writeUint32(w, txIn.PreviousOutPoint.Index); err != nil {
			return errors.Wrap(err, "failed to write outpoint index")
		}
		if err := WriteVarBytes(w, txIn.SignatureScript); err != nil {
			return errors.Wrap(err, "failed to write signature script")
		}
		if err := writeUint32(w, txIn.Sequence); err != nil {
			return errors.Wrap(err, "failed to write sequence")
		}
	}
	if err := WriteVarInt(w, uint64(len(msg.TxOut))); err != nil {
		return errors.Wrap(err, "failed to write txout count")
	}
	for _, txOut := range msg.TxOut {
		if err := writeUint64(w, uint64(txOut.Value)); err != nil {
			return errors.Wrap(err, "failed to write value")
		}
		if err := WriteVarBytes(w, txOut.PkScript); err != nil {
			return errors.Wrap(err, "failed to write pk script")
		}
	}
	if withWitness {
		for _, txIn := range msg.TxIn {
			if err := WriteVarInt(w, uint64(len(txIn.Witness))); err != nil {
				return errors.Wrap(err, "failed to write witness stack count")
			}
			for _, item := range txIn.Witness {
				if err := WriteVarBytes(w, item); err != nil {
					return errors.Wrap(err, "failed to write witness item")
				}
			}
		}
	}
	return writeUint32(w, msg.LockTime)
}

const maxAllowedScript = 4_000_000

func readTx(r io.Reader, msg *MsgTx) error {
	version, err := readUint32(r)
	if err != nil {
		return errors.Wrap(err, "failed to read version")
	}
	msg.Version = int32(version)

	count, err := ReadVarInt(r)
	if err != nil {
		return errors.Wrap(err, "failed to read txin count")
	}

	withWitness := false
	if count == 0 {
		// BIP144 marker: a zero-length txin vector is never valid, so a
		// zero count signals a flag byte follows.
		var flag [1]byte
		if _, err := io.ReadFull(r, flag[:]); err != nil {
			return errors.Wrap(err, "failed to read witness flag")
		}
		withWitness = flag[0] != 0
		count, err = ReadVarInt(r)
		if err != nil {
			return errors.Wrap(err, "failed to read txin count after witness flag")
		}
	}

	msg.TxIn = make([]*TxIn, count)
	for i := range msg.TxIn {
		txIn := &TxIn{}
		if _, err := io.ReadFull(r, txIn.PreviousOutPoint.Hash[:]); err != nil {
			return errors.Wrap(err, "failed to read outpoint hash")
		}
		if txIn.PreviousOutPoint.Index, err = readUint32(r); err != nil {
			return errors.Wrap(err, "failed to read outpoint index")
		}
		if txIn.SignatureScript, err = ReadVarBytes(r, maxAllowedScript, "signature script"); err != nil {
			return err
		}
		if txIn.Sequence, err = readUint32(r); err != nil {
			return errors.Wrap(err, "failed to read sequence")
		}
		msg.TxIn[i] = txIn
	}

	outCount, err := ReadVarInt(r)
	if err != nil {
		return errors.Wrap(err, "failed to read txout count")
	}
	msg.TxOut = make([]*TxOut, outCount)
	for i := range msg.TxOut {
		txOut := &TxOut{}
		value, err := readUint64(r)
		if err != nil {
			return errors.Wrap(err, "failed to read value")
		}
		txOut.Value = int64(value)
		if txOut.PkScript, err = ReadVarBytes(r, maxAllowedScript, "pk script"); err != nil {
			return err
		}
		msg.TxOut[i] = txOut
	}

	if withWitness {
		for _, txIn := range msg.TxIn {
			stackLen, err := ReadVarInt(r)
			if err != nil {
				return errors.Wrap(err, "failed to read witness stack count")
			}
			txIn.Witness = make([][]byte, stackLen)
			for i := range txIn.Witness {
				if txIn.Witness[i], err = ReadVarBytes(r, maxAllowedScript, "witness item"); err != nil {
					return err
				}
			}
		}
	}

	if msg.LockTime, err = readUint32(r); err != nil {
		return errors.Wrap(err, "failed to read lock time")
	}
	return nil
}
