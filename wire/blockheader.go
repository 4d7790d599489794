package wire

import (
	"io"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/pkg/errors"
)

// BlockHeaderLen is the number of bytes in a serialized block header: the
// consensus-critical, exact 80-byte Bitcoin-family layout.
const BlockHeaderLen = 4 + chainhash.HashSize + chainhash.HashSize + 4 + 4 + 4

// BlockHeader is the 80-byte consensus-critical header: version, previous
// block hash, merkle root, time, bits, nonce, in that exact order.
//
// Grounded on wire/blockheader.go's BtcEncode/BtcDecode pair, collapsed from
// kaspad's multi-parent PrevBlocks []daghash.Hash into the single-PrevBlock
// layout a linear PoW chain requires.
type BlockHeader struct {
	Version    int32
	PrevBlock  chainhash.Hash
	MerkleRoot chainhash.Hash
	Timestamp  time.Time
	Bits       uint32
	Nonce      uint32
}

// BlockHash computes the block identifier: double-SHA256 of the serialized
// header.
func (h *BlockHeader) BlockHash() chainhash.Hash {
	buf := make([]byte, 0, BlockHeaderLen)
	w := &sliceWriter{buf: buf}
	// Serialize can't fail writing into a growable in-memory buffer.
	_ = writeBlockHeader(w, h)
	return chainhash.DoubleHashH(w.buf)
}

// Serialize encodes the header to w in the consensus wire format.
func (h *BlockHeader) Serialize(w io.Writer) error {
	return writeBlockHeader(w, h)
}

// Deserialize decodes a header from r.
func (h *BlockHeader) Deserialize(r io.Reader) error {
	return readBlockHeader(r, h)
}

func writeBlockHeader(w io.Writer, h *BlockHeader) error {
	if err := writeUint32(w, uint32(h.Version)); err != nil {
		return errors.Wrap(err, "failed to write version")
	}
	if _, err := w.Write(h.PrevBlock[:]); err != nil {
		return errors.Wrap(err, "failed to write prev block hash")
	}
	if _, err := w.Write(h.MerkleRoot[:]); err != nil {
		return errors.Wrap(err, "failed to write merkle root")
	}
	if err := writeUint32(w, uint32(h.Timestamp.Unix())); err != nil {
		return errors.Wrap(err, "failed to write timestamp")
	}
	if err := writeUint32(w, h.Bits); err != nil {
		return errors.Wrap(err, "failed to write bits")
	}
	if err := writeUint32(w, h.Nonce); err != nil {
		return errors.Wrap(err, "failed to write nonce")
	}
	return nil
}

func readBlockHeader(r io.Reader, h *BlockHeader) error {
	var version, sec, bits, nonce uint32
	var err error
	if version, err = readUint32(r); err != nil {
		return errors.Wrap(err, "failed to read version")
	}
	h.Version = int32(version)
	if _, err := io.ReadFull(r, h.PrevBlock[:]); err != nil {
		return errors.Wrap(err, "failed to read prev block hash")
	}
	if _, err := io.ReadFull(r, h.MerkleRoot[:]); err != nil {
		return errors.Wrap(err, "failed to read merkle root")
	}
	if sec, err = readUint32(r); err != nil {
		return errors.Wrap(err, "failed to read timestamp")
	}
	h.Timestamp = time.Unix(int64(sec), 0)
	if bits, err = readUint32(r); err != nil {
		return errors.Wrap(err, "failed to read bits")
	}
	h.Bits = bits
	if nonce, err = readUint32(r); err != nil {
		return errors.Wrap(err, "failed to read nonce")
	}
	h.Nonce = nonce
	return nil
}

type sliceWriter struct {
	buf []byte
}

func (s *sliceWriter) Write(p []byte) (int, error) {
	s.buf = append(s.buf, p...)
	return len(p), nil
}

// DoubleSHA256 is the Bitcoin-family double-SHA256 used anywhere a raw
// 32-byte digest (not a chainhash.Hash) is needed, such as witness
// commitments and the memory-hard hash placeholder.
func DoubleSHA256(b []byte) [32]byte {
	return chainhash.DoubleHashH(b)
}
