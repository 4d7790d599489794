package wire

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

func writeUint32(w io.Writer, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func readUint32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func writeUint64(w io.Writer, v uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func readUint64(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// WriteInt64 writes a fixed 8-byte little-endian signed integer, the wire
// width token-operation amounts and timestamps are serialized at.
func WriteInt64(w io.Writer, v int64) error {
	return writeUint64(w, uint64(v))
}

// ReadInt64 reads a value written by WriteInt64.
func ReadInt64(r io.Reader) (int64, error) {
	v, err := readUint64(r)
	return int64(v), err
}

// WriteByte writes a single byte, used for tag and decimals fields that
// don't warrant the var-int framing of a length-prefixed value.
func WriteByte(w io.Writer, b byte) error {
	_, err := w.Write([]byte{b})
	return err
}

// ReadByte reads a single byte written by WriteByte.
func ReadByte(r io.Reader) (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// WriteVarInt serializes v using Bitcoin's variable length integer encoding.
func WriteVarInt(w io.Writer, v uint64) error {
	switch {
	case v < 0xfd:
		_, err := w.Write([]byte{byte(v)})
		return err
	case v <= 0xffff:
		if _, err := w.Write([]byte{0xfd}); err != nil {
			return err
		}
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], uint16(v))
		_, err := w.Write(b[:])
		return err
	case v <= 0xffffffff:
		if _, err := w.Write([]byte{0xfe}); err != nil {
			return err
		}
		return writeUint32(w, uint32(v))
	default:
		if _, err := w.Write([]byte{0xff}); err != nil {
			return err
		}
		return writeUint64(w, v)
	}
}

// ReadVarInt deserializes a variable length integer encoded with WriteVarInt.
func ReadVarInt(r io.Reader) (uint64, error) {
	var prefix [1]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return 0, err
	}
	switch prefix[0] {
	case 0xfd:
		var b [2]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, err
		}
		return uint64(binary.LittleEndian.Uint16(b[:])), nil
	case 0xfe:
		v, err := readUint32(r)
		return uint64(v), err
	case 0xff:
		return readUint64(r)
	default:
		return uint64(prefix[0]), nil
	}
}

// WriteVarBytes writes a var-int length prefix followed by the bytes.
func WriteVarBytes(w io.Writer, b []byte) error {
	if err := WriteVarInt(w, uint64(len(b))); err != nil {
		return errors.Wrap(err, "failed to write length prefix")
	}
	_, err := w.Write(b)
	return err
}

// ReadVarBytes reads a var-int length prefix followed by that many bytes,
// rejecting lengths beyond maxAllowed to bound allocation from untrusted
// input.
func ReadVarBytes(r io.Reader, maxAllowed uint64, fieldName string) ([]byte, error) {
	length, err := ReadVarInt(r)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s length", fieldName)
	}
	if length > maxAllowed {
		return nil, errors.Errorf("%s length %d exceeds max allowed %d", fieldName, length, maxAllowed)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", fieldName)
	}
	return buf, nil
}

// WriteVarString writes a var-int length prefix followed by the string's
// bytes, the Go analogue of the teacher's std::string serialization helper.
func WriteVarString(w io.Writer, s string) error {
	return WriteVarBytes(w, []byte(s))
}

// ReadVarString reads a var-string written by WriteVarString.
func ReadVarString(r io.Reader, maxAllowed uint64) (string, error) {
	b, err := ReadVarBytes(r, maxAllowed, "string")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
