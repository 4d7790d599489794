package wire

import "math/big"

// CompactToBig converts a compact representation of a 256-bit unsigned
// integer, as used for the proof-of-work target bits field, to a *big.Int.
//
// The compact format is a representation of a whole number N using an
// unsigned 32-bit number similar to a floating point format. The most
// significant 8 bits represent the unsigned base-256 exponent. The lower
// 23 bits represent the mantissa. Bit 24 represents the sign bit.
//
//	N = (-1^sign) * mantissa * 256^(exponent-3)
//
// Grounded on the compact-target walk in blockdag/difficulty.go, which
// calls this helper without shipping its definition — reimplemented here
// following the standard Bitcoin encoding since it is not itself consensus
// logic, just a big.Int serialization convention.
func CompactToBig(compact uint32) *big.Int {
	mantissa := compact & 0x007fffff
	isNegative := compact&0x00800000 != 0
	exponent := uint(compact >> 24)

	var bn *big.Int
	if exponent <= 3 {
		mantissa >>= 8 * (3 - exponent)
		bn = big.NewInt(int64(mantissa))
	} else {
		bn = big.NewInt(int64(mantissa))
		bn.Lsh(bn, 8*(exponent-3))
	}

	if isNegative {
		bn = bn.Neg(bn)
	}
	return bn
}

// BigToCompact converts a whole number N to a compact representation using
// an unsigned 32-bit number. See CompactToBig for details.
func BigToCompact(n *big.Int) uint32 {
	if n.Sign() == 0 {
		return 0
	}

	var mantissa uint32
	exponent := uint(len(n.Bytes()))

	if exponent <= 3 {
		mantissa = uint32(n.Bits()[0])
		mantissa <<= 8 * (3 - exponent)
	} else {
		tn := new(big.Int).Set(n)
		mantissa = uint32(tn.Rsh(tn, 8*(exponent-3)).Bits()[0])
	}

	if mantissa&0x00800000 != 0 {
		mantissa >>= 8
		exponent++
	}

	compact := uint32(exponent<<24) | mantissa
	if n.Sign() < 0 {
		compact |= 0x00800000
	}
	return compact
}
