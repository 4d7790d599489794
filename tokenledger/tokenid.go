package tokenledger

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strings"
)

// tokenIDLength, tokenIDPrefix and tokenIDSuffix define a token id's shape:
// "0x" + 54 hex chars + "tok", 59 bytes total.
//
// Grounded on original_source/src/wallet/token.cpp's IsValidTokenId.
const (
	tokenIDLength = 59
	tokenIDPrefix = "0x"
	tokenIDSuffix = "tok"
	tokenIDHexLen = 54
)

// IsValidTokenID reports whether token has the shape a generated token id
// always has.
func IsValidTokenID(token string) bool {
	if len(token) != tokenIDLength {
		return false
	}
	if !strings.HasPrefix(token, tokenIDPrefix) || !strings.HasSuffix(token, tokenIDSuffix) {
		return false
	}
	hexPart := token[len(tokenIDPrefix) : len(token)-len(tokenIDSuffix)]
	_, err := hex.DecodeString(hexPart)
	return err == nil
}

// GenerateTokenID derives a token id from its creator and name, trying
// successive extra-nonce values until existsFn reports no collision.
//
// Grounded on original_source/src/wallet/token.cpp's GenerateTokenId.
func GenerateTokenID(creator, name string, existsFn func(token string) bool) string {
	for extraNonce := int64(0); ; extraNonce++ {
		h := sha256.New()
		h.Write([]byte(creator))
		h.Write([]byte(name))
		var nonceBytes [8]byte
		binary.LittleEndian.PutUint64(nonceBytes[:], uint64(extraNonce))
		h.Write(nonceBytes[:])

		digest := h.Sum(nil)
		token := tokenIDPrefix + hex.EncodeToString(digest)[:tokenIDHexLen] + tokenIDSuffix
		if existsFn == nil || !existsFn(token) {
			return token
		}
	}
}
