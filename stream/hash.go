package stream

import (
	"crypto/sha256"
	"encoding/hex"
	"hash/crc32"

	"github.com/Neumenon/tdb/tdb"
)

// crcTable is the IEEE CRC-32 table.
var crcTable = crc32.MakeTable(crc32.IEEE)

// ComputeCRC computes CRC-32 IEEE of the given bytes.
func ComputeCRC(data []byte) uint32 {
	return crc32.Checksum(data, crcTable)
}

// VerifyCRC verifies that the CRC matches.
func VerifyCRC(data []byte, expected uint32) bool {
	return ComputeCRC(data) == expected
}

// StateHash computes sha256 of db's canonical text at the given precision.
// Two databases hash equal exactly when they write identically.
func StateHash(db *tdb.Database, decimals int) ([32]byte, error) {
	text, err := tdb.Write(db, decimals)
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256([]byte(text)), nil
}

// StateHashBytes computes SHA-256 of raw canonical bytes.
func StateHashBytes(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// VerifyBase checks if the current state hash matches the expected base.
func VerifyBase(current, expected [32]byte) bool {
	return current == expected
}

// HashToHex converts a 32-byte hash to lowercase hex string.
func HashToHex(h [32]byte) string {
	return hex.EncodeToString(h[:])
}

// HexToHash parses a 64-character hex string to a 32-byte hash.
func HexToHash(s string) ([32]byte, bool) {
	var h [32]byte
	if len(s) != 64 {
		return h, false
	}
	if _, err := hex.Decode(h[:], []byte(s)); err != nil {
		return h, false
	}
	return h, true
}
