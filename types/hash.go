package types

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	sha256 "github.com/minio/sha256-simd"
)

// HashSize is the size in bytes of a block hash.
const HashSize = sha256.Size

// Hash is a block hash.
type Hash [HashSize]byte

// ZeroHash is used where no hash is known yet.
var ZeroHash Hash

// HashFromBytes converts bz into a Hash, failing unless it is exactly
// HashSize bytes long.
func HashFromBytes(bz []byte) (Hash, error) {
	var h Hash
	if len(bz) != HashSize {
		return h, fmt.Errorf("invalid hash length: expected %d, got %d", HashSize, len(bz))
	}
	copy(h[:], bz)
	return h, nil
}

// Sum256 hashes data.
func Sum256(data ...[]byte) Hash {
	hasher := sha256.New()
	for _, d := range data {
		hasher.Write(d)
	}
	var h Hash
	copy(h[:], hasher.Sum(nil))
	return h
}

// Bytes returns a copy of the hash as a byte slice.
func (h Hash) Bytes() []byte {
	bz := make([]byte, HashSize)
	copy(bz, h[:])
	return bz
}

// IsZero reports whether h is the zero hash.
func (h Hash) IsZero() bool { return h == ZeroHash }

// Equal compares h with raw hash bytes.
func (h Hash) Equal(bz []byte) bool { return bytes.Equal(h[:], bz) }

func (h Hash) String() string {
	return strings.ToUpper(hex.EncodeToString(h[:]))
}

// ShortString returns the first 6 bytes of the hash, for logging.
func (h Hash) ShortString() string {
	return strings.ToUpper(hex.EncodeToString(h[:6]))
}
