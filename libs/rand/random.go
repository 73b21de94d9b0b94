package rand

import (
	crand "crypto/rand"
	"encoding/binary"
	mrand "math/rand"
)

// NewRand returns a prng seeded with OS randomness. The returned Rand is not
// safe for concurrent use.
func NewRand() *mrand.Rand {
	var seed int64
	if err := binary.Read(crand.Reader, binary.BigEndian, &seed); err != nil {
		panic(err)
	}
	return mrand.New(mrand.NewSource(seed))
}

// Bytes returns n random bytes from a freshly seeded prng.
func Bytes(n int) []byte {
	bs := make([]byte, n)
	NewRand().Read(bs)
	return bs
}
