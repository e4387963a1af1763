package hashing

import (
	"encoding/binary"
	"hash"

	"github.com/zeebo/xxh3"
)

// xxh128Size is the XXH128 digest length in bytes.
const xxh128Size = 16

// xxh128Hasher adapts xxh3.Hasher to produce 128-bit digests via hash.Hash.
type xxh128Hasher struct {
	*xxh3.Hasher
}

// newXXH128 creates a new XXH128 hasher.
func newXXH128() hash.Hash {
	return &xxh128Hasher{xxh3.New()}
}

// Size implements hash.Hash.Size.
func (h *xxh128Hasher) Size() int {
	return xxh128Size
}

// Sum implements hash.Hash.Sum. The digest is encoded big-endian with the high
// half first.
func (h *xxh128Hasher) Sum(b []byte) []byte {
	sum := h.Sum128()
	var digest [xxh128Size]byte
	binary.BigEndian.PutUint64(digest[:8], sum.Hi)
	binary.BigEndian.PutUint64(digest[8:], sum.Lo)
	return append(b, digest[:]...)
}
