package rsync

// candidateIndex maps weak checksums to the indices of full-length base blocks
// with that checksum. Each index list is in ascending order, so the first
// confirmed candidate is always the lowest matching block.
type candidateIndex map[uint32][]uint64

// newCandidateIndex builds a candidate index for a signature. A short final
// block is excluded because it can never match a full-length window.
//
// The rsync technical report describes an additional 16-bit hash layer before
// the weak hash, but a map lookup is already cheap enough.
func newCandidateIndex(signature *Signature) candidateIndex {
	hashes := signature.Hashes
	if signature.hasShortLastBlock() {
		hashes = hashes[:len(hashes)-1]
	}
	index := make(candidateIndex, len(hashes))
	for i, h := range hashes {
		index[h.Weak] = append(index[h.Weak], uint64(i))
	}
	return index
}
