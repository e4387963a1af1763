package rollsum

const (
	// rollsumModulusBits is the width of each rollsum component.
	rollsumModulusBits = 16
	// rollsumMask reduces a component modulo 2^16.
	rollsumMask = 1<<rollsumModulusBits - 1
)

// rollsum implements the weak checksum described in the rsync technical
// report. For a window b_0..b_{L-1}, r1 is the sum of the bytes and r2 is the
// sum of (L-i)*b_i, both modulo 2^16, and the checksum is r1 | r2<<16.
type rollsum struct {
	// r1 and r2 are the unreduced checksum components. Arithmetic wraps modulo
	// 2^32, which preserves their values modulo 2^16.
	r1, r2 uint32
	// length is the window length.
	length uint32
}

// Reset implements Hasher.Reset.
func (r *rollsum) Reset(window []byte) uint32 {
	r.length = uint32(len(window))
	r.r1, r.r2 = 0, 0
	for i, b := range window {
		r.r1 += uint32(b)
		r.r2 += (r.length - uint32(i)) * uint32(b)
	}
	return r.Sum()
}

// Roll implements Hasher.Roll.
func (r *rollsum) Roll(out, in byte) uint32 {
	r.r1 = r.r1 - uint32(out) + uint32(in)
	r.r2 = r.r2 - r.length*uint32(out) + r.r1
	return r.Sum()
}

// Sum implements Hasher.Sum.
func (r *rollsum) Sum() uint32 {
	return (r.r1 & rollsumMask) | (r.r2&rollsumMask)<<rollsumModulusBits
}
