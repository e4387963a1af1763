package rollsum

const (
	// rabinKarpBase is the polynomial base.
	rabinKarpBase = 257
	// rabinKarpModulus is the prime modulus. Products of two residues fit in a
	// uint64.
	rabinKarpModulus = 1_000_000_007
)

// rabinKarp implements a polynomial checksum h = Σ b_i * B^(L-1-i) mod P.
type rabinKarp struct {
	// hash is the current checksum.
	hash uint64
	// power is B^(L-1) mod P for the current window length L.
	power uint64
}

// Reset implements Hasher.Reset.
func (r *rabinKarp) Reset(window []byte) uint32 {
	r.hash = 0
	r.power = 1
	for i, b := range window {
		r.hash = (r.hash*rabinKarpBase + uint64(b)) % rabinKarpModulus
		if i > 0 {
			r.power = r.power * rabinKarpBase % rabinKarpModulus
		}
	}
	return r.Sum()
}

// Roll implements Hasher.Roll.
func (r *rabinKarp) Roll(out, in byte) uint32 {
	// Remove the outgoing byte's contribution, adding the modulus to stay
	// non-negative.
	removed := (r.hash + rabinKarpModulus - uint64(out)*r.power%rabinKarpModulus) % rabinKarpModulus
	r.hash = (removed*rabinKarpBase + uint64(in)) % rabinKarpModulus
	return r.Sum()
}

// Sum implements Hasher.Sum.
func (r *rabinKarp) Sum() uint32 {
	return uint32(r.hash)
}
