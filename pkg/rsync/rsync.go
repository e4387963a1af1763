package rsync

// BuildSignature computes the signature of a base with the default algorithms.
// A block size of 0 selects the optimal block size for the base length.
func BuildSignature(base []byte, blockSize uint64) (*Signature, error) {
	engine := NewDefaultEngine()
	defer engine.Finalize()
	return engine.Signature(base, blockSize)
}

// BuildDelta computes the delta that reconstructs target from the base
// described by signature. An invalid signature yields a *FormatError.
func BuildDelta(signature *Signature, target []byte) (*Delta, error) {
	if err := signature.EnsureValid(); err != nil {
		return nil, formatErrorf("invalid signature: %v", err)
	}
	engine := NewDefaultEngine()
	defer engine.Finalize()
	return engine.DeltafyBytes(target, signature), nil
}

// ApplyPatch reconstructs a target by applying delta to base. A delta that
// does not fit the base yields a *CorruptionError.
func ApplyPatch(base []byte, delta *Delta) ([]byte, error) {
	engine := NewDefaultEngine()
	defer engine.Finalize()
	return engine.PatchBytes(base, delta)
}
