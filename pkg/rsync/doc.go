// Package rsync provides an implementation of the rsync algorithm as described
// in Andrew Tridgell's thesis (https://www.samba.org/~tridge/phd_thesis.pdf)
// and the rsync technical report (https://rsync.samba.org/tech_report). A base
// is summarized by a Signature of per-block weak and strong checksums, a target
// is expressed against that signature as a Delta of copy and literal
// operations, and a Patcher reconstructs the target from the base and the
// delta. Rsync algorithmic functionality is provided by the Engine type, and
// stable serialized forms of signatures and deltas are provided by the
// encoding functions and the DeltaEncoder and DeltaDecoder types.
package rsync
