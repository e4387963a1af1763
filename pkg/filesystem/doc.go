// Package filesystem provides the atomic file writing and path facilities used
// for rolldiff's outputs and configuration.
package filesystem
