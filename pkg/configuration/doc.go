// Package configuration provides loading facilities for rolldiff's YAML
// configuration file. The file supplies defaults for engine parameters and
// logging, which command line flags may then override.
package configuration
