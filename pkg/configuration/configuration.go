package configuration

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/rolldiff/rolldiff/pkg/compression"
	"github.com/rolldiff/rolldiff/pkg/encoding"
	"github.com/rolldiff/rolldiff/pkg/filesystem"
	"github.com/rolldiff/rolldiff/pkg/hashing"
	"github.com/rolldiff/rolldiff/pkg/logging"
	"github.com/rolldiff/rolldiff/pkg/rollsum"
	"github.com/rolldiff/rolldiff/pkg/rsync"
)

const (
	// DefaultFileName is the name of the configuration file within the user's
	// home directory.
	DefaultFileName = ".rolldiff.yml"
)

// Configuration represents the rolldiff configuration file.
type Configuration struct {
	// BlockSize is the signature block size. A value of 0 indicates that the
	// block size should be derived from the base length.
	BlockSize uint64 `yaml:"blockSize"`
	// WeakHash is the rolling checksum algorithm used for new signatures.
	WeakHash rollsum.Algorithm `yaml:"weakHash"`
	// StrongHash is the strong hashing algorithm used for new signatures.
	StrongHash hashing.Algorithm `yaml:"strongHash"`
	// Compression is the body compression used for new artifacts.
	Compression compression.Algorithm `yaml:"compression"`
	// Parallelism is the number of workers used for signature hashing. A
	// value of 1 indicates sequential hashing and a value of 0 indicates one
	// worker per CPU.
	Parallelism int `yaml:"parallelism"`
	// LogLevel is the log level.
	LogLevel logging.Level `yaml:"logLevel"`
}

// Default returns a configuration populated with default values.
func Default() *Configuration {
	return &Configuration{
		BlockSize:   rsync.DefaultBlockSize,
		WeakHash:    rollsum.AlgorithmRollsum,
		StrongHash:  hashing.AlgorithmSHA1,
		Compression: compression.AlgorithmNone,
		Parallelism: 1,
		LogLevel:    logging.LevelInfo,
	}
}

// EnsureValid ensures that the configuration's invariants are respected.
func (c *Configuration) EnsureValid() error {
	if c.BlockSize > rsync.MaximumBlockSize {
		return errors.New("block size too large")
	} else if !c.WeakHash.Supported() {
		return errors.New("unsupported weak hash algorithm")
	} else if !c.StrongHash.Supported() {
		return errors.New("unsupported strong hash algorithm")
	} else if !c.Compression.Supported() {
		return errors.New("unsupported compression algorithm")
	} else if c.Parallelism < 0 {
		return errors.New("negative parallelism")
	}
	return nil
}

// DefaultPath returns the default configuration file path.
func DefaultPath() (string, error) {
	home, err := filesystem.HomeDirectory()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DefaultFileName), nil
}

// loadFromPath is the internal loading function. If optional is true, then a
// non-existent file yields the default configuration.
func loadFromPath(path string, optional bool) (*Configuration, error) {
	// Defaults are set before decoding because absent fields are left
	// untouched.
	result := Default()

	// Attempt to load the configuration from disk.
	if err := encoding.LoadAndUnmarshalYAML(path, result); err != nil {
		if !os.IsNotExist(err) {
			return nil, errors.Wrap(err, "unable to load configuration")
		} else if !optional {
			return nil, errors.Errorf("configuration file (%s) does not exist", path)
		}
	}

	// Validate the result.
	if err := result.EnsureValid(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	// Success.
	return result, nil
}

// Load loads the configuration file at the specified path. If path is empty,
// the default path is used and a missing file yields default values. An
// explicitly specified file must exist.
func Load(path string) (*Configuration, error) {
	if path != "" {
		return loadFromPath(path, false)
	}
	path, err := DefaultPath()
	if err != nil {
		return Default(), nil
	}
	return loadFromPath(path, true)
}

// Encode writes the configuration to writer in its file format.
func (c *Configuration) Encode(writer io.Writer) error {
	encoder := yaml.NewEncoder(writer)
	if err := encoder.Encode(c); err != nil {
		return errors.Wrap(err, "unable to encode configuration")
	}
	return encoder.Close()
}

// Save atomically writes the configuration to the specified path so that it
// can later be loaded with Load.
func (c *Configuration) Save(path string, logger *logging.Logger) error {
	if err := c.EnsureValid(); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	return encoding.MarshalAndSaveYAML(path, c, logger)
}
