package configuration

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/rolldiff/rolldiff/pkg/compression"
	"github.com/rolldiff/rolldiff/pkg/hashing"
	"github.com/rolldiff/rolldiff/pkg/logging"
	"github.com/rolldiff/rolldiff/pkg/rollsum"
)

const (
	testConfigurationGibberish = "[a+1a4"
	testConfigurationValid     = `blockSize: 0
weakHash: rabinkarp
strongHash: blake2b
compression: zstd
parallelism: 4
logLevel: debug
`
	testConfigurationPartial     = "strongHash: xxh128\n"
	testConfigurationUnknown     = "blocksize: 700\n"
	testConfigurationBadHash     = "strongHash: md5\n"
	testConfigurationNegative    = "parallelism: -1\n"
	testConfigurationLargeBlocks = "blockSize: 8589934592\n"
)

// writeConfiguration writes configuration content to a temporary file.
func writeConfiguration(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "configuration.yml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal("unable to write configuration:", err)
	}
	return path
}

func TestLoadNonExistentOptional(t *testing.T) {
	if c, err := loadFromPath("/this/does/not/exist", true); err != nil {
		t.Error("load from non-existent optional path failed:", err)
	} else if diff := cmp.Diff(Default(), c); diff != "" {
		t.Error("configuration does not match defaults:", diff)
	}
}

func TestLoadNonExistentRequired(t *testing.T) {
	if _, err := Load("/this/does/not/exist"); err == nil {
		t.Error("load from non-existent explicit path succeeded")
	}
}

func TestLoadEmpty(t *testing.T) {
	if c, err := Load(writeConfiguration(t, "")); err != nil {
		t.Error("load from empty file failed:", err)
	} else if diff := cmp.Diff(Default(), c); diff != "" {
		t.Error("configuration does not match defaults:", diff)
	}
}

func TestLoadGibberish(t *testing.T) {
	if _, err := Load(writeConfiguration(t, testConfigurationGibberish)); err == nil {
		t.Error("load from gibberish file succeeded")
	}
}

func TestLoadValid(t *testing.T) {
	expected := &Configuration{
		BlockSize:   0,
		WeakHash:    rollsum.AlgorithmRabinKarp,
		StrongHash:  hashing.AlgorithmBLAKE2b256,
		Compression: compression.AlgorithmZstandard,
		Parallelism: 4,
		LogLevel:    logging.LevelDebug,
	}
	if c, err := Load(writeConfiguration(t, testConfigurationValid)); err != nil {
		t.Error("load from valid file failed:", err)
	} else if diff := cmp.Diff(expected, c); diff != "" {
		t.Error("loaded configuration incorrect:", diff)
	}
}

func TestLoadPartial(t *testing.T) {
	expected := Default()
	expected.StrongHash = hashing.AlgorithmXXH128
	if c, err := Load(writeConfiguration(t, testConfigurationPartial)); err != nil {
		t.Error("load from partial file failed:", err)
	} else if diff := cmp.Diff(expected, c); diff != "" {
		t.Error("loaded configuration incorrect:", diff)
	}
}

func TestLoadInvalid(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{"UnknownField", testConfigurationUnknown},
		{"UnknownHash", testConfigurationBadHash},
		{"NegativeParallelism", testConfigurationNegative},
		{"BlockSizeTooLarge", testConfigurationLargeBlocks},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if _, err := Load(writeConfiguration(t, testCase.content)); err == nil {
				t.Error("load of invalid configuration succeeded")
			}
		})
	}
}

func TestDefaultValid(t *testing.T) {
	if err := Default().EnsureValid(); err != nil {
		t.Error("default configuration invalid:", err)
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("HOME", "/home/rolldiff")
	if path, err := DefaultPath(); err != nil {
		t.Fatal("unable to compute default path:", err)
	} else if path != filepath.Join("/home/rolldiff", DefaultFileName) {
		t.Error("default path incorrect:", path)
	}
}

func TestSaveAndLoad(t *testing.T) {
	original := &Configuration{
		BlockSize:   4096,
		WeakHash:    rollsum.AlgorithmRabinKarp,
		StrongHash:  hashing.AlgorithmBLAKE2b256,
		Compression: compression.AlgorithmZstandard,
		Parallelism: 0,
		LogLevel:    logging.LevelTrace,
	}
	path := filepath.Join(t.TempDir(), "saved.yml")
	if err := original.Save(path, nil); err != nil {
		t.Fatal("unable to save configuration:", err)
	}
	if loaded, err := Load(path); err != nil {
		t.Fatal("unable to load saved configuration:", err)
	} else if diff := cmp.Diff(original, loaded); diff != "" {
		t.Error("loaded configuration differs from saved:", diff)
	}
}

func TestSaveInvalid(t *testing.T) {
	invalid := Default()
	invalid.Parallelism = -1
	path := filepath.Join(t.TempDir(), "saved.yml")
	if invalid.Save(path, nil) == nil {
		t.Error("invalid configuration saved")
	} else if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file created for invalid configuration")
	}
}

func TestEncode(t *testing.T) {
	buffer := &bytes.Buffer{}
	if err := Default().Encode(buffer); err != nil {
		t.Fatal("unable to encode configuration:", err)
	}
	for _, expected := range []string{"blockSize: 300", "weakHash: rollsum", "strongHash: sha1", "logLevel: info"} {
		if !bytes.Contains(buffer.Bytes(), []byte(expected)) {
			t.Errorf("encoded configuration missing %q:\n%s", expected, buffer.String())
		}
	}
}
