package encoding

import (
	"os"
	"path/filepath"
	"testing"
)

// testMessageYAML is a test structure to use for encoding tests using YAML.
type testMessageYAML struct {
	Section struct {
		Name string `yaml:"name"`
		Age  uint   `yaml:"age"`
	} `yaml:"section"`
}

const (
	// testMessageYAMLString is the YAML-encoded form of the YAML test data.
	testMessageYAMLString = `
section:
  name: "Abraham"
  age: 56
`
	// testMessageYAMLName is the YAML test name.
	testMessageYAMLName = "Abraham"
	// testMessageYAMLAge is the YAML test age.
	testMessageYAMLAge = 56
)

// writeTestFile writes contents to a file in a temporary directory.
func writeTestFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.yml")
	if err := os.WriteFile(path, []byte(contents), 0600); err != nil {
		t.Fatal("unable to write test file:", err)
	}
	return path
}

// TestLoadAndUnmarshalYAML tests that loading and unmarshaling YAML data
// succeeds.
func TestLoadAndUnmarshalYAML(t *testing.T) {
	value := &testMessageYAML{}
	if err := LoadAndUnmarshalYAML(writeTestFile(t, testMessageYAMLString), value); err != nil {
		t.Fatal("LoadAndUnmarshalYAML failed:", err)
	}

	// Verify test values.
	if value.Section.Name != testMessageYAMLName {
		t.Error("test message name mismatch:", value.Section.Name, "!=", testMessageYAMLName)
	}
	if value.Section.Age != testMessageYAMLAge {
		t.Error("test message age mismatch:", value.Section.Age, "!=", testMessageYAMLAge)
	}
}

// TestLoadAndUnmarshalYAMLUnknownField tests that unknown fields are rejected.
func TestLoadAndUnmarshalYAMLUnknownField(t *testing.T) {
	value := &testMessageYAML{}
	if LoadAndUnmarshalYAML(writeTestFile(t, "section:\n  height: 3\n"), value) == nil {
		t.Error("unknown field accepted")
	}
}

// TestLoadAndUnmarshalYAMLEmpty tests that an empty document leaves the value
// untouched.
func TestLoadAndUnmarshalYAMLEmpty(t *testing.T) {
	value := &testMessageYAML{}
	value.Section.Age = 3
	if err := LoadAndUnmarshalYAML(writeTestFile(t, ""), value); err != nil {
		t.Fatal("empty document rejected:", err)
	} else if value.Section.Age != 3 {
		t.Error("empty document modified value")
	}
}

// TestMarshalAndSaveYAML tests that saved YAML can be loaded back.
func TestMarshalAndSaveYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yml")
	original := &testMessageYAML{}
	original.Section.Name = testMessageYAMLName
	original.Section.Age = testMessageYAMLAge
	if err := MarshalAndSaveYAML(path, original, nil); err != nil {
		t.Fatal("MarshalAndSaveYAML failed:", err)
	}

	loaded := &testMessageYAML{}
	if err := LoadAndUnmarshalYAML(path, loaded); err != nil {
		t.Fatal("LoadAndUnmarshalYAML failed:", err)
	} else if *loaded != *original {
		t.Error("loaded value does not match saved value")
	}
}
