package mapping

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CurrentVersion is the document format version written by default.
const CurrentVersion = "1"

// LoadFile loads and parses a map document from the given path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read map file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses YAML or JSON data into a File.
func Parse(data []byte) (*File, error) {
	var mf File

	err := yaml.Unmarshal(data, &mf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse map document: %w", err)
	}

	// Apply defaults and normalize
	applyDefaults(&mf)

	return &mf, nil
}

// applyDefaults fills in default values for optional fields.
func applyDefaults(mf *File) {
	if mf.Version == "" {
		mf.Version = CurrentVersion
	}

	for i := range mf.Map.Headers {
		fm := &mf.Map.Headers[i].Mapping
		if len(fm.HeaderPath) == 0 {
			// A bad id is reported by Validate; leave the path empty then.
			if keys, err := ParseAddress(mf.Map.Headers[i].ID); err == nil {
				fm.HeaderPath = keys
			}
		}

		for j := range fm.ChoiceMap {
			if fm.ChoiceMap[j].ValueType == "" {
				fm.ChoiceMap[j].ValueType = string(AnswerCoding)
			}
		}
	}

	for i := range mf.Map.Constants {
		if mf.Map.Constants[i].Field.ValueType == "" {
			mf.Map.Constants[i].Field.ValueType = string(AnswerString)
		}
	}
}

// Marshal serializes a File to YAML.
func Marshal(mf *File) ([]byte, error) {
	return yaml.Marshal(mf)
}

// Fingerprint returns a stable content hash of the raw document bytes.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
