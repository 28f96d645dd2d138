package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const MetadataFilename = "metadata.json"

// LegacyChecksumUnavailable marks an artifact whose legacy checksum could not
// be computed. Its absence degrades display, never validity.
const LegacyChecksumUnavailable = "unavailable"

// Metadata records one completed backup. Written once at backup completion
// and immutable afterwards.
type Metadata struct {
	CompletedAt time.Time `json:"completed_at"`
	Environment string    `json:"environment"`
	Host        string    `json:"host"`
	Database    string    `json:"database"`
	DumpPath    string    `json:"dump_path"`
	SizeBytes   int64     `json:"size_bytes"`
	SHA256      string    `json:"sha256"`
	MD5         string    `json:"md5"`
	LogPath     string    `json:"log_path"`
}

// Load reads a metadata file into m.
func (m *Metadata) Load(filePath string) error {
	jsonFile, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open metadata file %q: %w", filePath, err)
	}
	defer jsonFile.Close()

	decoder := json.NewDecoder(jsonFile)
	if err := decoder.Decode(m); err != nil {
		return fmt.Errorf("decode metadata JSON: %w", err)
	}
	return nil
}

// Write creates the metadata file inside dirPath. The record is write-once:
// an existing file is an error, not overwritten.
func (m *Metadata) Write(dirPath string) error {
	filePath := filepath.Join(dirPath, MetadataFilename)

	jsonFile, err := os.OpenFile(filePath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create metadata file %q: %w", filePath, err)
	}
	defer jsonFile.Close()

	encoder := json.NewEncoder(jsonFile)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(m); err != nil {
		return fmt.Errorf("encode metadata JSON: %w", err)
	}
	return nil
}
