package publish

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// ManifestName is the file written next to a published version
const ManifestName = "manifest.json"

// Manifest describes one published artifact version
type Manifest struct {
	RunID      string      `json:"run_id"`
	Project    string      `json:"project"`
	Name       string      `json:"name"`
	Version    string      `json:"version"`
	Type       string      `json:"type"`
	JobType    string      `json:"job_type"`
	CreatedAt  time.Time   `json:"created_at"`
	TotalBytes int64       `json:"total_bytes"`
	Files      []FileEntry `json:"files"`
}

// FileEntry is one file of an artifact
type FileEntry struct {
	Name   string `json:"name"`
	Size   int64  `json:"size"`
	SHA256 string `json:"sha256"`
}

// hashFile returns the size and hex SHA-256 of path
func hashFile(path string) (int64, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, "", err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return 0, "", err
	}
	return n, hex.EncodeToString(h.Sum(nil)), nil
}

// Save writes the manifest into dir
func (m *Manifest) Save(dir string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, ManifestName), data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest file: %w", err)
	}

	return nil
}

// LoadManifest reads the manifest of a published version directory
func LoadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}

	return &m, nil
}

// Verify checks every listed file in dir against its recorded size and hash
func (m *Manifest) Verify(dir string) error {
	for _, f := range m.Files {
		size, sum, err := hashFile(filepath.Join(dir, f.Name))
		if err != nil {
			return fmt.Errorf("%s: %w", f.Name, err)
		}
		if size != f.Size || sum != f.SHA256 {
			return fmt.Errorf("%s: content does not match manifest", f.Name)
		}
	}
	return nil
}
