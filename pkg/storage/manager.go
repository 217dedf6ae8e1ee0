package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// DefaultPrefix is used when no file prefix is configured
const DefaultPrefix = "image"

// Manager owns the output directory and the sequential image file names
type Manager struct {
	outputDir string
	prefix    string
	saved     map[int]string
	mu        sync.RWMutex
}

// NewManager creates the output directory if needed and returns a manager
// for it. Calling it for an existing directory is not an error.
func NewManager(outputDir, prefix string) (*Manager, error) {
	if prefix == "" {
		prefix = DefaultPrefix
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Manager{
		outputDir: outputDir,
		prefix:    prefix,
		saved:     make(map[int]string),
	}, nil
}

// FileName returns the zero-padded file name for index, e.g. image_0007.jpg
func (m *Manager) FileName(index int) string {
	return fmt.Sprintf("%s_%04d.jpg", m.prefix, index)
}

// Path returns the full path for index
func (m *Manager) Path(index int) string {
	return filepath.Join(m.outputDir, m.FileName(index))
}

// SaveImage writes r to the file for index through a temporary file and a
// rename, so a failed write never leaves a partial image behind. An existing
// file with the same name is replaced.
func (m *Manager) SaveImage(index int, r io.Reader) (string, int64, error) {
	filename := m.Path(index)

	out, err := os.CreateTemp(m.outputDir, "."+m.FileName(index)+".*.tmp")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create temporary file: %w", err)
	}
	tempFile := out.Name()

	n, err := io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return "", 0, fmt.Errorf("failed to write image data: %w", err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return "", 0, fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Chmod(tempFile, 0644); err != nil {
		os.Remove(tempFile)
		return "", 0, fmt.Errorf("failed to set file mode: %w", err)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return "", 0, fmt.Errorf("failed to rename temporary file: %w", err)
	}

	m.mu.Lock()
	m.saved[index] = filename
	m.mu.Unlock()

	return filename, n, nil
}

// IsSaved reports whether this manager wrote the image for index
func (m *Manager) IsSaved(index int) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.saved[index]
	return ok
}

// SavedCount returns how many images this manager has written
func (m *Manager) SavedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.saved)
}

// ListImages returns the prefixed JPEG files currently in the output
// directory, sorted by name. Files from earlier runs are included.
func (m *Manager) ListImages() ([]string, error) {
	entries, err := os.ReadDir(m.outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, m.prefix+"_") || filepath.Ext(name) != ".jpg" {
			continue
		}
		files = append(files, filepath.Join(m.outputDir, name))
	}
	sort.Strings(files)
	return files, nil
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}
