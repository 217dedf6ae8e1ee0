package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"
)

// DefaultProfile is used when no profile name is given
const DefaultProfile = "default"

// Profile holds the experiment-tracking credentials for one named profile
type Profile struct {
	Name         string    `json:"name"`
	APIKey       string    `json:"api_key"`
	Host         string    `json:"host,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// CredentialStore is the interface for storing and retrieving profiles
type CredentialStore interface {
	// Store saves a profile
	Store(profile *Profile) error

	// Retrieve gets the profile with the given name
	Retrieve(name string) (*Profile, error)

	// List returns all stored profiles
	List() ([]*Profile, error)

	// Delete removes a profile
	Delete(name string) error

	// Exists checks if a profile is stored
	Exists(name string) bool
}

// Manager tries its stores in order: keyring, encrypted file, environment
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a credential manager with the platform stores
func NewManager() (*Manager, error) {
	var stores []CredentialStore

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := ConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"), "")
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores builds a manager over explicit stores
func NewManagerWithStores(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves the profile in the first store that accepts it
func (m *Manager) Store(profile *Profile) error {
	if profile == nil {
		return ErrInvalidCredentials
	}
	if profile.Name == "" {
		profile.Name = DefaultProfile
	}
	profile.APIKey = strings.TrimSpace(profile.APIKey)
	if profile.APIKey == "" {
		return errors.New("API key is required")
	}

	profile.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		err := store.Store(profile)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return ErrStoreUnavailable
}

// Retrieve gets the profile from the first store that has it
func (m *Manager) Retrieve(name string) (*Profile, error) {
	if name == "" {
		name = DefaultProfile
	}
	for _, store := range m.stores {
		if profile, err := store.Retrieve(name); err == nil && profile != nil {
			return profile, nil
		}
	}
	return nil, fmt.Errorf("%w for profile: %s", ErrCredentialsNotFound, name)
}

// APIKey resolves the API key for a profile
func (m *Manager) APIKey(name string) (string, error) {
	profile, err := m.Retrieve(name)
	if err != nil {
		return "", err
	}
	return profile.APIKey, nil
}

// List returns the stored profiles, newest version of each, sorted by name
func (m *Manager) List() ([]*Profile, error) {
	byName := make(map[string]*Profile)

	for _, store := range m.stores {
		profiles, err := store.List()
		if err != nil {
			continue
		}
		for _, p := range profiles {
			if existing, ok := byName[p.Name]; !ok || p.LastModified.After(existing.LastModified) {
				byName[p.Name] = p
			}
		}
	}

	result := make([]*Profile, 0, len(byName))
	for _, p := range byName {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })

	return result, nil
}

// Delete removes the profile from every store that holds it
func (m *Manager) Delete(name string) error {
	if name == "" {
		name = DefaultProfile
	}

	var deleted bool
	var lastErr error
	for _, store := range m.stores {
		err := store.Delete(name)
		switch {
		case err == nil:
			deleted = true
		case errors.Is(err, ErrCredentialsNotFound), errors.Is(err, ErrStoreUnavailable):
		default:
			lastErr = err
		}
	}

	if !deleted && lastErr != nil {
		return fmt.Errorf("failed to delete credentials: %w", lastErr)
	}
	if !deleted {
		return fmt.Errorf("%w for profile: %s", ErrCredentialsNotFound, name)
	}

	return nil
}

// ConfigDir returns (and creates) the per-user imgscrape directory
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "imgscrape")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "imgscrape")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "imgscrape")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "imgscrape")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// SanitizeProfile returns a copy with the API key masked
func SanitizeProfile(profile *Profile) *Profile {
	if profile == nil {
		return nil
	}
	masked := *profile
	masked.APIKey = maskString(profile.APIKey)
	return &masked
}

// maskString masks all but the first 4 and last 4 characters of a string
func maskString(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
