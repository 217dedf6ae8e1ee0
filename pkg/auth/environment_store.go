package auth

import (
	"os"
	"time"
)

// EnvironmentStore exposes WANDB_API_KEY as a read-only profile. It answers
// for any profile name so that CI jobs need no stored credentials.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(profile *Profile) error {
	return ErrStoreUnavailable
}

// Retrieve builds a profile from WANDB_API_KEY and WANDB_BASE_URL
func (e *EnvironmentStore) Retrieve(name string) (*Profile, error) {
	key := os.Getenv("WANDB_API_KEY")
	if key == "" {
		return nil, ErrCredentialsNotFound
	}
	if name == "" {
		name = DefaultProfile
	}

	return &Profile{
		Name:   name,
		APIKey: key,
		Host:   os.Getenv("WANDB_BASE_URL"),
		// Zero time so any stored profile of the same name is preferred by List
		LastModified: time.Time{},
	}, nil
}

// List returns the environment profile when the key is set
func (e *EnvironmentStore) List() ([]*Profile, error) {
	profile, err := e.Retrieve("env")
	if err != nil {
		return []*Profile{}, nil
	}
	return []*Profile{profile}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

// Exists checks if the environment key is set
func (e *EnvironmentStore) Exists(name string) bool {
	return os.Getenv("WANDB_API_KEY") != ""
}
