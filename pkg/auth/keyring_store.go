package auth

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "imgscrape"
	keyringPrefix  = "wandb_"
	keyringIndex   = "profiles"
)

// KeyringStore keeps profiles in the system keychain. Because keychains
// cannot be enumerated portably, profile names are tracked in an index entry.
type KeyringStore struct{}

// NewKeyringStore probes the keychain and returns a store if it is usable
func NewKeyringStore() (*KeyringStore, error) {
	testKey := "test_availability"
	if err := keyring.Set(keyringService, testKey, "test"); err != nil {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}
	_ = keyring.Delete(keyringService, testKey)

	return &KeyringStore{}, nil
}

// Store saves a profile to the system keychain
func (k *KeyringStore) Store(profile *Profile) error {
	if profile == nil || profile.Name == "" {
		return ErrInvalidCredentials
	}

	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	if err := keyring.Set(keyringService, keyringPrefix+profile.Name, string(data)); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}

	return k.updateIndex(func(names map[string]bool) { names[profile.Name] = true })
}

// Retrieve gets a profile from the system keychain
func (k *KeyringStore) Retrieve(name string) (*Profile, error) {
	if name == "" {
		return nil, ErrInvalidCredentials
	}

	data, err := keyring.Get(keyringService, keyringPrefix+name)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrCredentialsNotFound
		}
		return nil, fmt.Errorf("failed to retrieve from keyring: %w", err)
	}

	var profile Profile
	if err := json.Unmarshal([]byte(data), &profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}

	return &profile, nil
}

// List returns every indexed profile that is still present
func (k *KeyringStore) List() ([]*Profile, error) {
	names, err := k.index()
	if err != nil {
		return nil, err
	}

	profiles := make([]*Profile, 0, len(names))
	for name := range names {
		if p, err := k.Retrieve(name); err == nil {
			profiles = append(profiles, p)
		}
	}
	return profiles, nil
}

// Delete removes a profile from the system keychain
func (k *KeyringStore) Delete(name string) error {
	if name == "" {
		return ErrInvalidCredentials
	}

	if err := keyring.Delete(keyringService, keyringPrefix+name); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrCredentialsNotFound
		}
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}

	return k.updateIndex(func(names map[string]bool) { delete(names, name) })
}

// Exists checks if a profile exists in the keychain
func (k *KeyringStore) Exists(name string) bool {
	if name == "" {
		return false
	}
	_, err := keyring.Get(keyringService, keyringPrefix+name)
	return err == nil
}

func (k *KeyringStore) index() (map[string]bool, error) {
	names := map[string]bool{}

	data, err := keyring.Get(keyringService, keyringIndex)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return names, nil
		}
		return nil, fmt.Errorf("failed to read keyring index: %w", err)
	}

	var list []string
	if err := json.Unmarshal([]byte(data), &list); err != nil {
		return nil, fmt.Errorf("failed to parse keyring index: %w", err)
	}
	for _, n := range list {
		names[n] = true
	}
	return names, nil
}

func (k *KeyringStore) updateIndex(mutate func(map[string]bool)) error {
	names, err := k.index()
	if err != nil {
		return err
	}
	mutate(names)

	list := make([]string, 0, len(names))
	for n := range names {
		list = append(list, n)
	}
	data, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return keyring.Set(keyringService, keyringIndex, string(data))
}
