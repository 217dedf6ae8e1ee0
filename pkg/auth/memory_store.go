package auth

import "sync"

// MemoryStore keeps profiles in process memory
type MemoryStore struct {
	profiles map[string]Profile
	mu       sync.RWMutex

	// Error injection for testing
	StoreError    error
	RetrieveError error
	ListError     error
	DeleteError   error
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[string]Profile)}
}

// Store saves a copy of the profile
func (m *MemoryStore) Store(profile *Profile) error {
	if m.StoreError != nil {
		return m.StoreError
	}
	if profile == nil || profile.Name == "" {
		return ErrInvalidCredentials
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[profile.Name] = *profile
	return nil
}

// Retrieve returns a copy of the named profile
func (m *MemoryStore) Retrieve(name string) (*Profile, error) {
	if m.RetrieveError != nil {
		return nil, m.RetrieveError
	}
	if name == "" {
		return nil, ErrInvalidCredentials
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[name]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return &p, nil
}

// List returns copies of all profiles
func (m *MemoryStore) List() ([]*Profile, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	profiles := make([]*Profile, 0, len(m.profiles))
	for _, p := range m.profiles {
		p := p
		profiles = append(profiles, &p)
	}
	return profiles, nil
}

// Delete removes a profile
func (m *MemoryStore) Delete(name string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}
	if name == "" {
		return ErrInvalidCredentials
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[name]; !ok {
		return ErrCredentialsNotFound
	}
	delete(m.profiles, name)
	return nil
}

// Exists checks if a profile is stored
func (m *MemoryStore) Exists(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.profiles[name]
	return ok
}

// Count returns the number of stored profiles
func (m *MemoryStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.profiles)
}
