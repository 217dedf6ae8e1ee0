package auth

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zalando/go-keyring"
)

func TestCredentialManager(t *testing.T) {
	store := NewMemoryStore()
	manager := NewManagerWithStores(store)

	profile := &Profile{
		Name:   "team",
		APIKey: "  0123456789abcdef0123456789abcdef01234567\n",
		Host:   "https://api.wandb.ai",
	}

	if err := manager.Store(profile); err != nil {
		t.Fatalf("Failed to store profile: %v", err)
	}
	if profile.LastModified.IsZero() {
		t.Error("LastModified should be stamped on store")
	}

	retrieved, err := manager.Retrieve("team")
	if err != nil {
		t.Fatalf("Failed to retrieve profile: %v", err)
	}
	if retrieved.APIKey != "0123456789abcdef0123456789abcdef01234567" {
		t.Errorf("API key should be trimmed, got %q", retrieved.APIKey)
	}
	if retrieved.Host != profile.Host {
		t.Errorf("Host mismatch: got %s, want %s", retrieved.Host, profile.Host)
	}

	key, err := manager.APIKey("team")
	if err != nil || key != retrieved.APIKey {
		t.Errorf("APIKey() = %q, %v", key, err)
	}

	profiles, err := manager.List()
	if err != nil {
		t.Fatalf("Failed to list profiles: %v", err)
	}
	if len(profiles) != 1 {
		t.Errorf("Expected 1 profile, got %d", len(profiles))
	}

	if err := manager.Delete("team"); err != nil {
		t.Errorf("Failed to delete profile: %v", err)
	}
	if _, err := manager.Retrieve("team"); !errors.Is(err, ErrCredentialsNotFound) {
		t.Errorf("Expected ErrCredentialsNotFound after delete, got %v", err)
	}
	if store.Count() != 0 {
		t.Errorf("Expected 0 profiles after deletion, got %d", store.Count())
	}
	if err := manager.Delete("team"); !errors.Is(err, ErrCredentialsNotFound) {
		t.Errorf("Deleting twice should report not found, got %v", err)
	}
}

func TestManagerDefaultsAndValidation(t *testing.T) {
	manager := NewManagerWithStores(NewMemoryStore())

	if err := manager.Store(nil); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials for nil profile, got %v", err)
	}
	if err := manager.Store(&Profile{APIKey: "   "}); err == nil {
		t.Error("Expected error for blank API key")
	}

	if err := manager.Store(&Profile{APIKey: "abc"}); err != nil {
		t.Fatalf("Failed to store: %v", err)
	}
	p, err := manager.Retrieve("")
	if err != nil {
		t.Fatalf("Failed to retrieve default profile: %v", err)
	}
	if p.Name != DefaultProfile {
		t.Errorf("Expected default profile name, got %s", p.Name)
	}
}

func TestManagerFallsThroughStores(t *testing.T) {
	broken := NewMemoryStore()
	broken.StoreError = errors.New("disk full")
	working := NewMemoryStore()

	manager := NewManagerWithStores(broken, working, NewEnvironmentStore())
	if err := manager.Store(&Profile{Name: "p", APIKey: "k"}); err != nil {
		t.Fatalf("Store should fall through to the working store: %v", err)
	}
	if !working.Exists("p") {
		t.Error("Profile should be in the second store")
	}

	failing := NewManagerWithStores(broken, NewEnvironmentStore())
	err := failing.Store(&Profile{Name: "p", APIKey: "k"})
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Expected last store error to be wrapped, got %v", err)
	}
}

func TestManagerListPrefersNewest(t *testing.T) {
	older := NewMemoryStore()
	newer := NewMemoryStore()
	now := time.Now()

	_ = older.Store(&Profile{Name: "b", APIKey: "old", LastModified: now.Add(-time.Hour)})
	_ = newer.Store(&Profile{Name: "b", APIKey: "new", LastModified: now})
	_ = newer.Store(&Profile{Name: "a", APIKey: "a", LastModified: now})

	profiles, err := NewManagerWithStores(older, newer).List()
	if err != nil {
		t.Fatal(err)
	}
	if len(profiles) != 2 {
		t.Fatalf("Expected 2 profiles, got %d", len(profiles))
	}
	if profiles[0].Name != "a" || profiles[1].Name != "b" {
		t.Errorf("Profiles should be sorted by name: %s, %s", profiles[0].Name, profiles[1].Name)
	}
	if profiles[1].APIKey != "new" {
		t.Errorf("Expected newest copy of b, got %s", profiles[1].APIKey)
	}
}

func TestSanitizeProfile(t *testing.T) {
	p := &Profile{Name: "default", APIKey: "0123456789abcdef"}
	masked := SanitizeProfile(p)

	if masked.APIKey != "0123...cdef" {
		t.Errorf("Unexpected mask: %s", masked.APIKey)
	}
	if masked.Name != p.Name {
		t.Error("Name should not be masked")
	}
	if p.APIKey != "0123456789abcdef" {
		t.Error("Original profile must not be modified")
	}
	if SanitizeProfile(&Profile{APIKey: "short"}).APIKey != "********" {
		t.Error("Short keys should be fully masked")
	}
	if SanitizeProfile(nil) != nil {
		t.Error("nil in, nil out")
	}
}

func TestEncryptedFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.enc")

	store, err := NewEncryptedFileStore(path, "test_passphrase_123")
	if err != nil {
		t.Fatalf("Failed to create encrypted store: %v", err)
	}

	if got, _ := store.List(); len(got) != 0 {
		t.Errorf("Expected empty list before first write, got %d", len(got))
	}

	profile := &Profile{Name: "enc", APIKey: "super_secret_api_key"}
	if err := store.Store(profile); err != nil {
		t.Fatalf("Failed to store in encrypted file: %v", err)
	}

	retrieved, err := store.Retrieve("enc")
	if err != nil {
		t.Fatalf("Failed to retrieve from encrypted file: %v", err)
	}
	if retrieved.APIKey != profile.APIKey {
		t.Errorf("APIKey mismatch after encryption/decryption")
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(content, []byte("super_secret_api_key")) {
		t.Error("File contains plaintext API key")
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected 0600 permissions, got %v", info.Mode().Perm())
	}

	wrong, err := NewEncryptedFileStore(path, "another_passphrase")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := wrong.Retrieve("enc"); err == nil || errors.Is(err, ErrCredentialsNotFound) {
		t.Errorf("Wrong passphrase should fail to decrypt, got %v", err)
	}

	if err := store.Delete("enc"); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Store file should be removed with its last profile")
	}
}

func TestEncryptedFileStorePassphraseFallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.enc")

	t.Setenv(PassphraseEnv, "")
	first, err := NewEncryptedFileStore(path, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".passphrase")); err != nil {
		t.Fatalf("Generated passphrase should be persisted: %v", err)
	}
	if err := first.Store(&Profile{Name: "p", APIKey: "k"}); err != nil {
		t.Fatal(err)
	}

	second, err := NewEncryptedFileStore(path, "")
	if err != nil {
		t.Fatal(err)
	}
	if !second.Exists("p") {
		t.Error("Second store should reuse the persisted passphrase")
	}

	t.Setenv(PassphraseEnv, "from-env")
	fromEnv, err := NewEncryptedFileStore(path, "")
	if err != nil {
		t.Fatal(err)
	}
	if fromEnv.passphrase != "from-env" {
		t.Errorf("Environment passphrase should win, got %q", fromEnv.passphrase)
	}
}

func TestEnvironmentStore(t *testing.T) {
	t.Setenv("WANDB_API_KEY", "env_key")
	t.Setenv("WANDB_BASE_URL", "https://wandb.example.com")

	store := NewEnvironmentStore()

	profile, err := store.Retrieve("")
	if err != nil {
		t.Fatalf("Failed to retrieve from environment: %v", err)
	}
	if profile.APIKey != "env_key" {
		t.Errorf("APIKey mismatch: got %s, want env_key", profile.APIKey)
	}
	if profile.Host != "https://wandb.example.com" {
		t.Errorf("Host mismatch: got %s", profile.Host)
	}
	if !store.Exists("anything") {
		t.Error("Environment store answers for every profile")
	}

	if err := store.Store(&Profile{}); err != ErrStoreUnavailable {
		t.Error("Expected ErrStoreUnavailable for environment store")
	}

	t.Setenv("WANDB_API_KEY", "")
	if _, err := store.Retrieve("default"); err != ErrCredentialsNotFound {
		t.Errorf("Expected ErrCredentialsNotFound, got %v", err)
	}
}

func TestStoredProfileWinsOverEnvironment(t *testing.T) {
	t.Setenv("WANDB_API_KEY", "env_key")

	mem := NewMemoryStore()
	manager := NewManagerWithStores(mem, NewEnvironmentStore())

	key, err := manager.APIKey("default")
	if err != nil || key != "env_key" {
		t.Fatalf("Expected env fallback, got %q, %v", key, err)
	}

	if err := manager.Store(&Profile{Name: "default", APIKey: "stored_key"}); err != nil {
		t.Fatal(err)
	}
	key, _ = manager.APIKey("default")
	if key != "stored_key" {
		t.Errorf("Stored profile should take precedence, got %s", key)
	}
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()

	store, err := NewKeyringStore()
	if err != nil {
		t.Fatalf("Mock keyring should be available: %v", err)
	}

	for _, name := range []string{"alpha", "beta"} {
		if err := store.Store(&Profile{Name: name, APIKey: name + "_key"}); err != nil {
			t.Fatalf("Failed to store %s: %v", name, err)
		}
	}

	p, err := store.Retrieve("beta")
	if err != nil || p.APIKey != "beta_key" {
		t.Fatalf("Retrieve(beta) = %+v, %v", p, err)
	}

	profiles, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(profiles) != 2 {
		t.Errorf("Expected 2 indexed profiles, got %d", len(profiles))
	}

	if err := store.Delete("alpha"); err != nil {
		t.Fatal(err)
	}
	if store.Exists("alpha") {
		t.Error("alpha should be gone")
	}
	if err := store.Delete("alpha"); !errors.Is(err, ErrCredentialsNotFound) {
		t.Errorf("Expected ErrCredentialsNotFound, got %v", err)
	}
	profiles, _ = store.List()
	if len(profiles) != 1 || profiles[0].Name != "beta" {
		t.Errorf("Index should only hold beta, got %d entries", len(profiles))
	}
}

func TestMemoryStoreErrorInjection(t *testing.T) {
	store := NewMemoryStore()
	store.ListError = errors.New("injected error")

	if _, err := store.List(); err == nil || err.Error() != "injected error" {
		t.Error("Expected injected error")
	}

	manager := NewManagerWithStores(store)
	profiles, err := manager.List()
	if err != nil || len(profiles) != 0 {
		t.Errorf("Manager should skip failing stores, got %d, %v", len(profiles), err)
	}
}

func TestShowAPIKeyGuide(t *testing.T) {
	var buf bytes.Buffer
	ShowAPIKeyGuide(&buf)
	if !strings.Contains(buf.String(), AuthorizeURL) {
		t.Error("Guide should link to the authorize page")
	}

	buf.Reset()
	ShowQuickAPIKeyGuide(&buf)
	if !strings.Contains(buf.String(), "WANDB_API_KEY") {
		t.Error("Quick guide should mention the environment variable")
	}
}
