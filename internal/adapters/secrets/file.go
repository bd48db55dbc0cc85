package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/henry-enterprise/portal-gateway/internal/ports"
)

// FileStore implements ports.SecretStore from a JSON file mapping usernames
// to base32 TOTP secrets. It is intended for development and small
// deployments where standing up Postgres is not worth it.
type FileStore struct {
	path string

	mu      sync.RWMutex
	secrets map[string]string
}

// NewFileStore loads the secret map from path.
func NewFileStore(path string) (*FileStore, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading TOTP secrets file: %w", err)
	}
	var secrets map[string]string
	if err := json.Unmarshal(raw, &secrets); err != nil {
		return nil, fmt.Errorf("parsing TOTP secrets file %s: %w", path, err)
	}
	return &FileStore{path: path, secrets: secrets}, nil
}

// Lookup returns the secret for username or ports.ErrNotFound.
func (s *FileStore) Lookup(_ context.Context, username string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	secret, ok := s.secrets[username]
	if !ok || secret == "" {
		return "", ports.ErrNotFound
	}
	return secret, nil
}

// Enroll stores or replaces the secret for username and rewrites the file.
func (s *FileStore) Enroll(_ context.Context, username, secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[username] = secret
	raw, err := json.MarshalIndent(s.secrets, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding TOTP secrets: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("writing TOTP secrets file %s: %w", s.path, err)
	}
	return nil
}
