package google

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// TokenRecord is the serialized form of a Credential. One record per
// file; the schema is stable and readable by future versions.
type TokenRecord struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Expiry       time.Time `json:"expiry"`
	Scopes       []string  `json:"scopes"`
	ClientID     string    `json:"client_id"`
}

// Store persists token records on disk.
//
// Writes go through a temp file in the destination directory followed
// by a rename, so a failed write never leaves a readable partial
// record. Concurrent writers to the same path are not supported;
// callers sharing a path across processes must serialize externally.
type Store struct {
	logger *slog.Logger
}

// NewStore creates a file-backed token store.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{logger: logger}
}

// Read loads the token record at path.
// Returns ErrNotFound if no record exists and ErrCorruptRecord if the
// content does not parse into the expected schema.
func (s *Store) Read(path string) (*TokenRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read token record %s: %w", path, err)
	}

	var rec TokenRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	if rec.AccessToken == "" {
		return nil, fmt.Errorf("%w: missing access_token", ErrCorruptRecord)
	}

	s.logger.Debug("read token record", "path", path, "scopes", len(rec.Scopes))
	return &rec, nil
}

// Write serializes rec to path, overwriting any existing record.
// The record holds secret material; the file is created 0600 inside a
// 0700 directory, but the caller remains responsible for choosing a
// safe location.
func (s *Store) Write(rec *TokenRecord, path string) error {
	if rec == nil {
		return fmt.Errorf("token record cannot be nil")
	}
	if rec.AccessToken == "" {
		return fmt.Errorf("token record has no access token")
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to serialize token record: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".token-*")
	if err != nil {
		return fmt.Errorf("failed to create temp token file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set token file mode: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write token record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close token file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace token record %s: %w", path, err)
	}

	s.logger.Debug("wrote token record", "path", path, "scopes", len(rec.Scopes))
	return nil
}

// DefaultCredentialsPath returns the conventional location for the
// token record, inside the user cache directory.
func DefaultCredentialsPath() string {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = "."
	}
	return filepath.Join(cacheDir, "gmailkit", "credentials.json")
}
