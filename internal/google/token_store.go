package google

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
)

// TokenStore loads and persists the user's OAuth token.
type TokenStore interface {
	Load() (*oauth2.Token, error)
	Save(tok *oauth2.Token) error
}

// tokenFile is the on-disk shape of a saved token. The "token" key is accepted
// on read for files written by Google's Python auth libraries.
type tokenFile struct {
	AccessToken  string     `json:"access_token,omitempty"`
	LegacyToken  string     `json:"token,omitempty"`
	TokenType    string     `json:"token_type,omitempty"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	Expiry       *time.Time `json:"expiry,omitempty"`
}

// FileTokenStore keeps the token in a single JSON file.
type FileTokenStore struct {
	path string
}

// NewFileTokenStore returns a store backed by path.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// Path returns the token file location.
func (s *FileTokenStore) Path() string {
	return s.path
}

// Load reads the saved token. A missing, unreadable or empty token file yields
// an *AuthError wrapping ErrNoToken.
func (s *FileTokenStore) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &AuthError{Err: fmt.Errorf("%w: token file %s not found", ErrNoToken, s.path)}
		}
		return nil, &AuthError{Err: fmt.Errorf("%w: %v", ErrNoToken, err)}
	}

	var f tokenFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, &AuthError{Err: fmt.Errorf("%w: token file %s is malformed: %v", ErrNoToken, s.path, err)}
	}

	tok := &oauth2.Token{
		AccessToken:  f.AccessToken,
		TokenType:    f.TokenType,
		RefreshToken: f.RefreshToken,
	}
	if tok.AccessToken == "" {
		tok.AccessToken = f.LegacyToken
	}
	if tok.TokenType == "" {
		tok.TokenType = "Bearer"
	}
	if f.Expiry != nil {
		tok.Expiry = *f.Expiry
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, &AuthError{Err: fmt.Errorf("%w: token file %s holds no token", ErrNoToken, s.path)}
	}
	return tok, nil
}

// Save writes tok to a temporary file in the same directory and renames it over
// the token file, so readers never observe a partially written token.
func (s *FileTokenStore) Save(tok *oauth2.Token) error {
	if tok == nil {
		return errors.New("cannot save nil token")
	}

	f := tokenFile{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.TokenType,
		RefreshToken: tok.RefreshToken,
	}
	if !tok.Expiry.IsZero() {
		expiry := tok.Expiry.UTC()
		f.Expiry = &expiry
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary token file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op once the rename succeeded.
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to set token file permissions: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close token file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace token file: %w", err)
	}
	return nil
}
