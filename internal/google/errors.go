package google

import (
	"errors"
	"fmt"
)

var (
	// ErrNoToken is reported when no usable saved token exists.
	ErrNoToken = errors.New("no valid credentials")

	// ErrRefreshFailed is reported when the token endpoint rejects a refresh.
	ErrRefreshFailed = errors.New("token refresh failed")
)

// ConfigError describes an unusable OAuth client credentials file. It is fatal
// at startup.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid credentials file %q: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// AuthError reports that the session could not produce a valid access token.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return "authentication failed: " + e.Err.Error()
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// IsAuthError reports whether err is, or wraps, an *AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}
