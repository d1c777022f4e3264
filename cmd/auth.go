package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/teemow/meetgate/internal/config"
	"github.com/teemow/meetgate/internal/google"
	"github.com/teemow/meetgate/internal/logging"
)

func newAuthCmd() *cobra.Command {
	var (
		credentialsFile string
		tokenFile       string
		redirectURL     string
	)

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize meetgate with a Google account",
		Long: `Authorize meetgate to manage Google Calendar events on behalf of a Google
account and save the resulting token file.

The command prints a consent URL. Open it in a browser, approve access and
paste the authorization code (or the full redirect URL) back into the
terminal. The token, including its refresh token, is written to the token
file that "meetgate serve" reads.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("credentials-file") {
				if v := os.Getenv(config.EnvCredentialsFile); v != "" {
					credentialsFile = v
				}
			}
			if !cmd.Flags().Changed("token-file") {
				if v := os.Getenv(config.EnvTokenFile); v != "" {
					tokenFile = v
				}
			}

			creds, err := google.LoadCredentials(credentialsFile)
			if err != nil {
				return err
			}
			store := google.NewFileTokenStore(tokenFile)
			return runAuth(cmd.Context(), cmd.InOrStdin(), cmd.ErrOrStderr(), creds, store, redirectURL, uuid.NewString())
		},
	}

	cmd.Flags().StringVar(&credentialsFile, "credentials-file", config.DefaultCredentialsFile, "Google OAuth client secrets file. Can also use GOOGLE_CREDENTIALS_FILE env var.")
	cmd.Flags().StringVar(&tokenFile, "token-file", config.DefaultTokenFile, "Where to write the token. Can also use TOKEN_FILE_PATH env var.")
	cmd.Flags().StringVar(&redirectURL, "redirect-url", "", "Redirect URL registered for the OAuth client (default: first redirect URI of the credentials file)")

	return cmd
}

// runAuth runs the interactive authorization code flow and saves the token.
func runAuth(ctx context.Context, in io.Reader, out io.Writer, creds *google.Credentials, store *google.FileTokenStore, redirectURL, state string) error {
	authURL := creds.AuthCodeURL(state, redirectURL)
	fmt.Fprintf(out, "Open the following URL in your browser and authorize meetgate:\n\n  %s\n\n", authURL)
	fmt.Fprint(out, "Paste the authorization code or the full redirect URL: ")

	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed to read authorization code: %w", err)
		}
		return errors.New("no authorization code entered")
	}
	code, err := parseAuthCode(scanner.Text(), state)
	if err != nil {
		return err
	}

	tok, err := creds.Exchange(ctx, code, redirectURL)
	if err != nil {
		return err
	}
	if tok.RefreshToken == "" {
		fmt.Fprintln(out, "\nWarning: Google returned no refresh token; the session will expire with the access token.")
		fmt.Fprintln(out, "Revoke meetgate's access in your Google account settings and run 'meetgate auth' again.")
	}

	if err := store.Save(tok); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	fmt.Fprintf(out, "\nToken saved to %s (%s)\n", store.Path(), logging.SanitizeToken(tok.AccessToken))
	return nil
}

// parseAuthCode accepts either a bare code or the redirect URL carrying it.
// A redirect URL must carry the expected state.
func parseAuthCode(input, state string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", errors.New("no authorization code entered")
	}
	if !strings.Contains(input, "://") {
		return input, nil
	}

	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid redirect URL: %w", err)
	}
	q := u.Query()
	if e := q.Get("error"); e != "" {
		return "", fmt.Errorf("authorization was denied: %s", e)
	}
	if got := q.Get("state"); got != state {
		return "", errors.New("redirect URL state does not match this authorization request")
	}
	code := q.Get("code")
	if code == "" {
		return "", errors.New("redirect URL carries no authorization code")
	}
	return code, nil
}
