package cli

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/keywordforge/kwforge/internal/api"
	"github.com/keywordforge/kwforge/internal/config"
	"github.com/keywordforge/kwforge/internal/http"
)

// newAPIClient builds the dashboard API client from the merged config,
// prompting for a proxy password when the proxy mode needs one and the
// config does not carry it.
func newAPIClient(cfg *config.Config) (*api.Client, error) {
	if http.NeedsProxyPassword(cfg) {
		pw, err := promptProxyPassword(cfg.ProxyUser)
		if err != nil {
			return nil, err
		}
		cfg.ProxyPassword = pw
	}

	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}
	return client, nil
}

// promptProxyPassword reads a proxy password without echo. Requires a
// terminal; piped stdin gets an explicit error instead of a hang.
func promptProxyPassword(user string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("proxy password required for user %q: set KWFORGE_PROXY_PASSWORD or run interactively", user)
	}

	fmt.Fprintf(os.Stderr, "Proxy password for %s: ", user)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read proxy password: %w", err)
	}
	return string(pw), nil
}
