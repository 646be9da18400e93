package utils

import (
	"fmt"
	"net/url"
	"strings"
)

// WithIsolatedRole swaps the user in a Postgres URL for a per-run role,
// keeping the password. CI runs use it so that parallel pipelines each see
// their own schema through the role's search_path.
func WithIsolatedRole(baseURL, runnerID, runNumber string) (string, error) {
	if runnerID == "" || runNumber == "" {
		return "", fmt.Errorf("runnerID and runNumber must be non-empty")
	}

	role := strings.ToLower(runnerID + "-" + runNumber)

	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid DB URL: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", fmt.Errorf("invalid DB URL scheme %q", u.Scheme)
	}

	password, _ := u.User.Password()
	u.User = url.UserPassword(role, password)

	return u.String(), nil
}
