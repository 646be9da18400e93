package utils

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	sdk "github.com/bitwarden/sdk-go"
)

// Retry parameters for Bitwarden API calls.
const (
	bwsMaxRetries     = 5
	bwsInitialBackoff = 500 * time.Millisecond
)

// BWSSecretsClient wraps an authenticated Bitwarden Secrets Manager client.
type BWSSecretsClient struct {
	bw    sdk.BitwardenClientInterface
	orgID string
}

// NewBWSSecretsClient logs in with BWS_ACCESS_TOKEN and returns a client
// scoped to BWS_ORGANIZATION_ID. Login is retried with exponential backoff
// on rate-limit responses only.
func NewBWSSecretsClient() (*BWSSecretsClient, error) {
	accessToken := os.Getenv("BWS_ACCESS_TOKEN")
	if strings.TrimSpace(accessToken) == "" {
		return nil, errors.New("BWS_ACCESS_TOKEN env var is missing or empty")
	}
	orgID := os.Getenv("BWS_ORGANIZATION_ID")
	if strings.TrimSpace(orgID) == "" {
		return nil, errors.New("BWS_ORGANIZATION_ID env var is missing or empty")
	}

	bw, err := sdk.NewBitwardenClient(nil, nil)
	if err != nil {
		return nil, fmt.Errorf("initialising Bitwarden SDK client: %w", err)
	}

	backoff := bwsInitialBackoff
	for attempt := 1; attempt <= bwsMaxRetries; attempt++ {
		err = bw.AccessTokenLogin(accessToken, nil)
		if err == nil {
			return &BWSSecretsClient{bw: bw, orgID: orgID}, nil
		}

		// sdk-go does not expose a typed status code.
		if !strings.Contains(err.Error(), "429") &&
			!strings.Contains(err.Error(), "Too Many Requests") {
			bw.Close()
			return nil, fmt.Errorf("Bitwarden access-token login failed: %w", err)
		}
		if attempt == bwsMaxRetries {
			break
		}
		time.Sleep(backoff)
		backoff *= 2
	}

	bw.Close()
	return nil, fmt.Errorf("Bitwarden access-token login failed after %d attempts: %w", bwsMaxRetries, err)
}

// Close releases resources held by the underlying SDK client.
func (c *BWSSecretsClient) Close() {
	if c != nil && c.bw != nil {
		c.bw.Close()
	}
}

// GetBWSSecrets retrieves all key/value secrets belonging to the Bitwarden
// project with the given name.
func (c *BWSSecretsClient) GetBWSSecrets(projectName string) (map[string]string, error) {
	if strings.TrimSpace(projectName) == "" {
		return nil, errors.New("projectName must not be empty")
	}

	projectsResp, err := c.bw.Projects().List(c.orgID)
	if err != nil {
		return nil, fmt.Errorf("listing Bitwarden projects: %w", err)
	}

	var projectID string
	for _, p := range projectsResp.Data {
		if strings.EqualFold(p.Name, projectName) {
			projectID = p.ID
			break
		}
	}
	if projectID == "" {
		return nil, fmt.Errorf("project %q not found in organisation %s", projectName, c.orgID)
	}

	syncResp, err := c.bw.Secrets().Sync(c.orgID, nil)
	if err != nil {
		return nil, fmt.Errorf("syncing Bitwarden secrets: %w", err)
	}

	out := make(map[string]string)
	for _, s := range syncResp.Secrets {
		if s.ProjectID != nil && *s.ProjectID == projectID {
			out[s.Key] = s.Value
		}
	}
	return out, nil
}

// ExportSecretsToEnv sets every secret whose key is not already present in
// the process environment. Explicit env vars always win over vault values.
// It returns the keys that were exported.
func ExportSecretsToEnv(secrets map[string]string) ([]string, error) {
	var exported []string
	for key, value := range secrets {
		if _, set := os.LookupEnv(key); set {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return exported, fmt.Errorf("export %s: %w", key, err)
		}
		exported = append(exported, key)
	}
	return exported, nil
}

// LoadBWSSecretsIntoEnv is a no-op unless BWS_ACCESS_TOKEN is set. Otherwise
// it pulls each named project and exports its secrets into the environment,
// earlier projects taking precedence over later ones.
func LoadBWSSecretsIntoEnv(projectNames ...string) error {
	if strings.TrimSpace(os.Getenv("BWS_ACCESS_TOKEN")) == "" {
		Logger.Debug("BWS_ACCESS_TOKEN not set; skipping Bitwarden secrets")
		return nil
	}

	client, err := NewBWSSecretsClient()
	if err != nil {
		return err
	}
	defer client.Close()

	for _, name := range projectNames {
		secrets, err := client.GetBWSSecrets(name)
		if err != nil {
			return err
		}
		exported, err := ExportSecretsToEnv(secrets)
		if err != nil {
			return err
		}
		Logger.WithField("project", name).Debugf("Exported %d secrets from Bitwarden", len(exported))
	}
	return nil
}
