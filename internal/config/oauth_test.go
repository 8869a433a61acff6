package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validGoogleClient() *GoogleClientConfig {
	return &GoogleClientConfig{
		Installed: GoogleInstalledApp{
			ClientID:                "planner.apps.googleusercontent.com",
			ProjectID:               "shift-planner",
			AuthURI:                 "https://accounts.google.com/o/oauth2/auth",
			TokenURI:                "https://oauth2.googleapis.com/token",
			AuthProviderX509CertURL: "https://www.googleapis.com/oauth2/v1/certs",
			ClientSecret:            "secret",
			RedirectURIs:            []string{"http://localhost"},
		},
	}
}

func TestValidateGoogleClient_ValidConfig(t *testing.T) {
	assert.NoError(t, ValidateGoogleClient(validGoogleClient()))
}

func TestValidateGoogleClient_MissingSecret(t *testing.T) {
	cfg := validGoogleClient()
	cfg.Installed.ClientSecret = ""

	err := ValidateGoogleClient(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidateGoogleClient_BadRedirectURI(t *testing.T) {
	cfg := validGoogleClient()
	cfg.Installed.RedirectURIs = []string{"not a valid uri"}

	err := ValidateGoogleClient(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadGoogleClientFromPath_RoundTripsThroughJSON(t *testing.T) {
	data, err := validGoogleClient().JSON()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "google_client.json")
	require.NoError(t, os.WriteFile(path, data, 0600))

	cfg, err := LoadGoogleClientFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "shift-planner", cfg.Installed.ProjectID)

	var raw map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw["installed"], "client_secret")
}

func TestLoadGoogleClientFromPath_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "google_client.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"installed": {"client_id": "x" "project_id": "y"}}`), 0600))

	_, err := LoadGoogleClientFromPath(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse google client file")
}

func TestLoadGoogleClientFromPath_FileNotFound(t *testing.T) {
	_, err := LoadGoogleClientFromPath("/nonexistent/google_client.json")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read google client file")
}
