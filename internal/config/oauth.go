package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// GoogleClientConfig is the "installed application" client file downloaded from the Google console
type GoogleClientConfig struct {
	Installed GoogleInstalledApp `json:"installed" validate:"required"`
}

// GoogleInstalledApp holds the client credentials and endpoints
type GoogleInstalledApp struct {
	ClientID                string   `json:"client_id" validate:"required"`
	ProjectID               string   `json:"project_id" validate:"required"`
	AuthURI                 string   `json:"auth_uri" validate:"required,url"`
	TokenURI                string   `json:"token_uri" validate:"required,url"`
	AuthProviderX509CertURL string   `json:"auth_provider_x509_cert_url" validate:"required,url"`
	ClientSecret            string   `json:"client_secret" validate:"required"`
	RedirectURIs            []string `json:"redirect_uris" validate:"required,min=1,dive,uri"`
}

// JSON returns the file form expected by google.ConfigFromJSON
func (c *GoogleClientConfig) JSON() ([]byte, error) {
	return json.Marshal(c)
}

// LoadGoogleClientWithEnv finds and loads google_client.<env>.json
func LoadGoogleClientWithEnv(env string) (*GoogleClientConfig, error) {
	path, err := findGoogleClientFile(env)
	if err != nil {
		return nil, fmt.Errorf("failed to find google client file: %w", err)
	}

	return LoadGoogleClientFromPath(path)
}

// LoadGoogleClientFromPath loads and validates a client file
func LoadGoogleClientFromPath(path string) (*GoogleClientConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read google client file: %w", err)
	}

	var cfg GoogleClientConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse google client file: %w", err)
	}

	if err := ValidateGoogleClient(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func ValidateGoogleClient(cfg *GoogleClientConfig) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("google client validation failed: %w", err)
	}
	return nil
}

func findGoogleClientFile(env string) (string, error) {
	name := "google_client.json"
	if env != "" {
		name = "google_client." + env + ".json"
	}

	if _, err := os.Stat(name); err == nil {
		return name, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homePath := filepath.Join(homeDir, name)
	if _, err := os.Stat(homePath); err == nil {
		return homePath, nil
	}

	return "", fmt.Errorf("%s not found in current directory or home directory", name)
}
