package kaggle

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNoCredentials is returned by Authenticate when no API key can be found
var ErrNoCredentials = errors.New("kaggle credentials not found: set KAGGLE_USERNAME and KAGGLE_KEY or provide kaggle.json")

// Credentials is the username/key pair of the Kaggle API
type Credentials struct {
	Username string `json:"username"`
	Key      string `json:"key"`
}

func (c Credentials) valid() bool {
	return c.Username != "" && c.Key != ""
}

func configDir() (string, error) {
	if dir := os.Getenv("KAGGLE_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".kaggle"), nil
}

func readCredentialsFile(path string) (Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Credentials{}, err
	}
	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return Credentials{}, fmt.Errorf("invalid credentials file %s: %w", path, err)
	}
	return creds, nil
}

// LookupCredentials resolves credentials from the explicit value, then the
// KAGGLE_USERNAME/KAGGLE_KEY environment, then kaggle.json in the config dir
func LookupCredentials(explicit Credentials) (Credentials, error) {
	if explicit.valid() {
		return explicit, nil
	}

	env := Credentials{Username: os.Getenv("KAGGLE_USERNAME"), Key: os.Getenv("KAGGLE_KEY")}
	if env.valid() {
		return env, nil
	}

	dir, err := configDir()
	if err != nil {
		return Credentials{}, ErrNoCredentials
	}
	creds, err := readCredentialsFile(filepath.Join(dir, "kaggle.json"))
	if errors.Is(err, os.ErrNotExist) {
		return Credentials{}, ErrNoCredentials
	}
	if err != nil {
		return Credentials{}, err
	}
	if !creds.valid() {
		return Credentials{}, ErrNoCredentials
	}
	return creds, nil
}
