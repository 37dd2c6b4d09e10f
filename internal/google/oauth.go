package google

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// CalendarScope grants full read/write access to the user's calendars.
// If this scope changes, existing tokens must be removed and re-authorized.
const CalendarScope = "https://www.googleapis.com/auth/calendar"

// OAuthConfig builds the OAuth2 configuration for the Google Calendar API.
//
// The client credentials are taken from the GOOGLE_CLIENT_ID and
// GOOGLE_CLIENT_SECRET environment variables. If those are unset, a client
// secrets file (the JSON downloaded from the Google Cloud console) is read
// from credentials.json in the config directory.
func OAuthConfig() (*oauth2.Config, error) {
	clientID := os.Getenv("GOOGLE_CLIENT_ID")
	clientSecret := os.Getenv("GOOGLE_CLIENT_SECRET")

	if clientID != "" && clientSecret != "" {
		return &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{CalendarScope},
		}, nil
	}

	secretsPath := filepath.Join(ConfigDir(), "credentials.json")
	data, err := os.ReadFile(secretsPath)
	if err != nil {
		return nil, fmt.Errorf("no Google client credentials: set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET or place a client secrets file at %s: %w", secretsPath, err)
	}

	conf, err := google.ConfigFromJSON(data, CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse client secrets file %s: %w", secretsPath, err)
	}
	return conf, nil
}

// ConfigDir returns the directory holding the persisted token and the
// optional client secrets file. CALCHAT_CONFIG_DIR overrides the default,
// which is calchat under the user config directory.
func ConfigDir() string {
	if dir := os.Getenv("CALCHAT_CONFIG_DIR"); dir != "" {
		return dir
	}
	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	return filepath.Join(base, "calchat")
}

// DefaultTokenPath returns the path of the persisted credential file.
// Absence of this file is equivalent to "never authorized".
func DefaultTokenPath() string {
	return filepath.Join(ConfigDir(), "token.json")
}
