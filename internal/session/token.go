package session

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"sigs.k8s.io/yaml"
)

// ErrEmptyToken is returned for a token file without an access token.
var ErrEmptyToken = errors.New("token has no access token")

// ReadToken reads an oauth2 token from a JSON or YAML file.
func ReadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	token, err := DecodeToken(data)
	if err != nil {
		return nil, fmt.Errorf("invalid token file %s: %w", path, err)
	}
	return token, nil
}

// DecodeToken decodes a token in the oauth2 JSON form (access_token,
// token_type, refresh_token, expiry). YAML with the same keys is accepted.
func DecodeToken(data []byte) (*oauth2.Token, error) {
	var token oauth2.Token
	if err := yaml.Unmarshal(data, &token); err != nil {
		return nil, err
	}
	if token.AccessToken == "" {
		return nil, ErrEmptyToken
	}
	return &token, nil
}
